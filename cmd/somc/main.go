package main

import (
	"fmt"
	"os"

	"github.com/soyeahso/somc/internal/cli"
	"github.com/tillberg/autorestart"
)

func main() {
	// Development convenience: re-exec when the binary is rebuilt.
	if os.Getenv("SOMC_AUTORESTART") == "1" {
		go autorestart.RestartOnChange()
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "somc:", err)
		os.Exit(1)
	}
}
