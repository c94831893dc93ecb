package version

import (
	"fmt"
	"runtime"
)

// Set via ldflags at build time:
//
//	go build -ldflags "-X github.com/soyeahso/somc/internal/version.Version=0.3.0
//	  -X github.com/soyeahso/somc/internal/version.Commit=$(git rev-parse HEAD)
//	  -X github.com/soyeahso/somc/internal/version.Date=$(date -u +%F)"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns a one-line version string.
func Info() string {
	return fmt.Sprintf("somc %s (commit: %s, built: %s, %s/%s)",
		Version, short(Commit), Date, runtime.GOOS, runtime.GOARCH)
}

// Fields returns the build metadata for machine-readable output.
func Fields() map[string]string {
	return map[string]string{
		"version":   Version,
		"commit":    Commit,
		"date":      Date,
		"goVersion": runtime.Version(),
		"platform":  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// UserAgent is sent on outgoing HTTP requests.
func UserAgent() string {
	return "somc/" + Version
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
