package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/soyeahso/somc/internal/backend"
	"github.com/soyeahso/somc/internal/config"
	"github.com/soyeahso/somc/internal/version"
	"github.com/spf13/cobra"
)

const probeTimeout = 5 * time.Second

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration and probe the catalog and backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "somc %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Fprintf(out, "Config:  %s", paths.Config)
			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Fprint(out, " (not found, using defaults)")
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Logs:    %s\n\n", paths.Logs)

			fmt.Fprintf(out, "Gateway: port=%d bind=%s\n", cfg.Gateway.Port, cfg.Gateway.Bind)
			fmt.Fprintf(out, "Catalog: %s\n", cfg.Catalog.URL)

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*probeTimeout)
			defer cancel()

			svc := bootstrap(ctx)
			if svc.catalogErr != nil {
				fmt.Fprintf(out, "         error: %v\n", svc.catalogErr)
			} else {
				fmt.Fprintf(out, "         %d agent(s)\n", svc.catalog.Len())
			}

			base := svc.backend.BaseURL()
			fmt.Fprintf(out, "Backend: %s%s\n", base, cfg.Backend.SubmitPath)

			bases := append([]string{base}, cfg.Backend.Candidates...)
			hc := &http.Client{Timeout: probeTimeout}
			for _, r := range backend.ProbeAll(ctx, hc, bases, cfg.Backend.HealthPath) {
				state := fmt.Sprintf("ok (%d, %s)", r.Status, r.Latency.Round(time.Millisecond))
				switch {
				case r.Err != "":
					state = "unreachable: " + r.Err
				case !r.OK():
					state = fmt.Sprintf("status %d", r.Status)
				}
				fmt.Fprintf(out, "  probe  %s  %s\n", r.URL, state)
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}
			return nil
		},
	}

	return cmd
}
