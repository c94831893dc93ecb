package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/soyeahso/somc/internal/tui"
	"github.com/spf13/cobra"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:         "tui",
		Short:       "Open the interactive terminal interface",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{logToFile: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
			defer stop()

			svc := bootstrap(ctx)
			log.Info().
				Int("agents", svc.catalog.Len()).
				Str("backend", svc.backend.BaseURL()).
				Msg("starting tui")
			return tui.Run(ctx, svc.controller(), svc.catalogErr, log)
		},
	}
}
