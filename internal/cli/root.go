package cli

import (
	"io"
	"path/filepath"

	"github.com/soyeahso/somc/internal/config"
	"github.com/soyeahso/somc/internal/logging"
	"github.com/spf13/cobra"
)

// logToFile marks commands that own the terminal and must not log to it.
const logToFile = "somc/log-to-file"

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths     config.Paths
	cfg       config.Config
	log       *logging.Logger
	logCloser io.Closer
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "somc",
		Short: "Scenario analysis with specialist agents",
		Long: "somc lets you pick specialist agents from a remote catalog, describe a scenario,\n" +
			"and read one analysis per agent from the analysis backend.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}

			cfg, err = config.Load(paths.Config)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}

			opts := logging.Options{
				Level: cfg.Logging.Level,
				Style: cfg.Logging.ConsoleStyle,
				File:  cfg.Logging.File,
			}
			if _, ok := cmd.Annotations[logToFile]; ok && opts.File == "" {
				if err := paths.EnsureDirs(); err != nil {
					return err
				}
				opts.File = filepath.Join(paths.Logs, "somc.log")
			}
			log, logCloser, err = logging.Open(opts)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCloser == nil {
				return nil
			}
			return logCloser.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.somc/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newAgentsCmd())
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newTUICmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
