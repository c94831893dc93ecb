package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/soyeahso/somc/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit the somc configuration",
	}

	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigUnsetCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value (file first, then effective default)",
		Example: "  somc config get backend.url\n" +
			"  somc config get catalog",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ParseConfigPath(args[0])
			if err != nil {
				return err
			}

			raw, err := config.LoadRaw(paths.Config)
			if err != nil {
				return err
			}
			if val, ok := config.GetValueAtPath(raw, path); ok {
				return printValue(cmd.OutOrStdout(), val)
			}

			// Not in the file: report what Load resolved from defaults and env.
			effective, err := config.ToRaw(cfg)
			if err != nil {
				return err
			}
			val, ok := config.GetValueAtPath(effective, path)
			if !ok {
				return fmt.Errorf("key %q is not set", args[0])
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "(not in config file; effective value)")
			return printValue(cmd.OutOrStdout(), val)
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value after validating the result",
		Long: "The value is read as YAML, so numbers and booleans keep their type and\n" +
			"lists can be written inline. The file is only written when the edited\n" +
			"configuration still validates.",
		Example: "  somc config set backend.url https://analyse.example.org\n" +
			"  somc config set gateway.port 4000\n" +
			`  somc config set backend.candidates "[http://10.0.0.2:8000, http://10.0.0.3:8000]"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ParseConfigPath(args[0])
			if err != nil {
				return err
			}

			raw, err := config.LoadRaw(paths.Config)
			if err != nil {
				return err
			}

			value := parseValue(args[1])
			config.SetValueAtPath(raw, path, value)

			if err := checkEdited(raw); err != nil {
				return err
			}
			if err := saveRaw(raw); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", args[0], value)
			return nil
		},
	}
}

func newConfigUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a configuration value, restoring its default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ParseConfigPath(args[0])
			if err != nil {
				return err
			}

			raw, err := config.LoadRaw(paths.Config)
			if err != nil {
				return err
			}

			if !config.UnsetValueAtPath(raw, path) {
				return fmt.Errorf("key %q not found in %s", args[0], paths.Config)
			}

			if err := saveRaw(raw); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (file, defaults and SOMC_* env)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			effective, err := config.ToRaw(cfg)
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), effective)
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if !all {
				fmt.Fprintln(out, paths.Config)
				return
			}

			source := "default (~/.somc)"
			if home := os.Getenv("SOMC_HOME"); home != "" {
				source = "SOMC_HOME"
			}
			if cfgFile != "" {
				source += ", config from --config"
			}
			fmt.Fprintf(out, "base:   %s\n", paths.Base)
			fmt.Fprintf(out, "config: %s\n", paths.Config)
			fmt.Fprintf(out, "logs:   %s\n", paths.Logs)
			fmt.Fprintf(out, "source: %s\n", source)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "print every somc directory and where the base came from")
	return cmd
}

// checkEdited rejects an edit that would leave the file unloadable or invalid.
func checkEdited(raw map[string]any) error {
	edited, err := config.FromRaw(raw)
	if err != nil {
		return err
	}
	issues := config.Validate(&edited)
	if len(issues) == 0 {
		return nil
	}
	msgs := make([]string, len(issues))
	for i, issue := range issues {
		msgs[i] = issue.String()
	}
	return fmt.Errorf("not saved, config would be invalid: %s", strings.Join(msgs, "; "))
}

func saveRaw(raw map[string]any) error {
	if err := paths.EnsureDirs(); err != nil {
		return err
	}
	return config.SaveRaw(paths.Config, raw)
}

// printValue outputs scalars bare and everything else as YAML.
func printValue(w io.Writer, v any) error {
	switch v.(type) {
	case map[string]any, []any:
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		_, err := fmt.Fprintln(w, v)
		return err
	}
}

// parseValue reads a command-line value as a YAML scalar or flow list.
// Anything that does not parse stays a plain string.
func parseValue(s string) any {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil || v == nil {
		return s
	}
	if _, isMap := v.(map[string]any); isMap {
		return s
	}
	return v
}
