package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soyeahso/somc/internal/domain"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		agentRefs []string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "analyze -a <agent>... <scenario>",
		Short: "Submit a scenario to the selected agents and print the analysis",
		Long: "Selects each --agent (by id or name, case-insensitive), submits the scenario once,\n" +
			"and prints one response per agent. When the backend cannot be reached a demo\n" +
			"analysis is printed instead and a notice goes to stderr.",
		Example: `  somc analyze -a 1 -a "Economie Expert" "Bouw van 500 woningen in de binnenstad"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc := bootstrap(ctx)
			if svc.catalogErr != nil {
				log.Warn().Err(svc.catalogErr).Msg("catalog unavailable")
			}

			ctrl := svc.controller()
			for _, ref := range agentRefs {
				a, ok := svc.catalog.Find(ref)
				if !ok {
					return fmt.Errorf("unknown agent %q (see `somc agents`)", ref)
				}
				if ctrl.Contains(a.ID) {
					continue
				}
				if _, err := ctrl.Toggle(ctx, a.ID); err != nil {
					return err
				}
			}

			result, err := ctrl.Submit(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if result.Notice != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "notice:", result.Notice)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&agentRefs, "agent", "a", nil, "agent id or name (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func printResult(cmd *cobra.Command, r domain.AnalysisResult) {
	out := cmd.OutOrStdout()
	for i, resp := range r.AgentResponses {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "== %s (%s) ==\n", resp.AgentName, resp.AgentExpertise)
		fmt.Fprintln(out, resp.Response)
	}
}
