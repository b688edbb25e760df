package cli

import (
	"github.com/spf13/cobra"

	"jobmate/offer-service/internal/offer"
)

func newEvaluateCmd() *cobra.Command {
	var (
		withPrep   bool
		withMarket bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate [offer.json]",
		Short: "Value and score one offer from a JSON file",
		Long: `Value and score an offer read from a JSON file ("-" for stdin) and print
the evaluation as JSON. With --prep the output is the full negotiation
package: focus, talking points, scripts and readiness.`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationOffline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFrom(cmd.Context())
			if err != nil {
				return err
			}
			in, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			svc, err := offlineService(cmd.Context(), rt, withMarket)
			if err != nil {
				return err
			}

			if withPrep {
				n, err := svc.PrepareInput(cmd.Context(), offer.SourceCLI, in)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), n)
			}
			ev, err := svc.EvaluateInput(cmd.Context(), offer.SourceCLI, in)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ev)
		},
	}
	cmd.Flags().BoolVar(&withPrep, "prep", false, "include negotiation focus, materials and readiness")
	cmd.Flags().BoolVar(&withMarket, "market", true, "look up market salary data when Adzuna credentials are configured")
	return cmd
}
