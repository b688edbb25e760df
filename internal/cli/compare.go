package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jobmate/offer-service/internal/export"
	"jobmate/offer-service/internal/offer"
)

func newCompareCmd() *cobra.Command {
	var (
		xlsxPath   string
		withMarket bool
	)
	cmd := &cobra.Command{
		Use:   "compare [offer.json] [offer.json]...",
		Short: "Rank two or more offers from JSON files",
		Long: `Rank two or more offers and print the comparison as JSON. With --xlsx the
comparison is also written as an Excel workbook with a summary sheet and a
metric-by-metric matrix.`,
		Args:        cobra.MinimumNArgs(2),
		Annotations: map[string]string{annotationOffline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFrom(cmd.Context())
			if err != nil {
				return err
			}
			inputs := make([]offer.Input, 0, len(args))
			for _, path := range args {
				in, err := readInput(cmd, path)
				if err != nil {
					return err
				}
				inputs = append(inputs, in)
			}
			svc, err := offlineService(cmd.Context(), rt, withMarket)
			if err != nil {
				return err
			}
			cmp, err := svc.CompareInputs(cmd.Context(), inputs)
			if err != nil {
				return err
			}

			if xlsxPath != "" {
				f, err := os.Create(xlsxPath)
				if err != nil {
					return err
				}
				if err := export.WriteComparison(f, cmp); err != nil {
					f.Close()
					return fmt.Errorf("write workbook: %w", err)
				}
				if err := f.Close(); err != nil {
					return err
				}
				rt.log.Info("comparison workbook written", "path", xlsxPath)
			}
			return writeJSON(cmd.OutOrStdout(), cmp)
		},
	}
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write the comparison to this .xlsx file")
	cmd.Flags().BoolVar(&withMarket, "market", true, "look up market salary data when Adzuna credentials are configured")
	return cmd
}
