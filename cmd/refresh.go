package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"partspricing/internal/bootstrap"
	"partspricing/internal/bootstrap/logging"
	"partspricing/internal/errs"
	"partspricing/internal/usecase/pricing"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one price collection cycle for a part",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		partID, _ := cmd.Flags().GetUint64("part-id")
		sources, _ := cmd.Flags().GetStringSlice("sources")
		if len(sources) == 0 {
			sources = app.Registry.Names()
		}

		result, err := app.Pricing.Refresh(ctx, pricing.RefreshInput{PartID: partID, Sources: sources})
		if err != nil {
			return errs.Wrap(err, "refresh prices")
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "run %s: %s, %d records\n", result.RunID, result.Message, result.ScrapedCount); err != nil {
			return errs.Wrap(err, "write refresh output")
		}
		for _, outcome := range result.Outcomes {
			status := "ok"
			if !outcome.Succeeded {
				status = "failed: " + outcome.Error
			}
			if _, err := fmt.Fprintf(out, "  %s: %d records (%s)\n", outcome.Source, outcome.ScrapedCount, status); err != nil {
				return errs.Wrap(err, "write refresh output")
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().Uint64("part-id", 0, "Part id to refresh")
	refreshCmd.Flags().StringSlice("sources", nil, "Sources to query (default: all configured)")
	_ = refreshCmd.MarkFlagRequired("part-id")
}
