package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"partspricing/internal/bootstrap"
	"partspricing/internal/bootstrap/logging"
	domain "partspricing/internal/domain/pricing"
	"partspricing/internal/errs"
	"partspricing/internal/usecase/pricing"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the aggregated price view for a part",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		partID, _ := cmd.Flags().GetUint64("part-id")
		inStockOnly, _ := cmd.Flags().GetBool("in-stock-only")
		forceRefresh, _ := cmd.Flags().GetBool("force-refresh")
		maxAgeHours, _ := cmd.Flags().GetInt("max-age-hours")

		input := pricing.PricesInput{
			PartID:       partID,
			InStockOnly:  inStockOnly,
			ForceRefresh: forceRefresh,
		}
		if maxAgeHours > 0 {
			input.MaxAge = time.Duration(maxAgeHours) * time.Hour
		}

		summary, err := app.Pricing.GetPrices(ctx, input)
		if err != nil {
			return errs.Wrap(err, "load price summary")
		}

		out := cmd.OutOrStdout()
		if !summary.HasPrices {
			_, err := fmt.Fprintf(out, "part %d (%s): %s\n", summary.PartID, summary.PartName, summary.Message)
			return err
		}

		if _, err := fmt.Fprintf(out, "part %d (%s): %d sources, %d in stock\n",
			summary.PartID, summary.PartName, summary.TotalSources, summary.InStockSources); err != nil {
			return errs.Wrap(err, "write summary output")
		}
		if summary.BestPrice != nil {
			fmt.Fprintf(out, "  best: %.2f\n", *summary.BestPrice)
		}
		if summary.AveragePrice != nil {
			fmt.Fprintf(out, "  average: %.2f\n", *summary.AveragePrice)
		}
		if summary.LowestInStock != nil {
			fmt.Fprintf(out, "  lowest in stock: %.2f\n", *summary.LowestInStock)
		}
		for _, price := range summary.Prices {
			fmt.Fprintf(out, "  [%s] %.2f %s %s\n", price.Source, price.Price, price.Currency, price.Availability)
		}
		return nil
	}),
}

var bestPriceCmd = &cobra.Command{
	Use:   "best-price",
	Short: "Show the cheapest fresh offer for a part",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		partID, _ := cmd.Flags().GetUint64("part-id")
		inStockOnly, _ := cmd.Flags().GetBool("in-stock-only")

		best, err := app.Pricing.BestPrice(ctx, partID, inStockOnly)
		if errors.Is(err, domain.ErrNoPrices) {
			_, writeErr := fmt.Fprintf(cmd.OutOrStdout(), "part %d: no fresh prices\n", partID)
			return writeErr
		}
		if err != nil {
			return errs.Wrap(err, "load best price")
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "part %d: %.2f %s from %s (%s)\n",
			best.PartID, best.Price, best.Currency, best.Source, best.Availability)
		return err
	}),
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().Uint64("part-id", 0, "Part id")
	summaryCmd.Flags().Bool("in-stock-only", false, "List in-stock offers only")
	summaryCmd.Flags().Bool("force-refresh", false, "Collect fresh prices before aggregating")
	summaryCmd.Flags().Int("max-age-hours", 0, "Freshness window override in hours")
	_ = summaryCmd.MarkFlagRequired("part-id")

	rootCmd.AddCommand(bestPriceCmd)
	bestPriceCmd.Flags().Uint64("part-id", 0, "Part id")
	bestPriceCmd.Flags().Bool("in-stock-only", false, "Consider in-stock offers only")
	_ = bestPriceCmd.MarkFlagRequired("part-id")
}
