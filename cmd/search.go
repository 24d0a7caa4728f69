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

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search parts across configured sources",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		limit, _ := cmd.Flags().GetInt("limit")
		sources, _ := cmd.Flags().GetStringSlice("sources")
		byOEM, _ := cmd.Flags().GetBool("oem")

		result, err := app.Pricing.Search(ctx, pricing.SearchInput{
			Query:   cmd.Flags().Arg(0),
			Limit:   limit,
			Sources: sources,
			OEM:     byOEM,
		})
		if err != nil {
			return errs.Wrap(err, "search parts")
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "%d results from %v\n", len(result.Results), result.Sources); err != nil {
			return errs.Wrap(err, "write search output")
		}
		for _, item := range result.Results {
			if _, err := fmt.Fprintf(out, "  [%s] %s sku=%s brand=%s %s\n", item.Source, item.Name, item.SKU, item.Brand, item.URL); err != nil {
				return errs.Wrap(err, "write search output")
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().Int("limit", 10, "Max results per source")
	searchCmd.Flags().StringSlice("sources", nil, "Sources to query (default: all configured)")
	searchCmd.Flags().Bool("oem", false, "Treat the query as an OEM number")
}
