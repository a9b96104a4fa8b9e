package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/budgetrecon/internal/cli"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Budget totals and classification tiles for the active budget",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		user, err := a.userName()
		if err != nil {
			return err
		}
		f, err := a.dash.Active(ctx)
		if err != nil {
			return err
		}
		sum, err := a.dash.Summary(ctx, user)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(sum)
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("BUDGET SUMMARY  %s", f)))
		fmt.Println()
		fmt.Print(cli.RenderSummary(sum))
		fmt.Println()
		fmt.Println("  " + cli.RenderUsageBar(sum.Spent, sum.BudgetTotal, 40))
		fmt.Println()
		return nil
	})
}
