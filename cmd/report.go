package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/budgetrecon/internal/cli"
	"github.com/theirongolddev/budgetrecon/internal/dashboard"
	"github.com/theirongolddev/budgetrecon/internal/model"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Variance report for the active budget",
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		rep, err := a.dash.Report(ctx)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(rep)
		}
		printReport(rep)
		return nil
	})
}

func printReport(rep *dashboard.Report) {
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("BUDGET VS ACTUAL  %s", rep.File)))
	fmt.Println()

	rows := make([][]string, 0, len(rep.Rows)+2)
	for _, r := range rep.Rows {
		cat := r.Category
		if !r.Rollup {
			cat = "  " + cat
		}
		sub := r.SubCategory
		if r.SourceCategory != "" {
			sub = fmt.Sprintf("%s (%s)", r.SubCategory, r.SourceCategory)
		}
		rows = append(rows, []string{
			cat,
			cli.Truncate(sub, 36),
			cli.FormatMoney(r.Budgeted),
			cli.FormatMoney(r.Spent),
			cli.FormatVariance(r.Variance),
			cli.FormatUsage(r.Spent, r.Budgeted),
			string(r.Status),
		})
	}
	lineRows := len(rows)
	rows = append(rows, []string{"---"}, []string{
		"Total", "",
		cli.FormatMoney(rep.Budgeted),
		cli.FormatMoney(rep.Spent),
		cli.FormatVariance(rep.Variance),
		cli.FormatUsage(rep.Spent, rep.Budgeted),
		"",
	})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Category", "Sub-Category", "Budgeted", "Spent", "Variance", "Used", "Status"},
		Rows:     rows,
		LeftCols: 2,
		RowStyle: func(i int) (lipgloss.Style, bool) {
			if i >= lineRows || rep.Rows[i].Rollup {
				return cli.RollupStyle(), true
			}
			return lipgloss.Style{}, false
		},
		StatusCol: 6,
		StatusStyle: func(i int) (lipgloss.Style, bool) {
			if i >= lineRows {
				return lipgloss.Style{}, false
			}
			return cli.StatusStyle(rep.Rows[i].Status), true
		},
	}))
	printDrops(rep.Drops)
	fmt.Println()
}

func printDrops(d model.DropReport) {
	fmt.Printf("\n  %s ledger rows, %s matched, %s filtered",
		cli.FormatNumber(int64(d.Total)),
		cli.FormatNumber(int64(d.Kept())),
		cli.FormatNumber(int64(d.Filtered)))
	if n := d.UnknownCurrency + d.NonNumericAmount; n > 0 {
		fmt.Printf(", %d dropped (%d unknown currency, %d non-numeric amount)",
			n, d.UnknownCurrency, d.NonNumericAmount)
	}
	fmt.Println()
}
