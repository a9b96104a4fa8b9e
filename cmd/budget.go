package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/budgetrecon/internal/cli"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show the active budget workbook, one row per line",
	RunE:  runBudget,
}

func init() {
	rootCmd.AddCommand(budgetCmd)
}

func runBudget(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		f, table, err := a.dash.Budget(ctx)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(map[string]any{"file": f, "header": table.Header, "rows": table.Rows})
		}

		headers := make([]string, len(table.Header))
		for i, h := range table.Header {
			if i >= 2 && i < len(table.Header)-1 {
				h = h[:3]
			}
			headers[i] = h
		}

		rows := make([][]string, 0, len(table.Rows))
		for _, r := range table.Rows {
			row := make([]string, len(r))
			for i, cell := range r {
				if i >= 2 {
					if d, err := decimal.NewFromString(cell); err == nil {
						cell = cli.FormatNumber(d.Round(0).IntPart())
					}
				}
				row[i] = cell
			}
			rows = append(rows, row)
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("BUDGET  %s", f)))
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{Headers: headers, Rows: rows, LeftCols: 2}))
		fmt.Printf("\n  %d lines, amounts rounded to whole dollars\n\n", len(rows))
		return nil
	})
}
