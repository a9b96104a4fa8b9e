package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/budgetrecon/internal/cli"
)

var (
	flagTxCategory    string
	flagTxSubCategory string
	flagTxLimit       int
)

var transactionsCmd = &cobra.Command{
	Use:     "transactions",
	Aliases: []string{"tx"},
	Short:   "Ledger transactions counted against the active budget",
	RunE:    runTransactions,
}

func init() {
	transactionsCmd.Flags().StringVar(&flagTxCategory, "category", "", "Only this category (normalized match)")
	transactionsCmd.Flags().StringVar(&flagTxSubCategory, "subcategory", "", "Only this sub-category (normalized match)")
	transactionsCmd.Flags().IntVarP(&flagTxLimit, "limit", "l", 0, "Show at most this many rows (0 = all)")
	rootCmd.AddCommand(transactionsCmd)
}

func runTransactions(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		txs, drops, err := a.dash.Transactions(ctx, flagTxCategory, flagTxSubCategory)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(txs)
		}

		if len(txs) == 0 {
			fmt.Println("\n  No matching transactions.")
			printDrops(drops)
			return nil
		}

		shown := txs
		if flagTxLimit > 0 && len(shown) > flagTxLimit {
			shown = shown[:flagTxLimit]
		}
		rows := make([][]string, 0, len(shown))
		for _, tx := range shown {
			rows = append(rows, []string{
				cli.Truncate(tx.Vendor, 28),
				tx.Category,
				cli.Truncate(tx.SubCategory, 28),
				tx.InvoiceDate,
				tx.Amount + " " + tx.Currency,
				cli.FormatMoney(tx.AmountSpent),
			})
		}

		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:    fmt.Sprintf("Transactions (%s)", cli.FormatNumber(int64(len(txs)))),
			Headers:  []string{"Vendor", "Category", "Sub-Category", "Invoice Date", "Amount", "USD"},
			Rows:     rows,
			LeftCols: 4,
		}))
		if len(shown) < len(txs) {
			fmt.Printf("  ... %d more\n", len(txs)-len(shown))
		}
		printDrops(drops)
		fmt.Println()
		return nil
	})
}
