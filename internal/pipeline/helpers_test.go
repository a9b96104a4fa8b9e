package pipeline

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetrecon/internal/fx"
	"github.com/theirongolddev/budgetrecon/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// budgetTable builds a wide budget table; each line is category, sub-category, total.
// Every month gets total/12 rounded to cents.
func budgetTable(t *testing.T, lines ...[3]string) model.Table {
	t.Helper()
	tbl := model.Table{Header: WideHeader()}
	for _, l := range lines {
		monthly := dec(l[2]).Div(decimal.NewFromInt(12)).StringFixed(2)
		row := []string{l[0], l[1]}
		for range model.Months {
			row = append(row, monthly)
		}
		tbl.Rows = append(tbl.Rows, append(row, l[2]))
	}
	return tbl
}

func budgetLines(t *testing.T, lines ...[3]string) []model.BudgetLine {
	t.Helper()
	out, err := BudgetLines(budgetTable(t, lines...))
	if err != nil {
		t.Fatalf("BudgetLines: %v", err)
	}
	return out
}

func opexFilter() ExpenseFilter {
	return ExpenseFilter{Organization: "Musson", Year: 2026, Type: model.BudgetOpex}
}

func testRates() fx.RateTable {
	return fx.NewRateTable(map[string]decimal.Decimal{"JMD": dec("155")})
}

// tx returns an eligible OPEX transaction for 2026.
func tx(composite, amount, currency string) model.ExpenseTransaction {
	return model.ExpenseTransaction{
		Company:        "Musson",
		Vendor:         "Vendor",
		Classification: "OPEX",
		CategoryField:  composite,
		Amount:         amount,
		InvoiceDate:    "2026-03-01",
		Status:         "Approved",
		Currency:       currency,
		BudgetYear:     "2026",
	}
}

func spendFor(t *testing.T, txs ...model.ExpenseTransaction) []model.SpendLine {
	t.Helper()
	kept, _, err := LoadRaw(txs, opexFilter(), testRates())
	if err != nil {
		t.Fatalf("LoadRaw: %v", err)
	}
	return Aggregate(kept)
}
