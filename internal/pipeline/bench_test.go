package pipeline

import (
	"fmt"
	"testing"

	"github.com/theirongolddev/budgetrecon/internal/model"
)

func benchInputs(b *testing.B, nLines, nTx int) ([]model.BudgetLine, []model.ExpenseTransaction) {
	b.Helper()
	tbl := model.Table{Header: WideHeader()}
	for i := 0; i < nLines; i++ {
		row := []string{fmt.Sprintf("Cat %d", i%40), fmt.Sprintf("Sub %d", i)}
		for range model.Months {
			row = append(row, "100")
		}
		tbl.Rows = append(tbl.Rows, append(row, "1200"))
	}
	lines, err := BudgetLines(tbl)
	if err != nil {
		b.Fatal(err)
	}

	txs := make([]model.ExpenseTransaction, nTx)
	for i := range txs {
		// every tenth transaction has no budget line
		sub := i % nLines
		if i%10 == 0 {
			sub = nLines + i
		}
		txs[i] = tx(fmt.Sprintf("Cat %d *** Sub %d", sub%40, sub), "12.34", "JMD")
	}
	return lines, txs
}

func BenchmarkLoadRawAggregate(b *testing.B) {
	_, txs := benchInputs(b, 2000, 20000)
	rates := testRates()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		kept, _, err := LoadRaw(txs, opexFilter(), rates)
		if err != nil {
			b.Fatal(err)
		}
		_ = Aggregate(kept)
	}
}

func BenchmarkReconcile(b *testing.B) {
	lines, txs := benchInputs(b, 2000, 20000)
	kept, _, err := LoadRaw(txs, opexFilter(), testRates())
	if err != nil {
		b.Fatal(err)
	}
	spend := Aggregate(kept)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Reconcile(lines, spend)
	}
}
