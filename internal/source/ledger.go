package source

import (
	"context"
	"io"
	"strings"

	"github.com/theirongolddev/budgetrecon/internal/blob"
	"github.com/theirongolddev/budgetrecon/internal/model"
)

// LedgerColumns are the columns every ledger export must carry.
var LedgerColumns = []string{
	"Company",
	"Vendor",
	"Classification",
	"Sub-Category",
	"Amount",
	"Invoice Date",
	"Status",
	"Approver-1 approval",
	"Approver-2 approval",
	"Approver-3 approval",
	"Currency",
	"Budget Year",
}

// Ledger is a snapshot source of expense transactions.
type Ledger interface {
	// ID identifies the ledger snapshot for cache keys.
	ID() string
	Transactions(ctx context.Context) ([]model.ExpenseTransaction, error)
}

// ParseLedger maps a ledger table onto typed transactions. A missing
// required column is a schema error naming every missing column.
func ParseLedger(t model.Table) ([]model.ExpenseTransaction, error) {
	idx := make(map[string]int, len(LedgerColumns))
	var missing []string
	for _, col := range LedgerColumns {
		i := t.Index(col)
		if i < 0 {
			missing = append(missing, col)
			continue
		}
		idx[col] = i
	}
	if len(missing) > 0 {
		return nil, &model.SchemaError{Reason: "expense ledger missing required columns", Columns: missing}
	}

	cell := func(row []string, col string) string {
		return strings.TrimSpace(model.Cell(row, idx[col]))
	}

	txs := make([]model.ExpenseTransaction, 0, len(t.Rows))
	for _, row := range t.Rows {
		txs = append(txs, model.ExpenseTransaction{
			Company:        cell(row, "Company"),
			Vendor:         cell(row, "Vendor"),
			Classification: cell(row, "Classification"),
			CategoryField:  cell(row, "Sub-Category"),
			Amount:         cell(row, "Amount"),
			InvoiceDate:    cell(row, "Invoice Date"),
			Status:         cell(row, "Status"),
			Approvals: [3]string{
				cell(row, "Approver-1 approval"),
				cell(row, "Approver-2 approval"),
				cell(row, "Approver-3 approval"),
			},
			Currency:   cell(row, "Currency"),
			BudgetYear: cell(row, "Budget Year"),
		})
	}
	return txs, nil
}

// ReadLedger reads a ledger export (.csv or .xlsx) and parses it.
func ReadLedger(r io.Reader, name string) ([]model.ExpenseTransaction, error) {
	t, err := ReadWorkbook(r, name)
	if err != nil {
		return nil, err
	}
	return ParseLedger(t)
}

// BlobLedger reads the ledger export stored under Key.
type BlobLedger struct {
	Store blob.Store
	Key   string
}

// ID implements Ledger.
func (l BlobLedger) ID() string { return "blob:" + l.Key }

// Transactions implements Ledger. Store failures are boundary errors;
// malformed exports are schema errors.
func (l BlobLedger) Transactions(ctx context.Context) ([]model.ExpenseTransaction, error) {
	rc, err := l.Store.Open(ctx, l.Key)
	if err != nil {
		return nil, model.Boundary("ledger", err)
	}
	defer func() { _ = rc.Close() }()

	return ReadLedger(rc, l.Key)
}
