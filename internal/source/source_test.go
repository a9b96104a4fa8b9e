package source

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/budgetrecon/internal/blob"
	"github.com/theirongolddev/budgetrecon/internal/model"
)

const ledgerHeader = "Company,Vendor,Classification,Sub-Category,Amount,Invoice Date,Status," +
	"Approver-1 approval,Approver-2 approval,Approver-3 approval,Currency,Budget Year"

func TestReadWorkbookCSV(t *testing.T) {
	in := "\ufeffCategory, Subcategory,Total\nOffice,Supplies,1000\n,,\nIT,Laptops,5000\n"
	tbl, err := ReadWorkbook(strings.NewReader(in), "budget.CSV")
	if err != nil {
		t.Fatalf("ReadWorkbook: %v", err)
	}
	if got := strings.Join(tbl.Header, "|"); got != "Category|Subcategory|Total" {
		t.Errorf("Header = %q", got)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("Rows = %d, want 2 (blank row dropped)", len(tbl.Rows))
	}
	if tbl.Index("Total") != 2 {
		t.Errorf("Index(Total) = %d, want 2", tbl.Index("Total"))
	}
}

func TestReadWorkbookXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"Category", "Sub-Category", "Total", "January"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow(sheet, "A2", &[]interface{}{"Office", "Supplies", 1000, 83.5}); err != nil {
		t.Fatal(err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	tbl, err := ReadWorkbook(bytes.NewReader(buf.Bytes()), "budget.xlsx")
	if err != nil {
		t.Fatalf("ReadWorkbook: %v", err)
	}
	if len(tbl.Rows) != 1 {
		t.Fatalf("Rows = %d, want 1", len(tbl.Rows))
	}
	row := tbl.Rows[0]
	if model.Cell(row, tbl.Index("Total")) != "1000" {
		t.Errorf("Total cell = %q, want 1000", model.Cell(row, tbl.Index("Total")))
	}
	if model.Cell(row, tbl.Index("January")) != "83.5" {
		t.Errorf("January cell = %q, want 83.5", model.Cell(row, tbl.Index("January")))
	}
}

func TestReadWorkbookErrors(t *testing.T) {
	if _, err := ReadWorkbook(strings.NewReader(""), "empty.csv"); !model.IsSchema(err) {
		t.Errorf("empty csv err = %v, want SchemaError", err)
	}
	if _, err := ReadWorkbook(strings.NewReader("x"), "budget.pdf"); !model.IsSchema(err) {
		t.Errorf("pdf err = %v, want SchemaError", err)
	}
}

func TestParseLedger(t *testing.T) {
	in := ledgerHeader + "\n" +
		"Musson,Acme, OPEX ,Office *** Supplies,300,2026-02-01,Approved,approved,,,USD,2026\n" +
		"Musson,Short,OPEX,Office *** Supplies,10\n"
	txs, err := ReadLedger(strings.NewReader(in), "ledger.csv")
	if err != nil {
		t.Fatalf("ReadLedger: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("len = %d, want 2", len(txs))
	}
	tx := txs[0]
	if tx.Classification != "OPEX" || tx.CategoryField != "Office *** Supplies" || tx.Amount != "300" {
		t.Errorf("tx = %+v", tx)
	}
	if tx.Approvals[0] != "approved" || tx.BudgetYear != "2026" {
		t.Errorf("approvals/year = %v/%q", tx.Approvals, tx.BudgetYear)
	}
	if txs[1].Currency != "" {
		t.Errorf("ragged row currency = %q, want empty", txs[1].Currency)
	}
}

func TestParseLedgerMissingColumns(t *testing.T) {
	in := "Company,Vendor,Amount\nMusson,Acme,1\n"
	_, err := ReadLedger(strings.NewReader(in), "ledger.csv")
	var se *model.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want SchemaError", err)
	}
	if len(se.Columns) != 9 {
		t.Errorf("missing = %v, want 9 columns", se.Columns)
	}
	if se.Columns[0] != "Classification" {
		t.Errorf("first missing = %q, want Classification", se.Columns[0])
	}
}

func TestBlobLedger(t *testing.T) {
	ctx := context.Background()
	store, err := blob.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	l := BlobLedger{Store: store, Key: "ledger/expenses.csv"}
	if _, err := l.Transactions(ctx); !model.IsBoundary(err) {
		t.Fatalf("missing blob err = %v, want BoundaryError", err)
	}

	in := ledgerHeader + "\nMusson,Acme,OPEX,Office *** Supplies,300,2026-02-01,Approved,,,,USD,2026\n"
	if err := store.Put(ctx, l.Key, strings.NewReader(in)); err != nil {
		t.Fatal(err)
	}
	txs, err := l.Transactions(ctx)
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if len(txs) != 1 || txs[0].Vendor != "Acme" {
		t.Errorf("txs = %+v", txs)
	}
	if l.ID() != "blob:ledger/expenses.csv" {
		t.Errorf("ID = %q", l.ID())
	}
}
