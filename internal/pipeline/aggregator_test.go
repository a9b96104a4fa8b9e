package pipeline

import (
	"errors"
	"testing"

	"github.com/theirongolddev/budgetrecon/internal/model"
)

func TestLoadRawFilters(t *testing.T) {
	base := tx("Office *** Supplies", "10", "USD")

	mutate := func(f func(*model.ExpenseTransaction)) model.ExpenseTransaction {
		c := base
		f(&c)
		return c
	}

	tests := []struct {
		name string
		tx   model.ExpenseTransaction
		keep bool
	}{
		{"eligible", base, true},
		{"other company", mutate(func(e *model.ExpenseTransaction) { e.Company = "Other" }), false},
		{"other year", mutate(func(e *model.ExpenseTransaction) { e.BudgetYear = "2025" }), false},
		{"float year", mutate(func(e *model.ExpenseTransaction) { e.BudgetYear = "2026.0" }), true},
		{"blank year", mutate(func(e *model.ExpenseTransaction) { e.BudgetYear = "" }), false},
		{"void", mutate(func(e *model.ExpenseTransaction) { e.Status = "VOID" }), false},
		{"void mixed case", mutate(func(e *model.ExpenseTransaction) { e.Status = " Void " }), false},
		{"declined approver 1", mutate(func(e *model.ExpenseTransaction) { e.Approvals[0] = "Declined" }), false},
		{"declined approver 3", mutate(func(e *model.ExpenseTransaction) { e.Approvals[2] = "DECLINED" }), false},
		{"approved approvers", mutate(func(e *model.ExpenseTransaction) { e.Approvals = [3]string{"approved", "pending", ""} }), true},
		{"capex row", mutate(func(e *model.ExpenseTransaction) { e.Classification = "CAPEX" }), false},
		{"lowercase opex", mutate(func(e *model.ExpenseTransaction) { e.Classification = "opex" }), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, report, err := LoadRaw([]model.ExpenseTransaction{tt.tx}, opexFilter(), testRates())
			if err != nil {
				t.Fatalf("LoadRaw: %v", err)
			}
			if got := len(kept) == 1; got != tt.keep {
				t.Errorf("kept = %v, want %v", got, tt.keep)
			}
			if !tt.keep && report.Filtered != 1 {
				t.Errorf("Filtered = %d, want 1", report.Filtered)
			}
		})
	}
}

func TestLoadRawUnknownBudgetType(t *testing.T) {
	f := opexFilter()
	f.Type = "payroll"
	_, _, err := LoadRaw([]model.ExpenseTransaction{tx("A *** B", "1", "USD")}, f, testRates())
	if !model.IsSchema(err) {
		t.Fatalf("err = %v, want SchemaError", err)
	}
}

func TestLoadRawMalformedCompositeFailsBatch(t *testing.T) {
	for _, field := range []string{"Office Supplies", "Office *** ", " *** Supplies", "A *** B *** C"} {
		txs := []model.ExpenseTransaction{tx("Office *** Supplies", "1", "USD"), tx(field, "1", "USD")}
		_, _, err := LoadRaw(txs, opexFilter(), testRates())
		var se *model.SchemaError
		if !errors.As(err, &se) {
			t.Errorf("field %q: err = %v, want SchemaError", field, err)
			continue
		}
		if se.Value != field {
			t.Errorf("field %q: SchemaError.Value = %q", field, se.Value)
		}
	}
}

func TestLoadRawMalformedCompositeIgnoredWhenFiltered(t *testing.T) {
	bad := tx("no delimiter", "1", "USD")
	bad.Company = "Other"
	if _, _, err := LoadRaw([]model.ExpenseTransaction{bad}, opexFilter(), testRates()); err != nil {
		t.Fatalf("filtered row should not be split: %v", err)
	}
}

// Scenario E: an unknown currency drops the row without failing the batch.
func TestLoadRawDropsConversionFailures(t *testing.T) {
	txs := []model.ExpenseTransaction{
		tx("Office *** Supplies", "300", "USD"),
		tx("Office *** Supplies", "50", "XYZ"),
		tx("Office *** Supplies", "abc", "USD"),
		tx("Office *** Supplies", "15500", "jmd"),
	}
	kept, report, err := LoadRaw(txs, opexFilter(), testRates())
	if err != nil {
		t.Fatalf("LoadRaw: %v", err)
	}
	if len(kept) != 2 {
		t.Fatalf("kept = %d, want 2", len(kept))
	}
	if report.UnknownCurrency != 1 || report.NonNumericAmount != 1 {
		t.Errorf("report = %+v", report)
	}
	if report.Kept() != 2 {
		t.Errorf("Kept() = %d, want 2", report.Kept())
	}
	if len(report.Dropped) != 2 || report.Dropped[0].Row != 2 {
		t.Errorf("Dropped = %+v", report.Dropped)
	}
	if !TotalSpent(kept).Equal(dec("400")) {
		t.Errorf("TotalSpent = %s, want 400", TotalSpent(kept))
	}
}

func TestLoadRawAllDropped(t *testing.T) {
	kept, report, err := LoadRaw([]model.ExpenseTransaction{tx("A *** B", "1", "XYZ")}, opexFilter(), testRates())
	if err != nil {
		t.Fatalf("LoadRaw: %v", err)
	}
	if len(kept) != 0 || report.UnknownCurrency != 1 {
		t.Errorf("kept = %d, report = %+v", len(kept), report)
	}
	if got := Aggregate(kept); len(got) != 0 {
		t.Errorf("Aggregate of nothing = %v", got)
	}
}

func TestAggregate(t *testing.T) {
	spend := spendFor(t,
		tx("Office *** Supplies", "100", "USD"),
		tx(" office *** SUPPLIES ", "50", "USD"),
		tx("IT *** Laptops", "1000", "USD"),
	)
	if len(spend) != 2 {
		t.Fatalf("lines = %d, want 2", len(spend))
	}
	// sorted by key: it/laptops before office/supplies
	if spend[0].Key.Category != "it" || spend[1].Key.Category != "office" {
		t.Errorf("order = %v, %v", spend[0].Key, spend[1].Key)
	}
	office := spend[1]
	if !office.AmountSpent.Equal(dec("150")) || office.Transactions != 2 {
		t.Errorf("office = %+v", office)
	}
	if office.Category != "Office" || office.SubCategory != "Supplies" {
		t.Errorf("display = %q/%q, want first seen Office/Supplies", office.Category, office.SubCategory)
	}
}

func TestFilterByLine(t *testing.T) {
	kept, _, err := LoadRaw([]model.ExpenseTransaction{
		tx("Office *** Supplies", "1", "USD"),
		tx("Office *** Rent", "2", "USD"),
		tx("IT *** Laptops", "3", "USD"),
	}, opexFilter(), testRates())
	if err != nil {
		t.Fatal(err)
	}
	if got := FilterByLine(kept, "OFFICE", ""); len(got) != 2 {
		t.Errorf("category filter = %d rows, want 2", len(got))
	}
	if got := FilterByLine(kept, "office", "rent"); len(got) != 1 || got[0].Amount != "2" {
		t.Errorf("line filter = %+v", got)
	}
	if got := FilterByLine(kept, "", ""); len(got) != 3 {
		t.Errorf("no filter = %d rows, want 3", len(got))
	}
}
