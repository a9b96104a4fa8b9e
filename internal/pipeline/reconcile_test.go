package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/theirongolddev/budgetrecon/internal/model"
)

func findRow(rows []model.ReconciliationRow, category, sub string) (model.ReconciliationRow, bool) {
	for _, r := range rows {
		if r.Category == category && r.SubCategory == sub {
			return r, true
		}
	}
	return model.ReconciliationRow{}, false
}

func TestReconcileScenarios(t *testing.T) {
	tests := []struct {
		name       string
		amount     string
		wantSpent  string
		wantVar    string
		wantStatus model.VarianceStatus
	}{
		{"A within budget", "300", "300", "700", model.VarianceWithin},
		{"seventy percent is within", "700", "700", "300", model.VarianceWithin},
		{"just over seventy percent", "700.01", "700.01", "299.99", model.VarianceWarning},
		{"B full usage is warning", "1000", "1000", "0", model.VarianceWarning},
		{"C overspent", "1001", "1001", "-1", model.VarianceOverspent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := budgetLines(t, [3]string{"Office", "Supplies", "1000"})
			rows := Reconcile(lines, spendFor(t, tx("Office *** Supplies", tt.amount, "USD")))

			r, ok := findRow(rows, "Office", "Supplies")
			if !ok {
				t.Fatalf("line row missing: %+v", rows)
			}
			if !r.Spent.Equal(dec(tt.wantSpent)) {
				t.Errorf("Spent = %s, want %s", r.Spent, tt.wantSpent)
			}
			if !r.Variance.Equal(dec(tt.wantVar)) {
				t.Errorf("Variance = %s, want %s", r.Variance, tt.wantVar)
			}
			if r.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", r.Status, tt.wantStatus)
			}
		})
	}
}

// Scenario D: spend with no budget line lands only under OOB.
func TestReconcileOutOfBudget(t *testing.T) {
	lines := budgetLines(t, [3]string{"Office", "Supplies", "1000"})
	rows := Reconcile(lines, spendFor(t, tx("Facilities *** Rent", "250", "USD")))

	r, ok := findRow(rows, model.OOBCategory, "Rent")
	if !ok {
		t.Fatalf("OOB row missing: %+v", rows)
	}
	if !r.Budgeted.IsZero() || !r.Variance.Equal(dec("-250")) || r.Status != model.VarianceOutOfBudget {
		t.Errorf("OOB row = %+v", r)
	}
	if r.SourceCategory != "Facilities" {
		t.Errorf("SourceCategory = %q, want Facilities", r.SourceCategory)
	}
	if _, ok := findRow(rows, "Facilities", "Rent"); ok {
		t.Error("OOB spend also reported under its ledger category")
	}
	office, _ := findRow(rows, "Office", "Supplies")
	if !office.Spent.IsZero() || office.Status != model.VarianceWithin {
		t.Errorf("office row = %+v", office)
	}
	total, _ := findRow(rows, model.OOBCategory, model.TotalMarker)
	if total.Status != model.VarianceOutOfBudget {
		t.Errorf("OOB rollup status = %q", total.Status)
	}
}

func TestReconcileZeroBudget(t *testing.T) {
	lines := budgetLines(t, [3]string{"Office", "Spare", "0"}, [3]string{"Office", "Unused", "0"})
	rows := Reconcile(lines, spendFor(t, tx("Office *** Spare", "5", "USD")))

	spare, _ := findRow(rows, "Office", "Spare")
	if spare.Status != model.VarianceOverspent {
		t.Errorf("zero budget with spend = %q, want Overspent", spare.Status)
	}
	unused, _ := findRow(rows, "Office", "Unused")
	if unused.Status != model.VarianceWithin {
		t.Errorf("zero budget without spend = %q, want Within Budget", unused.Status)
	}
}

func TestReconcileUsesBudgetDisplayStrings(t *testing.T) {
	lines := budgetLines(t, [3]string{"Office", "Supplies", "1000"})
	rows := Reconcile(lines, spendFor(t, tx("OFFICE *** sup plies", "10", "USD")))
	if _, ok := findRow(rows, "Office", "Supplies"); !ok {
		t.Fatalf("budget display strings not used: %+v", rows)
	}
	if len(rows) != 2 {
		t.Errorf("rows = %d, want rollup + line", len(rows))
	}
}

func TestReconcileOrderingAndRollups(t *testing.T) {
	lines := budgetLines(t,
		[3]string{"Travel", "Hotel", "500"},
		[3]string{"Office", "Supplies", "1000"},
		[3]string{"Office", "Furniture", "2000"},
	)
	spend := spendFor(t,
		tx("Office *** Supplies", "900", "USD"),
		tx("Office *** Furniture", "100", "USD"),
		tx("Travel *** Hotel", "600", "USD"),
		tx("Marketing *** Ads", "40", "USD"),
		tx("Facilities *** Ads", "60", "USD"),
	)
	rows := Reconcile(lines, spend)

	want := []struct{ cat, sub string }{
		{"OOB", "TOTAL"}, {"OOB", "Ads"}, {"OOB", "Ads"},
		{"Office", "TOTAL"}, {"Office", "Furniture"}, {"Office", "Supplies"},
		{"Travel", "TOTAL"}, {"Travel", "Hotel"},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %d, want %d: %+v", len(rows), len(want), rows)
	}
	for i, w := range want {
		if rows[i].Category != w.cat || rows[i].SubCategory != w.sub {
			t.Errorf("row %d = %s/%s, want %s/%s", i, rows[i].Category, rows[i].SubCategory, w.cat, w.sub)
		}
	}
	if rows[1].SourceCategory != "Facilities" || rows[2].SourceCategory != "Marketing" {
		t.Errorf("OOB tie-break by source category: %q, %q", rows[1].SourceCategory, rows[2].SourceCategory)
	}

	officeTotal := rows[3]
	if !officeTotal.Rollup || !officeTotal.Budgeted.Equal(dec("3000")) || !officeTotal.Spent.Equal(dec("1000")) {
		t.Errorf("office rollup = %+v", officeTotal)
	}
	if officeTotal.Status != model.VarianceWithin {
		t.Errorf("office rollup status = %q", officeTotal.Status)
	}
	if rows[6].Status != model.VarianceOverspent {
		t.Errorf("travel rollup status = %q, want Overspent", rows[6].Status)
	}
}

func TestReconcileInvariants(t *testing.T) {
	lines := budgetLines(t,
		[3]string{"Office", "Supplies", "1000.10"},
		[3]string{"Office", "Furniture", "2000"},
		[3]string{"IT", "Laptops", "333.33"},
	)
	spend := spendFor(t,
		tx("Office *** Supplies", "123.45", "USD"),
		tx("Office *** Furniture", "15500", "JMD"),
		tx("IT *** Laptops", "1", "JMD"),
		tx("Ghost *** Line", "7.77", "USD"),
	)
	rows := Reconcile(lines, spend)

	sums := map[string][2]model.ReconciliationRow{}
	for _, r := range rows {
		if !r.Variance.Equal(r.Budgeted.Sub(r.Spent)) {
			t.Errorf("%s/%s variance %s != %s - %s", r.Category, r.SubCategory, r.Variance, r.Budgeted, r.Spent)
		}
		entry := sums[r.Category]
		if r.Rollup {
			entry[0] = r
		} else {
			entry[1].Spent = entry[1].Spent.Add(r.Spent)
			entry[1].Budgeted = entry[1].Budgeted.Add(r.Budgeted)
		}
		sums[r.Category] = entry
	}
	for cat, e := range sums {
		if !e[0].Spent.Equal(e[1].Spent) || !e[0].Budgeted.Equal(e[1].Budgeted) {
			t.Errorf("category %s rollup %s/%s != children %s/%s", cat, e[0].Budgeted, e[0].Spent, e[1].Budgeted, e[1].Spent)
		}
	}

	b, s, v := ReportTotals(rows)
	if !v.Equal(b.Sub(s)) {
		t.Errorf("report totals variance %s != %s - %s", v, b, s)
	}
	if !OOBTotal(lines, spend).Equal(dec("7.77")) {
		t.Errorf("OOBTotal = %s, want 7.77", OOBTotal(lines, spend))
	}
}

func TestReconcileIdempotent(t *testing.T) {
	lines := budgetLines(t, [3]string{"Office", "Supplies", "1000"}, [3]string{"IT", "Laptops", "500"})
	spend := spendFor(t,
		tx("Office *** Supplies", "10", "USD"),
		tx("Ghost *** A", "1", "USD"),
		tx("Spirit *** A", "2", "USD"),
	)

	first, err := json.Marshal(Reconcile(lines, spend))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, _ := json.Marshal(Reconcile(lines, spend))
		if string(again) != string(first) {
			t.Fatalf("run %d differs:\n%s\n%s", i, again, first)
		}
	}
}

func TestReconcileEmpty(t *testing.T) {
	if rows := Reconcile(nil, nil); len(rows) != 0 {
		t.Errorf("rows = %+v, want empty", rows)
	}
}
