package model

import "github.com/shopspring/decimal"

// VarianceStatus is the four-level health of a reconciliation row.
type VarianceStatus string

const (
	VarianceWithin      VarianceStatus = "Within Budget"
	VarianceWarning     VarianceStatus = "Warning - Approaching Limit"
	VarianceOverspent   VarianceStatus = "Overspent"
	VarianceOutOfBudget VarianceStatus = "Out of Budget"
)

const (
	// OOBCategory is the pseudo-category holding all spend without a budget line.
	OOBCategory = "OOB"
	// TotalMarker is the sub-category of a category rollup row.
	TotalMarker = "TOTAL"
)

// ReconciliationRow is a derived line of the variance report.
type ReconciliationRow struct {
	Category    string          `json:"category"`
	SubCategory string          `json:"subcategory"`
	Budgeted    decimal.Decimal `json:"amount_budgeted"`
	Spent       decimal.Decimal `json:"amount_spent"`
	Variance    decimal.Decimal `json:"variance"`
	Status      VarianceStatus  `json:"status"`
	Rollup      bool            `json:"rollup,omitempty"`
	// SourceCategory keeps the ledger category of an OOB row for drill-down.
	SourceCategory string `json:"source_category,omitempty"`
}

// SummaryTile is one status bucket of the dashboard summary.
type SummaryTile struct {
	Status StatusCategory  `json:"status"`
	Total  decimal.Decimal `json:"total"`
}

// Summary is the dashboard header: budget totals plus one tile per status.
type Summary struct {
	BudgetTotal decimal.Decimal `json:"budget_total"`
	Spent       decimal.Decimal `json:"spent"`
	Balance     decimal.Decimal `json:"balance"`
	Tiles       []SummaryTile   `json:"tiles"`
}

// Tile returns the total for a status, or zero.
func (s Summary) Tile(status StatusCategory) decimal.Decimal {
	for _, t := range s.Tiles {
		if t.Status == status {
			return t.Total
		}
	}
	return decimal.Zero
}
