package model

import "github.com/shopspring/decimal"

// ExpenseTransaction is one ledger row. The raw fields mirror the ledger
// columns; Category, SubCategory, Key and AmountSpent are filled in by the
// aggregator once the row passes filtering and conversion.
type ExpenseTransaction struct {
	Company        string    `json:"company"`
	Vendor         string    `json:"vendor"`
	Classification string    `json:"classification"`
	CategoryField  string    `json:"sub_category"`
	Amount         string    `json:"amount"`
	InvoiceDate    string    `json:"invoice_date"`
	Status         string    `json:"status"`
	Approvals      [3]string `json:"approvals"`
	Currency       string    `json:"currency"`
	BudgetYear     string    `json:"budget_year"`

	Category    string          `json:"category"`
	SubCategory string          `json:"subcategory"`
	Key         LineKey         `json:"key"`
	AmountSpent decimal.Decimal `json:"amount_spent_usd"`
}

// SpendLine is aggregated USD spend for one normalized budget key.
// Display strings are those of the first transaction seen for the key.
type SpendLine struct {
	Key          LineKey         `json:"key"`
	Category     string          `json:"category"`
	SubCategory  string          `json:"subcategory"`
	AmountSpent  decimal.Decimal `json:"amount_spent_usd"`
	Transactions int             `json:"transactions"`
}

// RowDrop records a ledger row excluded by per-row conversion failure.
type RowDrop struct {
	Row    int    `json:"row"`
	Vendor string `json:"vendor"`
	Reason string `json:"reason"`
}

// DropReport accounts for every ledger row that did not reach the result.
type DropReport struct {
	Total            int       `json:"total"`
	Filtered         int       `json:"filtered"`
	UnknownCurrency  int       `json:"unknown_currency"`
	NonNumericAmount int       `json:"non_numeric_amount"`
	Dropped          []RowDrop `json:"dropped,omitempty"`
}

// Kept returns the number of rows that survived filtering and conversion.
func (r DropReport) Kept() int {
	return r.Total - r.Filtered - r.UnknownCurrency - r.NonNumericAmount
}
