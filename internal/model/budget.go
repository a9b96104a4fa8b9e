package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Months lists the twelve calendar months in display order.
var Months = [12]time.Month{
	time.January, time.February, time.March, time.April,
	time.May, time.June, time.July, time.August,
	time.September, time.October, time.November, time.December,
}

// Table is a header-addressed tabular payload as read from a workbook or ledger export.
type Table struct {
	Header []string
	Rows   [][]string
}

// Index returns the position of the named column, or -1.
// Matching ignores surrounding whitespace only.
func (t Table) Index(name string) int {
	for i, h := range t.Header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// Cell returns row[col], or "" when col is out of range (ragged rows).
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// BudgetLine is one (Category, Sub-Category) line of a budget in wide form.
// Total is authoritative and independent of the month amounts.
type BudgetLine struct {
	Category    string              `json:"category"`
	SubCategory string              `json:"subcategory"`
	Key         LineKey             `json:"key"`
	Months      [12]decimal.Decimal `json:"months"`
	Total       decimal.Decimal     `json:"total"`
}

// BudgetMonth is one row of the long-form budget: a line's amount for a
// single month, carrying the line's annual total.
type BudgetMonth struct {
	Category    string
	SubCategory string
	Key         LineKey
	Month       time.Month
	Amount      decimal.Decimal
	Total       decimal.Decimal
}

// BudgetTotal sums the annual totals of all lines.
func BudgetTotal(lines []BudgetLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total)
	}
	return total
}
