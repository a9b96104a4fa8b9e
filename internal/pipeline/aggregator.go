// Package pipeline holds the budget reshaper, the expense aggregator and
// the reconciliation engine, plus the cached loader that feeds them.
package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetrecon/internal/fx"
	"github.com/theirongolddev/budgetrecon/internal/model"
)

// CompositeDelimiter separates category and sub-category in the ledger's
// Sub-Category column.
const CompositeDelimiter = "***"

// ExpenseFilter selects the ledger rows relevant to one budget file.
type ExpenseFilter struct {
	Organization string
	Year         int
	Type         model.BudgetType
}

func (f ExpenseFilter) eligible(tx model.ExpenseTransaction, classification string) bool {
	if strings.TrimSpace(tx.Company) != f.Organization {
		return false
	}
	if !yearMatches(tx.BudgetYear, f.Year) {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(tx.Status), "void") {
		return false
	}
	for _, a := range tx.Approvals {
		if strings.EqualFold(strings.TrimSpace(a), "declined") {
			return false
		}
	}
	return strings.EqualFold(strings.TrimSpace(tx.Classification), classification)
}

// yearMatches accepts "2026" and spreadsheet renderings like "2026.0".
func yearMatches(raw string, year int) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return d.Equal(decimal.NewFromInt(int64(year)))
}

// SplitComposite splits "Category *** Sub-Category" into trimmed display
// parts. It fails unless there are exactly two non-empty parts.
func SplitComposite(field string) (category, subCategory string, err error) {
	parts := strings.Split(field, CompositeDelimiter)
	if len(parts) != 2 {
		return "", "", &model.SchemaError{Reason: "malformed composite category field", Value: field}
	}
	category = strings.TrimSpace(parts[0])
	subCategory = strings.TrimSpace(parts[1])
	if category == "" || subCategory == "" {
		return "", "", &model.SchemaError{Reason: "malformed composite category field", Value: field}
	}
	return category, subCategory, nil
}

// LoadRaw filters the ledger, splits the composite category and converts
// each surviving row to USD. Rows failing conversion are dropped and
// recorded in the report. A malformed composite field or an unknown budget
// type fails the whole batch.
//
// The result depends only on the inputs; it is safe to cache.
func LoadRaw(txs []model.ExpenseTransaction, f ExpenseFilter, rates fx.RateTable) ([]model.ExpenseTransaction, model.DropReport, error) {
	report := model.DropReport{Total: len(txs)}

	bt, err := model.ParseBudgetType(string(f.Type))
	if err != nil {
		return nil, report, err
	}
	classification := bt.Classification()

	var out []model.ExpenseTransaction
	for i, tx := range txs {
		if !f.eligible(tx, classification) {
			report.Filtered++
			continue
		}

		cat, sub, err := SplitComposite(tx.CategoryField)
		if err != nil {
			return nil, report, fmt.Errorf("ledger row %d: %w", i+1, err)
		}

		usd, err := rates.ToUSD(tx.Amount, tx.Currency)
		if err != nil {
			if errors.Is(err, model.ErrUnknownCurrency) {
				report.UnknownCurrency++
			} else {
				report.NonNumericAmount++
			}
			report.Dropped = append(report.Dropped, model.RowDrop{Row: i + 1, Vendor: tx.Vendor, Reason: err.Error()})
			continue
		}

		tx.Category = cat
		tx.SubCategory = sub
		tx.Key = model.NewLineKey(cat, sub)
		tx.AmountSpent = usd
		out = append(out, tx)
	}
	return out, report, nil
}

// Aggregate sums converted spend per normalized line key. Display strings
// come from the first transaction seen for each key. Output is sorted by key.
func Aggregate(txs []model.ExpenseTransaction) []model.SpendLine {
	byKey := make(map[model.LineKey]*model.SpendLine)
	for _, tx := range txs {
		sl, ok := byKey[tx.Key]
		if !ok {
			sl = &model.SpendLine{
				Key:         tx.Key,
				Category:    tx.Category,
				SubCategory: tx.SubCategory,
			}
			byKey[tx.Key] = sl
		}
		sl.AmountSpent = sl.AmountSpent.Add(tx.AmountSpent)
		sl.Transactions++
	}

	result := make([]model.SpendLine, 0, len(byKey))
	for _, sl := range byKey {
		result = append(result, *sl)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Key.Category != result[j].Key.Category {
			return result[i].Key.Category < result[j].Key.Category
		}
		return result[i].Key.SubCategory < result[j].Key.SubCategory
	})
	return result
}

// FilterByLine keeps transactions matching the given category and
// sub-category text after normalization. Empty arguments match anything.
func FilterByLine(txs []model.ExpenseTransaction, category, subCategory string) []model.ExpenseTransaction {
	catKey := model.NormalizeKey(category)
	subKey := model.NormalizeKey(subCategory)

	var out []model.ExpenseTransaction
	for _, tx := range txs {
		if catKey != "" && tx.Key.Category != catKey {
			continue
		}
		if subKey != "" && tx.Key.SubCategory != subKey {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// TotalSpent sums AmountSpent across transactions.
func TotalSpent(txs []model.ExpenseTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.AmountSpent)
	}
	return total
}
