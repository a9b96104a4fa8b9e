package pipeline

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetrecon/internal/model"
)

// Column names of the wide budget workbook.
const (
	ColCategory    = "Category"
	ColSubCategory = "Sub-Category"
	ColSubcategory = "Subcategory"
	ColTotal       = "Total"
)

// budgetColumns resolves the 14 required columns of a wide budget table.
type budgetColumns struct {
	category, subCategory, total int
	months                       [12]int
}

func resolveBudgetColumns(t model.Table) (budgetColumns, error) {
	var c budgetColumns
	var missing []string

	if c.category = t.Index(ColCategory); c.category < 0 {
		missing = append(missing, ColCategory)
	}
	c.subCategory = t.Index(ColSubcategory)
	if c.subCategory < 0 {
		c.subCategory = t.Index(ColSubCategory)
	}
	if c.subCategory < 0 {
		missing = append(missing, ColSubCategory)
	}
	if c.total = t.Index(ColTotal); c.total < 0 {
		missing = append(missing, ColTotal)
	}
	for i, m := range model.Months {
		if c.months[i] = t.Index(m.String()); c.months[i] < 0 {
			missing = append(missing, m.String())
		}
	}

	if len(missing) > 0 {
		return c, &model.SchemaError{Reason: "budget workbook missing required columns", Columns: missing}
	}
	return c, nil
}

// ReshapeWideToLong turns a wide budget table into one row per
// (category, sub-category, month), each carrying the line's annual total.
// Non-numeric cells count as zero. Rows with neither a category nor a
// sub-category are skipped; a repeated (normalized) line is a schema error.
func ReshapeWideToLong(t model.Table) ([]model.BudgetMonth, error) {
	cols, err := resolveBudgetColumns(t)
	if err != nil {
		return nil, err
	}

	seen := make(map[model.LineKey]struct{}, len(t.Rows))
	out := make([]model.BudgetMonth, 0, len(t.Rows)*12)
	for _, row := range t.Rows {
		category := strings.TrimSpace(model.Cell(row, cols.category))
		subCategory := strings.TrimSpace(model.Cell(row, cols.subCategory))
		if category == "" && subCategory == "" {
			continue
		}

		key := model.NewLineKey(category, subCategory)
		if _, dup := seen[key]; dup {
			return nil, &model.SchemaError{Reason: "duplicate budget line", Value: category + " / " + subCategory}
		}
		seen[key] = struct{}{}

		total := coerceAmount(model.Cell(row, cols.total))
		for i, m := range model.Months {
			out = append(out, model.BudgetMonth{
				Category:    category,
				SubCategory: subCategory,
				Key:         key,
				Month:       m,
				Amount:      coerceAmount(model.Cell(row, cols.months[i])),
				Total:       total,
			})
		}
	}
	return out, nil
}

// ReshapeLongToWide regroups long rows into wide lines in first-seen order.
// Months absent from the input are zero.
func ReshapeLongToWide(rows []model.BudgetMonth) []model.BudgetLine {
	index := make(map[model.LineKey]int)
	var lines []model.BudgetLine

	for _, r := range rows {
		i, ok := index[r.Key]
		if !ok {
			i = len(lines)
			index[r.Key] = i
			line := model.BudgetLine{
				Category:    r.Category,
				SubCategory: r.SubCategory,
				Key:         r.Key,
				Total:       r.Total,
			}
			for m := range line.Months {
				line.Months[m] = decimal.Zero
			}
			lines = append(lines, line)
		}
		if r.Month >= 1 && r.Month <= 12 {
			lines[i].Months[r.Month-1] = r.Amount
		}
	}
	return lines
}

// BudgetLines reads a wide budget table into validated lines.
func BudgetLines(t model.Table) ([]model.BudgetLine, error) {
	long, err := ReshapeWideToLong(t)
	if err != nil {
		return nil, err
	}
	return ReshapeLongToWide(long), nil
}

// WideHeader is the canonical display column order.
func WideHeader() []string {
	h := []string{ColCategory, ColSubCategory}
	for _, m := range model.Months {
		h = append(h, m.String())
	}
	return append(h, ColTotal)
}

// WideTable renders lines as a display table in canonical column order.
func WideTable(lines []model.BudgetLine) model.Table {
	t := model.Table{Header: WideHeader()}
	for _, l := range lines {
		row := []string{l.Category, l.SubCategory}
		for _, amt := range l.Months {
			row = append(row, amt.StringFixed(2))
		}
		t.Rows = append(t.Rows, append(row, l.Total.StringFixed(2)))
	}
	return t
}

func coerceAmount(s string) decimal.Decimal {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero
	}
	return d
}
