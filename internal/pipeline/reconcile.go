package pipeline

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetrecon/internal/model"
)

var (
	warnThreshold = decimal.RequireFromString("0.70")
	limit         = decimal.NewFromInt(1)
)

// VarianceStatus classifies one row. Rules apply in order: the OOB
// pseudo-category is always Out of Budget; a zero budget is Overspent as
// soon as anything is spent; otherwise usage up to 70% is Within Budget,
// up to and including 100% is a warning, and beyond that Overspent.
func VarianceStatus(category string, budgeted, spent decimal.Decimal) model.VarianceStatus {
	if category == model.OOBCategory {
		return model.VarianceOutOfBudget
	}
	if budgeted.IsZero() {
		if spent.IsPositive() {
			return model.VarianceOverspent
		}
		return model.VarianceWithin
	}

	usage := spent.Div(budgeted)
	switch {
	case usage.LessThanOrEqual(warnThreshold):
		return model.VarianceWithin
	case usage.LessThanOrEqual(limit):
		return model.VarianceWarning
	default:
		return model.VarianceOverspent
	}
}

// SplitSpend partitions aggregated spend into lines present in the budget
// and out-of-budget lines.
func SplitSpend(lines []model.BudgetLine, spend []model.SpendLine) (inBudget map[model.LineKey]decimal.Decimal, oob []model.SpendLine) {
	keys := make(map[model.LineKey]struct{}, len(lines))
	for _, l := range lines {
		keys[l.Key] = struct{}{}
	}

	inBudget = make(map[model.LineKey]decimal.Decimal)
	for _, s := range spend {
		if _, ok := keys[s.Key]; ok {
			inBudget[s.Key] = inBudget[s.Key].Add(s.AmountSpent)
			continue
		}
		oob = append(oob, s)
	}
	return inBudget, oob
}

// OOBTotal is the total spend with no matching budget line.
func OOBTotal(lines []model.BudgetLine, spend []model.SpendLine) decimal.Decimal {
	_, oob := SplitSpend(lines, spend)
	total := decimal.Zero
	for _, s := range oob {
		total = total.Add(s.AmountSpent)
	}
	return total
}

// Reconcile joins budget lines with aggregated spend on the normalized key
// and returns the variance report: for each category in ascending order, a
// rollup row followed by its lines sorted by sub-category. Spend without a
// budget line is reported under the OOB pseudo-category with a zero budget.
func Reconcile(lines []model.BudgetLine, spend []model.SpendLine) []model.ReconciliationRow {
	inBudget, oob := SplitSpend(lines, spend)

	rows := make([]model.ReconciliationRow, 0, len(lines)+len(oob))
	for _, l := range lines {
		spent := inBudget[l.Key]
		rows = append(rows, model.ReconciliationRow{
			Category:    l.Category,
			SubCategory: l.SubCategory,
			Budgeted:    l.Total,
			Spent:       spent,
			Variance:    l.Total.Sub(spent),
			Status:      VarianceStatus(l.Category, l.Total, spent),
		})
	}
	for _, s := range oob {
		rows = append(rows, model.ReconciliationRow{
			Category:       model.OOBCategory,
			SubCategory:    s.SubCategory,
			Budgeted:       decimal.Zero,
			Spent:          s.AmountSpent,
			Variance:       s.AmountSpent.Neg(),
			Status:         model.VarianceOutOfBudget,
			SourceCategory: s.Category,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.SubCategory != b.SubCategory {
			return a.SubCategory < b.SubCategory
		}
		return a.SourceCategory < b.SourceCategory
	})

	return withRollups(rows)
}

// withRollups inserts a TOTAL row before each category's run of sorted rows.
func withRollups(rows []model.ReconciliationRow) []model.ReconciliationRow {
	out := make([]model.ReconciliationRow, 0, len(rows)+len(rows)/2)
	for start := 0; start < len(rows); {
		end := start
		rollup := model.ReconciliationRow{
			Category:    rows[start].Category,
			SubCategory: model.TotalMarker,
			Rollup:      true,
		}
		for end < len(rows) && rows[end].Category == rollup.Category {
			rollup.Budgeted = rollup.Budgeted.Add(rows[end].Budgeted)
			rollup.Spent = rollup.Spent.Add(rows[end].Spent)
			rollup.Variance = rollup.Variance.Add(rows[end].Variance)
			end++
		}
		rollup.Status = VarianceStatus(rollup.Category, rollup.Budgeted, rollup.Spent)

		out = append(out, rollup)
		out = append(out, rows[start:end]...)
		start = end
	}
	return out
}

// ReportTotals sums the line rows of a report, skipping rollups.
func ReportTotals(rows []model.ReconciliationRow) (budgeted, spent, variance decimal.Decimal) {
	for _, r := range rows {
		if r.Rollup {
			continue
		}
		budgeted = budgeted.Add(r.Budgeted)
		spent = spent.Add(r.Spent)
		variance = variance.Add(r.Variance)
	}
	return budgeted, spent, variance
}
