// Package classify manages the editable partition of each budget line into
// status buckets and allocations, and derives the dashboard summary.
package classify

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetrecon/internal/model"
)

// Summarize totals saved entries per status in dashboard order. Statuses
// with no entries are zero. The Spent tile is replaced by actual ledger
// spend and the Out of Budget tile by actual out-of-budget spend, whatever
// the saved entries say.
func Summarize(lines []model.BudgetLine, entries []model.ClassificationEntry, spent, oob decimal.Decimal) model.Summary {
	byStatus := make(map[model.StatusCategory]decimal.Decimal, len(model.StatusCategories))
	for _, e := range entries {
		byStatus[e.Status] = byStatus[e.Status].Add(e.EffectiveAmount())
	}
	byStatus[model.StatusSpent] = spent
	byStatus[model.StatusOutOfBudget] = oob

	tiles := make([]model.SummaryTile, 0, len(model.StatusCategories))
	for _, st := range model.StatusCategories {
		total, ok := byStatus[st]
		if !ok {
			total = decimal.Zero
		}
		tiles = append(tiles, model.SummaryTile{Status: st, Total: total})
	}

	budgetTotal := model.BudgetTotal(lines)
	return model.Summary{
		BudgetTotal: budgetTotal,
		Spent:       spent,
		Balance:     budgetTotal.Sub(spent),
		Tiles:       tiles,
	}
}
