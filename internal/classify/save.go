package classify

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetrecon/internal/model"
)

// Rejection is an entry left out of a save, with the reason.
type Rejection struct {
	Entry  model.ClassificationEntry `json:"entry"`
	Reason string                    `json:"reason"`
}

// PrepareSave validates a full edited set before persistence. Entries with
// a missing or computed status, a non-positive amount, an unknown line or a
// repeated identity are left out and reported. If the remaining entries
// over-allocate any line the whole save is refused, and an empty result is
// refused as nothing to save. Kept entries are stamped with the line total,
// the budget's display strings, the editor and the time.
func PrepareSave(fileID string, lines []model.BudgetLine, entries []model.ClassificationEntry, editor string, now time.Time) ([]model.ClassificationEntry, []Rejection, error) {
	byKey := make(map[model.LineKey]model.BudgetLine, len(lines))
	for _, l := range lines {
		byKey[l.Key] = l
	}

	type identity struct {
		key model.LineKey
		id  string
	}
	seen := make(map[identity]struct{}, len(entries))
	allocated := make(map[model.LineKey]decimal.Decimal)

	var valid []model.ClassificationEntry
	var rejected []Rejection
	reject := func(e model.ClassificationEntry, err error) {
		rejected = append(rejected, Rejection{Entry: e, Reason: err.Error()})
	}

	for _, e := range entries {
		e.Status = model.StatusCategory(strings.TrimSpace(string(e.Status)))
		if e.Status == "" {
			reject(e, model.ErrMissingStatus)
			continue
		}
		if _, ok := model.ParseStatus(string(e.Status)); !ok {
			reject(e, model.Invalid(model.ErrMissingStatus, "unknown status %q", e.Status))
			continue
		}
		if !e.Status.Assignable() {
			reject(e, model.ErrStatusNotAssignable)
			continue
		}

		l, ok := byKey[e.Key()]
		if !ok {
			reject(e, model.ErrLineNotFound)
			continue
		}
		if e.AllocationID == "" && e.Allocated.IsZero() {
			e.Allocated = l.Total
		}
		if !e.Allocated.IsPositive() {
			reject(e, model.ErrInvalidAmount)
			continue
		}

		id := identity{key: l.Key, id: e.AllocationID}
		if _, dup := seen[id]; dup {
			reject(e, model.ErrDuplicateEntry)
			continue
		}
		seen[id] = struct{}{}

		e.FileID = fileID
		e.Category = l.Category
		e.SubCategory = l.SubCategory
		e.Amount = l.Total
		e.UpdatedBy = editor
		e.UpdatedAt = now.UTC()
		allocated[l.Key] = allocated[l.Key].Add(e.Allocated)
		valid = append(valid, e)
	}

	for _, l := range lines {
		sum, ok := allocated[l.Key]
		if ok && sum.GreaterThan(l.Total) {
			return nil, rejected, model.Invalid(model.ErrExceedsRemaining,
				"%s / %s allocates %s of %s", l.Category, l.SubCategory, sum.StringFixed(2), l.Total.StringFixed(2))
		}
	}
	if len(valid) == 0 {
		return nil, rejected, model.Invalid(model.ErrNothingToSave, "%d entries rejected", len(rejected))
	}
	return valid, rejected, nil
}
