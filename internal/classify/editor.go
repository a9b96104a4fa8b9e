package classify

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetrecon/internal/model"
)

// Editor is an in-memory working copy of one file's classification set.
// Edits are checked against line totals as they are made; nothing is
// persisted until the set is saved through a Manager.
type Editor struct {
	fileID  string
	version int64
	lines   map[model.LineKey]model.BudgetLine
	order   []model.LineKey
	entries []model.ClassificationEntry
	newID   func() string
}

// NewEditor starts an editor over the budget lines with the saved entries
// as pending state. version is the stored set's version, or 0.
func NewEditor(fileID string, lines []model.BudgetLine, saved []model.ClassificationEntry, version int64) *Editor {
	ed := &Editor{
		fileID:  fileID,
		version: version,
		lines:   make(map[model.LineKey]model.BudgetLine, len(lines)),
		entries: append([]model.ClassificationEntry(nil), saved...),
		newID:   func() string { return uuid.NewString() },
	}
	for _, l := range lines {
		if _, dup := ed.lines[l.Key]; !dup {
			ed.order = append(ed.order, l.Key)
		}
		ed.lines[l.Key] = l
	}
	return ed
}

// FileID returns the budget file being edited.
func (ed *Editor) FileID() string { return ed.fileID }

// Version returns the stored version the editor was loaded from.
func (ed *Editor) Version() int64 { return ed.version }

// Lines returns the budget lines in workbook order.
func (ed *Editor) Lines() []model.BudgetLine {
	out := make([]model.BudgetLine, 0, len(ed.order))
	for _, k := range ed.order {
		out = append(out, ed.lines[k])
	}
	return out
}

// Entries returns a copy of the pending entries.
func (ed *Editor) Entries() []model.ClassificationEntry {
	return append([]model.ClassificationEntry(nil), ed.entries...)
}

// LineEntries returns the pending entries for one line.
func (ed *Editor) LineEntries(category, subCategory string) []model.ClassificationEntry {
	key := model.NewLineKey(category, subCategory)
	var out []model.ClassificationEntry
	for _, e := range ed.entries {
		if e.Key() == key {
			out = append(out, e)
		}
	}
	return out
}

func (ed *Editor) line(category, subCategory string) (model.BudgetLine, error) {
	l, ok := ed.lines[model.NewLineKey(category, subCategory)]
	if !ok {
		return model.BudgetLine{}, model.Invalid(model.ErrLineNotFound, "%s / %s", category, subCategory)
	}
	return l, nil
}

// allocated sums pending allocations for key, skipping the entry at skip.
func (ed *Editor) allocated(key model.LineKey, skip int) decimal.Decimal {
	total := decimal.Zero
	for i, e := range ed.entries {
		if i == skip || e.Key() != key {
			continue
		}
		total = total.Add(e.EffectiveAmount())
	}
	return total
}

// Remaining is the line total less every pending allocation on the line.
func (ed *Editor) Remaining(category, subCategory string) (decimal.Decimal, error) {
	l, err := ed.line(category, subCategory)
	if err != nil {
		return decimal.Zero, err
	}
	return l.Total.Sub(ed.allocated(l.Key, -1)), nil
}

func checkStatus(status model.StatusCategory) error {
	if status == "" {
		return model.Invalid(model.ErrMissingStatus, "")
	}
	if !status.Assignable() {
		return model.Invalid(model.ErrStatusNotAssignable, "%q", status)
	}
	return nil
}

// Classify assigns one status to a whole line, replacing any allocations
// on it with a single entry covering the line total.
func (ed *Editor) Classify(category, subCategory string, status model.StatusCategory) error {
	l, err := ed.line(category, subCategory)
	if err != nil {
		return err
	}
	if err := checkStatus(status); err != nil {
		return err
	}

	ed.removeWhere(func(e model.ClassificationEntry) bool { return e.Key() == l.Key })
	ed.entries = append(ed.entries, model.ClassificationEntry{
		FileID:      ed.fileID,
		Category:    l.Category,
		SubCategory: l.SubCategory,
		Amount:      l.Total,
		Allocated:   l.Total,
		Status:      status,
	})
	return nil
}

// AddAllocation carves amount out of a line under status. The request is
// rejected, leaving the set unchanged, when amount exceeds what remains on
// the line after all pending allocations.
func (ed *Editor) AddAllocation(category, subCategory, label string, amount decimal.Decimal, status model.StatusCategory) (model.ClassificationEntry, error) {
	l, err := ed.line(category, subCategory)
	if err != nil {
		return model.ClassificationEntry{}, err
	}
	if err := checkStatus(status); err != nil {
		return model.ClassificationEntry{}, err
	}
	if !amount.IsPositive() {
		return model.ClassificationEntry{}, model.Invalid(model.ErrInvalidAmount, "%s", amount)
	}
	remaining := l.Total.Sub(ed.allocated(l.Key, -1))
	if amount.GreaterThan(remaining) {
		return model.ClassificationEntry{}, model.Invalid(model.ErrExceedsRemaining,
			"requested %s, remaining %s on %s / %s", amount.StringFixed(2), remaining.StringFixed(2), l.Category, l.SubCategory)
	}

	e := model.ClassificationEntry{
		FileID:       ed.fileID,
		Category:     l.Category,
		SubCategory:  l.SubCategory,
		AllocationID: ed.newID(),
		Label:        label,
		Amount:       l.Total,
		Allocated:    amount,
		Status:       status,
	}
	ed.entries = append(ed.entries, e)
	return e, nil
}

func (ed *Editor) find(allocationID string) (int, error) {
	for i, e := range ed.entries {
		if allocationID != "" && e.AllocationID == allocationID {
			return i, nil
		}
	}
	return -1, model.Invalid(model.ErrAllocationNotFound, "%q", allocationID)
}

// UpdateAmount changes an allocation's amount, subject to the same limit
// as adding it.
func (ed *Editor) UpdateAmount(allocationID string, amount decimal.Decimal) error {
	i, err := ed.find(allocationID)
	if err != nil {
		return err
	}
	if !amount.IsPositive() {
		return model.Invalid(model.ErrInvalidAmount, "%s", amount)
	}
	e := ed.entries[i]
	l, ok := ed.lines[e.Key()]
	if !ok {
		return model.Invalid(model.ErrLineNotFound, "%s / %s", e.Category, e.SubCategory)
	}
	remaining := l.Total.Sub(ed.allocated(l.Key, i))
	if amount.GreaterThan(remaining) {
		return model.Invalid(model.ErrExceedsRemaining,
			"requested %s, remaining %s on %s / %s", amount.StringFixed(2), remaining.StringFixed(2), l.Category, l.SubCategory)
	}
	ed.entries[i].Allocated = amount
	return nil
}

// SetStatus changes an allocation's status.
func (ed *Editor) SetStatus(allocationID string, status model.StatusCategory) error {
	i, err := ed.find(allocationID)
	if err != nil {
		return err
	}
	if err := checkStatus(status); err != nil {
		return err
	}
	ed.entries[i].Status = status
	return nil
}

// Remove deletes an allocation from the pending set.
func (ed *Editor) Remove(allocationID string) error {
	i, err := ed.find(allocationID)
	if err != nil {
		return err
	}
	ed.entries = append(ed.entries[:i], ed.entries[i+1:]...)
	return nil
}

// ClearLine deletes every pending entry for a line.
func (ed *Editor) ClearLine(category, subCategory string) error {
	l, err := ed.line(category, subCategory)
	if err != nil {
		return err
	}
	ed.removeWhere(func(e model.ClassificationEntry) bool { return e.Key() == l.Key })
	return nil
}

func (ed *Editor) removeWhere(match func(model.ClassificationEntry) bool) {
	kept := ed.entries[:0]
	for _, e := range ed.entries {
		if !match(e) {
			kept = append(kept, e)
		}
	}
	ed.entries = kept
}
