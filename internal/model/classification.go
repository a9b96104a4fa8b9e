package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusCategory is the closed set of classification buckets. Values are
// wire-level strings and are case-sensitive.
type StatusCategory string

const (
	StatusWishlist          StatusCategory = "Wishlist"
	StatusToBeConfirmed     StatusCategory = "To be confirmed"
	StatusSpent             StatusCategory = "Spent"
	StatusToBeSpent         StatusCategory = "To be spent"
	StatusToBeSpentProjects StatusCategory = "To be spent (Projects)"
	StatusToBeSpentRecur    StatusCategory = "To be spent (Recurring)"
	StatusWillNotBeSpent    StatusCategory = "Will not be spent"
	StatusOutOfBudget       StatusCategory = "Out of Budget"
)

// StatusCategories lists every status in dashboard order.
var StatusCategories = []StatusCategory{
	StatusWishlist,
	StatusToBeConfirmed,
	StatusSpent,
	StatusToBeSpent,
	StatusToBeSpentProjects,
	StatusToBeSpentRecur,
	StatusWillNotBeSpent,
	StatusOutOfBudget,
}

// AssignableStatuses are the statuses a user may pick in the editor.
// Spent and Out of Budget are derived from the ledger.
var AssignableStatuses = []StatusCategory{
	StatusWishlist,
	StatusToBeConfirmed,
	StatusToBeSpent,
	StatusToBeSpentProjects,
	StatusToBeSpentRecur,
	StatusWillNotBeSpent,
}

// ParseStatus matches s exactly against the enumeration.
func ParseStatus(s string) (StatusCategory, bool) {
	for _, st := range StatusCategories {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Assignable reports whether users may set this status directly.
func (s StatusCategory) Assignable() bool {
	for _, st := range AssignableStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// ClassificationEntry is one persisted slice of a budget line. An entry with
// an empty AllocationID classifies the whole line.
type ClassificationEntry struct {
	FileID       string          `json:"file_id"`
	Category     string          `json:"category"`
	SubCategory  string          `json:"subcategory"`
	AllocationID string          `json:"allocation_id,omitempty"`
	Label        string          `json:"label,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Allocated    decimal.Decimal `json:"allocated_amount"`
	Status       StatusCategory  `json:"status"`
	UpdatedBy    string          `json:"updated_by,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at,omitempty"`
}

// Key returns the normalized budget key of the entry's line.
func (e ClassificationEntry) Key() LineKey {
	return NewLineKey(e.Category, e.SubCategory)
}

// EffectiveAmount is the allocated amount, falling back to the line amount
// when the entry is not subdivided.
func (e ClassificationEntry) EffectiveAmount() decimal.Decimal {
	if e.AllocationID == "" && e.Allocated.IsZero() {
		return e.Amount
	}
	return e.Allocated
}
