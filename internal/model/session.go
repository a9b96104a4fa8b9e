// Package model defines the typed records shared by the reconciliation engine.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Session carries the caller's identity and the budget file being viewed
// through each operation.
type Session struct {
	User   string
	FileID string
}

// BudgetType selects which spend classification a budget file covers.
type BudgetType string

const (
	BudgetOpex  BudgetType = "budget(opex)"
	BudgetCapex BudgetType = "budget(capex)"
)

// ParseBudgetType accepts "opex", "capex", "budget(opex)" or "budget(capex)"
// in any case. Anything else is a schema error.
func ParseBudgetType(s string) (BudgetType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "opex", string(BudgetOpex):
		return BudgetOpex, nil
	case "capex", string(BudgetCapex):
		return BudgetCapex, nil
	}
	return "", &SchemaError{Reason: "unknown budget type", Value: s}
}

// Classification returns the ledger classification value matched by this type.
func (b BudgetType) Classification() string {
	switch b {
	case BudgetOpex:
		return "OPEX"
	case BudgetCapex:
		return "CAPEX"
	}
	return ""
}

// UploadedFile is a stored budget workbook.
type UploadedFile struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       BudgetType `json:"type"`
	BudgetYear int        `json:"budget_year"`
	Uploader   string     `json:"uploader"`
	UploadedAt time.Time  `json:"uploaded_at"`
	BlobKey    string     `json:"blob_key"`
}

func (f UploadedFile) String() string {
	return fmt.Sprintf("%s (%s %d)", f.Name, f.Type, f.BudgetYear)
}
