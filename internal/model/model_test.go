package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Office", "office"},
		{"  Office Supplies ", "officesupplies"},
		{"IT\tHardware\n", "ithardware"},
		{"", ""},
		{"   ", ""},
		{"A  B   C", "abc"},
	}
	for _, tt := range tests {
		if got := NormalizeKey(tt.in); got != tt.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewLineKeyMatchesAcrossFormatting(t *testing.T) {
	a := NewLineKey("Office", "Supplies")
	b := NewLineKey(" office ", "SUP PLIES")
	if a != b {
		t.Fatalf("keys differ: %v vs %v", a, b)
	}
}

func TestParseBudgetType(t *testing.T) {
	tests := []struct {
		in      string
		want    BudgetType
		wantErr bool
	}{
		{"opex", BudgetOpex, false},
		{"OPEX", BudgetOpex, false},
		{"Budget(OPEX)", BudgetOpex, false},
		{"capex", BudgetCapex, false},
		{"budget(capex)", BudgetCapex, false},
		{"payroll", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseBudgetType(tt.in)
		if tt.wantErr {
			if !IsSchema(err) {
				t.Errorf("ParseBudgetType(%q) err = %v, want SchemaError", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseBudgetType(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestStatusEnumeration(t *testing.T) {
	if len(StatusCategories) != 8 {
		t.Fatalf("len(StatusCategories) = %d, want 8", len(StatusCategories))
	}
	if StatusSpent.Assignable() || StatusOutOfBudget.Assignable() {
		t.Error("Spent and Out of Budget must not be assignable")
	}
	for _, s := range AssignableStatuses {
		if !s.Assignable() {
			t.Errorf("%q should be assignable", s)
		}
	}
	if _, ok := ParseStatus("wishlist"); ok {
		t.Error("ParseStatus must be case-sensitive")
	}
	if got, ok := ParseStatus("To be spent (Projects)"); !ok || got != StatusToBeSpentProjects {
		t.Errorf("ParseStatus = %q, %v", got, ok)
	}
}

func TestErrorKinds(t *testing.T) {
	schema := fmt.Errorf("reshaping: %w", &SchemaError{Reason: "missing columns", Columns: []string{"Total", "May"}})
	if !IsSchema(schema) || IsValidation(schema) || IsBoundary(schema) {
		t.Errorf("schema error misclassified: %v", schema)
	}
	if got := schema.Error(); got != "reshaping: missing columns: Total, May" {
		t.Errorf("Error() = %q", got)
	}

	v := Invalid(ErrExceedsRemaining, "requested %s, remaining %s", "600", "500")
	if !IsValidation(v) || !errors.Is(v, ErrExceedsRemaining) {
		t.Errorf("validation error misclassified: %v", v)
	}

	cause := errors.New("connection refused")
	b := Boundary("fx", cause)
	if !IsBoundary(b) || !errors.Is(b, cause) {
		t.Errorf("boundary error misclassified: %v", b)
	}
	if Boundary("fx", b) != b {
		t.Error("Boundary should not double wrap")
	}
	if Boundary("fx", nil) != nil {
		t.Error("Boundary(nil) should be nil")
	}
}
