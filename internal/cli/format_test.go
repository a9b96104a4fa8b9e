package cli

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetrecon/internal/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"12.5", "$12.50"},
		{"999.999", "$1,000.00"},
		{"1234567.891", "$1,234,567.89"},
		{"-12.5", "-$12.50"},
		{"-0.001", "$0.00"},
	}
	for _, tt := range tests {
		if got := FormatMoney(d(tt.in)); got != tt.want {
			t.Errorf("FormatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatVariance(t *testing.T) {
	if got := FormatVariance(d("150")); got != "+$150.00" {
		t.Errorf("got %q", got)
	}
	if got := FormatVariance(d("-100")); got != "-$100.00" {
		t.Errorf("got %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := map[int64]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -4500: "-4,500"}
	for in, want := range tests {
		if got := FormatNumber(in); got != want {
			t.Errorf("FormatNumber(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatUsage(t *testing.T) {
	if got := FormatUsage(d("800"), d("1000")); got != "80.0%" {
		t.Errorf("got %q", got)
	}
	if got := FormatUsage(d("50"), decimal.Zero); got != "n/a" {
		t.Errorf("zero budget got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Marketing", 20); got != "Marketing" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("Professional Services", 10); got != "Profess..." {
		t.Errorf("got %q", got)
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Report",
		Headers: []string{"Category", "Spent"},
		Rows:    [][]string{{"IT", "$100.00"}, {"---"}, {"Marketing", "$1,300.00"}},
	})
	for _, want := range []string{"Report", "Category", "Marketing", "$1,300.00", "╭", "╯"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if RenderTable(Table{}) != "" {
		t.Error("empty table should render nothing")
	}
}

func TestRenderSummary(t *testing.T) {
	tiles := make([]model.SummaryTile, 0, len(model.StatusCategories))
	for _, st := range model.StatusCategories {
		tiles = append(tiles, model.SummaryTile{Status: st, Total: d("10")})
	}
	out := RenderSummary(model.Summary{BudgetTotal: d("1800"), Spent: d("1650"), Balance: d("150"), Tiles: tiles})
	for _, want := range []string{"$1,800.00", "$150.00", string(model.StatusWillNotBeSpent)} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestStatusColor(t *testing.T) {
	if StatusColor(model.VarianceOverspent) != ColorRed {
		t.Error("overspent should be red")
	}
	if StatusColor(model.VarianceWithin) != ColorGreen {
		t.Error("within should be green")
	}
}
