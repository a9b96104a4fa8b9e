// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FormatMoney formats a USD amount with separators and cents.
// e.g., 1234567.891 -> "$1,234,567.89", -12.5 -> "-$12.50"
func FormatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	whole, cents, _ := strings.Cut(s, ".")
	n, _ := strconv.ParseInt(whole, 10, 64)
	out := "$" + FormatNumber(n) + "." + cents
	if d.Round(2).IsNegative() {
		return "-" + out
	}
	return out
}

// FormatVariance formats a variance with an explicit sign.
// e.g., 150 -> "+$150.00", -100 -> "-$100.00"
func FormatVariance(d decimal.Decimal) string {
	if d.Round(2).IsNegative() {
		return FormatMoney(d)
	}
	return "+" + FormatMoney(d)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatUsage formats spent as a share of budgeted.
// A zero budget has no meaningful share and renders as "n/a".
func FormatUsage(spent, budgeted decimal.Decimal) string {
	if budgeted.IsZero() {
		return "n/a"
	}
	return spent.Div(budgeted).Mul(hundred).StringFixed(1) + "%"
}

// FormatDate formats a timestamp as a local calendar date.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
