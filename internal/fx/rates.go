// Package fx converts ledger amounts into the USD reporting currency.
//
// Rates are quoted as units of the foreign currency per one USD (the
// convention of the rate service), so a USD amount is amount / rate.
package fx

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetrecon/internal/model"
)

// RateTable maps an upper-case currency code to units per USD.
// It is a point-in-time snapshot.
type RateTable map[string]decimal.Decimal

// Provider supplies the current rate table.
type Provider interface {
	Rates(ctx context.Context) (RateTable, error)
}

// NewRateTable builds a table from code -> rate, normalizing codes.
// USD is always present at 1.
func NewRateTable(rates map[string]decimal.Decimal) RateTable {
	t := make(RateTable, len(rates)+1)
	for code, rate := range rates {
		t[normalizeCode(code)] = rate
	}
	t["USD"] = decimal.NewFromInt(1)
	return t
}

// ParseRateTable builds a table from string rates, as found in config.
func ParseRateTable(rates map[string]string) (RateTable, error) {
	parsed := make(map[string]decimal.Decimal, len(rates))
	for code, raw := range rates {
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("fx: rate for %s: %w", code, err)
		}
		if !d.IsPositive() {
			return nil, fmt.Errorf("fx: rate for %s must be positive, got %s", code, raw)
		}
		parsed[code] = d
	}
	return NewRateTable(parsed), nil
}

// Rate returns the rate for code, if known and usable.
func (t RateTable) Rate(code string) (decimal.Decimal, bool) {
	r, ok := t[normalizeCode(code)]
	if !ok || !r.IsPositive() {
		return decimal.Zero, false
	}
	return r, true
}

// ToUSD converts amount in currency code to USD. It fails with
// model.ErrNonNumericAmount or model.ErrUnknownCurrency.
func (t RateTable) ToUSD(amount, code string) (decimal.Decimal, error) {
	d, err := ParseAmount(amount)
	if err != nil {
		return decimal.Zero, err
	}
	rate, ok := t.Rate(code)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", model.ErrUnknownCurrency, code)
	}
	return d.Div(rate), nil
}

// ParseAmount parses a ledger amount, tolerating surrounding whitespace
// and thousands separators.
func ParseAmount(s string) (decimal.Decimal, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", model.ErrNonNumericAmount)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", model.ErrNonNumericAmount, s)
	}
	return d, nil
}

// Static serves a fixed rate table.
type Static RateTable

// Rates implements Provider.
func (s Static) Rates(context.Context) (RateTable, error) {
	return RateTable(s), nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
