package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/budgetrecon/internal/fx"
	"github.com/theirongolddev/budgetrecon/internal/model"
	"github.com/theirongolddev/budgetrecon/internal/source"
)

// SpendResult is one expense aggregation pass over a ledger snapshot.
type SpendResult struct {
	CacheKey     string                     `json:"cache_key"`
	Transactions []model.ExpenseTransaction `json:"transactions"`
	Lines        []model.SpendLine          `json:"lines"`
	Drops        model.DropReport           `json:"drops"`
}

// SnapshotCache stores computed results by key.
type SnapshotCache interface {
	GetSnapshot(ctx context.Context, key string) ([]byte, bool, error)
	PutSnapshot(ctx context.Context, key string, data []byte) error
}

// Rollover is the daily instant at which cached ledger results expire.
type Rollover struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// Loader computes spend results, caching them per business day.
type Loader struct {
	Ledger   source.Ledger
	Rates    fx.Provider
	Cache    SnapshotCache // nil disables caching
	Rollover Rollover
	Now      func() time.Time
	Log      zerolog.Logger
}

// CacheKey derives the cache key for a filter at time now.
func (l *Loader) CacheKey(now time.Time, f ExpenseFilter) string {
	day := DailyRolloverKey(now, l.Rollover.Hour, l.Rollover.Minute, l.Rollover.Location)
	return fmt.Sprintf("spend|%s|%s|%s|%d|%s", day, l.Ledger.ID(), f.Organization, f.Year, f.Type)
}

// Spend returns the filtered, converted and aggregated ledger for f.
// A cached result for the current business day is reused; cache failures
// are logged and fall through to computing.
func (l *Loader) Spend(ctx context.Context, f ExpenseFilter) (*SpendResult, error) {
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	key := l.CacheKey(now, f)

	if l.Cache != nil {
		data, ok, err := l.Cache.GetSnapshot(ctx, key)
		switch {
		case err != nil:
			l.Log.Warn().Err(err).Str("key", key).Msg("reading spend cache")
		case ok:
			var res SpendResult
			if err := json.Unmarshal(data, &res); err == nil {
				l.Log.Debug().Str("key", key).Msg("spend cache hit")
				return &res, nil
			}
			l.Log.Warn().Str("key", key).Msg("discarding unreadable spend cache entry")
		}
	}

	res, err := l.compute(ctx, f)
	if err != nil {
		return nil, err
	}
	res.CacheKey = key

	if l.Cache != nil {
		data, err := json.Marshal(res)
		if err == nil {
			err = l.Cache.PutSnapshot(ctx, key, data)
		}
		if err != nil {
			l.Log.Warn().Err(err).Str("key", key).Msg("writing spend cache")
		}
	}
	return res, nil
}

func (l *Loader) compute(ctx context.Context, f ExpenseFilter) (*SpendResult, error) {
	rates, err := l.Rates.Rates(ctx)
	if err != nil {
		return nil, model.Boundary("fx", err)
	}
	txs, err := l.Ledger.Transactions(ctx)
	if err != nil {
		if model.IsSchema(err) {
			return nil, fmt.Errorf("reading ledger %s: %w", l.Ledger.ID(), err)
		}
		return nil, model.Boundary("ledger", err)
	}

	kept, report, err := LoadRaw(txs, f, rates)
	if err != nil {
		return nil, fmt.Errorf("loading ledger %s: %w", l.Ledger.ID(), err)
	}
	if n := report.UnknownCurrency + report.NonNumericAmount; n > 0 {
		l.Log.Warn().
			Int("unknown_currency", report.UnknownCurrency).
			Int("non_numeric_amount", report.NonNumericAmount).
			Msg("dropped ledger rows that failed conversion")
	}

	return &SpendResult{
		Transactions: kept,
		Lines:        Aggregate(kept),
		Drops:        report,
	}, nil
}
