// Package api defines the core interfaces and data structures for cloudexpense.
package api

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecord is one ledger entry reduced to what the prediction engine needs.
type TransactionRecord struct {
	Date     time.Time
	Category string
	Amount   decimal.Decimal
}

// HistoricalPattern describes how a user spent in one category over the trailing months.
type HistoricalPattern struct {
	AvgMonthlySpend decimal.Decimal `json:"avg_monthly_spend"`
	AvgDailyRate    decimal.Decimal `json:"avg_daily_rate"`
	// HasHistory is false when the category never appeared in the window.
	HasHistory bool `json:"has_history"`
}

// History maps a category label to its historical pattern.
type History map[string]HistoricalPattern

// Lookup returns the pattern for a category. Missing categories report HasHistory=false.
func (h History) Lookup(category string) HistoricalPattern {
	if p, ok := h[category]; ok {
		return p
	}
	return HistoricalPattern{}
}

// Source identifies where a prediction came from.
type Source string

const (
	SourceExternal         Source = "external"
	SourceExternalAdjusted Source = "external-adjusted"
	SourceHeuristic        Source = "heuristic"
)

// Confidence is a coarse signal of how much a prediction was trusted as-is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// PredictionResult is the month-end projection returned to callers. It is never persisted.
type PredictionResult struct {
	Predictions    map[string]decimal.Decimal
	DataPointsUsed int
	Source         Source
	Confidence     Confidence
	// AdjustmentReason is empty unless an external forecast was adjusted.
	AdjustmentReason string
	// ForecasterStatus explains why the external forecaster was not used.
	ForecasterStatus string
}

// Ledger reads a user's transactions. Implementations must return rows ordered by
// timestamp ascending.
type Ledger interface {
	// Transactions returns the user's transactions in [from, to).
	Transactions(ctx context.Context, userID int64, from, to time.Time) ([]TransactionRecord, error)
	// HistoricalPatterns summarizes the user's per-category spending in [from, to).
	HistoricalPatterns(ctx context.Context, userID int64, from, to time.Time) (History, error)
}

// LedgerWriter stores transactions for a user.
type LedgerWriter interface {
	Insert(ctx context.Context, userID int64, records []TransactionRecord) error
}

// Forecaster produces a category to month-end total mapping from the current month's records.
// Any failure means the forecast is unavailable.
type Forecaster interface {
	Forecast(ctx context.Context, records []TransactionRecord) (map[string]decimal.Decimal, error)
}

// Categories returns the distinct categories of records in first-seen order.
func Categories(records []TransactionRecord) []string {
	seen := make(map[string]struct{}, len(records))
	var out []string
	for _, r := range records {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		out = append(out, r.Category)
	}
	return out
}

// SpentByCategory sums record amounts per category.
func SpentByCategory(records []TransactionRecord) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, r := range records {
		out[r.Category] = out[r.Category].Add(r.Amount)
	}
	return out
}
