// Package validator bounds-checks externally produced month-end predictions
// against what has already been spent.
package validator

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/cloudexpense/pkg/api"
)

// Adjustment reasons.
const (
	ReasonTooHigh = "Some predictions needed adjustment for realism"
	ReasonTooLow  = "Some predictions were lower than current spending"
)

// Band is the plausibility multiplier used up to, but excluding, a day of month.
type Band struct {
	BeforeDay  int
	Multiplier float64
}

// Config holds the plausibility bounds.
type Config struct {
	// FixedMultiplier applies to labels containing any of FixedKeywords.
	FixedMultiplier float64
	FixedKeywords   []string
	// Bands are checked in order; the first with BeforeDay > days elapsed wins.
	Bands []Band
	// LateMultiplier applies once every band has passed.
	LateMultiplier float64
	// AbsoluteDelta is how far above current spend a prediction may go before it
	// can be considered too high.
	AbsoluteDelta decimal.Decimal
}

// DefaultConfig returns the production bounds.
func DefaultConfig() Config {
	return Config{
		FixedMultiplier: 1.5,
		FixedKeywords:   []string{"bill", "rent"},
		Bands: []Band{
			{BeforeDay: 10, Multiplier: 4.0},
			{BeforeDay: 20, Multiplier: 3.0},
		},
		LateMultiplier: 2.0,
		AbsoluteDelta:  decimal.NewFromInt(1000),
	}
}

// Validator checks external predictions. It never rejects a prediction outright.
type Validator struct {
	cfg Config
}

// New creates a validator.
func New(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// Adjustment describes one corrected category.
type Adjustment struct {
	Category  string
	Reason    string
	Predicted decimal.Decimal
	Adjusted  decimal.Decimal
}

// Result is the validated prediction map.
type Result struct {
	Predictions map[string]decimal.Decimal
	Confidence  api.Confidence
	// Reason is empty when nothing was adjusted.
	Reason      string
	Adjustments []Adjustment
}

// Adjusted reports whether any category was corrected.
func (r Result) Adjusted() bool { return len(r.Adjustments) > 0 }

// MaxMultiplier returns the plausibility bound for a category on a day of month.
func (v *Validator) MaxMultiplier(category string, daysElapsed int) float64 {
	label := strings.ToLower(category)
	for _, kw := range v.cfg.FixedKeywords {
		if strings.Contains(label, kw) {
			return v.cfg.FixedMultiplier
		}
	}
	for _, b := range v.cfg.Bands {
		if daysElapsed < b.BeforeDay {
			return b.Multiplier
		}
	}
	return v.cfg.LateMultiplier
}

// Validate checks predicted against the month-to-date spend in records.
// Only categories present in both are returned; callers fill any gaps.
func (v *Validator) Validate(predicted map[string]decimal.Decimal, records []api.TransactionRecord, daysElapsed int) Result {
	res := Result{
		Predictions: make(map[string]decimal.Decimal),
		Confidence:  api.ConfidenceHigh,
	}

	spent := api.SpentByCategory(records)
	var reasons []string

	for _, category := range api.Categories(records) {
		value, ok := predicted[category]
		if !ok {
			continue
		}
		current := spent[category]
		mult := decimal.NewFromFloat(v.MaxMultiplier(category, daysElapsed))

		adjusted := value.Round(2)
		reason := ""
		switch {
		case value.LessThan(current):
			adjusted = current.RoundCeil(2)
			reason = ReasonTooLow
		case value.GreaterThan(current.Mul(mult)) && value.GreaterThan(current.Add(v.cfg.AbsoluteDelta)):
			adjusted = decimal.Min(current.Mul(mult), current.Add(v.cfg.AbsoluteDelta)).Round(2)
			reason = ReasonTooHigh
		}
		// Rounding to cents must not land below sub-cent spend.
		adjusted = decimal.Max(adjusted, current.RoundCeil(2))

		res.Predictions[category] = adjusted
		if reason == "" {
			continue
		}
		res.Adjustments = append(res.Adjustments, Adjustment{
			Category:  category,
			Reason:    reason,
			Predicted: value,
			Adjusted:  adjusted,
		})
		if !slices.Contains(reasons, reason) {
			reasons = append(reasons, reason)
		}
	}

	if res.Adjusted() {
		res.Confidence = api.ConfidenceMedium
		res.Reason = strings.Join(reasons, "; ")
	}
	return res
}
