// Package projection synthesizes month-end spend predictions from the current
// month's transactions when no trusted external forecast exists.
//
// Each category starts from a policy baseline and passes through a chain of
// multipliers (month progress, historical pace, day of week) before a final
// growth floor and rounding to cents.
package projection

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/cloudexpense/pkg/api"
)

// Options are the tunable constants of the multiplier chain.
type Options struct {
	// EarlyProgress is the month progress below which projections get boosted.
	EarlyProgress float64
	// EarlyBoost scales the projection early in the month.
	EarlyBoost float64
	// EarlyFloorMultiple is the minimum multiple of current spend after the boost.
	EarlyFloorMultiple float64
	// EarlyCeilingMultiple disables the boost once the projection reaches it.
	EarlyCeilingMultiple float64

	PaceTolerance        float64
	FastPaceMultiplier   float64
	SlowPaceMultiplier   float64
	SteadyPaceMultiplier float64

	WeekdayWeights   WeekdayWeights
	PaydayFrom       int
	PaydayMultiplier float64
	PaydayCategories map[string]bool

	// MinGrowth is the smallest acceptable multiple of current spend; anything
	// lower is replaced by GrowthFloor times current spend.
	MinGrowth   float64
	GrowthFloor float64
}

// DefaultOptions returns the production weights.
func DefaultOptions() Options {
	return Options{
		EarlyProgress:        0.2,
		EarlyBoost:           1.2,
		EarlyFloorMultiple:   2.5,
		EarlyCeilingMultiple: 3.0,

		PaceTolerance:        0.2,
		FastPaceMultiplier:   1.15,
		SlowPaceMultiplier:   0.9,
		SteadyPaceMultiplier: 1.05,

		WeekdayWeights: WeekdayWeights{
			"food":          {time.Friday: 1.05, time.Saturday: 1.1, time.Sunday: 1.1},
			"shopping":      {time.Friday: 1.05, time.Saturday: 1.15, time.Sunday: 1.1},
			"entertainment": {time.Friday: 1.1, time.Saturday: 1.2, time.Sunday: 1.15},
			"transport":     {time.Monday: 1.03},
		},
		PaydayFrom:       25,
		PaydayMultiplier: 1.1,
		PaydayCategories: map[string]bool{"shopping": true, "entertainment": true, "food": true},

		MinGrowth:   1.1,
		GrowthFloor: 1.2,
	}
}

// Engine is the heuristic projection engine. It is safe for concurrent use.
type Engine struct {
	opts     Options
	policies *Policies
	logger   *slog.Logger
}

// New creates an engine. Nil policies means DefaultPolicies.
func New(opts Options, policies *Policies, logger *slog.Logger) *Engine {
	if policies == nil {
		policies = DefaultPolicies()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{opts: opts, policies: policies, logger: logger}
}

// Result holds the projected totals and the per-category trace that produced them.
type Result struct {
	Predictions map[string]decimal.Decimal
	Trace       map[string][]TraceEntry
}

// Project predicts month-end totals for every category present in records.
func (e *Engine) Project(records []api.TransactionRecord, history api.History, month MonthContext) Result {
	res := Result{
		Predictions: make(map[string]decimal.Decimal),
		Trace:       make(map[string][]TraceEntry),
	}

	for _, s := range Summarize(records) {
		p := e.ProjectCategory(s, history.Lookup(s.Category), month)
		res.Predictions[s.Category] = p.Value
		res.Trace[s.Category] = p.Trace
	}
	return res
}

// ProjectCategory runs the full chain for one category.
func (e *Engine) ProjectCategory(s Summary, history api.HistoricalPattern, month MonthContext) Projection {
	p := Projection{
		Summary: s,
		Month:   month,
		History: history,
		Policy:  e.policies.For(s.Category),
		Value:   s.TotalSpent,
	}

	switch {
	case month.DaysRemaining <= 0:
		p = roundStep(p.skip("terminal", "month complete"))
	case !s.TotalSpent.IsPositive():
		p = roundStep(p.skip("terminal", "nothing spent"))
	default:
		p = Run(p,
			baselineStep,
			e.monthProgressStep,
			e.historyStep,
			e.weekdayStep,
			e.clampStep,
			roundStep,
		)
	}

	for _, t := range p.Trace {
		e.logger.Debug("projection step",
			"category", s.Category,
			"step", t.Step,
			"multiplier", t.Multiplier,
			"before", t.Before.StringFixed(2),
			"after", t.After.StringFixed(2),
			"note", t.Note,
		)
	}
	return p
}
