package projection

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/cloudexpense/pkg/api"
)

// TraceEntry records what one step did to the running projection.
type TraceEntry struct {
	Step       string          `json:"step"`
	Multiplier float64         `json:"multiplier"`
	Before     decimal.Decimal `json:"before"`
	After      decimal.Decimal `json:"after"`
	Note       string          `json:"note,omitempty"`
}

// Projection is the running state threaded through the steps for one category.
type Projection struct {
	Summary Summary
	Month   MonthContext
	History api.HistoricalPattern
	Policy  CategoryPolicy
	Value   decimal.Decimal
	Trace   []TraceEntry
}

// Current is the category's month-to-date spend.
func (p Projection) Current() decimal.Decimal { return p.Summary.TotalSpent }

// Step refines a projection. Steps never mutate their input.
type Step func(Projection) Projection

func (p Projection) record(step string, value decimal.Decimal, multiplier float64, note string) Projection {
	entry := TraceEntry{Step: step, Multiplier: multiplier, Before: p.Value, After: value, Note: note}
	p.Trace = append(p.Trace[:len(p.Trace):len(p.Trace)], entry)
	p.Value = value
	return p
}

func (p Projection) scale(step string, multiplier float64, note string) Projection {
	return p.record(step, p.Value.Mul(dec(multiplier)), multiplier, note)
}

func (p Projection) skip(step, note string) Projection {
	return p.record(step, p.Value, 1, note)
}

// Run applies steps in order.
func Run(p Projection, steps ...Step) Projection {
	for _, step := range steps {
		p = step(p)
	}
	return p
}

func baselineStep(p Projection) Projection {
	return p.record("baseline", p.Policy.Project(p.Summary, p.Month), 1, "policy "+p.Policy.Name())
}

func (e *Engine) monthProgressStep(p Projection) Projection {
	const step = "month_progress"
	o := e.opts

	if p.Month.Progress >= o.EarlyProgress {
		return p.skip(step, "past early month")
	}
	ceiling := p.Current().Mul(dec(o.EarlyCeilingMultiple))
	if !p.Value.LessThan(ceiling) {
		return p.skip(step, "already above early ceiling")
	}

	boosted := decimal.Max(p.Value.Mul(dec(o.EarlyBoost)), p.Current().Mul(dec(o.EarlyFloorMultiple)))
	mult := 1.0
	if p.Value.IsPositive() {
		mult = boosted.Div(p.Value).InexactFloat64()
	}
	return p.record(step, boosted, mult, fmt.Sprintf("progress %.2f below %.2f", p.Month.Progress, o.EarlyProgress))
}

func (e *Engine) historyStep(p Projection) Projection {
	const step = "history"
	o := e.opts

	if !p.History.HasHistory || !p.History.AvgDailyRate.IsPositive() {
		return p.skip(step, "no history")
	}

	pace := p.Summary.DailyAverage(p.Month).Div(p.History.AvgDailyRate).InexactFloat64()
	switch {
	case pace > 1+o.PaceTolerance:
		return p.scale(step, o.FastPaceMultiplier, fmt.Sprintf("pacing %.2fx historical rate", pace))
	case pace < 1-o.PaceTolerance:
		return p.scale(step, o.SlowPaceMultiplier, fmt.Sprintf("pacing %.2fx historical rate", pace))
	default:
		return p.scale(step, o.SteadyPaceMultiplier, "pacing near historical rate")
	}
}

func (e *Engine) weekdayStep(p Projection) Projection {
	const step = "weekday"
	o := e.opts

	mult := o.WeekdayWeights.Weight(p.Policy.Name(), p.Month.Weekday)
	note := p.Month.Weekday.String()
	if p.Month.Today.Day() >= o.PaydayFrom && o.PaydayCategories[p.Policy.Name()] {
		mult *= o.PaydayMultiplier
		note += " payday"
	}
	if mult == 1 {
		return p.skip(step, note)
	}
	return p.scale(step, mult, note)
}

func (e *Engine) clampStep(p Projection) Projection {
	const step = "clamp"
	o := e.opts

	if p.Value.LessThan(p.Current().Mul(dec(o.MinGrowth))) {
		return p.record(step, p.Current().Mul(dec(o.GrowthFloor)), o.GrowthFloor, "below minimum growth")
	}
	return p.skip(step, "")
}

// roundStep rounds to cents without dropping below sub-cent spend.
func roundStep(p Projection) Projection {
	return p.record("round", decimal.Max(p.Value.Round(2), p.Current().RoundCeil(2)), 1, "")
}

// WeekdayWeights holds per-category multipliers keyed by day of week. Missing
// entries weigh 1.
type WeekdayWeights map[string]map[time.Weekday]float64

// Weight returns the multiplier for a policy on a weekday.
func (w WeekdayWeights) Weight(policy string, day time.Weekday) float64 {
	if byDay, ok := w[policy]; ok {
		if v, ok := byDay[day]; ok {
			return v
		}
	}
	return 1
}
