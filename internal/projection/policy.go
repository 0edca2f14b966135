package projection

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CategoryPolicy turns a category's month-to-date summary into a baseline month-end total.
type CategoryPolicy interface {
	// Name is the canonical key used by the weighting tables.
	Name() string
	// Project returns the baseline projection. It may be refined by later steps.
	Project(s Summary, m MonthContext) decimal.Decimal
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func days(n int) decimal.Decimal { return decimal.NewFromInt(int64(n)) }

func clampFloat(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

// Meals infers meals per day from transaction density and prices weekend
// meals higher than weekday ones, both scaled by the user's own cost per meal.
type Meals struct {
	MinPerDay      float64
	MaxPerDay      float64
	WeekendPremium float64
}

func (Meals) Name() string { return "food" }

func (p Meals) Project(s Summary, m MonthContext) decimal.Decimal {
	perDay := clampFloat(float64(s.TransactionCount)/float64(m.daysPassed()), p.MinPerDay, p.MaxPerDay)
	weekdays, weekends := m.RemainingDays()

	weekdayMeals := dec(perDay).Mul(days(weekdays))
	weekendMeals := dec(perDay * p.WeekendPremium).Mul(days(weekends))

	return s.TotalSpent.Add(s.AveragePerTransaction.Mul(weekdayMeals.Add(weekendMeals)))
}

// Commute projects trips on days the user is typically active, with weekends
// counting for a fraction of a weekday.
type Commute struct {
	WeekendShare float64
}

func (Commute) Name() string { return "transport" }

func (p Commute) Project(s Summary, m MonthContext) decimal.Decimal {
	activeDays := max(s.DistinctDaysActive, 1)
	activeShare := clampFloat(float64(activeDays)/float64(m.daysPassed()), 0, 1)
	perActiveDay := s.TotalSpent.Div(days(activeDays))

	weekdays, weekends := m.RemainingDays()
	expectedDays := activeShare * (float64(weekdays) + float64(weekends)*p.WeekendShare)

	return s.TotalSpent.Add(perActiveDay.Mul(dec(expectedDays)))
}

// Purchases treats spending as discrete purchases at the observed frequency,
// discounted because large purchases rarely repeat at the same pace.
type Purchases struct {
	Key      string
	Discount float64
}

func (p Purchases) Name() string { return p.Key }

func (p Purchases) Project(s Summary, m MonthContext) decimal.Decimal {
	frequency := float64(s.TransactionCount) / float64(m.daysPassed())
	expected := frequency * float64(max(m.DaysRemaining, 0)) * p.Discount
	return s.TotalSpent.Add(s.AveragePerTransaction.Mul(dec(expected)))
}

// Leisure weights remaining weekend days above weekdays.
type Leisure struct {
	WeekdayWeight float64
	WeekendWeight float64
}

func (Leisure) Name() string { return "entertainment" }

func (p Leisure) Project(s Summary, m MonthContext) decimal.Decimal {
	weekdays, weekends := m.RemainingDays()
	weighted := float64(weekdays)*p.WeekdayWeight + float64(weekends)*p.WeekendWeight
	return s.TotalSpent.Add(s.DailyAverage(m).Mul(dec(weighted)))
}

// Fixed adds a fraction of what is already spent, for bills and fees that are
// mostly paid once per month.
type Fixed struct {
	Key        string
	Additional float64
}

func (p Fixed) Name() string { return p.Key }

func (p Fixed) Project(s Summary, _ MonthContext) decimal.Decimal {
	return s.TotalSpent.Mul(dec(1 + p.Additional))
}

// Irregular projects a damped share of the linear daily rate.
type Irregular struct {
	Key   string
	Share float64
}

func (p Irregular) Name() string { return p.Key }

func (p Irregular) Project(s Summary, m MonthContext) decimal.Decimal {
	remaining := s.BasicProjection(m).Sub(s.TotalSpent)
	return s.TotalSpent.Add(remaining.Mul(dec(p.Share)))
}

// Default applies to any label without a specific policy: the linear projection,
// boosted early in the month and damped late in the month.
type Default struct {
	EarlyUntil float64
	LateFrom   float64
	EarlyBoost float64
	LateDamp   float64
}

func (Default) Name() string { return "default" }

func (p Default) Project(s Summary, m MonthContext) decimal.Decimal {
	basic := s.BasicProjection(m)
	switch {
	case m.Progress < p.EarlyUntil:
		return basic.Mul(dec(p.EarlyBoost))
	case m.Progress > p.LateFrom:
		return basic.Mul(dec(p.LateDamp))
	default:
		return basic
	}
}

// Policies resolves category labels to policies. Lookup is case-insensitive and
// unknown labels resolve to Fallback.
type Policies struct {
	byLabel  map[string]CategoryPolicy
	Fallback CategoryPolicy
}

// NewPolicies builds an empty set with the given fallback.
func NewPolicies(fallback CategoryPolicy) *Policies {
	return &Policies{byLabel: make(map[string]CategoryPolicy), Fallback: fallback}
}

// Register binds one or more labels to a policy.
func (p *Policies) Register(policy CategoryPolicy, labels ...string) {
	for _, l := range labels {
		p.byLabel[normalize(l)] = policy
	}
}

// For returns the policy for a category label.
func (p *Policies) For(category string) CategoryPolicy {
	if policy, ok := p.byLabel[normalize(category)]; ok {
		return policy
	}
	return p.Fallback
}

func normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// DefaultPolicies covers the categories the app offers. "Others" intentionally
// uses the fallback.
func DefaultPolicies() *Policies {
	p := NewPolicies(Default{EarlyUntil: 1.0 / 3, LateFrom: 2.0 / 3, EarlyBoost: 1.15, LateDamp: 0.9})
	p.Register(Meals{MinPerDay: 0.5, MaxPerDay: 3, WeekendPremium: 1.3}, "food", "groceries", "dining")
	p.Register(Commute{WeekendShare: 0.5}, "transport", "transportation", "travel")
	p.Register(Purchases{Key: "shopping", Discount: 0.8}, "shopping")
	p.Register(Leisure{WeekdayWeight: 0.6, WeekendWeight: 1.6}, "entertainment")
	p.Register(Fixed{Key: "bills", Additional: 0.2}, "bills", "bill", "rent", "utilities")
	p.Register(Fixed{Key: "education", Additional: 0.3}, "education")
	p.Register(Irregular{Key: "health", Share: 0.5}, "health", "medical")
	return p
}
