package projection

import "time"

// MonthContext is the calendar position of "now" within its month.
type MonthContext struct {
	Today         time.Time
	Year          int
	Month         time.Month
	DaysInMonth   int
	DaysElapsed   int
	DaysRemaining int
	// Progress is DaysElapsed/DaysInMonth, always within [0, 1].
	Progress float64
	Weekday  time.Weekday
}

// NewMonthContext derives the month context for now, in now's location.
func NewMonthContext(now time.Time) MonthContext {
	y, m, d := now.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	daysInMonth := first.AddDate(0, 1, -1).Day()

	return MonthContext{
		Today:         time.Date(y, m, d, 0, 0, 0, 0, now.Location()),
		Year:          y,
		Month:         m,
		DaysInMonth:   daysInMonth,
		DaysElapsed:   d,
		DaysRemaining: daysInMonth - d,
		Progress:      float64(d) / float64(daysInMonth),
		Weekday:       now.Weekday(),
	}
}

// Start is midnight on the first day of the month.
func (m MonthContext) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, m.Today.Location())
}

// End is midnight on the first day of the following month.
func (m MonthContext) End() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

// HistoryWindow is the span of the given number of full months before this one.
func (m MonthContext) HistoryWindow(months int) (from, to time.Time) {
	to = m.Start()
	return to.AddDate(0, -months, 0), to
}

// RemainingDays splits the days after today into weekdays and weekend days.
func (m MonthContext) RemainingDays() (weekdays, weekends int) {
	for i := 1; i <= m.DaysRemaining; i++ {
		switch m.Today.AddDate(0, 0, i).Weekday() {
		case time.Saturday, time.Sunday:
			weekends++
		default:
			weekdays++
		}
	}
	return weekdays, weekends
}

// daysPassed is DaysElapsed floored at 1 so per-day rates never divide by zero.
func (m MonthContext) daysPassed() int {
	return max(m.DaysElapsed, 1)
}
