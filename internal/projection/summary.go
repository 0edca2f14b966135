package projection

import (
	"github.com/shopspring/decimal"

	"github.com/ArionMiles/cloudexpense/pkg/api"
)

// Summary is the month-to-date activity of one category.
type Summary struct {
	Category              string
	TotalSpent            decimal.Decimal
	TransactionCount      int
	DistinctDaysActive    int
	AveragePerTransaction decimal.Decimal
}

// Summarize groups records by category, keeping the order in which categories first appear.
func Summarize(records []api.TransactionRecord) []Summary {
	index := make(map[string]int)
	days := make(map[string]map[string]struct{})
	var out []Summary

	for _, r := range records {
		i, ok := index[r.Category]
		if !ok {
			i = len(out)
			index[r.Category] = i
			out = append(out, Summary{Category: r.Category})
			days[r.Category] = make(map[string]struct{})
		}
		out[i].TotalSpent = out[i].TotalSpent.Add(r.Amount)
		out[i].TransactionCount++
		days[r.Category][r.Date.Format(api.DateLayout)] = struct{}{}
	}

	for i := range out {
		s := &out[i]
		s.DistinctDaysActive = len(days[s.Category])
		s.AveragePerTransaction = s.TotalSpent.Div(decimal.NewFromInt(int64(max(s.TransactionCount, 1))))
	}
	return out
}

// DailyAverage is TotalSpent spread over the days elapsed so far.
func (s Summary) DailyAverage(m MonthContext) decimal.Decimal {
	return s.TotalSpent.Div(decimal.NewFromInt(int64(m.daysPassed())))
}

// BasicProjection is currentSpent + dailyAverage * remainingDays.
func (s Summary) BasicProjection(m MonthContext) decimal.Decimal {
	return s.TotalSpent.Add(s.DailyAverage(m).Mul(decimal.NewFromInt(int64(max(m.DaysRemaining, 0)))))
}
