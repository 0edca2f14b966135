package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/cloudexpense/pkg/api"
)

// monthlyTotal is one category's spend in one calendar month.
type monthlyTotal struct {
	Category string
	Year     int
	Month    time.Month
	Total    decimal.Decimal
}

// monthlyTotals groups records by category and calendar month in loc.
func monthlyTotals(records []api.TransactionRecord, loc *time.Location) []monthlyTotal {
	type key struct {
		category string
		year     int
		month    time.Month
	}
	index := make(map[key]int)
	var totals []monthlyTotal

	for _, r := range records {
		y, m, _ := r.Date.In(loc).Date()
		k := key{r.Category, y, m}
		i, ok := index[k]
		if !ok {
			i = len(totals)
			index[k] = i
			totals = append(totals, monthlyTotal{Category: r.Category, Year: y, Month: m})
		}
		totals[i].Total = totals[i].Total.Add(r.Amount)
	}
	return totals
}

// summarizeHistory turns the records of a trailing window into per-category patterns.
func summarizeHistory(records []api.TransactionRecord, loc *time.Location) api.History {
	return summarizeMonthly(monthlyTotals(records, loc))
}

// summarizeMonthly turns per-category monthly totals into patterns.
//
// Averages are taken over the months in which the user recorded anything at all, so a
// user who joined two months ago is not diluted by four empty months. A category that
// only appears in some of those months still counts the quiet ones as zero.
func summarizeMonthly(monthly []monthlyTotal) api.History {
	if len(monthly) == 0 {
		return api.History{}
	}

	type monthKey struct {
		year  int
		month time.Month
	}
	active := make(map[monthKey]struct{})
	totals := make(map[string]decimal.Decimal)

	for _, t := range monthly {
		active[monthKey{t.Year, t.Month}] = struct{}{}
		totals[t.Category] = totals[t.Category].Add(t.Total)
	}

	days := 0
	for k := range active {
		days += time.Date(k.year, k.month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	}
	months := decimal.NewFromInt(int64(len(active)))
	totalDays := decimal.NewFromInt(int64(days))

	history := make(api.History, len(totals))
	for cat, total := range totals {
		history[cat] = api.HistoricalPattern{
			AvgMonthlySpend: total.Div(months).Round(2),
			AvgDailyRate:    total.Div(totalDays),
			HasHistory:      true,
		}
	}
	return history
}
