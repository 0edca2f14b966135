package predict

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/cloudexpense/internal/forecaster"
	"github.com/ArionMiles/cloudexpense/internal/validator"
	"github.com/ArionMiles/cloudexpense/pkg/api"
	"github.com/ArionMiles/cloudexpense/pkg/clock"
	"github.com/ArionMiles/cloudexpense/pkg/logging"
)

type fakeLedger struct {
	records    []api.TransactionRecord
	err        error
	history    api.History
	historyErr error

	from, to               time.Time
	historyFrom, historyTo time.Time
	historyCalls           int
}

func (f *fakeLedger) Transactions(_ context.Context, _ int64, from, to time.Time) ([]api.TransactionRecord, error) {
	f.from, f.to = from, to
	return f.records, f.err
}

func (f *fakeLedger) HistoricalPatterns(_ context.Context, _ int64, from, to time.Time) (api.History, error) {
	f.historyCalls++
	f.historyFrom, f.historyTo = from, to
	return f.history, f.historyErr
}

type fakeForecaster struct {
	out   map[string]decimal.Decimal
	err   error
	calls int
}

func (f *fakeForecaster) Forecast(context.Context, []api.TransactionRecord) (map[string]decimal.Decimal, error) {
	f.calls++
	return f.out, f.err
}

func day(d int) time.Time { return time.Date(2025, time.June, d, 0, 0, 0, 0, time.UTC) }

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newService(l *fakeLedger, f *fakeForecaster, now time.Time) *Service {
	return New(Options{
		Ledger:        l,
		Forecaster:    f,
		Clock:         clock.Fixed(now),
		HistoryMonths: 6,
		Logger:        logging.Discard(),
	})
}

func TestPredict_NoData(t *testing.T) {
	l := &fakeLedger{}
	f := &fakeForecaster{}

	_, err := newService(l, f, day(5)).Predict(context.Background(), 1)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("got %v, want ErrNoData", err)
	}
	if f.calls != 0 {
		t.Errorf("forecaster called %d times, want 0", f.calls)
	}
}

func TestPredict_QueriesCurrentMonth(t *testing.T) {
	l := &fakeLedger{records: []api.TransactionRecord{{Date: day(2), Category: "Food", Amount: amount("10")}}}
	f := &fakeForecaster{err: &forecaster.Error{Kind: forecaster.KindEmpty}}

	if _, err := newService(l, f, time.Date(2025, 6, 5, 15, 4, 0, 0, time.UTC)).Predict(context.Background(), 1); err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if !l.from.Equal(day(1)) || !l.to.Equal(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("window got [%v, %v), want June", l.from, l.to)
	}
	if !l.historyFrom.Equal(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)) || !l.historyTo.Equal(day(1)) {
		t.Errorf("history window got [%v, %v), want [2024-12-01, 2025-06-01)", l.historyFrom, l.historyTo)
	}
}

func TestPredict_LedgerError(t *testing.T) {
	l := &fakeLedger{err: errors.New("connection refused")}

	_, err := newService(l, &fakeForecaster{}, day(5)).Predict(context.Background(), 1)
	if err == nil || errors.Is(err, ErrNoData) {
		t.Fatalf("got %v, want a ledger error", err)
	}
}

func TestPredict_FallsBackToHeuristic(t *testing.T) {
	records := []api.TransactionRecord{
		{Date: day(1), Category: "Food", Amount: amount("20")},
		{Date: day(3), Category: "Food", Amount: amount("25")},
		{Date: day(4), Category: "Mystery", Amount: amount("40")},
	}

	failures := []struct {
		name   string
		err    error
		status string
	}{
		{"timeout", &forecaster.Error{Kind: forecaster.KindTimeout}, "Timed out"},
		{"non-zero exit", &forecaster.Error{Kind: forecaster.KindExit, ExitCode: 2}, "Failed with code 2"},
		{"empty result", &forecaster.Error{Kind: forecaster.KindEmpty}, "No predictions returned"},
		{"unparsable", &forecaster.Error{Kind: forecaster.KindUnparsable}, "Failed to parse output"},
		{"disabled", &forecaster.Error{Kind: forecaster.KindDisabled}, "Forecaster disabled"},
		{"unexpected", errors.New("boom"), "Forecaster unavailable"},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			l := &fakeLedger{records: records}
			f := &fakeForecaster{err: tt.err}

			got, err := newService(l, f, day(5)).Predict(context.Background(), 1)
			if err != nil {
				t.Fatalf("Predict() error = %v", err)
			}
			if got.Source != api.SourceHeuristic {
				t.Errorf("Source got %s, want %s", got.Source, api.SourceHeuristic)
			}
			if got.Confidence != api.ConfidenceMedium {
				t.Errorf("Confidence got %s, want medium", got.Confidence)
			}
			if got.ForecasterStatus != tt.status {
				t.Errorf("ForecasterStatus got %q, want %q", got.ForecasterStatus, tt.status)
			}
			if got.DataPointsUsed != 3 {
				t.Errorf("DataPointsUsed got %d, want 3", got.DataPointsUsed)
			}
			if len(got.Predictions) != 2 {
				t.Fatalf("got %d predictions, want 2", len(got.Predictions))
			}
			if got.Predictions["Food"].LessThan(amount("112.5")) {
				t.Errorf("Food got %v, want >= 112.5", got.Predictions["Food"])
			}
			if got.Predictions["Mystery"].LessThan(amount("40")) {
				t.Errorf("Mystery got %v, want >= 40", got.Predictions["Mystery"])
			}
		})
	}
}

func TestPredict_ValidatesExternalForecast(t *testing.T) {
	tests := []struct {
		name       string
		now        time.Time
		records    []api.TransactionRecord
		forecast   map[string]decimal.Decimal
		want       map[string]string
		source     api.Source
		confidence api.Confidence
		reason     string
	}{
		{
			name:       "plausible forecast kept",
			now:        day(5),
			records:    []api.TransactionRecord{{Date: day(1), Category: "Food", Amount: amount("45")}},
			forecast:   map[string]decimal.Decimal{"Food": amount("160.456")},
			want:       map[string]string{"Food": "160.46"},
			source:     api.SourceExternal,
			confidence: api.ConfidenceHigh,
		},
		{
			name:       "bills capped late in month",
			now:        day(28),
			records:    []api.TransactionRecord{{Date: day(2), Category: "Bills", Amount: amount("600")}},
			forecast:   map[string]decimal.Decimal{"Bills": amount("5000")},
			want:       map[string]string{"Bills": "900"},
			source:     api.SourceExternalAdjusted,
			confidence: api.ConfidenceMedium,
			reason:     validator.ReasonTooHigh,
		},
		{
			name:       "below current floored",
			now:        day(10),
			records:    []api.TransactionRecord{{Date: day(2), Category: "Shopping", Amount: amount("80")}},
			forecast:   map[string]decimal.Decimal{"Shopping": amount("50")},
			want:       map[string]string{"Shopping": "80"},
			source:     api.SourceExternalAdjusted,
			confidence: api.ConfidenceMedium,
			reason:     validator.ReasonTooLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &fakeLedger{records: tt.records}
			f := &fakeForecaster{out: tt.forecast}

			got, err := newService(l, f, tt.now).Predict(context.Background(), 1)
			if err != nil {
				t.Fatalf("Predict() error = %v", err)
			}
			if got.Source != tt.source {
				t.Errorf("Source got %s, want %s", got.Source, tt.source)
			}
			if got.Confidence != tt.confidence {
				t.Errorf("Confidence got %s, want %s", got.Confidence, tt.confidence)
			}
			if got.AdjustmentReason != tt.reason {
				t.Errorf("AdjustmentReason got %q, want %q", got.AdjustmentReason, tt.reason)
			}
			if got.ForecasterStatus != "" {
				t.Errorf("ForecasterStatus got %q, want empty", got.ForecasterStatus)
			}
			for cat, want := range tt.want {
				if !got.Predictions[cat].Equal(amount(want)) {
					t.Errorf("%s got %v, want %s", cat, got.Predictions[cat], want)
				}
			}
			if l.historyCalls != 0 {
				t.Errorf("history fetched %d times, want 0 for a complete forecast", l.historyCalls)
			}
		})
	}
}

func TestPredict_FillsMissingCategories(t *testing.T) {
	l := &fakeLedger{records: []api.TransactionRecord{
		{Date: day(1), Category: "Food", Amount: amount("45")},
		{Date: day(2), Category: "Transport", Amount: amount("30")},
	}}
	f := &fakeForecaster{out: map[string]decimal.Decimal{
		"Food":   amount("150"),
		"Travel": amount("999"),
	}}

	got, err := newService(l, f, day(5)).Predict(context.Background(), 1)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	if _, ok := got.Predictions["Travel"]; ok {
		t.Error("category absent from the ledger was returned")
	}
	if !got.Predictions["Food"].Equal(amount("150")) {
		t.Errorf("Food got %v, want 150", got.Predictions["Food"])
	}
	if got.Predictions["Transport"].LessThan(amount("30")) {
		t.Errorf("Transport got %v, want >= 30", got.Predictions["Transport"])
	}
	if got.Source != api.SourceExternalAdjusted || got.Confidence != api.ConfidenceMedium {
		t.Errorf("got %s/%s, want external-adjusted/medium", got.Source, got.Confidence)
	}
	if got.AdjustmentReason != ReasonEstimated {
		t.Errorf("AdjustmentReason got %q, want %q", got.AdjustmentReason, ReasonEstimated)
	}
}

func TestPredict_HistoryErrorIsNotFatal(t *testing.T) {
	l := &fakeLedger{
		records:    []api.TransactionRecord{{Date: day(1), Category: "Food", Amount: amount("45")}},
		historyErr: errors.New("relation does not exist"),
	}
	f := &fakeForecaster{err: &forecaster.Error{Kind: forecaster.KindTimeout}}

	got, err := newService(l, f, day(5)).Predict(context.Background(), 1)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if len(got.Predictions) != 1 {
		t.Errorf("got %d predictions, want 1", len(got.Predictions))
	}
}

func TestPredict_TerminalDay(t *testing.T) {
	l := &fakeLedger{records: []api.TransactionRecord{
		{Date: day(3), Category: "Food", Amount: amount("100.004")},
		{Date: day(30), Category: "Food", Amount: amount("20")},
	}}

	got, err := newService(l, &fakeForecaster{err: &forecaster.Error{Kind: forecaster.KindTimeout}}, day(30)).Predict(context.Background(), 1)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if !got.Predictions["Food"].Equal(amount("120.01")) {
		t.Errorf("Food got %v, want 120.01", got.Predictions["Food"])
	}
}

func TestNew_DefaultsToDisabledForecaster(t *testing.T) {
	l := &fakeLedger{records: []api.TransactionRecord{{Date: day(1), Category: "Food", Amount: amount("45")}}}
	s := New(Options{Ledger: l, Clock: clock.Fixed(day(5)), Logger: logging.Discard()})

	got, err := s.Predict(context.Background(), 1)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if got.ForecasterStatus != "Forecaster disabled" {
		t.Errorf("ForecasterStatus got %q, want %q", got.ForecasterStatus, "Forecaster disabled")
	}
	if l.historyCalls != 0 {
		t.Errorf("history fetched %d times with HistoryMonths=0", l.historyCalls)
	}
}

func TestPredict_ForecastWithoutInputCategoriesIsHeuristic(t *testing.T) {
	l := &fakeLedger{records: []api.TransactionRecord{
		{Date: day(1), Category: "Food", Amount: amount("45")},
		{Date: day(2), Category: "Transport", Amount: amount("30")},
	}}
	f := &fakeForecaster{out: map[string]decimal.Decimal{
		"Travel":  amount("999"),
		"Hobbies": amount("20"),
	}}

	got, err := newService(l, f, day(5)).Predict(context.Background(), 1)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	if got.Source != api.SourceHeuristic {
		t.Errorf("Source got %s, want %s", got.Source, api.SourceHeuristic)
	}
	if got.Confidence != api.ConfidenceMedium {
		t.Errorf("Confidence got %s, want medium", got.Confidence)
	}
	if got.ForecasterStatus != StatusNoMatchingCategories {
		t.Errorf("ForecasterStatus got %q, want %q", got.ForecasterStatus, StatusNoMatchingCategories)
	}
	if got.AdjustmentReason != "" {
		t.Errorf("AdjustmentReason got %q, want empty", got.AdjustmentReason)
	}
	if len(got.Predictions) != 2 {
		t.Fatalf("got %d predictions, want 2", len(got.Predictions))
	}
	if _, ok := got.Predictions["Travel"]; ok {
		t.Error("category absent from the ledger was returned")
	}
}
