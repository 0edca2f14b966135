package projection

import (
	"testing"
	"time"
)

func TestNewMonthContext(t *testing.T) {
	tests := []struct {
		name          string
		now           time.Time
		wantDays      int
		wantElapsed   int
		wantRemaining int
	}{
		{"early june", time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC), 30, 5, 25},
		{"last day of july", time.Date(2025, 7, 31, 23, 59, 0, 0, time.UTC), 31, 31, 0},
		{"leap february", time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC), 29, 10, 19},
		{"february", time.Date(2025, 2, 28, 8, 0, 0, 0, time.UTC), 28, 28, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMonthContext(tc.now)
			if m.DaysInMonth != tc.wantDays {
				t.Errorf("days in month: got %d, want %d", m.DaysInMonth, tc.wantDays)
			}
			if m.DaysElapsed != tc.wantElapsed {
				t.Errorf("days elapsed: got %d, want %d", m.DaysElapsed, tc.wantElapsed)
			}
			if m.DaysRemaining != tc.wantRemaining {
				t.Errorf("days remaining: got %d, want %d", m.DaysRemaining, tc.wantRemaining)
			}
			if m.Progress < 0 || m.Progress > 1 {
				t.Errorf("progress out of range: %v", m.Progress)
			}
		})
	}
}

func TestRemainingDays(t *testing.T) {
	// 1 June 2025 is a Sunday; 6..30 June has 8 weekend days.
	m := NewMonthContext(time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC))
	weekdays, weekends := m.RemainingDays()
	if weekdays != 17 || weekends != 8 {
		t.Errorf("got %d weekdays, %d weekends; want 17, 8", weekdays, weekends)
	}
}

func TestHistoryWindow(t *testing.T) {
	m := NewMonthContext(time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC))
	from, to := m.HistoryWindow(6)

	wantFrom := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if !from.Equal(wantFrom) {
		t.Errorf("from: got %v, want %v", from, wantFrom)
	}
	if !to.Equal(wantTo) {
		t.Errorf("to: got %v, want %v", to, wantTo)
	}
	if !m.End().Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end: got %v", m.End())
	}
}
