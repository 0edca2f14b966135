package writer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/cloudexpense/pkg/api"
)

type collector struct {
	got     []api.TransactionRecord
	stopAt  int
	stopErr error
}

func (c *collector) Write(ctx context.Context, in <-chan api.TransactionRecord) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r, ok := <-in:
			if !ok {
				return nil
			}
			c.got = append(c.got, r)
			if c.stopAt > 0 && len(c.got) == c.stopAt {
				return c.stopErr
			}
		}
	}
}

func sample(n int) []api.TransactionRecord {
	out := make([]api.TransactionRecord, n)
	for i := range out {
		out[i] = api.TransactionRecord{Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Category: "Food", Amount: decimal.NewFromInt(int64(i))}
	}
	return out
}

func TestDrain(t *testing.T) {
	c := &collector{}
	if err := Drain(context.Background(), c, sample(5)); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if len(c.got) != 5 {
		t.Errorf("got %d records, want 5", len(c.got))
	}
}

func TestDrain_WriterStopsEarly(t *testing.T) {
	boom := errors.New("boom")
	c := &collector{stopAt: 2, stopErr: boom}

	if err := Drain(context.Background(), c, sample(5)); !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
}

func TestDrain_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Drain(ctx, &collector{}, sample(3))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
