package buffered

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/cloudexpense/pkg/api"
	"github.com/ArionMiles/cloudexpense/pkg/logging"
)

func records(n int) []api.TransactionRecord {
	out := make([]api.TransactionRecord, n)
	for i := range out {
		out[i] = api.TransactionRecord{
			Date:     time.Date(2025, 6, 1+i%28, 0, 0, 0, 0, time.UTC),
			Category: "Food",
			Amount:   decimal.NewFromInt(int64(i + 1)),
		}
	}
	return out
}

func feed(ctx context.Context, w *Writer, recs []api.TransactionRecord) error {
	in := make(chan api.TransactionRecord, len(recs))
	for _, r := range recs {
		in <- r
	}
	close(in)
	return w.Write(ctx, in)
}

func TestWrite_FlushesInBatches(t *testing.T) {
	var batches []int
	flusher := func(_ context.Context, recs []api.TransactionRecord) error {
		batches = append(batches, len(recs))
		return nil
	}
	w := New(flusher, Config{BatchSize: 3, FlushInterval: time.Hour}, logging.Discard())

	if err := feed(context.Background(), w, records(7)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	want := []int{3, 3, 1}
	if len(batches) != len(want) {
		t.Fatalf("got batches %v, want %v", batches, want)
	}
	for i := range want {
		if batches[i] != want[i] {
			t.Errorf("batch %d got %d, want %d", i, batches[i], want[i])
		}
	}
	if w.Flushed() != 7 || w.BufferLen() != 0 {
		t.Errorf("flushed %d buffered %d, want 7 and 0", w.Flushed(), w.BufferLen())
	}
}

func TestWrite_StopsOnFlushError(t *testing.T) {
	boom := errors.New("disk full")
	calls := 0
	flusher := func(context.Context, []api.TransactionRecord) error {
		calls++
		return boom
	}
	w := New(flusher, Config{BatchSize: 2, FlushInterval: time.Hour}, logging.Discard())

	err := feed(context.Background(), w, records(6))
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("flusher called %d times, want 1", calls)
	}
}

func TestWrite_FlushesOnCancel(t *testing.T) {
	flushed := make(chan int, 1)
	flusher := func(ctx context.Context, recs []api.TransactionRecord) error {
		if ctx.Err() != nil {
			t.Error("flusher received a cancelled context")
		}
		flushed <- len(recs)
		return nil
	}
	w := New(flusher, Config{BatchSize: 10, FlushInterval: time.Hour}, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan api.TransactionRecord, 2)
	in <- records(1)[0]
	in <- records(1)[0]

	errCh := make(chan error, 1)
	go func() { errCh <- w.Write(ctx, in) }()

	// Wait until both records are buffered.
	deadline := time.After(2 * time.Second)
	for w.BufferLen() < 2 {
		select {
		case <-deadline:
			t.Fatal("records were never buffered")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if got := <-flushed; got != 2 {
		t.Errorf("flushed %d on cancel, want 2", got)
	}
}

func TestWrite_FlushesOnInterval(t *testing.T) {
	flushed := make(chan int, 1)
	flusher := func(_ context.Context, recs []api.TransactionRecord) error {
		flushed <- len(recs)
		return nil
	}
	w := New(flusher, Config{BatchSize: 10, FlushInterval: 10 * time.Millisecond}, logging.Discard())

	in := make(chan api.TransactionRecord, 1)
	in <- records(1)[0]
	go func() { _ = w.Write(context.Background(), in) }()

	select {
	case got := <-flushed:
		if got != 1 {
			t.Errorf("flushed %d, want 1", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("interval flush never happened")
	}
	close(in)
}

func TestNew_Defaults(t *testing.T) {
	w := New(func(context.Context, []api.TransactionRecord) error { return nil }, Config{}, nil)
	if w.config.BatchSize != DefaultBatchSize {
		t.Errorf("BatchSize got %d, want %d", w.config.BatchSize, DefaultBatchSize)
	}
	if w.config.FlushInterval != DefaultFlushInterval {
		t.Errorf("FlushInterval got %v, want %v", w.config.FlushInterval, DefaultFlushInterval)
	}
}
