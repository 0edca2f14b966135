// Package ledger implements a Writer that stores records in a ledger for one user.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ArionMiles/cloudexpense/pkg/api"
	"github.com/ArionMiles/cloudexpense/pkg/writer/buffered"
)

// Writer inserts records into a ledger in batches.
type Writer struct {
	store    api.LedgerWriter
	userID   int64
	buffered *buffered.Writer
	logger   *slog.Logger
}

// Config holds configuration for the ledger writer.
type Config struct {
	UserID int64
	// BatchSize is the number of records per Insert call.
	BatchSize int
}

// New creates a ledger writer.
func New(store api.LedgerWriter, cfg Config, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.UserID <= 0 {
		return nil, fmt.Errorf("ledger writer: user id must be positive, got %d", cfg.UserID)
	}

	w := &Writer{store: store, userID: cfg.UserID, logger: logger}
	w.buffered = buffered.New(w.flushBatch, buffered.Config{BatchSize: cfg.BatchSize}, logger.With("component", "ledger_buffer"))
	return w, nil
}

// Write consumes records from the input channel and inserts them.
func (w *Writer) Write(ctx context.Context, in <-chan api.TransactionRecord) error {
	return w.buffered.Write(ctx, in)
}

func (w *Writer) flushBatch(ctx context.Context, records []api.TransactionRecord) error {
	if err := w.store.Insert(ctx, w.userID, records); err != nil {
		return fmt.Errorf("inserting %d records: %w", len(records), err)
	}
	return nil
}

// Inserted returns how many records have been stored.
func (w *Writer) Inserted() int {
	return w.buffered.Flushed()
}
