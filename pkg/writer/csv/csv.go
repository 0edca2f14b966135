// Package csv implements a Writer that writes records to a CSV file.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/ArionMiles/cloudexpense/pkg/api"
	"github.com/ArionMiles/cloudexpense/pkg/writer/buffered"
)

// Header is the first row of every file.
var Header = []string{"date", "category", "amount"}

// Writer writes records to a CSV file with buffered batching.
type Writer struct {
	filePath string
	file     *os.File
	writer   *csv.Writer
	mu       sync.Mutex
	buffered *buffered.Writer
	logger   *slog.Logger
}

// Config holds configuration for the CSV writer.
type Config struct {
	// FilePath is the path to the CSV output file.
	FilePath string
	// BatchSize is the number of records to buffer before writing.
	BatchSize int
}

// New creates a new CSV writer. An existing file is truncated.
func New(cfg Config, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening csv file: %w", err)
	}

	w := &Writer{
		filePath: cfg.FilePath,
		file:     file,
		writer:   csv.NewWriter(file),
		logger:   logger,
	}

	if err := w.writeHeaders(); err != nil {
		if closeErr := file.Close(); closeErr != nil {
			return nil, fmt.Errorf("writing headers: %w (close error: %w)", err, closeErr)
		}
		return nil, fmt.Errorf("writing headers: %w", err)
	}

	w.buffered = buffered.New(w.flushBatch, buffered.Config{BatchSize: cfg.BatchSize}, logger.With("component", "csv_buffer"))

	logger.Debug("csv writer initialized", "file", cfg.FilePath)
	return w, nil
}

func (w *Writer) writeHeaders() error {
	if err := w.writer.Write(Header); err != nil {
		return err
	}
	w.writer.Flush()
	return w.writer.Error()
}

// Write consumes records from the input channel and writes them to CSV.
// The file is closed when Write returns.
func (w *Writer) Write(ctx context.Context, in <-chan api.TransactionRecord) error {
	err := w.buffered.Write(ctx, in)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	return err
}

func (w *Writer) flushBatch(_ context.Context, records []api.TransactionRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, r := range records {
		row := []string{
			r.Date.Format(api.DateLayout),
			r.Category,
			r.Amount.StringFixed(2),
		}
		if err := w.writer.Write(row); err != nil {
			return fmt.Errorf("writing csv record: %w", err)
		}
	}

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	w.logger.Debug("wrote records to csv", "count", len(records))
	return nil
}

// Close closes the CSV file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.writer.Flush()
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing csv file: %w", err)
	}

	w.logger.Debug("csv writer closed", "file", w.filePath)
	return nil
}
