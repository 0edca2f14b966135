// Package json implements a Writer that writes records to a JSON file in the
// forecaster's input format.
package json

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ArionMiles/cloudexpense/pkg/api"
	"github.com/ArionMiles/cloudexpense/pkg/writer/buffered"
)

// Writer writes records to a JSON file with buffered batching. The file always
// holds a complete JSON array.
type Writer struct {
	filePath string
	records  []api.TransactionRecord
	mu       sync.Mutex
	buffered *buffered.Writer
	logger   *slog.Logger
}

// Config holds configuration for the JSON writer.
type Config struct {
	// FilePath is the path to the JSON output file. It is replaced, not appended to.
	FilePath string
	// BatchSize is the number of records to buffer before writing.
	BatchSize int
}

// New creates a new JSON writer.
func New(cfg Config, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("json writer: file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o750); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	w := &Writer{
		filePath: cfg.FilePath,
		logger:   logger,
	}
	w.buffered = buffered.New(w.flushBatch, buffered.Config{BatchSize: cfg.BatchSize}, logger.With("component", "json_buffer"))

	// An empty export is still a valid array.
	if err := w.writeFile(); err != nil {
		return nil, err
	}

	logger.Debug("json writer initialized", "file", cfg.FilePath)
	return w, nil
}

// Write consumes records from the input channel and writes them to JSON.
func (w *Writer) Write(ctx context.Context, in <-chan api.TransactionRecord) error {
	return w.buffered.Write(ctx, in)
}

func (w *Writer) flushBatch(_ context.Context, records []api.TransactionRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.records = append(w.records, records...)
	if err := w.writeFile(); err != nil {
		return err
	}

	w.logger.Debug("wrote records to json",
		"batch_count", len(records),
		"total_count", len(w.records),
	)
	return nil
}

// writeFile replaces the output through a temp file so readers never see a partial array.
func (w *Writer) writeFile() error {
	tmp, err := os.CreateTemp(filepath.Dir(w.filePath), ".export-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := api.WriteRecords(tmp, w.records); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.filePath); err != nil {
		return fmt.Errorf("writing json file: %w", err)
	}
	return nil
}

// RecordCount returns the total number of records written.
func (w *Writer) RecordCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.records)
}
