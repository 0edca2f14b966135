package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/cloudexpense/pkg/api"

	_ "modernc.org/sqlite" // register sqlite driver
)

const sqliteTimeLayout = "2006-01-02T15:04:05Z"

// SQLite is a ledger stored in a single SQLite file.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens or creates the ledger database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating ledger dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening ledger db: %w", err)
	}

	if _, err := db.Exec(sqliteSchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("opened SQLite ledger", "path", path)
	return &SQLite{db: db, logger: logger}, nil
}

// Ping checks the database is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Transactions returns the user's transactions in [from, to), oldest first.
func (s *SQLite) Transactions(ctx context.Context, userID int64, from, to time.Time) ([]api.TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, amount, occurred_at FROM transactions
		 WHERE user_id = ? AND occurred_at >= ? AND occurred_at < ?
		 ORDER BY occurred_at ASC, id ASC`,
		userID, formatSQLiteTime(from), formatSQLiteTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []api.TransactionRecord
	for rows.Next() {
		var category, amount, occurred string
		if err := rows.Scan(&category, &amount, &occurred); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
		}
		at, err := time.Parse(sqliteTimeLayout, occurred)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp %q: %w", occurred, err)
		}

		records = append(records, api.TransactionRecord{
			Date:     at.In(from.Location()),
			Category: category,
			Amount:   value,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading transactions: %w", err)
	}
	return records, nil
}

// HistoricalPatterns summarizes the user's spending in [from, to).
func (s *SQLite) HistoricalPatterns(ctx context.Context, userID int64, from, to time.Time) (api.History, error) {
	records, err := s.Transactions(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	return summarizeHistory(records, from.Location()), nil
}

// Insert stores records for the user in one transaction.
func (s *SQLite) Insert(ctx context.Context, userID int64, records []api.TransactionRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (user_id, category, amount, occurred_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, userID, r.Category, r.Amount.String(), formatSQLiteTime(r.Date)); err != nil {
			return fmt.Errorf("inserting transaction %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Info("inserted transactions", "user_id", userID, "count", len(records))
	return nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}
