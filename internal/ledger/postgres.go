package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ArionMiles/cloudexpense/pkg/api"
)

// PostgresConfig holds the PostgreSQL ledger configuration.
type PostgresConfig struct {
	// URL is a full connection string; when set the individual fields are ignored.
	URL      string
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// BatchSize is the number of rows sent per batch on Insert.
	BatchSize int

	// MaxPoolSize is the maximum number of connections in the pool.
	MaxPoolSize int
}

// Postgres is a ledger backed by a PostgreSQL transactions table.
type Postgres struct {
	pool      *pgxpool.Pool
	logger    *slog.Logger
	batchSize int
}

// NewPostgres connects to PostgreSQL and applies the schema.
func NewPostgres(ctx context.Context, cfg PostgresConfig, logger *slog.Logger) (*Postgres, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 500
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 10
	}

	connStr := cfg.URL
	if connStr == "" {
		connStr = fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
		)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxPoolSize)
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("connected to PostgreSQL",
		"host", poolConfig.ConnConfig.Host,
		"port", poolConfig.ConnConfig.Port,
		"database", poolConfig.ConnConfig.Database,
	)

	p := &Postgres{pool: pool, logger: logger, batchSize: cfg.BatchSize}

	if err := p.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return p, nil
}

func (p *Postgres) runMigrations(ctx context.Context) error {
	p.logger.Debug("running database migrations")

	if _, err := p.pool.Exec(ctx, postgresMigrationSQL); err != nil {
		return fmt.Errorf("executing migration: %w", err)
	}
	return nil
}

// Ping checks the database is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
		p.logger.Info("closed PostgreSQL connection pool")
	}
	return nil
}

// Transactions returns the user's transactions in [from, to), oldest first.
func (p *Postgres) Transactions(ctx context.Context, userID int64, from, to time.Time) ([]api.TransactionRecord, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT category, amount::text, occurred_at
		FROM transactions
		WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at < $3
		ORDER BY occurred_at ASC, id ASC
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var records []api.TransactionRecord
	for rows.Next() {
		var (
			category string
			amount   string
			occurred time.Time
		)
		if err := rows.Scan(&category, &amount, &occurred); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
		}

		records = append(records, api.TransactionRecord{
			Date:     occurred.In(from.Location()),
			Category: category,
			Amount:   value,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading transactions: %w", err)
	}
	return records, nil
}

// HistoricalPatterns summarizes the user's spending in [from, to). Months are
// calendar months in from's location, which must be UTC or an IANA zone name.
func (p *Postgres) HistoricalPatterns(ctx context.Context, userID int64, from, to time.Time) (api.History, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT category,
		       date_trunc('month', occurred_at AT TIME ZONE $4::text) AS month,
		       SUM(amount)::text
		FROM transactions
		WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at < $3
		GROUP BY 1, 2
	`, userID, from, to, from.Location().String())
	if err != nil {
		return nil, fmt.Errorf("querying monthly totals: %w", err)
	}
	defer rows.Close()

	var totals []monthlyTotal
	for rows.Next() {
		var (
			category string
			month    time.Time
			sum      string
		)
		if err := rows.Scan(&category, &month, &sum); err != nil {
			return nil, fmt.Errorf("scanning monthly total: %w", err)
		}

		total, err := decimal.NewFromString(sum)
		if err != nil {
			return nil, fmt.Errorf("parsing total %q: %w", sum, err)
		}
		totals = append(totals, monthlyTotal{Category: category, Year: month.Year(), Month: month.Month(), Total: total})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading monthly totals: %w", err)
	}
	return summarizeMonthly(totals), nil
}

// Insert stores records for the user, batchSize rows per round trip, in one transaction.
func (p *Postgres) Insert(ctx context.Context, userID int64, records []api.TransactionRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for start := 0; start < len(records); start += p.batchSize {
		end := min(start+p.batchSize, len(records))
		if err := p.insertBatch(ctx, tx, userID, records[start:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	p.logger.Info("inserted transactions", "user_id", userID, "count", len(records))
	return nil
}

func (p *Postgres) insertBatch(ctx context.Context, tx pgx.Tx, userID int64, records []api.TransactionRecord) error {
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO transactions (user_id, category, amount, occurred_at)
			VALUES ($1, $2, $3::text::numeric, $4)
		`, userID, r.Category, r.Amount.String(), r.Date)
	}

	results := tx.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for i := range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("inserting transaction %d: %w", i, err)
		}
	}
	return nil
}
