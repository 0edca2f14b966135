// Package config loads cloudexpense configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Ledger drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// Addr is the HTTP listen address.
	// Environment variable: CLOUDEXPENSE_ADDR
	Addr string `koanf:"CLOUDEXPENSE_ADDR"`

	// Timezone decides which calendar month "now" falls in.
	// Environment variable: CLOUDEXPENSE_TIMEZONE
	Timezone string `koanf:"CLOUDEXPENSE_TIMEZONE"`

	// JWTSecret verifies bearer tokens.
	// Environment variable: JWT_SECRET
	JWTSecret string `koanf:"JWT_SECRET"`

	// LedgerDriver selects the transaction store: postgres or sqlite.
	// Environment variable: LEDGER_DRIVER
	LedgerDriver string `koanf:"LEDGER_DRIVER"`

	// HistoryMonths is how many full months feed the historical patterns.
	// Environment variable: HISTORY_MONTHS
	HistoryMonths int `koanf:"HISTORY_MONTHS"`

	Postgres   PostgresConfig   `koanf:",squash"`
	SQLite     SQLiteConfig     `koanf:",squash"`
	Forecaster ForecasterConfig `koanf:",squash"`
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	// URL is a full DSN; when set it wins over the individual fields.
	URL      string `koanf:"DB_URL"`
	Host     string `koanf:"POSTGRES_HOST"`
	Port     int    `koanf:"POSTGRES_PORT"`
	Database string `koanf:"POSTGRES_DB"`
	User     string `koanf:"POSTGRES_USER"`
	Password string `koanf:"POSTGRES_PASSWORD"`
	SSLMode  string `koanf:"POSTGRES_SSLMODE"`
}

// SQLiteConfig holds the SQLite ledger location.
type SQLiteConfig struct {
	Path string `koanf:"SQLITE_PATH"`
}

// ForecasterConfig controls the external forecasting process.
type ForecasterConfig struct {
	Enabled bool   `koanf:"FORECASTER_ENABLED"`
	Command string `koanf:"FORECASTER_COMMAND"`
	Script  string `koanf:"FORECASTER_SCRIPT"`
	// RetryCommand is the interpreter used for the single retry after a known
	// environment failure. PYTHON_PATH is honoured when this is empty.
	RetryCommand string        `koanf:"FORECASTER_RETRY_COMMAND"`
	Timeout      time.Duration `koanf:"FORECASTER_TIMEOUT"`
	WorkDir      string        `koanf:"FORECASTER_WORKDIR"`
}

// Default returns the configuration used when no environment overrides are present.
func Default() Config {
	return Config{
		Addr:          ":5000",
		Timezone:      "Asia/Kuala_Lumpur",
		LedgerDriver:  DriverPostgres,
		HistoryMonths: 6,
		Postgres: PostgresConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		SQLite: SQLiteConfig{
			Path: "data/cloudexpense.db",
		},
		Forecaster: ForecasterConfig{
			Enabled: true,
			Command: "python3",
			Script:  "cloud_predictor.py",
			Timeout: 30 * time.Second,
		},
	}
}

// Load reads the configuration from the environment on top of Default.
func Load() (Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return Config{}, fmt.Errorf("loading config from environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Forecaster.RetryCommand == "" {
		cfg.Forecaster.RetryCommand = k.String("PYTHON_PATH")
	}

	return cfg, nil
}

// Location resolves Timezone, falling back to UTC for an empty value.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks fields every command depends on.
func (c Config) Validate() error {
	switch c.LedgerDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("LEDGER_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.LedgerDriver)
	}
	if c.HistoryMonths < 0 {
		return errors.New("HISTORY_MONTHS must not be negative")
	}
	if c.Forecaster.Enabled && c.Forecaster.Timeout <= 0 {
		return errors.New("FORECASTER_TIMEOUT must be positive")
	}
	if c.Timezone == "Local" {
		return errors.New("CLOUDEXPENSE_TIMEZONE must name a zone, not Local")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// ValidateServer additionally checks what the HTTP server needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	return nil
}
