package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Forecaster.Timeout != 30*time.Second {
		t.Errorf("timeout: got %v, want 30s", cfg.Forecaster.Timeout)
	}
	if cfg.HistoryMonths != 6 {
		t.Errorf("history months: got %d, want 6", cfg.HistoryMonths)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CLOUDEXPENSE_ADDR", ":9000")
	t.Setenv("LEDGER_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/ledger.db")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("FORECASTER_TIMEOUT", "5s")
	t.Setenv("FORECASTER_ENABLED", "false")
	t.Setenv("FORECASTER_RETRY_COMMAND", "")
	t.Setenv("PYTHON_PATH", "/usr/local/bin/python3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Addr != ":9000" {
		t.Errorf("addr: got %q, want :9000", cfg.Addr)
	}
	if cfg.LedgerDriver != DriverSQLite {
		t.Errorf("driver: got %q, want sqlite", cfg.LedgerDriver)
	}
	if cfg.SQLite.Path != "/tmp/ledger.db" {
		t.Errorf("sqlite path: got %q", cfg.SQLite.Path)
	}
	if cfg.Postgres.Port != 6543 {
		t.Errorf("postgres port: got %d, want 6543", cfg.Postgres.Port)
	}
	if cfg.Forecaster.Timeout != 5*time.Second {
		t.Errorf("timeout: got %v, want 5s", cfg.Forecaster.Timeout)
	}
	if cfg.Forecaster.Enabled {
		t.Error("forecaster should be disabled")
	}
	if cfg.Forecaster.RetryCommand != "/usr/local/bin/python3" {
		t.Errorf("retry command: got %q, want PYTHON_PATH value", cfg.Forecaster.RetryCommand)
	}
	if cfg.Forecaster.Command != "python3" {
		t.Errorf("command default lost: got %q", cfg.Forecaster.Command)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		server  bool
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad driver", mutate: func(c *Config) { c.LedgerDriver = "mysql" }, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "local timezone", mutate: func(c *Config) { c.Timezone = "Local" }, wantErr: true},
		{name: "utc timezone", mutate: func(c *Config) { c.Timezone = "UTC" }},
		{name: "zero timeout", mutate: func(c *Config) { c.Forecaster.Timeout = 0 }, wantErr: true},
		{name: "zero timeout disabled", mutate: func(c *Config) { c.Forecaster.Timeout = 0; c.Forecaster.Enabled = false }},
		{name: "server without secret", mutate: func(*Config) {}, server: true, wantErr: true},
		{name: "server with secret", mutate: func(c *Config) { c.JWTSecret = "s3cret" }, server: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			var err error
			if tc.server {
				err = cfg.ValidateServer()
			} else {
				err = cfg.Validate()
			}
			if (err != nil) != tc.wantErr {
				t.Errorf("got err=%v, wantErr=%v", err, tc.wantErr)
			}
		})
	}
}
