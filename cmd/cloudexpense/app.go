package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ArionMiles/cloudexpense/internal/forecaster"
	"github.com/ArionMiles/cloudexpense/internal/ledger"
	"github.com/ArionMiles/cloudexpense/internal/predict"
	"github.com/ArionMiles/cloudexpense/internal/projection"
	"github.com/ArionMiles/cloudexpense/internal/validator"
	"github.com/ArionMiles/cloudexpense/pkg/api"
	"github.com/ArionMiles/cloudexpense/pkg/clock"
	"github.com/ArionMiles/cloudexpense/pkg/config"
)

// app holds what every command that touches the ledger needs.
type app struct {
	cfg     config.Config
	clock   clock.Clock
	store   ledger.Store
	service *predict.Service
}

func loadConfig(validate func(config.Config) error) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if err := validate(cfg); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	clk := clock.System{Location: loc}

	store, err := ledger.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	service := predict.New(predict.Options{
		Ledger:        store,
		Forecaster:    newForecaster(cfg.Forecaster, logger),
		Engine:        projection.New(projection.DefaultOptions(), nil, logger.With("component", "projection")),
		Validator:     validator.New(validator.DefaultConfig()),
		Clock:         clk,
		HistoryMonths: cfg.HistoryMonths,
		Logger:        logger,
	})

	logger.Info("configuration loaded",
		"ledger", cfg.LedgerDriver,
		"timezone", loc.String(),
		"forecaster_enabled", cfg.Forecaster.Enabled,
		"history_months", cfg.HistoryMonths,
	)

	return &app{cfg: cfg, clock: clk, store: store, service: service}, nil
}

func (a *app) Close() {
	_ = a.store.Close()
}

func newForecaster(cfg config.ForecasterConfig, logger *slog.Logger) api.Forecaster {
	if !cfg.Enabled {
		return forecaster.Disabled{}
	}

	var args []string
	if cfg.Script != "" {
		args = append(args, cfg.Script)
	}
	return forecaster.New(forecaster.Config{
		Command:      cfg.Command,
		Args:         args,
		RetryCommand: cfg.RetryCommand,
		Timeout:      cfg.Timeout,
		RetryDelay:   500 * time.Millisecond,
		WorkDir:      cfg.WorkDir,
	}, nil, logger.With("component", "forecaster"))
}

// scriptPath is where the forecaster script is expected to be, relative to its workdir.
func scriptPath(cfg config.ForecasterConfig) string {
	if filepath.IsAbs(cfg.Script) || cfg.WorkDir == "" {
		return cfg.Script
	}
	return filepath.Join(cfg.WorkDir, cfg.Script)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
