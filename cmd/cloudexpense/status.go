package main

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/cloudexpense/internal/ledger"
	"github.com/ArionMiles/cloudexpense/pkg/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check configuration, ledger connectivity and the forecaster installation",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	fmt.Println("=== CloudExpense Status ===")
	fmt.Println()

	allGood := true

	cfg := checkConfig(&allGood)
	if cfg != nil {
		checkLedger(cmd.Context(), *cfg, &allGood)
		checkForecaster(cfg.Forecaster, &allGood)
	}

	printFinalStatus(allGood)
	return nil
}

func checkConfig(allGood *bool) *config.Config {
	fmt.Print("Configuration: ")
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		*allGood = false
		return nil
	}
	fmt.Printf("✓ ledger=%s timezone=%s history=%d months\n", cfg.LedgerDriver, cfg.Timezone, cfg.HistoryMonths)

	fmt.Print("JWT secret: ")
	if cfg.JWTSecret == "" {
		fmt.Println("✗ JWT_SECRET not set (required for serve)")
		*allGood = false
	} else {
		fmt.Println("✓ Set")
	}
	return &cfg
}

func checkLedger(ctx context.Context, cfg config.Config, allGood *bool) {
	fmt.Printf("Ledger (%s): ", cfg.LedgerDriver)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, err := ledger.Open(ctx, cfg, logger)
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		*allGood = false
		return
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		fmt.Printf("✗ %v\n", err)
		*allGood = false
		return
	}
	fmt.Println("✓ Connected")
}

// checkForecaster reports forecaster problems without failing the status: the
// heuristic engine answers whenever the forecaster cannot.
func checkForecaster(cfg config.ForecasterConfig, allGood *bool) {
	fmt.Print("Forecaster: ")
	if !cfg.Enabled {
		fmt.Println("⚠ Disabled (mathematical model only)")
		return
	}
	fmt.Printf("✓ Enabled (timeout %s)\n", cfg.Timeout)

	fmt.Printf("  Interpreter (%s): ", cfg.Command)
	if path, err := exec.LookPath(cfg.Command); err != nil {
		fmt.Println("⚠ Not found, predictions will use the mathematical model")
	} else {
		fmt.Printf("✓ %s\n", path)
	}

	if cfg.RetryCommand != "" {
		fmt.Printf("  Retry interpreter (%s): ", cfg.RetryCommand)
		if path, err := exec.LookPath(cfg.RetryCommand); err != nil {
			fmt.Println("⚠ Not found")
		} else {
			fmt.Printf("✓ %s\n", path)
		}
	}

	if cfg.Script != "" {
		script := scriptPath(cfg)
		fmt.Printf("  Script (%s): ", script)
		if fileExists(script) {
			fmt.Println("✓ Found")
		} else {
			fmt.Println("⚠ Not found")
		}
	}

	if cfg.WorkDir != "" && !fileExists(cfg.WorkDir) {
		fmt.Printf("  Working directory (%s): ✗ Not found\n", cfg.WorkDir)
		*allGood = false
	}
}

func printFinalStatus(allGood bool) {
	fmt.Println()
	if allGood {
		fmt.Println("Status: ✓ Ready to run")
		fmt.Println()
		fmt.Println("Run 'cloudexpense serve' to start the API.")
	} else {
		fmt.Println("Status: ✗ Configuration issues detected")
		fmt.Println()
		fmt.Println("Fix the issues above, then run 'cloudexpense status' again.")
	}
}
