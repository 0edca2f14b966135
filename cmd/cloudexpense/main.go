// Command cloudexpense serves and computes month-end spending predictions.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/cloudexpense/pkg/logging"
)

var logger *slog.Logger

var rootCmd = &cobra.Command{
	Use:           "cloudexpense",
	Short:         "Month-end spending predictions",
	Long:          "Predict each category's month-end spending from the current month's transactions.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		logger = logging.Setup(logging.DefaultConfig())
	},
}

func main() {
	// Cancel on SIGINT/SIGTERM so the server and long imports stop cleanly.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		if logger != nil {
			logger.Info("received shutdown signal", "signal", sig)
		}
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger == nil {
			logger = logging.Setup(logging.DefaultConfig())
		}
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
