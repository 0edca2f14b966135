package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/cloudexpense/internal/predict"
	"github.com/ArionMiles/cloudexpense/internal/server"
	"github.com/ArionMiles/cloudexpense/pkg/config"
)

var predictUser int64

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Print a user's month-end prediction as the API would return it",
	RunE:  runPredict,
}

func init() {
	predictCmd.Flags().Int64VarP(&predictUser, "user", "u", 0, "User id (required)")
	_ = predictCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(config.Config.Validate)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.service.Predict(ctx, predictUser)
	if errors.Is(err, predict.ErrNoData) {
		fmt.Fprintln(os.Stderr, server.MessageNoData)
		return err
	}
	if err != nil {
		return fmt.Errorf("predicting: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(server.NewPredictResponse(res))
}
