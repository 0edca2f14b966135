package main

import (
	"github.com/spf13/cobra"

	"github.com/ArionMiles/cloudexpense/internal/auth"
	"github.com/ArionMiles/cloudexpense/internal/server"
	"github.com/ArionMiles/cloudexpense/pkg/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prediction API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(config.Config.ValidateServer)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(server.Config{Addr: cfg.Addr}, a.service, auth.New(cfg.JWTSecret), a.clock, logger)
	return srv.Run(ctx)
}
