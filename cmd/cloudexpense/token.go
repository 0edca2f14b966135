package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/cloudexpense/internal/auth"
	"github.com/ArionMiles/cloudexpense/pkg/config"
)

var (
	tokenUser int64
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a user, signed with JWT_SECRET",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().Int64VarP(&tokenUser, "user", "u", 0, "User id (required)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	if tokenUser <= 0 {
		return fmt.Errorf("user id must be positive, got %d", tokenUser)
	}

	token, err := auth.New(cfg.JWTSecret).Issue(tokenUser, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
