package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/cloudexpense/pkg/api"
	"github.com/ArionMiles/cloudexpense/pkg/config"
	"github.com/ArionMiles/cloudexpense/pkg/writer"
	ledgerwriter "github.com/ArionMiles/cloudexpense/pkg/writer/ledger"
)

var (
	importUser      int64
	importFile      string
	importBatchSize int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a JSON array of {date, category, amount} records into the ledger",
	RunE:  runImport,
}

func init() {
	importCmd.Flags().Int64VarP(&importUser, "user", "u", 0, "User id (required)")
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "JSON file to import (required)")
	importCmd.Flags().IntVar(&importBatchSize, "batch-size", 500, "Records per insert")
	_ = importCmd.MarkFlagRequired("user")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(config.Config.Validate)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	f, err := os.Open(importFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", importFile, err)
	}
	records, err := api.ReadRecordsIn(f, loc)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("reading %s: %w", importFile, err)
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	w, err := ledgerwriter.New(a.store, ledgerwriter.Config{UserID: importUser, BatchSize: importBatchSize}, logger)
	if err != nil {
		return err
	}
	if err := writer.Drain(ctx, w, records); err != nil {
		return fmt.Errorf("importing after %d records: %w", w.Inserted(), err)
	}

	logger.Info("import complete", "user_id", importUser, "records", w.Inserted())
	return nil
}
