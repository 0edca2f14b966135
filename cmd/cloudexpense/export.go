package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/cloudexpense/internal/projection"
	"github.com/ArionMiles/cloudexpense/pkg/config"
	"github.com/ArionMiles/cloudexpense/pkg/writer"
	csvwriter "github.com/ArionMiles/cloudexpense/pkg/writer/csv"
	jsonwriter "github.com/ArionMiles/cloudexpense/pkg/writer/json"
)

var (
	exportUser   int64
	exportMonths int
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export-training",
	Short: "Write a user's recent transactions as forecaster training data",
	Long: "Export the trailing months of a user's transactions, including the current month,\n" +
		"in the forecaster's {date, category, amount} format.",
	RunE: runExport,
}

func init() {
	exportCmd.Flags().Int64VarP(&exportUser, "user", "u", 0, "User id (required)")
	exportCmd.Flags().IntVar(&exportMonths, "months", 0, "Full months before the current one (default HISTORY_MONTHS)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format: json or csv")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default training_data.<format> in FORECASTER_WORKDIR)")
	_ = exportCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(config.Config.Validate)
	if err != nil {
		return err
	}

	months := exportMonths
	if months <= 0 {
		months = cfg.HistoryMonths
	}
	out := exportOut
	if out == "" {
		out = filepath.Join(cfg.Forecaster.WorkDir, "training_data."+exportFormat)
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	month := projection.NewMonthContext(a.clock.Now())
	from, _ := month.HistoryWindow(months)
	records, err := a.store.Transactions(ctx, exportUser, from, month.End())
	if err != nil {
		return fmt.Errorf("reading transactions: %w", err)
	}

	var w writer.Writer
	switch exportFormat {
	case "json":
		w, err = jsonwriter.New(jsonwriter.Config{FilePath: out}, logger)
	case "csv":
		w, err = csvwriter.New(csvwriter.Config{FilePath: out}, logger)
	default:
		return fmt.Errorf("unknown format %q (want json or csv)", exportFormat)
	}
	if err != nil {
		return err
	}

	if err := writer.Drain(ctx, w, records); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	logger.Info("exported training data",
		"user_id", exportUser,
		"records", len(records),
		"from", from.Format("2006-01-02"),
		"file", out,
	)
	return nil
}
