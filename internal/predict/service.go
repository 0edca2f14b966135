// Package predict produces month-end spending predictions for a user.
//
// The external forecaster is tried first and its output is sanity-checked by the
// validator. Whenever it is unavailable the heuristic projection engine answers
// instead, so a prediction is always returned once the user has data this month.
package predict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/cloudexpense/internal/forecaster"
	"github.com/ArionMiles/cloudexpense/internal/projection"
	"github.com/ArionMiles/cloudexpense/internal/validator"
	"github.com/ArionMiles/cloudexpense/pkg/api"
	"github.com/ArionMiles/cloudexpense/pkg/clock"
)

// ErrNoData is returned when the user has no transactions in the current month.
var ErrNoData = errors.New("no expense data available for prediction")

// ReasonEstimated is appended to the adjustment reason when the forecaster skipped
// categories and the heuristic engine filled them in.
const ReasonEstimated = "Some categories were estimated by the mathematical model"

// StatusNoMatchingCategories is the forecaster status when none of its categories
// appear in the user's transactions.
const StatusNoMatchingCategories = "No matching categories returned"

// Options wires the service's collaborators.
type Options struct {
	Ledger     api.Ledger
	Forecaster api.Forecaster
	Engine     *projection.Engine
	Validator  *validator.Validator
	Clock      clock.Clock
	// HistoryMonths is the number of full months behind the historical patterns.
	// Zero disables historical learning.
	HistoryMonths int
	Logger        *slog.Logger
}

// Service orchestrates one prediction request.
type Service struct {
	ledger        api.Ledger
	forecaster    api.Forecaster
	engine        *projection.Engine
	validator     *validator.Validator
	clock         clock.Clock
	historyMonths int
	logger        *slog.Logger
}

// New creates a prediction service. Missing optional collaborators get defaults:
// the forecaster is Disabled, the engine and validator use default tuning and the
// clock reads the system time.
func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Forecaster == nil {
		opts.Forecaster = forecaster.Disabled{}
	}
	if opts.Engine == nil {
		opts.Engine = projection.New(projection.DefaultOptions(), nil, opts.Logger)
	}
	if opts.Validator == nil {
		opts.Validator = validator.New(validator.DefaultConfig())
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}

	return &Service{
		ledger:        opts.Ledger,
		forecaster:    opts.Forecaster,
		engine:        opts.Engine,
		validator:     opts.Validator,
		clock:         opts.Clock,
		historyMonths: opts.HistoryMonths,
		logger:        opts.Logger.With("component", "predict"),
	}
}

// Predict returns the month-end prediction for userID.
//
// ErrNoData is returned when the user has no transactions this month; the forecaster
// is not invoked in that case. Any other error comes from the ledger.
func (s *Service) Predict(ctx context.Context, userID int64) (api.PredictionResult, error) {
	month := projection.NewMonthContext(s.clock.Now())
	logger := s.logger.With("user_id", userID, "month", fmt.Sprintf("%d-%02d", month.Year, month.Month))

	records, err := s.ledger.Transactions(ctx, userID, month.Start(), month.End())
	if err != nil {
		return api.PredictionResult{}, fmt.Errorf("reading transactions: %w", err)
	}
	if len(records) == 0 {
		logger.Info("no transactions this month")
		return api.PredictionResult{}, ErrNoData
	}

	logger.Debug("fetched transactions", "count", len(records), "categories", len(api.Categories(records)))

	forecast, err := s.forecaster.Forecast(ctx, records)
	if err != nil {
		logger.Warn("forecaster unavailable, using heuristic projection", "error", err)
		return s.heuristic(ctx, userID, records, month, forecaster.Status(err)), nil
	}

	if !coversAny(forecast, records) {
		logger.Warn("forecaster returned none of the user's categories, using heuristic projection",
			"forecast_categories", len(forecast),
		)
		return s.heuristic(ctx, userID, records, month, StatusNoMatchingCategories), nil
	}

	return s.validated(ctx, userID, forecast, records, month), nil
}

func coversAny(forecast map[string]decimal.Decimal, records []api.TransactionRecord) bool {
	for _, r := range records {
		if _, ok := forecast[r.Category]; ok {
			return true
		}
	}
	return false
}

func (s *Service) heuristic(ctx context.Context, userID int64, records []api.TransactionRecord, month projection.MonthContext, status string) api.PredictionResult {
	history := s.history(ctx, userID, month)
	res := s.engine.Project(records, history, month)

	return api.PredictionResult{
		Predictions:      res.Predictions,
		DataPointsUsed:   len(records),
		Source:           api.SourceHeuristic,
		Confidence:       api.ConfidenceMedium,
		ForecasterStatus: status,
	}
}

func (s *Service) validated(ctx context.Context, userID int64, forecast map[string]decimal.Decimal, records []api.TransactionRecord, month projection.MonthContext) api.PredictionResult {
	checked := s.validator.Validate(forecast, records, month.DaysElapsed)
	for _, a := range checked.Adjustments {
		s.logger.Info("adjusted external prediction",
			"user_id", userID,
			"category", a.Category,
			"predicted", a.Predicted,
			"adjusted", a.Adjusted,
			"reason", a.Reason,
		)
	}

	result := api.PredictionResult{
		Predictions:      checked.Predictions,
		DataPointsUsed:   len(records),
		Source:           api.SourceExternal,
		Confidence:       checked.Confidence,
		AdjustmentReason: checked.Reason,
	}

	var missing []api.TransactionRecord
	for _, r := range records {
		if _, ok := checked.Predictions[r.Category]; !ok {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		filled := s.engine.Project(missing, s.history(ctx, userID, month), month)
		for category, value := range filled.Predictions {
			result.Predictions[category] = value
		}
		s.logger.Info("forecaster skipped categories, filled by heuristic",
			"user_id", userID,
			"categories", api.Categories(missing),
		)
		result.Confidence = api.ConfidenceMedium
		result.AdjustmentReason = joinReason(result.AdjustmentReason, ReasonEstimated)
	}

	if result.AdjustmentReason != "" {
		result.Source = api.SourceExternalAdjusted
	}
	return result
}

// history never fails the request; without it the engine skips historical learning.
func (s *Service) history(ctx context.Context, userID int64, month projection.MonthContext) api.History {
	if s.historyMonths <= 0 {
		return nil
	}

	from, to := month.HistoryWindow(s.historyMonths)
	history, err := s.ledger.HistoricalPatterns(ctx, userID, from, to)
	if err != nil {
		s.logger.Warn("historical patterns unavailable", "user_id", userID, "error", err)
		return nil
	}
	return history
}

func joinReason(existing, reason string) string {
	if existing == "" {
		return reason
	}
	return strings.Join([]string{existing, reason}, "; ")
}
