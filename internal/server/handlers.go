package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ArionMiles/cloudexpense/internal/auth"
	"github.com/ArionMiles/cloudexpense/internal/predict"
	"github.com/ArionMiles/cloudexpense/pkg/api"
)

// Response messages.
const (
	MessageExternal      = "AI prediction successful"
	MessageAdjusted      = "AI prediction with adjustments"
	MessageHeuristic     = "Prediction completed (mathematical model used)"
	MessageNoData        = "No expense data available for prediction"
	MessagePredictFailed = "Prediction failed"
)

// PredictResponse is the body of a successful prediction.
type PredictResponse struct {
	Predictions        map[string]float64 `json:"predictions"`
	DataPointsUsed     int                `json:"data_points_used"`
	Message            string             `json:"message"`
	AIConfidence       string             `json:"ai_confidence"`
	AIAdjustmentReason string             `json:"ai_adjustment_reason,omitempty"`
	AIStatus           string             `json:"ai_status,omitempty"`
	PredictionSource   string             `json:"prediction_source"`
}

// NewPredictResponse shapes a prediction result for the wire.
func NewPredictResponse(res api.PredictionResult) PredictResponse {
	predictions := make(map[string]float64, len(res.Predictions))
	for category, value := range res.Predictions {
		predictions[category] = value.Round(2).InexactFloat64()
	}

	out := PredictResponse{
		Predictions:      predictions,
		DataPointsUsed:   res.DataPointsUsed,
		AIConfidence:     string(res.Confidence),
		PredictionSource: string(res.Source),
	}
	switch res.Source {
	case api.SourceExternal:
		out.Message = MessageExternal
	case api.SourceExternalAdjusted:
		out.Message = MessageAdjusted
		out.AIAdjustmentReason = res.AdjustmentReason
	default:
		out.Message = MessageHeuristic
		out.AIStatus = res.ForecasterStatus
	}
	return out
}

type healthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	UptimeSeconds float64   `json:"uptime_seconds"`
}

type authTestResponse struct {
	Message   string    `json:"message"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	now := s.clock.Now()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "healthy",
		Timestamp:     now.UTC(),
		UptimeSeconds: now.Sub(s.started).Seconds(),
	})
}

func (s *Server) handleAuthTest(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	writeJSON(w, http.StatusOK, authTestResponse{
		Message:   "Authentication working",
		UserID:    userID,
		Timestamp: s.clock.Now().UTC(),
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "User authentication required")
		return
	}

	res, err := s.predictor.Predict(r.Context(), userID)
	switch {
	case errors.Is(err, predict.ErrNoData):
		writeMessage(w, http.StatusBadRequest, MessageNoData)
		return
	case err != nil:
		s.logger.Error("prediction failed",
			"user_id", userID,
			"request_id", r.Header.Get(requestIDHeader),
			"error", err,
		)
		writeMessage(w, http.StatusInternalServerError, MessagePredictFailed)
		return
	}

	s.logger.Info("prediction served",
		"user_id", userID,
		"source", res.Source,
		"confidence", res.Confidence,
		"categories", len(res.Predictions),
	)
	writeJSON(w, http.StatusOK, NewPredictResponse(res))
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func slogLevelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
