// Package server exposes the prediction service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/ArionMiles/cloudexpense/pkg/api"
	"github.com/ArionMiles/cloudexpense/pkg/clock"
	"github.com/ArionMiles/cloudexpense/pkg/logging"
)

// Predictor computes a user's month-end prediction.
type Predictor interface {
	Predict(ctx context.Context, userID int64) (api.PredictionResult, error)
}

// Authenticator resolves an Authorization header to a user id.
type Authenticator interface {
	Authenticate(header string) (int64, error)
}

// Config holds the HTTP server configuration.
type Config struct {
	Addr string
	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// Server serves the prediction API.
type Server struct {
	cfg       Config
	predictor Predictor
	auth      Authenticator
	clock     clock.Clock
	started   time.Time
	logger    *slog.Logger
}

// New creates a server. A nil clock reads the system time.
func New(cfg Config, predictor Predictor, auth Authenticator, clk clock.Clock, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.System{}
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	return &Server{
		cfg:       cfg,
		predictor: predictor,
		auth:      auth,
		clock:     clk,
		started:   clk.Now(),
		logger:    logger.With("component", "server"),
	}
}

// Router returns the bare route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	protected := r.NewRoute().Subrouter()
	protected.Use(s.authenticate)
	protected.HandleFunc("/predict", s.handlePredict).Methods(http.MethodPost)
	protected.HandleFunc("/api/predict", s.handlePredict).Methods(http.MethodPost)
	protected.HandleFunc("/api/predict/test", s.handleAuthTest).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})
	return r
}

// Handler returns the router wrapped with request ids, access logging, panic
// recovery and CORS.
func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(s.cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(logging.StdLogger(s.logger, slog.LevelError)),
		handlers.PrintRecoveryStack(true),
	)

	var h http.Handler = s.Router()
	h = cors(h)
	h = recovery(h)
	h = handlers.CustomLoggingHandler(io.Discard, h, s.logRequest)
	h = withRequestID(h)
	return h
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logging.StdLogger(s.logger, slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
