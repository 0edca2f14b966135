package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"

	"github.com/ArionMiles/cloudexpense/internal/auth"
)

const requestIDHeader = "X-Request-ID"

// withRequestID makes sure every request and response carries a request id.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// logRequest is the access log formatter. It ignores the writer and emits a slog record.
func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	level := slogLevelFor(p.StatusCode)
	s.logger.Log(p.Request.Context(), level, "http request",
		"method", p.Request.Method,
		"path", p.URL.Path,
		"status", p.StatusCode,
		"size", p.Size,
		"duration_ms", time.Since(p.TimeStamp).Milliseconds(),
		"request_id", p.Request.Header.Get(requestIDHeader),
		"remote", p.Request.RemoteAddr,
	)
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.auth.Authenticate(r.Header.Get("Authorization"))
		if err != nil {
			s.logger.Info("rejected request",
				"path", r.URL.Path,
				"request_id", r.Header.Get(requestIDHeader),
				"error", err,
			)
			msg := "Invalid or expired token"
			if errors.Is(err, auth.ErrMissingToken) {
				msg = "Access denied"
			}
			writeMessage(w, http.StatusUnauthorized, msg)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	})
}
