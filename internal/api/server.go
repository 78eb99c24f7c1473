// Package api exposes the scheduling service over HTTP with JSON bodies.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ssavin/vetsystem/internal/database"
	"github.com/ssavin/vetsystem/internal/schedule"
	"github.com/ssavin/vetsystem/internal/service"
)

// HTTPServer serves the clinic's scheduling API.
type HTTPServer struct {
	server *http.Server
	svc    *service.BookingService
	logger zerolog.Logger
}

// NewHTTPServer wires the routes and returns a server ready to Start.
func NewHTTPServer(addr string, svc *service.BookingService, logger zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		svc:    svc,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/availability", s.handleAvailability)
	mux.HandleFunc("/api/bookings", s.handleCreateBooking)
	mux.HandleFunc("/api/bookings/recurring", s.handleCreateSeries)
	mux.HandleFunc("/api/bookings/status", s.handleStatusChange)
	mux.HandleFunc("/api/bookings/reschedule", s.handleReschedule)
	mux.HandleFunc("/healthz", s.handleHealth)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start runs the server until Shutdown or a listener error.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, schedule.ErrInvalidTransition),
		errors.Is(err, database.ErrVersionConflict),
		errors.Is(err, service.ErrImmutableBooking):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, schedule.ErrInvalidDuration),
		errors.Is(err, schedule.ErrInvalidInterval),
		errors.Is(err, schedule.ErrInvalidRange),
		errors.Is(err, schedule.ErrInvalidRepeatRule),
		errors.Is(err, schedule.ErrTooManyInstances):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeStrict(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
