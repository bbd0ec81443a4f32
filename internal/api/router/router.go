// Package router assembles the HTTP surface: intake endpoints, the
// media stream websocket, health, and metrics.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/intakehq/voice-intake/internal/transport"
	"github.com/intakehq/voice-intake/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	IntakeHandler  *transport.IntakeHandler
	MediaStream    *transport.MediaStreamServer
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthCheck)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.IntakeHandler != nil {
		r.Route("/intake", func(r chi.Router) {
			r.Post("/start", cfg.IntakeHandler.Start)
			r.Post("/turn", cfg.IntakeHandler.Turn)
		})
	}

	if cfg.MediaStream != nil {
		r.Handle("/media-stream", cfg.MediaStream)
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
