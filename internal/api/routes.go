package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zapponejosh/wellness-api/internal/auth"
	"github.com/zapponejosh/wellness-api/internal/config"
)

// NewRouter configures all routes and returns the root handler.
//
// Global middleware order (outermost first): recovery, request id,
// logging, CORS, security headers, metrics.
func NewRouter(h *Handlers, cfg *config.Config, logger *slog.Logger) (http.Handler, error) {
	chatLimit, err := RateLimitMiddleware(cfg.ChatRateLimit)
	if err != nil {
		return nil, fmt.Errorf("chat rate limit: %w", err)
	}

	var verifier *auth.Verifier
	if cfg.JWTSecret != "" {
		verifier = auth.NewVerifier(cfg.JWTSecret)
	}

	r := chi.NewRouter()
	r.Use(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(),
		SecureMiddleware(cfg),
		MetricsMiddleware,
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED")
	})

	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	// Legacy path used by the web client.
	r.With(chatLimit).Post("/chat", h.Chat)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(chatLimit).Post("/chat", h.Chat)

		r.Get("/cycle/compute", h.ComputeCycle)
		r.Get("/cycle/phases", h.GetPhases)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(verifier, cfg, logger))

			r.Get("/me/cycle", h.GetMyCycle)
			r.Get("/me/cycle/settings", h.GetSettings)
			r.Put("/me/cycle/settings", h.PutSettings)
			r.Get("/me/cycle/ring", h.GetRing)
			r.Get("/me/cycle/suggestions", h.GetSuggestions)
			r.Post("/me/cycle/reminder", h.CreatePhaseReminder)

			r.Get("/me/symptoms", h.ListSymptoms)
			r.Post("/me/symptoms", h.CreateSymptom)

			r.Get("/me/motivation", h.GetMotivation)
			r.Post("/me/motivation", h.CreateMotivation)

			r.Get("/me/notifications", h.ListNotifications)

			r.Get("/me/fitness", h.ListFitness)
			r.Get("/me/fitness/week", h.GetFitnessWeek)
			r.Get("/me/fitness/{date}", h.GetFitness)
			r.Put("/me/fitness/{date}", h.PutFitness)

			r.Get("/me/mental-health", h.ListMentalHealth)
			r.Post("/me/mental-health", h.CreateMentalHealth)
		})
	})

	return r, nil
}
