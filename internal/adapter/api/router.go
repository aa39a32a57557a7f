package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/fisioflow/mentorship-api/internal/adapter/api/handler"
	"github.com/fisioflow/mentorship-api/internal/adapter/api/middleware"
	"github.com/fisioflow/mentorship-api/internal/adapter/metrics"
	"github.com/fisioflow/mentorship-api/internal/domain"
	"github.com/fisioflow/mentorship-api/internal/pkg/config"
	"github.com/fisioflow/mentorship-api/internal/usecase"
)

// NewRouter creates and configures the main HTTP router for the mentorship
// API. Every route except the public set passes through the freemium gate.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	accounts domain.AccountRepository,
	catalog *usecase.Catalog,
	entitlements *usecase.Entitlements,
	rateLimiter *usecase.RateLimiter,
	recorder *usecase.RecordUsageUseCase,
	gateMetrics *metrics.GateMetrics,
) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	// Logging sits outside the gate so rejected requests are logged with
	// their real status too.
	gate := middleware.NewGate(accounts, rateLimiter, entitlements, recorder, gateMetrics, logger, cfg.JWTSecret)
	r.Use(middleware.Logging(logger))
	r.Use(gate.Handler)

	authHandler := handler.NewAuthHandler(accounts, logger, cfg.JWTSecret, cfg.TokenExpiry)
	freemiumHandler := handler.NewFreemiumHandler(entitlements, catalog, logger)
	mentorshipHandler := handler.NewMentorshipHandler(logger)

	// Public routes. The gate skips these by path prefix.
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Post("/api/auth/token", authHandler.Token)
	r.Get("/api/tiers/comparison", freemiumHandler.TierComparison)

	// Freemium introspection routes.
	r.Route("/api/freemium", func(r chi.Router) {
		r.Get("/usage-report", freemiumHandler.UsageReport)
		r.Get("/validate", freemiumHandler.Validate)
		r.Get("/upgrade-recommendations", freemiumHandler.Recommendations)
		r.Post("/simulate-upgrade", freemiumHandler.SimulateUpgrade)
		r.Post("/upgrade", freemiumHandler.Upgrade)
	})

	// Quota-gated resource routes. The gate resolves the action for each of
	// these from its method and path.
	r.Route("/api/mentorship", func(r chi.Router) {
		r.Post("/interns", mentorshipHandler.CreateIntern)
		r.Post("/cases", mentorshipHandler.CreateCase)
		r.Post("/resources", mentorshipHandler.UploadResource)
		r.Post("/sessions", mentorshipHandler.ScheduleSession)
		r.Post("/competencies", mentorshipHandler.CreateCompetency)
		r.Post("/ai/assist", mentorshipHandler.AIAssist)

		r.With(middleware.RequireFeature(catalog, "export_reports")).
			Get("/reports/export", mentorshipHandler.ExportReport)
	})

	return r
}
