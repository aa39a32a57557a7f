package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fisioflow/mentorship-api/internal/adapter/api/middleware"
	"github.com/fisioflow/mentorship-api/internal/domain"
	"github.com/fisioflow/mentorship-api/internal/usecase"
)

// FreemiumHandler handles HTTP requests for usage reporting, tier validation
// and plan upgrades.
type FreemiumHandler struct {
	entitlements *usecase.Entitlements
	catalog      *usecase.Catalog
	logger       *slog.Logger
}

// NewFreemiumHandler creates a new FreemiumHandler.
func NewFreemiumHandler(entitlements *usecase.Entitlements, catalog *usecase.Catalog, logger *slog.Logger) *FreemiumHandler {
	return &FreemiumHandler{entitlements: entitlements, catalog: catalog, logger: logger}
}

// UsageReport handles requests for the full usage report.
// GET /api/freemium/usage-report?period_days=30
func (h *FreemiumHandler) UsageReport(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	periodDays := usecase.DefaultMeteringPeriodDays
	if raw := r.URL.Query().Get("period_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			http.Error(w, "period_days must be between 1 and 365", http.StatusBadRequest)
			return
		}
		periodDays = parsed
	}

	report, err := h.entitlements.Report(r.Context(), account.ID, periodDays)
	if err != nil {
		h.logger.Error("failed to build usage report", "error", err, "account_id", account.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.respondWithJSON(w, http.StatusOK, report)
}

// Validate handles requests to check current usage against tier limits.
// GET /api/freemium/validate
func (h *FreemiumHandler) Validate(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	result, err := h.entitlements.Validate(r.Context(), account.ID)
	if err != nil {
		h.logger.Error("failed to validate tier limits", "error", err, "account_id", account.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.respondWithJSON(w, http.StatusOK, result)
}

// Recommendations handles requests for upgrade recommendations.
// GET /api/freemium/upgrade-recommendations
func (h *FreemiumHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	recommendation, err := h.entitlements.RecommendUpgrade(r.Context(), account.ID)
	if err != nil {
		h.logger.Error("failed to build upgrade recommendation", "error", err, "account_id", account.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.respondWithJSON(w, http.StatusOK, recommendation)
}

type upgradeRequest struct {
	TargetTier domain.Tier `json:"target_tier"`
}

// SimulateUpgrade handles dry-run upgrade requests.
// POST /api/freemium/simulate-upgrade
func (h *FreemiumHandler) SimulateUpgrade(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req upgradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	simulation, err := h.entitlements.SimulateUpgrade(r.Context(), account.ID, req.TargetTier)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTier) {
			http.Error(w, "Tier inválido", http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to simulate upgrade", "error", err, "account_id", account.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.respondWithJSON(w, http.StatusOK, simulation)
}

// Upgrade handles tier upgrade requests.
// POST /api/freemium/upgrade
func (h *FreemiumHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req upgradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.entitlements.ProcessUpgrade(r.Context(), account.ID, req.TargetTier); err != nil {
		if errors.Is(err, domain.ErrInvalidTier) {
			http.Error(w, "Tier inválido", http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to process upgrade", "error", err, "account_id", account.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]any{
		"message":  "Upgrade realizado com sucesso",
		"new_tier": req.TargetTier,
	})
}

// TierComparison handles requests for the public plan comparison table.
// GET /api/tiers/comparison
func (h *FreemiumHandler) TierComparison(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.catalog.Comparison())
}

func (h *FreemiumHandler) respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
