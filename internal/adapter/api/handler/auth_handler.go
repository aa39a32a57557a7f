package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fisioflow/mentorship-api/internal/domain"
	"github.com/fisioflow/mentorship-api/internal/pkg/token"
)

// AuthHandler issues access tokens. Credential verification happens upstream
// in the identity service; this endpoint is called by trusted internal
// callers that already authenticated the user and only need a token scoped to
// an account.
type AuthHandler struct {
	accounts    domain.AccountRepository
	logger      *slog.Logger
	jwtSecret   string
	tokenExpiry time.Duration
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts domain.AccountRepository, logger *slog.Logger, jwtSecret string, tokenExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		accounts:    accounts,
		logger:      logger,
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
	}
}

type tokenRequest struct {
	AccountID uuid.UUID `json:"account_id"`
}

type tokenResponse struct {
	Token     string      `json:"token"`
	Tier      domain.Tier `json:"tier"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Token handles POST /api/auth/token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccountID == uuid.Nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	account, err := h.accounts.FindByID(r.Context(), req.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			http.Error(w, "Usuário não encontrado", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to resolve account for token", "error", err, "account_id", req.AccountID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	signed, err := token.Generate(account.ID, h.jwtSecret, h.tokenExpiry)
	if err != nil {
		h.logger.Error("failed to sign token", "error", err, "account_id", account.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(tokenResponse{
		Token:     signed,
		Tier:      account.Tier,
		ExpiresAt: time.Now().Add(h.tokenExpiry).UTC(),
	})
}
