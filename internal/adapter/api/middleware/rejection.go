package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/fisioflow/mentorship-api/internal/domain"
)

// Rejection is the structured payload of a denied request.
type Rejection struct {
	Error           string       `json:"error"`
	Message         string       `json:"message"`
	CurrentTier     domain.Tier  `json:"current_tier,omitempty"`
	RequiredTier    domain.Tier  `json:"required_tier,omitempty"`
	SuggestedTier   *domain.Tier `json:"suggested_tier,omitempty"`
	UpgradeRequired bool         `json:"upgrade_required,omitempty"`
	RetryAfter      int64        `json:"retry_after,omitempty"` // seconds
}

func writeRejection(w http.ResponseWriter, status int, rejection Rejection) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rejection)
}
