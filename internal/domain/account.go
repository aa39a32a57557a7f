package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Account is a mentor account as seen by the freemium core. The identity
// layer owns the account lifecycle; this core only reads the tier and writes
// it on a processed upgrade.
type Account struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Tier           Tier       `json:"tier"`
	TierUpgradedAt *time.Time `json:"tier_upgraded_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// AccountRepository defines persistence access to accounts.
type AccountRepository interface {
	// FindByID returns ErrAccountNotFound when no account exists for id.
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// UpdateTier sets the account's tier and tier-upgraded-at timestamp.
	UpdateTier(ctx context.Context, id uuid.UUID, tier Tier, upgradedAt time.Time) error
}
