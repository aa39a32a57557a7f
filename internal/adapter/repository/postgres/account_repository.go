package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fisioflow/mentorship-api/internal/adapter/metrics"
	"github.com/fisioflow/mentorship-api/internal/domain"
)

type accountCacheEntry struct {
	account   domain.Account
	expiresAt time.Time
}

// AccountRepository implements domain.AccountRepository using PostgreSQL as
// the source of truth and an in-memory, time-based cache. The gate resolves
// the account on every request, so cache hits matter.
type AccountRepository struct {
	db       *sql.DB
	logger   *slog.Logger
	cache    map[uuid.UUID]accountCacheEntry
	mu       sync.RWMutex
	cacheTTL time.Duration
	metrics  *metrics.GateMetrics
}

// NewAccountRepository creates a new PostgreSQL account repository.
func NewAccountRepository(db *sql.DB, logger *slog.Logger, cacheTTL time.Duration, m *metrics.GateMetrics) *AccountRepository {
	return &AccountRepository{
		db:       db,
		logger:   logger,
		cache:    make(map[uuid.UUID]accountCacheEntry),
		cacheTTL: cacheTTL,
		metrics:  m,
	}
}

// FindByID returns the account, consulting the cache first. Unknown IDs
// return domain.ErrAccountNotFound; infrastructure failures wrap
// domain.ErrStorageUnavailable.
func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.RLock()
	entry, found := r.cache[id]
	r.mu.RUnlock()

	if found && time.Now().Before(entry.expiresAt) {
		if r.metrics != nil {
			r.metrics.AccountCacheHits.Inc()
		}
		account := entry.account
		return &account, nil
	}

	if r.metrics != nil {
		r.metrics.AccountCacheMisses.Inc()
	}

	account, err := r.queryByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[id] = accountCacheEntry{account: *account, expiresAt: time.Now().Add(r.cacheTTL)}
	r.mu.Unlock()

	return account, nil
}

func (r *AccountRepository) queryByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `
        SELECT id, name, email, COALESCE(tier, 'free'), tier_upgraded_at, created_at
        FROM accounts
        WHERE id = $1
    `

	var (
		account        domain.Account
		tier           string
		tierUpgradedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&tier,
		&tierUpgradedAt,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, storageErr("find account by ID", err)
	}

	account.Tier, err = domain.ParseTier(tier)
	if err != nil {
		return nil, err
	}
	if tierUpgradedAt.Valid {
		account.TierUpgradedAt = &tierUpgradedAt.Time
	}

	return &account, nil
}

// UpdateTier sets the account's tier and invalidates its cache entry.
func (r *AccountRepository) UpdateTier(ctx context.Context, id uuid.UUID, tier domain.Tier, upgradedAt time.Time) error {
	query := `
        UPDATE accounts
        SET tier = $2, tier_upgraded_at = $3
        WHERE id = $1
    `

	res, err := r.db.ExecContext(ctx, query, id, string(tier), upgradedAt)
	if err != nil {
		return storageErr("update account tier", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storageErr("update account tier", err)
	}
	if affected == 0 {
		return domain.ErrAccountNotFound
	}

	r.mu.Lock()
	delete(r.cache, id)
	r.mu.Unlock()

	return nil
}

// storageErr wraps a record-store failure so callers can match
// domain.ErrStorageUnavailable while keeping the driver detail.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStorageUnavailable, err)
}
