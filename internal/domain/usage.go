package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Quota dimension names, as reported in validation results and metrics.
const (
	DimensionInterns            = "interns"
	DimensionCases              = "cases"
	DimensionResources          = "resources"
	DimensionSessions           = "sessions"
	DimensionStorageBytes       = "storage_bytes"
	DimensionCustomCompetencies = "custom_competencies"
)

// UsageMetrics is a point-in-time snapshot of one account's resource
// consumption over [PeriodStart, PeriodEnd). It is recomputed on demand and
// has no lifecycle of its own.
type UsageMetrics struct {
	AccountID          uuid.UUID `json:"account_id"`
	Tier               Tier      `json:"tier"`
	PeriodStart        time.Time `json:"period_start"`
	PeriodEnd          time.Time `json:"period_end"`
	InternsCount       int64     `json:"interns_count"`
	CasesCount         int64     `json:"cases_count"`
	ResourcesCount     int64     `json:"resources_count"`
	SessionsCount      int64     `json:"sessions_count"`
	StorageUsedBytes   int64     `json:"storage_used_bytes"`
	AIRequestsCount    int64     `json:"ai_requests_count"`
	VideoSessionsCount int64     `json:"video_sessions_count"`
	CustomCompetencies int64     `json:"custom_competencies_count"`
	LastActivity       time.Time `json:"last_activity"`
}

// TierValidationResult reports whether an account fits inside its tier's
// limits, dimension by dimension.
type TierValidationResult struct {
	IsValid         bool             `json:"is_valid"`
	CurrentUsage    map[string]int64 `json:"current_usage"`
	Limits          map[string]int64 `json:"limits"`
	ExceededLimits  []string         `json:"exceeded_limits"`
	Recommendations []string         `json:"recommendations"`
	UpgradeRequired bool             `json:"upgrade_required"`
}

// UpgradeRecommendation summarizes how close an account is to its limits and
// which tier, if any, it should move to.
type UpgradeRecommendation struct {
	CurrentTier     Tier               `json:"current_tier"`
	NeedsUpgrade    bool               `json:"needs_upgrade"`
	ExceededLimits  []string           `json:"exceeded_limits"`
	UsagePercentage map[string]float64 `json:"usage_percentage"`
	SuggestedTier   *Tier              `json:"suggested_tier"`
	Benefits        []string           `json:"benefits"`
	Pricing         *TierPricing       `json:"pricing,omitempty"`
}

// UsageEvent is an immutable record of one completed request, appended
// best-effort after every gated request for analytics.
type UsageEvent struct {
	ID           uuid.UUID     `json:"event_id"`
	AccountID    uuid.UUID     `json:"account_id"`
	Tier         Tier          `json:"tier"`
	Method       string        `json:"method"`
	Path         string        `json:"path"`
	StatusCode   int           `json:"status_code"`
	Timestamp    time.Time     `json:"timestamp"`
	ResponseTime time.Duration `json:"response_time_ms"`
	UserAgent    string        `json:"user_agent,omitempty"`
	IPAddress    string        `json:"ip_address,omitempty"`
	Anonymized   bool          `json:"anonymized,omitempty"`

	// StreamMessageID identifies the buffered message for acknowledgement.
	StreamMessageID string `json:"-"`
}

// UsageRepository exposes the record-store aggregates the usage meter needs.
// A zero since value means "no time window" (count everything the account
// owns).
type UsageRepository interface {
	CountInterns(ctx context.Context, mentorID uuid.UUID, since time.Time) (int64, error)
	CountCases(ctx context.Context, mentorID uuid.UUID, since time.Time) (int64, error)
	CountResources(ctx context.Context, mentorID uuid.UUID, since time.Time) (int64, error)
	CountSessions(ctx context.Context, mentorID uuid.UUID, since time.Time) (int64, error)
	CountCustomCompetencies(ctx context.Context, mentorID uuid.UUID) (int64, error)

	// StorageUsedBytes is cumulative over everything the account stores,
	// never windowed.
	StorageUsedBytes(ctx context.Context, mentorID uuid.UUID) (int64, error)

	// LastActivity returns the zero time when the account has no sessions.
	LastActivity(ctx context.Context, mentorID uuid.UUID) (time.Time, error)
}

// CounterStore is the shared atomic counter used for rate-limit buckets.
// Increment must be atomic across concurrent callers; the expiry is set by
// the caller exactly once, on the increment that created the bucket.
type CounterStore interface {
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// UsageEventBuffer is the durable buffer usage events pass through between
// the request gate and the archiver.
type UsageEventBuffer interface {
	Publish(ctx context.Context, event UsageEvent) error
	ReadBatch(ctx context.Context, group, consumer string, count int) ([]UsageEvent, error)
	Acknowledge(ctx context.Context, group string, messageIDs ...string) error
}

// UsageEventSink is the final structured store for usage events.
type UsageEventSink interface {
	WriteBatch(ctx context.Context, events []UsageEvent) error
	// PruneOlderThan removes events recorded before cutoff and reports how
	// many rows were dropped.
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
