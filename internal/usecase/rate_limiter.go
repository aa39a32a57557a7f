package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fisioflow/mentorship-api/internal/domain"
)

type granularity struct {
	name   string
	width  time.Duration
	format string
}

// Bucket widths per granularity. The key embeds the bucket start truncated to
// the granularity boundary, so all requests within one window share a
// counter.
var granularities = []granularity{
	{domain.GranularityMinute, time.Minute, "200601021504"},
	{domain.GranularityHour, time.Hour, "2006010215"},
	{domain.GranularityDay, 24 * time.Hour, "20060102"},
}

// RateLimiter applies tier-based fixed-window rate limits backed by a shared
// atomic counter store. It fails open: a counter-store outage admits requests
// rather than blocking on throttling infrastructure.
type RateLimiter struct {
	counters domain.CounterStore
	limits   map[domain.Tier]domain.RateLimits
	logger   *slog.Logger
	now      func() time.Time
}

// NewRateLimiter creates a RateLimiter with the given per-tier limits.
func NewRateLimiter(counters domain.CounterStore, limits map[domain.Tier]domain.RateLimits, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		counters: counters,
		limits:   limits,
		logger:   logger,
		now:      time.Now,
	}
}

// Allow checks and increments the account's request counters for every
// configured granularity. The first exhausted granularity determines the
// denial; counters already incremented for earlier granularities stand, so
// denied retries keep accumulating toward the wider windows.
func (l *RateLimiter) Allow(ctx context.Context, accountID uuid.UUID, tier domain.Tier) domain.AdmitResult {
	limits := l.limits[tier]
	now := l.now()

	for _, g := range granularities {
		limit := limitFor(limits, g.name)
		if limit == domain.Unlimited {
			continue
		}

		bucketStart := now.Truncate(g.width)
		key := fmt.Sprintf("rate_limit:%s:%s:%s", accountID, g.name, bucketStart.Format(g.format))

		count, err := l.counters.Increment(ctx, key)
		if err != nil {
			l.logger.Error("counter store unreachable, admitting request", "error", err, "granularity", g.name)
			return domain.AdmitResult{Allowed: true}
		}

		// The expiry is set only on the increment that created the bucket.
		// Refreshing it on every hit would keep hot buckets alive forever.
		if count == 1 {
			if err := l.counters.Expire(ctx, key, g.width); err != nil {
				l.logger.Error("failed to set bucket expiry", "error", err, "key", key)
			}
		}

		if count > limit {
			return domain.AdmitResult{
				Allowed:     false,
				Granularity: g.name,
				Count:       count,
				Limit:       limit,
				RetryAfter:  bucketStart.Add(g.width).Sub(now),
			}
		}
	}

	return domain.AdmitResult{Allowed: true}
}

func limitFor(limits domain.RateLimits, name string) int64 {
	switch name {
	case domain.GranularityMinute:
		return limits.PerMinute
	case domain.GranularityHour:
		return limits.PerHour
	default:
		return limits.PerDay
	}
}
