package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fisioflow/mentorship-api/internal/domain"
)

// DefaultMeteringPeriodDays is the window used when callers do not ask for a
// specific one.
const DefaultMeteringPeriodDays = 30

// UsageMeter computes point-in-time usage snapshots for an account from the
// record store. It is read-only and holds no state between calls.
type UsageMeter struct {
	accounts domain.AccountRepository
	usage    domain.UsageRepository
	now      func() time.Time
}

// NewUsageMeter creates a UsageMeter.
func NewUsageMeter(accounts domain.AccountRepository, usage domain.UsageRepository) *UsageMeter {
	return &UsageMeter{
		accounts: accounts,
		usage:    usage,
		now:      time.Now,
	}
}

// Measure computes the account's usage over the trailing periodDays window.
// Entity counts are windowed; storage is cumulative over everything the
// account stores, because storage reflects current consumption rather than
// recent activity. Custom competencies are counted unwindowed as well, since
// they gate creation against a lifetime allowance.
func (m *UsageMeter) Measure(ctx context.Context, accountID uuid.UUID, periodDays int) (domain.UsageMetrics, error) {
	if periodDays <= 0 {
		periodDays = DefaultMeteringPeriodDays
	}

	account, err := m.accounts.FindByID(ctx, accountID)
	if err != nil {
		return domain.UsageMetrics{}, err
	}

	periodEnd := m.now()
	periodStart := periodEnd.AddDate(0, 0, -periodDays)

	metrics := domain.UsageMetrics{
		AccountID:   accountID,
		Tier:        account.Tier,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}

	counts := []struct {
		dst   *int64
		fetch func() (int64, error)
	}{
		{&metrics.InternsCount, func() (int64, error) { return m.usage.CountInterns(ctx, accountID, periodStart) }},
		{&metrics.CasesCount, func() (int64, error) { return m.usage.CountCases(ctx, accountID, periodStart) }},
		{&metrics.ResourcesCount, func() (int64, error) { return m.usage.CountResources(ctx, accountID, periodStart) }},
		{&metrics.SessionsCount, func() (int64, error) { return m.usage.CountSessions(ctx, accountID, periodStart) }},
		{&metrics.CustomCompetencies, func() (int64, error) { return m.usage.CountCustomCompetencies(ctx, accountID) }},
		{&metrics.StorageUsedBytes, func() (int64, error) { return m.usage.StorageUsedBytes(ctx, accountID) }},
	}
	for _, c := range counts {
		v, err := c.fetch()
		if err != nil {
			return domain.UsageMetrics{}, fmt.Errorf("measure usage: %w", err)
		}
		*c.dst = v
	}

	// AI requests and video sessions have no consumption tracking yet; they
	// report zero until that lands.
	lastActivity, err := m.usage.LastActivity(ctx, accountID)
	if err != nil {
		return domain.UsageMetrics{}, fmt.Errorf("measure usage: %w", err)
	}
	if lastActivity.IsZero() {
		lastActivity = periodEnd
	}
	metrics.LastActivity = lastActivity

	return metrics, nil
}
