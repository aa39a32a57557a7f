package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fisioflow/mentorship-api/internal/domain"
	"github.com/fisioflow/mentorship-api/internal/domain/mocks"
)

func TestUsageMeter_Measure(t *testing.T) {
	accountID := uuid.New()
	accounts := func(tier domain.Tier) *mocks.MockAccountRepository {
		return &mocks.MockAccountRepository{
			Accounts: map[uuid.UUID]*domain.Account{
				accountID: {ID: accountID, Tier: tier},
			},
		}
	}

	t.Run("Snapshot With All Counters", func(t *testing.T) {
		lastActivity := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
		usage := &mocks.MockUsageRepository{
			Interns:            3,
			Cases:              7,
			Resources:          12,
			Sessions:           4,
			CustomCompetencies: 2,
			StorageBytes:       512 << 20,
			LastActivityAt:     lastActivity,
		}
		meter := NewUsageMeter(accounts(domain.TierPremium), usage)

		metrics, err := meter.Measure(context.Background(), accountID, 30)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if metrics.Tier != domain.TierPremium {
			t.Errorf("expected tier premium, got %s", metrics.Tier)
		}
		if metrics.InternsCount != 3 || metrics.CasesCount != 7 || metrics.ResourcesCount != 12 {
			t.Errorf("unexpected entity counts: %+v", metrics)
		}
		if metrics.StorageUsedBytes != 512<<20 {
			t.Errorf("expected 512MB storage, got %d", metrics.StorageUsedBytes)
		}
		if !metrics.LastActivity.Equal(lastActivity) {
			t.Errorf("expected last activity %v, got %v", lastActivity, metrics.LastActivity)
		}

		window := metrics.PeriodEnd.Sub(metrics.PeriodStart)
		if window < 29*24*time.Hour || window > 31*24*time.Hour {
			t.Errorf("expected a ~30 day window, got %v", window)
		}
	})

	t.Run("Defaults Period When Not Positive", func(t *testing.T) {
		meter := NewUsageMeter(accounts(domain.TierFree), &mocks.MockUsageRepository{})

		metrics, err := meter.Measure(context.Background(), accountID, 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		window := metrics.PeriodEnd.Sub(metrics.PeriodStart)
		if window < 29*24*time.Hour || window > 31*24*time.Hour {
			t.Errorf("expected the default 30 day window, got %v", window)
		}
	})

	t.Run("No Activity Falls Back To Period End", func(t *testing.T) {
		meter := NewUsageMeter(accounts(domain.TierFree), &mocks.MockUsageRepository{})

		metrics, err := meter.Measure(context.Background(), accountID, 30)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !metrics.LastActivity.Equal(metrics.PeriodEnd) {
			t.Errorf("expected last activity to equal period end, got %v", metrics.LastActivity)
		}
	})

	t.Run("Unknown Account", func(t *testing.T) {
		meter := NewUsageMeter(&mocks.MockAccountRepository{}, &mocks.MockUsageRepository{})

		_, err := meter.Measure(context.Background(), accountID, 30)
		if !errors.Is(err, domain.ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})

	t.Run("Record Store Error", func(t *testing.T) {
		usage := &mocks.MockUsageRepository{Err: errors.New("connection refused")}
		meter := NewUsageMeter(accounts(domain.TierFree), usage)

		if _, err := meter.Measure(context.Background(), accountID, 30); err == nil {
			t.Fatal("expected an error, got nil")
		}
	})
}
