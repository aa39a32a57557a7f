package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fisioflow/mentorship-api/internal/domain"
)

// MockAccountRepository is a mock implementation of domain.AccountRepository
// for testing.
type MockAccountRepository struct {
	mu        sync.Mutex
	Accounts  map[uuid.UUID]*domain.Account
	FindErr   error
	UpdateErr error

	// FindErrAfter, when positive, makes FindByID return
	// domain.ErrAccountNotFound once that many lookups have succeeded. It
	// models an account deleted while a request is in flight.
	FindErrAfter int
	findCalls    int

	TierUpdates []TierUpdate
}

// TierUpdate records one UpdateTier call.
type TierUpdate struct {
	AccountID  uuid.UUID
	Tier       domain.Tier
	UpgradedAt time.Time
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.findCalls++
	if m.FindErrAfter > 0 && m.findCalls > m.FindErrAfter {
		return nil, domain.ErrAccountNotFound
	}
	account, ok := m.Accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (m *MockAccountRepository) UpdateTier(ctx context.Context, id uuid.UUID, tier domain.Tier, upgradedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if account, ok := m.Accounts[id]; ok {
		account.Tier = tier
		account.TierUpgradedAt = &upgradedAt
	}
	m.TierUpdates = append(m.TierUpdates, TierUpdate{AccountID: id, Tier: tier, UpgradedAt: upgradedAt})
	return nil
}

// MockUsageRepository is a mock implementation of domain.UsageRepository.
// Each counter is returned as configured regardless of the window argument;
// tests that care about windows set the expected value directly.
type MockUsageRepository struct {
	mu                 sync.Mutex
	Interns            int64
	Cases              int64
	Resources          int64
	Sessions           int64
	CustomCompetencies int64
	StorageBytes       int64
	LastActivityAt     time.Time
	Err                error

	SessionQueries []time.Time
}

func (m *MockUsageRepository) CountInterns(ctx context.Context, mentorID uuid.UUID, since time.Time) (int64, error) {
	return m.value(m.Interns)
}

func (m *MockUsageRepository) CountCases(ctx context.Context, mentorID uuid.UUID, since time.Time) (int64, error) {
	return m.value(m.Cases)
}

func (m *MockUsageRepository) CountResources(ctx context.Context, mentorID uuid.UUID, since time.Time) (int64, error) {
	return m.value(m.Resources)
}

func (m *MockUsageRepository) CountSessions(ctx context.Context, mentorID uuid.UUID, since time.Time) (int64, error) {
	m.mu.Lock()
	m.SessionQueries = append(m.SessionQueries, since)
	m.mu.Unlock()
	return m.value(m.Sessions)
}

func (m *MockUsageRepository) CountCustomCompetencies(ctx context.Context, mentorID uuid.UUID) (int64, error) {
	return m.value(m.CustomCompetencies)
}

func (m *MockUsageRepository) StorageUsedBytes(ctx context.Context, mentorID uuid.UUID) (int64, error) {
	return m.value(m.StorageBytes)
}

func (m *MockUsageRepository) LastActivity(ctx context.Context, mentorID uuid.UUID) (time.Time, error) {
	if m.Err != nil {
		return time.Time{}, m.Err
	}
	return m.LastActivityAt, nil
}

func (m *MockUsageRepository) value(v int64) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return v, nil
}

// MockCounterStore is an in-memory mock of domain.CounterStore.
type MockCounterStore struct {
	mu        sync.Mutex
	Counts    map[string]int64
	TTLs      map[string]time.Duration
	IncrErr   error
	ExpireErr error

	IncrementCalls int
	ExpireCalls    int
}

func (m *MockCounterStore) Increment(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IncrementCalls++
	if m.IncrErr != nil {
		return 0, m.IncrErr
	}
	if m.Counts == nil {
		m.Counts = make(map[string]int64)
	}
	m.Counts[key]++
	return m.Counts[key], nil
}

func (m *MockCounterStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExpireCalls++
	if m.ExpireErr != nil {
		return m.ExpireErr
	}
	if m.TTLs == nil {
		m.TTLs = make(map[string]time.Duration)
	}
	m.TTLs[key] = ttl
	return nil
}

// MockUsageEventBuffer is an in-memory mock of domain.UsageEventBuffer.
type MockUsageEventBuffer struct {
	mu              sync.Mutex
	Published       []domain.UsageEvent
	ReadBatchResult []domain.UsageEvent
	AckedMessageIDs []string
	PublishErr      error
	ReadErr         error
	AckErr          error
}

func (m *MockUsageEventBuffer) Publish(ctx context.Context, event domain.UsageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.Published = append(m.Published, event)
	return nil
}

func (m *MockUsageEventBuffer) ReadBatch(ctx context.Context, group, consumer string, count int) ([]domain.UsageEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	events := m.ReadBatchResult
	m.ReadBatchResult = nil
	return events, nil
}

func (m *MockUsageEventBuffer) Acknowledge(ctx context.Context, group string, messageIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AckErr != nil {
		return m.AckErr
	}
	m.AckedMessageIDs = append(m.AckedMessageIDs, messageIDs...)
	return nil
}

// MockUsageEventSink is an in-memory mock of domain.UsageEventSink.
type MockUsageEventSink struct {
	mu          sync.Mutex
	Written     []domain.UsageEvent
	WriteErr    error
	PruneErr    error
	PruneCutoff time.Time
}

func (m *MockUsageEventSink) WriteBatch(ctx context.Context, events []domain.UsageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Written = append(m.Written, events...)
	return nil
}

func (m *MockUsageEventSink) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PruneErr != nil {
		return 0, m.PruneErr
	}
	m.PruneCutoff = cutoff

	var kept []domain.UsageEvent
	var dropped int64
	for _, event := range m.Written {
		if event.Timestamp.Before(cutoff) {
			dropped++
			continue
		}
		kept = append(kept, event)
	}
	m.Written = kept
	return dropped, nil
}
