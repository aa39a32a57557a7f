package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/fisioflow/mentorship-api/internal/domain"
	"github.com/fisioflow/mentorship-api/internal/domain/mocks"
)

func TestArchiveUsageUseCase_ProcessBatch(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	testEvents := []domain.UsageEvent{
		{StreamMessageID: "msg1", Method: "POST", Path: "/api/mentorship/interns"},
		{StreamMessageID: "msg2", Method: "POST", Path: "/api/mentorship/cases"},
	}

	t.Run("Successful Archiving", func(t *testing.T) {
		buffer := &mocks.MockUsageEventBuffer{ReadBatchResult: testEvents}
		sink := &mocks.MockUsageEventSink{}
		uc := NewArchiveUsageUseCase(buffer, sink, logger, "group", "consumer")

		count, err := uc.ProcessBatch(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if count != len(testEvents) {
			t.Errorf("expected archived count %d, got %d", len(testEvents), count)
		}
		if len(sink.Written) != 2 {
			t.Errorf("expected 2 events written to sink, got %d", len(sink.Written))
		}
		if len(buffer.AckedMessageIDs) != 2 {
			t.Errorf("expected 2 messages acked, got %d", len(buffer.AckedMessageIDs))
		}
	})

	t.Run("Sink Failure Leaves Events Pending", func(t *testing.T) {
		buffer := &mocks.MockUsageEventBuffer{ReadBatchResult: testEvents}
		sink := &mocks.MockUsageEventSink{WriteErr: errors.New("database is down")}
		uc := NewArchiveUsageUseCase(buffer, sink, logger, "group", "consumer")

		count, err := uc.ProcessBatch(context.Background())
		if err == nil {
			t.Fatal("expected an error, got nil")
		}
		if count != 0 {
			t.Errorf("expected archived count 0, got %d", count)
		}
		if len(buffer.AckedMessageIDs) != 0 {
			t.Errorf("expected no acks on sink failure, got %d", len(buffer.AckedMessageIDs))
		}
	})

	t.Run("Buffer Read Error", func(t *testing.T) {
		buffer := &mocks.MockUsageEventBuffer{ReadErr: errors.New("redis connection failed")}
		uc := NewArchiveUsageUseCase(buffer, &mocks.MockUsageEventSink{}, logger, "group", "consumer")

		if _, err := uc.ProcessBatch(context.Background()); err == nil {
			t.Fatal("expected an error, got nil")
		}
	})

	t.Run("No Events To Archive", func(t *testing.T) {
		buffer := &mocks.MockUsageEventBuffer{}
		uc := NewArchiveUsageUseCase(buffer, &mocks.MockUsageEventSink{}, logger, "group", "consumer")

		count, err := uc.ProcessBatch(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if count != 0 {
			t.Errorf("expected archived count 0, got %d", count)
		}
	})
}

func TestArchiveUsageUseCase_PruneExpired(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Drops Events Past Retention", func(t *testing.T) {
		sink := &mocks.MockUsageEventSink{
			Written: []domain.UsageEvent{
				{Timestamp: time.Now().Add(-40 * 24 * time.Hour)},
				{Timestamp: time.Now().Add(-1 * time.Hour)},
			},
		}
		uc := NewArchiveUsageUseCase(&mocks.MockUsageEventBuffer{}, sink, logger, "group", "consumer")

		dropped, err := uc.PruneExpired(context.Background(), 30*24*time.Hour)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if dropped != 1 {
			t.Errorf("expected 1 dropped event, got %d", dropped)
		}
		if len(sink.Written) != 1 {
			t.Errorf("expected 1 retained event, got %d", len(sink.Written))
		}
	})

	t.Run("Prune Failure Propagates", func(t *testing.T) {
		sink := &mocks.MockUsageEventSink{PruneErr: errors.New("lock timeout")}
		uc := NewArchiveUsageUseCase(&mocks.MockUsageEventBuffer{}, sink, logger, "group", "consumer")

		if _, err := uc.PruneExpired(context.Background(), time.Hour); err == nil {
			t.Fatal("expected an error, got nil")
		}
	})
}
