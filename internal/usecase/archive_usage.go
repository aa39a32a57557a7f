package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/fisioflow/mentorship-api/internal/domain"
)

const (
	archiveBatchSize    = 1000
	archiveRetryCount   = 3
	archiveRetryBackoff = 1 * time.Second
)

// ArchiveUsageUseCase drains buffered usage events into the structured sink.
// Events are acknowledged in the buffer only after the sink write succeeds;
// the sink upsert keeps redelivery idempotent.
type ArchiveUsageUseCase struct {
	buffer   domain.UsageEventBuffer
	sink     domain.UsageEventSink
	logger   *slog.Logger
	group    string
	consumer string
}

// NewArchiveUsageUseCase creates a new use case for archiving usage events.
func NewArchiveUsageUseCase(buffer domain.UsageEventBuffer, sink domain.UsageEventSink, logger *slog.Logger, group, consumer string) *ArchiveUsageUseCase {
	return &ArchiveUsageUseCase{
		buffer:   buffer,
		sink:     sink,
		logger:   logger,
		group:    group,
		consumer: consumer,
	}
}

// ProcessBatch reads one batch from the buffer, writes it to the sink with
// retries, and acknowledges it. It returns the number of archived events.
func (uc *ArchiveUsageUseCase) ProcessBatch(ctx context.Context) (int, error) {
	events, err := uc.buffer.ReadBatch(ctx, uc.group, uc.consumer, archiveBatchSize)
	if err != nil {
		uc.logger.Error("failed to read usage event batch", "error", err)
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	if err := uc.writeWithRetry(ctx, events); err != nil {
		uc.logger.Error("failed to archive usage events after retries", "error", err)
		// Unacked events stay pending in the buffer and will be redelivered.
		return 0, err
	}

	messageIDs := make([]string, len(events))
	for i, event := range events {
		messageIDs[i] = event.StreamMessageID
	}
	if err := uc.buffer.Acknowledge(ctx, uc.group, messageIDs...); err != nil {
		uc.logger.Error("failed to acknowledge usage events", "error", err)
		// Redelivery is harmless, the sink write is an upsert on event_id.
		return 0, err
	}

	uc.logger.Debug("archived usage event batch", "count", len(events))
	return len(events), nil
}

// PruneExpired drops archived events older than the retention window and
// returns the number removed.
func (uc *ArchiveUsageUseCase) PruneExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	dropped, err := uc.sink.PruneOlderThan(ctx, cutoff)
	if err != nil {
		uc.logger.Error("failed to prune expired usage events", "error", err)
		return 0, err
	}
	if dropped > 0 {
		uc.logger.Info("pruned expired usage events", "count", dropped, "cutoff", cutoff)
	}
	return dropped, nil
}

func (uc *ArchiveUsageUseCase) writeWithRetry(ctx context.Context, events []domain.UsageEvent) error {
	var lastErr error
	for i := 0; i < archiveRetryCount; i++ {
		err := uc.sink.WriteBatch(ctx, events)
		if err == nil {
			return nil
		}
		lastErr = err
		uc.logger.Warn("failed to write usage batch to sink, retrying", "attempt", i+1, "error", err)
		select {
		case <-time.After(archiveRetryBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
