package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fisioflow/mentorship-api/internal/adapter/anonymizer"
	"github.com/fisioflow/mentorship-api/internal/domain"
)

// RecordUsageUseCase enriches, anonymizes, and buffers one usage event per
// completed request. Recording is best-effort: callers log failures and move
// on, the response is never held up or failed by it.
type RecordUsageUseCase struct {
	buffer     domain.UsageEventBuffer
	anonymizer *anonymizer.Anonymizer
	logger     *slog.Logger
}

// NewRecordUsageUseCase creates a RecordUsageUseCase.
func NewRecordUsageUseCase(buffer domain.UsageEventBuffer, anon *anonymizer.Anonymizer, logger *slog.Logger) *RecordUsageUseCase {
	return &RecordUsageUseCase{
		buffer:     buffer,
		anonymizer: anon,
		logger:     logger,
	}
}

// Record buffers the event.
func (uc *RecordUsageUseCase) Record(ctx context.Context, event *domain.UsageEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	uc.anonymizer.Scrub(event)

	if err := uc.buffer.Publish(ctx, *event); err != nil {
		uc.logger.Error("failed to buffer usage event", "error", err, "event_id", event.ID)
		return err
	}

	return nil
}
