package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fisioflow/mentorship-api/internal/domain"
)

const usageStreamKey = "usage_events"

// UsageEventBuffer implements domain.UsageEventBuffer on a Redis Stream.
// The stream is capped with an approximate MAXLEN so the buffer bounds its
// own retention even if the archiver lags.
type UsageEventBuffer struct {
	client *redis.Client
	logger *slog.Logger
	maxLen int64
}

// NewUsageEventBuffer creates a Redis-backed usage event buffer and ensures
// the consumer group exists.
func NewUsageEventBuffer(client *redis.Client, logger *slog.Logger, group string, maxLen int64) (*UsageEventBuffer, error) {
	b := &UsageEventBuffer{
		client: client,
		logger: logger.With("component", "usage_event_buffer"),
		maxLen: maxLen,
	}

	err := client.XGroupCreateMkStream(context.Background(), usageStreamKey, group, "0").Err()
	if err != nil && !isBusyGroupError(err) {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return b, nil
}

// Publish appends one usage event to the stream.
func (b *UsageEventBuffer) Publish(ctx context.Context, event domain.UsageEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal usage event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: usageStreamKey,
		MaxLen: b.maxLen,
		Approx: true,
		Values: map[string]interface{}{"payload": payload},
	}
	if err := b.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to XADD usage event: %w", err)
	}
	return nil
}

// ReadBatch reads up to count pending events for a consumer group member.
func (b *UsageEventBuffer) ReadBatch(ctx context.Context, group, consumer string, count int) ([]domain.UsageEvent, error) {
	args := &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{usageStreamKey, ">"},
		Count:    int64(count),
		Block:    2 * time.Second,
	}

	streams, err := b.client.XReadGroup(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to XREADGROUP usage events: %w", err)
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}

	messages := streams[0].Messages
	events := make([]domain.UsageEvent, 0, len(messages))
	for _, msg := range messages {
		payload, ok := msg.Values["payload"].(string)
		if !ok {
			b.logger.Warn("invalid message format in stream, skipping", "message_id", msg.ID)
			continue
		}

		var event domain.UsageEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			b.logger.Warn("failed to unmarshal usage event, skipping", "message_id", msg.ID, "error", err)
			continue
		}
		event.StreamMessageID = msg.ID
		events = append(events, event)
	}

	return events, nil
}

// Acknowledge marks processed messages as done in the consumer group.
func (b *UsageEventBuffer) Acknowledge(ctx context.Context, group string, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := b.client.XAck(ctx, usageStreamKey, group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("failed to XACK usage events: %w", err)
	}
	return nil
}

func isBusyGroupError(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}
