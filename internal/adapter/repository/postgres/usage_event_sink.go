package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/fisioflow/mentorship-api/internal/domain"
)

// UsageEventSink implements domain.UsageEventSink for PostgreSQL.
type UsageEventSink struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewUsageEventSink creates a new PostgreSQL usage event sink.
func NewUsageEventSink(db *sql.DB, logger *slog.Logger) *UsageEventSink {
	return &UsageEventSink{db: db, logger: logger}
}

// WriteBatch writes a batch of usage events using the COPY protocol, staged
// through a temp table and merged with ON CONFLICT so redelivered batches
// stay idempotent on event_id.
func (s *UsageEventSink) WriteBatch(ctx context.Context, events []domain.UsageEvent) error {
	if len(events) == 0 {
		return nil
	}

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin usage event batch", err)
	}
	defer txn.Rollback() // Rollback is a no-op if Commit() is called

	tempTableName := "usage_events_temp_import"
	_, err = txn.ExecContext(ctx, `CREATE TEMP TABLE `+tempTableName+` (LIKE usage_events INCLUDING DEFAULTS) ON COMMIT DROP;`)
	if err != nil {
		return storageErr("stage usage event batch", err)
	}

	stmt, err := txn.Prepare(pq.CopyIn(tempTableName,
		"event_id", "account_id", "tier", "method", "path", "status_code",
		"occurred_at", "response_time_ms", "user_agent", "ip_address", "anonymized"))
	if err != nil {
		return storageErr("prepare usage event copy", err)
	}

	for _, event := range events {
		_, err = stmt.ExecContext(ctx,
			event.ID, event.AccountID, string(event.Tier), event.Method, event.Path,
			event.StatusCode, event.Timestamp, event.ResponseTime.Milliseconds(),
			event.UserAgent, event.IPAddress, event.Anonymized)
		if err != nil {
			_ = stmt.Close()
			return storageErr("copy usage event", err)
		}
	}
	if err := stmt.Close(); err != nil {
		return storageErr("flush usage event copy", err)
	}

	upsertQuery := `
		INSERT INTO usage_events (event_id, account_id, tier, method, path, status_code,
			occurred_at, response_time_ms, user_agent, ip_address, anonymized)
		SELECT event_id, account_id, tier, method, path, status_code,
			occurred_at, response_time_ms, user_agent, ip_address, anonymized
		FROM ` + tempTableName + `
		ON CONFLICT (event_id) DO NOTHING;
	`
	if _, err := txn.ExecContext(ctx, upsertQuery); err != nil {
		return storageErr("merge usage event batch", err)
	}

	if err := txn.Commit(); err != nil {
		return storageErr("commit usage event batch", err)
	}
	return nil
}

// PruneOlderThan drops usage events recorded before cutoff.
func (s *UsageEventSink) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM usage_events WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, storageErr("prune usage events", err)
	}
	dropped, err := result.RowsAffected()
	if err != nil {
		return 0, storageErr("count pruned usage events", err)
	}
	return dropped, nil
}
