package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// UsageRepository implements domain.UsageRepository over the mentorship
// tables. All queries are read-only aggregates.
type UsageRepository struct {
	db *sql.DB
}

// NewUsageRepository creates a new PostgreSQL usage repository.
func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) CountInterns(ctx context.Context, mentorID uuid.UUID, since time.Time) (int64, error) {
	return r.countOwned(ctx, "count interns",
		`SELECT COUNT(*) FROM interns WHERE mentor_id = $1`,
		`SELECT COUNT(*) FROM interns WHERE mentor_id = $1 AND created_at >= $2`,
		mentorID, since)
}

func (r *UsageRepository) CountCases(ctx context.Context, mentorID uuid.UUID, since time.Time) (int64, error) {
	return r.countOwned(ctx, "count cases",
		`SELECT COUNT(*) FROM educational_cases WHERE created_by = $1`,
		`SELECT COUNT(*) FROM educational_cases WHERE created_by = $1 AND created_at >= $2`,
		mentorID, since)
}

func (r *UsageRepository) CountResources(ctx context.Context, mentorID uuid.UUID, since time.Time) (int64, error) {
	return r.countOwned(ctx, "count resources",
		`SELECT COUNT(*) FROM educational_resources WHERE uploaded_by = $1`,
		`SELECT COUNT(*) FROM educational_resources WHERE uploaded_by = $1 AND created_at >= $2`,
		mentorID, since)
}

func (r *UsageRepository) CountSessions(ctx context.Context, mentorID uuid.UUID, since time.Time) (int64, error) {
	return r.countOwned(ctx, "count sessions",
		`SELECT COUNT(*) FROM mentorship_sessions WHERE mentor_id = $1`,
		`SELECT COUNT(*) FROM mentorship_sessions WHERE mentor_id = $1 AND scheduled_at >= $2`,
		mentorID, since)
}

func (r *UsageRepository) CountCustomCompetencies(ctx context.Context, mentorID uuid.UUID) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM competencies WHERE created_by = $1 AND is_custom = true`
	if err := r.db.QueryRowContext(ctx, query, mentorID).Scan(&count); err != nil {
		return 0, storageErr("count custom competencies", err)
	}
	return count, nil
}

// StorageUsedBytes sums the account's stored resource sizes. Deliberately
// unwindowed: storage reflects what is held now, not recent uploads.
func (r *UsageRepository) StorageUsedBytes(ctx context.Context, mentorID uuid.UUID) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(file_size), 0) FROM educational_resources WHERE uploaded_by = $1`
	if err := r.db.QueryRowContext(ctx, query, mentorID).Scan(&total); err != nil {
		return 0, storageErr("sum storage", err)
	}
	return total, nil
}

func (r *UsageRepository) LastActivity(ctx context.Context, mentorID uuid.UUID) (time.Time, error) {
	var last sql.NullTime
	query := `SELECT MAX(updated_at) FROM mentorship_sessions WHERE mentor_id = $1`
	if err := r.db.QueryRowContext(ctx, query, mentorID).Scan(&last); err != nil {
		return time.Time{}, storageErr("last activity", err)
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return last.Time, nil
}

func (r *UsageRepository) countOwned(ctx context.Context, op, unwindowed, windowed string, mentorID uuid.UUID, since time.Time) (int64, error) {
	var (
		count int64
		err   error
	)
	if since.IsZero() {
		err = r.db.QueryRowContext(ctx, unwindowed, mentorID).Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx, windowed, mentorID, since).Scan(&count)
	}
	if err != nil {
		return 0, storageErr(op, err)
	}
	return count, nil
}
