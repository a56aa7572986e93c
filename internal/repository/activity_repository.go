package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sourcehire/talent-api/internal/models"
)

// ActivityRepository persists the append-only bucket activity log. Rows are
// never updated; only the bucket cascade delete removes them.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append writes one activity entry. Unrecognised actions are rejected so the
// log stays queryable by a closed vocabulary.
func (r *ActivityRepository) Append(ctx context.Context, entry *models.ActivityEntry) error {
	if !models.KnownActivityAction(entry.Action) {
		return fmt.Errorf("unknown activity action %q", entry.Action)
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	const query = `
INSERT INTO bucket_activity (id, bucket_id, action, actor_id, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.BucketID, entry.Action, entry.ActorID, entry.Metadata, entry.CreatedAt); err != nil {
		return fmt.Errorf("append bucket activity: %w", err)
	}
	return nil
}

// ListByBucket returns the newest entries first, capped at limit.
func (r *ActivityRepository) ListByBucket(ctx context.Context, bucketID string, limit int) ([]models.ActivityEntry, error) {
	const query = `
SELECT id, bucket_id, action, actor_id, metadata, created_at
FROM bucket_activity
WHERE bucket_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`

	var entries []models.ActivityEntry
	if err := r.db.SelectContext(ctx, &entries, query, bucketID, limit); err != nil {
		return nil, fmt.Errorf("list bucket activity: %w", err)
	}
	return entries, nil
}
