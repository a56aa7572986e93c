package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sourcehire/talent-api/internal/models"
)

// Sentinel errors surfaced by bucket persistence so services can map them to
// the public error taxonomy.
var (
	// ErrVersionMismatch signals an optimistic-lock failure: the caller's
	// bucket version is stale.
	ErrVersionMismatch = errors.New("bucket version mismatch")
	// ErrOrderSetMismatch signals a reorder whose id set does not equal the
	// bucket's current item set.
	ErrOrderSetMismatch = errors.New("reorder id set does not match bucket items")
)

// BucketRepository owns bucket metadata rows.
type BucketRepository struct {
	db *sqlx.DB
}

// NewBucketRepository constructs the repository.
func NewBucketRepository(db *sqlx.DB) *BucketRepository {
	return &BucketRepository{db: db}
}

const bucketColumns = `
b.id, b.owner_id, b.name, b.description, b.color, b.archived, b.display_order,
b.version, b.created_at, b.updated_at,
(SELECT COUNT(*) FROM bucket_items bi WHERE bi.bucket_id = b.id) AS item_count`

// Create inserts a bucket at the end of the owner's display order.
func (r *BucketRepository) Create(ctx context.Context, bucket *models.Bucket) error {
	const query = `
INSERT INTO buckets (id, owner_id, name, description, color, archived, display_order, version, created_at, updated_at)
SELECT $1, $2, $3, $4, $5, FALSE,
	COALESCE((SELECT MAX(display_order) + 1 FROM buckets WHERE owner_id = $2), 0),
	0, $6, $6`

	if _, err := r.db.ExecContext(ctx, query,
		bucket.ID, bucket.OwnerID, bucket.Name, bucket.Description, bucket.Color, bucket.CreatedAt); err != nil {
		return fmt.Errorf("insert bucket: %w", err)
	}
	return nil
}

// FindByID loads a bucket with its item count. sql.ErrNoRows passes through.
func (r *BucketRepository) FindByID(ctx context.Context, id string) (*models.Bucket, error) {
	query := fmt.Sprintf(`SELECT %s FROM buckets b WHERE b.id = $1`, bucketColumns)

	var bucket models.Bucket
	if err := r.db.GetContext(ctx, &bucket, query, id); err != nil {
		return nil, err
	}
	return &bucket, nil
}

// NameExists reports whether the owner already has a bucket with the name
// (case-insensitive), optionally excluding one bucket id.
func (r *BucketRepository) NameExists(ctx context.Context, ownerID, name, excludeID string) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM buckets
	WHERE owner_id = $1 AND LOWER(name) = LOWER($2) AND id <> $3
)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, ownerID, name, excludeID); err != nil {
		return false, fmt.Errorf("check bucket name: %w", err)
	}
	return exists, nil
}

// ListByOwner returns one page of the owner's buckets ordered by display
// order with id as the tie breaker, plus the total count.
func (r *BucketRepository) ListByOwner(ctx context.Context, ownerID string, includeArchived bool, limit, offset int) ([]models.Bucket, int, error) {
	filter := "b.owner_id = $1"
	if !includeArchived {
		filter += " AND b.archived = FALSE"
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM buckets b WHERE %s`, filter)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, ownerID); err != nil {
		return nil, 0, fmt.Errorf("count buckets: %w", err)
	}

	listQuery := fmt.Sprintf(`
SELECT %s
FROM buckets b
WHERE %s
ORDER BY b.display_order ASC, b.id ASC
LIMIT $2 OFFSET $3`, bucketColumns, filter)

	var buckets []models.Bucket
	if err := r.db.SelectContext(ctx, &buckets, listQuery, ownerID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list buckets: %w", err)
	}
	return buckets, total, nil
}

// Update writes metadata changes guarded by the expected version. Returns
// ErrVersionMismatch when the row moved on under the caller.
func (r *BucketRepository) Update(ctx context.Context, bucket *models.Bucket, expectedVersion int) error {
	const query = `
UPDATE buckets
SET name = $2, description = $3, color = $4, archived = $5,
	version = version + 1, updated_at = $6
WHERE id = $1 AND version = $7`

	result, err := r.db.ExecContext(ctx, query,
		bucket.ID, bucket.Name, bucket.Description, bucket.Color, bucket.Archived,
		time.Now().UTC(), expectedVersion)
	if err != nil {
		return fmt.Errorf("update bucket: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update bucket rows: %w", err)
	}
	if affected == 0 {
		return ErrVersionMismatch
	}
	return nil
}

// Delete removes the bucket, cascading its items and activity rows in one
// transaction.
func (r *BucketRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bucket delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM bucket_activity WHERE bucket_id = $1`, id); err != nil {
		return fmt.Errorf("delete bucket activity: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM bucket_items WHERE bucket_id = $1`, id); err != nil {
		return fmt.Errorf("delete bucket items: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM buckets WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete bucket: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bucket delete: %w", err)
	}
	return nil
}
