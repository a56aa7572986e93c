package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sourcehire/talent-api/internal/dto"
	"github.com/sourcehire/talent-api/internal/models"
)

// BucketItemRepository owns bucket membership rows. display_order values in
// one bucket are kept a dense zero-based permutation across every mutation.
type BucketItemRepository struct {
	db *sqlx.DB
}

// NewBucketItemRepository constructs the repository.
func NewBucketItemRepository(db *sqlx.DB) *BucketItemRepository {
	return &BucketItemRepository{db: db}
}

const itemColumns = `id, bucket_id, resume_id, display_order, notes, rating, status, added_at`

// lockBucket takes the bucket row lock so concurrent membership mutations on
// the same bucket serialize. Returns the current version.
func lockBucket(ctx context.Context, tx *sqlx.Tx, bucketID string) (int, error) {
	var version int
	if err := tx.GetContext(ctx, &version, `SELECT version FROM buckets WHERE id = $1 FOR UPDATE`, bucketID); err != nil {
		return 0, fmt.Errorf("lock bucket: %w", err)
	}
	return version, nil
}

func bumpBucketVersion(ctx context.Context, tx *sqlx.Tx, bucketID string) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE buckets SET version = version + 1, updated_at = $2 WHERE id = $1`,
		bucketID, time.Now().UTC()); err != nil {
		return fmt.Errorf("bump bucket version: %w", err)
	}
	return nil
}

// resequence rewrites display_order as a dense zero-based run preserving the
// current relative order, breaking ties on item id.
func resequence(ctx context.Context, tx *sqlx.Tx, bucketID string) error {
	const query = `
UPDATE bucket_items bi
SET display_order = seq.rn - 1
FROM (
	SELECT id, ROW_NUMBER() OVER (ORDER BY display_order ASC, id ASC) AS rn
	FROM bucket_items
	WHERE bucket_id = $1
) seq
WHERE bi.id = seq.id AND bi.display_order <> seq.rn - 1`

	if _, err := tx.ExecContext(ctx, query, bucketID); err != nil {
		return fmt.Errorf("resequence bucket items: %w", err)
	}
	return nil
}

// AddItems appends the resumes to the bucket, skipping ones already present.
// Returns the number of memberships actually created.
func (r *BucketItemRepository) AddItems(ctx context.Context, bucketID string, resumeIDs []string) (added int, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin add items: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = lockBucket(ctx, tx, bucketID); err != nil {
		return 0, err
	}

	const insertQuery = `
INSERT INTO bucket_items (id, bucket_id, resume_id, display_order, notes, rating, status, added_at)
SELECT $1, $2, $3,
	COALESCE((SELECT MAX(display_order) + 1 FROM bucket_items WHERE bucket_id = $2), 0),
	'', NULL, '', $4
ON CONFLICT (bucket_id, resume_id) DO NOTHING`

	now := time.Now().UTC()
	for _, resumeID := range resumeIDs {
		result, execErr := tx.ExecContext(ctx, insertQuery, uuid.NewString(), bucketID, resumeID, now)
		if execErr != nil {
			err = fmt.Errorf("insert bucket item: %w", execErr)
			return 0, err
		}
		affected, raErr := result.RowsAffected()
		if raErr != nil {
			err = fmt.Errorf("insert bucket item rows: %w", raErr)
			return 0, err
		}
		added += int(affected)
	}

	if added > 0 {
		if err = bumpBucketVersion(ctx, tx, bucketID); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit add items: %w", err)
	}
	return added, nil
}

// Remove deletes the given items from the bucket and closes the ordering
// gap. Absent ids are ignored; the returned count is actual deletions.
func (r *BucketItemRepository) Remove(ctx context.Context, bucketID string, itemIDs []string) (removed int, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin remove items: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = lockBucket(ctx, tx, bucketID); err != nil {
		return 0, err
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM bucket_items WHERE bucket_id = $1 AND id = ANY($2)`,
		bucketID, pq.Array(itemIDs))
	if err != nil {
		return 0, fmt.Errorf("delete bucket items: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete bucket items rows: %w", err)
	}
	removed = int(affected)

	if removed > 0 {
		if err = resequence(ctx, tx, bucketID); err != nil {
			return 0, err
		}
		if err = bumpBucketVersion(ctx, tx, bucketID); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit remove items: %w", err)
	}
	return removed, nil
}

// Reorder applies the caller's complete ordering. The submitted id set must
// equal the bucket's current item set and the bucket version must match;
// otherwise nothing is written.
func (r *BucketItemRepository) Reorder(ctx context.Context, bucketID string, orderedIDs []string, expectedVersion int) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	version, err := lockBucket(ctx, tx, bucketID)
	if err != nil {
		return err
	}
	if version != expectedVersion {
		err = ErrVersionMismatch
		return err
	}

	var currentIDs []string
	if err = tx.SelectContext(ctx, &currentIDs,
		`SELECT id FROM bucket_items WHERE bucket_id = $1`, bucketID); err != nil {
		return fmt.Errorf("load bucket item ids: %w", err)
	}

	if !sameIDSet(currentIDs, orderedIDs) {
		err = ErrOrderSetMismatch
		return err
	}

	const query = `
UPDATE bucket_items bi
SET display_order = ord.position - 1
FROM (
	SELECT id, ordinality AS position
	FROM UNNEST($2::text[]) WITH ORDINALITY AS t(id, ordinality)
) ord
WHERE bi.id = ord.id AND bi.bucket_id = $1`

	if _, err = tx.ExecContext(ctx, query, bucketID, pq.Array(orderedIDs)); err != nil {
		return fmt.Errorf("apply reorder: %w", err)
	}

	if err = bumpBucketVersion(ctx, tx, bucketID); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}

func sameIDSet(current, submitted []string) bool {
	if len(current) != len(submitted) {
		return false
	}
	set := make(map[string]struct{}, len(current))
	for _, id := range current {
		set[id] = struct{}{}
	}
	for _, id := range submitted {
		if _, ok := set[id]; !ok {
			return false
		}
		delete(set, id)
	}
	return len(set) == 0
}

// FindItem loads one membership row. sql.ErrNoRows passes through.
func (r *BucketItemRepository) FindItem(ctx context.Context, bucketID, itemID string) (*models.BucketItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM bucket_items WHERE bucket_id = $1 AND id = $2`, itemColumns)

	var item models.BucketItem
	if err := r.db.GetContext(ctx, &item, query, bucketID, itemID); err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItems loads the requested membership rows that exist in the bucket.
func (r *BucketItemRepository) FindItems(ctx context.Context, bucketID string, itemIDs []string) ([]models.BucketItem, error) {
	query := fmt.Sprintf(`
SELECT %s FROM bucket_items
WHERE bucket_id = $1 AND id = ANY($2)
ORDER BY display_order ASC, id ASC`, itemColumns)

	var items []models.BucketItem
	if err := r.db.SelectContext(ctx, &items, query, bucketID, pq.Array(itemIDs)); err != nil {
		return nil, fmt.Errorf("load bucket items: %w", err)
	}
	return items, nil
}

// HasResume reports whether the resume is already a member of the bucket.
func (r *BucketItemRepository) HasResume(ctx context.Context, bucketID, resumeID string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM bucket_items WHERE bucket_id = $1 AND resume_id = $2)`,
		bucketID, resumeID); err != nil {
		return false, fmt.Errorf("check bucket membership: %w", err)
	}
	return exists, nil
}

// UpdateMeta patches recruiter metadata on one item. Nil fields are left
// untouched. Returns false when the item does not exist.
func (r *BucketItemRepository) UpdateMeta(ctx context.Context, bucketID, itemID string, notes *string, rating *int, status *string) (bool, error) {
	const query = `
UPDATE bucket_items
SET notes = COALESCE($3, notes),
	rating = CASE WHEN $4::int IS NULL THEN rating ELSE $4 END,
	status = COALESCE($5, status)
WHERE bucket_id = $1 AND id = $2`

	result, err := r.db.ExecContext(ctx, query, bucketID, itemID, notes, rating, status)
	if err != nil {
		return false, fmt.Errorf("update bucket item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update bucket item rows: %w", err)
	}
	return affected == 1, nil
}

// ListItems returns one page of the bucket's items joined with resume
// projections, plus the total count. Sorting always breaks ties on item id so
// pagination stays deterministic.
func (r *BucketItemRepository) ListItems(ctx context.Context, bucketID string, query dto.BucketItemQuery) ([]dto.BucketItemView, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM bucket_items WHERE bucket_id = $1`, bucketID); err != nil {
		return nil, 0, fmt.Errorf("count bucket items: %w", err)
	}

	sortColumn := "bi.display_order"
	if query.SortBy == models.BucketItemSortAddedAt {
		sortColumn = "bi.added_at"
	}
	direction := "ASC"
	if query.SortOrder == "desc" {
		direction = "DESC"
	}

	listQuery := fmt.Sprintf(`
SELECT bi.id, bi.bucket_id, bi.resume_id, bi.display_order, bi.notes, bi.rating, bi.status, bi.added_at,
	r.display_name, r.title, r.country, r.city
FROM bucket_items bi
JOIN resumes r ON r.id = bi.resume_id
WHERE bi.bucket_id = $1
ORDER BY %s %s, bi.id ASC
LIMIT $2 OFFSET $3`, sortColumn, direction)

	offset := (query.Page - 1) * query.PageSize
	var items []dto.BucketItemView
	if err := r.db.SelectContext(ctx, &items, listQuery, bucketID, query.PageSize, offset); err != nil {
		return nil, 0, fmt.Errorf("list bucket items: %w", err)
	}
	return items, total, nil
}
