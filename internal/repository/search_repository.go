package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sourcehire/talent-api/internal/models"
)

// SearchRepository persists saved searches and their result-count samples.
type SearchRepository struct {
	db *sqlx.DB
}

// NewSearchRepository constructs the repository.
func NewSearchRepository(db *sqlx.DB) *SearchRepository {
	return &SearchRepository{db: db}
}

const savedSearchColumns = `id, owner_id, search_name, filter_hash, filters, use_count, latest_result_count, created_at, updated_at`

// UpsertExecution records one executed search. A new canonical filter set
// inserts a row with use_count 1; a repeat bumps use_count on the existing
// row instead of duplicating it. Returns the resulting row.
func (r *SearchRepository) UpsertExecution(ctx context.Context, ownerID, searchName, filterHash string, filters json.RawMessage, resultCount int) (*models.SavedSearch, error) {
	query := fmt.Sprintf(`
INSERT INTO saved_searches (id, owner_id, search_name, filter_hash, filters, use_count, latest_result_count, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, 1, $6, $7, $7)
ON CONFLICT (owner_id, filter_hash) DO UPDATE
SET use_count = saved_searches.use_count + 1,
	latest_result_count = EXCLUDED.latest_result_count,
	search_name = CASE WHEN EXCLUDED.search_name <> '' THEN EXCLUDED.search_name ELSE saved_searches.search_name END,
	updated_at = EXCLUDED.updated_at
RETURNING %s`, savedSearchColumns)

	var saved models.SavedSearch
	if err := r.db.GetContext(ctx, &saved, query,
		uuid.NewString(), ownerID, searchName, filterHash, filters, resultCount, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("upsert saved search: %w", err)
	}
	return &saved, nil
}

// Touch records a replay of an existing saved search.
func (r *SearchRepository) Touch(ctx context.Context, id string, resultCount int) error {
	const query = `
UPDATE saved_searches
SET use_count = use_count + 1, latest_result_count = $2, updated_at = $3
WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, resultCount, time.Now().UTC()); err != nil {
		return fmt.Errorf("touch saved search: %w", err)
	}
	return nil
}

// UpdateLatestCount refreshes the stored count without counting as a use.
// Used by the background sampler.
func (r *SearchRepository) UpdateLatestCount(ctx context.Context, id string, resultCount int) error {
	const query = `UPDATE saved_searches SET latest_result_count = $2 WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, resultCount); err != nil {
		return fmt.Errorf("update latest result count: %w", err)
	}
	return nil
}

// FindByID loads one saved search. sql.ErrNoRows passes through.
func (r *SearchRepository) FindByID(ctx context.Context, id string) (*models.SavedSearch, error) {
	query := fmt.Sprintf(`SELECT %s FROM saved_searches WHERE id = $1`, savedSearchColumns)

	var saved models.SavedSearch
	if err := r.db.GetContext(ctx, &saved, query, id); err != nil {
		return nil, err
	}
	return &saved, nil
}

// ListByOwner returns one page of the owner's history, most recently used
// first, plus the total count.
func (r *SearchRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]models.SavedSearch, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM saved_searches WHERE owner_id = $1`, ownerID); err != nil {
		return nil, 0, fmt.Errorf("count saved searches: %w", err)
	}

	query := fmt.Sprintf(`
SELECT %s
FROM saved_searches
WHERE owner_id = $1
ORDER BY updated_at DESC, id DESC
LIMIT $2 OFFSET $3`, savedSearchColumns)

	var rows []models.SavedSearch
	if err := r.db.SelectContext(ctx, &rows, query, ownerID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list saved searches: %w", err)
	}
	return rows, total, nil
}

// Delete removes a saved search and its sample series. Returns false when no
// row matched.
func (r *SearchRepository) Delete(ctx context.Context, ownerID, id string) (deleted bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin saved search delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM search_result_samples WHERE saved_search_id = $1`, id); err != nil {
		return false, fmt.Errorf("delete search samples: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM saved_searches WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete saved search: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete saved search rows: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit saved search delete: %w", err)
	}
	return affected == 1, nil
}

// AppendSample adds one point to the saved search's result-count series.
func (r *SearchRepository) AppendSample(ctx context.Context, savedSearchID string, resultCount int) error {
	const query = `
INSERT INTO search_result_samples (id, saved_search_id, result_count, recorded_at)
VALUES ($1, $2, $3, $4)`

	if _, err := r.db.ExecContext(ctx, query,
		uuid.NewString(), savedSearchID, resultCount, time.Now().UTC()); err != nil {
		return fmt.Errorf("append result sample: %w", err)
	}
	return nil
}

// ListSamples returns the full series ordered oldest first.
func (r *SearchRepository) ListSamples(ctx context.Context, savedSearchID string) ([]models.ResultCountSample, error) {
	const query = `
SELECT id, saved_search_id, result_count, recorded_at
FROM search_result_samples
WHERE saved_search_id = $1
ORDER BY recorded_at ASC, id ASC`

	var samples []models.ResultCountSample
	if err := r.db.SelectContext(ctx, &samples, query, savedSearchID); err != nil {
		return nil, fmt.Errorf("list result samples: %w", err)
	}
	return samples, nil
}

// ListDueForSampling returns saved searches with no sample newer than the
// cutoff, oldest activity first, capped at limit.
func (r *SearchRepository) ListDueForSampling(ctx context.Context, cutoff time.Time, limit int) ([]models.SavedSearch, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM saved_searches ss
WHERE NOT EXISTS (
	SELECT 1 FROM search_result_samples s
	WHERE s.saved_search_id = ss.id AND s.recorded_at > $1
)
ORDER BY ss.updated_at ASC
LIMIT $2`, savedSearchColumns)

	var rows []models.SavedSearch
	if err := r.db.SelectContext(ctx, &rows, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list searches due for sampling: %w", err)
	}
	return rows, nil
}
