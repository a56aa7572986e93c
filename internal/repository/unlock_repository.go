package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sourcehire/talent-api/internal/models"
)

// UnlockRepository persists unlock grants. Uniqueness on (owner_id,
// resume_id) plus a conditional upsert make grant creation race-safe: of two
// concurrent unlocks exactly one writes a row.
type UnlockRepository struct {
	db *sqlx.DB
}

// NewUnlockRepository constructs the repository.
func NewUnlockRepository(db *sqlx.DB) *UnlockRepository {
	return &UnlockRepository{db: db}
}

const grantColumns = `id, owner_id, resume_id, source, payload, granted_at, expires_at`

// FindActive returns the non-expired grant for the pair, or sql.ErrNoRows.
func (r *UnlockRepository) FindActive(ctx context.Context, ownerID, resumeID string, now time.Time) (*models.UnlockGrant, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM unlock_grants
WHERE owner_id = $1 AND resume_id = $2 AND expires_at > $3`, grantColumns)

	var grant models.UnlockGrant
	if err := r.db.GetContext(ctx, &grant, query, ownerID, resumeID, now); err != nil {
		return nil, err
	}
	return &grant, nil
}

// ActiveGrants returns the owner's non-expired grants for the given resume
// ids keyed by resume id. Used to annotate search results and bucket items
// without side effects.
func (r *UnlockRepository) ActiveGrants(ctx context.Context, ownerID string, resumeIDs []string, now time.Time) (map[string]models.UnlockGrant, error) {
	if len(resumeIDs) == 0 {
		return map[string]models.UnlockGrant{}, nil
	}

	query := fmt.Sprintf(`
SELECT %s
FROM unlock_grants
WHERE owner_id = $1 AND resume_id = ANY($2) AND expires_at > $3`, grantColumns)

	var grants []models.UnlockGrant
	if err := r.db.SelectContext(ctx, &grants, query, ownerID, pq.Array(resumeIDs), now); err != nil {
		return nil, fmt.Errorf("load active grants: %w", err)
	}

	byResume := make(map[string]models.UnlockGrant, len(grants))
	for _, grant := range grants {
		byResume[grant.ResumeID] = grant
	}
	return byResume, nil
}

// CreateIfAbsent writes the grant unless an active one already exists for the
// pair. An expired row is replaced in place; an active row wins the race and
// the method reports false so the caller can refund its debit.
func (r *UnlockRepository) CreateIfAbsent(ctx context.Context, grant *models.UnlockGrant) (bool, error) {
	const query = `
INSERT INTO unlock_grants (id, owner_id, resume_id, source, payload, granted_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (owner_id, resume_id) DO UPDATE
SET source = EXCLUDED.source,
	payload = EXCLUDED.payload,
	granted_at = EXCLUDED.granted_at,
	expires_at = EXCLUDED.expires_at
WHERE unlock_grants.expires_at <= EXCLUDED.granted_at`

	result, err := r.db.ExecContext(ctx, query,
		grant.ID, grant.OwnerID, grant.ResumeID, grant.Source, grant.Payload, grant.GrantedAt, grant.ExpiresAt)
	if err != nil {
		return false, fmt.Errorf("create unlock grant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create unlock grant rows: %w", err)
	}
	return affected == 1, nil
}
