package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sourcehire/talent-api/internal/models"
)

// CreditRepository persists recruiter credit accounts. The debit path is a
// single conditional update so concurrent unlocks for one owner can never
// drive the balance negative.
type CreditRepository struct {
	db *sqlx.DB
}

// NewCreditRepository constructs the repository.
func NewCreditRepository(db *sqlx.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

// Find loads the owner's credit account. sql.ErrNoRows passes through when
// billing has not provisioned an account yet.
func (r *CreditRepository) Find(ctx context.Context, ownerID string) (*models.CreditAccount, error) {
	const query = `
SELECT owner_id, credits_total, credits_remaining, credits_used_period, period_start, period_end, updated_at
FROM credit_accounts
WHERE owner_id = $1`

	var account models.CreditAccount
	if err := r.db.GetContext(ctx, &account, query, ownerID); err != nil {
		return nil, err
	}
	return &account, nil
}

// Debit atomically spends credits if the remaining balance covers the amount.
// Returns false without mutating anything when it does not (or when no
// account exists; callers distinguish via Find).
func (r *CreditRepository) Debit(ctx context.Context, ownerID string, amount int) (bool, error) {
	const query = `
UPDATE credit_accounts
SET credits_remaining = credits_remaining - $2,
	credits_used_period = credits_used_period + $2,
	updated_at = $3
WHERE owner_id = $1 AND credits_remaining >= $2`

	result, err := r.db.ExecContext(ctx, query, ownerID, amount, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("debit credits: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("debit credits rows: %w", err)
	}
	return affected == 1, nil
}

// Refund compensates a debit whose grant creation failed. The balance is
// clamped to credits_total and period usage floored at zero.
func (r *CreditRepository) Refund(ctx context.Context, ownerID string, amount int) error {
	const query = `
UPDATE credit_accounts
SET credits_remaining = LEAST(credits_total, credits_remaining + $2),
	credits_used_period = GREATEST(0, credits_used_period - $2),
	updated_at = $3
WHERE owner_id = $1`

	if _, err := r.db.ExecContext(ctx, query, ownerID, amount, time.Now().UTC()); err != nil {
		return fmt.Errorf("refund credits: %w", err)
	}
	return nil
}

// RolloverDue resets period usage for every account whose billing period has
// ended and advances the period window. Balance replenishment stays with the
// billing service.
func (r *CreditRepository) RolloverDue(ctx context.Context, now time.Time, periodLength time.Duration) (int, error) {
	const query = `
UPDATE credit_accounts
SET credits_used_period = 0,
	period_start = period_end,
	period_end = period_end + make_interval(secs => $2),
	updated_at = $1
WHERE period_end <= $1`

	result, err := r.db.ExecContext(ctx, query, now, int64(periodLength.Seconds()))
	if err != nil {
		return 0, fmt.Errorf("rollover credit periods: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rollover rows: %w", err)
	}
	return int(affected), nil
}
