package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sourcehire/talent-api/internal/models"
	appErrors "github.com/sourcehire/talent-api/pkg/errors"
)

type creditStore interface {
	Find(ctx context.Context, ownerID string) (*models.CreditAccount, error)
	Debit(ctx context.Context, ownerID string, amount int) (bool, error)
	Refund(ctx context.Context, ownerID string, amount int) error
	RolloverDue(ctx context.Context, now time.Time, periodLength time.Duration) (int, error)
}

// CreditService owns the unlock ledger: balance reads, the atomic debit used
// by unlocks, compensating refunds and the period rollover.
type CreditService struct {
	credits      creditStore
	periodLength time.Duration
	metrics      *MetricsService
	logger       *zap.Logger
}

// NewCreditService constructs the credit service.
func NewCreditService(credits creditStore, periodLength time.Duration, metrics *MetricsService, logger *zap.Logger) *CreditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if periodLength <= 0 {
		periodLength = 30 * 24 * time.Hour
	}
	return &CreditService{credits: credits, periodLength: periodLength, metrics: metrics, logger: logger}
}

// Balance returns the owner's credit account.
func (s *CreditService) Balance(ctx context.Context, ownerID string) (*models.CreditAccount, error) {
	account, err := s.credits.Find(ctx, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "credit account not provisioned")
		}
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to load credit account")
	}
	return account, nil
}

// Debit spends the given amount atomically. It fails with
// ErrInsufficientCredits when the remaining balance cannot cover it, leaving
// the account untouched.
func (s *CreditService) Debit(ctx context.Context, ownerID string, amount int) error {
	if amount <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "debit amount must be positive")
	}

	ok, err := s.credits.Debit(ctx, ownerID, amount)
	if err != nil {
		return appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to debit credits")
	}
	if !ok {
		// A zero-row debit means either no account or not enough balance;
		// one extra read tells them apart.
		if _, findErr := s.credits.Find(ctx, ownerID); findErr != nil {
			if errors.Is(findErr, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "credit account not provisioned")
			}
			return appErrors.Wrap(findErr, "INTERNAL_ERROR", 500, "failed to load credit account")
		}
		return appErrors.ErrInsufficientCredits
	}

	s.metrics.RecordCreditsSpent(amount)
	return nil
}

// Refund returns credits after a failed or lost grant creation. The repository
// clamps the balance so a refund can never exceed credits_total.
func (s *CreditService) Refund(ctx context.Context, ownerID string, amount int) error {
	if amount <= 0 {
		return nil
	}
	if err := s.credits.Refund(ctx, ownerID, amount); err != nil {
		return fmt.Errorf("refund owner %s: %w", ownerID, err)
	}
	s.metrics.RecordCreditsRefunded(amount)
	return nil
}

// Rollover resets period usage on every account whose billing period ended.
func (s *CreditService) Rollover(ctx context.Context) (int, error) {
	rolled, err := s.credits.RolloverDue(ctx, time.Now().UTC(), s.periodLength)
	if err != nil {
		return 0, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to roll credit periods")
	}
	if rolled > 0 {
		s.logger.Info("credit periods rolled", zap.Int("accounts", rolled))
	}
	return rolled, nil
}
