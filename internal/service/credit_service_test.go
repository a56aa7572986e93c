package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sourcehire/talent-api/internal/models"
	appErrors "github.com/sourcehire/talent-api/pkg/errors"
)

type creditStoreStub struct {
	account *models.CreditAccount
	debitOK bool
	refunds int
	rolled  int
}

func (s *creditStoreStub) Find(ctx context.Context, ownerID string) (*models.CreditAccount, error) {
	if s.account == nil {
		return nil, sql.ErrNoRows
	}
	return s.account, nil
}

func (s *creditStoreStub) Debit(ctx context.Context, ownerID string, amount int) (bool, error) {
	return s.debitOK, nil
}

func (s *creditStoreStub) Refund(ctx context.Context, ownerID string, amount int) error {
	s.refunds += amount
	return nil
}

func (s *creditStoreStub) RolloverDue(ctx context.Context, now time.Time, periodLength time.Duration) (int, error) {
	return s.rolled, nil
}

func TestCreditServiceBalanceMissingAccount(t *testing.T) {
	svc := NewCreditService(&creditStoreStub{}, 0, nil, zap.NewNop())

	_, err := svc.Balance(context.Background(), "owner-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreditServiceDebitInsufficient(t *testing.T) {
	store := &creditStoreStub{account: &models.CreditAccount{OwnerID: "owner-1", CreditsRemaining: 0}}
	svc := NewCreditService(store, 0, nil, zap.NewNop())

	err := svc.Debit(context.Background(), "owner-1", 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInsufficientCredits.Code, appErrors.FromError(err).Code)
}

func TestCreditServiceDebitUnprovisionedAccount(t *testing.T) {
	svc := NewCreditService(&creditStoreStub{}, 0, nil, zap.NewNop())

	err := svc.Debit(context.Background(), "owner-1", 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreditServiceDebitNonPositiveAmount(t *testing.T) {
	svc := NewCreditService(&creditStoreStub{debitOK: true}, 0, nil, zap.NewNop())

	err := svc.Debit(context.Background(), "owner-1", 0)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreditServiceRefundSkipsNonPositive(t *testing.T) {
	store := &creditStoreStub{}
	svc := NewCreditService(store, 0, nil, zap.NewNop())

	require.NoError(t, svc.Refund(context.Background(), "owner-1", 0))
	assert.Equal(t, 0, store.refunds)

	require.NoError(t, svc.Refund(context.Background(), "owner-1", 2))
	assert.Equal(t, 2, store.refunds)
}

func TestCreditServiceRollover(t *testing.T) {
	svc := NewCreditService(&creditStoreStub{rolled: 3}, 0, nil, zap.NewNop())

	rolled, err := svc.Rollover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, rolled)
}
