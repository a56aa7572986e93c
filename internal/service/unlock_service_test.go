package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sourcehire/talent-api/internal/dto"
	"github.com/sourcehire/talent-api/internal/models"
	appErrors "github.com/sourcehire/talent-api/pkg/errors"
)

type grantStoreStub struct {
	grants    map[string]*models.UnlockGrant
	created   []*models.UnlockGrant
	createErr error
	loseRace  bool
	winner    *models.UnlockGrant
	activeErr error
}

func (s *grantStoreStub) FindActive(ctx context.Context, ownerID, resumeID string, now time.Time) (*models.UnlockGrant, error) {
	if g, ok := s.grants[resumeID]; ok && now.Before(g.ExpiresAt) {
		return g, nil
	}
	return nil, sql.ErrNoRows
}

func (s *grantStoreStub) ActiveGrants(ctx context.Context, ownerID string, resumeIDs []string, now time.Time) (map[string]models.UnlockGrant, error) {
	if s.activeErr != nil {
		return nil, s.activeErr
	}
	out := make(map[string]models.UnlockGrant)
	for _, id := range resumeIDs {
		if g, ok := s.grants[id]; ok && now.Before(g.ExpiresAt) {
			out[id] = *g
		}
	}
	return out, nil
}

func (s *grantStoreStub) CreateIfAbsent(ctx context.Context, grant *models.UnlockGrant) (bool, error) {
	if s.createErr != nil {
		return false, s.createErr
	}
	if s.loseRace {
		s.grants[grant.ResumeID] = s.winner
		return false, nil
	}
	s.created = append(s.created, grant)
	s.grants[grant.ResumeID] = grant
	return true, nil
}

type creditLedgerStub struct {
	account    *models.CreditAccount
	balanceErr error
	debitErr   error
	refundErr  error
	debits     int
	refunds    int
}

func (s *creditLedgerStub) Balance(ctx context.Context, ownerID string) (*models.CreditAccount, error) {
	if s.balanceErr != nil {
		return nil, s.balanceErr
	}
	return s.account, nil
}

func (s *creditLedgerStub) Debit(ctx context.Context, ownerID string, amount int) error {
	if s.debitErr != nil {
		return s.debitErr
	}
	s.debits += amount
	return nil
}

func (s *creditLedgerStub) Refund(ctx context.Context, ownerID string, amount int) error {
	if s.refundErr != nil {
		return s.refundErr
	}
	s.refunds += amount
	return nil
}

type resumeReaderStub struct {
	resumes map[string]*models.Resume
	err     error
}

func (s *resumeReaderStub) FindByID(ctx context.Context, id string) (*models.Resume, error) {
	if s.err != nil {
		return nil, s.err
	}
	if r, ok := s.resumes[id]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func (s *resumeReaderStub) FindByIDs(ctx context.Context, ids []string) ([]models.Resume, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.Resume, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.resumes[id]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func activeGrantFor(resumeID string, revealed models.RevealedData) *models.UnlockGrant {
	payload, _ := json.Marshal(revealed)
	now := time.Now().UTC()
	return &models.UnlockGrant{
		ID:        "grant-" + resumeID,
		OwnerID:   "owner-1",
		ResumeID:  resumeID,
		Source:    models.UnlockSourceSearch,
		Payload:   payload,
		GrantedAt: now.Add(-time.Hour),
		ExpiresAt: now.Add(time.Hour),
	}
}

func TestUnlockServiceUnlockDebitsAndGrants(t *testing.T) {
	grants := &grantStoreStub{grants: map[string]*models.UnlockGrant{}}
	credits := &creditLedgerStub{}
	resumes := &resumeReaderStub{resumes: map[string]*models.Resume{
		"resume-1": {ID: "resume-1", FullName: "Ada Lovelace", Email: "ada@example.com"},
	}}

	svc := NewUnlockService(grants, credits, resumes, time.Hour, 50, nil, nil, zap.NewNop())
	result, err := svc.Unlock(context.Background(), "owner-1", &dto.UnlockRequest{ResumeID: "resume-1", Source: models.UnlockSourceSearch})
	require.NoError(t, err)
	assert.Equal(t, dto.UnlockOutcomeUnlocked, result.Outcome)
	require.NotNil(t, result.Revealed)
	assert.Equal(t, "ada@example.com", result.Revealed.Email)
	assert.Equal(t, 1, credits.debits)
	assert.Equal(t, 0, credits.refunds)
	require.Len(t, grants.created, 1)
	assert.Equal(t, "owner-1", grants.created[0].OwnerID)
	assert.NotNil(t, result.ExpiresAt)
}

func TestUnlockServiceUnlockIdempotent(t *testing.T) {
	grant := activeGrantFor("resume-1", models.RevealedData{Email: "ada@example.com"})
	grants := &grantStoreStub{grants: map[string]*models.UnlockGrant{"resume-1": grant}}
	credits := &creditLedgerStub{}

	svc := NewUnlockService(grants, credits, &resumeReaderStub{}, time.Hour, 50, nil, nil, zap.NewNop())
	result, err := svc.Unlock(context.Background(), "owner-1", &dto.UnlockRequest{ResumeID: "resume-1", Source: models.UnlockSourceSearch})
	require.NoError(t, err)
	assert.Equal(t, dto.UnlockOutcomeAlreadyUnlocked, result.Outcome)
	assert.Equal(t, "ada@example.com", result.Revealed.Email)
	assert.Equal(t, 0, credits.debits)
}

func TestUnlockServiceExpiredGrantDebitsAgain(t *testing.T) {
	expired := activeGrantFor("resume-1", models.RevealedData{Email: "old@example.com"})
	expired.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	grants := &grantStoreStub{grants: map[string]*models.UnlockGrant{"resume-1": expired}}
	credits := &creditLedgerStub{}
	resumes := &resumeReaderStub{resumes: map[string]*models.Resume{
		"resume-1": {ID: "resume-1", Email: "fresh@example.com"},
	}}

	// A lapsed grant counts for nothing: a new unlock charges and snapshots
	// the current contact data.
	svc := NewUnlockService(grants, credits, resumes, time.Hour, 50, nil, nil, zap.NewNop())
	result, err := svc.Unlock(context.Background(), "owner-1", &dto.UnlockRequest{ResumeID: "resume-1", Source: models.UnlockSourceSearch})
	require.NoError(t, err)
	assert.Equal(t, dto.UnlockOutcomeUnlocked, result.Outcome)
	assert.Equal(t, "fresh@example.com", result.Revealed.Email)
	assert.Equal(t, 1, credits.debits)
}

func TestUnlockServiceUnlockResumeMissing(t *testing.T) {
	grants := &grantStoreStub{grants: map[string]*models.UnlockGrant{}}
	svc := NewUnlockService(grants, &creditLedgerStub{}, &resumeReaderStub{}, time.Hour, 50, nil, nil, zap.NewNop())

	_, err := svc.Unlock(context.Background(), "owner-1", &dto.UnlockRequest{ResumeID: "ghost", Source: models.UnlockSourceBucket})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUnlockServiceUnlockInsufficientCredits(t *testing.T) {
	grants := &grantStoreStub{grants: map[string]*models.UnlockGrant{}}
	credits := &creditLedgerStub{debitErr: appErrors.ErrInsufficientCredits}
	resumes := &resumeReaderStub{resumes: map[string]*models.Resume{"resume-1": {ID: "resume-1"}}}

	svc := NewUnlockService(grants, credits, resumes, time.Hour, 50, nil, nil, zap.NewNop())
	_, err := svc.Unlock(context.Background(), "owner-1", &dto.UnlockRequest{ResumeID: "resume-1", Source: models.UnlockSourceSearch})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInsufficientCredits.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, credits.refunds)
}

func TestUnlockServiceUnlockLostRaceRefunds(t *testing.T) {
	winner := activeGrantFor("resume-1", models.RevealedData{Email: "winner@example.com"})
	grants := &grantStoreStub{grants: map[string]*models.UnlockGrant{}, loseRace: true, winner: winner}
	credits := &creditLedgerStub{}
	resumes := &resumeReaderStub{resumes: map[string]*models.Resume{
		"resume-1": {ID: "resume-1", Email: "stale@example.com"},
	}}

	svc := NewUnlockService(grants, credits, resumes, time.Hour, 50, nil, nil, zap.NewNop())
	result, err := svc.Unlock(context.Background(), "owner-1", &dto.UnlockRequest{ResumeID: "resume-1", Source: models.UnlockSourceSearch})
	require.NoError(t, err)
	assert.Equal(t, dto.UnlockOutcomeAlreadyUnlocked, result.Outcome)
	// The caller gets the winning grant's snapshot and their debit back.
	assert.Equal(t, "winner@example.com", result.Revealed.Email)
	assert.Equal(t, 1, credits.debits)
	assert.Equal(t, 1, credits.refunds)
}

func TestUnlockServiceUnlockGrantWriteFailureRefunds(t *testing.T) {
	grants := &grantStoreStub{grants: map[string]*models.UnlockGrant{}, createErr: errors.New("connection reset")}
	credits := &creditLedgerStub{}
	resumes := &resumeReaderStub{resumes: map[string]*models.Resume{"resume-1": {ID: "resume-1"}}}

	svc := NewUnlockService(grants, credits, resumes, time.Hour, 50, nil, nil, zap.NewNop())
	_, err := svc.Unlock(context.Background(), "owner-1", &dto.UnlockRequest{ResumeID: "resume-1", Source: models.UnlockSourceSearch})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTransientStore.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 1, credits.refunds)
}

func TestUnlockServiceRevealLocked(t *testing.T) {
	grants := &grantStoreStub{grants: map[string]*models.UnlockGrant{}}
	svc := NewUnlockService(grants, &creditLedgerStub{}, &resumeReaderStub{}, time.Hour, 50, nil, nil, zap.NewNop())

	_, err := svc.Reveal(context.Background(), "owner-1", "resume-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUnlockServiceStatusLocked(t *testing.T) {
	grants := &grantStoreStub{grants: map[string]*models.UnlockGrant{}}
	svc := NewUnlockService(grants, &creditLedgerStub{}, &resumeReaderStub{}, time.Hour, 50, nil, nil, zap.NewNop())

	status, err := svc.Status(context.Background(), "owner-1", "resume-1")
	require.NoError(t, err)
	assert.False(t, status.Unlocked)
	assert.Nil(t, status.ExpiresAt)
}

func TestUnlockServiceBulkUnlockCounts(t *testing.T) {
	grant := activeGrantFor("resume-1", models.RevealedData{Email: "ada@example.com"})
	grants := &grantStoreStub{grants: map[string]*models.UnlockGrant{"resume-1": grant}}
	credits := &creditLedgerStub{account: &models.CreditAccount{OwnerID: "owner-1", CreditsRemaining: 5}}
	resumes := &resumeReaderStub{resumes: map[string]*models.Resume{
		"resume-2": {ID: "resume-2", Email: "grace@example.com"},
	}}

	svc := NewUnlockService(grants, credits, resumes, time.Hour, 50, nil, nil, zap.NewNop())
	req := &dto.BulkUnlockRequest{ResumeIDs: []string{"resume-1", "resume-2", "resume-2"}, Source: models.UnlockSourceBucket}
	resp, err := svc.BulkUnlock(context.Background(), "owner-1", req)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.UnlockedCount)
	assert.Equal(t, 1, resp.AlreadyUnlockedCount)
	assert.Equal(t, 1, resp.CreditsCharged)
	// The duplicate resume-2 entry is processed once.
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 1, credits.debits)
}

func TestUnlockServiceBulkUnlockInsufficientBalance(t *testing.T) {
	grants := &grantStoreStub{grants: map[string]*models.UnlockGrant{}}
	credits := &creditLedgerStub{account: &models.CreditAccount{OwnerID: "owner-1", CreditsRemaining: 1}}
	resumes := &resumeReaderStub{resumes: map[string]*models.Resume{
		"resume-1": {ID: "resume-1"},
		"resume-2": {ID: "resume-2"},
	}}

	svc := NewUnlockService(grants, credits, resumes, time.Hour, 50, nil, nil, zap.NewNop())
	req := &dto.BulkUnlockRequest{ResumeIDs: []string{"resume-1", "resume-2"}, Source: models.UnlockSourceSearch}
	_, err := svc.BulkUnlock(context.Background(), "owner-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInsufficientCredits.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, credits.debits)
}

func TestUnlockServiceBulkUnlockOverLimit(t *testing.T) {
	grants := &grantStoreStub{grants: map[string]*models.UnlockGrant{}}
	svc := NewUnlockService(grants, &creditLedgerStub{}, &resumeReaderStub{}, time.Hour, 2, nil, nil, zap.NewNop())

	req := &dto.BulkUnlockRequest{ResumeIDs: []string{"a", "b", "c"}, Source: models.UnlockSourceSearch}
	_, err := svc.BulkUnlock(context.Background(), "owner-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
