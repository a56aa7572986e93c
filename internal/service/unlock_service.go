package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sourcehire/talent-api/internal/dto"
	"github.com/sourcehire/talent-api/internal/models"
	appErrors "github.com/sourcehire/talent-api/pkg/errors"
)

const unlockCost = 1

type grantStore interface {
	FindActive(ctx context.Context, ownerID, resumeID string, now time.Time) (*models.UnlockGrant, error)
	ActiveGrants(ctx context.Context, ownerID string, resumeIDs []string, now time.Time) (map[string]models.UnlockGrant, error)
	CreateIfAbsent(ctx context.Context, grant *models.UnlockGrant) (bool, error)
}

type creditLedger interface {
	Balance(ctx context.Context, ownerID string) (*models.CreditAccount, error)
	Debit(ctx context.Context, ownerID string, amount int) error
	Refund(ctx context.Context, ownerID string, amount int) error
}

type resumeReader interface {
	FindByID(ctx context.Context, id string) (*models.Resume, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Resume, error)
}

// UnlockService implements the paid reveal flow: debit first, then write the
// grant, refund if the grant cannot be persisted or a concurrent unlock won.
type UnlockService struct {
	grants    grantStore
	credits   creditLedger
	resumes   resumeReader
	grantTTL  time.Duration
	bulkLimit int
	metrics   *MetricsService
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewUnlockService constructs the unlock service.
func NewUnlockService(grants grantStore, credits creditLedger, resumes resumeReader, grantTTL time.Duration, bulkLimit int, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *UnlockService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if grantTTL <= 0 {
		grantTTL = 90 * 24 * time.Hour
	}
	if bulkLimit <= 0 {
		bulkLimit = 50
	}
	return &UnlockService{
		grants:    grants,
		credits:   credits,
		resumes:   resumes,
		grantTTL:  grantTTL,
		bulkLimit: bulkLimit,
		metrics:   metrics,
		validate:  validate,
		logger:    logger,
	}
}

// Status reports whether the owner holds an active grant for the resume. It is
// a pure read and never spends credits.
func (s *UnlockService) Status(ctx context.Context, ownerID, resumeID string) (*dto.UnlockStatusResponse, error) {
	grant, err := s.grants.FindActive(ctx, ownerID, resumeID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dto.UnlockStatusResponse{ResumeID: resumeID, Unlocked: false}, nil
		}
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to check unlock status")
	}
	return &dto.UnlockStatusResponse{ResumeID: resumeID, Unlocked: true, ExpiresAt: &grant.ExpiresAt}, nil
}

// StatusMap returns the owner's active grants for the given resume ids. Used
// by search and bucket listings to annotate rows without side effects.
func (s *UnlockService) StatusMap(ctx context.Context, ownerID string, resumeIDs []string) (map[string]models.UnlockGrant, error) {
	grants, err := s.grants.ActiveGrants(ctx, ownerID, resumeIDs, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to load unlock statuses")
	}
	return grants, nil
}

// Reveal returns the snapshot stored on the owner's active grant. Without an
// active grant the resume stays locked regardless of what the caller already
// paid in a previous, now expired, period.
func (s *UnlockService) Reveal(ctx context.Context, ownerID, resumeID string) (*models.RevealedData, error) {
	grant, err := s.grants.FindActive(ctx, ownerID, resumeID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "resume is locked")
		}
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to load unlock grant")
	}
	return decodeRevealed(grant)
}

// Unlock reveals one resume, debiting a credit unless an active grant already
// covers it. Re-unlocking inside the grant window is free and idempotent.
func (s *UnlockService) Unlock(ctx context.Context, ownerID string, req *dto.UnlockRequest) (*dto.UnlockResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid unlock request")
	}
	if !req.Source.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "source must be search or bucket")
	}

	result, err := s.unlockOne(ctx, ownerID, req.ResumeID, req.Source)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordUnlock(result.Outcome)
	return result, nil
}

// BulkUnlock applies the unlock flow to each resume in order. Already-active
// grants are free; the up-front affordability check therefore counts only the
// resumes that still need a debit.
func (s *UnlockService) BulkUnlock(ctx context.Context, ownerID string, req *dto.BulkUnlockRequest) (*dto.BulkUnlockResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid bulk unlock request")
	}
	if !req.Source.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "source must be search or bucket")
	}
	if len(req.ResumeIDs) > s.bulkLimit {
		return nil, appErrors.Clone(appErrors.ErrValidation, "too many resumes in one bulk unlock")
	}

	now := time.Now().UTC()
	active, err := s.grants.ActiveGrants(ctx, ownerID, req.ResumeIDs, now)
	if err != nil {
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to load unlock statuses")
	}

	needed := 0
	seen := make(map[string]bool, len(req.ResumeIDs))
	for _, id := range req.ResumeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := active[id]; !ok {
			needed++
		}
	}

	if needed > 0 {
		account, err := s.credits.Balance(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if account.CreditsRemaining < needed*unlockCost {
			return nil, appErrors.Clone(appErrors.ErrInsufficientCredits, "")
		}
	}

	response := &dto.BulkUnlockResponse{Results: make([]dto.UnlockResult, 0, len(req.ResumeIDs))}
	processed := make(map[string]bool, len(req.ResumeIDs))
	for _, resumeID := range req.ResumeIDs {
		if processed[resumeID] {
			continue
		}
		processed[resumeID] = true

		if grant, ok := active[resumeID]; ok {
			revealed, decodeErr := decodeRevealed(&grant)
			if decodeErr != nil {
				response.Results = append(response.Results, dto.UnlockResult{
					ResumeID: resumeID, Outcome: dto.UnlockOutcomeError, Message: "stored grant is unreadable",
				})
				continue
			}
			expires := grant.ExpiresAt
			response.AlreadyUnlockedCount++
			response.Results = append(response.Results, dto.UnlockResult{
				ResumeID: resumeID, Outcome: dto.UnlockOutcomeAlreadyUnlocked, ExpiresAt: &expires, Revealed: revealed,
			})
			s.metrics.RecordUnlock(dto.UnlockOutcomeAlreadyUnlocked)
			continue
		}

		result, unlockErr := s.unlockOne(ctx, ownerID, resumeID, req.Source)
		if unlockErr != nil {
			appErr := appErrors.FromError(unlockErr)
			outcome := dto.UnlockOutcomeError
			if appErr.Code == appErrors.ErrInsufficientCredits.Code {
				outcome = dto.UnlockOutcomeInsufficientCredits
			}
			response.Results = append(response.Results, dto.UnlockResult{
				ResumeID: resumeID, Outcome: outcome, Message: appErr.Message,
			})
			s.metrics.RecordUnlock(outcome)
			continue
		}

		switch result.Outcome {
		case dto.UnlockOutcomeUnlocked:
			response.UnlockedCount++
			response.CreditsCharged += unlockCost
		case dto.UnlockOutcomeAlreadyUnlocked:
			response.AlreadyUnlockedCount++
		}
		s.metrics.RecordUnlock(result.Outcome)
		response.Results = append(response.Results, *result)
	}

	return response, nil
}

// unlockOne runs the full flow for a single resume: idempotency check, debit,
// grant upsert, compensating refund on failure or lost race.
func (s *UnlockService) unlockOne(ctx context.Context, ownerID, resumeID string, source models.UnlockSource) (*dto.UnlockResult, error) {
	now := time.Now().UTC()

	existing, err := s.grants.FindActive(ctx, ownerID, resumeID, now)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to check unlock status")
	}
	if existing != nil {
		return alreadyUnlockedResult(existing)
	}

	resume, err := s.resumes.FindByID(ctx, resumeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resume not found")
		}
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to load resume")
	}

	if err := s.credits.Debit(ctx, ownerID, unlockCost); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(resume.Revealed())
	if err != nil {
		s.compensate(ctx, ownerID, resumeID, "snapshot marshal failed")
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to snapshot resume data")
	}

	grant := &models.UnlockGrant{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		ResumeID:  resumeID,
		Source:    source,
		Payload:   payload,
		GrantedAt: now,
		ExpiresAt: now.Add(s.grantTTL),
	}

	created, err := s.grants.CreateIfAbsent(ctx, grant)
	if err != nil {
		s.compensate(ctx, ownerID, resumeID, "grant write failed")
		return nil, appErrors.Wrap(err, appErrors.ErrTransientStore.Code, appErrors.ErrTransientStore.Status, appErrors.ErrTransientStore.Message)
	}
	if !created {
		// A concurrent unlock wrote an active grant first. Refund our debit
		// and serve the winner's grant.
		s.compensate(ctx, ownerID, resumeID, "lost unlock race")
		winner, findErr := s.grants.FindActive(ctx, ownerID, resumeID, time.Now().UTC())
		if findErr != nil {
			return nil, appErrors.Wrap(findErr, "INTERNAL_ERROR", 500, "failed to load winning grant")
		}
		return alreadyUnlockedResult(winner)
	}

	revealed := resume.Revealed()
	expires := grant.ExpiresAt
	return &dto.UnlockResult{
		ResumeID:  resumeID,
		Outcome:   dto.UnlockOutcomeUnlocked,
		ExpiresAt: &expires,
		Revealed:  &revealed,
	}, nil
}

// compensate refunds a debit whose grant never materialised. Failures here
// are logged loudly for manual reconciliation; they must not mask the
// original error.
func (s *UnlockService) compensate(ctx context.Context, ownerID, resumeID, reason string) {
	if err := s.credits.Refund(ctx, ownerID, unlockCost); err != nil {
		s.logger.Error("unlock refund failed, credits leaked",
			zap.String("ownerId", ownerID),
			zap.String("resumeId", resumeID),
			zap.String("reason", reason),
			zap.Error(err))
		return
	}
	s.logger.Warn("unlock debit refunded",
		zap.String("ownerId", ownerID),
		zap.String("resumeId", resumeID),
		zap.String("reason", reason))
}

func alreadyUnlockedResult(grant *models.UnlockGrant) (*dto.UnlockResult, error) {
	revealed, err := decodeRevealed(grant)
	if err != nil {
		return nil, err
	}
	expires := grant.ExpiresAt
	return &dto.UnlockResult{
		ResumeID:  grant.ResumeID,
		Outcome:   dto.UnlockOutcomeAlreadyUnlocked,
		ExpiresAt: &expires,
		Revealed:  revealed,
	}, nil
}

func decodeRevealed(grant *models.UnlockGrant) (*models.RevealedData, error) {
	var revealed models.RevealedData
	if err := json.Unmarshal(grant.Payload, &revealed); err != nil {
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "stored grant payload is unreadable")
	}
	return &revealed, nil
}
