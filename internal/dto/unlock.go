package dto

import (
	"time"

	"github.com/sourcehire/talent-api/internal/models"
)

// Unlock outcome codes reported per resume. AlreadyUnlocked is a success, not
// an error: re-requests inside the grant window are free.
const (
	UnlockOutcomeUnlocked            = "unlocked"
	UnlockOutcomeAlreadyUnlocked     = "already_unlocked"
	UnlockOutcomeInsufficientCredits = "insufficient_credits"
	UnlockOutcomeError               = "error"
)

// UnlockRequest asks to reveal one resume's private data.
type UnlockRequest struct {
	ResumeID string              `json:"resumeId" validate:"required"`
	Source   models.UnlockSource `json:"source" validate:"required"`
}

// BulkUnlockRequest applies the unlock flow to several resumes at once.
type BulkUnlockRequest struct {
	ResumeIDs []string            `json:"resumeIds" validate:"required,min=1,dive,required"`
	Source    models.UnlockSource `json:"source" validate:"required"`
}

// UnlockResult reports the per-resume outcome of an unlock attempt.
type UnlockResult struct {
	ResumeID  string               `json:"resumeId"`
	Outcome   string               `json:"outcome"`
	ExpiresAt *time.Time           `json:"expiresAt,omitempty"`
	Revealed  *models.RevealedData `json:"revealed,omitempty"`
	Message   string               `json:"message,omitempty"`
}

// BulkUnlockResponse summarises a bulk unlock run. UnlockedCount counts only
// fresh debits; already-active grants cost nothing.
type BulkUnlockResponse struct {
	UnlockedCount        int            `json:"unlockedCount"`
	AlreadyUnlockedCount int            `json:"alreadyUnlockedCount"`
	CreditsCharged       int            `json:"creditsCharged"`
	Results              []UnlockResult `json:"results"`
}

// UnlockStatusResponse is the pure read of a resume's unlock state.
type UnlockStatusResponse struct {
	ResumeID  string     `json:"resumeId"`
	Unlocked  bool       `json:"unlocked"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}
