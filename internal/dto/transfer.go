package dto

// Per-item transfer outcomes.
const (
	TransferOutcomeMoved         = "moved"
	TransferOutcomeCopied        = "copied"
	TransferOutcomeAlreadyTarget = "already_in_target"
	TransferOutcomeRemoved       = "removed"
	TransferOutcomeNotFound      = "not_found"
	TransferOutcomeError         = "error"
)

// TransferRequest moves or copies items from the source bucket (path param)
// into the target bucket.
type TransferRequest struct {
	TargetBucketID string   `json:"targetBucketId" validate:"required"`
	ItemIDs        []string `json:"itemIds" validate:"required,min=1,dive,required"`
	KeepInSource   bool     `json:"keepInSource"`
}

// TransferItemResult reports one item's transfer outcome.
type TransferItemResult struct {
	ItemID   string `json:"itemId"`
	ResumeID string `json:"resumeId,omitempty"`
	Outcome  string `json:"outcome"`
	Message  string `json:"message,omitempty"`
}

// TransferResponse summarises a transfer run. Unlocked/locked counts describe
// the moved resumes' current grant state without granting anything.
type TransferResponse struct {
	AddedCount    int                  `json:"addedCount"`
	RemovedCount  int                  `json:"removedCount"`
	UnlockedCount int                  `json:"unlockedCount"`
	LockedCount   int                  `json:"lockedCount"`
	Results       []TransferItemResult `json:"results"`
}

// BulkRemoveRequest deletes items from a bucket; absent ids are no-ops.
type BulkRemoveRequest struct {
	ItemIDs []string `json:"itemIds" validate:"required,min=1,dive,required"`
}

// BulkRemoveResponse reports the actual removals, which may be fewer than
// requested.
type BulkRemoveResponse struct {
	RemovedCount int                  `json:"removedCount"`
	Results      []TransferItemResult `json:"results"`
}
