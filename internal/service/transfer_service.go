package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sourcehire/talent-api/internal/dto"
	"github.com/sourcehire/talent-api/internal/models"
	appErrors "github.com/sourcehire/talent-api/pkg/errors"
)

// TransferService moves or copies items between an owner's buckets. The add
// into the target always commits before anything is removed from the source,
// so a crash mid-transfer can duplicate a reference but never lose one.
type TransferService struct {
	buckets  bucketStore
	items    bucketItemStore
	activity activitySink
	unlocks  unlockAnnotator
	validate *validator.Validate
	logger   *zap.Logger
}

// NewTransferService constructs the transfer service.
func NewTransferService(buckets bucketStore, items bucketItemStore, activity activitySink, unlocks unlockAnnotator, validate *validator.Validate, logger *zap.Logger) *TransferService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferService{
		buckets:  buckets,
		items:    items,
		activity: activity,
		unlocks:  unlocks,
		validate: validate,
		logger:   logger,
	}
}

// Transfer moves (or with keepInSource, copies) the given source items into
// the target bucket. A resume already present in the target is a per-item
// no-op, not a failure. Unlock state travels with the owner, so the transfer
// never grants or revokes anything; the response merely counts it.
func (s *TransferService) Transfer(ctx context.Context, ownerID, sourceBucketID string, req *dto.TransferRequest) (*dto.TransferResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid transfer payload")
	}
	if sourceBucketID == req.TargetBucketID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "source and target bucket must differ")
	}

	source, err := s.ownedBucket(ctx, ownerID, sourceBucketID)
	if err != nil {
		return nil, err
	}
	target, err := s.ownedBucket(ctx, ownerID, req.TargetBucketID)
	if err != nil {
		return nil, err
	}
	if target.Archived {
		return nil, appErrors.Clone(appErrors.ErrConflict, "target bucket is archived")
	}

	requested := dedupe(req.ItemIDs)
	found, err := s.items.FindItems(ctx, source.ID, requested)
	if err != nil {
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to load source items")
	}
	byID := make(map[string]models.BucketItem, len(found))
	resumeIDs := make([]string, 0, len(found))
	inTarget := make(map[string]bool, len(found))
	for _, item := range found {
		byID[item.ID] = item
		resumeIDs = append(resumeIDs, item.ResumeID)
		has, hasErr := s.items.HasResume(ctx, target.ID, item.ResumeID)
		if hasErr != nil {
			return nil, appErrors.Wrap(hasErr, "INTERNAL_ERROR", 500, "failed to check target membership")
		}
		inTarget[item.ResumeID] = has
	}

	response := &dto.TransferResponse{Results: make([]dto.TransferItemResult, 0, len(requested))}

	if len(resumeIDs) > 0 {
		added, addErr := s.items.AddItems(ctx, target.ID, resumeIDs)
		if addErr != nil {
			return nil, appErrors.Wrap(addErr, "INTERNAL_ERROR", 500, "failed to add items to target bucket")
		}
		response.AddedCount = added
	}

	// Target membership is confirmed for every found item; removing from the
	// source is now safe.
	if !req.KeepInSource && len(found) > 0 {
		removeIDs := make([]string, 0, len(found))
		for _, item := range found {
			removeIDs = append(removeIDs, item.ID)
		}
		removed, removeErr := s.items.Remove(ctx, source.ID, removeIDs)
		if removeErr != nil {
			return nil, appErrors.Wrap(removeErr, "INTERNAL_ERROR", 500, "failed to remove items from source bucket")
		}
		response.RemovedCount = removed
	}

	outcome := dto.TransferOutcomeMoved
	if req.KeepInSource {
		outcome = dto.TransferOutcomeCopied
	}
	for _, itemID := range requested {
		item, ok := byID[itemID]
		if !ok {
			response.Results = append(response.Results, dto.TransferItemResult{
				ItemID: itemID, Outcome: dto.TransferOutcomeNotFound, Message: "item not in source bucket",
			})
			continue
		}
		itemOutcome := outcome
		if inTarget[item.ResumeID] {
			itemOutcome = dto.TransferOutcomeAlreadyTarget
		}
		response.Results = append(response.Results, dto.TransferItemResult{
			ItemID: itemID, ResumeID: item.ResumeID, Outcome: itemOutcome,
		})
	}

	grants, err := s.unlocks.StatusMap(ctx, ownerID, resumeIDs)
	if err != nil {
		return nil, err
	}
	for _, resumeID := range resumeIDs {
		if _, ok := grants[resumeID]; ok {
			response.UnlockedCount++
		} else {
			response.LockedCount++
		}
	}

	if len(found) > 0 {
		keep := req.KeepInSource
		s.append(ctx, source.ID, ownerID, models.ActivityItemsTransferred, models.ActivityMetadata{
			Count:          len(found),
			ResumeIDs:      resumeIDs,
			SourceBucketID: source.ID,
			TargetBucketID: target.ID,
			KeepInSource:   &keep,
		})
	}

	return response, nil
}

// BulkRemove deletes the given items from the bucket. Ids not present are
// reported per item and do not fail the batch.
func (s *TransferService) BulkRemove(ctx context.Context, ownerID, bucketID string, req *dto.BulkRemoveRequest) (*dto.BulkRemoveResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid remove payload")
	}

	bucket, err := s.ownedBucket(ctx, ownerID, bucketID)
	if err != nil {
		return nil, err
	}

	requested := dedupe(req.ItemIDs)
	found, err := s.items.FindItems(ctx, bucket.ID, requested)
	if err != nil {
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to load bucket items")
	}
	present := make(map[string]models.BucketItem, len(found))
	for _, item := range found {
		present[item.ID] = item
	}

	removed := 0
	if len(found) > 0 {
		removeIDs := make([]string, 0, len(found))
		for _, item := range found {
			removeIDs = append(removeIDs, item.ID)
		}
		removed, err = s.items.Remove(ctx, bucket.ID, removeIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to remove bucket items")
		}
	}

	response := &dto.BulkRemoveResponse{
		RemovedCount: removed,
		Results:      make([]dto.TransferItemResult, 0, len(requested)),
	}
	for _, itemID := range requested {
		item, ok := present[itemID]
		if !ok {
			response.Results = append(response.Results, dto.TransferItemResult{
				ItemID: itemID, Outcome: dto.TransferOutcomeNotFound, Message: "item not in bucket",
			})
			continue
		}
		response.Results = append(response.Results, dto.TransferItemResult{
			ItemID: itemID, ResumeID: item.ResumeID, Outcome: dto.TransferOutcomeRemoved,
		})
	}

	if removed > 0 {
		itemIDs := make([]string, 0, len(found))
		for _, item := range found {
			itemIDs = append(itemIDs, item.ID)
		}
		s.append(ctx, bucket.ID, ownerID, models.ActivityItemsRemoved,
			models.ActivityMetadata{Count: removed, ItemIDs: itemIDs})
	}

	return response, nil
}

func (s *TransferService) ownedBucket(ctx context.Context, ownerID, bucketID string) (*models.Bucket, error) {
	bucket, err := s.buckets.FindByID(ctx, bucketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "bucket not found")
		}
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to load bucket")
	}
	if bucket.OwnerID != ownerID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "bucket not found")
	}
	return bucket, nil
}

func (s *TransferService) append(ctx context.Context, bucketID, actorID, action string, meta models.ActivityMetadata) {
	entry := &models.ActivityEntry{
		BucketID: bucketID,
		Action:   action,
		ActorID:  actorID,
		Metadata: meta.Marshal(),
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		s.logger.Error("activity append failed",
			zap.String("bucketId", bucketID),
			zap.String("action", action),
			zap.Error(err))
	}
}
