package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sourcehire/talent-api/internal/dto"
	"github.com/sourcehire/talent-api/internal/models"
	"github.com/sourcehire/talent-api/internal/repository"
	appErrors "github.com/sourcehire/talent-api/pkg/errors"
)

const (
	defaultPageSize     = 20
	maxPageSize         = 100
	defaultActivityRows = 50
	maxActivityRows     = 200
)

type bucketStore interface {
	Create(ctx context.Context, bucket *models.Bucket) error
	FindByID(ctx context.Context, id string) (*models.Bucket, error)
	NameExists(ctx context.Context, ownerID, name, excludeID string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string, includeArchived bool, limit, offset int) ([]models.Bucket, int, error)
	Update(ctx context.Context, bucket *models.Bucket, expectedVersion int) error
	Delete(ctx context.Context, id string) error
}

type bucketItemStore interface {
	AddItems(ctx context.Context, bucketID string, resumeIDs []string) (int, error)
	Remove(ctx context.Context, bucketID string, itemIDs []string) (int, error)
	Reorder(ctx context.Context, bucketID string, orderedIDs []string, expectedVersion int) error
	FindItem(ctx context.Context, bucketID, itemID string) (*models.BucketItem, error)
	FindItems(ctx context.Context, bucketID string, itemIDs []string) ([]models.BucketItem, error)
	HasResume(ctx context.Context, bucketID, resumeID string) (bool, error)
	UpdateMeta(ctx context.Context, bucketID, itemID string, notes *string, rating *int, status *string) (bool, error)
	ListItems(ctx context.Context, bucketID string, query dto.BucketItemQuery) ([]dto.BucketItemView, int, error)
}

type activitySink interface {
	Append(ctx context.Context, entry *models.ActivityEntry) error
	ListByBucket(ctx context.Context, bucketID string, limit int) ([]models.ActivityEntry, error)
}

type unlockAnnotator interface {
	StatusMap(ctx context.Context, ownerID string, resumeIDs []string) (map[string]models.UnlockGrant, error)
}

// BucketService owns bucket lifecycle and membership: CRUD, ordered item
// management, metadata patches and the per-bucket activity feed.
type BucketService struct {
	buckets  bucketStore
	items    bucketItemStore
	resumes  resumeReader
	activity activitySink
	unlocks  unlockAnnotator
	validate *validator.Validate
	logger   *zap.Logger
}

// NewBucketService constructs the bucket service.
func NewBucketService(buckets bucketStore, items bucketItemStore, resumes resumeReader, activity activitySink, unlocks unlockAnnotator, validate *validator.Validate, logger *zap.Logger) *BucketService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BucketService{
		buckets:  buckets,
		items:    items,
		resumes:  resumes,
		activity: activity,
		unlocks:  unlocks,
		validate: validate,
		logger:   logger,
	}
}

// Create adds a bucket at the end of the owner's display order. Names are
// unique per owner, case-insensitively.
func (s *BucketService) Create(ctx context.Context, ownerID string, req *dto.CreateBucketRequest) (*models.Bucket, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid bucket payload")
	}

	exists, err := s.buckets.NameExists(ctx, ownerID, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to check bucket name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a bucket with this name already exists")
	}

	bucket := &models.Bucket{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.buckets.Create(ctx, bucket); err != nil {
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to create bucket")
	}

	s.record(ctx, bucket.ID, ownerID, models.ActivityBucketCreated, models.ActivityMetadata{NewName: bucket.Name})

	created, err := s.buckets.FindByID(ctx, bucket.ID)
	if err != nil {
		return bucket, nil
	}
	return created, nil
}

// Get loads one of the owner's buckets.
func (s *BucketService) Get(ctx context.Context, ownerID, bucketID string) (*models.Bucket, error) {
	return s.loadOwned(ctx, ownerID, bucketID)
}

// List returns one page of the owner's buckets in display order.
func (s *BucketService) List(ctx context.Context, ownerID string, query dto.BucketListQuery) ([]models.Bucket, *models.Pagination, error) {
	page, pageSize := normalizePage(query.Page, query.PageSize)

	buckets, total, err := s.buckets.ListByOwner(ctx, ownerID, query.IncludeArchived, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to list buckets")
	}
	if buckets == nil {
		buckets = []models.Bucket{}
	}
	return buckets, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Update applies partial metadata changes guarded by the request version.
// Renames keep the per-owner uniqueness rule; archiving is an update of the
// archived flag and gets its own activity action.
func (s *BucketService) Update(ctx context.Context, ownerID, bucketID string, req *dto.UpdateBucketRequest) (*models.Bucket, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid bucket payload")
	}

	bucket, err := s.loadOwned(ctx, ownerID, bucketID)
	if err != nil {
		return nil, err
	}

	oldName := bucket.Name
	archiving := false

	if req.Name != nil && *req.Name != bucket.Name {
		exists, nameErr := s.buckets.NameExists(ctx, ownerID, *req.Name, bucket.ID)
		if nameErr != nil {
			return nil, appErrors.Wrap(nameErr, "INTERNAL_ERROR", 500, "failed to check bucket name")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a bucket with this name already exists")
		}
		bucket.Name = *req.Name
	}
	if req.Description != nil {
		bucket.Description = *req.Description
	}
	if req.Color != nil {
		bucket.Color = *req.Color
	}
	if req.Archived != nil {
		archiving = *req.Archived && !bucket.Archived
		bucket.Archived = *req.Archived
	}

	if err := s.buckets.Update(ctx, bucket, req.Version); err != nil {
		if errors.Is(err, repository.ErrVersionMismatch) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "bucket was modified concurrently, reload and retry")
		}
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to update bucket")
	}

	action := models.ActivityBucketUpdated
	if archiving {
		action = models.ActivityBucketArchived
	}
	meta := models.ActivityMetadata{}
	if oldName != bucket.Name {
		meta.OldName = oldName
		meta.NewName = bucket.Name
	}
	s.record(ctx, bucket.ID, ownerID, action, meta)

	updated, err := s.buckets.FindByID(ctx, bucket.ID)
	if err != nil {
		return bucket, nil
	}
	return updated, nil
}

// Delete removes the bucket with its items and activity rows. Unlock grants
// are untouched: they belong to the owner, not the bucket.
func (s *BucketService) Delete(ctx context.Context, ownerID, bucketID string) error {
	bucket, err := s.loadOwned(ctx, ownerID, bucketID)
	if err != nil {
		return err
	}

	if err := s.buckets.Delete(ctx, bucket.ID); err != nil {
		return appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to delete bucket")
	}

	s.logger.Info("bucket deleted",
		zap.String("bucketId", bucket.ID),
		zap.String("ownerId", ownerID),
		zap.String("name", bucket.Name),
		zap.Int("items", bucket.ItemCount))
	return nil
}

// AddItems appends resumes to the bucket. Resumes already present are skipped
// and unknown resume ids are ignored; the response reports both.
func (s *BucketService) AddItems(ctx context.Context, ownerID, bucketID string, req *dto.AddItemsRequest) (*dto.AddItemsResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid add items payload")
	}

	bucket, err := s.mutableOwned(ctx, ownerID, bucketID)
	if err != nil {
		return nil, err
	}

	unique := dedupe(req.ResumeIDs)
	resumes, err := s.resumes.FindByIDs(ctx, unique)
	if err != nil {
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to load resumes")
	}
	if len(resumes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "none of the resumes exist")
	}

	existingIDs := make([]string, 0, len(resumes))
	for _, resume := range resumes {
		existingIDs = append(existingIDs, resume.ID)
	}

	added, err := s.items.AddItems(ctx, bucket.ID, existingIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to add bucket items")
	}

	if added > 0 {
		s.record(ctx, bucket.ID, ownerID, models.ActivityItemsAdded,
			models.ActivityMetadata{Count: added, ResumeIDs: existingIDs})
	}

	return &dto.AddItemsResponse{AddedCount: added, SkippedCount: len(unique) - added}, nil
}

// UpdateItem patches recruiter metadata on one membership row.
func (s *BucketService) UpdateItem(ctx context.Context, ownerID, bucketID, itemID string, req *dto.UpdateItemRequest) (*models.BucketItem, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid item payload")
	}

	bucket, err := s.loadOwned(ctx, ownerID, bucketID)
	if err != nil {
		return nil, err
	}

	ok, err := s.items.UpdateMeta(ctx, bucket.ID, itemID, req.Notes, req.Rating, req.Status)
	if err != nil {
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to update bucket item")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "bucket item not found")
	}

	s.record(ctx, bucket.ID, ownerID, models.ActivityItemUpdated,
		models.ActivityMetadata{ItemIDs: []string{itemID}})

	item, err := s.items.FindItem(ctx, bucket.ID, itemID)
	if err != nil {
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to reload bucket item")
	}
	return item, nil
}

// Reorder applies the caller's complete desired ordering all-or-nothing.
func (s *BucketService) Reorder(ctx context.Context, ownerID, bucketID string, req *dto.ReorderRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid reorder payload")
	}

	bucket, err := s.mutableOwned(ctx, ownerID, bucketID)
	if err != nil {
		return err
	}

	if err := s.items.Reorder(ctx, bucket.ID, req.ItemIDs, req.Version); err != nil {
		switch {
		case errors.Is(err, repository.ErrVersionMismatch):
			return appErrors.Clone(appErrors.ErrConflict, "bucket was modified concurrently, reload and retry")
		case errors.Is(err, repository.ErrOrderSetMismatch):
			return appErrors.Clone(appErrors.ErrValidation, "ordering must list every bucket item exactly once")
		default:
			return appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to reorder bucket items")
		}
	}

	s.record(ctx, bucket.ID, ownerID, models.ActivityItemsReordered,
		models.ActivityMetadata{Count: len(req.ItemIDs), NewOrder: req.ItemIDs})
	return nil
}

// ListItems returns one page of the bucket's items with the caller's unlock
// status attached to each row.
func (s *BucketService) ListItems(ctx context.Context, ownerID, bucketID string, query dto.BucketItemQuery) ([]dto.BucketItemView, *models.Pagination, error) {
	bucket, err := s.loadOwned(ctx, ownerID, bucketID)
	if err != nil {
		return nil, nil, err
	}

	query.Page, query.PageSize = normalizePage(query.Page, query.PageSize)
	if query.SortBy != models.BucketItemSortAddedAt {
		query.SortBy = models.BucketItemSortDisplayOrder
	}
	if query.SortOrder != "desc" {
		query.SortOrder = "asc"
	}

	items, total, err := s.items.ListItems(ctx, bucket.ID, query)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to list bucket items")
	}

	resumeIDs := make([]string, 0, len(items))
	for _, item := range items {
		resumeIDs = append(resumeIDs, item.ResumeID)
	}
	grants, err := s.unlocks.StatusMap(ctx, ownerID, resumeIDs)
	if err != nil {
		return nil, nil, err
	}
	for i := range items {
		if grant, ok := grants[items[i].ResumeID]; ok {
			expires := grant.ExpiresAt
			items[i].IsUnlocked = true
			items[i].ExpiresAt = &expires
		}
	}

	if items == nil {
		items = []dto.BucketItemView{}
	}
	return items, &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: total}, nil
}

// Activity returns the bucket's newest activity entries.
func (s *BucketService) Activity(ctx context.Context, ownerID, bucketID string, query dto.ActivityQuery) ([]models.ActivityEntry, error) {
	bucket, err := s.loadOwned(ctx, ownerID, bucketID)
	if err != nil {
		return nil, err
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultActivityRows
	}
	if limit > maxActivityRows {
		limit = maxActivityRows
	}

	entries, err := s.activity.ListByBucket(ctx, bucket.ID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to list bucket activity")
	}
	if entries == nil {
		entries = []models.ActivityEntry{}
	}
	return entries, nil
}

// loadOwned fetches the bucket and enforces ownership. A bucket owned by
// someone else reads as not found so ids never leak across owners.
func (s *BucketService) loadOwned(ctx context.Context, ownerID, bucketID string) (*models.Bucket, error) {
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

// mutableOwned is loadOwned plus the archived guard used by membership writes.
func (s *BucketService) mutableOwned(ctx context.Context, ownerID, bucketID string) (*models.Bucket, error) {
	bucket, err := s.loadOwned(ctx, ownerID, bucketID)
	if err != nil {
		return nil, err
	}
	if bucket.Archived {
		return nil, appErrors.Clone(appErrors.ErrConflict, "bucket is archived")
	}
	return bucket, nil
}

// record appends an activity entry. The mutation already committed, so a
// failed append is logged and swallowed rather than undoing user work.
func (s *BucketService) record(ctx context.Context, bucketID, actorID, action string, meta models.ActivityMetadata) {
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

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
