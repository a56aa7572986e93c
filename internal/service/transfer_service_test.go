package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sourcehire/talent-api/internal/dto"
	"github.com/sourcehire/talent-api/internal/models"
	appErrors "github.com/sourcehire/talent-api/pkg/errors"
)

func newTransferServiceForTest(buckets *bucketStoreStub, items *bucketItemStoreStub, activity *activitySinkStub, unlocks *unlockAnnotatorStub) *TransferService {
	return NewTransferService(buckets, items, activity, unlocks, nil, zap.NewNop())
}

func transferBuckets() *bucketStoreStub {
	return ownedBucketStub(
		&models.Bucket{ID: "source", OwnerID: "owner-1", Name: "Screening"},
		&models.Bucket{ID: "target", OwnerID: "owner-1", Name: "Interview"},
	)
}

func TestTransferServiceMovesAddBeforeRemove(t *testing.T) {
	items := &bucketItemStoreStub{
		foundItems: []models.BucketItem{
			{ID: "item-1", BucketID: "source", ResumeID: "resume-1"},
			{ID: "item-2", BucketID: "source", ResumeID: "resume-2"},
		},
		added:   2,
		removed: 2,
	}
	activity := &activitySinkStub{}
	svc := newTransferServiceForTest(transferBuckets(), items, activity, &unlockAnnotatorStub{})

	req := &dto.TransferRequest{TargetBucketID: "target", ItemIDs: []string{"item-1", "item-2"}}
	resp, err := svc.Transfer(context.Background(), "owner-1", "source", req)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.AddedCount)
	assert.Equal(t, 2, resp.RemovedCount)
	// The target add must commit before the source remove so a crash between
	// the two duplicates a reference instead of dropping it.
	assert.Equal(t, []string{"add", "remove"}, items.ops)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, dto.TransferOutcomeMoved, resp.Results[0].Outcome)
	require.Len(t, activity.entries, 1)
	assert.Equal(t, models.ActivityItemsTransferred, activity.entries[0].Action)
	assert.Equal(t, "source", activity.entries[0].BucketID)
}

func TestTransferServiceCopyKeepsSource(t *testing.T) {
	items := &bucketItemStoreStub{
		foundItems: []models.BucketItem{{ID: "item-1", BucketID: "source", ResumeID: "resume-1"}},
		added:      1,
	}
	svc := newTransferServiceForTest(transferBuckets(), items, &activitySinkStub{}, &unlockAnnotatorStub{})

	req := &dto.TransferRequest{TargetBucketID: "target", ItemIDs: []string{"item-1"}, KeepInSource: true}
	resp, err := svc.Transfer(context.Background(), "owner-1", "source", req)
	require.NoError(t, err)
	assert.Equal(t, []string{"add"}, items.ops)
	assert.Equal(t, 0, resp.RemovedCount)
	assert.Equal(t, dto.TransferOutcomeCopied, resp.Results[0].Outcome)
}

func TestTransferServiceReportsPerItemOutcomes(t *testing.T) {
	items := &bucketItemStoreStub{
		foundItems: []models.BucketItem{
			{ID: "item-1", BucketID: "source", ResumeID: "resume-1"},
			{ID: "item-2", BucketID: "source", ResumeID: "resume-2"},
		},
		inBucket: map[string]bool{"resume-2": true},
		added:    1,
		removed:  2,
	}
	svc := newTransferServiceForTest(transferBuckets(), items, &activitySinkStub{}, &unlockAnnotatorStub{})

	req := &dto.TransferRequest{TargetBucketID: "target", ItemIDs: []string{"item-1", "item-2", "ghost"}}
	resp, err := svc.Transfer(context.Background(), "owner-1", "source", req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, dto.TransferOutcomeMoved, resp.Results[0].Outcome)
	assert.Equal(t, dto.TransferOutcomeAlreadyTarget, resp.Results[1].Outcome)
	assert.Equal(t, dto.TransferOutcomeNotFound, resp.Results[2].Outcome)
}

func TestTransferServiceCountsUnlockState(t *testing.T) {
	items := &bucketItemStoreStub{
		foundItems: []models.BucketItem{
			{ID: "item-1", BucketID: "source", ResumeID: "resume-1"},
			{ID: "item-2", BucketID: "source", ResumeID: "resume-2"},
		},
		added:   2,
		removed: 2,
	}
	unlocks := &unlockAnnotatorStub{grants: map[string]models.UnlockGrant{
		"resume-1": {ResumeID: "resume-1", ExpiresAt: time.Now().UTC().Add(time.Hour)},
	}}
	svc := newTransferServiceForTest(transferBuckets(), items, &activitySinkStub{}, unlocks)

	req := &dto.TransferRequest{TargetBucketID: "target", ItemIDs: []string{"item-1", "item-2"}}
	resp, err := svc.Transfer(context.Background(), "owner-1", "source", req)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.UnlockedCount)
	assert.Equal(t, 1, resp.LockedCount)
}

func TestTransferServiceSameBucketRejected(t *testing.T) {
	svc := newTransferServiceForTest(transferBuckets(), &bucketItemStoreStub{}, &activitySinkStub{}, &unlockAnnotatorStub{})

	req := &dto.TransferRequest{TargetBucketID: "source", ItemIDs: []string{"item-1"}}
	_, err := svc.Transfer(context.Background(), "owner-1", "source", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTransferServiceArchivedTargetRejected(t *testing.T) {
	buckets := ownedBucketStub(
		&models.Bucket{ID: "source", OwnerID: "owner-1"},
		&models.Bucket{ID: "target", OwnerID: "owner-1", Archived: true},
	)
	svc := newTransferServiceForTest(buckets, &bucketItemStoreStub{}, &activitySinkStub{}, &unlockAnnotatorStub{})

	req := &dto.TransferRequest{TargetBucketID: "target", ItemIDs: []string{"item-1"}}
	_, err := svc.Transfer(context.Background(), "owner-1", "source", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestTransferServiceForeignTargetHidden(t *testing.T) {
	buckets := ownedBucketStub(
		&models.Bucket{ID: "source", OwnerID: "owner-1"},
		&models.Bucket{ID: "target", OwnerID: "someone-else"},
	)
	svc := newTransferServiceForTest(buckets, &bucketItemStoreStub{}, &activitySinkStub{}, &unlockAnnotatorStub{})

	req := &dto.TransferRequest{TargetBucketID: "target", ItemIDs: []string{"item-1"}}
	_, err := svc.Transfer(context.Background(), "owner-1", "source", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTransferServiceBulkRemove(t *testing.T) {
	buckets := ownedBucketStub(&models.Bucket{ID: "bucket-1", OwnerID: "owner-1"})
	items := &bucketItemStoreStub{
		foundItems: []models.BucketItem{{ID: "item-1", BucketID: "bucket-1", ResumeID: "resume-1"}},
		removed:    1,
	}
	activity := &activitySinkStub{}
	svc := newTransferServiceForTest(buckets, items, activity, &unlockAnnotatorStub{})

	resp, err := svc.BulkRemove(context.Background(), "owner-1", "bucket-1",
		&dto.BulkRemoveRequest{ItemIDs: []string{"item-1", "ghost"}})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.RemovedCount)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, dto.TransferOutcomeRemoved, resp.Results[0].Outcome)
	assert.Equal(t, dto.TransferOutcomeNotFound, resp.Results[1].Outcome)
	require.Len(t, activity.entries, 1)
	assert.Equal(t, models.ActivityItemsRemoved, activity.entries[0].Action)
}
