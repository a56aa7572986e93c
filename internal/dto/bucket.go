package dto

import "time"

// CreateBucketRequest defines the payload for creating a bucket.
type CreateBucketRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=1000"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
}

// UpdateBucketRequest carries partial bucket updates. Version must match the
// current bucket row or the update is rejected as a conflict.
type UpdateBucketRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Color       *string `json:"color" validate:"omitempty,hexcolor"`
	Archived    *bool   `json:"archived"`
	Version     int     `json:"version" validate:"gte=0"`
}

// AddItemsRequest adds resumes to a bucket; already-present resumes are
// skipped, not duplicated.
type AddItemsRequest struct {
	ResumeIDs []string `json:"resumeIds" validate:"required,min=1,dive,required"`
}

// AddItemsResponse reports how many memberships were actually created.
type AddItemsResponse struct {
	AddedCount   int `json:"addedCount"`
	SkippedCount int `json:"skippedCount"`
}

// UpdateItemRequest updates per-item recruiter metadata.
type UpdateItemRequest struct {
	Notes  *string `json:"notes" validate:"omitempty,max=4000"`
	Rating *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Status *string `json:"status" validate:"omitempty,max=120"`
}

// ReorderRequest submits the caller's full desired ordering. The id set must
// equal the bucket's current item set exactly.
type ReorderRequest struct {
	ItemIDs []string `json:"itemIds" validate:"required,min=1,dive,required"`
	Version int      `json:"version" validate:"gte=0"`
}

// BucketListQuery captures bucket listing parameters.
type BucketListQuery struct {
	IncludeArchived bool
	Page            int
	PageSize        int
}

// BucketItemQuery captures item listing parameters.
type BucketItemQuery struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// BucketItemView joins a membership row with its resume projection and the
// caller's unlock status for that resume.
type BucketItemView struct {
	ID           string     `db:"id" json:"id"`
	BucketID     string     `db:"bucket_id" json:"bucketId"`
	ResumeID     string     `db:"resume_id" json:"resumeId"`
	DisplayOrder int        `db:"display_order" json:"displayOrder"`
	Notes        string     `db:"notes" json:"notes"`
	Rating       *int       `db:"rating" json:"rating,omitempty"`
	Status       string     `db:"status" json:"status"`
	AddedAt      time.Time  `db:"added_at" json:"addedAt"`
	DisplayName  string     `db:"display_name" json:"displayName"`
	Title        string     `db:"title" json:"title"`
	Country      string     `db:"country" json:"country"`
	City         string     `db:"city" json:"city"`
	IsUnlocked   bool       `db:"-" json:"isUnlocked"`
	ExpiresAt    *time.Time `db:"-" json:"unlockExpiresAt,omitempty"`
}

// ActivityQuery limits activity listings.
type ActivityQuery struct {
	Limit int
}
