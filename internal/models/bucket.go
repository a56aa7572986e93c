package models

import "time"

// Bucket is a named, ordered, owner-scoped collection of resume references.
// version guards concurrent membership mutations: reorders and updates
// submitted against a stale version are rejected.
type Bucket struct {
	ID           string    `db:"id" json:"id"`
	OwnerID      string    `db:"owner_id" json:"owner_id"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	Color        string    `db:"color" json:"color"`
	Archived     bool      `db:"archived" json:"archived"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	Version      int       `db:"version" json:"version"`
	ItemCount    int       `db:"item_count" json:"item_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// BucketItem is one resume's membership in one bucket. display_order values
// within a bucket are a dense zero-based permutation.
type BucketItem struct {
	ID           string    `db:"id" json:"id"`
	BucketID     string    `db:"bucket_id" json:"bucket_id"`
	ResumeID     string    `db:"resume_id" json:"resume_id"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	Notes        string    `db:"notes" json:"notes"`
	Rating       *int      `db:"rating" json:"rating,omitempty"`
	Status       string    `db:"status" json:"status"`
	AddedAt      time.Time `db:"added_at" json:"added_at"`
}

// BucketItemSort enumerates supported item list orderings.
const (
	BucketItemSortAddedAt      = "added_at"
	BucketItemSortDisplayOrder = "display_order"
)
