package models

import (
	"encoding/json"
	"time"
)

// ActivityAction constants enumerate the bucket mutations recorded in the
// activity log.
const (
	ActivityBucketCreated    = "BUCKET_CREATED"
	ActivityBucketUpdated    = "BUCKET_UPDATED"
	ActivityBucketArchived   = "BUCKET_ARCHIVED"
	ActivityBucketDeleted    = "BUCKET_DELETED"
	ActivityItemsAdded       = "ITEMS_ADDED"
	ActivityItemUpdated      = "ITEM_UPDATED"
	ActivityItemsRemoved     = "ITEMS_REMOVED"
	ActivityItemsReordered   = "ITEMS_REORDERED"
	ActivityItemsTransferred = "ITEMS_TRANSFERRED"
)

// KnownActivityAction reports whether the action is part of the recognised set.
func KnownActivityAction(action string) bool {
	switch action {
	case ActivityBucketCreated, ActivityBucketUpdated, ActivityBucketArchived,
		ActivityBucketDeleted, ActivityItemsAdded, ActivityItemUpdated,
		ActivityItemsRemoved, ActivityItemsReordered, ActivityItemsTransferred:
		return true
	}
	return false
}

// ActivityEntry is an append-only audit record for one bucket mutation.
// Rows are never updated; they disappear only with the bucket cascade delete.
type ActivityEntry struct {
	ID        string          `db:"id" json:"id"`
	BucketID  string          `db:"bucket_id" json:"bucket_id"`
	Action    string          `db:"action" json:"action"`
	ActorID   string          `db:"actor_id" json:"actor_id"`
	Metadata  json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// ActivityMetadata carries the structured before/after values attached to an
// activity entry. Only these keys are ever emitted; free-form maps are not
// accepted into the log.
type ActivityMetadata struct {
	Count          int      `json:"count,omitempty"`
	ResumeIDs      []string `json:"resume_ids,omitempty"`
	ItemIDs        []string `json:"item_ids,omitempty"`
	SourceBucketID string   `json:"source_bucket_id,omitempty"`
	TargetBucketID string   `json:"target_bucket_id,omitempty"`
	KeepInSource   *bool    `json:"keep_in_source,omitempty"`
	OldName        string   `json:"old_name,omitempty"`
	NewName        string   `json:"new_name,omitempty"`
	OldOrder       []string `json:"old_order,omitempty"`
	NewOrder       []string `json:"new_order,omitempty"`
	Reason         string   `json:"reason,omitempty"`
}

// Marshal renders the metadata as a JSON document for persistence.
func (m ActivityMetadata) Marshal() json.RawMessage {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return raw
}
