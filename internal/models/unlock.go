package models

import (
	"encoding/json"
	"time"
)

// UnlockSource identifies where an unlock was initiated from.
type UnlockSource string

const (
	UnlockSourceSearch UnlockSource = "search"
	UnlockSourceBucket UnlockSource = "bucket"
)

// Valid reports whether the source is one of the recognised values.
func (s UnlockSource) Valid() bool {
	return s == UnlockSourceSearch || s == UnlockSourceBucket
}

// UnlockGrant is a time-bounded authorization to view one resume's private
// data. One row per (owner, resume); an expired row behaves as locked and is
// replaced in place by the next paid unlock.
type UnlockGrant struct {
	ID        string          `db:"id" json:"id"`
	OwnerID   string          `db:"owner_id" json:"owner_id"`
	ResumeID  string          `db:"resume_id" json:"resume_id"`
	Source    UnlockSource    `db:"source" json:"source"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	GrantedAt time.Time       `db:"granted_at" json:"granted_at"`
	ExpiresAt time.Time       `db:"expires_at" json:"expires_at"`
}

// Active reports whether the grant still permits viewing at the given time.
func (g *UnlockGrant) Active(now time.Time) bool {
	return g != nil && now.Before(g.ExpiresAt)
}

// RevealedData is the private payload snapshotted at unlock time. It is
// served verbatim for the life of the grant, so later edits to the source
// profile never alter what was paid for.
type RevealedData struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	ResumeURL string `json:"resume_url"`
}
