package dto

import (
	"time"

	"github.com/sourcehire/talent-api/internal/models"
)

// SearchRequest executes a resume search and records it in the caller's
// history. The filter vocabulary is closed: unknown keys are dropped at bind
// time.
type SearchRequest struct {
	Filters    models.SearchFilters `json:"filters"`
	SearchName string               `json:"searchName" validate:"max=120"`
	Page       int                  `json:"page" validate:"gte=0"`
	PageSize   int                  `json:"pageSize" validate:"gte=0"`
}

// SearchResult is one annotated row of a search response.
type SearchResult struct {
	ResumeID        string     `json:"resumeId"`
	DisplayName     string     `json:"displayName"`
	Title           string     `json:"title"`
	Country         string     `json:"country"`
	City            string     `json:"city"`
	Skills          []string   `json:"skills"`
	ExperienceYears int        `json:"experienceYears"`
	IsUnlocked      bool       `json:"isUnlocked"`
	ExpiresAt       *time.Time `json:"unlockExpiresAt,omitempty"`
}

// SearchResponse returns the annotated page plus the saved-search row the
// execution was recorded against.
type SearchResponse struct {
	SavedSearchID string         `json:"savedSearchId"`
	Results       []SearchResult `json:"results"`
}

// HistoryQuery paginates the saved-search listing.
type HistoryQuery struct {
	Page     int
	PageSize int
}

// TrendResponse returns the ascending sample series plus the derived delta
// between the two most recent samples. The delta is computed, never stored.
type TrendResponse struct {
	SavedSearchID     string                     `json:"savedSearchId"`
	Samples           []models.ResultCountSample `json:"samples"`
	ResultCountChange int                        `json:"resultCountChange"`
}
