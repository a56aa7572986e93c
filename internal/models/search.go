package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// SearchFilters is the recognised filter set for resume searches. Unknown
// keys are rejected at bind time; the struct below is the whole vocabulary.
type SearchFilters struct {
	Keyword       string   `db:"-" json:"keyword,omitempty"`
	Skills        []string `db:"-" json:"skills,omitempty"`
	Country       string   `db:"-" json:"country,omitempty"`
	City          string   `db:"-" json:"city,omitempty"`
	Title         string   `db:"-" json:"title,omitempty"`
	MinExperience int      `db:"-" json:"min_experience,omitempty"`
	MaxExperience int      `db:"-" json:"max_experience,omitempty"`
}

// Normalize returns the canonical form of the filter set: scalars trimmed and
// lowercased, skills sorted and deduplicated, empty values dropped by the
// omitempty tags. Semantically identical searches normalise to equal values.
func (f SearchFilters) Normalize() SearchFilters {
	out := SearchFilters{
		Keyword:       strings.ToLower(strings.TrimSpace(f.Keyword)),
		Country:       strings.ToLower(strings.TrimSpace(f.Country)),
		City:          strings.ToLower(strings.TrimSpace(f.City)),
		Title:         strings.ToLower(strings.TrimSpace(f.Title)),
		MinExperience: f.MinExperience,
		MaxExperience: f.MaxExperience,
	}

	seen := make(map[string]struct{}, len(f.Skills))
	for _, skill := range f.Skills {
		s := strings.ToLower(strings.TrimSpace(skill))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out.Skills = append(out.Skills, s)
	}
	sort.Strings(out.Skills)

	return out
}

// Hash returns the dedupe key for the normalized filter set.
func (f SearchFilters) Hash() string {
	canonical, _ := json.Marshal(f.Normalize())
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// IsEmpty reports whether no filter criteria were supplied.
func (f SearchFilters) IsEmpty() bool {
	n := f.Normalize()
	return n.Keyword == "" && len(n.Skills) == 0 && n.Country == "" &&
		n.City == "" && n.Title == "" && n.MinExperience == 0 && n.MaxExperience == 0
}

// SavedSearch is one persisted, replayable filter set. One row per distinct
// canonical filter set per owner; re-running bumps use_count instead of
// inserting a duplicate.
type SavedSearch struct {
	ID                string          `db:"id" json:"id"`
	OwnerID           string          `db:"owner_id" json:"owner_id"`
	SearchName        string          `db:"search_name" json:"search_name"`
	FilterHash        string          `db:"filter_hash" json:"-"`
	Filters           json.RawMessage `db:"filters" json:"filters"`
	UseCount          int             `db:"use_count" json:"use_count"`
	LatestResultCount int             `db:"latest_result_count" json:"latest_result_count"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// DecodeFilters unmarshals the persisted filter set for replay.
func (s *SavedSearch) DecodeFilters() (SearchFilters, error) {
	var filters SearchFilters
	if err := json.Unmarshal(s.Filters, &filters); err != nil {
		return SearchFilters{}, err
	}
	return filters, nil
}

// ResultCountSample is one point in a saved search's result-count series.
type ResultCountSample struct {
	ID            string    `db:"id" json:"id"`
	SavedSearchID string    `db:"saved_search_id" json:"saved_search_id"`
	ResultCount   int       `db:"result_count" json:"result_count"`
	RecordedAt    time.Time `db:"recorded_at" json:"recorded_at"`
}
