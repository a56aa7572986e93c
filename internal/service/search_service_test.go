package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sourcehire/talent-api/internal/dto"
	"github.com/sourcehire/talent-api/internal/models"
	"github.com/sourcehire/talent-api/internal/repository"
	"github.com/sourcehire/talent-api/pkg/config"
	appErrors "github.com/sourcehire/talent-api/pkg/errors"
)

type resumeSearcherStub struct {
	results []models.Resume
	total   int
	err     error
}

func (s *resumeSearcherStub) Search(ctx context.Context, filters models.SearchFilters, limit, offset int) ([]models.Resume, error) {
	return s.results, s.err
}

func (s *resumeSearcherStub) Count(ctx context.Context, filters models.SearchFilters) (int, error) {
	return s.total, s.err
}

type searchStoreStub struct {
	saved     map[string]*models.SavedSearch
	upserted  []string
	touched   int
	samples   []int
	sampleErr error
	series    []models.ResultCountSample
	deleted   bool
}

func (s *searchStoreStub) UpsertExecution(ctx context.Context, ownerID, searchName, filterHash string, filters json.RawMessage, resultCount int) (*models.SavedSearch, error) {
	s.upserted = append(s.upserted, filterHash)
	return &models.SavedSearch{ID: "saved-1", OwnerID: ownerID, SearchName: searchName, FilterHash: filterHash, Filters: filters}, nil
}

func (s *searchStoreStub) Touch(ctx context.Context, id string, resultCount int) error {
	s.touched++
	return nil
}

func (s *searchStoreStub) FindByID(ctx context.Context, id string) (*models.SavedSearch, error) {
	if saved, ok := s.saved[id]; ok {
		return saved, nil
	}
	return nil, sql.ErrNoRows
}

func (s *searchStoreStub) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]models.SavedSearch, int, error) {
	rows := make([]models.SavedSearch, 0, len(s.saved))
	for _, saved := range s.saved {
		if saved.OwnerID == ownerID {
			rows = append(rows, *saved)
		}
	}
	return rows, len(rows), nil
}

func (s *searchStoreStub) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	return s.deleted, nil
}

func (s *searchStoreStub) AppendSample(ctx context.Context, savedSearchID string, resultCount int) error {
	if s.sampleErr != nil {
		return s.sampleErr
	}
	s.samples = append(s.samples, resultCount)
	return nil
}

func (s *searchStoreStub) ListSamples(ctx context.Context, savedSearchID string) ([]models.ResultCountSample, error) {
	return s.series, nil
}

type cacheRepoStub struct {
	patterns []string
}

func (s *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (s *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (s *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

func newSearchServiceForTest(resumes *resumeSearcherStub, searches *searchStoreStub, unlocks *unlockAnnotatorStub) *SearchService {
	return NewSearchService(resumes, searches, unlocks, nil, config.SearchConfig{}, nil, zap.NewNop())
}

func TestSearchServiceEquivalentFiltersShareHistoryRow(t *testing.T) {
	searches := &searchStoreStub{}
	svc := newSearchServiceForTest(&resumeSearcherStub{total: 7}, searches, &unlockAnnotatorStub{})

	// Same semantics, different casing, order and whitespace.
	first := &dto.SearchRequest{Filters: models.SearchFilters{Keyword: "Payments", Skills: []string{"Go", "SQL"}}}
	second := &dto.SearchRequest{Filters: models.SearchFilters{Keyword: " payments ", Skills: []string{"sql", "GO", "go"}}}

	_, _, err := svc.Search(context.Background(), "owner-1", first)
	require.NoError(t, err)
	_, _, err = svc.Search(context.Background(), "owner-1", second)
	require.NoError(t, err)

	require.Len(t, searches.upserted, 2)
	assert.Equal(t, searches.upserted[0], searches.upserted[1])
	assert.Equal(t, []int{7, 7}, searches.samples)
}

func TestSearchServiceAnnotatesUnlocks(t *testing.T) {
	resumes := &resumeSearcherStub{
		results: []models.Resume{
			{ID: "resume-1", DisplayName: "A. L."},
			{ID: "resume-2", DisplayName: "G. H."},
		},
		total: 2,
	}
	expires := time.Now().UTC().Add(time.Hour)
	unlocks := &unlockAnnotatorStub{grants: map[string]models.UnlockGrant{
		"resume-1": {ResumeID: "resume-1", ExpiresAt: expires},
	}}
	svc := newSearchServiceForTest(resumes, &searchStoreStub{}, unlocks)

	resp, pagination, err := svc.Search(context.Background(), "owner-1", &dto.SearchRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].IsUnlocked)
	require.NotNil(t, resp.Results[0].ExpiresAt)
	assert.False(t, resp.Results[1].IsUnlocked)
	assert.Equal(t, 2, pagination.TotalCount)
	assert.Equal(t, "saved-1", resp.SavedSearchID)
}

func TestSearchServiceSurvivesSampleFailure(t *testing.T) {
	searches := &searchStoreStub{sampleErr: errors.New("samples table unavailable")}
	svc := newSearchServiceForTest(&resumeSearcherStub{total: 3}, searches, &unlockAnnotatorStub{})

	resp, _, err := svc.Search(context.Background(), "owner-1", &dto.SearchRequest{})
	require.NoError(t, err)
	assert.Equal(t, "saved-1", resp.SavedSearchID)
}

func TestSearchServiceRerunBumpsUseCount(t *testing.T) {
	filters, _ := json.Marshal(models.SearchFilters{Keyword: "payments"})
	searches := &searchStoreStub{saved: map[string]*models.SavedSearch{
		"saved-1": {ID: "saved-1", OwnerID: "owner-1", Filters: filters},
	}}
	svc := newSearchServiceForTest(&resumeSearcherStub{total: 9}, searches, &unlockAnnotatorStub{})

	resp, pagination, err := svc.Rerun(context.Background(), "owner-1", "saved-1", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, "saved-1", resp.SavedSearchID)
	assert.Equal(t, 9, pagination.TotalCount)
	assert.Equal(t, 1, searches.touched)
	assert.Equal(t, []int{9}, searches.samples)
}

func TestSearchServiceForeignSavedSearchHidden(t *testing.T) {
	filters, _ := json.Marshal(models.SearchFilters{})
	searches := &searchStoreStub{saved: map[string]*models.SavedSearch{
		"saved-1": {ID: "saved-1", OwnerID: "someone-else", Filters: filters},
	}}
	svc := newSearchServiceForTest(&resumeSearcherStub{}, searches, &unlockAnnotatorStub{})

	_, _, err := svc.Rerun(context.Background(), "owner-1", "saved-1", 1, 20)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSearchServiceTrendDelta(t *testing.T) {
	searches := &searchStoreStub{
		saved: map[string]*models.SavedSearch{"saved-1": {ID: "saved-1", OwnerID: "owner-1"}},
		series: []models.ResultCountSample{
			{ResultCount: 100},
			{ResultCount: 120},
			{ResultCount: 90},
		},
	}
	svc := newSearchServiceForTest(&resumeSearcherStub{}, searches, &unlockAnnotatorStub{})

	trend, err := svc.Trend(context.Background(), "owner-1", "saved-1")
	require.NoError(t, err)
	assert.Equal(t, -30, trend.ResultCountChange)
	assert.Len(t, trend.Samples, 3)
}

func TestSearchServiceTrendSingleSample(t *testing.T) {
	searches := &searchStoreStub{
		saved:  map[string]*models.SavedSearch{"saved-1": {ID: "saved-1", OwnerID: "owner-1"}},
		series: []models.ResultCountSample{{ResultCount: 40}},
	}
	svc := newSearchServiceForTest(&resumeSearcherStub{}, searches, &unlockAnnotatorStub{})

	trend, err := svc.Trend(context.Background(), "owner-1", "saved-1")
	require.NoError(t, err)
	assert.Equal(t, 0, trend.ResultCountChange)
}

func TestSearchServiceDeleteMissing(t *testing.T) {
	svc := newSearchServiceForTest(&resumeSearcherStub{}, &searchStoreStub{deleted: false}, &unlockAnnotatorStub{})

	err := svc.Delete(context.Background(), "owner-1", "saved-9")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSearchServiceDeleteInvalidatesCachedPages(t *testing.T) {
	cacheRepo := &cacheRepoStub{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewSearchService(&resumeSearcherStub{}, &searchStoreStub{deleted: true}, &unlockAnnotatorStub{}, cache, config.SearchConfig{}, nil, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "owner-1", "saved-1"))
	assert.Equal(t, []string{repository.OwnerSearchPattern("owner-1")}, cacheRepo.patterns)
}
