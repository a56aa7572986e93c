package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sourcehire/talent-api/internal/dto"
	"github.com/sourcehire/talent-api/internal/models"
	"github.com/sourcehire/talent-api/internal/repository"
	"github.com/sourcehire/talent-api/pkg/config"
	appErrors "github.com/sourcehire/talent-api/pkg/errors"
)

type resumeSearcher interface {
	Search(ctx context.Context, filters models.SearchFilters, limit, offset int) ([]models.Resume, error)
	Count(ctx context.Context, filters models.SearchFilters) (int, error)
}

type searchStore interface {
	UpsertExecution(ctx context.Context, ownerID, searchName, filterHash string, filters json.RawMessage, resultCount int) (*models.SavedSearch, error)
	Touch(ctx context.Context, id string, resultCount int) error
	FindByID(ctx context.Context, id string) (*models.SavedSearch, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]models.SavedSearch, int, error)
	Delete(ctx context.Context, ownerID, id string) (bool, error)
	AppendSample(ctx context.Context, savedSearchID string, resultCount int) error
	ListSamples(ctx context.Context, savedSearchID string) ([]models.ResultCountSample, error)
}

// cachedSearchPage is the payload stored in Redis for one search page. Resume
// private fields are dropped by their json tags before the page is cached.
type cachedSearchPage struct {
	Resumes []models.Resume `json:"resumes"`
	Total   int             `json:"total"`
}

// SearchService executes resume searches, records them in the caller's
// history and serves trend series over the recorded samples.
type SearchService struct {
	resumes  resumeSearcher
	searches searchStore
	unlocks  unlockAnnotator
	cache    *CacheService
	cfg      config.SearchConfig
	validate *validator.Validate
	logger   *zap.Logger
}

// NewSearchService constructs the search service.
func NewSearchService(resumes resumeSearcher, searches searchStore, unlocks unlockAnnotator, cache *CacheService, cfg config.SearchConfig, validate *validator.Validate, logger *zap.Logger) *SearchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = defaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = maxPageSize
	}
	return &SearchService{
		resumes:  resumes,
		searches: searches,
		unlocks:  unlocks,
		cache:    cache,
		cfg:      cfg,
		validate: validate,
		logger:   logger,
	}
}

// Search runs the filters against the resume projection and records the
// execution. Semantically identical filter sets normalise to one history row
// whose use_count grows instead of duplicating.
func (s *SearchService) Search(ctx context.Context, ownerID string, req *dto.SearchRequest) (*dto.SearchResponse, *models.Pagination, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid search request")
	}

	filters := req.Filters.Normalize()
	page, pageSize := s.normalizePage(req.Page, req.PageSize)

	resumes, total, err := s.searchPage(ctx, ownerID, filters, page, pageSize)
	if err != nil {
		return nil, nil, err
	}

	canonical, err := json.Marshal(filters)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to encode filters")
	}

	saved, err := s.searches.UpsertExecution(ctx, ownerID, req.SearchName, filters.Hash(), canonical, total)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to record search")
	}
	if err := s.searches.AppendSample(ctx, saved.ID, total); err != nil {
		s.logger.Warn("result sample append failed", zap.String("savedSearchId", saved.ID), zap.Error(err))
	}

	results, err := s.annotate(ctx, ownerID, resumes)
	if err != nil {
		return nil, nil, err
	}

	return &dto.SearchResponse{SavedSearchID: saved.ID, Results: results},
		&models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Rerun replays a saved search with its stored filters, bumping its use count
// and appending a fresh sample.
func (s *SearchService) Rerun(ctx context.Context, ownerID, savedSearchID string, page, pageSize int) (*dto.SearchResponse, *models.Pagination, error) {
	saved, err := s.ownedSearch(ctx, ownerID, savedSearchID)
	if err != nil {
		return nil, nil, err
	}

	filters, err := saved.DecodeFilters()
	if err != nil {
		return nil, nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "stored filters are unreadable")
	}
	filters = filters.Normalize()
	page, pageSize = s.normalizePage(page, pageSize)

	resumes, total, err := s.searchPage(ctx, ownerID, filters, page, pageSize)
	if err != nil {
		return nil, nil, err
	}

	if err := s.searches.Touch(ctx, saved.ID, total); err != nil {
		return nil, nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to record rerun")
	}
	if err := s.searches.AppendSample(ctx, saved.ID, total); err != nil {
		s.logger.Warn("result sample append failed", zap.String("savedSearchId", saved.ID), zap.Error(err))
	}

	results, err := s.annotate(ctx, ownerID, resumes)
	if err != nil {
		return nil, nil, err
	}

	return &dto.SearchResponse{SavedSearchID: saved.ID, Results: results},
		&models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// History returns one page of the owner's saved searches, most recently used
// first.
func (s *SearchService) History(ctx context.Context, ownerID string, query dto.HistoryQuery) ([]models.SavedSearch, *models.Pagination, error) {
	page, pageSize := s.normalizePage(query.Page, query.PageSize)

	rows, total, err := s.searches.ListByOwner(ctx, ownerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to list search history")
	}
	if rows == nil {
		rows = []models.SavedSearch{}
	}
	return rows, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Trend returns the saved search's sample series oldest first. The change
// field is derived from the two newest samples at read time, never stored.
func (s *SearchService) Trend(ctx context.Context, ownerID, savedSearchID string) (*dto.TrendResponse, error) {
	saved, err := s.ownedSearch(ctx, ownerID, savedSearchID)
	if err != nil {
		return nil, err
	}

	samples, err := s.searches.ListSamples(ctx, saved.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to list result samples")
	}
	if samples == nil {
		samples = []models.ResultCountSample{}
	}

	change := 0
	if len(samples) >= 2 {
		change = samples[len(samples)-1].ResultCount - samples[len(samples)-2].ResultCount
	}

	return &dto.TrendResponse{SavedSearchID: saved.ID, Samples: samples, ResultCountChange: change}, nil
}

// Delete removes a saved search and its sample series, and drops the owner's
// cached result pages so the deleted filters are not served from cache.
func (s *SearchService) Delete(ctx context.Context, ownerID, savedSearchID string) error {
	deleted, err := s.searches.Delete(ctx, ownerID, savedSearchID)
	if err != nil {
		return appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to delete saved search")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "saved search not found")
	}
	_ = s.cache.Invalidate(ctx, repository.OwnerSearchPattern(ownerID))
	return nil
}

// searchPage loads one result page, consulting the cache first. Only the raw
// projection rows are cached; unlock annotation is applied fresh per request.
func (s *SearchService) searchPage(ctx context.Context, ownerID string, filters models.SearchFilters, page, pageSize int) ([]models.Resume, int, error) {
	key := repository.SearchResultsKey(ownerID, filters.Hash(), page, pageSize)

	var cached cachedSearchPage
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Resumes, cached.Total, nil
	}

	total, err := s.resumes.Count(ctx, filters)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to count search results")
	}
	resumes, err := s.resumes.Search(ctx, filters, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to search resumes")
	}

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, key, cachedSearchPage{Resumes: resumes, Total: total}, s.cfg.CacheTTL)
	}
	return resumes, total, nil
}

func (s *SearchService) annotate(ctx context.Context, ownerID string, resumes []models.Resume) ([]dto.SearchResult, error) {
	resumeIDs := make([]string, 0, len(resumes))
	for _, resume := range resumes {
		resumeIDs = append(resumeIDs, resume.ID)
	}
	grants, err := s.unlocks.StatusMap(ctx, ownerID, resumeIDs)
	if err != nil {
		return nil, err
	}

	results := make([]dto.SearchResult, 0, len(resumes))
	for _, resume := range resumes {
		result := dto.SearchResult{
			ResumeID:        resume.ID,
			DisplayName:     resume.DisplayName,
			Title:           resume.Title,
			Country:         resume.Country,
			City:            resume.City,
			Skills:          resume.Skills,
			ExperienceYears: resume.ExperienceYears,
		}
		if grant, ok := grants[resume.ID]; ok {
			expires := grant.ExpiresAt
			result.IsUnlocked = true
			result.ExpiresAt = &expires
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *SearchService) ownedSearch(ctx context.Context, ownerID, id string) (*models.SavedSearch, error) {
	saved, err := s.searches.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "saved search not found")
		}
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to load saved search")
	}
	if saved.OwnerID != ownerID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "saved search not found")
	}
	return saved, nil
}

func (s *SearchService) normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.cfg.DefaultPageSize
	}
	if pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}
	return page, pageSize
}
