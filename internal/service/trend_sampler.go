package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sourcehire/talent-api/internal/models"
	"github.com/sourcehire/talent-api/internal/repository"
	"github.com/sourcehire/talent-api/pkg/config"
	"github.com/sourcehire/talent-api/pkg/jobs"
)

const trendJobType = "trend_sample"

type samplerStore interface {
	ListDueForSampling(ctx context.Context, cutoff time.Time, limit int) ([]models.SavedSearch, error)
	FindByID(ctx context.Context, id string) (*models.SavedSearch, error)
	AppendSample(ctx context.Context, savedSearchID string, resultCount int) error
	UpdateLatestCount(ctx context.Context, id string, resultCount int) error
}

// TrendSampler periodically re-counts every saved search so trend series keep
// moving even for searches nobody reran. Sampling never bumps use_count; only
// user-initiated runs do.
type TrendSampler struct {
	searches samplerStore
	resumes  resumeSearcher
	cache    *CacheService
	queue    *jobs.Queue
	interval time.Duration
	batch    int
	metrics  *MetricsService
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTrendSampler constructs the sampler and its worker queue.
func NewTrendSampler(searches samplerStore, resumes resumeSearcher, cache *CacheService, cfg config.TrendsConfig, metrics *MetricsService, logger *zap.Logger) *TrendSampler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = 24 * time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}

	s := &TrendSampler{
		searches: searches,
		resumes:  resumes,
		cache:    cache,
		interval: cfg.SampleInterval,
		batch:    cfg.BatchSize,
		metrics:  metrics,
		logger:   logger,
	}
	s.queue = jobs.NewQueue("trend-sampler", s.handle, jobs.QueueConfig{
		Workers:    cfg.WorkerCount,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the workers and the scheduling loop.
func (s *TrendSampler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.queue.Start(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDue(ctx)
			}
		}
	}()

	s.logger.Info("trend sampler started", zap.Duration("interval", s.interval))
}

// Stop shuts the scheduling loop and workers down.
func (s *TrendSampler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.queue.Stop()
}

// enqueueDue queues one sampling job per saved search whose newest sample is
// older than the interval.
func (s *TrendSampler) enqueueDue(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.interval)
	due, err := s.searches.ListDueForSampling(ctx, cutoff, s.batch)
	if err != nil {
		s.logger.Error("failed to list searches due for sampling", zap.Error(err))
		return
	}

	for _, saved := range due {
		if err := s.queue.Enqueue(jobs.Job{ID: saved.ID, Type: trendJobType}); err != nil {
			s.logger.Warn("failed to enqueue sample job", zap.String("savedSearchId", saved.ID), zap.Error(err))
			return
		}
	}
	if len(due) > 0 {
		s.logger.Debug("sampling jobs enqueued", zap.Int("count", len(due)))
	}
}

// handle re-counts one saved search and appends the sample. A search deleted
// between scheduling and execution is a silent no-op.
func (s *TrendSampler) handle(ctx context.Context, job jobs.Job) error {
	saved, err := s.searches.FindByID(ctx, job.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("saved search gone before sampling", zap.String("savedSearchId", job.ID))
			return nil
		}
		return err
	}

	filters, err := saved.DecodeFilters()
	if err != nil {
		s.logger.Error("stored filters are unreadable, skipping sample",
			zap.String("savedSearchId", saved.ID), zap.Error(err))
		return nil
	}

	count, err := s.resumes.Count(ctx, filters)
	if err != nil {
		return err
	}
	if err := s.searches.AppendSample(ctx, saved.ID, count); err != nil {
		return err
	}
	if err := s.searches.UpdateLatestCount(ctx, saved.ID, count); err != nil {
		return err
	}

	// Cached pages for this owner carry the pre-recount total.
	_ = s.cache.Invalidate(ctx, repository.OwnerSearchPattern(saved.OwnerID))

	s.metrics.RecordTrendSample()
	return nil
}
