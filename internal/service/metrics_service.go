package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the sourcing API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	unlockTotal     *prometheus.CounterVec
	creditsSpent    prometheus.Counter
	creditsRefunded prometheus.Counter
	trendSamples    prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	unlockTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resume_unlocks_total",
		Help: "Unlock attempts by outcome",
	}, []string{"outcome"})

	creditsSpent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "credits_spent_total",
		Help: "Credits debited for unlocks",
	})

	creditsRefunded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "credits_refunded_total",
		Help: "Credits refunded by grant-creation compensation",
	})

	trendSamples := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trend_samples_total",
		Help: "Result-count samples appended by the background sampler",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite,
		cacheHits, cacheMisses, unlockTotal, creditsSpent, creditsRefunded, trendSamples, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		unlockTotal:     unlockTotal,
		creditsSpent:    creditsSpent,
		creditsRefunded: creditsRefunded,
		trendSamples:    trendSamples,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordUnlock counts one unlock attempt by outcome.
func (m *MetricsService) RecordUnlock(outcome string) {
	if m == nil {
		return
	}
	m.unlockTotal.WithLabelValues(outcome).Inc()
}

// RecordCreditsSpent counts debited credits.
func (m *MetricsService) RecordCreditsSpent(amount int) {
	if m == nil || amount <= 0 {
		return
	}
	m.creditsSpent.Add(float64(amount))
}

// RecordCreditsRefunded counts compensating refunds.
func (m *MetricsService) RecordCreditsRefunded(amount int) {
	if m == nil || amount <= 0 {
		return
	}
	m.creditsRefunded.Add(float64(amount))
}

// RecordTrendSample counts one background sample append.
func (m *MetricsService) RecordTrendSample() {
	if m == nil {
		return
	}
	m.trendSamples.Inc()
}
