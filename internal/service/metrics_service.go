package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// resolution engine.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	resolveDuration   prometheus.Histogram
	resolvedDays      prometheus.Counter
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	invalidationTotal prometheus.Counter
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

	resolveDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "opening_hours_resolve_duration_seconds",
		Help:    "Duration of opening hours resolution passes",
		Buckets: prometheus.DefBuckets,
	})

	resolvedDays := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "opening_hours_resolved_days_total",
		Help: "Total number of dates resolved",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "opening_hours_cache_hits_total",
		Help: "Total resolution cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "opening_hours_cache_misses_total",
		Help: "Total resolution cache misses",
	})

	invalidationTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "opening_hours_cache_invalidations_total",
		Help: "Total resolution cache invalidations triggered by schedule writes",
	})

	registry.MustRegister(requestDuration, requestTotal, resolveDuration, resolvedDays, cacheHits, cacheMisses, invalidationTotal)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		resolveDuration:   resolveDuration,
		resolvedDays:      resolvedDays,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		invalidationTotal: invalidationTotal,
	}
}

// Handler exposes the registry for the /metrics endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one served HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveResolution records a resolution pass covering the given number of dates.
func (s *MetricsService) ObserveResolution(duration time.Duration, dates int) {
	s.resolveDuration.Observe(duration.Seconds())
	s.resolvedDays.Add(float64(dates))
}

// CacheHit increments the cache hit counter.
func (s *MetricsService) CacheHit() { s.cacheHits.Inc() }

// CacheMiss increments the cache miss counter.
func (s *MetricsService) CacheMiss() { s.cacheMisses.Inc() }

// CacheInvalidated increments the invalidation counter.
func (s *MetricsService) CacheInvalidated() { s.invalidationTotal.Inc() }
