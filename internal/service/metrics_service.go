package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the config API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	syncRuns        *prometheus.CounterVec
	syncDuration    *prometheus.HistogramVec
	approvals       *prometheus.CounterVec
	invalidations   prometheus.Counter
	cacheLatency    prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
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

	syncRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "config_sync_runs_total",
		Help: "Sync runs per source, type and outcome",
	}, []string{"source", "sync_type", "outcome"})

	syncDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "config_sync_duration_seconds",
		Help:    "Duration of per-source sync runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	approvals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "config_approvals_total",
		Help: "Approval requests by terminal status",
	}, []string{"status"})

	invalidations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "config_cache_invalidations_total",
		Help: "Cache invalidation signals dispatched",
	})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
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

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, syncRuns, syncDuration, approvals, invalidations, cacheLatency, cacheHits, cacheMisses, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		syncRuns:        syncRuns,
		syncDuration:    syncDuration,
		approvals:       approvals,
		invalidations:   invalidations,
		cacheLatency:    cacheLatency,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
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

// ObserveSyncRun records a per-source sync result.
func (m *MetricsService) ObserveSyncRun(source, syncType, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.syncRuns.WithLabelValues(source, syncType, outcome).Inc()
	m.syncDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordApprovalResolution counts terminal approval transitions.
func (m *MetricsService) RecordApprovalResolution(status string) {
	if m == nil {
		return
	}
	m.approvals.WithLabelValues(status).Inc()
}

// RecordInvalidation counts dispatched cache invalidation signals.
func (m *MetricsService) RecordInvalidation() {
	if m == nil {
		return
	}
	m.invalidations.Inc()
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
