package handlers

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-snapshot/internal/server/middlewares"
	"go.uber.org/zap"
)

// AppMetrics holds application-level counters. It satisfies the recorder
// interfaces of the cache and refresh packages.
type AppMetrics struct {
	mutex           sync.RWMutex
	cacheHits       map[string]int64
	cacheMisses     map[string]int64
	refreshOK       int64
	refreshFailed   int64
	refreshesShared int64
}

func NewAppMetrics() *AppMetrics {
	return &AppMetrics{
		cacheHits:   make(map[string]int64),
		cacheMisses: make(map[string]int64),
	}
}

// RecordCacheHit records a cache hit metric
func (m *AppMetrics) RecordCacheHit(ctx context.Context, cacheType string) {
	m.mutex.Lock()
	m.cacheHits[cacheType]++
	m.mutex.Unlock()
}

// RecordCacheMiss records a cache miss metric
func (m *AppMetrics) RecordCacheMiss(ctx context.Context, cacheType string) {
	m.mutex.Lock()
	m.cacheMisses[cacheType]++
	m.mutex.Unlock()
}

func (m *AppMetrics) RecordRefresh(ctx context.Context, success bool) {
	m.mutex.Lock()
	if success {
		m.refreshOK++
	} else {
		m.refreshFailed++
	}
	m.mutex.Unlock()
}

func (m *AppMetrics) RecordSharedRefresh(ctx context.Context) {
	m.mutex.Lock()
	m.refreshesShared++
	m.mutex.Unlock()
}

// Gauges reports live values sampled when /metrics is scraped.
type Gauges struct {
	InFlightRefreshes func() int
	Loading           func() bool
}

type MetricsHandler struct {
	logger     *zap.Logger
	appMetrics *AppMetrics
	gauges     Gauges
}

func NewMetricsHandler(appMetrics *AppMetrics, gauges Gauges, logger *zap.Logger) *MetricsHandler {
	return &MetricsHandler{
		logger:     logger,
		appMetrics: appMetrics,
		gauges:     gauges,
	}
}

// HTTPStatsProvider is implemented by the metrics middleware, which puts
// itself into the gin context.
type HTTPStatsProvider interface {
	HTTPStats() middlewares.HTTPStats
}

// ServeMetrics exposes the counters in Prometheus text format.
func (h *MetricsHandler) ServeMetrics(c *gin.Context) {
	var b strings.Builder

	if stats, ok := h.httpStatsFromContext(c); ok {
		writeHeader(&b, "http_requests_total", "Total number of HTTP requests", "counter")
		for _, key := range sortedKeys(stats.RequestsTotal) {
			b.WriteString("http_requests_total{route_status=\"" + key + "\"} " + strconv.FormatInt(stats.RequestsTotal[key], 10) + "\n")
		}

		writeHeader(&b, "http_request_duration_seconds_avg", "Average duration of HTTP requests", "gauge")
		b.WriteString("http_request_duration_seconds_avg " + strconv.FormatFloat(stats.AvgDurationSeconds, 'f', 6, 64) + "\n")

		writeHeader(&b, "http_active_requests", "Number of active HTTP requests", "gauge")
		b.WriteString("http_active_requests " + strconv.FormatInt(stats.ActiveRequests, 10) + "\n")
	}

	h.appMetrics.mutex.RLock()
	writeHeader(&b, "onecall_cache_hits_total", "Total cache hits", "counter")
	for _, key := range sortedKeys(h.appMetrics.cacheHits) {
		b.WriteString("onecall_cache_hits_total{cache=\"" + key + "\"} " + strconv.FormatInt(h.appMetrics.cacheHits[key], 10) + "\n")
	}

	writeHeader(&b, "onecall_cache_miss_total", "Total cache misses", "counter")
	for _, key := range sortedKeys(h.appMetrics.cacheMisses) {
		b.WriteString("onecall_cache_miss_total{cache=\"" + key + "\"} " + strconv.FormatInt(h.appMetrics.cacheMisses[key], 10) + "\n")
	}

	writeHeader(&b, "snapshot_refresh_total", "Completed snapshot refreshes", "counter")
	b.WriteString("snapshot_refresh_total{result=\"success\"} " + strconv.FormatInt(h.appMetrics.refreshOK, 10) + "\n")
	b.WriteString("snapshot_refresh_total{result=\"failure\"} " + strconv.FormatInt(h.appMetrics.refreshFailed, 10) + "\n")

	writeHeader(&b, "snapshot_refresh_shared_total", "Callers that joined a refresh already in flight", "counter")
	b.WriteString("snapshot_refresh_shared_total " + strconv.FormatInt(h.appMetrics.refreshesShared, 10) + "\n")
	h.appMetrics.mutex.RUnlock()

	if h.gauges.InFlightRefreshes != nil {
		writeHeader(&b, "snapshot_refresh_in_flight", "Refreshes currently running", "gauge")
		b.WriteString("snapshot_refresh_in_flight " + strconv.Itoa(h.gauges.InFlightRefreshes()) + "\n")
	}

	if h.gauges.Loading != nil {
		loading := "0"
		if h.gauges.Loading() {
			loading = "1"
		}
		writeHeader(&b, "snapshot_loading", "Whether the published snapshot is being refreshed", "gauge")
		b.WriteString("snapshot_loading " + loading + "\n")
	}

	c.Header("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	c.String(http.StatusOK, b.String())
}

func (h *MetricsHandler) httpStatsFromContext(c *gin.Context) (middlewares.HTTPStats, bool) {
	if value, exists := c.Get(middlewares.HTTPMetricsKey); exists {
		if provider, ok := value.(HTTPStatsProvider); ok {
			return provider.HTTPStats(), true
		}
	}
	return middlewares.HTTPStats{}, false
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString("# HELP " + name + " " + help + "\n")
	b.WriteString("# TYPE " + name + " " + kind + "\n")
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
