// Package metrics exposes Prometheus collectors for the recommendation
// pipeline, the directory gateway and the in-process caches.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sells-group/relief-match/internal/cache"
)

// Metric names.
const (
	MetricDirectoryCallsTotal   = "relief_directory_calls_total"
	MetricDirectoryCallDuration = "relief_directory_call_duration_seconds"
	MetricRecommendationsTotal  = "relief_recommendations_total"
	MetricPipelineStageDuration = "relief_pipeline_stage_duration_seconds"
	MetricCandidatesExcluded    = "relief_candidates_excluded_total"
	MetricEnrichmentsTotal      = "relief_enrichments_total"
	MetricCacheHitsTotal        = "relief_cache_hits_total"
	MetricCacheMissesTotal      = "relief_cache_misses_total"
	MetricCacheEvictionsTotal   = "relief_cache_evictions_total"
	MetricCacheExpirationsTotal = "relief_cache_expirations_total"
	MetricCacheEntries          = "relief_cache_entries"
)

// Recommendation outcomes.
const (
	OutcomeCacheHit = "cache_hit"
	OutcomeComputed = "computed"
	OutcomeEmpty    = "empty"
	OutcomeDegraded = "degraded"
	OutcomeError    = "error"
)

// Metrics holds the pipeline collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	directoryCalls    *prometheus.CounterVec
	directoryDuration *prometheus.HistogramVec
	recommendations   *prometheus.CounterVec
	stageDuration     *prometheus.HistogramVec
	excluded          *prometheus.CounterVec
	enrichments       *prometheus.CounterVec
	caches            *cacheCollector
}

// NewMetrics creates the collectors. They are not registered; call Register.
func NewMetrics() *Metrics {
	return &Metrics{
		directoryCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricDirectoryCallsTotal,
				Help: "Directory API calls by operation and result kind",
			},
			[]string{"op", "result"},
		),
		directoryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricDirectoryCallDuration,
				Help:    "Latency of directory API calls including retries",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"op"},
		),
		recommendations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRecommendationsTotal,
				Help: "Recommendation requests by outcome",
			},
			[]string{"outcome"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricPipelineStageDuration,
				Help:    "Duration of each pipeline stage",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		excluded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCandidatesExcluded,
				Help: "Candidates removed by the reranker by reason",
			},
			[]string{"reason"},
		),
		enrichments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricEnrichmentsTotal,
				Help: "Profile detail fetches by result",
			},
			[]string{"result"},
		),
		caches: newCacheCollector(),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.directoryCalls,
		m.directoryDuration,
		m.recommendations,
		m.stageDuration,
		m.excluded,
		m.enrichments,
		m.caches,
	}
}

// ObserveDirectoryCall records one gateway call. result is an error kind
// ("transient", "not_found", ...), "ok", "cache_hit" or "circuit_open".
func (m *Metrics) ObserveDirectoryCall(op, result string, seconds float64) {
	if m == nil {
		return
	}
	m.directoryCalls.WithLabelValues(op, result).Inc()
	if result != "cache_hit" {
		m.directoryDuration.WithLabelValues(op).Observe(seconds)
	}
}

// IncRecommendations counts a finished Recommend call.
func (m *Metrics) IncRecommendations(outcome string) {
	if m == nil {
		return
	}
	m.recommendations.WithLabelValues(outcome).Inc()
}

// ObserveStage records how long a pipeline stage took.
func (m *Metrics) ObserveStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// AddExcluded counts candidates dropped for reason.
func (m *Metrics) AddExcluded(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.excluded.WithLabelValues(reason).Add(float64(n))
}

// AddEnrichments counts detail fetches by result ("ok", "failed").
func (m *Metrics) AddEnrichments(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.enrichments.WithLabelValues(result).Add(float64(n))
}

// WatchCache exports the counters of a cache under its name.
func (m *Metrics) WatchCache(src StatsSource) {
	if m == nil || src == nil {
		return
	}
	m.caches.add(src)
}

// StatsSource is anything that reports cache statistics.
type StatsSource interface {
	Stats() cache.Stats
}

// cacheCollector reads cache stats at scrape time so the caches do not need
// to know about Prometheus.
type cacheCollector struct {
	mu      sync.Mutex
	sources []StatsSource

	hits        *prometheus.Desc
	misses      *prometheus.Desc
	evictions   *prometheus.Desc
	expirations *prometheus.Desc
	entries     *prometheus.Desc
}

func newCacheCollector() *cacheCollector {
	labels := []string{"cache"}
	return &cacheCollector{
		hits:        prometheus.NewDesc(MetricCacheHitsTotal, "Cache hits", labels, nil),
		misses:      prometheus.NewDesc(MetricCacheMissesTotal, "Cache misses", labels, nil),
		evictions:   prometheus.NewDesc(MetricCacheEvictionsTotal, "Entries evicted for capacity", labels, nil),
		expirations: prometheus.NewDesc(MetricCacheExpirationsTotal, "Entries dropped after their TTL", labels, nil),
		entries:     prometheus.NewDesc(MetricCacheEntries, "Entries currently held", labels, nil),
	}
}

func (c *cacheCollector) add(src StatsSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = append(c.sources, src)
}

func (c *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.expirations
	ch <- c.entries
}

func (c *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	sources := append([]StatsSource(nil), c.sources...)
	c.mu.Unlock()

	for _, src := range sources {
		s := src.Stats()
		ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits), s.Name)
		ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses), s.Name)
		ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(s.Evictions), s.Name)
		ch <- prometheus.MustNewConstMetric(c.expirations, prometheus.CounterValue, float64(s.Expirations), s.Name)
		ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(s.Size), s.Name)
	}
}
