// Package metrics exposes Prometheus instrumentation for the gateway.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gateway captures request-level metrics for the media gateway.
type Gateway interface {
	IncCacheHit()
	IncCacheMiss()
	IncValidationFailure(reason string)
	IncStoreRead(status string)
	IncPopulateScheduled()
	ObserveFetch(durationSeconds float64)
}

// Noop implements Gateway without emitting anything.
type Noop struct{}

func (Noop) IncCacheHit()                {}
func (Noop) IncCacheMiss()               {}
func (Noop) IncValidationFailure(string) {}
func (Noop) IncStoreRead(string)         {}
func (Noop) IncPopulateScheduled()       {}
func (Noop) ObserveFetch(float64)        {}

// Prom implements Gateway backed by Prometheus collectors.
type Prom struct {
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	validationFailures *prometheus.CounterVec
	storeReads         *prometheus.CounterVec
	populateScheduled  prometheus.Counter
	fetchDuration      prometheus.Histogram
	once               sync.Once
}

// NewProm constructs a Gateway with counters/histograms registered on the
// default registry.
func NewProm(namespace string) *Prom {
	p := &Prom{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Edge cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Edge cache misses",
		}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Signed link validation failures by reason",
		}, []string{"reason"}),
		storeReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_reads_total",
			Help:      "Backing store reads by outcome",
		}, []string{"status"}),
		populateScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_populate_scheduled_total",
			Help:      "Background cache population tasks scheduled",
		}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Object fetch latency",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	p.register()
	return p
}

func (p *Prom) register() {
	p.once.Do(func() {
		prometheus.MustRegister(
			p.cacheHits,
			p.cacheMisses,
			p.validationFailures,
			p.storeReads,
			p.populateScheduled,
			p.fetchDuration,
		)
	})
}

func (p *Prom) IncCacheHit()  { p.cacheHits.Inc() }
func (p *Prom) IncCacheMiss() { p.cacheMisses.Inc() }

func (p *Prom) IncValidationFailure(reason string) {
	p.validationFailures.WithLabelValues(reason).Inc()
}

func (p *Prom) IncStoreRead(status string) {
	p.storeReads.WithLabelValues(status).Inc()
}

func (p *Prom) IncPopulateScheduled() { p.populateScheduled.Inc() }

func (p *Prom) ObserveFetch(durationSeconds float64) {
	p.fetchDuration.Observe(durationSeconds)
}

// Handler returns the HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
