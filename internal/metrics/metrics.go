// Package metrics exposes storefront counters to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dtroode/storefront/internal/model"
)

var _ model.Metrics = (*Collector)(nil)

// Collector records storefront metrics into a Prometheus registry.
type Collector struct {
	navigations     *prometheus.CounterVec
	guardWait       prometheus.Histogram
	catalogFetches  *prometheus.CounterVec
	catalogLatency  prometheus.Histogram
	sessionResolved *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		navigations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_navigations_total",
			Help: "Navigation guard decisions by outcome and reason.",
		}, []string{"outcome", "reason"}),
		guardWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_guard_wait_seconds",
			Help:    "Time navigations spent waiting for session resolution.",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		catalogFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_catalog_fetches_total",
			Help: "Product list fetches by result.",
		}, []string{"success"}),
		catalogLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_catalog_fetch_seconds",
			Help:    "Product list fetch latency.",
			Buckets: prometheus.DefBuckets,
		}),
		sessionResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_session_resolved_total",
			Help: "Session resolutions by resulting state.",
		}, []string{"state"}),
	}

	reg.MustRegister(
		c.navigations,
		c.guardWait,
		c.catalogFetches,
		c.catalogLatency,
		c.sessionResolved,
	)

	return c
}

func (c *Collector) RecordNavigation(outcome, reason string) {
	c.navigations.WithLabelValues(outcome, reason).Inc()
}

func (c *Collector) RecordGuardWait(d time.Duration) {
	c.guardWait.Observe(d.Seconds())
}

func (c *Collector) RecordCatalogFetch(success bool, d time.Duration) {
	c.catalogFetches.WithLabelValues(strconv.FormatBool(success)).Inc()
	c.catalogLatency.Observe(d.Seconds())
}

func (c *Collector) RecordSessionResolved(state model.SessionState) {
	c.sessionResolved.WithLabelValues(state.String()).Inc()
}
