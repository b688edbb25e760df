// Package metrics holds the Prometheus collectors of the offer service.
//
// Every method is safe on a nil *Metrics so packages can take metrics as an
// optional dependency.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "offer_service"

// Metrics is the set of collectors registered by New.
type Metrics struct {
	Evaluations   *prometheus.CounterVec
	WeightedScore prometheus.Histogram
	MarketLookups *prometheus.CounterVec
	BreakerState  *prometheus.GaugeVec
	PrepGenerated *prometheus.CounterVec
	RescoreRuns   *prometheus.CounterVec
	RateLimited   prometheus.Counter
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	EventsDropped *prometheus.CounterVec
	registry      *prometheus.Registry
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Offer evaluations by entry point and recommendation.",
		}, []string{"source", "recommendation"}),
		WeightedScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weighted_total_score",
			Help:      "Distribution of weighted total offer scores.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		MarketLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "market_lookups_total",
			Help:      "Market salary lookups by result (hit, miss, empty, error).",
		}, []string{"result"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}, []string{"name"}),
		PrepGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prep_generations_total",
			Help:      "Negotiation prep generations by generator and result.",
		}, []string{"generator", "result"}),
		RescoreRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rescore_offers_total",
			Help:      "Offers processed by the scheduled rescore job, by result.",
		}, []string{"result"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "HTTP requests rejected by the rate limiter.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		EventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Domain events that could not be published, by event type.",
		}, []string{"type"}),
	}
	reg.MustRegister(
		m.Evaluations, m.WeightedScore, m.MarketLookups, m.BreakerState,
		m.PrepGenerated, m.RescoreRuns, m.RateLimited, m.HTTPRequests,
		m.HTTPDuration, m.EventsDropped,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveEvaluation(source, recommendation string, weightedScore float64) {
	if m == nil {
		return
	}
	m.Evaluations.WithLabelValues(source, recommendation).Inc()
	m.WeightedScore.Observe(weightedScore)
}

func (m *Metrics) ObserveMarketLookup(result string) {
	if m == nil {
		return
	}
	m.MarketLookups.WithLabelValues(result).Inc()
}

// SetBreakerState records a breaker transition. state is gobreaker's
// State.String() value.
func (m *Metrics) SetBreakerState(name, state string) {
	if m == nil {
		return
	}
	var v float64
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	m.BreakerState.WithLabelValues(name).Set(v)
}

func (m *Metrics) ObservePrep(generator string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.PrepGenerated.WithLabelValues(generator, result).Inc()
}

func (m *Metrics) ObserveRescore(result string) {
	if m == nil {
		return
	}
	m.RescoreRuns.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

func (m *Metrics) ObserveHTTP(method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveDroppedEvent(eventType string) {
	if m == nil {
		return
	}
	m.EventsDropped.WithLabelValues(eventType).Inc()
}
