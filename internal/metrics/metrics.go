// Package metrics implements the observability hooks with Prometheus.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/mapstyle/pkg/observability"
)

var msBuckets = []float64{0.1, 0.5, 1, 5, 10, 20, 50, 100, 200, 500, 1000}

// Metrics holds the collectors.
type Metrics struct {
	reg *prometheus.Registry

	StyleApplies     *prometheus.CounterVec
	StyleDurationMs  prometheus.Histogram
	MissingLayers    *prometheus.CounterVec
	HoverLookups     *prometheus.CounterVec
	HoverDurationMs  prometheus.Histogram
	HoverTransitions *prometheus.CounterVec
	CacheHits        *prometheus.CounterVec
	CacheMisses      *prometheus.CounterVec
	CacheBytes       *prometheus.CounterVec
	Requests         *prometheus.CounterVec
	RequestMs        *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		StyleApplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mapstyle_style_applies_total",
			Help: "Style switches by style; unknown names count as clear",
		}, []string{"style"}),
		StyleDurationMs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mapstyle_style_apply_duration_ms",
			Help:    "Style apply duration in milliseconds",
			Buckets: msBuckets,
		}),
		MissingLayers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mapstyle_style_missing_layers_total",
			Help: "Layers named by a style but absent from the scene",
		}, []string{"style", "layer"}),
		HoverLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mapstyle_hover_lookups_total",
			Help: "Feature lookups by result",
		}, []string{"result"}),
		HoverDurationMs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mapstyle_hover_lookup_duration_ms",
			Help:    "Feature lookup duration in milliseconds",
			Buckets: msBuckets,
		}),
		HoverTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mapstyle_hover_transitions_total",
			Help: "Hover label state changes",
		}, []string{"state"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mapstyle_cache_hits_total",
			Help: "Remote fetch cache hits",
		}, []string{"kind"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mapstyle_cache_misses_total",
			Help: "Remote fetch cache misses",
		}, []string{"kind"}),
		CacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mapstyle_cache_written_bytes_total",
			Help: "Bytes written to the fetch cache",
		}, []string{"kind"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mapstyle_http_requests_total",
			Help: "API requests by route and status",
		}, []string{"method", "route", "status"}),
		RequestMs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mapstyle_http_request_duration_ms",
			Help:    "API request duration in milliseconds",
			Buckets: msBuckets,
		}, []string{"route"}),
	}
	m.reg.MustRegister(
		m.StyleApplies, m.StyleDurationMs, m.MissingLayers,
		m.HoverLookups, m.HoverDurationMs, m.HoverTransitions,
		m.CacheHits, m.CacheMisses, m.CacheBytes,
		m.Requests, m.RequestMs,
		collectors.NewGoCollector(),
	)
	return m
}

// Install registers m as the process-wide observability hooks.
func (m *Metrics) Install() {
	observability.SetStyleHooks(styleHooks{m})
	observability.SetHoverHooks(hoverHooks{m})
	observability.SetCacheHooks(cacheHooks{m})
	observability.SetHTTPHooks(httpHooks{m})
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

type styleHooks struct{ m *Metrics }

func (h styleHooks) OnApply(_ context.Context, style string, known bool, d time.Duration) {
	if !known {
		style = "(clear)"
	}
	h.m.StyleApplies.WithLabelValues(style).Inc()
	h.m.StyleDurationMs.Observe(ms(d))
}

func (h styleHooks) OnMissingLayer(_ context.Context, style, layer string) {
	h.m.MissingLayers.WithLabelValues(style, layer).Inc()
}

type hoverHooks struct{ m *Metrics }

func (h hoverHooks) OnLookup(_ context.Context, hit bool, d time.Duration, err error) {
	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case hit:
		result = "hit"
	}
	h.m.HoverLookups.WithLabelValues(result).Inc()
	h.m.HoverDurationMs.Observe(ms(d))
}

func (h hoverHooks) OnTransition(_ context.Context, state string) {
	h.m.HoverTransitions.WithLabelValues(state).Inc()
}

type cacheHooks struct{ m *Metrics }

func (h cacheHooks) OnCacheHit(_ context.Context, kind string) {
	h.m.CacheHits.WithLabelValues(kind).Inc()
}
func (h cacheHooks) OnCacheMiss(_ context.Context, kind string) {
	h.m.CacheMisses.WithLabelValues(kind).Inc()
}
func (h cacheHooks) OnCacheSet(_ context.Context, kind string, size int) {
	h.m.CacheBytes.WithLabelValues(kind).Add(float64(size))
}

type httpHooks struct{ m *Metrics }

func (h httpHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.m.RequestMs.WithLabelValues(route).Observe(ms(d))
}
