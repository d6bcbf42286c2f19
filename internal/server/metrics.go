package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/KaramelBytes/dashloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dashloom-cli/internal/engine"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records element processing and HTTP traffic. It implements
// engine.Observer so the processor reports into it directly.
type Metrics struct {
	reg             *prometheus.Registry
	elementsTotal   *prometheus.CounterVec
	elementDuration *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewMetrics registers collectors on a private registry, so several
// servers (or tests) can coexist in one process.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		elementsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashloom",
			Name:      "elements_processed_total",
			Help:      "Dashboard elements processed by element type, result kind and degradation.",
		}, []string{"type", "kind", "degraded"}),
		elementDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dashloom",
			Name:      "element_duration_seconds",
			Help:      "Time spent processing one element.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"type"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashloom",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dashloom",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	m.reg.MustRegister(
		m.elementsTotal,
		m.elementDuration,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ElementProcessed implements engine.Observer.
func (m *Metrics) ElementProcessed(t dashboard.ElementType, kind engine.Kind, degraded bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.elementsTotal.WithLabelValues(string(t), string(kind), strconv.FormatBool(degraded)).Inc()
	m.elementDuration.WithLabelValues(string(t)).Observe(elapsed.Seconds())
}

// Middleware counts requests by their chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
