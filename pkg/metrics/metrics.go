package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trialgate"

// Metrics holds the service collectors. Each instance owns its registry so
// tests can create as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	gateDecisions *prometheus.CounterVec
	redemptions   *prometheus.CounterVec
	grants        *prometheus.CounterVec
	codesIssued   prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration by route.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entitlement",
			Name:      "decisions_total",
			Help:      "Entitlement gate decisions by outcome.",
		}, []string{"outcome"}),
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trialcode",
			Name:      "redemptions_total",
			Help:      "Trial code redemption attempts by outcome.",
		}, []string{"outcome"}),
		grants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "grants_total",
			Help:      "Subscriptions written by plan.",
		}, []string{"plan"}),
		codesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trialcode",
			Name:      "issued_total",
			Help:      "Trial codes created.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration, m.requestTotal,
		m.gateDecisions, m.redemptions, m.grants, m.codesIssued,
	)
	return m
}

// Registry exposes the underlying registry, e.g. for the pgx pool collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// GateDecision counts one entitlement gate outcome ("allowed" or a denial reason).
func (m *Metrics) GateDecision(outcome string) {
	m.gateDecisions.WithLabelValues(outcome).Inc()
}

// Redemption counts one redemption attempt outcome.
func (m *Metrics) Redemption(outcome string) {
	m.redemptions.WithLabelValues(outcome).Inc()
}

// Grant counts a subscription write for plan.
func (m *Metrics) Grant(plan string) {
	m.grants.WithLabelValues(plan).Inc()
}

// CodesIssued adds n newly created trial codes.
func (m *Metrics) CodesIssued(n int) {
	m.codesIssued.Add(float64(n))
}

// Middleware records request count and latency labelled with the chi route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)

		m.requestTotal.WithLabelValues(r.Method, route, code).Inc()
		m.requestDuration.WithLabelValues(r.Method, route, code).Observe(time.Since(start).Seconds())
	})
}
