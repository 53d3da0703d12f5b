package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checkout and notification outcomes used as metric labels.
const (
	OutcomeSuccess     = "success"
	OutcomeEmptyCart   = "empty_cart"
	OutcomeInvalid     = "invalid"
	OutcomeDuplicate   = "duplicate"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
	OutcomeSent        = "sent"
	OutcomeFailed      = "failed"
	OutcomeQueued      = "queued"
)

// Metrics collects the Prometheus metrics of the storefront and the worker.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	checkouts       *prometheus.CounterVec
	orderLines      prometheus.Counter
	notifications   *prometheus.CounterVec
	jobRuns         *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
}

// NewMetrics initialises the registry and the base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkouts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	lines := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_order_lines_total",
		Help: "Order rows created by successful checkouts.",
	})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_notifications_total",
		Help: "Order confirmation deliveries by outcome.",
	}, []string{"outcome"})
	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_jobs_total",
		Help: "Background job executions by job name and status.",
	}, []string{"job", "status"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_job_duration_seconds",
		Help:    "Duration of background job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	registry.MustRegister(requests, duration, checkouts, lines, notifications, jobRuns, jobDuration)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		checkouts:       checkouts,
		orderLines:      lines,
		notifications:   notifications,
		jobRuns:         jobRuns,
		jobDuration:     jobDuration,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveCheckout counts a checkout attempt and, on success, its order rows.
func (m *Metrics) ObserveCheckout(outcome string, lines int) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess && lines > 0 {
		m.orderLines.Add(float64(lines))
	}
}

// ObserveNotification counts a confirmation delivery outcome.
func (m *Metrics) ObserveNotification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

// Tracker measures a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// TrackJob starts a tracker for the named job.
func (m *Metrics) TrackJob(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records duration and status and returns err untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	t.metrics.jobRuns.WithLabelValues(t.job, status).Inc()
	t.metrics.jobDuration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
