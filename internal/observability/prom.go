package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	// Scoped sessions
	SessionSpanDuration       *prometheus.HistogramVec
	SessionInvalidateFailures prometheus.Counter

	// Wish lifecycle
	WishTransitions *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wishes",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "wishes",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				// Sane initial defaults
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "wishes",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		SessionSpanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "wishes",
				Subsystem: "session",
				Name:      "span_duration_seconds",
				Help:      "Authenticate-to-invalidate span duration by outcome.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2, 5},
			},
			[]string{"outcome"}, // verify_failed|acquire_failed|bind_failed|completed
		),
		SessionInvalidateFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "wishes",
				Subsystem: "session",
				Name:      "invalidate_failures_total",
				Help:      "Invalidate calls that failed after an operation.",
			},
		),
		WishTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wishes",
				Subsystem: "lifecycle",
				Name:      "transitions_total",
				Help:      "Wish status transitions by resulting status.",
			},
			[]string{"to"},
		),
	}
	reg.MustRegister(
		p.RequestsTotal,
		p.RequestsDuration,
		p.InFlight,
		p.SessionSpanDuration,
		p.SessionInvalidateFailures,
		p.WishTransitions,
	)

	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only available after routing; best effort:
		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}
