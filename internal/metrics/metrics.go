// Package metrics exposes paydesk's Prometheus instrumentation. The
// rounding clamp counter is the observability hook for rounding-policy /
// bucket-granularity mismatches: clamps are valid output, but a high rate
// means the configured step is too coarse for the batch's bucket sizes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "paydesk"

var (
	// ExportsTotal counts built payroll exports by output format.
	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "export",
		Name:      "builds_total",
		Help:      "Payroll exports built, by output format.",
	}, []string{"format"})

	// ExportDuration observes the full aggregate+round+order pass.
	ExportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "export",
		Name:      "build_duration_seconds",
		Help:      "Time spent aggregating, rounding, and ordering one batch.",
		Buckets:   prometheus.DefBuckets,
	})

	// RoundingClampTotal counts employees whose derived base bucket was
	// clamped to zero after rounding.
	RoundingClampTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rounding",
		Name:      "base_clamp_total",
		Help:      "Rounded base buckets clamped to zero.",
	})

	// ExportJobsTotal counts async export jobs by terminal status.
	ExportJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "export_jobs_total",
		Help:      "Async export jobs processed, by outcome.",
	}, []string{"status"})

	// HTTPRequestsTotal counts API requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served.",
	}, []string{"method", "route", "status"})
)

// Handler serves the default registry for the /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
