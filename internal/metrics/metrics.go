package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Evaluation outcomes used as the "outcome" label
const (
	OutcomeQualified        = "qualified"
	OutcomeNotQualified     = "not_qualified"
	OutcomeAlreadyProcessed = "already_processed"
	OutcomeNoLog            = "no_log"
	OutcomeError            = "error"
)

// Metrics holds the Prometheus collectors for activity recording, streak
// evaluation, the catch-up sweep and the HTTP surface.
type Metrics struct {
	ActivityEventsTotal *prometheus.CounterVec

	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	StreakResetsTotal  prometheus.Counter

	SweepRunsTotal     prometheus.Counter
	SweepUsersTotal    *prometheus.CounterVec
	SweepLastRunSecond prometheus.Gauge

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers the collectors with the default registry.
// Registration happens once per process; later calls return the same set.
//
// Metrics:
//   - daybuddy_activity_events_total{kind}
//   - daybuddy_evaluations_total{outcome}
//   - daybuddy_evaluation_duration_seconds
//   - daybuddy_streak_resets_total
//   - daybuddy_sweep_runs_total
//   - daybuddy_sweep_users_total{result}
//   - daybuddy_sweep_last_run_timestamp_seconds
//   - daybuddy_http_requests_total{method,route,status}
//   - daybuddy_http_request_duration_seconds{method,route}
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			ActivityEventsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "daybuddy_activity_events_total",
					Help: "Total number of recorded activity events",
				},
				[]string{"kind"}, // "task" or "focus_session"
			),

			EvaluationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "daybuddy_evaluations_total",
					Help: "Total number of streak evaluations by outcome",
				},
				[]string{"outcome"},
			),

			EvaluationDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "daybuddy_evaluation_duration_seconds",
					Help:    "Duration of streak evaluations in seconds",
					Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
				},
			),

			StreakResetsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "daybuddy_streak_resets_total",
					Help: "Total number of evaluations that reset a user's streaks after a gap",
				},
			),

			SweepRunsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "daybuddy_sweep_runs_total",
					Help: "Total number of catch-up sweeps run",
				},
			),

			SweepUsersTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "daybuddy_sweep_users_total",
					Help: "Total number of users handled by catch-up sweeps",
				},
				[]string{"result"}, // "evaluated" or "failed"
			),

			SweepLastRunSecond: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "daybuddy_sweep_last_run_timestamp_seconds",
					Help: "Unix time of the last completed catch-up sweep",
				},
			),

			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "daybuddy_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "route", "status"},
			),

			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "daybuddy_http_request_duration_seconds",
					Help:    "Duration of HTTP requests in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),
		}
	})

	return globalMetrics
}

// A nil *Metrics is valid and records nothing.

func (m *Metrics) RecordActivity(kind string) {
	if m == nil {
		return
	}
	m.ActivityEventsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordEvaluation(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.EvaluationsTotal.WithLabelValues(outcome).Inc()
	m.EvaluationDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordReset() {
	if m == nil {
		return
	}
	m.StreakResetsTotal.Inc()
}

func (m *Metrics) RecordSweep(evaluated, failed int, at time.Time) {
	if m == nil {
		return
	}
	m.SweepRunsTotal.Inc()
	m.SweepUsersTotal.WithLabelValues("evaluated").Add(float64(evaluated))
	m.SweepUsersTotal.WithLabelValues("failed").Add(float64(failed))
	m.SweepLastRunSecond.Set(float64(at.Unix()))
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
