package racemetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RaceMetrics is recorded by the model loop, the timing decoder and the views.
type RaceMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, d time.Duration)

	RecordFrameDecoded(ctx context.Context, channel string)
	RecordFrameRejected(ctx context.Context, reason string)
	RecordEventDropped(ctx context.Context)
	RecordViewRecompute(ctx context.Context, view string, d time.Duration)
}

type prometheusMetrics struct {
	attempts   *prometheus.CounterVec
	successes  *prometheus.CounterVec
	failures   *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	decoded    *prometheus.CounterVec
	rejected   *prometheus.CounterVec
	dropped    prometheus.Counter
	recomputes *prometheus.HistogramVec
}

// NewPrometheusMetrics registers the collectors on reg under namespace.
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) (RaceMetrics, error) {
	m := &prometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "model", Name: "operation_attempts_total",
			Help: "Model commands submitted.",
		}, []string{"operation", "service"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "model", Name: "operation_success_total",
			Help: "Model commands completed without error.",
		}, []string{"operation", "service"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "model", Name: "operation_failures_total",
			Help: "Model commands that returned an error or panicked.",
		}, []string{"operation", "service"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "model", Name: "operation_duration_seconds",
			Help:    "Time spent executing model commands.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}, []string{"operation", "service"}),
		decoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "timing", Name: "frames_decoded_total",
			Help: "Device frames turned into timing events.",
		}, []string{"channel"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "timing", Name: "frames_rejected_total",
			Help: "Device frames that could not be decoded.",
		}, []string{"reason"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "timing", Name: "events_dropped_total",
			Help: "Timing events discarded because the queue was full.",
		}),
		recomputes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "views", Name: "recompute_duration_seconds",
			Help:    "Time spent re-ranking views after a change.",
			Buckets: []float64{.00001, .0001, .0005, .001, .005, .01, .05},
		}, []string{"view"}),
	}

	for _, c := range []prometheus.Collector{
		m.attempts, m.successes, m.failures, m.durations,
		m.decoded, m.rejected, m.dropped, m.recomputes,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *prometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, d time.Duration) {
	m.durations.WithLabelValues(operation, service).Observe(d.Seconds())
}

func (m *prometheusMetrics) RecordFrameDecoded(_ context.Context, channel string) {
	m.decoded.WithLabelValues(channel).Inc()
}

func (m *prometheusMetrics) RecordFrameRejected(_ context.Context, reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *prometheusMetrics) RecordEventDropped(_ context.Context) {
	m.dropped.Inc()
}

func (m *prometheusMetrics) RecordViewRecompute(_ context.Context, view string, d time.Duration) {
	m.recomputes.WithLabelValues(view).Observe(d.Seconds())
}
