// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/gmap/pkg/observability"
)

const namespace = "gmap"

// Metrics holds the pipeline, cache and worker metrics. It implements
// observability.PipelineHooks, observability.CacheHooks and
// observability.WorkerHooks.
type Metrics struct {
	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec

	cacheRequests *prometheus.CounterVec
	cacheBytes    *prometheus.CounterVec

	submissions *prometheus.CounterVec
	queueDepth  prometheus.Gauge
	busyWorkers prometheus.Gauge
}

// NewMetrics creates the metrics. If reg is non-nil, the metrics will be
// registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	var m Metrics

	m.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_runs_total",
		Help:      "Total number of pipeline runs by visualization type, kind and outcome.",
	}, []string{"vis_type", "kind", "outcome"})
	m.runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_run_duration_seconds",
		Help:      "Time spent running a pipeline end to end.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"vis_type", "kind"})
	m.stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Time spent in a single external tool invocation.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"stage"})
	m.stageFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stage_failures_total",
		Help:      "Total number of failed stage invocations.",
	}, []string{"stage"})

	m.cacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Cache lookups by key type and result.",
	}, []string{"key_type", "result"})
	m.cacheBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_written_bytes_total",
		Help:      "Bytes written to the cache by key type.",
	}, []string{"key_type"})

	m.submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "worker_submissions_total",
		Help:      "Task submissions to the worker pool by result.",
	}, []string{"result"})
	m.queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "worker_queue_depth",
		Help:      "Number of tasks waiting for a worker.",
	})
	m.busyWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "worker_busy",
		Help:      "Number of workers running a task.",
	})

	if reg != nil {
		reg.MustRegister(
			m.runsTotal,
			m.runDuration,
			m.stageDuration,
			m.stageFailures,
			m.cacheRequests,
			m.cacheBytes,
			m.submissions,
			m.queueDepth,
			m.busyWorkers,
		)
	}

	return &m
}

// Register creates metrics on reg and installs them as the global hooks.
func Register(reg prometheus.Registerer) *Metrics {
	m := NewMetrics(reg)
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetWorkerHooks(m)
	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (m *Metrics) OnRunStart(context.Context, string, string, string) {}

func (m *Metrics) OnRunComplete(_ context.Context, _, visType, kind string, d time.Duration, err error) {
	m.runsTotal.WithLabelValues(visType, kind, outcome(err)).Inc()
	m.runDuration.WithLabelValues(visType, kind).Observe(d.Seconds())
}

func (m *Metrics) OnStageStart(context.Context, string, string) {}

func (m *Metrics) OnStageComplete(_ context.Context, _, stage string, d time.Duration, err error) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		m.stageFailures.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnSubmit(_ context.Context, _, reason string) {
	if reason == "" {
		reason = "accepted"
	}
	m.submissions.WithLabelValues(reason).Inc()
}

func (m *Metrics) OnQueueDepth(depth int) { m.queueDepth.Set(float64(depth)) }

func (m *Metrics) OnBusy(busy int) { m.busyWorkers.Set(float64(busy)) }

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.WorkerHooks   = (*Metrics)(nil)
)
