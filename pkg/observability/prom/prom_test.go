package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/gmap/pkg/observability"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metrics:
		for _, m := range f.GetMetric() {
			for _, lp := range m.GetLabel() {
				if v, ok := labels[lp.GetName()]; ok && v != lp.GetValue() {
					continue metrics
				}
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			if g := m.GetGauge(); g != nil {
				return g.GetValue()
			}
		}
	}
	return 0
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.OnRunComplete(ctx, "t1", "gmap", "primary", time.Second, nil)
	m.OnRunComplete(ctx, "t2", "gmap", "primary", time.Second, errors.New("boom"))
	m.OnStageComplete(ctx, "t2", "layout", time.Millisecond, errors.New("boom"))
	m.OnCacheHit(ctx, "artifact")
	m.OnCacheMiss(ctx, "artifact")
	m.OnCacheSet(ctx, "artifact", 512)
	m.OnSubmit(ctx, "t3", "")
	m.OnSubmit(ctx, "t4", "queue_full")
	m.OnQueueDepth(4)

	tests := []struct {
		name   string
		labels map[string]string
		want   float64
	}{
		{"gmap_pipeline_runs_total", map[string]string{"outcome": "success"}, 1},
		{"gmap_pipeline_runs_total", map[string]string{"outcome": "error"}, 1},
		{"gmap_stage_failures_total", map[string]string{"stage": "layout"}, 1},
		{"gmap_cache_requests_total", map[string]string{"result": "hit"}, 1},
		{"gmap_cache_written_bytes_total", map[string]string{"key_type": "artifact"}, 512},
		{"gmap_worker_submissions_total", map[string]string{"result": "accepted"}, 1},
		{"gmap_worker_submissions_total", map[string]string{"result": "queue_full"}, 1},
		{"gmap_worker_queue_depth", nil, 4},
	}

	for _, tt := range tests {
		if got := counterValue(t, reg, tt.name, tt.labels); got != tt.want {
			t.Errorf("%s%v = %v, want %v", tt.name, tt.labels, got, tt.want)
		}
	}
}

func TestRegisterInstallsHooks(t *testing.T) {
	defer observability.Reset()
	m := Register(prometheus.NewRegistry())
	if observability.Pipeline() != m || observability.Worker() != m {
		t.Error("Register should install the metrics as global hooks")
	}
}
