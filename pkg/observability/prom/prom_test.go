package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/switchyard/pkg/observability"
)

func TestHooksCount(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	h := New(reg)

	h.OnToggleComplete(ctx, "1", 1, 20*time.Millisecond, nil)
	h.OnToggleComplete(ctx, "1", -1, time.Second, errors.New("timeout"))
	h.OnToggleComplete(ctx, "2", 0, 10*time.Millisecond, nil)
	h.OnToggleRejected(ctx, "3", "NOT_CONFIGURED")
	h.OnCalibrationCommit(ctx, "3", nil)
	h.OnCacheHit(ctx, "parts")
	h.OnCacheSet(ctx, "parts", 512)
	h.OnResponse(ctx, "GET", "pi", "/api/layout", 503, time.Millisecond)
	h.OnLoadComplete(ctx, "http://pi/api", 42, 3, time.Second, nil)

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"toggles ok", h.toggles.WithLabelValues("ok"), 2},
		{"toggles error", h.toggles.WithLabelValues("error"), 1},
		{"rejections", h.rejections.WithLabelValues("NOT_CONFIGURED"), 1},
		{"commits", h.commits.WithLabelValues("ok"), 1},
		{"cache hits", h.cacheOps.WithLabelValues("hit", "parts"), 1},
		{"cache bytes", h.cacheBytes, 512},
		{"http 5xx", h.requests.WithLabelValues("GET", "/api/layout", "5xx"), 1},
		{"scene nodes", h.sceneNodes, 42},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(tt.c); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestInstall(t *testing.T) {
	t.Cleanup(observability.Reset)

	h := New(prometheus.NewRegistry())
	h.Install()

	if observability.Switch() != observability.SwitchHooks(h) {
		t.Error("Install should register switch hooks")
	}
	if observability.HTTP() != observability.HTTPHooks(h) {
		t.Error("Install should register HTTP hooks")
	}
}

func TestStatusClass(t *testing.T) {
	for code, want := range map[int]string{200: "2xx", 302: "3xx", 404: "4xx", 500: "5xx"} {
		if got := statusClass(code); got != want {
			t.Errorf("statusClass(%d) = %s, want %s", code, got, want)
		}
	}
}
