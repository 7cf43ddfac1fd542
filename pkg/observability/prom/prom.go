// Package prom implements the observability hooks on top of Prometheus
// collectors.
//
// The CLI registers these at startup when metrics are enabled, and the
// simulator exposes the same registry on /metrics.
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/switchyard/pkg/observability"
)

const namespace = "switchyard"

// Hooks implements every observability hook interface. Collectors are
// registered on construction.
type Hooks struct {
	loads        *prometheus.CounterVec
	loadDuration prometheus.Histogram
	sceneNodes   prometheus.Gauge

	toggles        *prometheus.CounterVec
	toggleDuration prometheus.Histogram
	rejections     *prometheus.CounterVec
	commits        *prometheus.CounterVec

	cacheOps   *prometheus.CounterVec
	cacheBytes prometheus.Counter

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Hooks {
	h := &Hooks{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "session", Name: "loads_total",
			Help: "Operator session loads by result.",
		}, []string{"result"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "session", Name: "load_duration_seconds",
			Help:    "Time to fetch layout and catalog and build the scene.",
			Buckets: prometheus.DefBuckets,
		}),
		sceneNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "session", Name: "scene_nodes",
			Help: "Nodes in the most recently built scene.",
		}),
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "switch", Name: "toggles_total",
			Help: "Toggle requests sent to the controller by result.",
		}, []string{"result"}),
		toggleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "switch", Name: "toggle_duration_seconds",
			Help:    "Round trip of a toggle request.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "switch", Name: "toggle_rejections_total",
			Help: "Toggles refused locally, by reason.",
		}, []string{"reason"}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "calibration", Name: "commits_total",
			Help: "Calibration commits by result.",
		}, []string{"result"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "operations_total",
			Help: "Catalog cache operations.",
		}, []string{"op", "key_type"}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "written_bytes_total",
			Help: "Bytes written to the catalog cache.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Controller API requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "Controller API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
	reg.MustRegister(
		h.loads, h.loadDuration, h.sceneNodes,
		h.toggles, h.toggleDuration, h.rejections, h.commits,
		h.cacheOps, h.cacheBytes,
		h.requests, h.requestDuration,
	)
	return h
}

// Install registers h as the global session, switch, cache and HTTP hooks.
func (h *Hooks) Install() {
	observability.SetSessionHooks(h)
	observability.SetSwitchHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (h *Hooks) OnLoadStart(context.Context, string) {}

func (h *Hooks) OnLoadComplete(_ context.Context, _ string, nodes, _ int, d time.Duration, err error) {
	h.loads.WithLabelValues(result(err)).Inc()
	h.loadDuration.Observe(d.Seconds())
	if err == nil {
		h.sceneNodes.Set(float64(nodes))
	}
}

func (h *Hooks) OnToggleStart(context.Context, string) {}

func (h *Hooks) OnToggleComplete(_ context.Context, _ string, _ int, d time.Duration, err error) {
	h.toggles.WithLabelValues(result(err)).Inc()
	h.toggleDuration.Observe(d.Seconds())
}

func (h *Hooks) OnToggleRejected(_ context.Context, _ string, reason string) {
	h.rejections.WithLabelValues(reason).Inc()
}

func (h *Hooks) OnCalibrationCommit(_ context.Context, _ string, err error) {
	h.commits.WithLabelValues(result(err)).Inc()
}

func (h *Hooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues("hit", keyType).Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues("miss", keyType).Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheOps.WithLabelValues("set", keyType).Inc()
	h.cacheBytes.Add(float64(size))
}

func (h *Hooks) OnRequest(context.Context, string, string, string) {}

func (h *Hooks) OnResponse(_ context.Context, method, _, path string, status int, d time.Duration) {
	h.requests.WithLabelValues(method, path, statusClass(status)).Inc()
	h.requestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (h *Hooks) OnError(_ context.Context, method, _, path string, _ error) {
	h.requests.WithLabelValues(method, path, "error").Inc()
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

var (
	_ observability.SessionHooks = (*Hooks)(nil)
	_ observability.SwitchHooks  = (*Hooks)(nil)
	_ observability.CacheHooks   = (*Hooks)(nil)
	_ observability.HTTPHooks    = (*Hooks)(nil)
)
