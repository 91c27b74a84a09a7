// Package metrics exposes daemon counters through a private prometheus
// registry. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crabbar"

type Metrics struct {
	registry *prometheus.Registry

	messages    *prometheus.CounterVec
	handleTime  *prometheus.HistogramVec
	ipcRequests *prometheus.CounterVec
	ipcErrors   *prometheus.CounterVec
	batches     prometheus.Counter
	batchSize   prometheus.Histogram
	windowsOpen prometheus.Gauge
	reloads     *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Messages processed by the state owner.",
		}, []string{"kind"}),
		handleTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "message_duration_seconds",
			Help:      "Time spent handling one message, effects included.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}, []string{"kind"}),
		ipcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ipc_requests_total",
			Help:      "IPC requests decoded, by request kind.",
		}, []string{"kind"}),
		ipcErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ipc_errors_total",
			Help:      "IPC connections dropped, by failing stage.",
		}, []string{"stage"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "update_batches_total",
			Help:      "Coalesced module update batches applied.",
		}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "update_batch_size",
			Help:      "Updates per applied batch.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
		}),
		windowsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "windows",
			Help:      "Windows currently known to the daemon.",
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Preset reloads, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.messages, m.handleTime, m.ipcRequests, m.ipcErrors,
		m.batches, m.batchSize, m.windowsOpen, m.reloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the private registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) MessageHandled(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(kind).Inc()
	m.handleTime.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) IPCRequest(kind string) {
	if m == nil {
		return
	}
	m.ipcRequests.WithLabelValues(kind).Inc()
}

func (m *Metrics) IPCError(stage string) {
	if m == nil {
		return
	}
	m.ipcErrors.WithLabelValues(stage).Inc()
}

func (m *Metrics) BatchApplied(size int) {
	if m == nil {
		return
	}
	m.batches.Inc()
	m.batchSize.Observe(float64(size))
}

func (m *Metrics) Windows(n int) {
	if m == nil {
		return
	}
	m.windowsOpen.Set(float64(n))
}

func (m *Metrics) Reload(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.reloads.WithLabelValues(result).Inc()
}
