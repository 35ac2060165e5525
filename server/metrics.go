package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/c4/model"
)

const metricsNamespace = "c4"

// metrics holds the dev server's collectors on a private registry so
// several servers (and tests) can coexist in one process.
type metrics struct {
	registry       *prometheus.Registry
	reloads        *prometheus.CounterVec
	reloadDuration prometheus.Histogram
	updates        *prometheus.CounterVec
	elements       *prometheus.GaugeVec
	findings       prometheus.Gauge
}

func newMetrics(clients func() int) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reloads_total",
			Help:      "Workspace reloads by result.",
		}, []string{"result"}),
		reloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "reload_duration_seconds",
			Help:      "Time to load and resolve the workspace.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "element_updates_total",
			Help:      "Element edits received over the API by result.",
		}, []string{"result"}),
		elements: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "model_entries",
			Help:      "Entries in the current model by collection.",
		}, []string{"collection"}),
		findings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "validation_findings",
			Help:      "Resolver findings in the current model.",
		}),
	}

	m.registry.MustRegister(
		m.reloads,
		m.reloadDuration,
		m.updates,
		m.elements,
		m.findings,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "websocket_clients",
			Help:      "Connected live-reload clients.",
		}, func() float64 { return float64(clients()) }),
	)
	return m
}

func (m *metrics) observeReload(start time.Time, err error) {
	m.reloadDuration.Observe(time.Since(start).Seconds())
	m.reloads.WithLabelValues(result(err)).Inc()
}

func (m *metrics) observeUpdate(err error) {
	m.updates.WithLabelValues(result(err)).Inc()
}

func (m *metrics) setModel(mdl *model.Model, findings int) {
	s := mdl.Stats()
	m.elements.WithLabelValues("persons").Set(float64(s.Persons))
	m.elements.WithLabelValues("systems").Set(float64(s.Systems))
	m.elements.WithLabelValues("containers").Set(float64(s.Containers))
	m.elements.WithLabelValues("components").Set(float64(s.Components))
	m.elements.WithLabelValues("relationships").Set(float64(s.Relationships))
	m.elements.WithLabelValues("flows").Set(float64(s.Flows))
	m.elements.WithLabelValues("deployments").Set(float64(s.Deployments))
	m.findings.Set(float64(findings))
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
