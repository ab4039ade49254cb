package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ritamzico/truth"
)

const metricsNamespace = "truthd"

// serverMetrics are the Prometheus series truthd exposes at /metrics.
type serverMetrics struct {
	documentsOpened prometheus.Counter
	editsApplied    prometheus.Counter
	faultsLive      prometheus.Gauge
}

func newServerMetrics() *serverMetrics {
	return &serverMetrics{
		documentsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "documents_opened_total",
			Help:      "Documents opened since server start.",
		}),
		editsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "edits_applied_total",
			Help:      "Edit transactions completed since server start.",
		}),
		faultsLive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "faults_live",
			Help:      "Faults currently outstanding across all open documents.",
		}),
	}
}

// wire subscribes m to p's cause buses so its counters/gauge track state
// without the HTTP handlers having to update them by hand.
func (m *serverMetrics) wire(p *truth.Program) {
	p.OnDocumentCreate(func(e truth.DocumentCreateEvent) {
		m.documentsOpened.Inc()
		for _, st := range e.Document.Statements {
			m.faultsLive.Add(float64(len(st.Faults)))
		}
	})
	p.OnEditComplete(func(truth.EditCompleteEvent) {
		m.editsApplied.Inc()
	})
	p.OnFaultChange(func(event truth.FaultChangeEvent) {
		m.faultsLive.Add(float64(len(event.Added) - len(event.Removed)))
	})
}
