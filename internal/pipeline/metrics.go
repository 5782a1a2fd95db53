package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dgallion1/atlasgen/internal/doctree"
	"github.com/dgallion1/atlasgen/internal/report"
)

// Metrics are the Prometheus collectors updated by the orchestrator.
type Metrics struct {
	builds      *prometheus.CounterVec
	duration    prometheus.Histogram
	nodes       *prometheus.GaugeVec
	lastSuccess prometheus.Gauge
	deliveries  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atlasgen",
			Name:      "builds_total",
			Help:      "Build runs by final status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "atlasgen",
			Name:      "build_duration_seconds",
			Help:      "Time spent loading and building the tree.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		nodes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "atlasgen",
			Name:      "nodes",
			Help:      "Generated view nodes in the current tree by type.",
		}, []string{"type"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "atlasgen",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful build.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atlasgen",
			Name:      "deliveries_total",
			Help:      "Sink deliveries by sink and result.",
		}, []string{"sink", "result"}),
	}
	if reg != nil {
		reg.MustRegister(m.builds, m.duration, m.nodes, m.lastSuccess, m.deliveries)
	}
	return m
}

func (m *Metrics) observeBuild(status RunStatus, out *Output) {
	m.builds.WithLabelValues(string(status)).Inc()
	if out == nil {
		return
	}
	m.duration.Observe(out.Duration.Seconds())
	if status != StatusFailed {
		m.setCounts(out.Counts)
		m.lastSuccess.Set(float64(out.StartedAt.Unix()))
	}
}

func (m *Metrics) setCounts(c report.Counts) {
	for _, t := range doctree.KnownTypes {
		m.nodes.WithLabelValues(string(t)).Set(float64(c.ByType[t]))
	}
	m.nodes.WithLabelValues("unknown").Set(float64(c.Unknown))
}

func (m *Metrics) observeDelivery(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.deliveries.WithLabelValues(sink, result).Inc()
}
