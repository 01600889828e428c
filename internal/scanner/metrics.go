package scanner

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/railtms/assettrack/internal/models"
)

// Metrics holds the scanner's Prometheus collectors. A nil *Metrics is a no-op.
type Metrics struct {
	runs     *prometheus.CounterVec
	alerts   prometheus.Counter
	rejected prometheus.Counter
	duration prometheus.Histogram
}

// NewMetrics creates and registers the scanner collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assettrack",
			Subsystem: "scan",
			Name:      "runs_total",
			Help:      "Expiration scan runs by outcome.",
		}, []string{"outcome"}),
		alerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "assettrack",
			Subsystem: "scan",
			Name:      "alerts_total",
			Help:      "Expiry alerts emitted.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "assettrack",
			Subsystem: "scan",
			Name:      "missed_cycles_total",
			Help:      "Scan triggers rejected because a scan was already running.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "assettrack",
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Wall time of expiration scan runs.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.alerts, m.rejected, m.duration)
	}
	return m
}

func (m *Metrics) observeRun(outcome string, res *models.ScanResult) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	if res != nil {
		m.alerts.Add(float64(res.Alerted))
		m.duration.Observe(res.FinishedAt.Sub(res.StartedAt).Seconds())
	}
}

func (m *Metrics) observeRejected() {
	if m == nil {
		return
	}
	m.rejected.Inc()
}
