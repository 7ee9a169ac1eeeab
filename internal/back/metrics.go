package back

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	modeDirect   = "direct"
	modeTransfer = "transfer"

	outcomeCommitted = "committed"
	outcomeRejected  = "rejected"
	outcomeDuplicate = "duplicate"
	outcomeInvalid   = "invalid"
	outcomeError     = "error"
)

type metrics struct {
	submissions *prometheus.CounterVec
	snapshots   prometheus.Counter
	deltas      prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pongrank",
			Name:      "submissions_total",
			Help:      "Tournament submissions by mode and outcome.",
		}, []string{"mode", "outcome"}),
		snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pongrank",
			Name:      "rating_snapshots_total",
			Help:      "Rating snapshots committed.",
		}),
		deltas: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pongrank",
			Name:      "match_transfer_delta",
			Help:      "Rating points transferred per committed match.",
			Buckets:   []float64{0, 2, 4, 6, 8, 10, 16, 25, 35, 50},
		}),
	}

	reg.MustRegister(m.submissions, m.snapshots, m.deltas)

	return m
}

func (m *metrics) observe(mode, outcome string, res Result) {
	m.submissions.WithLabelValues(mode, outcome).Inc()
	if outcome != outcomeCommitted {
		return
	}

	m.snapshots.Add(float64(len(res.Snapshots)))
	for _, v := range res.Matches {
		if v.Outcome != nil {
			m.deltas.Observe(float64(v.Outcome.Delta))
		}
	}
}
