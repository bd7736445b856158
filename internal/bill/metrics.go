package bill

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan and split outcomes used as metric labels
const (
	resultOK           = "ok"
	resultCached       = "cached"
	resultNotABill     = "not_a_bill"
	resultUnparsable   = "unparsable"
	resultUnsupported  = "unsupported_image"
	resultUnavailable  = "unavailable"
	resultInvalidInput = "invalid_input"
)

// Metrics holds the Prometheus collectors of the bill service
type Metrics struct {
	scans             *prometheus.CounterVec
	extractionSeconds prometheus.Histogram
	splits            *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		scans: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splitzy",
			Name:      "bill_scans_total",
			Help:      "Bill scans by outcome.",
		}, []string{"result"}),
		extractionSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "splitzy",
			Name:      "extraction_duration_seconds",
			Help:      "Time spent waiting for the vision model.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		splits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splitzy",
			Name:      "splits_total",
			Help:      "Split calculations by outcome.",
		}, []string{"result"}),
	}
}

func (m *Metrics) observeScan(result string) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(result).Inc()
}

func (m *Metrics) observeExtraction(d time.Duration) {
	if m == nil {
		return
	}
	m.extractionSeconds.Observe(d.Seconds())
}

func (m *Metrics) observeSplit(result string) {
	if m == nil {
		return
	}
	m.splits.WithLabelValues(result).Inc()
}
