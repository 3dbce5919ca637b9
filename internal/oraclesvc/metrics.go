package oraclesvc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values
const (
	labelTransitioned = "transitioned"
	labelNoTransition = "no_transition"
	labelInvalid      = "invalid"
	labelError        = "error"
)

// Metrics are the Prometheus collectors of one server
type Metrics struct {
	simulations *prometheus.CounterVec
	duration    prometheus.Histogram
	inFlight    prometheus.Gauge
}

// NewMetrics registers the server collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		simulations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sizing_oracle_simulations_total",
			Help: "Total simulation requests by outcome",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sizing_oracle_simulation_seconds",
			Help:    "Wall time spent per simulation request",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sizing_oracle_in_flight",
			Help: "Simulation requests currently being served",
		}),
	}
}
