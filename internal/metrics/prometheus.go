package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MustRegisterNewCounter registers and returns a function for counting.
func MustRegisterNewCounter(name string, help string, labels []string) func(prometheus.Labels) {
	counter := promauto.NewCounterVec(prometheus.CounterOpts{
		Name: namespace + "_" + name + "_count",
		Help: help,
	}, labels)

	return func(labels prometheus.Labels) {
		counter.With(labels).Inc()
	}
}

// MustRegisterNewGauge registers and returns a function for setting a
// gauge value.
func MustRegisterNewGauge(name string, help string, labels []string) func(prometheus.Labels, float64) {
	gauge := promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: namespace + "_" + name,
		Help: help,
	}, labels)

	return func(labels prometheus.Labels, v float64) {
		gauge.With(labels).Set(v)
	}
}
