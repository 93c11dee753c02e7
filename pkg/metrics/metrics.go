// Package metrics registers prometheus collectors under the irtx namespace.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "irtx"

// MustRegisterCounter creates and registers a counter.
func MustRegisterCounter(subSystem, name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subSystem,
		Name:      name,
		Help:      help,
	})
	prometheus.MustRegister(c)
	return c
}

// MustRegisterCounterVec creates and registers a counter vector.
func MustRegisterCounterVec(subSystem, name, help string, labelNames ...string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subSystem,
		Name:      name,
		Help:      help,
	}, labelNames)
	prometheus.MustRegister(c)
	return c
}

// MustRegisterGauge creates and registers a gauge.
func MustRegisterGauge(subSystem, name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subSystem,
		Name:      name,
		Help:      help,
	})
	prometheus.MustRegister(g)
	return g
}

// MustRegisterHistogram creates and registers a histogram.
func MustRegisterHistogram(subSystem, name, help string, buckets []float64) prometheus.Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subSystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	})
	prometheus.MustRegister(h)
	return h
}
