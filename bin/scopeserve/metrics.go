package main

import "github.com/prometheus/client_golang/prometheus"

var (
	acquisitionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scope_acquisitions_total",
		Help: "Completed waveform acquisitions.",
	})
	acquisitionErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scope_acquisition_errors_total",
		Help: "Failed waveform acquisitions.",
	})
	acquisitionSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scope_last_acquisition_seconds",
		Help: "Duration of the last acquisition including transfer.",
	})
)

func init() {
	prometheus.MustRegister(acquisitionsTotal, acquisitionErrors, acquisitionSeconds)
}
