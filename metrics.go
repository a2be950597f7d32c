package sensorpush

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Call counter per endpoint and status code
	apiRequestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sensorpush",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Requests sent to the SensorPush API.",
	}, []string{"path", "code"})

	apiRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sensorpush",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Latency of requests sent to the SensorPush API.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"path"})

	throttleWait = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sensorpush",
		Subsystem: "api",
		Name:      "throttle_wait_seconds_total",
		Help:      "Time spent waiting for the minimum interval between data requests.",
	})
)

// Collectors returns the client metrics so a caller can register them.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{apiRequestCounter, apiRequestDuration, throttleWait}
}

func observeRequest(path, code string, d time.Duration) {
	apiRequestCounter.WithLabelValues(path, code).Inc()
	apiRequestDuration.WithLabelValues(path).Observe(d.Seconds())
}
