package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	requestsTotal          *prometheus.CounterVec
	latencySeconds         *prometheus.HistogramVec
	errorsTotal            *prometheus.CounterVec
	decisionsTotal         *prometheus.CounterVec
	attendanceCheckinTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned.",
		}, []string{"method", "route", "status"})

		decisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "registration_decisions_total",
			Help: "Registration decisions recorded, labelled by action.",
		}, []string{"action"})

		attendanceCheckinTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendance_checkins_total",
			Help: "Successful QR attendance check-ins recorded.",
		})

		prometheus.MustRegister(requestsTotal, latencySeconds, errorsTotal, decisionsTotal, attendanceCheckinTotal)
	})
}

// Requests exposes the counter for served requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the request latency histogram.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Errors exposes the counter for error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return errorsTotal
}

// Decisions exposes the counter for registration decisions.
func Decisions() *prometheus.CounterVec {
	RegisterMetrics()
	return decisionsTotal
}

// AttendanceCheckins exposes the counter for recorded check-ins.
func AttendanceCheckins() prometheus.Counter {
	RegisterMetrics()
	return attendanceCheckinTotal
}
