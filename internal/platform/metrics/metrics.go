package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the engine. Methods are nil-safe so
// services can run without metrics in tests.
type Metrics struct {
	ApplicationTransitions  *prometheus.CounterVec
	DocumentsUploaded       prometheus.Counter
	DocumentsVerified       prometheus.Counter
	DocumentsRejected       prometheus.Counter
	NotificationsDispatched *prometheus.CounterVec
	RequestDuration         *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ApplicationTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "campusbourses_application_transitions_total",
			Help: "Application status transitions by target status",
		}, []string{"to_status"}),
		DocumentsUploaded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusbourses_documents_uploaded_total",
			Help: "Documents accepted for verification",
		}),
		DocumentsVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusbourses_documents_verified_total",
			Help: "Documents marked verified by an administrator",
		}),
		DocumentsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusbourses_documents_rejected_total",
			Help: "Documents rejected and removed by an administrator",
		}),
		NotificationsDispatched: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "campusbourses_notifications_dispatched_total",
			Help: "Notifications written per audience",
		}, []string{"audience"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campusbourses_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) RecordTransition(toStatus string) {
	if m == nil {
		return
	}
	m.ApplicationTransitions.WithLabelValues(toStatus).Inc()
}

func (m *Metrics) RecordUpload() {
	if m == nil {
		return
	}
	m.DocumentsUploaded.Inc()
}

func (m *Metrics) RecordVerification() {
	if m == nil {
		return
	}
	m.DocumentsVerified.Inc()
}

func (m *Metrics) RecordRejection() {
	if m == nil {
		return
	}
	m.DocumentsRejected.Inc()
}

func (m *Metrics) RecordDispatch(audience string) {
	if m == nil {
		return
	}
	m.NotificationsDispatched.WithLabelValues(audience).Inc()
}

func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, status).Observe(seconds)
}
