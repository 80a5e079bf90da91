package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "launched"

type Metrics interface {
	IncEvents()
	IncMutations()
	IncNotifications(delivered bool)
	ObservePersistenceDuration(d time.Duration)
	IncPersistenceFailures()
	SetRegisteredUsers(n int)
	IncCooldowns()
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, d time.Duration)
}

type provider struct {
	events              prometheus.Counter
	mutations           prometheus.Counter
	notifications       *prometheus.CounterVec
	persistenceDuration prometheus.Histogram
	persistenceFailures prometheus.Counter
	registeredUsers     prometheus.Gauge
	cooldowns           prometheus.Counter
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil registry disables metrics.
func New(reg prometheus.Registerer) Metrics {
	if reg == nil {
		return Noop{}
	}

	f := promauto.With(reg)
	return &provider{
		events: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presence_events_total",
			Help:      "Total number of presence events received",
		}),
		mutations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_mutations_total",
			Help:      "Total number of events or commands that changed the registry",
		}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Marked-game notifications by delivery result",
		}, []string{"result"}),
		persistenceDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "persistence_duration_seconds",
			Help:      "Duration of snapshot writes in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		persistenceFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Total number of failed snapshot writes",
		}),
		registeredUsers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registered_users",
			Help:      "Number of registered users",
		}),
		cooldowns: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_cooldowns_total",
			Help:      "Total number of invalid-command cooldowns started",
		}),
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

func (m *provider) IncEvents() {
	m.events.Inc()
}

func (m *provider) IncMutations() {
	m.mutations.Inc()
}

func (m *provider) IncNotifications(delivered bool) {
	result := "delivered"
	if !delivered {
		result = "failed"
	}
	m.notifications.WithLabelValues(result).Inc()
}

func (m *provider) ObservePersistenceDuration(d time.Duration) {
	m.persistenceDuration.Observe(d.Seconds())
}

func (m *provider) IncPersistenceFailures() {
	m.persistenceFailures.Inc()
}

func (m *provider) SetRegisteredUsers(n int) {
	m.registeredUsers.Set(float64(n))
}

func (m *provider) IncCooldowns() {
	m.cooldowns.Inc()
}

func (m *provider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, statusBucket(status)).Inc()
}

func (m *provider) ObserveRequestDuration(endpoint string, d time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Noop discards everything.
type Noop struct{}

func (Noop) IncEvents()                                       {}
func (Noop) IncMutations()                                    {}
func (Noop) IncNotifications(_ bool)                          {}
func (Noop) ObservePersistenceDuration(_ time.Duration)       {}
func (Noop) IncPersistenceFailures()                          {}
func (Noop) SetRegisteredUsers(_ int)                         {}
func (Noop) IncCooldowns()                                    {}
func (Noop) IncRequestsTotal(_ string, _ int)                 {}
func (Noop) ObserveRequestDuration(_ string, _ time.Duration) {}
