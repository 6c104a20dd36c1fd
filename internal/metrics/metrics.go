package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "planner"

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Metrics holds Prometheus metrics for the planner.
type Metrics struct {
	UsersRegistered    prometheus.Counter
	Logins             *prometheus.CounterVec
	EventsCreated      prometheus.Counter
	RemindersScheduled prometheus.Counter
	RemindersSent      *prometheus.CounterVec
	RemindersPending   prometheus.Gauge
}

// New creates metrics and registers them in reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UsersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_registered_total",
			Help:      "Total number of registered users",
		}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Total number of login attempts",
		}, []string{"status"}),
		EventsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_created_total",
			Help:      "Total number of created events",
		}),
		RemindersScheduled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_scheduled_total",
			Help:      "Total number of armed reminders",
		}),
		RemindersSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_sent_total",
			Help:      "Total number of fired reminders",
		}, []string{"status"}),
		RemindersPending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reminders_pending",
			Help:      "Current number of armed reminders waiting to fire",
		}),
	}
}

func (m *Metrics) IncLogin(status string) {
	m.Logins.WithLabelValues(status).Inc()
}

func (m *Metrics) IncSent(status string) {
	m.RemindersSent.WithLabelValues(status).Inc()
}
