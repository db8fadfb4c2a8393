/*
metrics.go - Prometheus instrumentation for scheduling and billing

PURPOSE:
  Counts the side effects operators care about: generated production
  tasks, bulk commits that stopped part-way, milestone transitions and
  payment alerts (recorded and dropped).

USAGE:
  Create one Metrics per process and pass it to the services:

    m := metrics.New(prometheus.DefaultRegisterer)
    svc := billing.NewService(store, tasks, alerts, billing.WithMetrics(m))

  Every method is safe on a nil *Metrics, so tests and callers that do not
  care about instrumentation can pass nothing.

SEE ALSO:
  - api/server.go: exposes the registry on /metrics
  - billing/service.go, api/bulk.go: record events
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fulfillment"

// Metrics holds the collectors registered for this process.
type Metrics struct {
	tasksCreated         *prometheus.CounterVec
	commitFailures       prometheus.Counter
	milestoneTransitions *prometheus.CounterVec
	alertsRecorded       *prometheus.CounterVec
	alertsDropped        *prometheus.CounterVec
}

// New creates the collectors and registers them with registerer. A nil
// registerer falls back to prometheus.DefaultRegisterer.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		tasksCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_created_total",
			Help:      "Production tasks persisted by bulk commits, by allocation method.",
		}, []string{"method"}),
		commitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_commit_failures_total",
			Help:      "Bulk commits that stopped after a partial prefix was written.",
		}),
		milestoneTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "milestone_transitions_total",
			Help:      "Payment milestone status transitions.",
		}, []string{"to"}),
		alertsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_alerts_recorded_total",
			Help:      "Payment alerts accepted by the store, by status.",
		}, []string{"status"}),
		alertsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_alerts_dropped_total",
			Help:      "Payment alerts that failed to persist and were discarded, by status.",
		}, []string{"status"}),
	}

	registerer.MustRegister(
		m.tasksCreated,
		m.commitFailures,
		m.milestoneTransitions,
		m.alertsRecorded,
		m.alertsDropped,
	)
	return m
}

// TasksCreated adds n persisted tasks for an allocation method.
func (m *Metrics) TasksCreated(method string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.tasksCreated.WithLabelValues(method).Add(float64(n))
}

// CommitFailed counts a bulk commit that stopped part-way.
func (m *Metrics) CommitFailed() {
	if m == nil {
		return
	}
	m.commitFailures.Inc()
}

// MilestoneTransition counts a milestone entering status to.
func (m *Metrics) MilestoneTransition(to string) {
	if m == nil {
		return
	}
	m.milestoneTransitions.WithLabelValues(to).Inc()
}

// AlertRecorded counts a persisted payment alert.
func (m *Metrics) AlertRecorded(status string) {
	if m == nil {
		return
	}
	m.alertsRecorded.WithLabelValues(status).Inc()
}

// AlertDropped counts a payment alert whose write failed.
func (m *Metrics) AlertDropped(status string) {
	if m == nil {
		return
	}
	m.alertsDropped.WithLabelValues(status).Inc()
}
