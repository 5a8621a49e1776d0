// Package metrics holds the Prometheus counters for the registration workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Secondary effects whose failures are counted.
const (
	EffectAudit        = "audit"
	EffectNotification = "notification"
)

// Metrics tracks transitions, rejected transition attempts and failed
// secondary effects. A nil *Metrics records nothing.
type Metrics struct {
	Transitions       *prometheus.CounterVec
	Rejections        *prometheus.CounterVec
	SecondaryFailures *prometheus.CounterVec
}

// New registers the workflow metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "homestay_transitions_total",
			Help: "Applied application status transitions",
		}, []string{"action", "from", "to"}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "homestay_transition_rejections_total",
			Help: "Transition attempts refused, by error kind",
		}, []string{"action", "kind"}),
		SecondaryFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "homestay_secondary_failures_total",
			Help: "Audit or notification side effects that failed after a transition",
		}, []string{"effect"}),
	}
}

func (m *Metrics) IncrementTransition(action, from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(action, from, to).Inc()
}

func (m *Metrics) IncrementRejection(action, kind string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(action, kind).Inc()
}

func (m *Metrics) IncrementSecondaryFailure(effect string) {
	if m == nil {
		return
	}
	m.SecondaryFailures.WithLabelValues(effect).Inc()
}
