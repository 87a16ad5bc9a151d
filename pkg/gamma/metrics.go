package gamma

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for Gamma API traffic. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	retries  *prometheus.CounterVec
	requests *prometheus.CounterVec
	polls    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. Collectors
// already registered by an earlier call are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gamma_retries_total",
				Help: "Retries of Gamma API calls by operation and failure class",
			},
			[]string{"operation", "class"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gamma_requests_total",
				Help: "Gamma API calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gamma_poll_attempts_total",
				Help: "Status checks made while waiting for a generation, by observed state",
			},
			[]string{"outcome"},
		),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.retries, err = register(reg, m.retries); err != nil {
		return nil, err
	}
	if m.requests, err = register(reg, m.requests); err != nil {
		return nil, err
	}
	if m.polls, err = register(reg, m.polls); err != nil {
		return nil, err
	}
	return m, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func (m *Metrics) retry(operation string, kind Kind) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(operation, string(kind)).Inc()
}

func (m *Metrics) request(operation, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) poll(outcome string) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(outcome).Inc()
}
