// Package metrics defines the Prometheus collectors shared by the token store,
// the request authenticator and the route guard.
//
// A nil *Metrics is valid and records nothing, so library users that do not
// export metrics can pass nil everywhere.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Namespace prefixes every metric name.
	Namespace = "authkeeper"

	// Label values of the route guard decision counter.
	DecisionForward  = "forward"
	DecisionRedirect = "redirect"

	// Label values of the authenticator outcome counter.
	OutcomeAttached = "attached"
	OutcomeStripped = "stripped"

	// Label values of the token store mutation counter.
	MutationSet   = "set"
	MutationClear = "clear"
	MutationLoad  = "load"
)

// Metrics groups the collectors.
type Metrics struct {
	guardDecisions *prometheus.CounterVec
	authOutcomes   *prometheus.CounterVec
	storeMutations *prometheus.CounterVec
}

// New creates the collectors and registers them with registerer.
// A nil registerer creates unregistered collectors, which is handy in tests.
func New(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "route_guard",
			Name:      "decisions_total",
			Help:      "Route guard decisions by outcome.",
		}, []string{"decision"}),
		authOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "authenticator",
			Name:      "requests_total",
			Help:      "Outgoing requests by authorization header outcome.",
		}, []string{"outcome"}),
		storeMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "token_store",
			Name:      "mutations_total",
			Help:      "Token store operations by kind.",
		}, []string{"operation"}),
	}

	if registerer == nil {
		return m, nil
	}

	var err error

	if m.guardDecisions, err = register(registerer, m.guardDecisions); err != nil {
		return nil, err
	}

	if m.authOutcomes, err = register(registerer, m.authOutcomes); err != nil {
		return nil, err
	}

	if m.storeMutations, err = register(registerer, m.storeMutations); err != nil {
		return nil, err
	}

	return m, nil
}

// register adds counter to registerer, reusing an identical collector that is already registered.
func register(registerer prometheus.Registerer, counter *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	err := registerer.Register(counter)
	if err == nil {
		return counter, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
			return existing, nil
		}
	}

	return nil, fmt.Errorf("failed to register metrics: %w", err)
}

// ObserveGuardDecision counts a route guard decision.
func (m *Metrics) ObserveGuardDecision(decision string) {
	if m == nil {
		return
	}

	m.guardDecisions.WithLabelValues(decision).Inc()
}

// ObserveAuthOutcome counts what the authenticator did to a request.
func (m *Metrics) ObserveAuthOutcome(outcome string) {
	if m == nil {
		return
	}

	m.authOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveStoreMutation counts a token store operation.
func (m *Metrics) ObserveStoreMutation(operation string) {
	if m == nil {
		return
	}

	m.storeMutations.WithLabelValues(operation).Inc()
}
