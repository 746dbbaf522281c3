package app

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/oshokin/authkeeper/internal/config"
	"github.com/oshokin/authkeeper/internal/logger"
	"github.com/oshokin/authkeeper/internal/metrics"
)

const pushJobName = "authkeeper"

// telemetry holds the counters of a single command run.
type telemetry struct {
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	pushURL  string
	client   http.Client
}

func newTelemetry(ctx context.Context, cfg *config.Config) *telemetry {
	registry := prometheus.NewRegistry()

	m, err := metrics.New(registry)
	if err != nil {
		logger.Debugf(ctx, "Metrics are disabled: %v", err)
	}

	return &telemetry{
		registry: registry,
		metrics:  m,
		pushURL:  cfg.MetricsPushURL,
		client:   http.Client{Timeout: cfg.ParsedRequestTimeout},
	}
}

// push sends the counters to the Pushgateway, grouped by command.
// Failures are logged and never change the outcome of the command.
func (t *telemetry) push(ctx context.Context, command string) {
	if t.pushURL == "" {
		return
	}

	err := push.New(t.pushURL, pushJobName).
		Gatherer(t.registry).
		Grouping("command", command).
		Client(&t.client).
		PushContext(ctx)
	if err != nil {
		logger.Warnf(ctx, "Failed to push metrics to %s: %v", t.pushURL, err)

		return
	}

	logger.Debugf(ctx, "Metrics pushed to %s", t.pushURL)
}
