package app

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/oshokin/authkeeper/internal/config"
	"github.com/oshokin/authkeeper/internal/logger"
	"github.com/oshokin/authkeeper/internal/server"
)

// ExecuteRequestCommand sends an authenticated request to the API and prints the response.
func ExecuteRequestCommand(ctx context.Context, cfg *config.Config, method, path, body string, out io.Writer) {
	tel := newTelemetry(ctx, cfg)

	client, err := newAPIClient(ctx, cfg, tel)
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize API client: %v", err)
	}

	err = runRequest(ctx, client, method, path, body, out)
	tel.push(ctx, "request")

	if err != nil {
		logger.Fatalf(ctx, "Request failed: %v", err)
	}
}

// ExecuteQueryCommand runs an authenticated GraphQL query and prints the result.
func ExecuteQueryCommand(ctx context.Context, cfg *config.Config, query, variables string, out io.Writer) {
	tel := newTelemetry(ctx, cfg)

	client, err := newAPIClient(ctx, cfg, tel)
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize API client: %v", err)
	}

	err = runQuery(ctx, client, query, variables, out)
	tel.push(ctx, "query")

	if err != nil {
		logger.Fatalf(ctx, "Query failed: %v", err)
	}
}

// ExecuteServeCommand runs the web server until ctx is done.
func ExecuteServeCommand(ctx context.Context, cfg *config.Config) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s, err := server.New(cfg, server.WithRegistry(registry))
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize server: %v", err)
	}

	if err = s.Run(ctx); err != nil {
		logger.Fatalf(ctx, "Server failed: %v", err)
	}
}
