package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/oshokin/authkeeper/internal/client/api"
	"github.com/oshokin/authkeeper/internal/config"
	"github.com/oshokin/authkeeper/internal/logger"
)

// ErrInvalidVariables indicates that GraphQL variables are not a JSON object.
var ErrInvalidVariables = errors.New("variables must be a JSON object")

// newAPIClient builds the client with the persisted session as its token provider.
func newAPIClient(ctx context.Context, cfg *config.Config, tel *telemetry) (*api.ClientImpl, error) {
	s := openSession(ctx, cfg, tel.metrics)

	if !s.store.IsAuthenticated() {
		logger.Warn(ctx, "No session token stored, the request is sent without credentials")
	}

	return api.NewClient(cfg, s.store, api.WithMetrics(tel.metrics))
}

// runRequest sends one HTTP request and writes the response body to out.
func runRequest(ctx context.Context, client api.Client, method, path, body string, out io.Writer) error {
	var requestBody any
	if body != "" {
		requestBody = body
	}

	response, err := client.Do(ctx, strings.ToUpper(method), path, requestBody)
	if response != nil {
		logger.Infof(ctx, "%s %s: %d", strings.ToUpper(method), path, response.StatusCode)

		if _, writeErr := out.Write(prettyJSON(response.Body)); writeErr != nil {
			return writeErr
		}
	}

	return err
}

// runQuery runs a GraphQL query and writes the decoded data to out as JSON.
func runQuery(ctx context.Context, client api.Client, query, variables string, out io.Writer) error {
	vars := make(map[string]any)

	if strings.TrimSpace(variables) != "" {
		if err := json.Unmarshal([]byte(variables), &vars); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidVariables, err)
		}
	}

	var data map[string]any
	if err := client.Query(ctx, query, vars, &data); err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode query result: %w", err)
	}

	_, err = out.Write(append(encoded, '\n'))

	return err
}

// prettyJSON indents JSON payloads and returns anything else unchanged.
func prettyJSON(payload []byte) []byte {
	var buffer bytes.Buffer
	if err := json.Indent(&buffer, payload, "", "  "); err != nil {
		return payload
	}

	buffer.WriteByte('\n')

	return buffer.Bytes()
}
