package api

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/machinebox/graphql"

	"github.com/oshokin/authkeeper/internal/config"
	"github.com/oshokin/authkeeper/internal/logger"
	"github.com/oshokin/authkeeper/internal/metrics"
	http_transport "github.com/oshokin/authkeeper/internal/transport/http"
)

// Client defines the interface for calling the backend API.
type Client interface {
	// Do sends a request to path relative to the base URL and returns the buffered response.
	Do(ctx context.Context, method, path string, body any) (*Response, error)
	// Query runs a GraphQL query with the given variables and decodes "data" into out.
	Query(ctx context.Context, query string, vars map[string]any, out any) error
	// GetBaseURL returns the base URL of the API.
	GetBaseURL() string
}

// ClientImpl implements the Client interface.
type ClientImpl struct {
	// baseURL is the parsed base URL for API requests.
	baseURL *url.URL
	// httpClient is the HTTP client with the authenticating transport chain.
	httpClient *http.Client
	// graphQLClient is the GraphQL client sharing httpClient.
	graphQLClient *graphql.Client
}

// Option configures a ClientImpl.
type Option func(*options)

type options struct {
	baseTransport http.RoundTripper
	metrics       *metrics.Metrics
}

// WithBaseTransport sets the innermost transport, http.DefaultTransport by default.
func WithBaseTransport(transport http.RoundTripper) Option {
	return func(o *options) {
		o.baseTransport = transport
	}
}

// WithMetrics records authenticator outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// NewClient creates and returns a new instance of ClientImpl.
// The provider is consulted on every request for the current session token.
func NewClient(
	cfg *config.Config,
	provider http_transport.TokenProvider,
	opts ...Option,
) (*ClientImpl, error) {
	o := options{baseTransport: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}

	rawBaseURL := strings.TrimSpace(cfg.APIBaseURL)
	if rawBaseURL == "" {
		return nil, ErrEmptyBaseURL
	}

	baseURL, err := url.Parse(rawBaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}

	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("%w: '%s' is not absolute", ErrInvalidBaseURL, rawBaseURL)
	}

	defaultHeaders := http_transport.DefaultHeaders(cfg.UserAgent)
	for name, value := range cfg.DefaultHeaders {
		defaultHeaders.Set(name, value)
	}

	timeout := cfg.ParsedRequestTimeout
	if timeout <= 0 {
		timeout = http_transport.DefaultTimeout
	}

	// Shared defaults are applied first so the authenticator can strip a preset credential.
	transport := http_transport.NewDefaultHeadersInjector(
		http_transport.NewBearerAuthenticator(
			http_transport.NewRequestIDInjector(
				http_transport.NewLogTransport(o.baseTransport, cfg.ParsedMaxLogLength)),
			provider,
			o.metrics),
		defaultHeaders)

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}

	graphQLPath := cfg.GraphQLPath
	if graphQLPath == "" {
		graphQLPath = config.DefaultGraphQLPath
	}

	graphQLClient := graphql.NewClient(
		baseURL.JoinPath(graphQLPath).String(),
		graphql.WithHTTPClient(httpClient))

	if logger.IsDebugLevel() {
		graphQLClient.Log = func(s string) {
			logger.Debugf(context.Background(), "GraphQL: %s", s)
		}
	}

	return &ClientImpl{
		baseURL:       baseURL,
		httpClient:    httpClient,
		graphQLClient: graphQLClient,
	}, nil
}

// GetBaseURL returns the base URL of the API.
func (c *ClientImpl) GetBaseURL() string {
	return c.baseURL.String()
}

// HTTPClient returns the underlying authenticated HTTP client.
func (c *ClientImpl) HTTPClient() *http.Client {
	return c.httpClient
}

// Do sends a request to path relative to the base URL and returns the buffered response.
// A non-2xx status returns the response together with ErrUnexpectedHTTPStatus.
func (c *ClientImpl) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	route, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	requestBody, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, method, route, requestBody)
	if err != nil {
		return nil, err
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}

	result, err := readResponse(response)
	if err != nil {
		return nil, err
	}

	if !result.IsSuccess() {
		return result, fmt.Errorf("%w: %d", ErrUnexpectedHTTPStatus, result.StatusCode)
	}

	return result, nil
}

// Query runs a GraphQL query with the given variables and decodes "data" into out.
func (c *ClientImpl) Query(ctx context.Context, query string, vars map[string]any, out any) error {
	graphqlRequest := graphql.NewRequest(query)

	for name, value := range vars {
		graphqlRequest.Var(name, value)
	}

	return c.graphQLClient.Run(ctx, graphqlRequest, out)
}

// resolve joins path to the base URL, keeping the base path and the path's query.
func (c *ClientImpl) resolve(path string) (string, error) {
	reference, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}

	if reference.IsAbs() {
		return "", fmt.Errorf("%w: '%s' must be relative to the base URL", ErrInvalidPath, path)
	}

	route := c.baseURL.JoinPath(reference.Path)
	route.RawQuery = reference.RawQuery

	return route.String(), nil
}
