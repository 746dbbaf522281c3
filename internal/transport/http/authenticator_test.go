package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/oshokin/authkeeper/internal/metrics"
	mock_http "github.com/oshokin/authkeeper/internal/transport/http/mocks"
)

// roundTripFunc adapts a function to http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// captureTransport records the request that reached it and answers 200.
func captureTransport(captured **http.Request) http.RoundTripper {
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		*captured = req

		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       http.NoBody,
			Request:    req,
		}, nil
	})
}

// TestNewBearerAuthenticator tests the NewBearerAuthenticator function.
func TestNewBearerAuthenticator(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	provider := mock_http.NewMockTokenProvider(ctrl)
	authenticator := NewBearerAuthenticator(http.DefaultTransport, provider, nil)

	assert.NotNil(t, authenticator)
	assert.Implements(t, (*http.RoundTripper)(nil), authenticator)
}

// TestBearerAuthenticator_Apply tests header augmentation for valid and invalid tokens.
func TestBearerAuthenticator_Apply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		token          string
		presetHeader   string
		expectedHeader string
	}{
		{name: "valid token", token: "xyz", expectedHeader: "Bearer xyz"},
		{name: "token is trimmed", token: "  xyz  ", expectedHeader: "Bearer xyz"},
		{name: "valid token replaces preset", token: "xyz", presetHeader: "Bearer old", expectedHeader: "Bearer xyz"},
		{name: "absent token", token: ""},
		{name: "absent token strips preset", token: "", presetHeader: "Bearer shared-default"},
		{name: "whitespace token strips preset", token: "   ", presetHeader: "Basic abc"},
		{name: "undefined sentinel", token: "undefined", presetHeader: "Bearer undefined"},
		{name: "null sentinel", token: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			provider := mock_http.NewMockTokenProvider(ctrl)
			provider.EXPECT().GetToken().Return(tt.token).Times(1)

			req := httptest.NewRequest(http.MethodGet, "https://api.example.com/items", nil)
			if tt.presetHeader != "" {
				req.Header.Set(AuthorizationHeader, tt.presetHeader)
			}

			NewBearerAuthenticator(nil, provider, nil).Apply(req)

			if tt.expectedHeader == "" {
				_, present := req.Header[AuthorizationHeader]
				assert.False(t, present)

				return
			}

			assert.Equal(t, tt.expectedHeader, req.Header.Get(AuthorizationHeader))
		})
	}
}

// TestBearerAuthenticator_NilProvider tests that a missing provider sends unauthenticated requests.
func TestBearerAuthenticator_NilProvider(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "https://api.example.com", nil)
	req.Header.Set(AuthorizationHeader, "Bearer preset")

	NewBearerAuthenticator(nil, nil, nil).Apply(req)

	assert.Empty(t, req.Header.Get(AuthorizationHeader))
}

// TestBearerAuthenticator_RoundTrip tests that the original request is left untouched.
func TestBearerAuthenticator_RoundTrip(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	provider := mock_http.NewMockTokenProvider(ctrl)
	provider.EXPECT().GetToken().Return("xyz").Times(1)

	var captured *http.Request

	authenticator := NewBearerAuthenticator(captureTransport(&captured), provider, nil)

	req, err := http.NewRequest(http.MethodGet, "https://api.example.com/me", nil) //nolint:noctx // Test code.
	require.NoError(t, err)

	resp, err := authenticator.RoundTrip(req)
	require.NoError(t, err)

	defer resp.Body.Close() //nolint:errcheck // Test cleanup, error is not critical.

	require.NotNil(t, captured)
	assert.Equal(t, "Bearer xyz", captured.Header.Get(AuthorizationHeader))
	assert.Empty(t, req.Header.Get(AuthorizationHeader), "caller's request must not be modified")
}

// TestBearerAuthenticator_RoundTrip_NilRequest tests the nil request guard.
func TestBearerAuthenticator_RoundTrip_NilRequest(t *testing.T) {
	t.Parallel()

	resp, err := NewBearerAuthenticator(http.DefaultTransport, nil, nil).RoundTrip(nil) //nolint:bodyclose // No body on error.
	require.ErrorIs(t, err, ErrNilRequest)
	assert.Nil(t, resp)
}

// TestBearerAuthenticator_ReadsTokenPerRequest tests that a token change is seen by the next request.
func TestBearerAuthenticator_ReadsTokenPerRequest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	provider := mock_http.NewMockTokenProvider(ctrl)
	gomock.InOrder(
		provider.EXPECT().GetToken().Return("first"),
		provider.EXPECT().GetToken().Return(""),
		provider.EXPECT().GetToken().Return("second"),
	)

	var received []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = append(received, r.Header.Get(AuthorizationHeader))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{Transport: NewBearerAuthenticator(http.DefaultTransport, provider, nil)}

	for range 3 {
		req, err := http.NewRequest(http.MethodGet, server.URL, nil) //nolint:noctx // Test code.
		require.NoError(t, err)

		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close() //nolint:errcheck,gosec // Test cleanup, error is not critical.
	}

	assert.Equal(t, []string{"Bearer first", "", "Bearer second"}, received)
}

// TestBearerAuthenticator_Metrics tests that outcomes are counted.
func TestBearerAuthenticator_Metrics(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	provider := mock_http.NewMockTokenProvider(ctrl)
	gomock.InOrder(
		provider.EXPECT().GetToken().Return("abc"),
		provider.EXPECT().GetToken().Return("null"),
	)

	registry := prometheus.NewRegistry()

	m, err := metrics.New(registry)
	require.NoError(t, err)

	authenticator := NewBearerAuthenticator(nil, provider, m)
	authenticator.Apply(httptest.NewRequest(http.MethodGet, "https://api.example.com", nil))
	authenticator.Apply(httptest.NewRequest(http.MethodGet, "https://api.example.com", nil))

	count, err := testutil.GatherAndCount(registry, "authkeeper_authenticator_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
