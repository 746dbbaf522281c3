package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/authkeeper/internal/config"
)

// newTestServer starts the demo server and returns a client that does not follow redirects.
func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	cfg := config.Default()
	require.NoError(t, config.ValidateConfig(cfg))

	s, err := New(cfg)
	require.NoError(t, err)

	server := httptest.NewServer(s.Handler())
	t.Cleanup(server.Close)

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return server, client
}

func get(t *testing.T, client *http.Client, target string, cookies ...*http.Cookie) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, target, nil)
	require.NoError(t, err)

	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	return do(t, client, req)
}

func postForm(t *testing.T, client *http.Client, target string, form url.Values) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, target,
		strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return do(t, client, req)
}

func do(t *testing.T, client *http.Client, req *http.Request) (*http.Response, string) {
	t.Helper()

	resp, err := client.Do(req)
	require.NoError(t, err)

	defer resp.Body.Close() //nolint:errcheck // Test cleanup, error is not critical.

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}

	return nil
}

// TestServer_GuardedRoutes tests the guard in front of the router.
func TestServer_GuardedRoutes(t *testing.T) {
	t.Parallel()

	server, client := newTestServer(t)

	resp, _ := get(t, client, server.URL+"/dashboard/settings")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, server.URL+"/login", resp.Header.Get("Location"))

	resp, body := get(t, client, server.URL+"/dashboard/settings",
		&http.Cookie{Name: "token", Value: "abcdefghijkl"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "abcd...ijkl")
	assert.NotContains(t, body, "abcdefghijkl")

	resp, _ = get(t, client, server.URL+"/public")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = get(t, client, server.URL+"/login")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="token"`)
}

// TestServer_Login tests the login form handler.
func TestServer_Login(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		input          string
		expectedStatus int
		expectedCookie string
	}{
		{
			name:           "valid token is trimmed",
			input:          "  abc123  ",
			expectedStatus: http.StatusSeeOther,
			expectedCookie: "abc123",
		},
		{
			name:           "blank token",
			input:          "   ",
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "sentinel token",
			input:          "undefined",
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	server, client := newTestServer(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, _ := postForm(t, client, server.URL+"/login", url.Values{"token": {tt.input}})
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			cookie := findCookie(resp, "token")

			if tt.expectedCookie == "" {
				assert.Nil(t, cookie)

				return
			}

			require.NotNil(t, cookie)
			assert.Equal(t, tt.expectedCookie, cookie.Value)
			assert.True(t, cookie.HttpOnly)
			assert.Equal(t, "/", cookie.Path)
			assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
		})
	}
}

// TestServer_Logout tests that logout expires the cookie.
func TestServer_Logout(t *testing.T) {
	t.Parallel()

	server, client := newTestServer(t)

	resp, _ := postForm(t, client, server.URL+"/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	cookie := findCookie(resp, "token")
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

// TestServer_Metrics tests the metrics endpoint.
func TestServer_Metrics(t *testing.T) {
	t.Parallel()

	server, client := newTestServer(t)

	get(t, client, server.URL+"/dashboard")

	resp, body := get(t, client, server.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `authkeeper_route_guard_decisions_total{decision="redirect"} 1`)
}

// TestServer_Serve tests graceful shutdown on context cancellation.
func TestServer_Serve(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	require.NoError(t, config.ValidateConfig(cfg))

	s, err := New(cfg)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- s.Serve(ctx, listener)
	}()

	require.Eventually(t, func() bool {
		resp, getErr := http.Get("http://" + listener.Addr().String() + "/public") //nolint:noctx // Test code.
		if getErr != nil {
			return false
		}

		resp.Body.Close() //nolint:errcheck,gosec // Test cleanup, error is not critical.

		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err = <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
