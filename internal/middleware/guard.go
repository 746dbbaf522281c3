package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/oshokin/authkeeper/internal/config"
	"github.com/oshokin/authkeeper/internal/logger"
	"github.com/oshokin/authkeeper/internal/metrics"
)

// Decision is the outcome of evaluating one request.
type Decision int

const (
	// DecisionForward passes the request to the next handler unchanged.
	DecisionForward Decision = iota
	// DecisionRedirect answers with a redirect to the login page.
	DecisionRedirect
)

// String returns the metric label of the decision.
func (d Decision) String() string {
	if d == DecisionRedirect {
		return metrics.DecisionRedirect
	}

	return metrics.DecisionForward
}

// forwardedProtoHeader carries the client-facing scheme behind a reverse proxy.
const forwardedProtoHeader = "X-Forwarded-Proto"

// RouteGuard redirects requests under ProtectedPrefix that carry no session cookie.
type RouteGuard struct {
	// CookieName is the session cookie checked for presence.
	CookieName string
	// ProtectedPrefix is matched as a raw prefix of the request path.
	ProtectedPrefix string
	// LoginPath is the redirect target, resolved against the request origin.
	LoginPath string

	metrics *metrics.Metrics
}

// RouteGuardOption configures a RouteGuard.
type RouteGuardOption func(*RouteGuard)

// WithCookieName sets the session cookie name.
func WithCookieName(name string) RouteGuardOption {
	return func(g *RouteGuard) {
		g.CookieName = name
	}
}

// WithProtectedPrefix sets the protected path prefix.
func WithProtectedPrefix(prefix string) RouteGuardOption {
	return func(g *RouteGuard) {
		g.ProtectedPrefix = prefix
	}
}

// WithLoginPath sets the login path.
func WithLoginPath(path string) RouteGuardOption {
	return func(g *RouteGuard) {
		g.LoginPath = path
	}
}

// WithMetrics counts decisions in m.
func WithMetrics(m *metrics.Metrics) RouteGuardOption {
	return func(g *RouteGuard) {
		g.metrics = m
	}
}

// NewRouteGuard creates a guard for the "token" cookie, the "/dashboard" prefix and the "/login" page.
func NewRouteGuard(options ...RouteGuardOption) *RouteGuard {
	guard := &RouteGuard{
		CookieName:      config.DefaultCookieName,
		ProtectedPrefix: config.DefaultProtectedPrefix,
		LoginPath:       config.DefaultLoginPath,
	}

	for _, option := range options {
		option(guard)
	}

	return guard
}

// Decide evaluates a single request.
func (g *RouteGuard) Decide(r *http.Request) Decision {
	if !strings.HasPrefix(r.URL.Path, g.ProtectedPrefix) {
		return DecisionForward
	}

	if cookie, err := r.Cookie(g.CookieName); err == nil && cookie.Value != "" {
		return DecisionForward
	}

	return DecisionRedirect
}

// Middleware wraps next with the guard.
// Redirected requests never reach next.
func (g *RouteGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := g.Decide(r)

		g.metrics.ObserveGuardDecision(decision.String())

		if decision == DecisionForward {
			next.ServeHTTP(w, r)

			return
		}

		location := g.LoginURL(r)

		logger.DebugKV(r.Context(), "Route guard redirect",
			"path", r.URL.Path,
			"location", location)

		http.Redirect(w, r, location, http.StatusFound)
	})
}

// LoginURL returns the absolute login URL on the origin the request was made to.
// Without a Host header the origin is unknown and the bare login path is returned.
func (g *RouteGuard) LoginURL(r *http.Request) string {
	if r.Host == "" {
		return g.LoginPath
	}

	target := url.URL{
		Scheme: requestScheme(r),
		Host:   r.Host,
		Path:   g.LoginPath,
	}

	return target.String()
}

func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}

	// Only the first hop matters when proxies chain values.
	proto, _, _ := strings.Cut(r.Header.Get(forwardedProtoHeader), ",")

	proto = strings.ToLower(strings.TrimSpace(proto))
	if proto == "https" || proto == "http" {
		return proto
	}

	return "http"
}
