package http

import (
	"net/http"

	"github.com/oshokin/authkeeper/internal/metrics"
	"github.com/oshokin/authkeeper/internal/token"
)

// BearerAuthenticator is a custom http.RoundTripper that attaches the current
// session token to every outgoing request as a bearer credential.
//
// The token is re-sanitized on every request instead of trusting the
// provider. When there is no valid token the Authorization header is removed,
// even if a shared default put one there.
type BearerAuthenticator struct {
	// next is the underlying HTTP round tripper.
	next http.RoundTripper
	// tokenProvider supplies the current token.
	tokenProvider TokenProvider
	// metrics counts attached and stripped headers.
	metrics *metrics.Metrics
}

// NewBearerAuthenticator creates and returns a new instance of BearerAuthenticator.
func NewBearerAuthenticator(
	next http.RoundTripper,
	tokenProvider TokenProvider,
	m *metrics.Metrics,
) *BearerAuthenticator {
	return &BearerAuthenticator{
		next:          next,
		tokenProvider: tokenProvider,
		metrics:       m,
	}
}

// RoundTrip authenticates a copy of the request and forwards it.
// It implements the http.RoundTripper interface.
func (t *BearerAuthenticator) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	// A RoundTripper must not modify the caller's request.
	outgoing := req.Clone(req.Context())
	t.Apply(outgoing)

	return t.next.RoundTrip(outgoing)
}

// Apply sets or removes the Authorization header of req in place.
// It only reads the token provider and never blocks.
func (t *BearerAuthenticator) Apply(req *http.Request) {
	var raw string
	if t.tokenProvider != nil {
		raw = t.tokenProvider.GetToken()
	}

	value, ok := token.SanitizeString(raw)
	if !ok {
		req.Header.Del(AuthorizationHeader)
		t.metrics.ObserveAuthOutcome(metrics.OutcomeStripped)

		return
	}

	req.Header.Set(AuthorizationHeader, BearerScheme+" "+value)
	t.metrics.ObserveAuthOutcome(metrics.OutcomeAttached)
}
