package http

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDInjector is a custom http.RoundTripper that tags each request
// with a random X-Request-ID unless the caller already set one.
type RequestIDInjector struct {
	// next is the underlying HTTP round tripper.
	next http.RoundTripper
	// newID generates IDs, replaced in tests.
	newID func() string
}

// NewRequestIDInjector creates and returns a new instance of RequestIDInjector.
func NewRequestIDInjector(next http.RoundTripper) *RequestIDInjector {
	return &RequestIDInjector{
		next:  next,
		newID: uuid.NewString,
	}
}

// RoundTrip executes a single HTTP transaction with a request ID attached.
// It implements the http.RoundTripper interface.
func (t *RequestIDInjector) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	if req.Header.Get(RequestIDHeader) != "" {
		return t.next.RoundTrip(req)
	}

	outgoing := req.Clone(req.Context())
	outgoing.Header.Set(RequestIDHeader, t.newID())

	return t.next.RoundTrip(outgoing)
}
