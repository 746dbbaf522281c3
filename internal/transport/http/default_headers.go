package http

import "net/http"

// DefaultHeadersInjector is a custom http.RoundTripper that fills in shared
// default headers the request does not set itself.
type DefaultHeadersInjector struct {
	// next is the underlying HTTP round tripper.
	next http.RoundTripper
	// defaults are applied to every request lacking them.
	defaults http.Header
}

// NewDefaultHeadersInjector creates and returns a new instance of DefaultHeadersInjector.
// The defaults are copied, later changes to the passed header have no effect.
func NewDefaultHeadersInjector(next http.RoundTripper, defaults http.Header) *DefaultHeadersInjector {
	return &DefaultHeadersInjector{
		next:     next,
		defaults: defaults.Clone(),
	}
}

// DefaultHeaders returns the stock defaults: JSON content type and the given User-Agent.
func DefaultHeaders(userAgent string) http.Header {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	headers := make(http.Header)
	headers.Set(ContentTypeHeader, JSONContentType)
	headers.Set(UserAgentHeader, userAgent)

	return headers
}

// RoundTrip copies the request, adds missing defaults and forwards it.
// It implements the http.RoundTripper interface.
func (t *DefaultHeadersInjector) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	outgoing := req.Clone(req.Context())

	for name, values := range t.defaults {
		if outgoing.Header.Get(name) != "" {
			continue
		}

		outgoing.Header[name] = append([]string(nil), values...)
	}

	return t.next.RoundTrip(outgoing)
}
