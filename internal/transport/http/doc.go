// Package http provides http.RoundTripper decorators for the API client:
// bearer-token authentication, default headers, request IDs and debug
// request/response logging.
package http
