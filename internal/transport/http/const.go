package http

import "time"

const (
	// DefaultTimeout is the default timeout duration for HTTP requests.
	DefaultTimeout = 60 * time.Second

	// DefaultUserAgent is the User-Agent sent when none is configured.
	DefaultUserAgent = "authkeeper"

	// AuthorizationHeader is the HTTP header carrying credentials.
	AuthorizationHeader = "Authorization"
	// BearerScheme is the authorization scheme used for tokens.
	BearerScheme = "Bearer"
	// ContentTypeHeader is the HTTP header name for Content-Type.
	ContentTypeHeader = "Content-Type"
	// JSONContentType is the default request content type.
	JSONContentType = "application/json"
	// RequestIDHeader carries a per-request correlation ID.
	RequestIDHeader = "X-Request-ID"
	// UserAgentHeader is the HTTP header name for User-Agent.
	UserAgentHeader = "User-Agent"
)
