package api

import "errors"

// Static error definitions for better error handling.
var (
	// ErrUnexpectedHTTPStatus indicates an unexpected HTTP status code was received.
	ErrUnexpectedHTTPStatus = errors.New("unexpected HTTP status")
	// ErrEmptyBaseURL indicates that no API base URL is configured.
	ErrEmptyBaseURL = errors.New("API base URL is not configured")
	// ErrInvalidBaseURL indicates that the API base URL is not an absolute URL.
	ErrInvalidBaseURL = errors.New("invalid API base URL")
	// ErrInvalidPath indicates that a request path could not be parsed.
	ErrInvalidPath = errors.New("invalid request path")
)
