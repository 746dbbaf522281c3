// Package middleware provides the server-side route guard.
//
// The guard redirects requests for protected paths to the login page when
// the session cookie is missing. It checks presence only: any non-empty
// cookie value is accepted without sanitizing or validating it, so it is a
// navigation convenience rather than a security boundary. Authorization of
// API calls relies on the bearer token attached by the client transport.
package middleware
