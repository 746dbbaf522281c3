// Package server provides the demo web server: public pages, a login form
// that stores the session token in an HTTP-only cookie, a dashboard behind
// the route guard, and Prometheus metrics.
package server
