// Package api provides the HTTP and GraphQL client for the backend API.
//
// Every request goes through the authenticating transport chain, so the
// current session token from the token store is attached as a bearer
// credential, or any preset Authorization header is removed when the
// session is absent. Calls never refresh or invalidate the session.
package api
