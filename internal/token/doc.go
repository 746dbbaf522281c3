// Package token normalizes raw bearer-token values.
//
// A token is either absent or a non-empty, trimmed string that is not one of
// the textual sentinels "undefined" or "null". Every other input collapses to
// absent, so callers can treat a malformed value exactly like "no session".
package token
