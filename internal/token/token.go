package token

import (
	"fmt"
	"reflect"
	"strings"
)

const (
	// SentinelUndefined is the textual form of an unset value leaked from other layers.
	SentinelUndefined = "undefined"
	// SentinelNull is the textual form of a null value.
	SentinelNull = "null"
)

// Sentinels lists trimmed values that never count as a token.
//
//nolint:gochecknoglobals // Immutable list used as a constant.
var Sentinels = []string{SentinelUndefined, SentinelNull}

// Sanitize returns the trimmed token and true when raw is a usable token.
// Non-string input, blank strings and sentinels yield "", false.
func Sanitize(raw any) (string, bool) {
	value, ok := raw.(string)
	if !ok {
		return "", false
	}

	return SanitizeString(value)
}

// SanitizeString is Sanitize for callers that already hold a string.
func SanitizeString(raw string) (string, bool) {
	value := strings.TrimSpace(raw)

	if value == "" || isSentinel(value) {
		return "", false
	}

	return value, true
}

// Coerce converts arbitrary input into the string form that gets sanitized.
// nil, including typed nil pointers, becomes the "null" sentinel so it can never
// turn into a stored token. Stringers and errors go through fmt, which recovers
// from panicking String and Error methods.
func Coerce(raw any) string {
	if isNil(raw) {
		return SentinelNull
	}

	switch v := raw.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// Mask shortens a token for log output, keeping only its edges.
func Mask(value string) string {
	const visible = 4

	if len(value) <= visible*2 {
		return strings.Repeat("*", len(value))
	}

	return value[:visible] + "..." + value[len(value)-visible:]
}

func isNil(raw any) bool {
	if raw == nil {
		return true
	}

	value := reflect.ValueOf(raw)

	switch value.Kind() { //nolint:exhaustive // Only nillable kinds matter.
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return value.IsNil()
	default:
		return false
	}
}

func isSentinel(value string) bool {
	for _, sentinel := range Sentinels {
		if value == sentinel {
			return true
		}
	}

	return false
}
