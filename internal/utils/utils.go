package utils

import (
	"math/rand/v2"
	"mime"
	"net"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"
)

// textContentTypePatterns is a slice of regular expressions that match content types
// considered to be text-based. This includes "text/*", "application/json",
// structured "+json" types such as GraphQL responses, and "application/x-www-form-urlencoded".
//
//nolint:gochecknoglobals // These are immutable, pre-compiled regex patterns and used as constants.
var textContentTypePatterns = []*regexp.Regexp{
	regexp.MustCompile("^text/.+"),
	regexp.MustCompile("^application/json$"),
	regexp.MustCompile(`^application/[\w.-]+\+json$`),
	regexp.MustCompile("^application/x-www-form-urlencoded$"),
}

// defaultPorts maps URL schemes to the port implied when none is given.
//
//nolint:gochecknoglobals // This is an immutable map used as a constant.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// RandomPause pauses execution for a random duration between min and max values.
// The min and max parameters should be of type time.Duration and represent
// the lower and upper bounds of the delay period, respectively.
func RandomPause(minPause, maxPause time.Duration) {
	// Ensure minPause is always less than or equal to maxPause.
	if minPause > maxPause {
		minPause, maxPause = maxPause, minPause
	}

	if minPause == maxPause {
		time.Sleep(minPause)

		return
	}

	randomDelay := minPause + time.Duration(
		//nolint:gosec // Weak random is fine for pacing.
		rand.Int64N(int64(maxPause-minPause)),
	)

	time.Sleep(randomDelay)
}

// IsFileExist checks if a file exists at the specified path.
// It returns true if the file exists and is not a directory, false if the file does not exist,
// and an error if there was an issue accessing the file.
func IsFileExist(path string) (bool, error) {
	stat, err := os.Stat(path)
	if err == nil {
		return !stat.IsDir(), nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// IsTextContentType checks if the given content type represents a text-based format.
// It also checks that the charset, if present, is either "utf-8" or "us-ascii".
func IsTextContentType(contentType string) bool {
	parsedType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	for _, pattern := range textContentTypePatterns {
		if !pattern.MatchString(parsedType) {
			continue
		}

		charset := strings.ToLower(params["charset"])

		return charset == "" || charset == "utf-8" || charset == "us-ascii"
	}

	return false
}

// Origin returns the scheme://host part of an absolute URL, or "" if rawURL has none.
// Default ports are dropped so "https://a.com:443" and "https://a.com" share an origin.
func Origin(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}

	var (
		scheme = strings.ToLower(parsed.Scheme)
		host   = strings.ToLower(parsed.Hostname())
		port   = parsed.Port()
	)

	if port == "" || defaultPorts[scheme] == port {
		if strings.Contains(host, ":") {
			// IPv6 literal.
			host = "[" + host + "]"
		}

		return scheme + "://" + host
	}

	return scheme + "://" + net.JoinHostPort(host, port)
}

// IsSameOrigin reports whether two absolute URLs share scheme, host and port.
func IsSameOrigin(first, second string) bool {
	origin := Origin(first)

	return origin != "" && origin == Origin(second)
}
