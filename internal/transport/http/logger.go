package http

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httputil"
	"regexp"
	"time"

	"github.com/oshokin/authkeeper/internal/config"
	"github.com/oshokin/authkeeper/internal/logger"
	"github.com/oshokin/authkeeper/internal/utils"
)

// LogTransport is a custom http.RoundTripper that logs HTTP requests and responses.
// It wraps another http.RoundTripper and logs debug information for each request/response cycle.
// Credentials in the Authorization header never reach the log.
type LogTransport struct {
	// next is the underlying HTTP round tripper.
	next http.RoundTripper
	// maxLogLength is the maximum length of logged request/response data.
	maxLogLength uint64
}

// Static error definitions for better error handling.
var (
	// ErrNilRequest indicates that the HTTP request is nil.
	ErrNilRequest = errors.New("request is nil")
)

// authorizationLinePattern matches an Authorization header line up to its line break.
//
//nolint:gochecknoglobals // This is immutable, pre-compiled regex pattern and used as a constant.
var authorizationLinePattern = regexp.MustCompile(`(?mi)^(Authorization:[ \t]*)([^\r\n]*)`)

// redactedMarker replaces credentials in dumps.
const redactedMarker = "[REDACTED]"

// NewLogTransport creates and returns a new instance of LogTransport.
// If maxLogLength is 0, it defaults to config.DefaultMaxLogLength.
func NewLogTransport(next http.RoundTripper, maxLogLength uint64) *LogTransport {
	if maxLogLength == 0 {
		maxLogLength = config.DefaultMaxLogLength
	}

	return &LogTransport{
		next:         next,
		maxLogLength: maxLogLength,
	}
}

// RoundTrip executes a single HTTP transaction and logs the request and response.
// It implements the http.RoundTripper interface.
func (t *LogTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	// Skip logging if the logger is not at debug level.
	if !logger.IsDebugLevel() {
		return t.next.RoundTrip(req)
	}

	ctx := req.Context()

	requestDump := t.dumpRequest(req)

	// Record the start time to measure the duration of the request.
	startTime := time.Now()

	resp, err := t.next.RoundTrip(req)

	duration := time.Since(startTime)

	if err != nil {
		logger.Debugf(ctx, "Request failed: %s %s | Error: %v", req.Method, req.URL.String(), err)

		return nil, err
	}

	responseDump := t.dumpResponse(resp)

	logger.Debugf(ctx, "%s %s [%d] %s\nRequest: %s\nResponse: %s",
		req.Method, req.URL.Path, resp.StatusCode, duration, requestDump, responseDump)

	return resp, nil
}

func (t *LogTransport) dumpRequest(req *http.Request) string {
	// Dump the body only for text payloads, DumpRequestOut restores it afterwards.
	dump, err := httputil.DumpRequestOut(req, utils.IsTextContentType(req.Header.Get(ContentTypeHeader)))
	if err != nil {
		return err.Error()
	}

	return t.truncate(redactCredentials(dump))
}

func (t *LogTransport) dumpResponse(resp *http.Response) string {
	// Check the Content-Type header to determine if the response body should be dumped.
	contentType := resp.Header.Get(ContentTypeHeader)

	dump, err := httputil.DumpResponse(resp, utils.IsTextContentType(contentType))
	if err != nil {
		return err.Error()
	}

	return t.truncate(dump)
}

func (t *LogTransport) truncate(data []byte) string {
	if uint64(len(data)) > t.maxLogLength {
		return string(data[:t.maxLogLength]) + "... [truncated]"
	}

	return string(data)
}

// redactCredentials keeps the scheme of the Authorization header and hides the rest of the line.
// A value without a scheme is hidden entirely.
func redactCredentials(dump []byte) []byte {
	return authorizationLinePattern.ReplaceAllFunc(dump, func(line []byte) []byte {
		match := authorizationLinePattern.FindSubmatch(line)
		prefix, fields := match[1], bytes.Fields(match[2])

		redacted := append([]byte{}, prefix...)

		switch len(fields) {
		case 0:
			return line
		case 1:
			return append(redacted, redactedMarker...)
		default:
			redacted = append(redacted, fields[0]...)

			return append(redacted, " "+redactedMarker...)
		}
	})
}
