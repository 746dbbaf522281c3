package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Response is a buffered API response.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Header holds the response headers.
	Header http.Header
	// Body is the full response body.
	Body []byte
}

// IsSuccess reports whether the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// DecodeJSON decodes the body into out.
func (r *Response) DecodeJSON(out any) error {
	return json.Unmarshal(r.Body, out)
}

// encodeBody turns a request body into a reader: raw bytes, strings and readers
// are sent as is, anything else is encoded as JSON.
func encodeBody(body any) (io.Reader, error) {
	switch value := body.(type) {
	case nil:
		return http.NoBody, nil
	case io.Reader:
		return value, nil
	case []byte:
		return bytes.NewReader(value), nil
	case string:
		return strings.NewReader(value), nil
	case json.RawMessage:
		return bytes.NewReader(value), nil
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}

		return bytes.NewReader(encoded), nil
	}
}

func readResponse(response *http.Response) (*Response, error) {
	defer response.Body.Close() //nolint:errcheck // Error on close is not critical here.

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: response.StatusCode,
		Header:     response.Header,
		Body:       body,
	}, nil
}
