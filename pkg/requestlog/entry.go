package requestlog

import (
	"fmt"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// Entry captures one handled request for later inspection.
type Entry struct {
	// ID is a unique identifier for the log entry.
	ID string `json:"id"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`

	// Method is the HTTP method, lower-cased.
	Method string `json:"method"`

	// Path is the request target as sent, including any query string.
	Path string `json:"path"`

	// Headers holds the first value of each request header.
	Headers map[string]string `json:"headers,omitempty"`

	// Body is the request body content. Empty for methods whose body is
	// not captured.
	Body string `json:"body,omitempty"`

	// RemoteAddr is the client address.
	RemoteAddr string `json:"remoteAddr"`

	// Proxied marks entries recorded while serving in a proxy mode.
	Proxied bool `json:"proxied,omitempty"`

	// ResponseStatus is the status code returned, when known.
	ResponseStatus int `json:"responseStatus,omitempty"`
}

// JSONPath parses the entry body as JSON and evaluates a JSONPath
// expression against it, returning the first match.
func (e *Entry) JSONPath(path string) (any, error) {
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath %q: %w", path, err)
	}

	data, err := oj.ParseString(e.Body)
	if err != nil {
		return nil, fmt.Errorf("body is not valid JSON: %w", err)
	}

	results := expr.Get(data)
	if len(results) == 0 {
		return nil, fmt.Errorf("JSONPath %q matched nothing", path)
	}
	return results[0], nil
}
