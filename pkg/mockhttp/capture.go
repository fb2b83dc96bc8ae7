package mockhttp

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// bodyMethods lists the methods whose bodies are read into the capture.
// Other methods leave the body stream untouched.
var bodyMethods = map[string]bool{
	"post":   true,
	"put":    true,
	"report": true,
}

// CapturedRequest is the server's record of one accepted request.
type CapturedRequest struct {
	// ID uniquely identifies this capture.
	ID string `json:"id"`

	// Method is the HTTP method, lower-cased.
	Method string `json:"method"`

	// Path is the request target exactly as the client sent it,
	// including any query string. In the proxy modes this is the
	// absolute target URL.
	Path string `json:"path"`

	// Headers holds the first value of each request header, keyed by
	// the canonical header name.
	Headers map[string]string `json:"headers"`

	// Body is the request body for post, put and report requests and
	// empty for everything else.
	Body string `json:"body,omitempty"`

	// RemoteAddr is the client address the request arrived from.
	RemoteAddr string `json:"remoteAddr"`

	// ReceivedAt is when the server accepted the request.
	ReceivedAt time.Time `json:"receivedAt"`
}

// HeaderValue returns the captured value for name, trying the exact key
// first and falling back to a case-insensitive scan.
func (c *CapturedRequest) HeaderValue(name string) string {
	if v, ok := c.Headers[name]; ok {
		return v
	}
	for k, v := range c.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// capture builds the CapturedRequest for r. For body-carrying methods
// the body is drained and then restored so handlers and relays can
// still read it.
func capture(r *http.Request) *CapturedRequest {
	method := strings.ToLower(r.Method)

	var body string
	if bodyMethods[method] && r.Body != nil {
		b, err := io.ReadAll(r.Body)
		if err == nil {
			body = string(b)
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(body))
	}

	headers := make(map[string]string, len(r.Header))
	for k, vs := range r.Header {
		if len(vs) > 0 {
			headers[k] = vs[0]
		}
	}

	return &CapturedRequest{
		ID:         uuid.NewString(),
		Method:     method,
		Path:       requestTarget(r),
		Headers:    headers,
		Body:       body,
		RemoteAddr: r.RemoteAddr,
		ReceivedAt: time.Now(),
	}
}

// requestTarget returns the target as it appeared on the request line:
// origin form with the query string, or the absolute URL for
// absolute-form proxy requests. RequestURI is empty on synthetic
// requests, so fall back to reconstructing from the parsed URL.
func requestTarget(r *http.Request) string {
	if r.RequestURI != "" {
		return r.RequestURI
	}
	return r.URL.RequestURI()
}
