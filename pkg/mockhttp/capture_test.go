package mockhttp

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCaptureRestoresBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/submit", strings.NewReader("payload"))

	c := capture(r)
	if c.Body != "payload" {
		t.Fatalf("Body = %q, want %q", c.Body, "payload")
	}

	// The body is readable again afterwards, so a relay or handler
	// still sees the full content.
	rest, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("re-read body: %v", err)
	}
	if string(rest) != "payload" {
		t.Errorf("re-read body = %q, want %q", rest, "payload")
	}
}

func TestCaptureReportMethodBody(t *testing.T) {
	r := httptest.NewRequest("REPORT", "/calendar", strings.NewReader("<report/>"))

	c := capture(r)
	if c.Method != "report" {
		t.Errorf("Method = %q, want %q", c.Method, "report")
	}
	if c.Body != "<report/>" {
		t.Errorf("Body = %q, want %q", c.Body, "<report/>")
	}
}

func TestCaptureKeepsQueryInPath(t *testing.T) {
	r := httptest.NewRequest("GET", "/search?q=one&page=2", nil)

	if c := capture(r); c.Path != "/search?q=one&page=2" {
		t.Errorf("Path = %q, want %q", c.Path, "/search?q=one&page=2")
	}
}

func TestHeaderValueLookup(t *testing.T) {
	c := &CapturedRequest{Headers: map[string]string{
		"Content-Type": "application/json",
		"x-odd-case":   "kept",
	}}

	tests := []struct {
		name, want string
	}{
		{"Content-Type", "application/json"},
		{"content-type", "application/json"},
		{"CONTENT-TYPE", "application/json"},
		{"X-Odd-Case", "kept"},
		{"Missing", ""},
	}
	for _, tt := range tests {
		if got := c.HeaderValue(tt.name); got != tt.want {
			t.Errorf("HeaderValue(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCaptureTakesFirstHeaderValue(t *testing.T) {
	r := httptest.NewRequest("GET", "/multi", nil)
	r.Header.Add("Accept", "text/html")
	r.Header.Add("Accept", "application/json")

	if c := capture(r); c.Headers["Accept"] != "text/html" {
		t.Errorf("Headers[Accept] = %q, want the first value %q", c.Headers["Accept"], "text/html")
	}
}
