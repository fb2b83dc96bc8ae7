package mockhttp

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
)

// recordingTB captures assertion failures instead of failing the test.
type recordingTB struct {
	testing.TB
	failures []string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Errorf(format string, args ...any) {
	r.failures = append(r.failures, fmt.Sprintf(format, args...))
}

func TestAssertions(t *testing.T) {
	srv := StartForTest(t, WithPortCounter(NewPortCounter(42880)))
	srv.ForMethodAndPath("get", "/hit", Respond(200))

	for i := 0; i < 2; i++ {
		resp, err := http.Get(srv.URL() + "/hit")
		if err != nil {
			t.Fatalf("GET /hit: %v", err)
		}
		resp.Body.Close()
	}

	srv.AssertCalled(t, "get", "/hit")
	srv.AssertCalledTimes(t, 2, "get", "/hit")
	srv.AssertNotCalled(t, "post", "/hit")
	srv.AssertNotCalled(t, "get", "/other")

	// Method filtering is case-insensitive like the route matching.
	srv.AssertCalled(t, "GET", "/hit")
}

func TestAssertionFailures(t *testing.T) {
	srv := StartForTest(t, WithPortCounter(NewPortCounter(42885)))
	srv.ForMethodAndPath("get", "/hit", Respond(200))

	resp, err := http.Get(srv.URL() + "/hit")
	if err != nil {
		t.Fatalf("GET /hit: %v", err)
	}
	resp.Body.Close()

	rec := &recordingTB{TB: t}
	srv.AssertCalled(rec, "get", "/never")
	srv.AssertCalledTimes(rec, 5, "get", "/hit")
	srv.AssertNotCalled(rec, "get", "/hit")

	if len(rec.failures) != 3 {
		t.Fatalf("failures = %d, want 3: %q", len(rec.failures), rec.failures)
	}
	if !strings.Contains(rec.failures[0], "expected at least one get /never request") {
		t.Errorf("unexpected message: %q", rec.failures[0])
	}
	if !strings.Contains(rec.failures[1], "expected 5 get /hit requests, got 1") {
		t.Errorf("unexpected message: %q", rec.failures[1])
	}
	if !strings.Contains(rec.failures[2], "expected no get /hit requests, got 1") {
		t.Errorf("unexpected message: %q", rec.failures[2])
	}
}
