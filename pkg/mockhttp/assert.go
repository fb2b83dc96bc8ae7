package mockhttp

import (
	"testing"

	"github.com/getmockd/testkit/pkg/requestlog"
)

// AssertCalled asserts that at least one request matching method and
// path was handled.
func (s *Server) AssertCalled(t testing.TB, method, path string) {
	t.Helper()

	if n := s.calls(method, path); n == 0 {
		t.Errorf("expected at least one %s %s request, got none", method, path)
	}
}

// AssertCalledTimes asserts that exactly want requests matching method
// and path were handled.
func (s *Server) AssertCalledTimes(t testing.TB, want int, method, path string) {
	t.Helper()

	if n := s.calls(method, path); n != want {
		t.Errorf("expected %d %s %s requests, got %d", want, method, path, n)
	}
}

// AssertNotCalled asserts that no request matching method and path was
// handled.
func (s *Server) AssertNotCalled(t testing.TB, method, path string) {
	t.Helper()

	if n := s.calls(method, path); n > 0 {
		t.Errorf("expected no %s %s requests, got %d", method, path, n)
	}
}

func (s *Server) calls(method, path string) int {
	return len(s.history.List(&requestlog.Filter{Method: method, Path: path}))
}
