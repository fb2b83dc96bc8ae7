package mockhttp

import (
	"net/http"
	"strings"
)

// route binds one method/path pair to a handler.
type route struct {
	method string
	path   string
	h      http.Handler
}

// ForMethodAndPath registers h for requests whose method matches
// case-insensitively and whose raw request target equals path exactly,
// query string included. Later registrations win over earlier ones for
// the same pair, so a test can shadow a route without restarting the
// server. Returns the server for chaining.
func (s *Server) ForMethodAndPath(method, path string, h http.Handler) *Server {
	s.mu.Lock()
	s.routes = append([]route{{method: method, path: path, h: h}}, s.routes...)
	s.mu.Unlock()
	return s
}

// ByDefault replaces the handler used when no registered route matches.
// The initial default responds 404 with an empty body. Returns the
// server for chaining.
func (s *Server) ByDefault(h http.Handler) *Server {
	s.mu.Lock()
	s.fallback = h
	s.mu.Unlock()
	return s
}

// match picks the handler for a request against a snapshot of the
// routes, newest registration first. Registration prepends into a fresh
// slice, so the snapshot is safe to scan unlocked.
func (s *Server) match(method, target string) http.Handler {
	s.mu.RLock()
	routes := s.routes
	fallback := s.fallback
	s.mu.RUnlock()

	for _, rt := range routes {
		if strings.EqualFold(rt.method, method) && rt.path == target {
			return rt.h
		}
	}
	return fallback
}
