package mockhttp

import (
	"context"
	"testing"
	"time"
)

// cleanupTimeout bounds how long a test waits for its server to stop.
const cleanupTimeout = 5 * time.Second

// StartForTest starts a plain mock server for a test, failing the test
// if the start fails and closing the server when the test ends.
func StartForTest(t testing.TB, opts ...Option) *Server {
	t.Helper()
	return forTest(t, Start, opts)
}

// StartSecureForTest is StartForTest for an HTTPS server.
func StartSecureForTest(t testing.TB, opts ...Option) *Server {
	t.Helper()
	return forTest(t, StartSecure, opts)
}

// StartProxyForTest is StartForTest for a forward proxy.
func StartProxyForTest(t testing.TB, opts ...Option) *Server {
	t.Helper()
	return forTest(t, StartProxy, opts)
}

func forTest(t testing.TB, start func(...Option) (*Server, error), opts []Option) *Server {
	t.Helper()

	srv, err := start(opts...)
	if err != nil {
		t.Fatalf("failed to start mock server: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		if err := srv.CloseAndWait(ctx); err != nil {
			t.Errorf("failed to stop mock server: %v", err)
		}
	})
	return srv
}
