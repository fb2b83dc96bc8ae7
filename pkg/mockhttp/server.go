package mockhttp

import (
	"bufio"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/getmockd/testkit/pkg/async"
	"github.com/getmockd/testkit/pkg/logging"
	"github.com/getmockd/testkit/pkg/requestlog"
	testkittls "github.com/getmockd/testkit/pkg/tls"
)

// hostname is the host every server binds and advertises.
const hostname = "localhost"

// autoBindAttempts bounds how many candidate ports automatic selection
// tries before giving up.
const autoBindAttempts = 100

// Server is an embeddable mock HTTP server. Start it with one of the
// Start functions; zero values are not usable.
type Server struct {
	log    *slog.Logger
	secure bool
	proxy  bool
	port   int

	cert *testkittls.GeneratedCertificate

	mu       sync.RWMutex
	routes   []route
	fallback http.Handler

	requests *async.Queue[*CapturedRequest]
	history  requestlog.Store
	count    atomic.Int64

	outbound   *http.Client
	httpServer *http.Server
	serveDone  chan struct{}
	closed     atomic.Bool
}

// Start launches a plain HTTP mock server and returns once its socket
// is listening.
func Start(opts ...Option) (*Server, error) {
	return newServer(false, false, opts)
}

// StartSecure launches an HTTPS mock server with a freshly generated
// self-signed certificate, exposed through CertificatePEM for client
// trust.
func StartSecure(opts ...Option) (*Server, error) {
	return newServer(true, false, opts)
}

// StartProxy launches a plain forward proxy that captures and relays
// every request. Registered routes and the default handler are not
// consulted in the proxy modes.
func StartProxy(opts ...Option) (*Server, error) {
	return newServer(false, true, opts)
}

// StartSecureProxy launches a forward proxy served over TLS. Clients
// must trust CertificatePEM to reach it; onward targets are still plain
// HTTP or opaque CONNECT tunnels.
func StartSecureProxy(opts ...Option) (*Server, error) {
	return newServer(true, true, opts)
}

func newServer(secure, proxy bool, opts []Option) (*Server, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Nop()
	}
	if o.counter == nil {
		o.counter = SharedPortCounter
	}

	log := o.logger
	if o.name != "" {
		log = log.With("server", o.name)
	}

	s := &Server{
		log:      log,
		secure:   secure,
		proxy:    proxy,
		requests: async.NewQueue[*CapturedRequest](),
		history:  requestlog.NewMemoryStore(o.historySize),
		fallback: Respond(http.StatusNotFound),
		outbound: &http.Client{
			// A proxy relays redirects back to the client instead of
			// chasing them.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		serveDone: make(chan struct{}),
	}

	if secure {
		cert, err := testkittls.GenerateSelfSignedCert(nil)
		if err != nil {
			return nil, fmt.Errorf("mockhttp: generate certificate: %w", err)
		}
		s.cert = cert
	}

	ln, port, err := s.bind(o)
	if err != nil {
		return nil, err
	}
	s.port = port

	var handler http.Handler
	if proxy {
		handler = http.HandlerFunc(s.serveProxy)
	} else {
		handler = http.HandlerFunc(s.serveMock)
	}
	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		defer close(s.serveDone)
		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server stopped unexpectedly", "error", err)
			return
		}
		s.log.Debug("server stopped", "port", port)
	}()

	s.log.Debug("server listening", "url", s.URL(), "proxy", proxy)
	return s, nil
}

// bind opens the listener. With a fixed port any failure is fatal; in
// automatic mode ports come off the counter and only an
// address-in-use failure moves on to the next candidate.
func (s *Server) bind(o options) (net.Listener, int, error) {
	if o.port > 0 {
		ln, err := s.listen(o.port)
		if err != nil {
			return nil, 0, fmt.Errorf("mockhttp: bind %s:%d: %w", hostname, o.port, err)
		}
		return ln, o.port, nil
	}

	for i := 0; i < autoBindAttempts; i++ {
		port := o.counter.Next()
		ln, err := s.listen(port)
		if err == nil {
			return ln, port, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, 0, fmt.Errorf("mockhttp: bind %s:%d: %w", hostname, port, err)
		}
		s.log.Debug("port in use, trying next", "port", port)
	}
	return nil, 0, fmt.Errorf("mockhttp: no free port after %d attempts", autoBindAttempts)
}

func (s *Server) listen(port int) (net.Listener, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", hostname, port))
	if err != nil {
		return nil, err
	}
	if !s.secure {
		return ln, nil
	}
	tlsCert, err := s.cert.TLSCertificate()
	if err != nil {
		_ = ln.Close()
		return nil, err
	}
	// No ALPN advertised, so connections stay HTTP/1.1 and handlers
	// keep the ability to hijack.
	return tls.NewListener(ln, &tls.Config{
		Certificates: []tls.Certificate{tlsCert},
		MinVersion:   tls.VersionTLS12,
	}), nil
}

// serveMock handles one request in the mock modes: capture, count,
// queue, then dispatch to exactly one handler.
func (s *Server) serveMock(w http.ResponseWriter, r *http.Request) {
	c := capture(r)
	s.count.Add(1)
	s.requests.Add(c)

	rec := newStatusRecorder(w)
	s.match(c.Method, c.Path).ServeHTTP(rec, r)

	s.history.Log(historyEntry(c, false, rec.statusCode))
	s.log.Debug("request handled",
		"method", c.Method, "path", c.Path, "status", rec.statusCode)
}

// URL returns the server's base URL, e.g. "http://localhost:4280".
func (s *Server) URL() string {
	scheme := "http"
	if s.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, hostname, s.port)
}

// Hostname returns the host the server is bound to.
func (s *Server) Hostname() string { return hostname }

// Port returns the bound port.
func (s *Server) Port() int { return s.port }

// Secure reports whether the server speaks TLS.
func (s *Server) Secure() bool { return s.secure }

// CertificatePEM returns the PEM-encoded certificate the secure modes
// present, empty otherwise. Clients add it to their root pool to
// connect without disabling verification.
func (s *Server) CertificatePEM() string {
	if s.cert == nil {
		return ""
	}
	return string(s.cert.CertPEM)
}

// RequestCount returns how many requests the server has accepted,
// matched or not.
func (s *Server) RequestCount() int {
	return int(s.count.Load())
}

// Requests exposes the capture queue directly, for tests that want its
// length or drain semantics.
func (s *Server) Requests() *async.Queue[*CapturedRequest] {
	return s.requests
}

// NextRequest takes the oldest unconsumed capture, blocking until one
// arrives, the server closes (async.ErrQueueClosed) or ctx is done.
func (s *Server) NextRequest(ctx context.Context) (*CapturedRequest, error) {
	return s.requests.Take(ctx)
}

// History queries the bounded request history. A nil filter returns
// everything, newest first.
func (s *Server) History(filter *requestlog.Filter) []*requestlog.Entry {
	return s.history.List(filter)
}

// Client returns an http.Client preconfigured to reach the server: it
// trusts the generated certificate in the secure modes and routes
// through the server in the proxy modes.
func (s *Server) Client() *http.Client {
	t := &http.Transport{}
	if s.secure {
		pool := x509.NewCertPool()
		pool.AppendCertsFromPEM(s.cert.CertPEM)
		t.TLSClientConfig = &tls.Config{RootCAs: pool}
	}
	if s.proxy {
		proxyURL, _ := url.Parse(s.URL())
		t.Proxy = http.ProxyURL(proxyURL)
	}
	return &http.Client{Transport: t}
}

// Close shuts the server down without waiting. The capture queue
// closes, the listener stops accepting and active connections are
// force-closed so streaming responses end. Errors are only logged.
func (s *Server) Close() {
	if err := s.shutdown(); err != nil {
		s.log.Warn("close failed", "error", err)
	}
}

// CloseAndWait shuts the server down like Close and then waits, bounded
// by ctx, until the listener is released and the serve loop has
// returned.
func (s *Server) CloseAndWait(ctx context.Context) error {
	err := s.shutdown()
	select {
	case <-s.serveDone:
	case <-ctx.Done():
		return fmt.Errorf("mockhttp: shutdown wait: %w", ctx.Err())
	}
	if err != nil {
		return fmt.Errorf("mockhttp: shutdown: %w", err)
	}
	return nil
}

// shutdown runs the teardown exactly once. The queue closes first so
// blocked NextRequest callers reject promptly, then the hard close
// tears down the listener and every open connection.
func (s *Server) shutdown() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.requests.Close()
	return s.httpServer.Close()
}

// historyEntry converts a capture into its history record.
func historyEntry(c *CapturedRequest, proxied bool, status int) *requestlog.Entry {
	return &requestlog.Entry{
		ID:             c.ID,
		Timestamp:      c.ReceivedAt,
		Method:         c.Method,
		Path:           c.Path,
		Headers:        c.Headers,
		Body:           c.Body,
		RemoteAddr:     c.RemoteAddr,
		Proxied:        proxied,
		ResponseStatus: status,
	}
}

// statusRecorder wraps http.ResponseWriter to capture the status code
// while keeping the Flusher and Hijacker upgrades streaming and
// network-failure handlers rely on.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.written {
		w.statusCode = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("mockhttp: response writer does not support hijacking")
	}
	return hj.Hijack()
}
