package mockhttp

import (
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// hopByHopHeaders are stripped when relaying; they describe one
// connection, not the end-to-end request.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"TE",
	"Trailers",
	"Transfer-Encoding",
	"Upgrade",
}

// dialTimeout bounds CONNECT dials to tunnel targets.
const dialTimeout = 30 * time.Second

// serveProxy handles one request in the proxy modes. CONNECT requests
// become raw TCP tunnels; everything else is captured and relayed to
// its target with the response piped back.
func (s *Server) serveProxy(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodConnect {
		s.tunnel(w, r)
		return
	}
	s.relay(w, r)
}

// relay forwards a plain proxied request and streams the upstream
// response back to the client.
func (s *Server) relay(w http.ResponseWriter, r *http.Request) {
	c := capture(r)
	s.count.Add(1)
	s.requests.Add(c)

	target := targetURL(r)
	out, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
	if err != nil {
		s.log.Warn("relay target unusable", "target", target, "error", err)
		http.Error(w, "Bad proxy target: "+err.Error(), http.StatusBadGateway)
		s.history.Log(historyEntry(c, true, http.StatusBadGateway))
		return
	}
	copyHeaders(out.Header, r.Header)
	removeHopByHopHeaders(out.Header)
	out.Header.Set("X-Forwarded-For", r.RemoteAddr)
	out.Header.Set("X-Forwarded-Host", r.Host)

	resp, err := s.outbound.Do(out)
	if err != nil {
		s.log.Warn("relay failed", "target", target, "error", err)
		http.Error(w, "Error forwarding request: "+err.Error(), http.StatusBadGateway)
		s.history.Log(historyEntry(c, true, http.StatusBadGateway))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	copyHeaders(w.Header(), resp.Header)
	removeHopByHopHeaders(w.Header())
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.log.Debug("relay body ended early", "error", err)
	}

	s.history.Log(historyEntry(c, true, resp.StatusCode))
	s.log.Debug("request relayed",
		"method", c.Method, "target", target, "status", resp.StatusCode)
}

// tunnel answers a CONNECT by dialing the target and splicing bytes in
// both directions until either side closes. The capture's path is the
// request target prefixed with "http://", matching how plain relays
// record absolute URLs.
func (s *Server) tunnel(w http.ResponseWriter, r *http.Request) {
	c := capture(r)
	c.Path = "http://" + requestTarget(r)
	s.count.Add(1)
	s.requests.Add(c)

	hostport := r.Host
	if hostport == "" {
		hostport = r.URL.Host
	}
	if !strings.Contains(hostport, ":") {
		hostport += ":443"
	}

	targetConn, err := net.DialTimeout("tcp", hostport, dialTimeout)
	if err != nil {
		s.log.Warn("tunnel dial failed", "target", hostport, "error", err)
		http.Error(w, "Error connecting to target: "+err.Error(), http.StatusBadGateway)
		s.history.Log(historyEntry(c, true, http.StatusBadGateway))
		return
	}

	hijacker, ok := w.(http.Hijacker)
	if !ok {
		_ = targetConn.Close()
		http.Error(w, "Tunneling not supported", http.StatusInternalServerError)
		s.history.Log(historyEntry(c, true, http.StatusInternalServerError))
		return
	}
	clientConn, brw, err := hijacker.Hijack()
	if err != nil {
		_ = targetConn.Close()
		http.Error(w, "Error hijacking connection: "+err.Error(), http.StatusInternalServerError)
		s.history.Log(historyEntry(c, true, http.StatusInternalServerError))
		return
	}

	if _, err := clientConn.Write([]byte("HTTP/1.1 200 Connection Established\r\n\r\n")); err != nil {
		s.log.Warn("tunnel response write failed", "error", err)
		_ = clientConn.Close()
		_ = targetConn.Close()
		return
	}

	s.history.Log(historyEntry(c, true, http.StatusOK))
	s.log.Debug("tunnel established", "target", hostport)

	// Client-to-target reads go through brw.Reader: it may hold bytes
	// the client sent ahead of the 200.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(targetConn, brw.Reader)
		_ = targetConn.Close()
	}()
	go func() {
		defer wg.Done()
		_, _ = io.Copy(clientConn, targetConn)
		_ = clientConn.Close()
	}()
	wg.Wait()
}

// targetURL resolves where to forward: the absolute URL from the
// request line when present, else reconstructed from the Host header.
func targetURL(r *http.Request) string {
	if r.URL.IsAbs() {
		return r.URL.String()
	}
	return "http://" + r.Host + r.URL.RequestURI()
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

func removeHopByHopHeaders(h http.Header) {
	for _, header := range hopByHopHeaders {
		h.Del(header)
	}
}
