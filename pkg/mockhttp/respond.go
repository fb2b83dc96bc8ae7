package mockhttp

import (
	"io"
	"net/http"
	"time"

	"github.com/ohler55/ojg/oj"

	"github.com/getmockd/testkit/pkg/async"
	"github.com/getmockd/testkit/pkg/sse"
)

// respondSpec collects the settings of one canned response.
type respondSpec struct {
	headers map[string]string
	body    string
}

// RespondOption tweaks a Respond handler.
type RespondOption func(*respondSpec)

// WithBody sets the response body.
func WithBody(body string) RespondOption {
	return func(rs *respondSpec) { rs.body = body }
}

// WithHeader adds a response header.
func WithHeader(name, value string) RespondOption {
	return func(rs *respondSpec) { rs.headers[name] = value }
}

// Respond returns a handler that writes a fixed status plus any headers
// and body configured by opts.
func Respond(status int, opts ...RespondOption) http.Handler {
	spec := &respondSpec{headers: map[string]string{}}
	for _, opt := range opts {
		opt(spec)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range spec.headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(status)
		if spec.body != "" {
			_, _ = io.WriteString(w, spec.body)
		}
	})
}

// RespondJSON returns a handler that writes v JSON-encoded with status
// 200 and an application/json content type.
func RespondJSON(v any) http.Handler {
	body := oj.JSON(v)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, body)
	})
}

// ChunkedStream returns a handler that streams chunks taken from the
// queue. Status and headers go out immediately and every chunk is
// written verbatim and flushed as it is taken, so the client sees each
// piece as it arrives rather than one buffered body. The response ends
// when the queue closes or the client goes away.
//
// The queue is owned by the caller and is not closed by the handler, so
// a single stream definition can serve the request while the test feeds
// it.
func ChunkedStream(status int, headers map[string]string, chunks *async.Queue[string]) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("X-Accel-Buffering", "no")
		for k, v := range headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(status)
		flusher.Flush()

		for {
			chunk, err := chunks.Take(r.Context())
			if err != nil {
				return
			}
			if _, err := io.WriteString(w, chunk); err != nil {
				return
			}
			flusher.Flush()
		}
	})
}

// SSEStream returns a handler that speaks text/event-stream, writing
// each event taken from the queue in wire form. A bridge goroutine
// between the event queue and the outgoing chunk stream is bound to the
// request context, so a client disconnect ends the bridge instead of
// leaking it; the event queue itself stays open for its producer.
func SSEStream(events *async.Queue[sse.Event]) http.Handler {
	enc := sse.NewEncoder()
	headers := map[string]string{
		"Content-Type": sse.ContentType,
		"Connection":   "keep-alive",
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunks := async.NewQueue[string]()
		go func() {
			defer chunks.Close()
			for {
				ev, err := events.Take(r.Context())
				if err != nil {
					return
				}
				chunks.Add(enc.Format(ev))
			}
		}()
		ChunkedStream(http.StatusOK, headers, chunks).ServeHTTP(w, r)
	})
}

// NetworkError returns a handler that kills the client connection
// without writing any response, so the client sees a transport failure
// rather than an HTTP status.
func NetworkError() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			// No hijack support (HTTP/2 or a wrapped writer): aborting
			// the handler is the closest available failure.
			panic(http.ErrAbortHandler)
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			panic(http.ErrAbortHandler)
		}
		_ = conn.Close()
	})
}

// Delay wraps h, waiting d before serving. The wait respects the
// request context so a shutdown or disconnect is not held up.
func Delay(d time.Duration, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-r.Context().Done():
			return
		}
		h.ServeHTTP(w, r)
	})
}
