package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/getmockd/testkit/pkg/async"
	"github.com/getmockd/testkit/pkg/config"
	"github.com/getmockd/testkit/pkg/mockhttp"
	"github.com/getmockd/testkit/pkg/sse"
)

// stubHandler builds the handler for one configured stub.
func stubHandler(s config.Stub) http.Handler {
	var h http.Handler
	switch {
	case s.Chunked != nil:
		h = chunkedStubHandler(s.Chunked)
	case s.SSE != nil:
		h = sseStubHandler(s.SSE)
	default:
		status := s.Status
		if status == 0 {
			status = http.StatusOK
		}
		opts := make([]mockhttp.RespondOption, 0, len(s.Headers)+1)
		if s.Body != "" {
			opts = append(opts, mockhttp.WithBody(s.Body))
		}
		for k, v := range s.Headers {
			opts = append(opts, mockhttp.WithHeader(k, v))
		}
		h = mockhttp.Respond(status, opts...)
	}
	if s.DelayMs > 0 {
		h = mockhttp.Delay(time.Duration(s.DelayMs)*time.Millisecond, h)
	}
	return h
}

// chunkedStubHandler streams the configured chunks, pausing intervalMs
// between them. Each request gets its own queue and feeder so
// concurrent clients each see the full sequence.
func chunkedStubHandler(s *config.ChunkedStub) http.Handler {
	status := s.Status
	if status == 0 {
		status = http.StatusOK
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunks := async.NewQueue[string]()
		go func() {
			defer chunks.Close()
			interval := time.Duration(s.IntervalMs) * time.Millisecond
			for i, chunk := range s.Chunks {
				if i > 0 && !pause(r.Context(), interval) {
					return
				}
				chunks.Add(chunk)
			}
		}()
		mockhttp.ChunkedStream(status, s.Headers, chunks).ServeHTTP(w, r)
	})
}

// sseStubHandler streams the configured events, pausing intervalMs
// between them and emitting keepalive comments every keepaliveMs while
// the stream is open.
func sseStubHandler(s *config.SSEStub) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		events := async.NewQueue[sse.Event]()

		if s.KeepaliveMs > 0 {
			go keepalive(r.Context(), events, time.Duration(s.KeepaliveMs)*time.Millisecond)
		}

		go func() {
			defer events.Close()
			interval := time.Duration(s.IntervalMs) * time.Millisecond
			for i, ev := range s.Events {
				if i > 0 && !pause(r.Context(), interval) {
					return
				}
				events.Add(ev)
			}
		}()

		mockhttp.SSEStream(events).ServeHTTP(w, r)
	})
}

// keepalive adds a comment event every interval until ctx ends. Adds
// after the event queue closes are discarded, so the ticker needs no
// coordination with the feeder.
func keepalive(ctx context.Context, events *async.Queue[sse.Event], every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			events.Add(sse.Event{Comment: "keepalive"})
		case <-ctx.Done():
			return
		}
	}
}

// pause waits d, returning false if ctx ends first.
func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
