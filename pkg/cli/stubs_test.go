package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/getmockd/testkit/pkg/config"
	"github.com/getmockd/testkit/pkg/sse"
)

func serveStub(t *testing.T, s config.Stub, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	ctx, cancel := context.WithCancel(req.Context())
	t.Cleanup(cancel)
	rec := httptest.NewRecorder()
	stubHandler(s).ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func TestStubHandlerPlain(t *testing.T) {
	rec := serveStub(t, config.Stub{
		Method:  "get",
		Path:    "/ping",
		Status:  418,
		Headers: map[string]string{"X-Stub": "yes"},
		Body:    "pong",
	}, http.MethodGet, "/ping")

	if rec.Code != 418 {
		t.Errorf("status = %d, want 418", rec.Code)
	}
	if got := rec.Header().Get("X-Stub"); got != "yes" {
		t.Errorf("X-Stub = %q, want %q", got, "yes")
	}
	if rec.Body.String() != "pong" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "pong")
	}
}

func TestStubHandlerDefaultStatus(t *testing.T) {
	rec := serveStub(t, config.Stub{Method: "get", Path: "/ok"}, http.MethodGet, "/ok")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestStubHandlerDelay(t *testing.T) {
	start := time.Now()
	rec := serveStub(t, config.Stub{
		Method:  "get",
		Path:    "/slow",
		Body:    "late",
		DelayMs: 60,
	}, http.MethodGet, "/slow")

	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("responded after %v, want at least 60ms", elapsed)
	}
	if rec.Body.String() != "late" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "late")
	}
}

func TestStubHandlerChunked(t *testing.T) {
	rec := serveStub(t, config.Stub{
		Method: "get",
		Path:   "/stream",
		Chunked: &config.ChunkedStub{
			Status:  202,
			Headers: map[string]string{"Content-Type": "text/plain"},
			Chunks:  []string{"thing", "+stuff"},
		},
	}, http.MethodGet, "/stream")

	if rec.Code != 202 {
		t.Errorf("status = %d, want 202", rec.Code)
	}
	if rec.Body.String() != "thing+stuff" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "thing+stuff")
	}
	if !rec.Flushed {
		t.Error("expected the response to be flushed")
	}
}

func TestStubHandlerSSE(t *testing.T) {
	rec := serveStub(t, config.Stub{
		Method: "get",
		Path:   "/events",
		SSE: &config.SSEStub{
			Events: []sse.Event{
				{Comment: "hi"},
				{Type: "put", Data: "stuff"},
			},
		},
	}, http.MethodGet, "/events")

	if got := rec.Header().Get("Content-Type"); got != sse.ContentType {
		t.Errorf("Content-Type = %q, want %q", got, sse.ContentType)
	}
	want := ":hi\nevent: put\ndata: stuff\n\n"
	if rec.Body.String() != want {
		t.Errorf("body = %q, want %q", rec.Body.String(), want)
	}
}

func TestStubHandlerSSEKeepalive(t *testing.T) {
	rec := serveStub(t, config.Stub{
		Method: "get",
		Path:   "/events",
		SSE: &config.SSEStub{
			Events:      []sse.Event{{Data: "first"}, {Data: "second"}},
			IntervalMs:  150,
			KeepaliveMs: 40,
		},
	}, http.MethodGet, "/events")

	body := rec.Body.String()
	if !strings.Contains(body, "data: first\n\n") || !strings.Contains(body, "data: second\n\n") {
		t.Errorf("body %q missing events", body)
	}
	if !strings.Contains(body, ":keepalive\n") {
		t.Errorf("body %q has no keepalive between events", body)
	}
}

func TestPause(t *testing.T) {
	if !pause(context.Background(), 0) {
		t.Error("zero pause on a live context should report true")
	}
	if !pause(context.Background(), 5*time.Millisecond) {
		t.Error("short pause on a live context should report true")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if pause(ctx, 0) {
		t.Error("zero pause on a cancelled context should report false")
	}
	if pause(ctx, time.Minute) {
		t.Error("pause on a cancelled context should report false")
	}
}
