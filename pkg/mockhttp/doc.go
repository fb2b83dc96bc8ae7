// Package mockhttp provides an embeddable mock HTTP server for tests.
//
// A server is started in one of four modes: plain HTTP, HTTPS with a
// freshly generated self-signed certificate, or a forward proxy over
// either scheme. Every accepted request is captured and pushed onto a
// blocking queue so a test can interleave driving a client with
// asserting on what the server saw:
//
//	srv, err := mockhttp.Start()
//	if err != nil {
//		t.Fatal(err)
//	}
//	defer srv.Close()
//
//	srv.ForMethodAndPath("GET", "/status", mockhttp.Respond(200,
//		mockhttp.WithBody(`{"ok":true}`)))
//
//	resp, err := http.Get(srv.URL() + "/status")
//	// ...
//
//	req, err := srv.NextRequest(context.Background())
//	// req.Method == "get", req.Path == "/status"
//
// Handlers are plain http.Handler values. Respond, RespondJSON,
// ChunkedStream, SSEStream, NetworkError and Delay cover the common
// canned behaviors; anything else can be written inline. Routes are
// matched newest first, so a test can shadow an earlier registration
// without tearing the server down.
package mockhttp
