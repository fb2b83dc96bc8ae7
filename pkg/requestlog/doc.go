// Package requestlog captures and stores handled requests for test
// inspection.
//
// The mock server hands every accepted request to a Logger; tests query
// the same store for history-based assertions. This is distinct from
// operational logging, which uses log/slog.
//
//	store := requestlog.NewMemoryStore(1000)
//	store.Log(&requestlog.Entry{
//	    Method: "post",
//	    Path:   "/api/users",
//	    Body:   `{"name":"ada"}`,
//	})
//	entries := store.List(&requestlog.Filter{Method: "post"})
//
// Entry bodies holding JSON can be probed with JSONPath expressions via
// Entry.JSONPath, which keeps body assertions independent of key order
// and formatting.
//
// This is a leaf package with no internal dependencies, so any package
// can import it without creating cycles.
package requestlog
