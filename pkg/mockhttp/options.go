package mockhttp

import "log/slog"

// options collects server construction settings.
type options struct {
	port        int
	logger      *slog.Logger
	counter     *PortCounter
	historySize int
	name        string
}

// Option configures a server at start time.
type Option func(*options)

// WithPort pins the server to a fixed port. A binding failure on a
// fixed port is fatal; no alternative port is tried.
func WithPort(port int) Option {
	return func(o *options) { o.port = port }
}

// WithLogger sets the structured logger. Defaults to a no-op logger so
// embedding in tests stays quiet.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.logger = log }
}

// WithPortCounter substitutes the counter used for automatic port
// selection. Defaults to SharedPortCounter.
func WithPortCounter(c *PortCounter) Option {
	return func(o *options) { o.counter = c }
}

// WithHistorySize caps the request history ring. Defaults to
// requestlog.DefaultCapacity.
func WithHistorySize(n int) Option {
	return func(o *options) { o.historySize = n }
}

// WithName tags the server's log lines, useful when a test runs
// several servers at once.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}
