// Package config defines the YAML configuration for the standalone
// stub server: where to listen, how to log and which stubs to serve.
// Stub files can include other files, expand environment variables and
// hold either a single stub or a list.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/testkit/pkg/sse"
)

// Config is the root of a stub server configuration file.
type Config struct {
	Listen        ListenConfig `yaml:"listen"`
	Log           LogConfig    `yaml:"log"`
	DefaultStatus int          `yaml:"defaultStatus,omitempty"`
	Stubs         []Stub       `yaml:"stubs"`
}

// ListenConfig controls the server socket.
type ListenConfig struct {
	// Port pins the listen port. Zero selects automatically.
	Port int `yaml:"port,omitempty"`

	// TLS serves HTTPS with a generated self-signed certificate.
	TLS bool `yaml:"tls,omitempty"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Stub defines one canned response, or includes stubs from another
// file via File or Files.
type Stub struct {
	Method  string            `yaml:"method,omitempty"`
	Path    string            `yaml:"path,omitempty"`
	Status  int               `yaml:"status,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Body    string            `yaml:"body,omitempty"`
	DelayMs int               `yaml:"delayMs,omitempty"`
	Chunked *ChunkedStub      `yaml:"chunked,omitempty"`
	SSE     *SSEStub          `yaml:"sse,omitempty"`

	// File includes the stubs defined in one other file.
	File string `yaml:"file,omitempty"`

	// Files includes every matching file; ** matches recursively.
	Files string `yaml:"files,omitempty"`
}

// ChunkedStub streams a fixed sequence of chunks with a pause between
// each.
type ChunkedStub struct {
	Status     int               `yaml:"status,omitempty"`
	Headers    map[string]string `yaml:"headers,omitempty"`
	Chunks     []string          `yaml:"chunks"`
	IntervalMs int               `yaml:"intervalMs,omitempty"`
}

// SSEStub streams a fixed sequence of events, optionally interleaved
// with keepalive comments.
type SSEStub struct {
	Events      []sse.Event `yaml:"events"`
	IntervalMs  int         `yaml:"intervalMs,omitempty"`
	KeepaliveMs int         `yaml:"keepaliveMs,omitempty"`
}

// IsFileRef reports whether the stub includes a single file.
func (s *Stub) IsFileRef() bool { return s.File != "" }

// IsGlob reports whether the stub includes files by pattern.
func (s *Stub) IsGlob() bool { return s.Files != "" }

// IsInline reports whether the stub defines a response itself.
func (s *Stub) IsInline() bool { return s.File == "" && s.Files == "" }

// StubFileContent represents the possible contents of an included stub
// file: a single stub or a list of stubs.
type StubFileContent struct {
	Stub  `yaml:",inline"`
	Stubs []Stub `yaml:"-"`
}

// UnmarshalYAML accepts both a single stub mapping and a sequence of
// stubs at the top level of a file.
func (c *StubFileContent) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var stubs []Stub
		if err := node.Decode(&stubs); err != nil {
			return err
		}
		c.Stubs = stubs
		return nil
	}
	return node.Decode(&c.Stub)
}

// ValidationError describes a rejected configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if c.Listen.Port < 0 || c.Listen.Port > 65535 {
		return &ValidationError{
			Field:   "listen.port",
			Message: "port must be between 0 and 65535",
		}
	}
	if c.DefaultStatus != 0 && (c.DefaultStatus < 100 || c.DefaultStatus > 599) {
		return &ValidationError{
			Field:   "defaultStatus",
			Message: "status must be between 100 and 599",
		}
	}
	for i := range c.Stubs {
		if err := c.Stubs[i].Validate(); err != nil {
			return fmt.Errorf("stubs[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate checks one stub.
func (s *Stub) Validate() error {
	if !s.IsInline() {
		if s.File != "" && s.Files != "" {
			return &ValidationError{
				Field:   "file",
				Message: "file and files are mutually exclusive",
			}
		}
		return nil
	}
	if s.Path == "" {
		return &ValidationError{
			Field:   "path",
			Message: "path is required for an inline stub",
		}
	}
	if s.Method == "" {
		return &ValidationError{
			Field:   "method",
			Message: "method is required when path is set",
		}
	}
	if s.Status != 0 && (s.Status < 100 || s.Status > 599) {
		return &ValidationError{
			Field:   "status",
			Message: "status must be between 100 and 599",
		}
	}
	if s.DelayMs < 0 {
		return &ValidationError{
			Field:   "delayMs",
			Message: "delayMs must not be negative",
		}
	}
	if s.Chunked != nil && s.SSE != nil {
		return &ValidationError{
			Field:   "chunked",
			Message: "chunked and sse are mutually exclusive",
		}
	}
	return nil
}
