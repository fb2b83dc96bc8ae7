// Package sse formats Server-Sent Events for the toolkit's streaming
// responses.
package sse

// Event is one item of an event stream. Data events carry a type, a
// payload and an optional ID; comment events carry only Comment. When
// both Data and Comment are set, the data fields win and the comment is
// dropped.
type Event struct {
	// Type names the event for EventSource listeners.
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// ID sets the last-event-ID a client reports on reconnect.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Data is the event payload.
	Data string `json:"data,omitempty" yaml:"data,omitempty"`

	// Comment emits a comment line, invisible to EventSource clients.
	// Used for keepalives and stream annotations.
	Comment string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// IsData reports whether the event carries a data payload.
func (e Event) IsData() bool { return e.Data != "" }
