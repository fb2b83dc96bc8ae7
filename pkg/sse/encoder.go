package sse

import "strings"

// ContentType is the MIME type for SSE responses.
const ContentType = "text/event-stream"

// SSE field prefixes. Comment lines take no space after the colon; the
// named fields do.
const (
	fieldEvent   = "event: "
	fieldData    = "data: "
	fieldID      = "id: "
	fieldComment = ":"
)

// Encoder turns events into their wire form.
type Encoder struct{}

// NewEncoder creates a new SSE encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Format renders one event. A comment renders as a single comment line.
// A data payload renders as the event line, the optional id field and
// the data line, terminated by the blank line that dispatches the event.
// The id field runs directly into the data line with no newline of its
// own, and a data payload replaces any comment rather than following it.
func (e *Encoder) Format(ev Event) string {
	var sb strings.Builder

	if ev.Comment != "" {
		sb.WriteString(fieldComment)
		sb.WriteString(ev.Comment)
		sb.WriteByte('\n')
	}

	if ev.Data != "" {
		sb.Reset()
		sb.WriteString(fieldEvent)
		sb.WriteString(ev.Type)
		sb.WriteByte('\n')
		if ev.ID != "" {
			sb.WriteString(fieldID)
			sb.WriteString(ev.ID)
		}
		sb.WriteString(fieldData)
		sb.WriteString(ev.Data)
		sb.WriteString("\n\n")
	}

	return sb.String()
}

// FormatComment renders a bare comment line.
func (e *Encoder) FormatComment(comment string) string {
	return fieldComment + comment + "\n"
}

// FormatKeepalive returns the comment line interval streams emit to keep
// idle connections open.
func (e *Encoder) FormatKeepalive() string {
	return e.FormatComment("keepalive")
}
