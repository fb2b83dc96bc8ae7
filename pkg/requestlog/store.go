package requestlog

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity bounds the in-memory store when no capacity is given.
const DefaultCapacity = 1000

// maxBodySize caps stored bodies (10KB) so one large upload cannot
// bloat the history.
const maxBodySize = 10 * 1024

// truncateBody caps a body at maxSize bytes, marking the cut.
func truncateBody(body string, maxSize int) string {
	if len(body) > maxSize {
		return body[:maxSize] + "...(truncated)"
	}
	return body
}

// Logger is the minimal interface for recording request entries. The
// server hands every accepted request to a Logger; tests usually query
// the same object through the wider Store interface.
type Logger interface {
	Log(entry *Entry)
}

// Store is the query side of a request history.
type Store interface {
	Logger

	// Get retrieves an entry by ID.
	Get(id string) *Entry

	// List returns entries newest first, optionally filtered.
	List(filter *Filter) []*Entry

	// Clear removes all entries.
	Clear()

	// Count returns the number of stored entries.
	Count() int
}

// Filter defines criteria for selecting history entries. Zero values
// match everything.
type Filter struct {
	// Method filters by HTTP method, case-insensitively.
	Method string

	// Path filters by exact request path.
	Path string

	// StatusCode filters by recorded response status.
	StatusCode int

	// Limit caps the number of entries returned.
	Limit int

	// Offset skips that many entries first.
	Offset int
}

func (f *Filter) matches(e *Entry) bool {
	if f.Method != "" && !strings.EqualFold(f.Method, e.Method) {
		return false
	}
	if f.Path != "" && f.Path != e.Path {
		return false
	}
	if f.StatusCode != 0 && f.StatusCode != e.ResponseStatus {
		return false
	}
	return true
}

// MemoryStore is a bounded in-memory Store. At capacity the oldest
// entry is evicted first.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []*Entry
	cap     int
}

// NewMemoryStore creates a store holding at most capacity entries.
// A capacity of zero or less falls back to DefaultCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{
		entries: make([]*Entry, 0, capacity),
		cap:     capacity,
	}
}

// Log records an entry, assigning an ID and timestamp when unset.
func (s *MemoryStore) Log(entry *Entry) {
	if entry == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.Body = truncateBody(entry.Body, maxBodySize)

	if len(s.entries) >= s.cap {
		s.entries = s.entries[1:]
	}
	s.entries = append(s.entries, entry)
}

// Get retrieves an entry by ID.
func (s *MemoryStore) Get(id string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// List returns entries newest first, optionally filtered.
func (s *MemoryStore) List(filter *Filter) []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if filter != nil && !filter.matches(e) {
			continue
		}
		result = append(result, e)
	}

	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(result) {
				return []*Entry{}
			}
			result = result[filter.Offset:]
		}
		if filter.Limit > 0 && filter.Limit < len(result) {
			result = result[:filter.Limit]
		}
	}
	return result
}

// Clear removes all entries.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]*Entry, 0, s.cap)
}

// Count returns the number of stored entries.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
