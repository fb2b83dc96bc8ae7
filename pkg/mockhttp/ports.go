package mockhttp

import "sync"

// defaultBasePort is where automatic port selection starts.
const defaultBasePort = 4280

// PortCounter hands out candidate listen ports for automatic port
// selection. Servers drawing from the same counter never race for the
// same port, even when started in parallel.
type PortCounter struct {
	mu   sync.Mutex
	base int
	next int
}

// NewPortCounter creates a counter starting at base.
func NewPortCounter(base int) *PortCounter {
	return &PortCounter{base: base, next: base}
}

// Next returns the next candidate port.
func (c *PortCounter) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.next
	c.next++
	return p
}

// Reset winds the counter back to its base port. Intended for test
// setup, so runs start from a predictable port.
func (c *PortCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = c.base
}

// SharedPortCounter is used when no WithPortCounter option is given.
// All servers in the process draw from it by default.
var SharedPortCounter = NewPortCounter(defaultBasePort)
