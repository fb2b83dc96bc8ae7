package async

import (
	"context"
	"errors"
	"sync"
)

// ErrNilMutex is returned by Do when called on a nil mutex.
var ErrNilMutex = errors.New("async: nil mutex")

// Mutex is a mutual-exclusion lock with strict FIFO hand-off. Contenders
// acquire in arrival order, and a release passes ownership directly to
// the oldest waiter; the lock never reads as free in between, so a late
// arrival can never jump the queue.
//
// Unlike sync.Mutex, releasing a free mutex is a harmless no-op and no
// check is made that the releasing goroutine is the current holder. The
// zero value is an unlocked mutex.
type Mutex struct {
	mu      sync.Mutex
	count   int // current holder plus queued waiters
	waiters []*Promise[struct{}]
}

// Acquire blocks until the caller holds the lock or ctx is done.
// Waiters are granted the lock strictly in the order they called
// Acquire.
func (m *Mutex) Acquire(ctx context.Context) error {
	m.mu.Lock()
	m.count++
	if m.count == 1 {
		m.mu.Unlock()
		return nil
	}
	w := NewPromise[struct{}]()
	m.waiters = append(m.waiters, w)
	m.mu.Unlock()

	if _, err := w.Wait(ctx); err != nil {
		m.mu.Lock()
		for i, o := range m.waiters {
			if o == w {
				m.waiters = append(m.waiters[:i], m.waiters[i+1:]...)
				m.count--
				m.mu.Unlock()
				return err
			}
		}
		m.mu.Unlock()
		// The grant raced the cancellation: the lock is ours, so give
		// it straight back and report the context error.
		<-w.Done()
		m.Release()
		return err
	}
	return nil
}

// Release decrements the hold count and, when waiters remain, wakes the
// oldest one as the new holder. Releasing an unheld mutex does nothing.
func (m *Mutex) Release() {
	m.mu.Lock()
	if m.count == 0 {
		m.mu.Unlock()
		return
	}
	m.count--
	if m.count > 0 {
		w := m.waiters[0]
		m.waiters = m.waiters[1:]
		m.mu.Unlock()
		w.Resolve(struct{}{})
		return
	}
	m.mu.Unlock()
}

// Do runs fn while holding the lock and releases on every return path,
// including when fn fails. A nil mutex fails fast with ErrNilMutex
// before anything is acquired.
func (m *Mutex) Do(ctx context.Context, fn func() error) error {
	if m == nil {
		return ErrNilMutex
	}
	if err := m.Acquire(ctx); err != nil {
		return err
	}
	defer m.Release()
	return fn()
}
