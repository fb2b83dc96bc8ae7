package async

import (
	"context"
	"sync"
)

// Promise is a one-shot completion handle. It starts pending and settles
// exactly once, with either a value or an error; later settle calls are
// ignored. Any number of goroutines may Wait on the same promise.
//
// Queue and Mutex enqueue promises as their waiter records, which is what
// makes their hand-off order exactly the order the waiters arrived.
type Promise[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// NewPromise returns a pending promise.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Resolved returns a promise already settled with v.
func Resolved[T any](v T) *Promise[T] {
	p := NewPromise[T]()
	p.Resolve(v)
	return p
}

// Rejected returns a promise already settled with err.
func Rejected[T any](err error) *Promise[T] {
	p := NewPromise[T]()
	p.Reject(err)
	return p
}

// Go runs fn in a new goroutine and returns a promise settled with its
// result, adapting ordinary (value, error) functions into promise shape.
func Go[T any](fn func() (T, error)) *Promise[T] {
	p := NewPromise[T]()
	go func() {
		v, err := fn()
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(v)
	}()
	return p
}

// FromCallback invokes start with a resolve function and returns a
// promise settled by the first call to it. It adapts callback APIs that
// report a single result and cannot fail.
func FromCallback[T any](start func(resolve func(T))) *Promise[T] {
	p := NewPromise[T]()
	start(p.Resolve)
	return p
}

// FromCallbackErr adapts error-first callback APIs: done(v, nil)
// resolves the promise, done(_, err) rejects it. Only the first call to
// done counts.
func FromCallbackErr[T any](start func(done func(T, error))) *Promise[T] {
	p := NewPromise[T]()
	start(func(v T, err error) {
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(v)
	})
	return p
}

// Resolve settles the promise with v. The first settle wins.
func (p *Promise[T]) Resolve(v T) {
	p.once.Do(func() {
		p.val = v
		close(p.done)
	})
}

// Reject settles the promise with err. The first settle wins.
func (p *Promise[T]) Reject(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// Wait blocks until the promise settles or ctx is done. If ctx wins the
// race its error is returned and the promise remains usable by other
// waiters.
func (p *Promise[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel that is closed once the promise settles.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Settled reports whether the promise has been resolved or rejected.
func (p *Promise[T]) Settled() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}
