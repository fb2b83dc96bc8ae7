// Package async provides the blocking primitives the toolkit is built
// on: an unbounded FIFO queue with direct waiter hand-off, a mutex with
// strict FIFO ownership transfer, and the one-shot Promise both use as
// their waiter record.
//
// Every blocking operation takes a context.Context. Cancellation
// withdraws the caller cleanly: queued items are never lost and lock
// state is never corrupted by an abandoned wait.
package async
