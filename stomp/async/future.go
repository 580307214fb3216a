// Package async realizes the "cooperative task model" side of the
// concurrency capability described in spec §4.1/§9: the same *stomp.Conn
// engine, but every public call returns immediately with a Future instead
// of blocking the caller. A single worker goroutine per connection
// executes submitted operations strictly in submission order, which is
// what keeps spec §5's "all frame writes are in call order" guarantee and
// the single-outstanding-operation contract intact without any locking
// inside the engine itself.
package async

import (
	"context"

	"github.com/nsheridan/gostomp/stomp"
)

// Future is a deferred value: the result of an operation that may still
// be running on the connection's worker goroutine.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(val T, err error) {
	f.val = val
	f.err = err
	close(f.done)
}

// Get blocks until the operation completes and returns its result.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.val, f.err
}

// Wait blocks until the operation completes or ctx is cancelled, whichever
// comes first. On cancellation it returns ctx.Err(); the underlying
// operation is not cancelled (the transport capability has no
// cancellation primitive, spec §5), it simply keeps running in the
// background.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done reports whether the future has resolved, without blocking.
func (f *Future[T]) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// task is a unit of work submitted to a Conn's worker goroutine.
type task func()

// Conn wraps a *stomp.Conn so that every verb returns a Future instead of
// blocking. All submitted operations are executed by one worker goroutine,
// one at a time, in the order they were submitted.
type Conn struct {
	inner *stomp.Conn
	work  chan task
}

// Wrap starts a worker goroutine over inner and returns a cooperative-style
// Conn. Closing the returned Conn (via Disconnect) stops the worker once
// its queue drains.
func Wrap(inner *stomp.Conn) *Conn {
	c := &Conn{inner: inner, work: make(chan task, 64)}
	go c.run()
	return c
}

func (c *Conn) run() {
	for t := range c.work {
		t()
	}
}

func submit[T any](c *Conn, fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	c.work <- func() {
		val, err := fn()
		f.resolve(val, err)
	}
	return f
}

// Send submits a SEND and returns a Future for its completion.
func (c *Conn) Send(destination string, headers stomp.Headers, body []byte, opts stomp.SendOptions) *Future[struct{}] {
	return submit(c, func() (struct{}, error) {
		return struct{}{}, c.inner.Send(destination, headers, body, opts)
	})
}

// Subscribe submits a SUBSCRIBE and returns a Future for its completion.
func (c *Conn) Subscribe(destination string, headers stomp.Headers) *Future[struct{}] {
	return submit(c, func() (struct{}, error) {
		return struct{}{}, c.inner.Subscribe(destination, headers)
	})
}

// Unsubscribe submits an UNSUBSCRIBE and returns a Future for its completion.
func (c *Conn) Unsubscribe(headers stomp.Headers) *Future[struct{}] {
	return submit(c, func() (struct{}, error) {
		return struct{}{}, c.inner.Unsubscribe(headers)
	})
}

// AckMsg submits an ACK and returns a Future for its completion.
func (c *Conn) AckMsg(headers stomp.Headers) *Future[struct{}] {
	return submit(c, func() (struct{}, error) {
		return struct{}{}, c.inner.AckMsg(headers)
	})
}

// ReceiveMsg submits a receive and returns a Future for the next Message.
func (c *Conn) ReceiveMsg() *Future[stomp.Message] {
	return submit(c, c.inner.ReceiveMsg)
}

// BeginTransaction submits a BEGIN and returns a Future for the new
// transaction id.
func (c *Conn) BeginTransaction() *Future[string] {
	return submit(c, c.inner.BeginTransaction)
}

// CommitTransaction submits a COMMIT and returns a Future for its completion.
func (c *Conn) CommitTransaction(id string) *Future[struct{}] {
	return submit(c, func() (struct{}, error) {
		return struct{}{}, c.inner.CommitTransaction(id)
	})
}

// AbortTransaction submits an ABORT and returns a Future for its completion.
func (c *Conn) AbortTransaction(id string) *Future[struct{}] {
	return submit(c, func() (struct{}, error) {
		return struct{}{}, c.inner.AbortTransaction(id)
	})
}

// Disconnect submits a DISCONNECT, waits for it to finish, and stops the
// worker goroutine. Unlike the other verbs this blocks the caller: there
// is no use for a Future on the very call that tears down the queue it
// would run on.
func (c *Conn) Disconnect() error {
	done := make(chan error, 1)
	c.work <- func() {
		done <- c.inner.Disconnect()
	}
	err := <-done
	close(c.work)
	return err
}
