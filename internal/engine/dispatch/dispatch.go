// Package dispatch marshals plugin run tasks onto the host's designated
// execution goroutine.
//
// Script loading may happen on any background worker, but the run phase of
// every plugin must execute on a single goroutine chosen by the host (a UI
// loop, an interpreter owner, or in the CLI simply main). Func is the
// contract the engine sees; Serial is the host-side implementation.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned when dispatching to a dispatcher that has stopped.
var ErrClosed = errors.New("dispatcher is closed")

// Func runs task on the host's designated goroutine and blocks the caller
// until the task completes. The returned error is the task's own error, a
// recovered panic, or a dispatch failure such as ErrClosed. This is a
// synchronous handoff, never fire-and-forget.
type Func func(task func() error) error

type call struct {
	fn     func() error
	result chan error
}

// Serial executes dispatched tasks one at a time on the goroutine that
// calls Run. Tasks queued while one is executing wait their turn; ordering
// follows the queue discipline of the single channel.
type Serial struct {
	queue     chan *call
	done      chan struct{}
	stopped   chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewSerial creates a dispatcher with the given queue capacity.
func NewSerial(queueSize int) *Serial {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &Serial{
		queue:   make(chan *call, queueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Run processes tasks until the context is cancelled or Close is called.
// It must be called exactly once, on the designated goroutine: every
// dispatched task runs on the goroutine executing Run.
func (s *Serial) Run(ctx context.Context) {
	defer close(s.stopped)
	for {
		select {
		case <-ctx.Done():
			s.drain(ctx.Err())
			return
		case <-s.done:
			s.drain(ErrClosed)
			return
		case c := <-s.queue:
			err := runTask(c.fn)
			select {
			case c.result <- err:
			default:
			}
			close(c.result)
		}
	}
}

// runTask executes one task with panic recovery.
func runTask(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case error:
				err = v
			default:
				err = fmt.Errorf("panic in dispatched task: %v", v)
			}
		}
	}()
	return fn()
}

// drain fails every queued call with err.
func (s *Serial) drain(err error) {
	for {
		select {
		case c := <-s.queue:
			select {
			case c.result <- err:
			default:
			}
			close(c.result)
		default:
			return
		}
	}
}

// Dispatch queues task and blocks until it has run on the designated
// goroutine. Dispatch satisfies Func.
func (s *Serial) Dispatch(task func() error) error {
	if s.closed.Load() {
		return ErrClosed
	}

	c := &call{fn: task, result: make(chan error, 1)}
	select {
	case <-s.done:
		return ErrClosed
	case s.queue <- c:
	}

	select {
	case err, ok := <-c.result:
		if !ok {
			return ErrClosed
		}
		return err
	case <-s.stopped:
		// Run has exited. The final drain answered every call it saw;
		// one enqueued after the drain is abandoned.
		select {
		case err, ok := <-c.result:
			if !ok {
				return ErrClosed
			}
			return err
		default:
			return ErrClosed
		}
	}
}

// Close stops the dispatcher. Tasks still queued when Run observes the
// close fail with ErrClosed.
func (s *Serial) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
	})
}
