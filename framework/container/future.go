package container

import (
	"context"
	"sync"
)

// Future is a value that may still be pending. It settles exactly once.
type Future struct {
	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a Future already settled with v.
func Resolved(v any) *Future {
	f := newFuture()
	f.settle(v, nil)
	return f
}

// Rejected returns a Future already settled with err.
func Rejected(err error) *Future {
	f := newFuture()
	f.settle(nil, err)
	return f
}

// Go runs fn in a goroutine and returns a Future for its result.
func Go(fn func() (any, error)) *Future {
	f := newFuture()
	go func() {
		f.settle(fn())
	}()
	return f
}

func (f *Future) settle(v any, err error) {
	f.once.Do(func() {
		f.value, f.err = v, err
		close(f.done)
	})
}

// Done is closed once the Future settles.
func (f *Future) Done() <-chan struct{} { return f.done }

// Settled reports whether the Future has a result.
func (f *Future) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the Future settles or ctx is done.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
