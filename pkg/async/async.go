package async

import (
	"context"
	"time"
)

// Future represents the eventual result of an asynchronous operation.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Await blocks until the operation completes and returns its result.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitWithTimeout blocks until the operation completes or the timeout
// elapses, in which case it returns ErrTimeout. The underlying goroutine
// keeps running; cancel its context to stop it.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-time.After(timeout):
		var zero U
		return zero, ErrTimeout
	}
}

// IsComplete reports whether the operation has finished without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Run executes fn in a new goroutine and returns a Future for its result.
// A context already canceled at call time short-circuits without starting
// the goroutine.
func Run[T, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	if err := ctx.Err(); err != nil {
		f.err = err
		close(f.done)
		return f
	}

	go func() {
		defer close(f.done)
		f.result, f.err = fn(ctx, param)
	}()
	return f
}

// CollectAll waits for every future and returns results and errors in
// call order. It never fails fast: each slot is populated even when
// siblings error.
func CollectAll[U any](futures ...*Future[U]) ([]U, []error) {
	results := make([]U, len(futures))
	errs := make([]error, len(futures))
	for i, f := range futures {
		results[i], errs[i] = f.Await()
	}
	return results, errs
}
