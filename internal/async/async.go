// Package async runs one fetch off the caller's goroutine and reports the
// outcome through callbacks.
package async

import "context"

type Result[T any] struct {
	Data T
	Err  error
}

// Callbacks are optional. OnSuccess and OnError are skipped once the
// context is done, so a torn-down view never sees a late result; OnFinally
// always runs.
type Callbacks[T any] struct {
	OnSuccess func(T)
	OnError   func(error)
	OnFinally func()
}

// Run calls fn in a new goroutine. The returned channel yields exactly one
// Result and is then closed. There is no retry and no caching.
func Run[T any](ctx context.Context, fn func(context.Context) (T, error), cb Callbacks[T]) <-chan Result[T] {
	out := make(chan Result[T], 1)
	go func() {
		defer close(out)
		if cb.OnFinally != nil {
			defer cb.OnFinally()
		}

		data, err := fn(ctx)
		out <- Result[T]{Data: data, Err: err}
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if cb.OnError != nil {
				cb.OnError(err)
			}
			return
		}
		if cb.OnSuccess != nil {
			cb.OnSuccess(data)
		}
	}()
	return out
}

// Wait blocks until the result arrives.
func Wait[T any](results <-chan Result[T]) (T, error) {
	result := <-results
	return result.Data, result.Err
}
