package runtime

import (
	"context"

	"github.com/rebrowser/syncgen/pkg/errors"
)

// ErrCancelled settles a future whose waiter gave up on it.
var ErrCancelled = errors.New("cancelled")

// Void is the value type of coroutines that produce nothing.
type Void = struct{}

// Coroutine is one asynchronous unit of work of the implementation. It is
// invoked on the loop goroutine, starts its work and returns the future that
// settles with the outcome.
type Coroutine[T any] func(l *Loop) *Future[T]

// Awaitable is the type-erased view of a Future that wait handles hold.
type Awaitable interface {
	Done() <-chan struct{}
	ResultAny() (any, error)
	Cancel()
}

// Future is a one-shot result cell owned by a Loop. It is settled, and its
// callbacks run, only on the loop goroutine; Done, Result and Wait are safe
// from any goroutine.
type Future[T any] struct {
	loop      *Loop
	settled   bool
	value     T
	err       error
	callbacks []func(T, error)
	done      chan struct{}
}

// NewFuture returns an unsettled future bound to l.
func NewFuture[T any](l *Loop) *Future[T] {
	return &Future[T]{loop: l, done: make(chan struct{})}
}

// Resolved returns a future already settled with v. Loop goroutine only.
func Resolved[T any](l *Loop, v T) *Future[T] {
	f := NewFuture[T](l)
	f.Resolve(v)
	return f
}

// Rejected returns a future already settled with err. Loop goroutine only.
func Rejected[T any](l *Loop, err error) *Future[T] {
	f := NewFuture[T](l)
	f.Reject(err)
	return f
}

// Loop returns the loop that owns the future.
func (f *Future[T]) Loop() *Loop { return f.loop }

// Resolve settles the future with v. Returns false if it was already settled.
func (f *Future[T]) Resolve(v T) bool {
	return f.settle(v, nil)
}

// Reject settles the future with err.
func (f *Future[T]) Reject(err error) bool {
	var zero T
	if err == nil {
		err = errors.New("future rejected with nil error")
	}
	return f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err error) bool {
	f.loop.mustOwn("Future.settle")
	return f.complete(v, err, true)
}

// complete records the outcome. Callbacks only run while the loop is alive.
func (f *Future[T]) complete(v T, err error, runCallbacks bool) bool {
	if f.settled {
		return false
	}
	f.settled = true
	f.value, f.err = v, err
	close(f.done)

	callbacks := f.callbacks
	f.callbacks = nil
	if !runCallbacks {
		return true
	}
	for _, cb := range callbacks {
		cb(v, err)
	}
	return true
}

// Then registers cb to run on the loop once the future settles. If it has
// already settled, cb runs immediately. Loop goroutine only.
func (f *Future[T]) Then(cb func(T, error)) {
	f.loop.mustOwn("Future.Then")
	if f.settled {
		cb(f.value, f.err)
		return
	}
	f.callbacks = append(f.callbacks, cb)
}

// Cancel rejects the future with ErrCancelled. Any goroutine may call it;
// the rejection is applied on the loop. It does not stop the work that
// would have settled the future. Once the loop has closed the future is
// rejected directly and its callbacks are dropped, since nothing is left to
// run them.
func (f *Future[T]) Cancel() {
	if f.loop.InLoop() {
		f.Reject(ErrCancelled)
		return
	}
	err := f.loop.Post(func() { f.Reject(ErrCancelled) })
	if err == nil {
		return
	}
	var zero T
	f.loop.afterStop(func() { f.complete(zero, ErrCancelled, false) })
}

// Done is closed when the future settles.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Result returns the outcome. It must only be called after Done is closed.
func (f *Future[T]) Result() (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
		var zero T
		return zero, errors.AssertionFailedf("Future.Result called before the future settled")
	}
}

// ResultAny is Result with the value boxed.
func (f *Future[T]) ResultAny() (any, error) {
	v, err := f.Result()
	return v, err
}

// Wait blocks until the future settles or ctx is done. It must not be called
// on the loop goroutine, which is the only one able to settle the future.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	if f.loop.InLoop() {
		var zero T
		return zero, errors.AssertionFailedf("Future.Wait would block the event loop")
	}
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Map returns a future settled with fn applied to f's value. fn runs on the
// loop. Errors pass through.
func Map[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	out := NewFuture[U](f.loop)
	f.Then(func(v T, err error) {
		if err != nil {
			out.Reject(err)
			return
		}
		u, err := fn(v)
		if err != nil {
			out.Reject(err)
			return
		}
		out.Resolve(u)
	})
	return out
}

// Chain returns a future that follows the future fn returns for f's value.
func Chain[T, U any](f *Future[T], fn func(T) *Future[U]) *Future[U] {
	out := NewFuture[U](f.loop)
	f.Then(func(v T, err error) {
		if err != nil {
			out.Reject(err)
			return
		}
		next := fn(v)
		if next == nil {
			out.Reject(errors.New("chained coroutine returned no future"))
			return
		}
		next.Then(func(u U, err error) {
			if err != nil {
				out.Reject(err)
				return
			}
			out.Resolve(u)
		})
	})
	return out
}
