package runtime

import (
	"github.com/rebrowser/syncgen/pkg/errors"
)

// The helpers below are what generated façade methods call.

// Run blocks on co through the session bridge of f.
func Run[T any](f Facade, co Coroutine[T]) (T, error) {
	s := f.SyncSession()
	return Call(s.ctx, s.bridge, co)
}

// RunVoid is Run for coroutines whose value is discarded.
func RunVoid[T any](f Facade, co Coroutine[T]) error {
	_, err := Run(f, co)
	return err
}

// Await blocks until a pending value returned by a synchronous
// implementation call settles.
func Await[T any](f Facade, fut *Future[T]) (T, error) {
	if fut == nil {
		var zero T
		return zero, errors.AssertionFailedf("await of nil future")
	}
	return Run(f, func(*Loop) *Future[T] { return fut })
}

// Wrap returns the façade of type F for an implementation value.
func Wrap[F any](f Facade, v any) F {
	var zero F
	w := f.SyncSession().Wrap(v)
	if w == nil {
		return zero
	}
	out, ok := w.(F)
	if !ok {
		panic(errors.AssertionFailedf("wrapped %T is %T, not %T", v, w, zero))
	}
	return out
}

// WrapSlice wraps each element of vs.
func WrapSlice[F, I any](f Facade, vs []I) []F {
	if vs == nil {
		return nil
	}
	out := make([]F, len(vs))
	for i, v := range vs {
		out[i] = Wrap[F](f, v)
	}
	return out
}

// WrapMap wraps each value of m.
func WrapMap[F any, K comparable, I any](f Facade, m map[K]I) map[K]F {
	if m == nil {
		return nil
	}
	out := make(map[K]F, len(m))
	for k, v := range m {
		out[k] = Wrap[F](f, v)
	}
	return out
}

// WrapAny wraps whatever registered values v holds.
func WrapAny(f Facade, v any) any {
	return f.SyncSession().Wrap(v)
}

// Unwrap returns the implementation instance behind a façade.
func Unwrap[I any](v Facade) I {
	var zero I
	if isNil(v) {
		return zero
	}
	out, ok := v.SyncTarget().(I)
	if !ok {
		panic(errors.AssertionFailedf("façade %T wraps %T, not %T", v, v.SyncTarget(), zero))
	}
	return out
}

// UnwrapSlice unwraps each element of vs.
func UnwrapSlice[I any, F Facade](vs []F) []I {
	if vs == nil {
		return nil
	}
	out := make([]I, len(vs))
	for i, v := range vs {
		out[i] = Unwrap[I](v)
	}
	return out
}

// UnwrapMap unwraps each value of m.
func UnwrapMap[I any, K comparable, F Facade](m map[K]F) map[K]I {
	if m == nil {
		return nil
	}
	out := make(map[K]I, len(m))
	for k, v := range m {
		out[k] = Unwrap[I](v)
	}
	return out
}

// UnwrapAny unwraps v if it is a façade and returns it unchanged otherwise.
func UnwrapAny(v any) any {
	if f, ok := v.(Facade); ok && !isNil(f) {
		return f.SyncTarget()
	}
	return v
}

// Deref returns *p, or the zero value when p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// ValueOr returns *p, or def when p is nil.
func ValueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// Expect returns a wait handle over a pending event the implementation has
// started listening for.
func Expect[T any](f Facade, pending Awaitable) *EventContextManager[T] {
	e := &EventContextManager[T]{owner: f, pending: pending}
	if isNil(pending) {
		e.err = errors.AssertionFailedf("event helper returned no pending value")
	}
	return e
}

// ExpectAsync is Expect for implementations that start listening
// asynchronously: the coroutine runs first and yields the pending event.
func ExpectAsync[T any, P Awaitable](f Facade, co Coroutine[P]) *EventContextManager[T] {
	pending, err := Run(f, co)
	if err != nil {
		return &EventContextManager[T]{owner: f, err: err}
	}
	return Expect[T](f, pending)
}
