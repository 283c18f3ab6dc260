package runtime

import (
	"context"

	"github.com/rebrowser/syncgen/pkg/errors"
)

// EventContextManager is the blocking handle returned by "wait for event"
// helpers. The implementation starts listening when the helper is called;
// the caller then triggers the event and collects its payload with Value:
//
//	popup := page.ExpectPopup()
//	page.Click("a[target=_blank]")
//	p, err := popup.Value()
type EventContextManager[T any] struct {
	owner   Facade
	pending Awaitable
	err     error
}

// Value waits for the event under the session context and returns its
// payload wrapped in its façade.
func (e *EventContextManager[T]) Value() (T, error) {
	return e.Wait(e.owner.SyncSession().ctx)
}

// Wait is Value with an explicit context. Giving up the wait does not stop
// listening; use Cancel for that.
func (e *EventContextManager[T]) Wait(ctx context.Context) (T, error) {
	var zero T
	if e.err != nil {
		return zero, e.err
	}
	select {
	case <-e.pending.Done():
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	v, err := e.pending.ResultAny()
	if err != nil {
		return zero, errors.WithStack(&BridgeFailure{Cause: err})
	}
	return Wrap[T](e.owner, v), nil
}

// Use runs fn, which is expected to trigger the event, and then waits for
// the payload.
func (e *EventContextManager[T]) Use(fn func() error) (T, error) {
	if err := fn(); err != nil {
		e.Cancel()
		var zero T
		return zero, err
	}
	return e.Value()
}

// Cancel stops waiting for the event. A later Value returns ErrCancelled
// unless the event had already fired.
func (e *EventContextManager[T]) Cancel() {
	if e.pending != nil {
		e.pending.Cancel()
	}
}

// Done is closed once the event fired or the wait was cancelled.
func (e *EventContextManager[T]) Done() <-chan struct{} {
	if e.pending == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return e.pending.Done()
}

// Err returns the error raised while starting to listen, if any.
func (e *EventContextManager[T]) Err() error { return e.err }
