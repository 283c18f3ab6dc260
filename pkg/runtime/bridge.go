package runtime

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rebrowser/syncgen/pkg/errors"
	"github.com/rebrowser/syncgen/pkg/logger"
)

// ErrReentrantCall is returned when a blocking call is made from the loop
// goroutine, which would deadlock waiting on itself.
var ErrReentrantCall = errors.New("blocking call from the event loop goroutine")

// BridgeFailure carries a failure raised on the event loop back to the
// blocking caller. Its message is the cause's message and errors.Is/As reach
// the cause, so the original kind is preserved.
type BridgeFailure struct {
	CallID string
	Cause  error
}

func (e *BridgeFailure) Error() string { return e.Cause.Error() }

func (e *BridgeFailure) Unwrap() error { return e.Cause }

func (e *BridgeFailure) Is(target error) bool { return target == errors.ErrBridgeFailure }

// callResult is what the loop hands back to the waiting caller.
type callResult struct {
	value any
	err   error
}

// pendingCall is one blocking invocation in flight.
type pendingCall struct {
	id     string
	result chan callResult // buffered, written once
}

func (c *pendingCall) deliver(value any, err error) {
	select {
	case c.result <- callResult{value: value, err: err}:
	default:
	}
}

// Bridge lets blocking callers run coroutines on a dedicated event loop.
// Any number of goroutines may call through one bridge; each waits on its
// own pendingCall and never touches loop state directly.
type Bridge struct {
	loop     *Loop
	inflight atomic.Int64
	log      *zap.SugaredLogger
}

// NewBridge returns a bridge with its own loop. The loop goroutine starts on
// the first call.
func NewBridge() *Bridge {
	return &Bridge{loop: NewLoop(), log: logger.Named("bridge")}
}

// Loop returns the event loop the bridge drives.
func (b *Bridge) Loop() *Loop { return b.loop }

// Inflight returns the number of calls currently waiting.
func (b *Bridge) Inflight() int64 { return b.inflight.Load() }

// Close shuts the loop down. Calls already queued still run.
func (b *Bridge) Close() error {
	return b.loop.Close()
}

// Call schedules co on the bridge's loop and blocks until it settles or ctx
// is done. A ctx that ends first only abandons the wait; the coroutine keeps
// running unless the implementation cancels it.
func Call[T any](ctx context.Context, b *Bridge, co Coroutine[T]) (T, error) {
	var zero T
	if co == nil {
		return zero, errors.AssertionFailedf("nil coroutine")
	}
	if b.loop.InLoop() {
		return zero, ErrReentrantCall
	}

	call := &pendingCall{
		id:     uuid.NewString(),
		result: make(chan callResult, 1),
	}

	b.inflight.Add(1)
	defer b.inflight.Add(-1)

	err := b.loop.Post(func() {
		defer func() {
			if r := recover(); r != nil {
				call.deliver(nil, panicError(r))
			}
		}()
		fut := co(b.loop)
		if fut == nil {
			call.deliver(nil, errors.New("coroutine returned no future"))
			return
		}
		fut.Then(func(v T, err error) {
			call.deliver(v, err)
		})
	})
	if err != nil {
		return zero, err
	}

	select {
	case r := <-call.result:
		if r.err != nil {
			b.log.Debugw("call failed", logger.FieldCallID, call.id, logger.FieldError, r.err)
			return zero, errors.WithStack(&BridgeFailure{CallID: call.id, Cause: r.err})
		}
		if r.value == nil {
			return zero, nil
		}
		return r.value.(T), nil
	case <-ctx.Done():
		b.log.Debugw("call abandoned", logger.FieldCallID, call.id, logger.FieldReason, ctx.Err())
		return zero, ctx.Err()
	}
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return errors.Wrap(err, "panic on event loop")
	}
	return errors.Newf("panic on event loop: %s", fmt.Sprint(r))
}
