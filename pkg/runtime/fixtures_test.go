package runtime

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// The fixtures below are a hand-written miniature of a generated façade
// package: two implementation types living on the loop and their façades.

type bazImpl struct{ n int }

type fooImpl struct {
	loop     *Loop
	bazes    map[int]*bazImpl    // loop-owned
	waiters  []*Future[*bazImpl] // loop-owned
	disposed atomic.Bool
}

func newFooImpl(l *Loop) *fooImpl {
	return &fooImpl{loop: l, bazes: make(map[int]*bazImpl)}
}

func (o *fooImpl) baz(n int) *bazImpl {
	b, ok := o.bazes[n]
	if !ok {
		b = &bazImpl{n: n}
		o.bazes[n] = b
	}
	return b
}

func (o *fooImpl) Bar(x int) Coroutine[*bazImpl] {
	return func(l *Loop) *Future[*bazImpl] {
		f := NewFuture[*bazImpl](l)
		go func() {
			time.Sleep(time.Millisecond)
			_ = l.Post(func() { f.Resolve(o.baz(x)) })
		}()
		return f
	}
}

func (o *fooImpl) Fail() Coroutine[Void] {
	return func(l *Loop) *Future[Void] { return Rejected[Void](l, errTargetClosed) }
}

func (o *fooImpl) ExpectBaz() Coroutine[*Future[*bazImpl]] {
	return func(l *Loop) *Future[*Future[*bazImpl]] {
		w := NewFuture[*bazImpl](l)
		o.waiters = append(o.waiters, w)
		return Resolved(l, w)
	}
}

func (o *fooImpl) Emit(n int) Coroutine[Void] {
	return func(l *Loop) *Future[Void] {
		for _, w := range o.waiters {
			w.Resolve(o.baz(n))
		}
		o.waiters = nil
		return Resolved(l, Void{})
	}
}

func (o *fooImpl) Dispose() Coroutine[Void] {
	return func(l *Loop) *Future[Void] {
		o.disposed.Store(true)
		return Resolved(l, Void{})
	}
}

type Foo struct {
	SyncContextManager
	impl *fooImpl
}

func newFoo(b SyncBase, o *fooImpl) *Foo {
	return &Foo{SyncContextManager: NewSyncContextManager(b), impl: o}
}

func (x *Foo) Bar(n int) (*Baz, error) {
	v, err := Run(x, x.impl.Bar(n))
	if err != nil {
		return nil, err
	}
	return Wrap[*Baz](x, v), nil
}

func (x *Foo) Fail() error {
	return RunVoid(x, x.impl.Fail())
}

func (x *Foo) ExpectBaz() *EventContextManager[*Baz] {
	return ExpectAsync[*Baz](x, x.impl.ExpectBaz())
}

func (x *Foo) Emit(n int) error {
	return RunVoid(x, x.impl.Emit(n))
}

func (x *Foo) Same(b *Baz) *Baz {
	return Wrap[*Baz](x, Unwrap[*bazImpl](b))
}

type Baz struct {
	SyncBase
	impl *bazImpl
}

func newBaz(b SyncBase, o *bazImpl) *Baz {
	return &Baz{SyncBase: b, impl: o}
}

func (x *Baz) N() int { return x.impl.n }

// CheckPositive is shaped like a generated assertion method.
func (x *Baz) CheckPositive() bool {
	x.TB().Helper()
	return x.impl.n > 0
}

func bindFoo(r *Registry) error { return Register(r, newFoo) }
func bindBaz(r *Registry) error { return Register(r, newBaz) }

type countingTB struct{ helpers atomic.Int32 }

func (c *countingTB) Helper() { c.helpers.Add(1) }

// testSession returns a session with Foo and Baz bound and the root Foo
// façade.
func testSession(t *testing.T, opts ...Option) (*Session, *Foo) {
	t.Helper()
	s, err := NewSession([]Binder{bindFoo, bindBaz}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	foo, ok := s.Wrap(newFooImpl(s.Loop())).(*Foo)
	require.True(t, ok)
	return s, foo
}
