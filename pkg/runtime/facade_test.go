package runtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebrowser/syncgen/pkg/errors"
)

func TestFacadeRoundTrip(t *testing.T) {
	_, foo := testSession(t)

	baz, err := foo.Bar(5)
	require.NoError(t, err)
	require.NotNil(t, baz)
	assert.Equal(t, 5, baz.N())

	again, err := foo.Bar(5)
	require.NoError(t, err)
	assert.Same(t, baz, again, "one implementation object, one façade")

	assert.Same(t, baz, foo.Same(baz))
	assert.Nil(t, foo.Same(nil))
}

func TestFacadeFailure(t *testing.T) {
	_, foo := testSession(t)

	err := foo.Fail()
	require.Error(t, err)
	assert.Equal(t, "target closed", err.Error())
	assert.True(t, errors.Is(err, errTargetClosed))
	assert.True(t, errors.Is(err, errors.ErrBridgeFailure))
}

func TestFacadeSessionContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, foo := testSession(t, WithContext(ctx))

	_, err := foo.Bar(1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFacadeConcurrentCallers(t *testing.T) {
	_, foo := testSession(t)

	var wg sync.WaitGroup
	for i := 1; i <= 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			baz, err := foo.Bar(n)
			if assert.NoError(t, err) {
				assert.Equal(t, n, baz.N())
			}
		}(i)
	}
	wg.Wait()
}

func TestEventContextManager(t *testing.T) {
	_, foo := testSession(t)

	wait := foo.ExpectBaz()
	require.NoError(t, wait.Err())

	baz, err := wait.Use(func() error { return foo.Emit(9) })
	require.NoError(t, err)
	assert.Equal(t, 9, baz.N())

	direct, err := foo.Bar(9)
	require.NoError(t, err)
	assert.Same(t, direct, baz)

	select {
	case <-wait.Done():
	default:
		t.Fatal("Done not closed after the event fired")
	}
}

func TestEventContextManagerCancel(t *testing.T) {
	_, foo := testSession(t)

	wait := foo.ExpectBaz()
	wait.Cancel()

	_, err := wait.Value()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCancelled))

	// An event after cancellation does not reach the handle.
	require.NoError(t, foo.Emit(1))
}

func TestEventContextManagerCancelAfterSessionClose(t *testing.T) {
	s, foo := testSession(t)

	wait := foo.ExpectBaz()
	require.NoError(t, wait.Err())
	require.NoError(t, s.Close())

	wait.Cancel()

	got := make(chan error, 1)
	go func() {
		_, err := wait.Value()
		got <- err
	}()
	select {
	case err := <-got:
		assert.True(t, errors.Is(err, ErrCancelled), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("Value blocked after cancelling on a closed session")
	}
}

func TestEventContextManagerTriggerFailure(t *testing.T) {
	_, foo := testSession(t)

	wait := foo.ExpectBaz()
	_, err := wait.Use(foo.Fail)
	assert.True(t, errors.Is(err, errTargetClosed))

	select {
	case <-wait.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("failed trigger did not cancel the wait")
	}
}

func TestEventContextManagerWaitTimeout(t *testing.T) {
	_, foo := testSession(t)

	wait := foo.ExpectBaz()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := wait.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Still listening.
	require.NoError(t, foo.Emit(2))
	baz, err := wait.Value()
	require.NoError(t, err)
	assert.Equal(t, 2, baz.N())
}

func TestExpectWithoutPending(t *testing.T) {
	_, foo := testSession(t)

	wait := Expect[*Baz](foo, (*Future[*bazImpl])(nil))
	assert.Error(t, wait.Err())
	_, err := wait.Value()
	assert.Error(t, err)
}

func TestSyncContextManagerUse(t *testing.T) {
	_, foo := testSession(t)

	require.NoError(t, foo.Use(func() error {
		_, err := foo.Bar(1)
		return err
	}))
	assert.True(t, foo.impl.disposed.Load())

	_, other := testSession(t)
	err := other.Use(func() error { return assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)
	assert.True(t, other.impl.disposed.Load(), "disposed even when the body fails")
}

func TestAssertionHelperMarking(t *testing.T) {
	tb := &countingTB{}
	s, _ := testSession(t, WithTB(tb))

	baz := s.Wrap(&bazImpl{n: 1}).(*Baz)
	assert.True(t, baz.CheckPositive())
	assert.Equal(t, int32(1), tb.helpers.Load())

	// Without a TB the marker is a no-op.
	plain := newBaz(SyncBase{}, &bazImpl{n: -1})
	assert.False(t, plain.CheckPositive())
}

func TestUnwrapAndValueOr(t *testing.T) {
	s, foo := testSession(t)

	impl := &bazImpl{n: 4}
	baz := s.Wrap(impl).(*Baz)
	assert.Same(t, impl, Unwrap[*bazImpl](baz))
	assert.Equal(t, []*bazImpl{impl}, UnwrapSlice[*bazImpl]([]*Baz{baz}))
	assert.Same(t, impl, UnwrapAny(baz))
	assert.Equal(t, "x", UnwrapAny("x"))
	assert.Panics(t, func() { Unwrap[*bazImpl](foo) })

	n := 3
	assert.Equal(t, 3, ValueOr(&n, 10))
	assert.Equal(t, 10, ValueOr(nil, 10))

	assert.Equal(t, []*Baz{baz}, WrapSlice[*Baz](foo, []*bazImpl{impl}))
	assert.Equal(t, map[string]*Baz{"k": baz}, WrapMap[*Baz](foo, map[string]*bazImpl{"k": impl}))
	assert.Nil(t, WrapSlice[*Baz, *bazImpl](foo, nil))
}
