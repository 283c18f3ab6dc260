package runtime

import (
	"reflect"

	"github.com/rebrowser/syncgen/pkg/errors"
)

// Facade is implemented by every generated façade through SyncBase.
type Facade interface {
	SyncSession() *Session
	SyncTarget() any
}

// SyncBase is the generic façade base: the session the façade belongs to and
// the implementation instance it wraps.
type SyncBase struct {
	session *Session
	target  any
}

// NewSyncBase returns a base for a façade over target.
func NewSyncBase(s *Session, target any) SyncBase {
	return SyncBase{session: s, target: target}
}

// SyncSession returns the owning session.
func (b SyncBase) SyncSession() *Session { return b.session }

// SyncTarget returns the wrapped implementation instance.
func (b SyncBase) SyncTarget() any { return b.target }

// TB returns the helper-marking hook of the session.
func (b SyncBase) TB() TB {
	if b.session == nil || b.session.tb == nil {
		return noopTB{}
	}
	return b.session.tb
}

// AsyncCloser is implemented by implementation objects whose façades can be
// scoped with SyncContextManager.Use.
type AsyncCloser interface {
	Dispose() Coroutine[Void]
}

// SyncContextManager is the base of façades over closable objects.
type SyncContextManager struct {
	SyncBase
}

// NewSyncContextManager returns a context-manager base over target.
func NewSyncContextManager(b SyncBase) SyncContextManager {
	return SyncContextManager{SyncBase: b}
}

// Use runs fn and then disposes of the wrapped object, returning the errors
// of both.
func (m SyncContextManager) Use(fn func() error) error {
	err := fn()
	closer, ok := m.target.(AsyncCloser)
	if !ok {
		return err
	}
	_, cerr := Call(m.session.ctx, m.session.bridge, closer.Dispose())
	return errors.CombineErrors(err, cerr)
}

// Same reports whether two façades wrap the same implementation instance.
func Same(a, b Facade) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	return a.SyncTarget() == b.SyncTarget()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		return rv.IsNil()
	}
	return false
}
