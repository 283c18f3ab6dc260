package runtime

import (
	"reflect"
	goruntime "runtime"
	"sort"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/rebrowser/syncgen/pkg/errors"
)

// Factory builds the façade for one implementation instance.
type Factory func(base SyncBase, impl any) any

// Entry is one implementation-to-façade binding.
type Entry struct {
	Impl    reflect.Type
	Facade  reflect.Type
	factory Factory

	key  func(impl any) any                // weak.Pointer to the instance
	hold func(facade, key any) func() any // weak handle on a built façade
}

// Registry maps implementation types to their façade types and caches the
// façade built for each implementation instance. Bindings are added while
// the session is set up and are read-only once Seal is called; after that,
// lookups take no lock.
//
// The cache holds neither side strongly: an entry lives as long as its
// façade is reachable, and is evicted once the façade is collected.
type Registry struct {
	mu       sync.RWMutex
	bindings map[reflect.Type]*Entry
	sealed   atomic.Bool

	cache   map[any]func() any // weak instance -> weak façade
	cacheMu sync.Mutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[reflect.Type]*Entry),
		cache:    make(map[any]func() any),
	}
}

// Register binds implementation type *T to the façade produced by factory.
// A second binding for the same type is a DuplicateRegistrationError.
func Register[T, F any](r *Registry, factory func(SyncBase, *T) *F) error {
	return r.add(&Entry{
		Impl:   reflect.TypeFor[*T](),
		Facade: reflect.TypeFor[*F](),
		factory: func(b SyncBase, v any) any {
			return factory(b, v.(*T))
		},
		key: func(v any) any {
			return weak.Make(v.(*T))
		},
		hold: func(f, key any) func() any {
			p := f.(*F)
			if p == nil {
				return func() any { return nil }
			}
			w := weak.Make(p)
			goruntime.AddCleanup(p, r.evict, key)
			return func() any {
				if p := w.Value(); p != nil {
					return p
				}
				return nil
			}
		},
	})
}

// MustRegister is Register that panics on error.
func MustRegister[T, F any](r *Registry, factory func(SyncBase, *T) *F) {
	if err := Register(r, factory); err != nil {
		panic(err)
	}
}

func (r *Registry) add(e *Entry) error {
	if r.sealed.Load() {
		return errors.AssertionFailedf("registering %s after the registry was sealed", e.Impl)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.bindings[e.Impl]; ok {
		return errors.WithStack(&errors.DuplicateRegistrationError{
			Impl:     e.Impl.String(),
			Existing: existing.Facade.String(),
			Facade:   e.Facade.String(),
		})
	}
	r.bindings[e.Impl] = e
	return nil
}

// Seal ends the registration phase.
func (r *Registry) Seal() {
	r.sealed.Store(true)
}

// Lookup returns the binding for an implementation type.
func (r *Registry) Lookup(t reflect.Type) (*Entry, bool) {
	if r.sealed.Load() {
		e, ok := r.bindings[t]
		return e, ok
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.bindings[t]
	return e, ok
}

// Entries returns all bindings sorted by implementation type name.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.bindings))
	for _, e := range r.bindings {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Impl.String() < out[j].Impl.String()
	})
	return out
}

// Len returns the number of bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// Wrap returns the façade for v when v's type is registered, wraps slices,
// arrays and maps of registered values element by element, and returns
// anything else unchanged. Wrapping the same instance twice returns the same
// façade.
func (r *Registry) Wrap(s *Session, v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if w, ok := r.wrapValue(s, rv); ok {
		return w.Interface()
	}
	return v
}

// wrapValue reports false when rv holds nothing that needs wrapping.
func (r *Registry) wrapValue(s *Session, rv reflect.Value) (reflect.Value, bool) {
	if !rv.IsValid() {
		return rv, false
	}
	if e, ok := r.Lookup(rv.Type()); ok {
		return r.instance(s, e, rv), true
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return rv, false
		}
		return r.wrapValue(s, rv.Elem())

	case reflect.Slice, reflect.Array:
		elemType, ok := r.wrappedType(rv.Type().Elem())
		if !ok {
			return rv, false
		}
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return reflect.Zero(reflect.SliceOf(elemType)), true
		}
		out := reflect.MakeSlice(reflect.SliceOf(elemType), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(r.wrapElem(s, rv.Index(i), elemType))
		}
		return out, true

	case reflect.Map:
		valueType, ok := r.wrappedType(rv.Type().Elem())
		if !ok {
			return rv, false
		}
		mapType := reflect.MapOf(rv.Type().Key(), valueType)
		if rv.IsNil() {
			return reflect.Zero(mapType), true
		}
		out := reflect.MakeMapWithSize(mapType, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), r.wrapElem(s, iter.Value(), valueType))
		}
		return out, true
	}
	return rv, false
}

// wrappedType returns the type a value of type t becomes once wrapped: the
// façade type for registered types, the interface itself for interfaces, and
// the same container shape for containers of either. Arrays become slices.
func (r *Registry) wrappedType(t reflect.Type) (reflect.Type, bool) {
	if e, ok := r.Lookup(t); ok {
		return e.Facade, true
	}
	switch t.Kind() {
	case reflect.Interface:
		return t, true
	case reflect.Slice, reflect.Array:
		if et, ok := r.wrappedType(t.Elem()); ok {
			return reflect.SliceOf(et), true
		}
	case reflect.Map:
		if vt, ok := r.wrappedType(t.Elem()); ok {
			return reflect.MapOf(t.Key(), vt), true
		}
	}
	return nil, false
}

func (r *Registry) wrapElem(s *Session, v reflect.Value, target reflect.Type) reflect.Value {
	w, ok := r.wrapValue(s, v)
	if !ok {
		w = v
	}
	if !w.IsValid() {
		return reflect.Zero(target)
	}
	if w.Type().AssignableTo(target) {
		return w
	}
	return reflect.Zero(target)
}

// instance returns the cached façade for rv, building it on first use.
func (r *Registry) instance(s *Session, e *Entry, rv reflect.Value) reflect.Value {
	if rv.IsNil() {
		return reflect.Zero(e.Facade)
	}
	impl := rv.Interface()
	key := e.key(impl)

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	if get, ok := r.cache[key]; ok {
		if f := get(); f != nil {
			return reflect.ValueOf(f)
		}
	}
	f := e.factory(NewSyncBase(s, impl), impl)
	r.cache[key] = e.hold(f, key)
	return reflect.ValueOf(f)
}

// evict drops key once its façade has been collected. A façade built again
// for the same instance in the meantime keeps the entry.
func (r *Registry) evict(key any) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	if get, ok := r.cache[key]; ok && get() == nil {
		delete(r.cache, key)
	}
}

// Forget drops the cached façade for an implementation instance, e.g. once
// the object it mirrors has been disposed.
func (r *Registry) Forget(impl any) {
	e, ok := r.Lookup(reflect.TypeOf(impl))
	if !ok || reflect.ValueOf(impl).IsNil() {
		return
	}
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	delete(r.cache, e.key(impl))
}

// CacheSize returns the number of cached façades that are still reachable.
func (r *Registry) CacheSize() int {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	n := 0
	for _, get := range r.cache {
		if get() != nil {
			n++
		}
	}
	return n
}
