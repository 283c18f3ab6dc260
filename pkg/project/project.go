// Package project maps types from the implementation type system into the
// façade type system.
package project

import (
	"strings"

	"github.com/rebrowser/syncgen/pkg/ast"
	"github.com/rebrowser/syncgen/pkg/errors"
)

// Projector projects type references against a fixed set of known classes.
type Projector struct {
	classes    map[string]bool
	implSuffix string
}

// New returns a Projector that resolves class references against classes.
// implSuffix is the internal marker carried by implementation-only type names.
func New(classes []string, implSuffix string) *Projector {
	p := &Projector{
		classes:    make(map[string]bool, len(classes)),
		implSuffix: implSuffix,
	}
	for _, c := range classes {
		p.classes[c] = true
	}
	return p
}

// Known reports whether name is a class with a façade.
func (p *Projector) Known(name string) bool {
	return p.classes[name]
}

// Project returns the façade form of t. Class references keep their name but
// bind to the façade; a top-level pending value is unwrapped to what it
// resolves to; compound types are projected element by element. A pending
// value below the top level has no façade form, since only the outermost
// value is awaited. The input is not modified.
func (p *Projector) Project(t *ast.TypeRef) (*ast.TypeRef, error) {
	return p.project(t, false)
}

func (p *Projector) project(t *ast.TypeRef, nested bool) (*ast.TypeRef, error) {
	if t == nil {
		return nil, nil
	}
	switch t.Kind {
	case ast.TypeScalar:
		return ast.Scalar(t.Name), nil

	case ast.TypeClass:
		if !p.classes[t.Name] {
			return nil, &errors.UnprojectableTypeError{Type: t.String(), Reason: "unknown class"}
		}
		return &ast.TypeRef{Kind: ast.TypeClass, Name: t.Name, Facade: true}, nil

	case ast.TypePending:
		if t.Elem == nil {
			return nil, &errors.UnprojectableTypeError{Type: t.String(), Reason: "pending without a value type"}
		}
		if t.Elem.Kind == ast.TypePending {
			return nil, &errors.UnprojectableTypeError{Type: t.String(), Reason: "pending nested in pending"}
		}
		if nested {
			return nil, &errors.UnprojectableTypeError{Type: t.String(), Reason: "pending value inside a container"}
		}
		return p.project(t.Elem, true)

	case ast.TypeSequence, ast.TypeOptional:
		elem, err := p.projectChild(t, t.Elem)
		if err != nil {
			return nil, err
		}
		return &ast.TypeRef{Kind: t.Kind, Elem: elem}, nil

	case ast.TypeMapping:
		key, err := p.projectChild(t, t.Key)
		if err != nil {
			return nil, err
		}
		value, err := p.projectChild(t, t.Value)
		if err != nil {
			return nil, err
		}
		return ast.Mapping(key, value), nil

	case ast.TypeUnion:
		variants := make([]*ast.TypeRef, 0, len(t.Variants))
		for _, v := range t.Variants {
			pv, err := p.projectChild(t, v)
			if err != nil {
				return nil, err
			}
			variants = append(variants, pv)
		}
		return ast.Union(variants...), nil
	}
	return nil, &errors.UnprojectableTypeError{Type: t.String(), Reason: "unknown type kind"}
}

func (p *Projector) projectChild(parent, child *ast.TypeRef) (*ast.TypeRef, error) {
	if child == nil {
		return nil, &errors.UnprojectableTypeError{Type: parent.String(), Reason: "missing element type"}
	}
	return p.project(child, true)
}

// StripImplSuffix removes the implementation marker suffix from a plain data
// record name ("FilePayloadImpl" -> "FilePayload"). Qualified names keep
// their qualifier.
func (p *Projector) StripImplSuffix(name string) string {
	if p.implSuffix == "" || name == p.implSuffix {
		return name
	}
	return strings.TrimSuffix(name, p.implSuffix)
}

// Wrap classifies how a value of a projected type crosses from the
// implementation to the façade.
type Wrap int

const (
	// WrapNone returns the value as-is.
	WrapNone Wrap = iota
	// WrapClass re-wraps one implementation instance.
	WrapClass
	// WrapSequence re-wraps each element of a slice of instances.
	WrapSequence
	// WrapMapping re-wraps each value of a map of instances.
	WrapMapping
	// WrapDynamic re-wraps whatever registered instances the value holds.
	WrapDynamic
)

// Wrapping returns the wrap policy for a projected type. Only one level of
// container is re-wrapped with a typed helper; anything deeper falls back to
// the dynamic registry walk.
func Wrapping(t *ast.TypeRef) Wrap {
	if t == nil || !t.ContainsClass() {
		return WrapNone
	}
	switch t.Kind {
	case ast.TypeClass:
		return WrapClass
	case ast.TypeOptional:
		if t.Elem.Kind == ast.TypeClass {
			return WrapClass
		}
	case ast.TypeSequence:
		if t.Elem.Kind == ast.TypeClass {
			return WrapSequence
		}
	case ast.TypeMapping:
		if t.Value.Kind == ast.TypeClass && !t.Key.ContainsClass() {
			return WrapMapping
		}
	}
	return WrapDynamic
}

// ElemClass returns the class reference a WrapClass, WrapSequence or
// WrapMapping type carries.
func ElemClass(t *ast.TypeRef) *ast.TypeRef {
	switch Wrapping(t) {
	case WrapClass:
		if t.Kind == ast.TypeOptional {
			return t.Elem
		}
		return t
	case WrapSequence:
		return t.Elem
	case WrapMapping:
		return t.Value
	}
	return nil
}
