package ast

import (
	"fmt"
	"strings"

	"github.com/rebrowser/syncgen/pkg/errors"
)

// TypeKind discriminates TypeRef.
type TypeKind string

const (
	TypeScalar   TypeKind = "scalar"
	TypeSequence TypeKind = "sequence"
	TypeMapping  TypeKind = "mapping"
	TypeOptional TypeKind = "optional"
	TypeUnion    TypeKind = "union"
	TypeClass    TypeKind = "class"
	TypePending  TypeKind = "pending"
)

// TypeRef is a recursive type reference in the implementation type system.
//
// Elem is used by sequence, optional and pending; Key and Value by mapping;
// Variants by union (an empty union means "any value"). Facade is only
// meaningful on class references: it records which symbol table the name
// binds against once projected.
type TypeRef struct {
	Kind     TypeKind   `json:"kind"`
	Name     string     `json:"name,omitempty"`
	Elem     *TypeRef   `json:"elem,omitempty"`
	Key      *TypeRef   `json:"key,omitempty"`
	Value    *TypeRef   `json:"value,omitempty"`
	Variants []*TypeRef `json:"variants,omitempty"`
	Facade   bool       `json:"facade,omitempty"`
}

func Scalar(name string) *TypeRef { return &TypeRef{Kind: TypeScalar, Name: name} }

func Sequence(elem *TypeRef) *TypeRef { return &TypeRef{Kind: TypeSequence, Elem: elem} }

func Mapping(key, value *TypeRef) *TypeRef {
	return &TypeRef{Kind: TypeMapping, Key: key, Value: value}
}

func Optional(elem *TypeRef) *TypeRef { return &TypeRef{Kind: TypeOptional, Elem: elem} }

func Union(variants ...*TypeRef) *TypeRef {
	return &TypeRef{Kind: TypeUnion, Variants: variants}
}

func ClassRef(name string) *TypeRef { return &TypeRef{Kind: TypeClass, Name: name} }

func Pending(elem *TypeRef) *TypeRef { return &TypeRef{Kind: TypePending, Elem: elem} }

// Equal reports structural equality, including the class binding flag.
func (t *TypeRef) Equal(o *TypeRef) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind || t.Name != o.Name || t.Facade != o.Facade {
		return false
	}
	if !t.Elem.Equal(o.Elem) || !t.Key.Equal(o.Key) || !t.Value.Equal(o.Value) {
		return false
	}
	if len(t.Variants) != len(o.Variants) {
		return false
	}
	for i := range t.Variants {
		if !t.Variants[i].Equal(o.Variants[i]) {
			return false
		}
	}
	return true
}

// String renders the reference for diagnostics, e.g. "sequence(class(Page))".
func (t *TypeRef) String() string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case TypeScalar:
		return t.Name
	case TypeClass:
		if t.Facade {
			return "facade(" + t.Name + ")"
		}
		return "class(" + t.Name + ")"
	case TypeSequence, TypeOptional, TypePending:
		return string(t.Kind) + "(" + t.Elem.String() + ")"
	case TypeMapping:
		return "mapping(" + t.Key.String() + ", " + t.Value.String() + ")"
	case TypeUnion:
		parts := make([]string, len(t.Variants))
		for i, v := range t.Variants {
			parts[i] = v.String()
		}
		return "union(" + strings.Join(parts, ", ") + ")"
	}
	return fmt.Sprintf("%s?", t.Kind)
}

// Validate checks the structural invariants of the reference: every node has
// the children its kind requires and no pending wraps another pending.
func (t *TypeRef) Validate() error {
	if t == nil {
		return errors.New("nil type reference")
	}
	switch t.Kind {
	case TypeScalar, TypeClass:
		if t.Name == "" {
			return errors.Newf("%s reference without a name", t.Kind)
		}
		return nil
	case TypeSequence, TypeOptional:
		return t.Elem.Validate()
	case TypePending:
		if t.Elem != nil && t.Elem.Kind == TypePending {
			return errors.New("pending nested in pending")
		}
		return t.Elem.Validate()
	case TypeMapping:
		if err := t.Key.Validate(); err != nil {
			return err
		}
		return t.Value.Validate()
	case TypeUnion:
		for _, v := range t.Variants {
			if err := v.Validate(); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.Newf("unknown type kind %q", t.Kind)
}

// ContainsClass reports whether a class reference appears anywhere in t.
func (t *TypeRef) ContainsClass() bool {
	if t == nil {
		return false
	}
	if t.Kind == TypeClass {
		return true
	}
	if t.Elem.ContainsClass() || t.Key.ContainsClass() || t.Value.ContainsClass() {
		return true
	}
	for _, v := range t.Variants {
		if v.ContainsClass() {
			return true
		}
	}
	return false
}
