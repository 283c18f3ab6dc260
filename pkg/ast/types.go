// Package ast defines the metadata schema the generator consumes: one
// description per implementation class, produced by a front-end such as
// syncmeta and read from JSON.
package ast

import (
	"regexp"
	"strings"
)

// SchemaVersion is the only metadata document version the generator accepts.
const SchemaVersion = 1

// File is one generation input document.
type File struct {
	Version    int     `json:"version"`
	Package    string  `json:"package"`    // Go package name of the emitted façade
	ImplImport string  `json:"implImport"` // import path of the implementation package
	Classes    []Class `json:"classes"`
}

// ClassNames returns the names of all classes in document order.
func (f *File) ClassNames() []string {
	names := make([]string, 0, len(f.Classes))
	for _, c := range f.Classes {
		names = append(names, c.Name)
	}
	return names
}

// Class describes one implementation class.
type Class struct {
	Name string `json:"name"`
	Base string `json:"base"` // "", "object", or another class name
	// BasePointer records that the implementation embeds its base class by
	// pointer rather than by value.
	BasePointer bool     `json:"basePointer,omitempty"`
	Members     []Member `json:"members"`
}

// Properties returns the class properties filtered by inheritance marker,
// in document order.
func (c *Class) Properties(inherited bool) []Member {
	var out []Member
	for _, m := range c.Members {
		if m.Kind == KindProperty && m.Inherited == inherited {
			out = append(out, m)
		}
	}
	return out
}

// Methods returns the class methods in document order.
func (c *Class) Methods() []Member {
	var out []Member
	for _, m := range c.Members {
		if m.Kind == KindMethod {
			out = append(out, m)
		}
	}
	return out
}

// MemberKind discriminates Member.
type MemberKind string

const (
	KindProperty MemberKind = "property"
	KindMethod   MemberKind = "method"
)

// Member is either a property or a method of an implementation class.
type Member struct {
	Kind MemberKind `json:"kind"`
	Name string     `json:"name"`

	// Symbol is the implementation identifier to call. Defaults to Name.
	Symbol string `json:"symbol,omitempty"`

	// Property fields.
	Type      *TypeRef `json:"type,omitempty"`
	Inherited bool     `json:"inherited,omitempty"` // declared type hint (field), not a getter

	// Method fields.
	Params   []Param  `json:"params,omitempty"`
	Returns  *TypeRef `json:"returns,omitempty"` // nil when the method yields no value
	Async    bool     `json:"async,omitempty"`
	Fallible bool     `json:"fallible,omitempty"` // sync method that also returns an error
}

// ImplSymbol returns the identifier used on the implementation side.
func (m *Member) ImplSymbol() string {
	if m.Symbol != "" {
		return m.Symbol
	}
	return m.Name
}

// IsInternal reports whether the member name begins with the internal marker.
func (m *Member) IsInternal(marker string) bool {
	return marker != "" && strings.HasPrefix(m.Name, marker)
}

// IsEventHelper reports whether the member name follows one of the
// "wait for event" naming conventions.
func (m *Member) IsEventHelper(patterns []*regexp.Regexp) bool {
	if m.Kind != KindMethod {
		return false
	}
	for _, p := range patterns {
		if p.MatchString(m.Name) {
			return true
		}
	}
	return false
}

// ValueType returns the declared value type: the property type, or the
// method return type.
func (m *Member) ValueType() *TypeRef {
	if m.Kind == KindProperty {
		return m.Type
	}
	return m.Returns
}

// Param is one method parameter.
type Param struct {
	Name    string   `json:"name"`
	Type    *TypeRef `json:"type"`
	Default *string  `json:"default,omitempty"` // Go expression text
	Keyword bool     `json:"keyword,omitempty"`
}

// IsOption reports whether the parameter is passed through an options struct
// rather than positionally.
func (p *Param) IsOption() bool {
	return p.Keyword || p.Default != nil
}
