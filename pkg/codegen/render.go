package codegen

import (
	"go/token"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/iancoleman/strcase"

	"github.com/rebrowser/syncgen/pkg/ast"
	"github.com/rebrowser/syncgen/pkg/errors"
	"github.com/rebrowser/syncgen/pkg/project"
)

// goBuiltins are identifiers a generated parameter must not shadow: Go
// keywords, predeclared names, and the names generated bodies rely on.
var goBuiltins = map[string]bool{
	// Builtin functions
	"len": true, "cap": true, "make": true, "new": true, "append": true,
	"copy": true, "delete": true, "close": true, "panic": true, "recover": true,
	"print": true, "println": true, "complex": true, "real": true, "imag": true,
	"min": true, "max": true, "clear": true,
	// Constants
	"true": true, "false": true, "nil": true, "iota": true,
	// Types
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"uintptr": true, "float32": true, "float64": true, "complex64": true, "complex128": true,
	"byte": true, "rune": true, "string": true, "bool": true, "error": true, "any": true,
	// Go keywords (cannot be used as identifiers)
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
	// Generated body locals and package names
	"x": true, "o": true, "options": true, "v": true, "err": true, "fut": true,
	"runtime": true, "impl": true,
}

// builtinTypes render as bare identifiers.
var builtinTypes = map[string]bool{
	"bool": true, "string": true, "error": true, "any": true, "byte": true, "rune": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"float32": true, "float64": true, "complex64": true, "complex128": true,
}

// safeGoName returns a safe Go identifier, renaming if it conflicts with builtins
func safeGoName(name string) string {
	if goBuiltins[name] {
		return name + "_"
	}
	return name
}

// paramName returns the Go parameter identifier for a metadata parameter.
func paramName(name string) string {
	return safeGoName(strcase.ToLowerCamel(name))
}

// fieldName returns the exported identifier for a façade member or options
// field. Names that already are exported Go identifiers are kept, so
// initialisms like URL survive.
func fieldName(name string) string {
	if token.IsExported(name) && token.IsIdentifier(name) && !strings.Contains(name, "_") {
		return name
	}
	return strcase.ToCamel(name)
}

// renderer turns projected type references into Go type expressions.
type renderer struct {
	runtime    string // import path of the runtime package
	implImport string
	implSuffix string
	projector  *project.Projector
}

// typeCode renders a projected type. Class references render as façade
// pointers, or as implementation pointers when impl is set.
func (r *renderer) typeCode(t *ast.TypeRef, impl bool) (*jen.Statement, error) {
	if t == nil {
		return nil, errors.AssertionFailedf("rendering a missing type")
	}
	switch t.Kind {
	case ast.TypeScalar:
		return r.scalarCode(t.Name), nil

	case ast.TypeClass:
		if impl || !t.Facade {
			return jen.Op("*").Qual(r.implImport, t.Name+r.implSuffix), nil
		}
		return jen.Op("*").Id(t.Name), nil

	case ast.TypeSequence:
		elem, err := r.typeCode(t.Elem, impl)
		if err != nil {
			return nil, err
		}
		return jen.Index().Add(elem), nil

	case ast.TypeMapping:
		if t.Key.ContainsClass() {
			return nil, &errors.UnprojectableTypeError{Type: t.String(), Reason: "class-typed mapping key"}
		}
		key, err := r.typeCode(t.Key, impl)
		if err != nil {
			return nil, err
		}
		value, err := r.typeCode(t.Value, impl)
		if err != nil {
			return nil, err
		}
		return jen.Map(key).Add(value), nil

	case ast.TypeOptional:
		elem, err := r.typeCode(t.Elem, impl)
		if err != nil {
			return nil, err
		}
		if nilable(t.Elem) {
			return elem, nil
		}
		return jen.Op("*").Add(elem), nil

	case ast.TypeUnion:
		return jen.Id("any"), nil

	case ast.TypePending:
		return nil, &errors.UnprojectableTypeError{Type: t.String(), Reason: "pending value left after projection"}
	}
	return nil, &errors.UnprojectableTypeError{Type: t.String(), Reason: "unknown type kind"}
}

// scalarCode renders a scalar name: builtins as-is, "path.Name" qualified by
// its import path, anything else as a type of the implementation package.
func (r *renderer) scalarCode(name string) *jen.Statement {
	if builtinTypes[name] {
		return jen.Id(name)
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		return jen.Qual(name[:i], name[i+1:])
	}
	return jen.Qual(r.implImport, r.projector.StripImplSuffix(name))
}

// nilable reports whether values of the rendered type can be nil, so that
// optional() adds no pointer.
func nilable(t *ast.TypeRef) bool {
	switch t.Kind {
	case ast.TypeClass, ast.TypeSequence, ast.TypeMapping, ast.TypeOptional, ast.TypeUnion:
		return true
	case ast.TypeScalar:
		return t.Name == "any" || t.Name == "error"
	}
	return false
}

// zeroCode renders the zero value of a projected type.
func (r *renderer) zeroCode(t *ast.TypeRef) (*jen.Statement, error) {
	if nilable(t) {
		return jen.Nil(), nil
	}
	if t.Kind == ast.TypeScalar {
		switch t.Name {
		case "bool":
			return jen.False(), nil
		case "string":
			return jen.Lit(""), nil
		case "int", "int8", "int16", "int32", "int64",
			"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
			"float32", "float64", "complex64", "complex128", "byte", "rune":
			return jen.Lit(0), nil
		}
	}
	code, err := r.typeCode(t, false)
	if err != nil {
		return nil, err
	}
	return jen.Op("*").New(code), nil
}

// wrapCode renders the expression that turns an implementation value of the
// projected type t into its façade form.
func (r *renderer) wrapCode(t *ast.TypeRef, v jen.Code) (*jen.Statement, error) {
	switch project.Wrapping(t) {
	case project.WrapNone:
		return jen.Add(v), nil

	case project.WrapClass, project.WrapSequence, project.WrapMapping:
		facade, err := r.typeCode(project.ElemClass(t), false)
		if err != nil {
			return nil, err
		}
		helper := map[project.Wrap]string{
			project.WrapClass:    "Wrap",
			project.WrapSequence: "WrapSlice",
			project.WrapMapping:  "WrapMap",
		}[project.Wrapping(t)]
		return jen.Qual(r.runtime, helper).Types(facade).Call(jen.Id("x"), v), nil
	}

	// Dynamic: let the registry walk the value, then restore the static type.
	if t.Kind == ast.TypeUnion {
		return jen.Qual(r.runtime, "WrapAny").Call(jen.Id("x"), v), nil
	}
	code, err := r.typeCode(t, false)
	if err != nil {
		return nil, err
	}
	return jen.Qual(r.runtime, "Wrap").Types(code).Call(jen.Id("x"), v), nil
}

// unwrapCode renders the expression that turns a façade argument of the
// projected type t into the implementation value.
func (r *renderer) unwrapCode(t *ast.TypeRef, v jen.Code) (*jen.Statement, error) {
	if !t.ContainsClass() {
		return jen.Add(v), nil
	}
	rt := r.runtime
	switch project.Wrapping(t) {
	case project.WrapClass:
		implType, err := r.typeCode(project.ElemClass(t), true)
		if err != nil {
			return nil, err
		}
		return jen.Qual(rt, "Unwrap").Types(implType).Call(v), nil
	case project.WrapSequence:
		implType, err := r.typeCode(project.ElemClass(t), true)
		if err != nil {
			return nil, err
		}
		return jen.Qual(rt, "UnwrapSlice").Types(implType).Call(v), nil
	case project.WrapMapping:
		implType, err := r.typeCode(project.ElemClass(t), true)
		if err != nil {
			return nil, err
		}
		return jen.Qual(rt, "UnwrapMap").Types(implType).Call(v), nil
	}
	if t.Kind == ast.TypeUnion {
		return jen.Qual(rt, "UnwrapAny").Call(v), nil
	}
	return nil, &errors.UnprojectableTypeError{Type: t.String(), Reason: "nested façade container as an argument"}
}
