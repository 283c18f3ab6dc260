// Package extract builds generation metadata from a Go implementation
// package. It type-checks the package with go/packages and describes every
// struct type carrying the implementation suffix as one class.
package extract

import (
	goast "go/ast"
	"go/token"
	"go/types"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/rebrowser/syncgen/pkg/ast"
	"github.com/rebrowser/syncgen/pkg/config"
	"github.com/rebrowser/syncgen/pkg/errors"
	"github.com/rebrowser/syncgen/pkg/logger"
)

// Method directives read from doc comments.
const (
	// DirectiveProperty marks a zero-argument method as a class-declared
	// property getter.
	DirectiveProperty = "//syncgen:property"
	// DirectiveDefault declares the default of an optional parameter:
	// //syncgen:default timeout=30000
	DirectiveDefault = "//syncgen:default"
)

// Options configures an extraction.
type Options struct {
	// Package is the Go package name of the façade. Defaults to "facade".
	Package string
	// Dir is the directory packages are resolved from.
	Dir string
	// Operators maps implementation methods to internal metadata names, e.g.
	// "Nth" -> "__getitem__", so the policy allow-list decides their façade
	// names.
	Operators map[string]string
	// Policy supplies the implementation suffix and runtime import path.
	Policy *config.Policy
	// Logger defaults to the package logger.
	Logger *zap.SugaredLogger
}

// Package loads the implementation package at importPath and returns its
// metadata document.
func Package(importPath string, opts Options) (*ast.File, error) {
	if opts.Policy == nil {
		opts.Policy = config.Default()
	}
	if opts.Package == "" {
		opts.Package = "facade"
	}
	if opts.Logger == nil {
		opts.Logger = logger.Named("extract")
	}

	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo,
		Dir:  opts.Dir,
	}
	pkgs, err := packages.Load(cfg, importPath)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", importPath)
	}
	if len(pkgs) == 0 {
		return nil, errors.Newf("no packages found for %s", importPath)
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		var combined error
		for _, e := range pkg.Errors {
			combined = errors.CombineErrors(combined, e)
		}
		return nil, errors.Wrapf(combined, "loading %s", importPath)
	}
	if pkg.Types == nil {
		return nil, errors.Newf("type information not available for %s", importPath)
	}

	x := &extractor{
		pkg:   pkg,
		opts:  opts,
		decls: funcDecls(pkg),
	}
	return x.file()
}

type extractor struct {
	pkg     *packages.Package
	opts    Options
	decls   map[*types.Func]*goast.FuncDecl
	classes map[*types.TypeName]string // implementation type -> class name
}

func (x *extractor) file() (*ast.File, error) {
	suffix := x.opts.Policy.ImplSuffix
	scope := x.pkg.Types.Scope()

	var names []*types.TypeName
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || !tn.Exported() || tn.IsAlias() {
			continue
		}
		if !strings.HasSuffix(name, suffix) || name == suffix {
			continue
		}
		if _, ok := tn.Type().Underlying().(*types.Struct); !ok {
			continue
		}
		names = append(names, tn)
	}
	sort.SliceStable(names, func(i, j int) bool {
		return x.before(names[i].Pos(), names[j].Pos())
	})

	x.classes = make(map[*types.TypeName]string, len(names))
	for _, tn := range names {
		x.classes[tn] = strings.TrimSuffix(tn.Name(), suffix)
	}

	f := &ast.File{
		Version:    ast.SchemaVersion,
		Package:    x.opts.Package,
		ImplImport: x.pkg.PkgPath,
	}
	for _, tn := range names {
		class, err := x.class(tn)
		if err != nil {
			return nil, err
		}
		x.opts.Logger.Debugw("extracted class", logger.FieldClass, class.Name, logger.FieldCount, len(class.Members))
		f.Classes = append(f.Classes, *class)
	}
	return f, f.Validate()
}

// before orders positions by file name, then offset, so output does not
// depend on the order files were parsed in.
func (x *extractor) before(a, b token.Pos) bool {
	pa, pb := x.pkg.Fset.Position(a), x.pkg.Fset.Position(b)
	if pa.Filename != pb.Filename {
		return pa.Filename < pb.Filename
	}
	return pa.Offset < pb.Offset
}

func (x *extractor) class(tn *types.TypeName) (*ast.Class, error) {
	named := tn.Type().(*types.Named)
	st := named.Underlying().(*types.Struct)
	class := &ast.Class{Name: x.classes[tn], Base: "object"}

	for i := 0; i < st.NumFields(); i++ {
		field := st.Field(i)
		if field.Embedded() {
			if class.Base != "object" {
				continue
			}
			if base, pointer, ok := x.classOf(field.Type()); ok {
				class.Base, class.BasePointer = base, pointer
			}
			continue
		}
		if !field.Exported() {
			continue
		}
		t, err := x.typeRef(field.Type())
		if err != nil {
			return nil, x.attribute(err, class.Name, field.Name())
		}
		class.Members = append(class.Members, ast.Member{
			Kind:      ast.KindProperty,
			Name:      field.Name(),
			Type:      t,
			Inherited: true,
		})
	}

	var methods []*types.Func
	for i := 0; i < named.NumMethods(); i++ {
		fn := named.Method(i)
		if fn.Exported() {
			methods = append(methods, fn)
		}
	}
	sort.SliceStable(methods, func(i, j int) bool {
		return x.before(methods[i].Pos(), methods[j].Pos())
	})

	for _, fn := range methods {
		m, err := x.member(fn)
		if err != nil {
			return nil, x.attribute(err, class.Name, fn.Name())
		}
		class.Members = append(class.Members, *m)
	}
	return class, nil
}

// member describes one method, as a method or as an own property.
func (x *extractor) member(fn *types.Func) (*ast.Member, error) {
	sig := fn.Type().(*types.Signature)
	if sig.Variadic() {
		return nil, &errors.UnprojectableTypeError{Type: sig.String(), Reason: "variadic method"}
	}

	m := &ast.Member{Kind: ast.KindMethod, Name: fn.Name()}
	if op := x.opts.Operators[fn.Name()]; op != "" {
		m.Name, m.Symbol = op, fn.Name()
	}

	results := sig.Results()
	n := results.Len()
	if n > 0 && isError(results.At(n-1).Type()) {
		m.Fallible = true
		n--
	}
	switch {
	case n > 1:
		return nil, &errors.UnprojectableTypeError{Type: sig.String(), Reason: "more than one result"}
	case n == 1:
		result := results.At(0).Type()
		if elem, ok := x.runtimeArg(result, "Coroutine"); ok {
			m.Async = true
			result = elem
		}
		if !isVoid(result) {
			t, err := x.typeRef(result)
			if err != nil {
				return nil, err
			}
			m.Returns = t
		}
	}
	if m.Async && m.Fallible {
		return nil, &errors.UnprojectableTypeError{Type: sig.String(), Reason: "asynchronous method cannot also return an error"}
	}

	directives := x.directives(fn)
	if directives[DirectiveProperty] != nil {
		if sig.Params().Len() != 0 || m.Async || m.Returns == nil {
			return nil, errors.Newf("%s needs a synchronous zero-argument method with a result", DirectiveProperty)
		}
		return &ast.Member{
			Kind:     ast.KindProperty,
			Name:     m.Name,
			Symbol:   m.Symbol,
			Type:     m.Returns,
			Fallible: m.Fallible,
		}, nil
	}

	defaults := parseDefaults(directives[DirectiveDefault])
	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		p := params.At(i)
		param := ast.Param{Name: p.Name()}
		if param.Name == "" || param.Name == "_" {
			return nil, errors.Newf("parameter %d has no name", i)
		}
		t, err := x.typeRef(p.Type())
		if err != nil {
			return nil, err
		}
		param.Type = t
		if t.Kind == ast.TypeOptional {
			param.Keyword = true
		}
		if def, ok := defaults[param.Name]; ok {
			param.Default = &def
			delete(defaults, param.Name)
		}
		m.Params = append(m.Params, param)
	}
	if len(defaults) > 0 {
		unknown := make([]string, 0, len(defaults))
		for name := range defaults {
			unknown = append(unknown, name)
		}
		sort.Strings(unknown)
		return nil, errors.Newf("default for unknown parameter %s", strings.Join(unknown, ", "))
	}
	return m, nil
}

// typeRef maps a Go type of the implementation package onto the metadata
// type grammar.
func (x *extractor) typeRef(t types.Type) (*ast.TypeRef, error) {
	if elem, ok := x.runtimeArg(t, "Future"); ok {
		if isVoid(elem) {
			return nil, &errors.UnprojectableTypeError{Type: t.String(), Reason: "pending value without a result"}
		}
		inner, err := x.typeRef(elem)
		if err != nil {
			return nil, err
		}
		return ast.Pending(inner), nil
	}
	if _, ok := x.runtimeArg(t, "Coroutine"); ok {
		return nil, &errors.UnprojectableTypeError{Type: t.String(), Reason: "coroutine outside a method result"}
	}
	if isError(t) {
		return ast.Scalar("error"), nil
	}

	switch u := types.Unalias(t).(type) {
	case *types.Basic:
		if u.Info()&types.IsUntyped != 0 || u.Kind() == types.UnsafePointer {
			return nil, &errors.UnprojectableTypeError{Type: u.String()}
		}
		return ast.Scalar(u.Name()), nil

	case *types.Pointer:
		if name, _, ok := x.classOf(u); ok {
			return ast.ClassRef(name), nil
		}
		elem, err := x.typeRef(u.Elem())
		if err != nil {
			return nil, err
		}
		return ast.Optional(elem), nil

	case *types.Named:
		if name, _, ok := x.classOf(u); ok {
			return nil, &errors.UnprojectableTypeError{Type: name, Reason: "implementation class used by value"}
		}
		if u.TypeArgs().Len() > 0 {
			return nil, &errors.UnprojectableTypeError{Type: u.String(), Reason: "instantiated generic type"}
		}
		obj := u.Obj()
		if obj.Pkg() == nil || obj.Pkg() == x.pkg.Types {
			return ast.Scalar(obj.Name()), nil
		}
		return ast.Scalar(obj.Pkg().Path() + "." + obj.Name()), nil

	case *types.Slice:
		elem, err := x.typeRef(u.Elem())
		if err != nil {
			return nil, err
		}
		return ast.Sequence(elem), nil

	case *types.Map:
		key, err := x.typeRef(u.Key())
		if err != nil {
			return nil, err
		}
		value, err := x.typeRef(u.Elem())
		if err != nil {
			return nil, err
		}
		return ast.Mapping(key, value), nil

	case *types.Interface:
		if u.Empty() {
			return ast.Union(), nil
		}
	}
	return nil, &errors.UnprojectableTypeError{Type: t.String(), Reason: "no metadata equivalent"}
}

// classOf resolves t, or the type t points to, to an implementation class.
func (x *extractor) classOf(t types.Type) (name string, pointer bool, ok bool) {
	t = types.Unalias(t)
	if p, isPtr := t.(*types.Pointer); isPtr {
		t, pointer = types.Unalias(p.Elem()), true
	}
	named, isNamed := t.(*types.Named)
	if !isNamed {
		return "", false, false
	}
	name, ok = x.classes[named.Obj()]
	return name, pointer, ok
}

// runtimeArg returns the type argument of t if t instantiates the named
// generic type of the runtime package, through a pointer for Future.
func (x *extractor) runtimeArg(t types.Type, generic string) (types.Type, bool) {
	t = types.Unalias(t)
	if generic == "Future" {
		p, ok := t.(*types.Pointer)
		if !ok {
			return nil, false
		}
		t = types.Unalias(p.Elem())
	}
	named, ok := t.(*types.Named)
	if !ok || named.TypeArgs().Len() != 1 {
		return nil, false
	}
	obj := named.Obj()
	if obj.Name() != generic || obj.Pkg() == nil || obj.Pkg().Path() != x.opts.Policy.RuntimeImport {
		return nil, false
	}
	return named.TypeArgs().At(0), true
}

func (x *extractor) directives(fn *types.Func) map[string][]string {
	decl := x.decls[fn]
	if decl == nil || decl.Doc == nil {
		return nil
	}
	out := map[string][]string{}
	for _, c := range decl.Doc.List {
		for _, d := range []string{DirectiveProperty, DirectiveDefault} {
			if c.Text == d || strings.HasPrefix(c.Text, d+" ") {
				out[d] = append(out[d], strings.TrimSpace(strings.TrimPrefix(c.Text, d)))
			}
		}
	}
	return out
}

func (x *extractor) attribute(err error, class, member string) error {
	var ute *errors.UnprojectableTypeError
	if errors.As(err, &ute) && ute.Class == "" {
		ute.Class, ute.Member = class, member
		return errors.WithStack(err)
	}
	return errors.Wrapf(err, "%s.%s", class, member)
}

// parseDefaults reads "name=expr" pairs.
func parseDefaults(lines []string) map[string]string {
	out := map[string]string{}
	for _, line := range lines {
		for _, pair := range strings.Fields(line) {
			name, expr, ok := strings.Cut(pair, "=")
			if ok && name != "" {
				out[name] = expr
			}
		}
	}
	return out
}

// funcDecls indexes method declarations by their type-checked object.
func funcDecls(pkg *packages.Package) map[*types.Func]*goast.FuncDecl {
	out := map[*types.Func]*goast.FuncDecl{}
	for _, file := range pkg.Syntax {
		for _, d := range file.Decls {
			fd, ok := d.(*goast.FuncDecl)
			if !ok || fd.Recv == nil {
				continue
			}
			if fn, ok := pkg.TypesInfo.Defs[fd.Name].(*types.Func); ok {
				out[fn] = fd
			}
		}
	}
	return out
}

func isError(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}

func isVoid(t types.Type) bool {
	st, ok := types.Unalias(t).Underlying().(*types.Struct)
	return ok && st.NumFields() == 0
}
