package codegen

import (
	"github.com/dave/jennifer/jen"

	"github.com/rebrowser/syncgen/pkg/ast"
	"github.com/rebrowser/syncgen/pkg/config"
	"github.com/rebrowser/syncgen/pkg/docs"
	"github.com/rebrowser/syncgen/pkg/errors"
)

// emitState is the position of a class emitter. A class is always emitted
// in this order and every state is entered exactly once.
type emitState int

const (
	stateStart emitState = iota
	statePropertiesEmitted
	stateOwnPropertiesEmitted
	stateMethodsEmitted
	stateRegistered
)

func (s emitState) String() string {
	switch s {
	case stateStart:
		return "Start"
	case statePropertiesEmitted:
		return "PropertiesEmitted"
	case stateOwnPropertiesEmitted:
		return "OwnPropertiesEmitted"
	case stateMethodsEmitted:
		return "MethodsEmitted"
	case stateRegistered:
		return "Registered"
	}
	return "Unknown"
}

// reservedMembers are promoted from the runtime bases or generated for every
// façade.
var reservedMembers = map[string]bool{
	"SyncSession": true, "SyncTarget": true, "TB": true, "Impl": true, "Use": true,
}

type classEmitter struct {
	g     *generator
	class *ast.Class
	state emitState
	code  []jen.Code
	names map[string]string // façade identifier -> member that claimed it
}

func newClassEmitter(g *generator, class *ast.Class) *classEmitter {
	return &classEmitter{g: g, class: class, names: map[string]string{}}
}

func (e *classEmitter) advance(next emitState) {
	if next != e.state+1 {
		panic(errors.AssertionFailedf("class emitter for %s: %s -> %s", e.class.Name, e.state, next))
	}
	e.state = next
}

func (e *classEmitter) add(code ...jen.Code) {
	e.code = append(e.code, code...)
}

// emit runs the class through every state and returns its declarations.
func (e *classEmitter) emit() ([]jen.Code, error) {
	if err := e.emitStart(); err != nil {
		return nil, err
	}
	e.advance(statePropertiesEmitted)
	for _, m := range e.class.Properties(true) {
		if err := e.emitProperty(&m); err != nil {
			return nil, err
		}
	}
	e.advance(stateOwnPropertiesEmitted)
	for _, m := range e.class.Properties(false) {
		if err := e.emitProperty(&m); err != nil {
			return nil, err
		}
	}
	e.advance(stateMethodsEmitted)
	for _, m := range e.class.Methods() {
		if err := e.emitMethod(&m); err != nil {
			return nil, err
		}
	}
	e.advance(stateRegistered)
	e.emitRegistration()
	return e.code, nil
}

// emitStart declares the façade struct, its constructor and the Impl
// accessor.
func (e *classEmitter) emitStart() error {
	name := e.class.Name
	rt := e.g.policy.RuntimeImport
	implType := jen.Op("*").Qual(e.g.file.ImplImport, name+e.g.policy.ImplSuffix)

	lines := e.g.docs.Events(name)
	if len(lines) == 0 {
		lines = []string{name + " is the blocking façade over " + name + e.g.policy.ImplSuffix + "."}
	}
	e.comment(lines)

	var embed, init jen.Code
	switch e.g.policy.FacadeBase(name, e.class.Base) {
	case config.BaseContextManager:
		embed = jen.Qual(rt, "SyncContextManager")
		init = jen.Id("SyncContextManager").Op(":").Qual(rt, "NewSyncContextManager").Call(jen.Id("b"))
	case config.BaseGeneric:
		embed = jen.Qual(rt, "SyncBase")
		init = jen.Id("SyncBase").Op(":").Id("b")
	default:
		base := e.class.Base
		if !e.g.projector.Known(base) {
			return errors.WithStack(&errors.UnprojectableTypeError{
				Class: name, Type: base, Reason: "base class has no façade",
			})
		}
		parent := jen.Id("o").Dot(base + e.g.policy.ImplSuffix)
		if !e.class.BasePointer {
			parent = jen.Op("&").Add(parent)
		}
		embed = jen.Id(base)
		init = jen.Id(base).Op(":").Op("*").Id(constructorName(base)).Call(jen.Id("b"), parent)
	}

	e.add(jen.Type().Id(name).Struct(
		embed,
		jen.Id("impl").Add(implType.Clone()),
	))
	e.add(jen.Line())

	e.add(jen.Func().Id(constructorName(name)).Params(
		jen.Id("b").Qual(rt, "SyncBase"),
		jen.Id("o").Add(implType.Clone()),
	).Op("*").Id(name).Block(
		jen.Return(jen.Op("&").Id(name).Values(init, jen.Id("impl").Op(":").Id("o"))),
	))
	e.add(jen.Line())

	e.add(jen.Comment("Impl returns the wrapped implementation object."))
	e.add(jen.Func().Params(jen.Id("x").Op("*").Id(name)).Id("Impl").Params().Add(implType.Clone()).Block(
		jen.Return(jen.Id("x").Dot("impl")),
	))
	e.add(jen.Line())
	return nil
}

// member decides whether m is emitted and under which façade identifier.
// An empty name means skip.
func (e *classEmitter) member(m *ast.Member) (name string, documented bool) {
	if m.IsInternal(e.g.policy.InternalMarker) {
		if facade, ok := e.g.policy.AllowedInternal(m.Name); ok {
			return facade, false
		}
		e.g.skip(e.class.Name, m.Name, "internal")
		return "", false
	}
	if m.Kind == ast.KindMethod && e.g.policy.IsExcluded(m.Name) {
		e.g.skip(e.class.Name, m.Name, "excluded")
		return "", false
	}
	return fieldName(m.Name), true
}

func (e *classEmitter) claim(name string, m *ast.Member) error {
	if reservedMembers[name] {
		return errors.Newf("%s.%s: façade name %s is reserved", e.class.Name, m.Name, name)
	}
	if prev, ok := e.names[name]; ok {
		return errors.Newf("%s.%s: façade name %s already used by %s", e.class.Name, m.Name, name, prev)
	}
	e.names[name] = m.Name
	return nil
}

// documentation fetches and emits the comment of a member.
func (e *classEmitter) documentation(m *ast.Member, documented bool) error {
	if !documented {
		return nil
	}
	lines, err := e.g.docs.Entry(e.class.Name, m.Name, docs.HintsFor(m), m.Kind == ast.KindProperty)
	if err != nil {
		return err
	}
	e.comment(lines)
	return nil
}

func (e *classEmitter) comment(lines []string) {
	for _, l := range lines {
		if l == "" {
			e.add(jen.Comment("//"))
			continue
		}
		e.add(jen.Comment(l))
	}
}

// project projects a member type and attributes failures to the member.
func (e *classEmitter) project(m *ast.Member, t *ast.TypeRef) (*ast.TypeRef, error) {
	pt, err := e.g.projector.Project(t)
	if err != nil {
		return nil, e.attribute(m, err)
	}
	return pt, nil
}

func (e *classEmitter) attribute(m *ast.Member, err error) error {
	var ute *errors.UnprojectableTypeError
	if errors.As(err, &ute) && ute.Class == "" {
		ute.Class, ute.Member = e.class.Name, m.Name
	}
	return errors.WithStack(err)
}

func (e *classEmitter) receiver() *jen.Statement {
	return jen.Id("x").Op("*").Id(e.class.Name)
}

// helperMarker is the first statement of assertion method bodies.
func (e *classEmitter) helperMarker() []jen.Code {
	if !e.g.policy.IsAssertionClass(e.class.Name) {
		return nil
	}
	return []jen.Code{jen.Id("x").Dot("TB").Call().Dot("Helper").Call()}
}

// emitProperty emits a read-only accessor. Inherited properties read the
// implementation field; own properties call the implementation getter.
func (e *classEmitter) emitProperty(m *ast.Member) error {
	name, documented := e.member(m)
	if name == "" {
		return nil
	}
	if err := e.claim(name, m); err != nil {
		return err
	}
	if err := e.documentation(m, documented); err != nil {
		return err
	}

	access := jen.Id("x").Dot("impl").Dot(m.ImplSymbol())
	if !m.Inherited {
		access = access.Call()
	}
	shape := callShape{
		call:     access,
		raw:      m.Type,
		fallible: m.Fallible && !m.Inherited,
	}
	results, body, err := e.body(m, shape)
	if err != nil {
		return err
	}
	stmts := append(e.helperMarker(), body...)
	e.add(jen.Func().Params(e.receiver()).Id(name).Params().Add(results).Block(stmts...))
	e.add(jen.Line())
	return nil
}

// emitMethod emits one façade method, with its options struct when the
// method takes keyword or defaulted parameters.
func (e *classEmitter) emitMethod(m *ast.Member) error {
	name, documented := e.member(m)
	if name == "" {
		return nil
	}
	if err := e.claim(name, m); err != nil {
		return err
	}
	sig, err := e.params(m, name)
	if err != nil {
		return err
	}
	// The options struct goes ahead of the method comment.
	e.add(sig.options...)
	if err := e.documentation(m, documented); err != nil {
		return err
	}

	call := jen.Id("x").Dot("impl").Dot(m.ImplSymbol()).Call(sig.args...)
	stmts := append(e.helperMarker(), sig.prelude...)

	var results jen.Code
	if m.IsEventHelper(e.g.policy.EventPatterns()) {
		r, body, err := e.eventBody(m, call)
		if err != nil {
			return err
		}
		results = r
		stmts = append(stmts, body...)
	} else {
		r, body, err := e.body(m, callShape{
			call:     call,
			raw:      m.Returns,
			async:    m.Async,
			fallible: m.Fallible,
		})
		if err != nil {
			return err
		}
		results = r
		stmts = append(stmts, body...)
	}

	fn := jen.Func().Params(e.receiver()).Id(name).Params(sig.params...)
	if results != nil {
		fn.Add(results)
	}
	e.add(fn.Block(stmts...))
	e.add(jen.Line())
	return nil
}

// emitRegistration binds the implementation type to the façade constructor.
func (e *classEmitter) emitRegistration() {
	rt := e.g.policy.RuntimeImport
	e.add(jen.Func().Id(bindName(e.class.Name)).Params(jen.Id("r").Op("*").Qual(rt, "Registry")).Error().Block(
		jen.Return(jen.Qual(rt, "Register").Call(jen.Id("r"), jen.Id(constructorName(e.class.Name)))),
	))
	e.add(jen.Line())
}
