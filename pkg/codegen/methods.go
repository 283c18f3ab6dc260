package codegen

import (
	"github.com/dave/jennifer/jen"

	"github.com/rebrowser/syncgen/pkg/ast"
	"github.com/rebrowser/syncgen/pkg/errors"
	"github.com/rebrowser/syncgen/pkg/project"
)

// callShape describes how the implementation produces a member's value.
type callShape struct {
	call     *jen.Statement // x.impl.Member(args) or x.impl.Field
	raw      *ast.TypeRef   // declared value type, nil when there is none
	async    bool           // call yields a runtime.Coroutine
	fallible bool           // call also returns an error
}

// body renders the result list and the statements that turn the
// implementation call into the façade result. Anything that blocks on the
// bridge or can fail returns an error; plain synchronous calls do not.
func (e *classEmitter) body(m *ast.Member, s callShape) (jen.Code, []jen.Code, error) {
	rt := e.g.policy.RuntimeImport
	x := jen.Id("x")
	pending := s.raw != nil && s.raw.Kind == ast.TypePending
	if s.async && s.fallible {
		return nil, nil, errors.WithStack(&errors.UnprojectableTypeError{
			Class: e.class.Name, Member: m.Name, Type: typeString(s.raw),
			Reason: "asynchronous member cannot also return an error",
		})
	}

	if s.raw == nil {
		switch {
		case s.async:
			return jen.Error(), []jen.Code{jen.Return(jen.Qual(rt, "RunVoid").Call(x, s.call))}, nil
		case s.fallible:
			return jen.Error(), []jen.Code{jen.Return(s.call)}, nil
		}
		return nil, []jen.Code{s.call}, nil
	}

	pt, err := e.project(m, s.raw)
	if err != nil {
		return nil, nil, err
	}
	typ, err := e.g.render.typeCode(pt, false)
	if err != nil {
		return nil, nil, e.attribute(m, err)
	}
	wrapped, err := e.g.render.wrapCode(pt, jen.Id("v"))
	if err != nil {
		return nil, nil, e.attribute(m, err)
	}
	zero, err := e.g.render.zeroCode(pt)
	if err != nil {
		return nil, nil, e.attribute(m, err)
	}
	needsWrap := project.Wrapping(pt) != project.WrapNone

	if !s.async && !s.fallible && !pending {
		direct, err := e.g.render.wrapCode(pt, s.call)
		if err != nil {
			return nil, nil, e.attribute(m, err)
		}
		return typ, []jen.Code{jen.Return(direct)}, nil
	}

	results := jen.Parens(jen.List(typ, jen.Error()))
	var stmts []jen.Code

	// tail is the (value, error) expression the result is taken from.
	var tail *jen.Statement
	switch {
	case s.async && pending:
		stmts = append(stmts,
			jen.List(jen.Id("fut"), jen.Err()).Op(":=").Qual(rt, "Run").Call(x, s.call),
			jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(zero.Clone(), jen.Err())),
		)
		tail = jen.Qual(rt, "Await").Call(x, jen.Id("fut"))
	case s.async:
		tail = jen.Qual(rt, "Run").Call(x, s.call)
	case s.fallible && pending:
		stmts = append(stmts,
			jen.List(jen.Id("fut"), jen.Err()).Op(":=").Add(s.call),
			jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(zero.Clone(), jen.Err())),
		)
		tail = jen.Qual(rt, "Await").Call(x, jen.Id("fut"))
	case pending:
		tail = jen.Qual(rt, "Await").Call(x, s.call)
	default:
		tail = s.call
	}

	if !needsWrap {
		return results, append(stmts, jen.Return(tail)), nil
	}
	return results, append(stmts,
		jen.List(jen.Id("v"), jen.Err()).Op(":=").Add(tail),
		jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(zero, jen.Err())),
		jen.Return(wrapped, jen.Nil()),
	), nil
}

// eventBody renders an event helper: it always returns a wait handle,
// whether the implementation starts listening synchronously or not.
func (e *classEmitter) eventBody(m *ast.Member, call *jen.Statement) (jen.Code, []jen.Code, error) {
	rt := e.g.policy.RuntimeImport
	if m.Returns == nil || m.Returns.Kind != ast.TypePending {
		return nil, nil, errors.WithStack(&errors.UnprojectableTypeError{
			Class: e.class.Name, Member: m.Name, Type: typeString(m.Returns),
			Reason: "event helper must return a pending value",
		})
	}
	if m.Fallible {
		return nil, nil, errors.WithStack(&errors.UnprojectableTypeError{
			Class: e.class.Name, Member: m.Name, Type: m.Returns.String(),
			Reason: "event helper cannot also return an error",
		})
	}
	pt, err := e.project(m, m.Returns)
	if err != nil {
		return nil, nil, err
	}
	payload, err := e.g.render.typeCode(pt, false)
	if err != nil {
		return nil, nil, e.attribute(m, err)
	}

	helper := "Expect"
	if m.Async {
		helper = "ExpectAsync"
	}
	results := jen.Op("*").Qual(rt, "EventContextManager").Types(payload.Clone())
	return results, []jen.Code{
		jen.Return(jen.Qual(rt, helper).Types(payload).Call(jen.Id("x"), call)),
	}, nil
}

func typeString(t *ast.TypeRef) string {
	if t == nil {
		return "none"
	}
	return t.String()
}

// signature is the rendered parameter side of a façade method.
type signature struct {
	params  []jen.Code // façade parameters
	args    []jen.Code // implementation call arguments, in declaration order
	prelude []jen.Code // statements resolving options before the call
	options []jen.Code // options struct declaration, if any
}

// params renders positional parameters as Go parameters and gathers keyword
// or defaulted ones into a <Class><Method>Options struct passed variadically.
func (e *classEmitter) params(m *ast.Member, method string) (*signature, error) {
	rt := e.g.policy.RuntimeImport
	sig := &signature{}
	optionsType := e.class.Name + method + "Options"

	var fields []jen.Code
	var defaults []jen.Code
	for _, p := range m.Params {
		if p.Type != nil && p.Type.Kind == ast.TypePending {
			return nil, e.attribute(m, &errors.UnprojectableTypeError{
				Type: p.Type.String(), Reason: "pending value as a parameter",
			})
		}
		pt, err := e.project(m, p.Type)
		if err != nil {
			return nil, err
		}
		typ, err := e.g.render.typeCode(pt, false)
		if err != nil {
			return nil, e.attribute(m, err)
		}

		if !p.IsOption() {
			id := paramName(p.Name)
			sig.params = append(sig.params, jen.Id(id).Add(typ))
			arg, err := e.g.render.unwrapCode(pt, jen.Id(id))
			if err != nil {
				return nil, e.attribute(m, err)
			}
			sig.args = append(sig.args, arg)
			continue
		}

		field := fieldName(p.Name)
		ref := jen.Id("o").Dot(field)
		var value *jen.Statement
		if nilable(pt) {
			// The field is the value; nil means unset.
			fields = append(fields, jen.Id(field).Add(typ))
			if p.Default != nil && *p.Default != "nil" {
				def := jen.Op(*p.Default)
				if pt.Kind == ast.TypeOptional && !nilable(pt.Elem) {
					elem, err := e.g.render.typeCode(pt.Elem, false)
					if err != nil {
						return nil, e.attribute(m, err)
					}
					def = jen.Qual(rt, "Ptr").Types(elem).Call(jen.Op(*p.Default))
				}
				defaults = append(defaults, jen.If(ref.Clone().Op("==").Nil()).Block(
					ref.Clone().Op("=").Add(def),
				))
			}
			value = ref
		} else {
			fields = append(fields, jen.Id(field).Op("*").Add(typ))
			if p.Default != nil {
				value = jen.Qual(rt, "ValueOr").Call(ref, jen.Op(*p.Default))
			} else {
				value = jen.Qual(rt, "Deref").Call(ref)
			}
		}
		arg, err := e.g.render.unwrapCode(pt, value)
		if err != nil {
			return nil, e.attribute(m, err)
		}
		sig.args = append(sig.args, arg)
	}

	if len(fields) == 0 {
		return sig, nil
	}

	sig.options = []jen.Code{
		jen.Comment(optionsType + " holds the optional arguments of " + e.class.Name + "." + method + "."),
		jen.Type().Id(optionsType).Struct(fields...),
		jen.Line(),
	}
	sig.params = append(sig.params, jen.Id("options").Op("...").Id(optionsType))
	sig.prelude = append([]jen.Code{
		jen.Var().Id("o").Id(optionsType),
		jen.If(jen.Len(jen.Id("options")).Op(">").Lit(0)).Block(
			jen.Id("o").Op("=").Id("options").Index(jen.Lit(0)),
		),
	}, defaults...)
	return sig, nil
}
