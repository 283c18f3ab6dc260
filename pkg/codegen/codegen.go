// Package codegen generates blocking Go façades from implementation metadata.
//
// Each implementation class becomes a façade struct whose methods call into
// the implementation, block on asynchronous results through the runtime
// bridge, and re-wrap implementation instances in their façades. Output is
// all-or-nothing: any undocumented member or unprojectable type aborts the
// run without code.
package codegen

import (
	"bytes"

	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"

	"github.com/rebrowser/syncgen/pkg/ast"
	"github.com/rebrowser/syncgen/pkg/config"
	"github.com/rebrowser/syncgen/pkg/docs"
	"github.com/rebrowser/syncgen/pkg/errors"
	"github.com/rebrowser/syncgen/pkg/logger"
	"github.com/rebrowser/syncgen/pkg/project"
)

// Header is the first line of every generated file.
const Header = "Code generated by syncgen. DO NOT EDIT."

// Options configures a generation run.
type Options struct {
	// Policy defaults to config.Default().
	Policy *config.Policy
	// Docs is the documentation source. Without one every public member is
	// undocumented, which fails the run unless the policy waives docs.
	Docs docs.Provider
	// Logger defaults to the package logger.
	Logger *zap.SugaredLogger
}

// Result contains the generated code and any warnings.
type Result struct {
	Code     string
	Warnings []string
	Skipped  []SkippedMember
	Classes  int
}

// SkippedMember records a member that was deliberately not emitted.
type SkippedMember struct {
	Class  string
	Member string
	Reason string
}

// Generate produces the façade source for every class of file, in input
// order.
func Generate(file *ast.File, opts Options) (*Result, error) {
	if err := file.Validate(); err != nil {
		return nil, err
	}

	policy := opts.Policy
	if policy == nil {
		policy = config.Default()
	}
	provider := opts.Docs
	if provider == nil {
		provider = docs.Static(nil)
	}
	if !policy.RequireDocs {
		provider = docs.Permissive(provider)
	}
	log := opts.Logger
	if log == nil {
		log = logger.Named("codegen")
	}

	projector := project.New(file.ClassNames(), policy.ImplSuffix)
	g := &generator{
		file:   file,
		policy: policy,
		docs:   provider,
		log:    log,
		render: &renderer{
			runtime:    policy.RuntimeImport,
			implImport: file.ImplImport,
			implSuffix: policy.ImplSuffix,
			projector:  projector,
		},
		projector: projector,
		warnings:  []string{},
		skipped:   []SkippedMember{},
	}
	return g.generate()
}

type generator struct {
	file      *ast.File
	policy    *config.Policy
	docs      docs.Provider
	log       *zap.SugaredLogger
	render    *renderer
	projector *project.Projector
	warnings  []string
	skipped   []SkippedMember
}

func (g *generator) generate() (*Result, error) {
	f := jen.NewFile(g.file.Package)
	f.HeaderComment(Header)
	f.ImportName(g.policy.RuntimeImport, "runtime")
	if g.file.ImplImport != "" {
		f.ImportAlias(g.file.ImplImport, "impl")
	}

	var binders []jen.Code
	for i := range g.file.Classes {
		class := &g.file.Classes[i]
		e := newClassEmitter(g, class)
		code, err := e.emit()
		if err != nil {
			return nil, err
		}
		for _, c := range code {
			f.Add(c)
		}
		binders = append(binders, jen.Id(bindName(class.Name)))
		g.log.Debugw("emitted class", logger.FieldClass, class.Name, logger.FieldState, e.state.String())
	}

	g.generateRegister(f, binders)
	g.generateRemainder(f)

	buf := &bytes.Buffer{}
	if err := f.Render(buf); err != nil {
		return nil, errors.Wrap(err, "rendering façade source")
	}

	return &Result{
		Code:     buf.String(),
		Warnings: g.warnings,
		Skipped:  g.skipped,
		Classes:  len(g.file.Classes),
	}, nil
}

// generateRegister emits the package-level function binding every façade
// in input order.
func (g *generator) generateRegister(f *jen.File, binders []jen.Code) {
	rt := g.policy.RuntimeImport
	f.Comment("Register binds every façade of this package into r.")
	f.Func().Id("Register").Params(jen.Id("r").Op("*").Qual(rt, "Registry")).Error().Block(
		jen.For(jen.List(jen.Id("_"), jen.Id("bind")).Op(":=").Range().Index().Qual(rt, "Binder").Values(binders...)).Block(
			jen.If(jen.Err().Op(":=").Id("bind").Call(jen.Id("r")), jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Err()),
			),
		),
		jen.Return(jen.Nil()),
	)
}

// generateRemainder appends what the documentation source knew about but was
// never asked for.
func (g *generator) generateRemainder(f *jen.File) {
	lines := g.docs.Remainder()
	if len(lines) == 0 {
		return
	}
	f.Line()
	for _, l := range lines {
		f.Comment(l)
		g.warnings = append(g.warnings, l)
	}
}

func (g *generator) skip(class, member, reason string) {
	g.log.Infow("skipped member", logger.FieldClass, class, logger.FieldMember, member, logger.FieldReason, reason)
	if g.policy.InternalPolicy == config.InternalReport {
		g.skipped = append(g.skipped, SkippedMember{Class: class, Member: member, Reason: reason})
	}
}

func bindName(class string) string { return "bind" + class }

func constructorName(class string) string { return "new" + class }
