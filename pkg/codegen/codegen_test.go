package codegen_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebrowser/syncgen/pkg/ast"
	"github.com/rebrowser/syncgen/pkg/codegen"
	"github.com/rebrowser/syncgen/pkg/config"
	"github.com/rebrowser/syncgen/pkg/docs"
	"github.com/rebrowser/syncgen/pkg/errors"
)

func loadFixture(t *testing.T) (*ast.File, docs.Provider) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "metadata.json"))
	require.NoError(t, err)
	file, err := ast.ParseBytes(data)
	require.NoError(t, err)

	provider, err := docs.Load(filepath.Join("testdata", "docs.yaml"))
	require.NoError(t, err)
	return file, provider
}

func generateFixture(t *testing.T, policy *config.Policy) *codegen.Result {
	t.Helper()
	file, provider := loadFixture(t)
	result, err := codegen.Generate(file, codegen.Options{Policy: policy, Docs: provider})
	require.NoError(t, err)
	return result
}

// normalizeWhitespace collapses all whitespace runs so snippets can be
// matched regardless of gofmt alignment.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestGenerateFixture(t *testing.T) {
	result := generateFixture(t, nil)
	code := normalizeWhitespace(result.Code)

	tests := []struct {
		name string
		want string
	}{
		{"header", "// Code generated by syncgen. DO NOT EDIT."},
		{"package", "package facade"},
		{"impl import", `impl "example.com/driver/impl"`},

		{"generic base", "type Baz struct { runtime.SyncBase impl *impl.BazImpl }"},
		{"generic constructor", "func newBaz(b runtime.SyncBase, o *impl.BazImpl) *Baz { return &Baz{SyncBase: b, impl: o} }"},
		{"impl accessor", "func (x *Baz) Impl() *impl.BazImpl { return x.impl }"},
		{"context manager base", "type Page struct { runtime.SyncContextManager impl *impl.PageImpl }"},
		{"context manager constructor", "return &Page{SyncContextManager: runtime.NewSyncContextManager(b), impl: o}"},
		{"pass-through base", "type ElementHandle struct { JSHandle impl *impl.ElementHandleImpl }"},
		{"pass-through constructor", "return &ElementHandle{JSHandle: *newJSHandle(b, &o.JSHandleImpl), impl: o}"},

		{"inherited property", "func (x *Baz) Label() string { return x.impl.Label }"},
		{"class property", "func (x *Foo) Owner() *Baz { return runtime.Wrap[*Baz](x, x.impl.Owner) }"},
		{"plain sync method", "func (x *Baz) Value() int { return x.impl.Value() }"},

		{"async class result", "func (x *Foo) Bar(x_ int) (*Baz, error) { v, err := runtime.Run(x, x.impl.Bar(x_)) if err != nil { return nil, err } return runtime.Wrap[*Baz](x, v), nil }"},
		{"async void", "func (x *Foo) Close() error { return runtime.RunVoid(x, x.impl.Close()) }"},
		{"async unwrapped value", "func (x *JSHandle) Evaluate(expression string) (any, error) { return runtime.Run(x, x.impl.Evaluate(expression)) }"},
		{"async scalar map", "func (x *Page) Headers() (map[string]string, error) { return runtime.Run(x, x.impl.Headers()) }"},
		{"async class map", "return runtime.WrapMap[*ElementHandle](x, v), nil"},
		{"fallible sequence", "func (x *Foo) Bazes() ([]*Baz, error) { v, err := x.impl.Bazes() if err != nil { return nil, err } return runtime.WrapSlice[*Baz](x, v), nil }"},
		{"class argument", "func (x *Foo) Adopt(baz *Baz) { x.impl.Adopt(runtime.Unwrap[*impl.BazImpl](baz)) }"},
		{"qualified scalar", "func (x *Page) Timeout() time.Duration { return x.impl.Timeout() }"},

		{"options struct", "type FooGotoOptions struct { Timeout *float64 Referer *string }"},
		{"options method", "func (x *Foo) Goto(url string, options ...FooGotoOptions) (*Baz, error) { var o FooGotoOptions if len(options) > 0 { o = options[0] }"},
		{"options call", "runtime.Run(x, x.impl.Goto(url, runtime.ValueOr(o.Timeout, 30000), o.Referer))"},

		{"async event helper", "func (x *Foo) WaitForEvent(event string) *runtime.EventContextManager[*Baz] { return runtime.ExpectAsync[*Baz](x, x.impl.WaitForEvent(event)) }"},
		{"sync event helper", "func (x *Page) ExpectPopup() *runtime.EventContextManager[*Page] { return runtime.Expect[*Page](x, x.impl.ExpectPopup()) }"},
		{"allow-listed internal", "func (x *Foo) Nth(index int) *Baz { return runtime.Wrap[*Baz](x, x.impl.Nth(index)) }"},
		{"assertion marker", "func (x *PageAssertions) ToHaveTitle(title string) error { x.TB().Helper() return runtime.RunVoid(x, x.impl.ToHaveTitle(title)) }"},

		{"registration", "func bindFoo(r *runtime.Registry) error { return runtime.Register(r, newFoo) }"},
		{"register all", "range []runtime.Binder{bindBaz, bindFoo, bindJSHandle, bindElementHandle, bindPage, bindPageAssertions}"},

		{"class comment", "// Foo owns bazes."},
		{"class events", "- baz (Baz): Emitted when a baz appears."},
		{"default class comment", "// JSHandle is the blocking façade over JSHandleImpl."},
		{"member comment", "// Bar returns the baz numbered x."},
		{"remainder", "// Class not implemented: Dialog"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, code, normalizeWhitespace(tt.want))
		})
	}

	assert.Equal(t, 6, result.Classes)
	assert.Equal(t, []string{"Class not implemented: Dialog"}, result.Warnings)
}

func TestGenerateCardinality(t *testing.T) {
	file, _ := loadFixture(t)
	result := generateFixture(t, nil)

	assert.Equal(t, len(file.Classes), strings.Count(result.Code, "runtime.Register(r, new"))
	for _, c := range file.Classes {
		assert.Contains(t, result.Code, "type "+c.Name+" struct")
		assert.Equal(t, 1, strings.Count(result.Code, "func bind"+c.Name+"("), c.Name)
	}
}

func TestGenerateNeverEmitsInternals(t *testing.T) {
	code := generateFixture(t, nil).Code

	for _, hidden := range []string{"_impl_obj", "ImplObj", "_dispatch", "Dispatch", "RemoveListener", "remove_listener", "__getitem__"} {
		assert.NotContains(t, code, hidden)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	first := generateFixture(t, nil).Code
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, generateFixture(t, nil).Code)
	}
}

func TestGenerateReportsSkippedMembers(t *testing.T) {
	policy := config.Default()
	policy.InternalPolicy = config.InternalReport

	result := generateFixture(t, policy)
	assert.Equal(t, []codegen.SkippedMember{
		{Class: "Baz", Member: "_impl_obj", Reason: "internal"},
		{Class: "Foo", Member: "_dispatch", Reason: "internal"},
		{Class: "Foo", Member: "remove_listener", Reason: "excluded"},
	}, result.Skipped)

	assert.Empty(t, generateFixture(t, nil).Skipped)
}

func TestGenerateMissingDocumentation(t *testing.T) {
	file, _ := loadFixture(t)
	provider := docs.Static(map[string]*docs.Class{
		"Baz": {Members: map[string]*docs.Member{"Label": {Comment: "Label."}}},
	})

	result, err := codegen.Generate(file, codegen.Options{Docs: provider})
	require.Error(t, err)
	assert.Nil(t, result, "no partial output")
	assert.True(t, errors.Is(err, errors.ErrMissingDocumentation))

	var missing *errors.MissingDocumentationError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "Baz", missing.Class)
	assert.Equal(t, "Value", missing.Member)

	policy := config.Default()
	policy.RequireDocs = false
	result, err = codegen.Generate(file, codegen.Options{Policy: policy, Docs: provider})
	require.NoError(t, err)
	assert.Contains(t, result.Code, "func (x *Baz) Value() int")
}

func newFile(classes ...ast.Class) *ast.File {
	return &ast.File{Version: ast.SchemaVersion, Package: "facade", ImplImport: "example.com/impl", Classes: classes}
}

func method(name string, returns *ast.TypeRef, async bool) ast.Member {
	return ast.Member{Kind: ast.KindMethod, Name: name, Returns: returns, Async: async}
}

func permissive() codegen.Options {
	policy := config.Default()
	policy.RequireDocs = false
	return codegen.Options{Policy: policy}
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name     string
		file     *ast.File
		sentinel error
		member   string
	}{
		{
			name: "unknown class reference",
			file: newFile(ast.Class{Name: "Foo", Base: "object", Members: []ast.Member{
				method("Bar", ast.ClassRef("Nope"), true),
			}}),
			sentinel: errors.ErrUnprojectableType,
			member:   "Bar",
		},
		{
			name: "unknown class in a parameter",
			file: newFile(ast.Class{Name: "Foo", Base: "object", Members: []ast.Member{
				{Kind: ast.KindMethod, Name: "Take", Params: []ast.Param{{Name: "n", Type: ast.Sequence(ast.ClassRef("Nope"))}}},
			}}),
			sentinel: errors.ErrUnprojectableType,
			member:   "Take",
		},
		{
			name: "event helper without a pending result",
			file: newFile(ast.Class{Name: "Foo", Base: "object", Members: []ast.Member{
				method("expect_thing", ast.Scalar("int"), true),
			}}),
			sentinel: errors.ErrUnprojectableType,
			member:   "expect_thing",
		},
		{
			name: "class-typed mapping key",
			file: newFile(ast.Class{Name: "Foo", Base: "object", Members: []ast.Member{
				method("Index", ast.Mapping(ast.ClassRef("Foo"), ast.Scalar("int")), false),
			}}),
			sentinel: errors.ErrUnprojectableType,
			member:   "Index",
		},
		{
			name: "pending inside a sequence",
			file: newFile(ast.Class{Name: "Foo", Base: "object", Members: []ast.Member{
				method("Batch", ast.Sequence(ast.Pending(ast.Scalar("int"))), false),
			}}),
			sentinel: errors.ErrUnprojectableType,
			member:   "Batch",
		},
		{
			name: "pending inside an optional result",
			file: newFile(ast.Class{Name: "Foo", Base: "object", Members: []ast.Member{
				method("Maybe", ast.Optional(ast.Pending(ast.ClassRef("Foo"))), true),
			}}),
			sentinel: errors.ErrUnprojectableType,
			member:   "Maybe",
		},
		{
			name: "pending parameter",
			file: newFile(ast.Class{Name: "Foo", Base: "object", Members: []ast.Member{
				{Kind: ast.KindMethod, Name: "Feed", Params: []ast.Param{{Name: "n", Type: ast.Pending(ast.Scalar("int"))}}},
			}}),
			sentinel: errors.ErrUnprojectableType,
			member:   "Feed",
		},
		{
			name: "pass-through base without façade",
			file: newFile(ast.Class{Name: "Foo", Base: "Missing"}),
			sentinel: errors.ErrUnprojectableType,
		},
		{
			name:     "unsupported metadata version",
			file:     &ast.File{Version: 2, Package: "facade"},
			sentinel: errors.ErrInvalidMetadata,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := codegen.Generate(tt.file, permissive())
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)

			var ute *errors.UnprojectableTypeError
			if tt.member != "" && errors.As(err, &ute) {
				assert.Equal(t, "Foo", ute.Class)
				assert.Equal(t, tt.member, ute.Member)
			}
		})
	}
}

func TestGenerateNameCollisions(t *testing.T) {
	reserved := newFile(ast.Class{Name: "Foo", Base: "object", Members: []ast.Member{
		method("use", nil, true),
	}})
	_, err := codegen.Generate(reserved, permissive())
	assert.ErrorContains(t, err, "reserved")

	duplicate := newFile(ast.Class{Name: "Foo", Base: "object", Members: []ast.Member{
		{Kind: ast.KindProperty, Name: "base_url", Type: ast.Scalar("string")},
		method("BaseUrl", ast.Scalar("string"), false),
	}})
	_, err = codegen.Generate(duplicate, permissive())
	assert.ErrorContains(t, err, "already used")
}

func TestGeneratePendingShapes(t *testing.T) {
	file := newFile(ast.Class{Name: "Foo", Base: "object", Members: []ast.Member{
		{Kind: ast.KindProperty, Name: "Ready", Type: ast.Pending(ast.Scalar("bool")), Inherited: true},
		method("Next", ast.Pending(ast.ClassRef("Foo")), false),
		method("Later", ast.Pending(ast.Scalar("int")), true),
		{Kind: ast.KindMethod, Name: "Open", Returns: ast.Pending(ast.ClassRef("Foo")), Fallible: true},
		{Kind: ast.KindMethod, Name: "Count", Returns: ast.Scalar("int"), Fallible: true},
		{Kind: ast.KindMethod, Name: "Reset", Fallible: true},
	}})

	result, err := codegen.Generate(file, permissive())
	require.NoError(t, err)
	code := normalizeWhitespace(result.Code)

	for _, want := range []string{
		"func (x *Foo) Ready() (bool, error) { return runtime.Await(x, x.impl.Ready) }",
		"func (x *Foo) Next() (*Foo, error) { v, err := runtime.Await(x, x.impl.Next()) if err != nil { return nil, err } return runtime.Wrap[*Foo](x, v), nil }",
		"func (x *Foo) Later() (int, error) { fut, err := runtime.Run(x, x.impl.Later()) if err != nil { return 0, err } return runtime.Await(x, fut) }",
		"func (x *Foo) Open() (*Foo, error) { fut, err := x.impl.Open() if err != nil { return nil, err } v, err := runtime.Await(x, fut)",
		"func (x *Foo) Count() (int, error) { return x.impl.Count() }",
		"func (x *Foo) Reset() error { return x.impl.Reset() }",
	} {
		assert.Contains(t, code, normalizeWhitespace(want))
	}
}

func TestGenerateCustomRuntimeImport(t *testing.T) {
	policy, err := config.Parse(`
runtime_import = "example.com/forked/runtime"
require_docs = false
`)
	require.NoError(t, err)

	file := newFile(ast.Class{Name: "Foo", Base: "object", Members: []ast.Member{method("Ping", nil, true)}})
	result, err := codegen.Generate(file, codegen.Options{Policy: policy})
	require.NoError(t, err)
	assert.Contains(t, result.Code, `"example.com/forked/runtime"`)
	assert.NotContains(t, result.Code, config.DefaultRuntimeImport)
}

func TestGenerateOptionDefaults(t *testing.T) {
	def := func(s string) *string { return &s }
	file := newFile(ast.Class{Name: "Foo", Base: "object", Members: []ast.Member{
		{Kind: ast.KindMethod, Name: "Click", Async: true, Params: []ast.Param{
			{Name: "selector", Type: ast.Scalar("string")},
			{Name: "timeout", Type: ast.Optional(ast.Scalar("float64")), Keyword: true, Default: def("30000")},
			{Name: "modifiers", Type: ast.Sequence(ast.Scalar("string")), Default: def(`[]string{"Shift"}`)},
			{Name: "force", Type: ast.Scalar("bool"), Keyword: true},
		}},
	}})

	result, err := codegen.Generate(file, permissive())
	require.NoError(t, err)
	code := normalizeWhitespace(result.Code)

	for _, want := range []string{
		"type FooClickOptions struct { Timeout *float64 Modifiers []string Force *bool }",
		"func (x *Foo) Click(selector string, options ...FooClickOptions) error {",
		"if o.Timeout == nil { o.Timeout = runtime.Ptr[float64](30000) }",
		`if o.Modifiers == nil { o.Modifiers = []string{"Shift"} }`,
		"return runtime.RunVoid(x, x.impl.Click(selector, o.Timeout, o.Modifiers, runtime.Deref(o.Force)))",
	} {
		assert.Contains(t, code, normalizeWhitespace(want))
	}
}
