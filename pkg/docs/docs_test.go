package docs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebrowser/syncgen/pkg/ast"
	"github.com/rebrowser/syncgen/pkg/errors"
)

const sampleYAML = `
classes:
  Page:
    comment: |
      Page is a single tab.
      It emits events.
    events:
      - name: close
        type: Page
        comment: Emitted when the page closes.
    members:
      Goto:
        comment: Goto navigates to url.
        params:
          url: URL to navigate to.
          referer: Stale parameter.
      title:
        comment: Title returns the page title.
      url:
        comment: URL of the page.
      Unused:
        comment: Never generated.
  Dialog:
    comment: Never generated either.
`

func parseSample(t *testing.T) Provider {
	t.Helper()
	p, err := Parse(strings.NewReader(sampleYAML))
	require.NoError(t, err)
	return p
}

func TestEntry(t *testing.T) {
	p := parseSample(t)

	tests := []struct {
		name       string
		member     string
		hints      Hints
		isProperty bool
		want       []string
	}{
		{
			name:   "method with parameter notes",
			member: "Goto",
			hints: Hints{
				Params: []Param{{Name: "url", Type: ast.Scalar("string")}, {Name: "timeout", Type: ast.Scalar("float64")}},
				Return: ast.ClassRef("Response"),
			},
			want: []string{
				"Goto navigates to url.",
				"",
				"Parameters:",
				"  - url: URL to navigate to.",
			},
		},
		{
			name:   "case-insensitive key",
			member: "Title",
			want:   []string{"Title returns the page title."},
		},
		{
			name:       "property ignores parameters",
			member:     "url",
			isProperty: true,
			want:       []string{"URL of the page."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Entry("Page", tt.member, tt.hints, tt.isProperty)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEntryMissing(t *testing.T) {
	p := parseSample(t)

	for _, tc := range []struct{ class, member string }{
		{"Page", "Reload"},
		{"Frame", "Goto"},
	} {
		_, err := p.Entry(tc.class, tc.member, Hints{}, false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrMissingDocumentation))

		var missing *errors.MissingDocumentationError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, tc.class, missing.Class)
		assert.Equal(t, tc.member, missing.Member)
	}
}

func TestEvents(t *testing.T) {
	p := parseSample(t)

	assert.Equal(t, []string{
		"Page is a single tab.",
		"It emits events.",
		"",
		"Events:",
		"  - close (Page): Emitted when the page closes.",
	}, p.Events("Page"))
	assert.Nil(t, p.Events("Frame"))
}

func TestRemainder(t *testing.T) {
	p := parseSample(t)

	p.Events("Page")
	_, err := p.Entry("Page", "Goto", Hints{Params: []Param{{Name: "url"}}}, false)
	require.NoError(t, err)
	_, err = p.Entry("Page", "title", Hints{}, false)
	require.NoError(t, err)
	_, err = p.Entry("Page", "url", Hints{}, true)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Class not implemented: Dialog",
		"Method not implemented: Page.Unused",
		"Parameter not implemented: Page.Goto(referer)",
	}, p.Remainder())
}

func TestPermissive(t *testing.T) {
	p := Permissive(parseSample(t))

	lines, err := p.Entry("Page", "Reload", Hints{}, false)
	require.NoError(t, err)
	assert.Empty(t, lines)

	lines, err = p.Entry("Page", "title", Hints{}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Title returns the page title."}, lines)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse(strings.NewReader("classes:\n  Page:\n    summary: nope\n"))
	assert.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	p, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, p.Remainder())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, p.Events("Page"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestHintsFor(t *testing.T) {
	def := "30"
	m := &ast.Member{
		Kind:    ast.KindMethod,
		Name:    "Goto",
		Params:  []ast.Param{{Name: "url", Type: ast.Scalar("string")}, {Name: "timeout", Type: ast.Scalar("int"), Default: &def}},
		Returns: ast.ClassRef("Response"),
	}
	h := HintsFor(m)
	require.Len(t, h.Params, 2)
	assert.Equal(t, "timeout", h.Params[1].Name)
	assert.True(t, h.Return.Equal(ast.ClassRef("Response")))

	prop := &ast.Member{Kind: ast.KindProperty, Name: "url", Type: ast.Scalar("string")}
	assert.Empty(t, HintsFor(prop).Params)
}
