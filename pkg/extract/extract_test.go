package extract_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebrowser/syncgen/pkg/ast"
	"github.com/rebrowser/syncgen/pkg/codegen"
	"github.com/rebrowser/syncgen/pkg/docs"
	"github.com/rebrowser/syncgen/pkg/errors"
	"github.com/rebrowser/syncgen/pkg/extract"
)

const samplePath = "github.com/rebrowser/syncgen/internal/sample/impl"

var sampleDir = filepath.Join("..", "..", "internal", "sample", "impl")

func extractSample(t *testing.T) *ast.File {
	t.Helper()
	file, err := extract.Package(samplePath, extract.Options{
		Operators: map[string]string{"Nth": "__getitem__"},
	})
	require.NoError(t, err)
	return file
}

func TestPackageMatchesCheckedInMetadata(t *testing.T) {
	data, err := os.ReadFile(filepath.Join(sampleDir, "testdata", "metadata.json"))
	require.NoError(t, err)
	want, err := ast.ParseBytes(data)
	require.NoError(t, err)

	assert.Equal(t, want, extractSample(t))
}

func TestPackageShapes(t *testing.T) {
	file, err := extract.Package("./testdata/embedded", extract.Options{Package: "nodes"})
	require.NoError(t, err)

	assert.Equal(t, "nodes", file.Package)
	assert.Equal(t, []string{"Node", "Leaf", "ValueLeaf"}, file.ClassNames())

	leaf := file.Classes[1]
	assert.Equal(t, "Node", leaf.Base)
	assert.True(t, leaf.BasePointer)
	assert.False(t, file.Classes[2].BasePointer)
	assert.Equal(t, "object", file.Classes[0].Base)

	types := map[string]*ast.TypeRef{}
	for _, m := range leaf.Members {
		types[m.Name] = m.ValueType()
	}
	tests := []struct {
		member string
		want   *ast.TypeRef
	}{
		{"Created", ast.Scalar("time.Time")},
		{"Settings", ast.Scalar("Options")},
		{"Ready", ast.Pending(ast.Scalar("bool"))},
		{"Children", ast.Sequence(ast.ClassRef("Node"))},
		{"Tags", ast.Mapping(ast.Scalar("string"), ast.Sequence(ast.Scalar("string")))},
		{"Rename", ast.ClassRef("Leaf")},
		{"Note", ast.Scalar("string")},
	}
	for _, tt := range tests {
		t.Run(tt.member, func(t *testing.T) {
			got, ok := types[tt.member]
			require.True(t, ok, "member %s not extracted", tt.member)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}

	_, hidden := types["note"]
	assert.False(t, hidden, "unexported fields stay hidden")

	rename := leaf.Members[len(leaf.Members)-2]
	require.Equal(t, "Rename", rename.Name)
	require.Len(t, rename.Params, 2)
	assert.False(t, rename.Params[0].IsOption())
	assert.True(t, rename.Params[1].Keyword)

	note := leaf.Members[len(leaf.Members)-1]
	assert.Equal(t, ast.KindProperty, note.Kind)
	assert.False(t, note.Inherited)
	assert.True(t, note.Fallible)
}

func TestPackageFailures(t *testing.T) {
	tests := []struct {
		dir    string
		class  string
		member string
		reason string
	}{
		{"./testdata/chanfield", "Worker", "Jobs", "no metadata equivalent"},
		{"./testdata/asyncfallible", "Job", "Start", "cannot also return an error"},
		{"./testdata/multiresult", "Pair", "Both", "more than one result"},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			_, err := extract.Package(tt.dir, extract.Options{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrUnprojectableType), "got %v", err)

			var ute *errors.UnprojectableTypeError
			require.True(t, errors.As(err, &ute))
			assert.Equal(t, tt.class, ute.Class)
			assert.Equal(t, tt.member, ute.Member)
			assert.Contains(t, ute.Reason, tt.reason)
		})
	}

	_, err := extract.Package("./testdata/does-not-exist", extract.Options{})
	assert.Error(t, err)
}

// The extracted sample feeds the generator end to end and yields the
// checked-in façade.
func TestSampleGeneratesCheckedInFacade(t *testing.T) {
	provider, err := docs.Load(filepath.Join(sampleDir, "testdata", "docs.yaml"))
	require.NoError(t, err)

	result, err := codegen.Generate(extractSample(t), codegen.Options{Docs: provider})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	checkedIn, err := os.ReadFile(filepath.Join("..", "..", "internal", "sample", "facade", "facade.go"))
	require.NoError(t, err)
	normalize := func(s string) string { return strings.Join(strings.Fields(s), " ") }
	assert.Equal(t, normalize(string(checkedIn)), normalize(result.Code))
}
