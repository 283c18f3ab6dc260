package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebrowser/syncgen/pkg/ast"
	"github.com/rebrowser/syncgen/pkg/errors"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{}, args...)) // nil would fall back to os.Args
	err := cmd.Execute()
	return out.String(), err
}

func TestWritesSampleMetadata(t *testing.T) {
	sample := filepath.Join("..", "..", "internal", "sample", "impl")
	out, err := execute(t, "--operator", "Nth=__getitem__", "-C", sample, ".")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{\n  \"version\": 1,\n"), "got %.40q", out)
	assert.True(t, strings.HasSuffix(out, "}\n"))

	got, err := ast.ParseBytes([]byte(out))
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(sample, "testdata", "metadata.json"))
	require.NoError(t, err)
	want, err := ast.ParseBytes(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPackageFlag(t *testing.T) {
	out, err := execute(t, "--package", "nodes", "-C", filepath.Join("..", "..", "pkg", "extract"), "./testdata/embedded")
	require.NoError(t, err)
	file, err := ast.ParseBytes([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "nodes", file.Package)
}

func TestFailures(t *testing.T) {
	t.Run("no import path", func(t *testing.T) {
		out, err := execute(t)
		assert.ErrorContains(t, err, "accepts 1 arg(s)")
		assert.Empty(t, out)
	})

	t.Run("unprojectable member", func(t *testing.T) {
		out, err := execute(t, "-C", filepath.Join("..", "..", "pkg", "extract"), "./testdata/chanfield")
		assert.True(t, errors.Is(err, errors.ErrUnprojectableType), "got %v", err)
		assert.Empty(t, out)
	})
}
