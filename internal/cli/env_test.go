package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebrowser/syncgen/pkg/config"
	"github.com/rebrowser/syncgen/pkg/docs"
	"github.com/rebrowser/syncgen/pkg/errors"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s := Load(NewViper())
		assert.Equal(t, Settings{LogFormat: "console", LogLevel: "warn"}, s)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("SYNCGEN_CONFIG", "policy.toml")
		t.Setenv("SYNCGEN_DOCS", "docs.yaml")
		t.Setenv("SYNCGEN_LOG_FORMAT", "json")
		t.Setenv("SYNCGEN_LOG_LEVEL", "debug")
		s := Load(NewViper())
		assert.Equal(t, Settings{Config: "policy.toml", Docs: "docs.yaml", LogFormat: "json", LogLevel: "debug"}, s)
	})
}

func TestLoadPolicy(t *testing.T) {
	p, err := Settings{}.LoadPolicy()
	require.NoError(t, err)
	assert.Equal(t, config.Default().ContextManagerClasses, p.ContextManagerClasses)

	path := filepath.Join(t.TempDir(), "policy.toml")
	require.NoError(t, os.WriteFile(path, []byte("require_docs = false\n"), 0o644))
	p, err = Settings{Config: path}.LoadPolicy()
	require.NoError(t, err)
	assert.False(t, p.RequireDocs)

	_, err = Settings{Config: filepath.Join(t.TempDir(), "missing.toml")}.LoadPolicy()
	assert.Error(t, err)
}

func TestLoadDocs(t *testing.T) {
	provider, err := Settings{}.LoadDocs()
	require.NoError(t, err)
	_, err = provider.Entry("Page", "goto", docs.Hints{}, false)
	assert.True(t, errors.Is(err, errors.ErrMissingDocumentation), "got %v", err)
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	err := errors.WithHint(errors.New("no input provided"), "usage: syncgen < metadata.json")
	Report(&buf, "syncgen", errors.Wrap(err, "reading"))
	assert.Equal(t, "syncgen: reading: no input provided\n  hint: usage: syncgen < metadata.json\n", buf.String())
}
