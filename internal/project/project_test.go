package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trunkline/internal/config"
	"trunkline/internal/testutil"
)

func TestOpen(t *testing.T) {
	fx := testutil.NewGitFixture(t)
	fx.Commit("init", "Alice", map[string]string{"a.txt": "1"})

	dataDir := t.TempDir()
	cfg := &config.Config{LogLevel: "info", LogFormat: "text", DataDir: dataDir}

	repo, err := Open(fx.Dir, cfg)
	require.NoError(t, err)

	p := repo.Project()
	assert.Equal(t, fx.Dir, p.Path)
	assert.Equal(t, filepath.Join(dataDir, "projects", p.ID), p.StateDir)
	assert.Equal(t, p.StateDir, repo.StateDir())
	assert.NotNil(t, repo.Git())

	require.NoError(t, repo.EnsureStateDir())
	info, err := os.Stat(repo.StateDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenNotARepository(t *testing.T) {
	cfg := &config.Config{LogLevel: "info", LogFormat: "text", DataDir: t.TempDir()}
	_, err := Open(t.TempDir(), cfg)
	assert.Error(t, err)
}
