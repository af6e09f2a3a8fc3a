package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/ykit-build/internal/model"
)

func TestLoad_DefaultsWhenFileAbsent(t *testing.T) {
	s, err := Load("", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

// TestLoad_ProjectFileOverrides verifies that values in the project-level
// settings file replace defaults while omitted keys keep them.
func TestLoad_ProjectFileOverrides(t *testing.T) {
	dir := t.TempDir()
	content := "registry: https://registry.example.com/npm\nbundler: /opt/ykit/bin/ykit\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))

	s, err := Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, "https://registry.example.com/npm", s.Registry)
	assert.Equal(t, "/opt/ykit/bin/ykit", s.Bundler)
	assert.Equal(t, DefaultNodeBinDir, s.NodeBinDir)
	assert.Equal(t, DefaultCacheHelper, s.CacheHelper)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), t.TempDir())
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitInvalidConfig, cliErr.Code)
}

// TestLoad_UnknownKeyRejected guards against typos silently falling back
// to defaults.
func TestLoad_UnknownKeyRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("regsitry: https://x\n"), 0644))

	_, err := Load(path, t.TempDir())
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitInvalidConfig, cliErr.Code)
}

func TestParse_EmptyDocument(t *testing.T) {
	s, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Settings{}, s)
}

func TestSettings_Apply(t *testing.T) {
	cfg := &model.BuildConfig{WorkingDir: "/src/app", Minify: true}
	Default().Apply(cfg)

	assert.Equal(t, DefaultRegistry, cfg.Registry)
	assert.Equal(t, DefaultNodeBinDir, cfg.NodeBinDir)
	assert.Equal(t, DefaultCacheHelper, cfg.CacheHelper)
	assert.Equal(t, DefaultBundler, cfg.Bundler)
	assert.Equal(t, "/src/app", cfg.WorkingDir, "Apply must not touch run-specific fields")
}
