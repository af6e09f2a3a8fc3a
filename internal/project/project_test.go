package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/ykit-build/internal/model"
)

// writeFile is a test helper that creates a file (and its parents) in dir.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// requireCode asserts that err is a CLIError carrying the given exit code.
func requireCode(t *testing.T, err error, code model.ExitCode) {
	t.Helper()

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr), "expected *model.CLIError, got %T: %v", err, err)
	assert.Equal(t, code, cliErr.Code)
}

func TestFindConfigFile(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{"plain ykit.js", []string{"ykit.js"}, "ykit.js"},
		{"named config", []string{"ykit.config.js"}, "ykit.config.js"},
		{"named config preferred over plain", []string{"ykit.js", "ykit.qunar.js"}, "ykit.qunar.js"},
		{"first named config in lexical order", []string{"ykit.zeta.js", "ykit.alpha.js"}, "ykit.alpha.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				writeFile(t, dir, f, "module.exports = {};\n")
			}

			got, err := FindConfigFile(dir)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, tt.want), got)
		})
	}
}

func TestFindConfigFile_NotFound(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "webpack.config.js", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "ykit.js"), 0755))

	_, err := FindConfigFile(dir)
	require.Error(t, err)
	requireCode(t, err, model.ExitConfigNotFound)
	assert.Contains(t, err.Error(), dir)
	assert.Contains(t, err.Error(), PublishDocURL)
}

func TestCheckDependencyDir(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, CheckDependencyDir(dir))

	require.NoError(t, os.Mkdir(filepath.Join(dir, DependencyDir), 0755))
	err := CheckDependencyDir(dir)
	require.Error(t, err)
	requireCode(t, err, model.ExitDependencyDirPresent)
	assert.Contains(t, err.Error(), PublishDocURL)
}

// TestCheckPreconditions_Order verifies that a missing config file is
// reported before a stray node_modules directory.
func TestCheckPreconditions_Order(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, DependencyDir), 0755))

	_, err := CheckPreconditions(dir)
	requireCode(t, err, model.ExitConfigNotFound)

	writeFile(t, dir, "ykit.js", "")
	_, err = CheckPreconditions(dir)
	requireCode(t, err, model.ExitDependencyDirPresent)

	require.NoError(t, os.Remove(filepath.Join(dir, DependencyDir)))
	configFile, err := CheckPreconditions(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ykit.js"), configFile)
}

func TestLoadOptions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Options
	}{
		{"no ykit block", `{"name": "app"}`, Options{}},
		{"skip cache", `{"name": "app", "ykit": {"skipNpmCache": true}}`, Options{SkipNpmCache: true}},
		{"explicit false", `{"ykit": {"skipNpmCache": false}}`, Options{}},
		{"comments tolerated", "{\n  // build settings\n  \"ykit\": {\"skipNpmCache\": true,},\n}", Options{SkipNpmCache: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "package.json", tt.content)

			got, err := LoadOptions(dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadOptions_MissingPackageJSON(t *testing.T) {
	got, err := LoadOptions(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Options{}, got)
}

func TestLoadOptions_Malformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"ykit": [}`)

	_, err := LoadOptions(dir)
	require.Error(t, err)
	requireCode(t, err, model.ExitInvalidConfig)
}

func TestDetectLockFile(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  model.LockFile
	}{
		{"none", nil, model.LockNone},
		{"yarn", []string{"yarn.lock"}, model.LockYarn},
		{"shrinkwrap", []string{"npm-shrinkwrap.json"}, model.LockShrinkwrap},
		{"yarn wins over shrinkwrap", []string{"npm-shrinkwrap.json", "yarn.lock"}, model.LockYarn},
		{"package-lock is not recognized", []string{"package-lock.json"}, model.LockNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				writeFile(t, dir, f, "")
			}
			assert.Equal(t, tt.want, DetectLockFile(dir))
		})
	}
}

func TestCountPublicRegistryRefs(t *testing.T) {
	dir := t.TempDir()
	lock := writeFile(t, dir, "yarn.lock", `
lodash@^4.17.4:
  version "4.17.4"
  resolved "https://registry.npmjs.org/lodash/-/lodash-4.17.4.tgz"

react@^15.0.0:
  version "15.6.2"
  resolved "https://repo.corp.qunar.com/artifactory/api/npm/npm-qunar/react/-/react-15.6.2.tgz"

moment@^2.18.0:
  version "2.18.1"
  resolved "https://registry.npmjs.org/moment/-/moment-2.18.1.tgz"
`)

	n, err := CountPublicRegistryRefs(lock)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	clean := writeFile(t, dir, "npm-shrinkwrap.json", `{"dependencies": {}}`)
	n, err = CountPublicRegistryRefs(clean)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = CountPublicRegistryRefs(filepath.Join(dir, "missing.lock"))
	assert.Error(t, err)
}
