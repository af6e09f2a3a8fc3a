// Package settings loads the optional ykit-build settings file.
//
// Every setting has a built-in default matching the company build hosts,
// so the file is only needed on machines with a different layout. The file
// is YAML and parsed with gopkg.in/yaml.v3; unknown keys are rejected so a
// typo does not silently fall back to a default.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/ykit-build/internal/model"
)

// FileName is the settings file looked up in the project root when no
// explicit path is given.
const FileName = ".ykit-build.yaml"

const (
	// DefaultRegistry is the private npm mirror every install points at.
	DefaultRegistry = "https://repo.corp.qunar.com/artifactory/api/npm/npm-qunar"

	// DefaultNodeBinDir pins node 6.2.1 as installed by `n`.
	DefaultNodeBinDir = "/usr/local/n/versions/node/6.2.1/bin"

	// DefaultCacheHelper is the cache-sharing install helper.
	DefaultCacheHelper = "npm_cache_share"

	// DefaultBundler is the external packer.
	DefaultBundler = "ykit"
)

// Settings holds host-specific values that shape the commands a build runs.
type Settings struct {
	// Registry is passed as --registry to every install command.
	Registry string `yaml:"registry"`

	// NodeBinDir is prepended to PATH unless NODE_VER is set.
	NodeBinDir string `yaml:"nodeBinDir"`

	// CacheHelper is the executable probed and used for cache-shared installs.
	CacheHelper string `yaml:"cacheHelper"`

	// Bundler is the executable used for version display and packing.
	Bundler string `yaml:"bundler"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Registry:    DefaultRegistry,
		NodeBinDir:  DefaultNodeBinDir,
		CacheHelper: DefaultCacheHelper,
		Bundler:     DefaultBundler,
	}
}

// Load resolves the settings for a run.
//
// If path is non-empty the file must exist. Otherwise FileName is looked up
// in projectDir and silently skipped when absent. Values present in the file
// override the defaults; empty values keep them.
func Load(path, projectDir string) (Settings, error) {
	s := Default()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(projectDir, FileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, model.WrapCLIError(model.ExitInvalidConfig,
			fmt.Sprintf("failed to read settings file %s", path), err)
	}

	override, err := Parse(data)
	if err != nil {
		return s, model.WrapCLIError(model.ExitInvalidConfig,
			fmt.Sprintf("failed to parse settings file %s", path), err)
	}

	s.merge(override)
	return s, nil
}

// Parse decodes a settings document without applying defaults.
// An empty document yields zero Settings.
func Parse(data []byte) (Settings, error) {
	var s Settings

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, err
	}
	return s, nil
}

// Apply copies the settings into a BuildConfig.
func (s Settings) Apply(cfg *model.BuildConfig) {
	cfg.Registry = s.Registry
	cfg.NodeBinDir = s.NodeBinDir
	cfg.CacheHelper = s.CacheHelper
	cfg.Bundler = s.Bundler
}

func (s *Settings) merge(o Settings) {
	if o.Registry != "" {
		s.Registry = o.Registry
	}
	if o.NodeBinDir != "" {
		s.NodeBinDir = o.NodeBinDir
	}
	if o.CacheHelper != "" {
		s.CacheHelper = o.CacheHelper
	}
	if o.Bundler != "" {
		s.Bundler = o.Bundler
	}
}
