// Package project inspects the project directory before a build.
//
// It answers the questions the build asks of the filesystem: is there a
// ykit configuration file, is there a stale node_modules directory, which
// lock file pins the dependencies, and what does the package.json "ykit"
// block say. Nothing in this package writes to disk.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/tidwall/jsonc"

	"github.com/mmr-tortoise/ykit-build/internal/model"
)

// DependencyDir is the directory npm and yarn install packages into.
const DependencyDir = "node_modules"

// Documentation pointers surfaced alongside diagnostics.
const (
	PublishDocURL    = "http://ued.qunar.com/ykit/docs-%E5%8F%91%E5%B8%83.html"
	ShrinkwrapDocURL = "http://ued.qunar.com/ykit/docs-npm%20shrinkwrap.html"
	RegistryDocURL   = "https://ykit.ymfe.org/docs-npm%20shrinkwrap.html"
)

// configPatterns are searched in order; the first match wins.
var configPatterns = []string{"ykit.*.js", "ykit.js"}

// publicRegistryPattern matches references to the default public registry.
var publicRegistryPattern = regexp.MustCompile(`registry\.npmjs\.org`)

// Options is the "ykit" block of package.json. Unknown keys are ignored.
type Options struct {
	// SkipNpmCache opts the project out of the cache-sharing helper.
	SkipNpmCache bool `json:"skipNpmCache,omitempty"`
}

// packageJSON is the subset of package.json the build reads.
type packageJSON struct {
	Ykit *Options `json:"ykit,omitempty"`
}

// FindConfigFile returns the path of the project's ykit configuration file.
//
// The search order is ykit.*.js (e.g. ykit.config.js), then ykit.js.
// Returns a CLIError with ExitConfigNotFound if neither exists.
func FindConfigFile(dir string) (string, error) {
	for _, pattern := range configPatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", fmt.Errorf("invalid config pattern %q: %w", pattern, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if info, statErr := os.Stat(m); statErr == nil && !info.IsDir() {
				return m, nil
			}
		}
	}

	return "", model.NewCLIError(
		model.ExitConfigNotFound,
		fmt.Sprintf("local ykit.js not found in %s (see %s)", dir, PublishDocURL),
	)
}

// CheckDependencyDir fails if node_modules already exists in dir.
// Stale dependencies left on a build host can corrupt the build, so the
// directory must be removed from the repository before building.
func CheckDependencyDir(dir string) error {
	_, err := os.Lstat(filepath.Join(dir, DependencyDir))
	if err == nil {
		return model.NewCLIError(
			model.ExitDependencyDirPresent,
			fmt.Sprintf("found %s in %s which can cause compilation failure; please remove it from your repository (see %s)",
				DependencyDir, dir, PublishDocURL),
		)
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to check %s: %w", DependencyDir, err)
}

// CheckPreconditions runs every pre-install check in order and returns the
// path of the ykit configuration file.
func CheckPreconditions(dir string) (string, error) {
	configFile, err := FindConfigFile(dir)
	if err != nil {
		return "", err
	}
	if err := CheckDependencyDir(dir); err != nil {
		return "", err
	}
	return configFile, nil
}

// LoadOptions reads the "ykit" block from dir/package.json.
//
// A missing package.json or a missing block yields zero Options. Comments and
// trailing commas are tolerated via github.com/tidwall/jsonc.
func LoadOptions(dir string) (Options, error) {
	path := filepath.Join(dir, "package.json")

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Options{}, nil
		}
		return Options{}, fmt.Errorf("failed to read package.json: %w", err)
	}

	var pkg packageJSON
	if err := json.Unmarshal(jsonc.ToJSON(data), &pkg); err != nil {
		return Options{}, model.WrapCLIError(
			model.ExitInvalidConfig,
			fmt.Sprintf("failed to parse %s", path),
			err,
		)
	}
	if pkg.Ykit == nil {
		return Options{}, nil
	}
	return *pkg.Ykit, nil
}

// DetectLockFile returns the lock file present in dir, preferring
// yarn.lock over npm-shrinkwrap.json. LockNone means neither exists.
func DetectLockFile(dir string) model.LockFile {
	for _, lock := range []model.LockFile{model.LockYarn, model.LockShrinkwrap} {
		if info, err := os.Stat(filepath.Join(dir, string(lock))); err == nil && !info.IsDir() {
			return lock
		}
	}
	return model.LockNone
}

// CountPublicRegistryRefs counts references to registry.npmjs.org in the
// file at path. Each one is a package fetched from outside the mirror.
func CountPublicRegistryRefs(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return len(publicRegistryPattern.FindAllIndex(data, -1)), nil
}
