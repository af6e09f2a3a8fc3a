// Package installer decides how a project's dependencies get installed.
//
// The decision depends on two facts: which lock file the project carries
// (yarn.lock, then npm-shrinkwrap.json, then none) and whether the
// cache-sharing helper is usable. A project without a lock file always gets
// plain npm. A project with a lock file gets the helper when it is installed
// on the host and not disabled via "ykit": {"skipNpmCache": true} in
// package.json, and the lock file's own package manager otherwise.
package installer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/mmr-tortoise/ykit-build/internal/model"
	"github.com/mmr-tortoise/ykit-build/internal/project"
	"github.com/mmr-tortoise/ykit-build/internal/shell"
)

// Plan is the outcome of installer selection.
type Plan struct {
	// Choice is the installer that will run.
	Choice model.InstallerChoice `json:"choice"`

	// Manager is the package manager underneath the choice (yarn or npm).
	// It equals Choice unless the cache helper is used.
	Manager model.InstallerChoice `json:"manager"`

	// LockFile is the lock file that drove the decision, if any.
	LockFile model.LockFile `json:"lockFile,omitempty"`

	// PublicRegistryRefs counts lock file entries resolved from the public
	// registry instead of the mirror.
	PublicRegistryRefs int `json:"publicRegistryRefs,omitempty"`

	// Command is the install command to execute.
	Command model.Command `json:"command"`
}

// Describe returns the human readable installer description, e.g.
// "npm_cache_share + yarn".
func (p *Plan) Describe() string {
	if p.Choice == model.InstallerCacheShare {
		return fmt.Sprintf("%s + %s", p.Choice, p.Manager)
	}
	return p.Manager.String()
}

// Choose maps a lock file and helper availability onto an installer.
func Choose(lock model.LockFile, cacheShareAvailable bool) model.InstallerChoice {
	if lock == model.LockNone {
		return model.InstallerNpm
	}
	if cacheShareAvailable {
		return model.InstallerCacheShare
	}
	return lock.PackageManager()
}

// InstallCommand builds the install command for a choice. Every installer
// is pointed at the private registry; the cache helper additionally gets -d
// and yarn gets --non-interactive.
func InstallCommand(choice model.InstallerChoice, cfg *model.BuildConfig) model.Command {
	name := choice.String()
	args := []string{"install", "--registry", cfg.Registry}

	switch choice {
	case model.InstallerCacheShare:
		if cfg.CacheHelper != "" {
			name = cfg.CacheHelper
		}
		args = append(args, "-d")
	case model.InstallerYarn:
		args = append(args, "--non-interactive")
	}

	return model.NewCommand(name, args...)
}

// Select inspects the project and returns the install plan.
//
// package.json is read first, so a malformed file fails the run whether or
// not a lock file exists. The cache helper is probed by running it bare
// through exec with output discarded; any failure counts as unavailable.
// Warnings about public registry references and missing lock files are
// logged and never fatal.
func Select(ctx context.Context, cfg *model.BuildConfig, exec shell.Executor, logger *slog.Logger) (*Plan, error) {
	opts, err := project.LoadOptions(cfg.WorkingDir)
	if err != nil {
		return nil, err
	}

	lock := project.DetectLockFile(cfg.WorkingDir)
	plan := &Plan{LockFile: lock, Manager: lock.PackageManager()}

	if lock == model.LockNone {
		plan.Choice = model.InstallerNpm
		plan.Command = InstallCommand(plan.Choice, cfg)
		logger.Info(fmt.Sprintf("Installing npm modules with %s.", plan.Describe()))
		logger.Warn("Please use yarn or shrinkwrap to lock down the versions of packages.",
			"doc", project.ShrinkwrapDocURL)
		return plan, nil
	}

	available := cacheShareAvailable(ctx, cfg, opts, exec, logger)

	refs, err := project.CountPublicRegistryRefs(filepath.Join(cfg.WorkingDir, string(lock)))
	if err != nil {
		return nil, err
	}
	plan.PublicRegistryRefs = refs
	if refs > 0 {
		logger.Warn(fmt.Sprintf(
			"According to %s, there are %d packages installed from official registry (https://registry.npmjs.org/). This may slow down the build process.",
			lock, refs), "doc", project.RegistryDocURL)
	}

	plan.Choice = Choose(lock, available)
	plan.Command = InstallCommand(plan.Choice, cfg)
	logger.Info(fmt.Sprintf("Installing npm modules with %s.", plan.Describe()))
	return plan, nil
}

// cacheShareAvailable reports whether the helper may be used for this run.
func cacheShareAvailable(ctx context.Context, cfg *model.BuildConfig, opts project.Options, exec shell.Executor, logger *slog.Logger) bool {
	if opts.SkipNpmCache {
		logger.Debug("cache helper disabled by package.json", "option", "ykit.skipNpmCache")
		return false
	}
	if cfg.CacheHelper == "" {
		return false
	}

	if err := exec.Run(ctx, model.NewCommand(cfg.CacheHelper), shell.Streams{}); err != nil {
		logger.Debug("cache helper unavailable", "helper", cfg.CacheHelper, "error", err)
		return false
	}
	logger.Debug("cache helper available", "helper", cfg.CacheHelper)
	return true
}
