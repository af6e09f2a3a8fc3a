// Package build runs the production build of a ykit project.
//
// A build is a fixed, linear sequence of steps:
//
//	Preconditions → Install → VersionDisplay → Pack → ClearGitHooks → ClearDependencies
//
// Each step either succeeds or stops the run; there is no retry and no
// rollback. A failed pack therefore leaves git hooks and node_modules
// untouched. All external processes go through a shell.Executor.
package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mmr-tortoise/ykit-build/internal/installer"
	"github.com/mmr-tortoise/ykit-build/internal/model"
	"github.com/mmr-tortoise/ykit-build/internal/project"
	"github.com/mmr-tortoise/ykit-build/internal/shell"
)

// Step names one stage of the build.
type Step string

const (
	StepPreconditions     Step = "preconditions"
	StepInstall           Step = "install"
	StepVersionDisplay    Step = "version-display"
	StepPack              Step = "pack"
	StepClearGitHooks     Step = "clear-git-hooks"
	StepClearDependencies Step = "clear-dependencies"
)

// Report summarizes a run. It is filled in as steps complete, so a failed
// run reports how far it got.
type Report struct {
	WorkingDir   string          `json:"workingDir"`
	ConfigFile   string          `json:"configFile,omitempty"`
	Minify       bool            `json:"minify"`
	Install      *installer.Plan `json:"install,omitempty"`
	ClearedHooks []string        `json:"clearedHooks,omitempty"`
	Steps        []Step          `json:"steps"`
}

func (r *Report) done(s Step) {
	r.Steps = append(r.Steps, s)
}

// Runner executes build steps for one BuildConfig.
type Runner struct {
	cfg    *model.BuildConfig
	exec   shell.Executor
	logger *slog.Logger

	// streams receives the output of every external command.
	streams shell.Streams
}

// NewRunner creates a Runner. stdout and stderr receive child output and
// the version labels.
func NewRunner(cfg *model.BuildConfig, exec shell.Executor, logger *slog.Logger, stdout, stderr io.Writer) *Runner {
	return &Runner{
		cfg:     cfg,
		exec:    exec,
		logger:  logger,
		streams: shell.Streams{Stdout: stdout, Stderr: stderr},
	}
}

// Install validates the project and installs its dependencies.
func (r *Runner) Install(ctx context.Context) (*Report, error) {
	report := &Report{WorkingDir: r.cfg.WorkingDir, Minify: r.cfg.Minify}
	if err := r.install(ctx, report); err != nil {
		return report, err
	}
	return report, nil
}

// Build runs every step in order and stops at the first failure.
func (r *Runner) Build(ctx context.Context) (*Report, error) {
	report := &Report{WorkingDir: r.cfg.WorkingDir, Minify: r.cfg.Minify}

	if err := r.install(ctx, report); err != nil {
		return report, err
	}

	if err := r.displayVersions(ctx); err != nil {
		return report, err
	}
	report.done(StepVersionDisplay)

	r.logger.Info("Start building.")
	if err := r.run(ctx, PackCommand(r.cfg)); err != nil {
		return report, err
	}
	report.done(StepPack)

	cleared, err := ClearGitHooks(r.cfg.WorkingDir)
	if err != nil {
		return report, err
	}
	if cleared != nil {
		r.logger.Info("Local git hooks have been cleared.", "files", len(cleared))
	}
	report.ClearedHooks = cleared
	report.done(StepClearGitHooks)

	if err := ClearDependencies(r.cfg.WorkingDir); err != nil {
		return report, err
	}
	r.logger.Info(fmt.Sprintf("Local %s directory has been cleared.", project.DependencyDir))
	report.done(StepClearDependencies)

	r.logger.Info("Finish building.")
	return report, nil
}

func (r *Runner) install(ctx context.Context, report *Report) error {
	configFile, err := project.CheckPreconditions(r.cfg.WorkingDir)
	if err != nil {
		return err
	}
	r.logger.Debug("found ykit config", "path", configFile)
	report.ConfigFile = configFile
	report.done(StepPreconditions)

	plan, err := installer.Select(ctx, r.cfg, r.exec, r.logger)
	if err != nil {
		return err
	}
	report.Install = plan

	if err := r.run(ctx, plan.Command); err != nil {
		return err
	}
	report.done(StepInstall)
	return nil
}

// displayVersions prints runtime, package manager and bundler versions.
// These go through the same fail-fast path as every other command.
func (r *Runner) displayVersions(ctx context.Context) error {
	for _, v := range VersionCommands(r.cfg) {
		if v.Label != "" && r.streams.Stdout != nil {
			if _, err := io.WriteString(r.streams.Stdout, v.Label); err != nil {
				return fmt.Errorf("failed to write version label: %w", err)
			}
		}
		if err := r.run(ctx, v.Command); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) run(ctx context.Context, cmd model.Command) error {
	r.logger.Debug("executing", "command", cmd.String())
	if err := r.exec.Run(ctx, cmd, r.streams); err != nil {
		r.logger.Debug("command failed", "command", cmd.String(), "exitStatus", shell.ExitStatus(err))
		return err
	}
	return nil
}

// VersionCommand is a version query with the label printed before it.
type VersionCommand struct {
	Label   string
	Command model.Command
}

// VersionCommands returns the version queries run before packing.
func VersionCommands(cfg *model.BuildConfig) []VersionCommand {
	return []VersionCommand{
		{Label: "node version: ", Command: model.NewCommand("node", "-v")},
		{Label: "npm version: ", Command: model.NewCommand("npm", "-v")},
		{Command: model.NewCommand(cfg.Bundler, "-v")},
	}
}

// PackCommand returns the bundler invocation: quiet always, minified
// unless cfg.Minify is false.
func PackCommand(cfg *model.BuildConfig) model.Command {
	args := []string{"pack", "-q"}
	if cfg.Minify {
		args = append(args, "-m")
	}
	return model.NewCommand(cfg.Bundler, args...)
}
