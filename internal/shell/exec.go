// Package shell runs external commands for the build.
//
// Every process the build starts goes through an Executor. The executor
// knows nothing about which command it runs; it only streams output through
// and reports pass or fail. Commands are structured (executable plus argv)
// and never pass through /bin/sh.
//
// When the run pins the node runtime, the pinned bin directory is placed
// first on the child's PATH and bare executable names are resolved against
// it before falling back to the regular lookup.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mmr-tortoise/ykit-build/internal/model"
)

// Streams receives a child's output. Nil writers discard.
type Streams struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Executor runs a single command to completion.
type Executor interface {
	// Run blocks until cmd exits. A zero command is a no-op. Any failure,
	// including a non-zero exit, is returned as a *model.CLIError with
	// ExitCommandFailed.
	Run(ctx context.Context, cmd model.Command, streams Streams) error
}

// Exec is the os/exec backed Executor.
type Exec struct {
	// Dir is the working directory of every child.
	Dir string

	// PinDir, when non-empty, is prepended to the child's PATH and searched
	// first for bare executable names.
	PinDir string

	// Environ is the base environment handed to children.
	Environ []string
}

// New creates an Exec for a run. environ is normally os.Environ() captured
// once by the CLI layer.
func New(cfg *model.BuildConfig, environ []string) *Exec {
	e := &Exec{
		Dir:     cfg.WorkingDir,
		Environ: environ,
	}
	if cfg.PinsRuntime() {
		e.PinDir = cfg.NodeBinDir
	}
	return e
}

// Run implements Executor.
func (e *Exec) Run(ctx context.Context, c model.Command, streams Streams) error {
	if c.IsZero() {
		return nil
	}

	// #nosec G204 — commands are assembled internally from fixed names
	cmd := exec.CommandContext(ctx, e.resolve(c.Name), c.Args...)
	cmd.Dir = e.Dir
	cmd.Env = e.env()
	cmd.Stdout = streams.Stdout
	cmd.Stderr = streams.Stderr

	if err := cmd.Run(); err != nil {
		return model.WrapCLIError(
			model.ExitCommandFailed,
			fmt.Sprintf("building encountered error while executing %s", c),
			err,
		)
	}
	return nil
}

// resolve prefers an executable in PinDir for names without a path separator.
func (e *Exec) resolve(name string) string {
	if e.PinDir == "" || strings.ContainsRune(name, filepath.Separator) {
		return name
	}

	candidate := filepath.Join(e.PinDir, name)
	info, err := os.Stat(candidate)
	if err != nil || info.IsDir() || info.Mode().Perm()&0111 == 0 {
		return name
	}
	return candidate
}

// env returns Environ with PinDir prepended to PATH.
func (e *Exec) env() []string {
	if e.PinDir == "" {
		return e.Environ
	}

	env := make([]string, 0, len(e.Environ)+1)
	found := false
	for _, kv := range e.Environ {
		if value, ok := strings.CutPrefix(kv, "PATH="); ok {
			found = true
			if value != "" {
				kv = "PATH=" + e.PinDir + string(os.PathListSeparator) + value
			} else {
				kv = "PATH=" + e.PinDir
			}
		}
		env = append(env, kv)
	}
	if !found {
		env = append(env, "PATH="+e.PinDir)
	}
	return env
}

// ExitStatus extracts the child's exit code from an error returned by Run.
// It returns 0 for nil and -1 when the process never produced an exit code
// (for example, the executable was not found).
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
