// Package shelltest provides an in-memory shell.Executor for tests.
package shelltest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mmr-tortoise/ykit-build/internal/model"
	"github.com/mmr-tortoise/ykit-build/internal/shell"
)

// Recorder records every command it is asked to run and fails the ones
// registered with FailOn. It never starts a process.
type Recorder struct {
	// Calls holds every non-zero command in execution order, including
	// those that failed.
	Calls []model.Command

	// Output is written to the stdout stream of matching commands, keyed
	// by Command.String().
	Output map[string]string

	failures map[string]error

	// OnRun, if set, is invoked before a command's result is decided. Tests
	// use it to observe filesystem state at the time a command runs.
	OnRun func(cmd model.Command)
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		Output:   make(map[string]string),
		failures: make(map[string]error),
	}
}

// FailOn makes every command whose String() or Name equals key fail.
func (r *Recorder) FailOn(key string) *Recorder {
	r.failures[key] = errors.New("exit status 1")
	return r
}

// Run implements shell.Executor.
func (r *Recorder) Run(_ context.Context, cmd model.Command, streams shell.Streams) error {
	if cmd.IsZero() {
		return nil
	}
	r.Calls = append(r.Calls, cmd)
	if r.OnRun != nil {
		r.OnRun(cmd)
	}

	err, ok := r.failures[cmd.String()]
	if !ok {
		err, ok = r.failures[cmd.Name]
	}
	if ok {
		return model.WrapCLIError(model.ExitCommandFailed,
			fmt.Sprintf("building encountered error while executing %s", cmd), err)
	}

	if out, found := r.Output[cmd.String()]; found && streams.Stdout != nil {
		_, _ = io.WriteString(streams.Stdout, out)
	}
	return nil
}

// Lines returns the recorded commands rendered with Command.String.
func (r *Recorder) Lines() []string {
	lines := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		lines[i] = c.String()
	}
	return lines
}
