// Package model defines the domain types for the ykit-build CLI.
//
// Every value in this package is transient: it is constructed at process
// start from flags, environment and the working directory, then passed
// explicitly to the components that need it. Nothing is persisted between
// invocations.
package model

import (
	"fmt"

	"github.com/kballard/go-shellquote"
)

// InstallerChoice identifies the command used to install dependencies.
// Exactly one choice is active per run.
type InstallerChoice string

const (
	// InstallerCacheShare wraps the underlying package manager with the
	// npm_cache_share helper, which shares the installation cache across builds.
	InstallerCacheShare InstallerChoice = "npm_cache_share"

	// InstallerYarn installs with plain yarn.
	InstallerYarn InstallerChoice = "yarn"

	// InstallerNpm installs with plain npm.
	InstallerNpm InstallerChoice = "npm"
)

// String returns the string representation of InstallerChoice.
func (c InstallerChoice) String() string {
	return string(c)
}

// LockFile names a dependency-version-pinning artifact in the project root.
type LockFile string

const (
	// LockNone means the project pins nothing.
	LockNone LockFile = ""

	// LockYarn is yarn's lock file.
	LockYarn LockFile = "yarn.lock"

	// LockShrinkwrap is npm's publishable lock file.
	LockShrinkwrap LockFile = "npm-shrinkwrap.json"
)

// PackageManager returns the plain installer that owns this lock file.
// Projects without a lock file fall back to npm.
func (l LockFile) PackageManager() InstallerChoice {
	if l == LockYarn {
		return InstallerYarn
	}
	return InstallerNpm
}

// Command is a structured external process specification: an executable
// name followed by its ordered arguments. It is never passed through a shell.
type Command struct {
	// Name is the executable, resolved via PATH at execution time.
	Name string `json:"name"`

	// Args are passed to the executable verbatim.
	Args []string `json:"args,omitempty"`
}

// NewCommand creates a Command from an executable name and its arguments.
func NewCommand(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

// IsZero reports whether the command has no executable. Running a zero
// command is a no-op.
func (c Command) IsZero() bool {
	return c.Name == ""
}

// String renders the command as a shell-quoted line, used in diagnostics.
func (c Command) String() string {
	if c.IsZero() {
		return ""
	}
	return shellquote.Join(append([]string{c.Name}, c.Args...)...)
}

// BuildConfig is the immutable configuration of a single run.
//
// It is built once by the CLI layer; no other package reads the process
// environment or the ambient working directory.
type BuildConfig struct {
	// WorkingDir is the absolute path of the project being built.
	WorkingDir string `json:"workingDir"`

	// Minify controls whether the bundler is asked to minify assets.
	Minify bool `json:"minify"`

	// NodeVersionOverride holds the NODE_VER environment value. When it is
	// non-empty, commands run with the caller's PATH untouched.
	NodeVersionOverride string `json:"nodeVersionOverride,omitempty"`

	// Registry is the private package registry passed to every installer.
	Registry string `json:"registry"`

	// NodeBinDir is prepended to PATH to pin the runtime version when no
	// override is present.
	NodeBinDir string `json:"nodeBinDir"`

	// CacheHelper is the executable name of the cache-sharing helper.
	CacheHelper string `json:"cacheHelper"`

	// Bundler is the executable name of the external packer.
	Bundler string `json:"bundler"`
}

// PinsRuntime reports whether commands must run with NodeBinDir first on PATH.
func (c *BuildConfig) PinsRuntime() bool {
	return c.NodeVersionOverride == "" && c.NodeBinDir != ""
}

// ExitCode defines the process exit codes of the CLI.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigNotFound indicates no ykit configuration file was found in
	// the working directory.
	ExitConfigNotFound ExitCode = 2

	// ExitDependencyDirPresent indicates node_modules already exists before
	// installation.
	ExitDependencyDirPresent ExitCode = 3

	// ExitCommandFailed indicates an external command exited non-zero or
	// could not be started.
	ExitCommandFailed ExitCode = 4

	// ExitInvalidConfig indicates the settings file or package.json could
	// not be parsed.
	ExitInvalidConfig ExitCode = 5
)

// CLIError is a custom error type that carries an exit code.
// Components return it up the call chain; only the CLI entry point turns it
// into a process exit.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
