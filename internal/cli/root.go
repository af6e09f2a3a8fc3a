// Package cli implements the cobra-based CLI commands for ykit-build.
//
// Each subcommand (build, install) is defined in its own file within this
// package. This file defines the root command, global flags, the single
// error-to-exit-code translation point, and run configuration assembly.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	ylog "github.com/mmr-tortoise/ykit-build/internal/log"
	"github.com/mmr-tortoise/ykit-build/internal/model"
	"github.com/mmr-tortoise/ykit-build/internal/settings"
)

// nodeVersionEnv, when set, disables runtime pinning.
const nodeVersionEnv = "NODE_VER"

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	dir        string // --dir: project directory (default: cwd)
	configPath string // --config: settings file
	jsonOutput bool   // --json: machine-readable output
	verbose    bool   // --verbose: debug logging
}

// NewRootCommand creates and configures the root cobra command.
//
// The root command itself does not perform any action; it only provides
// help text and global flags. Work is done by the build and install
// subcommands.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "ykit-build",
		Short: "Production build driver for ykit projects",
		Long: `ykit-build installs a ykit project's dependencies from the private registry,
runs the ykit packer, and leaves the checkout clean: git hooks are emptied and
node_modules is removed.

The installer is chosen from the lock file: yarn.lock selects yarn,
npm-shrinkwrap.json selects npm, and either is wrapped by npm_cache_share
when the helper is installed and not disabled in package.json.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// Execute formats errors itself (text or JSON based on --json).
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.PersistentFlags().StringVar(&g.dir, "dir", "", "Project directory (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Settings file (default: <dir>/"+settings.FileName+" if present)")
	rootCmd.PersistentFlags().BoolVar(&g.jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewBuildCommand(g))
	rootCmd.AddCommand(NewInstallCommand(g))

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go and the only place in
// the program that terminates the process.
//
// CLIError types carry their own exit codes; other errors exit with 1.
// An interrupt cancels the context, which kills the running child.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		jsonOutput, _ := rootCmd.PersistentFlags().GetBool("json")
		printError(os.Stderr, jsonOutput, err)
		os.Exit(int(exitCode(err)))
	}
}

// exitCode maps an error to the process exit code.
func exitCode(err error) model.ExitCode {
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	return model.ExitGeneralError
}

// printError outputs an error message in the appropriate format
// (JSON or text).
func printError(w io.Writer, jsonOutput bool, err error) {
	message := err.Error()
	var underlying error

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		message = cliErr.Message
		underlying = cliErr.Err
	}

	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
				"code":    int(exitCode(err)),
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode; stdout carries the report.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// newLogger creates the run logger on the command's stderr.
func newLogger(cmd *cobra.Command, g *globalFlags) *slog.Logger {
	level := "info"
	if g.verbose {
		level = "debug"
	}
	return ylog.New(cmd.ErrOrStderr(), level)
}

// newBuildConfig assembles the immutable BuildConfig for a run. This is the
// only place that reads the working directory and environment.
func newBuildConfig(g *globalFlags, minify bool, getenv func(string) string) (*model.BuildConfig, error) {
	dir := g.dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
		}
		dir = cwd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to resolve project directory", err)
	}

	s, err := settings.Load(g.configPath, dir)
	if err != nil {
		return nil, err
	}

	cfg := &model.BuildConfig{
		WorkingDir:          dir,
		Minify:              minify,
		NodeVersionOverride: getenv(nodeVersionEnv),
	}
	s.Apply(cfg)
	return cfg, nil
}

// writeJSON prints v as indented JSON to w.
func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
