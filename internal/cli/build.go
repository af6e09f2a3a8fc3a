// Package cli — build.go implements the "ykit-build build" command.
//
// Orchestration steps:
//  1. Check that a ykit config exists and node_modules does not
//  2. Select the installer from the lock file and install dependencies
//  3. Print node, npm and ykit versions
//  4. Run `ykit pack -q [-m]`
//  5. Empty every git hook and remove node_modules
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/ykit-build/internal/build"
	"github.com/mmr-tortoise/ykit-build/internal/model"
	"github.com/mmr-tortoise/ykit-build/internal/shell"
)

// ParseMinify interprets the value of -m/--min. Only the literal string
// "false" disables minification; every other value, including the bare
// flag, enables it.
func ParseMinify(value string) bool {
	return value != "false"
}

// resolveMinify reads -m/--min after flag parsing. Besides -m=false it
// accepts the separated form "-m false", where the value arrives as the
// single positional argument following a bare flag.
func resolveMinify(cmd *cobra.Command, args []string) (bool, error) {
	flag := cmd.Flags().Lookup("min")
	value := flag.Value.String()

	switch len(args) {
	case 0:
		return ParseMinify(value), nil
	case 1:
		bare := flag.Changed && value == flag.NoOptDefVal
		if bare && (args[0] == "true" || args[0] == "false") {
			return ParseMinify(args[0]), nil
		}
	}
	return false, fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
}

// NewBuildCommand creates the "build" cobra command.
func NewBuildCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Install dependencies, pack assets and clean up the checkout",
		Long: `Run the production build of the ykit project in the current directory.

The build fails without running anything if no ykit.js / ykit.*.js exists or
if node_modules is already present. Any failing external command stops the
build immediately; git hooks and node_modules are only cleared after a
successful pack.

Set NODE_VER to build with the node on your PATH instead of the pinned one.

Examples:
  ykit-build build
  ykit-build build -m=false
  ykit-build build -m false
  ykit-build build --min=false --dir ./web`,

		Args: func(cmd *cobra.Command, args []string) error {
			_, err := resolveMinify(cmd, args)
			return err
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			minify, err := resolveMinify(cmd, args)
			if err != nil {
				return err
			}
			cfg, err := newBuildConfig(g, minify, os.Getenv)
			if err != nil {
				return err
			}
			return runSteps(cmd, g, cfg, (*build.Runner).Build)
		},
	}

	cmd.Flags().StringP("min", "m", "true", "Minify assets; pass -m=false or -m false to disable")
	// A bare -m / --min means "true".
	cmd.Flags().Lookup("min").NoOptDefVal = "true"

	return cmd
}

// stepFunc is a Runner entry point (Build or Install).
type stepFunc func(r *build.Runner, ctx context.Context) (*build.Report, error)

// runSteps wires a Runner for cfg, runs fn and prints the report.
func runSteps(cmd *cobra.Command, g *globalFlags, cfg *model.BuildConfig, fn stepFunc) error {
	logger := newLogger(cmd, g)
	logger.Debug("build config",
		"dir", cfg.WorkingDir,
		"minify", cfg.Minify,
		"pinnedNode", cfg.PinsRuntime(),
		"registry", cfg.Registry)

	// In JSON mode stdout is reserved for the report, so child output
	// moves to stderr.
	var stdout io.Writer = cmd.OutOrStdout()
	if g.jsonOutput {
		stdout = cmd.ErrOrStderr()
	}

	runner := build.NewRunner(cfg, shell.New(cfg, os.Environ()), logger, stdout, cmd.ErrOrStderr())
	report, err := fn(runner, cmd.Context())
	if err != nil {
		return err
	}

	if g.jsonOutput {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	return nil
}
