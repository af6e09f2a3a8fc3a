// Package model defines the domain types and value objects for the
// ykit-build CLI.
//
// This package contains plain data structures: the per-run BuildConfig,
// the InstallerChoice enum, structured Commands, and the exit codes and
// CLIError type used to carry failures up to the single exit point in
// internal/cli.
package model
