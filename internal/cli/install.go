package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/ykit-build/internal/build"
)

// NewInstallCommand creates the "install" cobra command, which runs the
// precondition checks and the dependency install without packing.
func NewInstallCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Check the project and install dependencies only",
		Long: `Install the project's dependencies exactly as "build" would, then stop.

node_modules is left in place so the packer can be run by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newBuildConfig(g, true, os.Getenv)
			if err != nil {
				return err
			}
			return runSteps(cmd, g, cfg, (*build.Runner).Install)
		},
	}
}
