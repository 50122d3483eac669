package controllers

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/registrypatcher/internal/domain/commands"
	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	"github.com/rios0rios0/registrypatcher/internal/taskrunner"
)

// PatchController handles the "patch" subcommand.
type PatchController struct {
	command commands.Patch
}

// NewPatchController creates a new PatchController.
func NewPatchController(command commands.Patch) *PatchController {
	return &PatchController{command: command}
}

// GetBind returns the Cobra command metadata for the patch controller.
func (it *PatchController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "patch [module...]",
		Short: "Regenerate the patches of locally modified modules",
		Long: `Find every initialized module whose source tree was modified, check
that its newest version was created after the fork point from upstream,
and rewrite the version's patch file, the patches map of its source.json
and its MODULE.bazel from the tree.

Modules whose newest version already existed at the fork point are
reported as needing a version bump and skipped unless --force is given.
Use --baseline when the fork point cannot be found automatically.`,
	}
}

// AddFlags adds the patch-specific flags to the given Cobra command.
func (it *PatchController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("baseline", "", "Revision to compare version folders against (default: fork point)")
	cmd.Flags().Bool("dry-run", false, "Show the regenerated patches without writing them")
	cmd.Flags().Bool("force", false, "Also patch modules that need a version bump")
}

// Execute regenerates the patches.
func (it *PatchController) Execute(cmd *cobra.Command, arguments []string) {
	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	baseline, _ := cmd.Flags().GetString("baseline")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	force, _ := cmd.Flags().GetBool("force")

	result, err := it.command.Execute(context.Background(), settings, commands.PatchOptions{
		Modules:  arguments,
		Baseline: baseline,
		DryRun:   dryRun,
		Force:    force,
		Reporter: taskrunner.LogReporter(),
	})
	if err != nil {
		logger.Errorf("Patch failed: %v", err)
		return
	}

	out := cmd.OutOrStdout()
	for _, record := range result.Patched {
		_, _ = fmt.Fprintf(out, "%s\t%s\n", record.Path, record.Integrity)
	}
	for _, preview := range result.Previews {
		if preview.Changed {
			_, _ = fmt.Fprint(out, preview.Diff)
		}
	}
}
