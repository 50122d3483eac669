package controllers

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/registrypatcher/internal/domain/commands"
	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
)

// CleanController handles the "clean" subcommand.
type CleanController struct {
	command commands.Clean
}

// NewCleanController creates a new CleanController.
func NewCleanController(command commands.Clean) *CleanController {
	return &CleanController{command: command}
}

// GetBind returns the Cobra command metadata for the clean controller.
func (it *CleanController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "clean [module...]",
		Short: "Remove the extracted sources of every module",
		Long: `Delete the diffed_sources folder of every module so the registry
only holds what is committed. Modules whose tree has changes that are not
in their patch yet are kept unless --force is given.`,
	}
}

// AddFlags adds the clean-specific flags to the given Cobra command.
func (it *CleanController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("dry-run", false, "List the folders without removing them")
	cmd.Flags().Bool("force", false, "Also remove trees with changes that are not in their patch")
}

// Execute removes the work folders.
func (it *CleanController) Execute(cmd *cobra.Command, arguments []string) {
	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	force, _ := cmd.Flags().GetBool("force")

	result, err := it.command.Execute(context.Background(), settings, commands.CleanOptions{
		Modules: arguments,
		DryRun:  dryRun,
		Force:   force,
	})
	if err != nil {
		logger.Errorf("Clean failed: %v", err)
		return
	}

	out := cmd.OutOrStdout()
	for _, dir := range result.Removed {
		_, _ = fmt.Fprintln(out, dir)
	}
}
