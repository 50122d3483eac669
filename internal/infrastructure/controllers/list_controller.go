package controllers

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/registrypatcher/internal/domain/commands"
	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
)

// ListController handles the "list" subcommand.
type ListController struct {
	command commands.List
}

// NewListController creates a new ListController.
func NewListController(command commands.List) *ListController {
	return &ListController{command: command}
}

// GetBind returns the Cobra command metadata for the list controller.
func (it *ListController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "list [module...]",
		Short: "Show the newest tracked version of each module",
		Long: `Resolve the newest "1." version folder of every module in the
registry and print it. Modules without such a folder are reported
separately.`,
	}
}

// AddFlags adds the list-specific flags to the given Cobra command.
func (it *ListController) AddFlags(_ *cobra.Command) {}

// Execute prints the resolved versions.
func (it *ListController) Execute(cmd *cobra.Command, arguments []string) {
	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	result, err := it.command.Execute(context.Background(), settings, commands.ListOptions{Modules: arguments})
	if err != nil {
		logger.Errorf("List failed: %v", err)
		return
	}

	out := cmd.OutOrStdout()
	for _, version := range result.Newest {
		_, _ = fmt.Fprintf(out, "%s\t%s\n", version.Module, version.Name)
	}
	for _, module := range result.Unresolved {
		logger.Warnf("[%s] No version folder starting with %q", module.Name, entities.VersionPrefix)
	}
}
