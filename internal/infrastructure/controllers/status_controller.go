package controllers

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/registrypatcher/internal/domain/commands"
	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
)

// StatusController handles the "status" subcommand.
type StatusController struct {
	command commands.Status
}

// NewStatusController creates a new StatusController.
func NewStatusController(command commands.Status) *StatusController {
	return &StatusController{command: command}
}

// GetBind returns the Cobra command metadata for the status controller.
func (it *StatusController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "status [module...]",
		Short: "List the initialized modules with local modifications",
	}
}

// AddFlags adds the status-specific flags to the given Cobra command.
func (it *StatusController) AddFlags(_ *cobra.Command) {}

// Execute prints the modified modules.
func (it *StatusController) Execute(cmd *cobra.Command, arguments []string) {
	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	result, err := it.command.Execute(context.Background(), settings, commands.StatusOptions{Modules: arguments})
	if err != nil {
		logger.Errorf("Status failed: %v", err)
		return
	}

	out := cmd.OutOrStdout()
	for _, tree := range result.Changed {
		_, _ = fmt.Fprintf(out, "%s\t%s\n", tree.Version.Module, tree.Path)
	}
}
