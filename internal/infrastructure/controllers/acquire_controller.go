package controllers

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/registrypatcher/internal/domain/commands"
	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	"github.com/rios0rios0/registrypatcher/internal/taskrunner"
)

// AcquireController handles the "init" subcommand.
type AcquireController struct {
	command commands.Acquire
}

// NewAcquireController creates a new AcquireController.
func NewAcquireController(command commands.Acquire) *AcquireController {
	return &AcquireController{command: command}
}

// GetBind returns the Cobra command metadata for the acquire controller.
func (it *AcquireController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "init [module...]",
		Short: "Download and initialize the source of each module",
		Long: `Download the upstream archive of the newest version of every module,
extract it under the module's diffed_sources folder and turn the
extracted tree into a git repository whose first commit is the pristine
upstream source. The recorded patches are then applied on top so the
tree can be edited.

Modules that are already initialized are left untouched.`,
	}
}

// AddFlags adds the init-specific flags to the given Cobra command.
func (it *AcquireController) AddFlags(_ *cobra.Command) {}

// Execute acquires the selected modules.
func (it *AcquireController) Execute(cmd *cobra.Command, arguments []string) {
	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	result, err := it.command.Execute(context.Background(), settings, commands.AcquireOptions{
		Modules:  arguments,
		Reporter: taskrunner.LogReporter(),
	})
	if err != nil {
		logger.Errorf("Init failed: %v", err)
		return
	}

	for _, failed := range result.Failed {
		logger.Errorf("[%s] Not initialized", failed)
	}
}
