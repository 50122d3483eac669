package controllers

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
)

// RegisterProviders registers all controller providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register controller constructors
	constructors := []any{
		NewListController,
		NewAcquireController,
		NewStatusController,
		NewPatchController,
		NewCleanController,
		NewControllers,
	}
	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return err
		}
	}
	return nil
}

// NewControllers aggregates all controllers into a slice for the AppInternal.
func NewControllers(
	listController *ListController,
	acquireController *AcquireController,
	statusController *StatusController,
	patchController *PatchController,
	cleanController *CleanController,
) *[]entities.Controller {
	return &[]entities.Controller{
		listController,
		acquireController,
		statusController,
		patchController,
		cleanController,
	}
}
