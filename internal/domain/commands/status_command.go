package commands

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	infraRepos "github.com/rios0rios0/registrypatcher/internal/infrastructure/repositories"
)

// Status is the interface for the status command.
type Status interface {
	Execute(ctx context.Context, settings *entities.Settings, opts StatusOptions) (*StatusResult, error)
}

// StatusOptions holds runtime options for a status run.
type StatusOptions struct {
	Modules []string // If set, only these modules are inspected
}

// StatusResult lists the initialized trees and the ones with local changes.
type StatusResult struct {
	Trees   []entities.SourceTree
	Changed []entities.SourceTree
}

// StatusCommand reports which initialized modules carry local modifications.
type StatusCommand struct {
	repositories *infraRepos.RepositoryRegistry
}

// NewStatusCommand creates a new StatusCommand.
func NewStatusCommand(repositories *infraRepos.RepositoryRegistry) *StatusCommand {
	return &StatusCommand{repositories: repositories}
}

// Execute inspects every initialized tree of the selected modules.
func (it *StatusCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts StatusOptions,
) (*StatusResult, error) {
	registry, err := it.repositories.Registry(settings)
	if err != nil {
		return nil, err
	}
	workingTree, err := it.repositories.WorkingTree(settings)
	if err != nil {
		return nil, err
	}

	index, _, err := resolveIndex(ctx, registry)
	if err != nil {
		return nil, err
	}

	trees := acquiredTrees(ctx, registry, workingTree, index.Filter(opts.Modules))
	detector := NewChangeDetector(settings, registry, workingTree, nil)
	changed := detector.DetectChanged(ctx, trees)

	logger.Infof("%d of %d initialized module(s) have local changes", len(changed), len(trees))
	return &StatusResult{Trees: trees, Changed: changed}, nil
}
