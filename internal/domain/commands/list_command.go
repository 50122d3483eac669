package commands

import (
	"context"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	infraRepos "github.com/rios0rios0/registrypatcher/internal/infrastructure/repositories"
)

// List is the interface for the list command.
type List interface {
	Execute(ctx context.Context, settings *entities.Settings, opts ListOptions) (*ListResult, error)
}

// ListOptions holds runtime options for a list run.
type ListOptions struct {
	Modules []string // If set, only these modules are listed
}

// ListResult holds the newest version of each module and the modules that
// have no version folder of the tracked line.
type ListResult struct {
	Newest     []entities.Version
	Unresolved []entities.Module
}

// ListCommand resolves the newest version of every module.
type ListCommand struct {
	repositories *infraRepos.RepositoryRegistry
}

// NewListCommand creates a new ListCommand.
func NewListCommand(repositories *infraRepos.RepositoryRegistry) *ListCommand {
	return &ListCommand{repositories: repositories}
}

// Execute resolves the registry's modules.
func (it *ListCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts ListOptions,
) (*ListResult, error) {
	registry, err := it.repositories.Registry(settings)
	if err != nil {
		return nil, err
	}

	index, unresolved, err := resolveIndex(ctx, registry)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Newest:     index.Filter(opts.Modules),
		Unresolved: unresolved,
	}, nil
}
