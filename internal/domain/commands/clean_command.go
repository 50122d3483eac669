package commands

import (
	"context"
	"path/filepath"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	infraRepos "github.com/rios0rios0/registrypatcher/internal/infrastructure/repositories"
)

// Clean is the interface for the clean command.
type Clean interface {
	Execute(ctx context.Context, settings *entities.Settings, opts CleanOptions) (*CleanResult, error)
}

// CleanOptions holds runtime options for a clean run.
type CleanOptions struct {
	Modules []string // If set, only these modules are cleaned
	DryRun  bool     // Report the folders without removing them
	Force   bool     // Also remove trees whose changes are not recorded in a patch
}

// CleanResult lists the removed work folders and the modules that were kept
// because removing them would lose unrecorded changes.
type CleanResult struct {
	Removed []string // or would remove, in dry-run mode
	Kept    []string
}

// CleanCommand restores the registry to its committed state by removing the
// diffed_sources folder of every module.
type CleanCommand struct {
	repositories *infraRepos.RepositoryRegistry
}

// NewCleanCommand creates a new CleanCommand.
func NewCleanCommand(repositories *infraRepos.RepositoryRegistry) *CleanCommand {
	return &CleanCommand{repositories: repositories}
}

// Execute removes the work folders of the selected modules.
func (it *CleanCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts CleanOptions,
) (*CleanResult, error) {
	registry, err := it.repositories.Registry(settings)
	if err != nil {
		return nil, err
	}
	workingTree, err := it.repositories.WorkingTree(settings)
	if err != nil {
		return nil, err
	}

	modules, err := registry.ListModules(ctx)
	if err != nil {
		return nil, err
	}
	index, _, err := resolveIndex(ctx, registry)
	if err != nil {
		return nil, err
	}

	unrecorded := map[string]struct{}{}
	trees := acquiredTrees(ctx, registry, workingTree, index.Filter(opts.Modules))
	for _, tree := range NewChangeDetector(settings, registry, workingTree, nil).DetectChanged(ctx, trees) {
		unrecorded[tree.Version.Module] = struct{}{}
	}

	wanted := make(map[string]struct{}, len(opts.Modules))
	for _, name := range opts.Modules {
		wanted[name] = struct{}{}
	}

	result := &CleanResult{}
	for _, module := range modules {
		if _, ok := wanted[module.Name]; len(wanted) > 0 && !ok {
			continue
		}
		workDir := filepath.Join(module.Dir, entities.DiffedSourcesDir)
		if !registry.Exists(workDir) {
			continue
		}

		if _, ok := unrecorded[module.Name]; ok && !opts.Force {
			logger.Warnf("[%s] Has changes that are not in its patch yet, keeping %s (use --force)",
				module.Name, entities.DiffedSourcesDir)
			result.Kept = append(result.Kept, module.Name)
			continue
		}

		if opts.DryRun {
			logger.Infof("[%s] [DRY RUN] Would remove %s", module.Name, workDir)
			result.Removed = append(result.Removed, workDir)
			continue
		}
		if removeErr := registry.RemoveTree(ctx, workDir); removeErr != nil {
			logger.Errorf("[%s] %v", module.Name, removeErr)
			continue
		}
		logger.Debugf("[%s] Removed %s", module.Name, workDir)
		result.Removed = append(result.Removed, workDir)
	}

	logger.Infof("Clean complete: %d folder(s) removed, %d kept", len(result.Removed), len(result.Kept))
	return result, nil
}
