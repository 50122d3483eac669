package commands

import (
	"context"
	"fmt"
	"path/filepath"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	"github.com/rios0rios0/registrypatcher/internal/domain/repositories"
)

// resolveIndex resolves the newest version of every module in the registry.
// Modules without any folder of the tracked version line are returned apart;
// they are skipped, not failed.
func resolveIndex(
	ctx context.Context,
	registry repositories.RegistryRepository,
) (*entities.ModuleIndex, []entities.Module, error) {
	modules, err := registry.ListModules(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list modules: %w", err)
	}

	resolved := make([]entities.Version, 0, len(modules))
	var unresolved []entities.Module
	for _, module := range modules {
		dirs, listErr := registry.ListVersionDirs(ctx, module)
		if listErr != nil {
			logger.Warnf("[%s] Failed to list versions: %v", module.Name, listErr)
			unresolved = append(unresolved, module)
			continue
		}

		newest, resolveErr := entities.ResolveNewest(dirs)
		if resolveErr != nil {
			logger.Debugf("[%s] %v, skipping", module.Name, resolveErr)
			unresolved = append(unresolved, module)
			continue
		}

		resolved = append(resolved, entities.Version{
			Module: module.Name,
			Name:   filepath.Base(newest),
			Dir:    newest,
		})
	}

	return entities.NewModuleIndex(resolved...), unresolved, nil
}

// acquiredTrees returns the source trees of versions that have already been
// initialized. Versions with a broken source.json are logged and skipped.
func acquiredTrees(
	ctx context.Context,
	registry repositories.RegistryRepository,
	workingTree repositories.WorkingTreeRepository,
	versions []entities.Version,
) []entities.SourceTree {
	trees := make([]entities.SourceTree, 0, len(versions))
	for _, version := range versions {
		desc, err := registry.ReadSource(ctx, version)
		if err != nil {
			logger.Errorf("[%s] Skipping, cannot read source descriptor: %v", version, err)
			continue
		}

		tree := entities.NewSourceTree(version, desc.StripPrefix)
		if !workingTree.IsRepository(tree.Path) {
			logger.Debugf("[%s] Not initialized yet, skipping", version)
			continue
		}
		trees = append(trees, tree)
	}
	return trees
}

func versionName(version entities.Version) string { return version.String() }

func treeName(tree entities.SourceTree) string { return tree.Version.String() }
