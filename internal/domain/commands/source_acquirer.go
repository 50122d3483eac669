package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	"github.com/rios0rios0/registrypatcher/internal/domain/repositories"
)

const (
	initialCommitMessage = "Initial commit"
	gitMetadataDir       = ".git"
	dirFileMode          = 0o755
)

// SourceAcquirer materializes the pristine and patched working copy of a
// version. Every step checks for its own output first, so a rerun after a
// partial failure resumes at the first missing step.
type SourceAcquirer struct {
	registry    repositories.RegistryRepository
	archive     repositories.ArchiveRepository
	workingTree repositories.WorkingTreeRepository
}

// NewSourceAcquirer creates a SourceAcquirer over the given repositories.
func NewSourceAcquirer(
	registry repositories.RegistryRepository,
	archive repositories.ArchiveRepository,
	workingTree repositories.WorkingTreeRepository,
) *SourceAcquirer {
	return &SourceAcquirer{
		registry:    registry,
		archive:     archive,
		workingTree: workingTree,
	}
}

// Acquire downloads and extracts the version's upstream archive into the
// module's diffed_sources folder and returns the resulting tree.
func (it *SourceAcquirer) Acquire(ctx context.Context, version entities.Version) (entities.SourceTree, error) {
	workDir := version.WorkDir()
	if err := os.MkdirAll(workDir, dirFileMode); err != nil {
		return entities.SourceTree{}, fmt.Errorf("failed to create %s: %w", workDir, err)
	}

	desc, err := it.registry.ReadSource(ctx, version)
	if err != nil {
		return entities.SourceTree{}, err
	}

	archivePath := filepath.Join(workDir, desc.ArchiveName())
	if !it.registry.Exists(archivePath) {
		logger.Infof("[%s] Downloading %s", version, desc.URL)
		if fetchErr := it.archive.Fetch(ctx, desc.URL, archivePath); fetchErr != nil {
			return entities.SourceTree{}, fmt.Errorf("failed to download %s: %w", desc.URL, fetchErr)
		}
	}

	tree := entities.NewSourceTree(version, desc.StripPrefix)
	if !it.registry.Exists(tree.Path) {
		logger.Infof("[%s] Extracting %s", version, filepath.Base(archivePath))
		if extractErr := it.archive.Extract(ctx, archivePath, workDir); extractErr != nil {
			return entities.SourceTree{}, fmt.Errorf("failed to extract %s: %w", archivePath, extractErr)
		}
		if !it.registry.Exists(tree.Path) {
			return entities.SourceTree{}, fmt.Errorf(
				"archive %s has no %q folder, check strip_prefix", archivePath, desc.StripPrefix,
			)
		}
	}

	return tree, nil
}

// InitializeRepository puts a freshly extracted tree under version control
// with a single "Initial commit" of the pristine files, then applies the
// module's recorded patch and stages it. A tree that is already a repository
// is left alone. A patch that no longer applies is logged and the tree stays
// pristine.
func (it *SourceAcquirer) InitializeRepository(
	ctx context.Context,
	tree entities.SourceTree,
	index *entities.ModuleIndex,
) error {
	if it.workingTree.IsRepository(tree.Path) {
		logger.Debugf("[%s] Repository already initialized", tree.Version)
		return nil
	}

	if err := it.commitPristine(ctx, tree); err != nil {
		// drop the half-made metadata so the next run starts over
		_ = os.RemoveAll(filepath.Join(tree.Path, gitMetadataDir))
		return err
	}

	newest, ok := index.Newest(tree.Version.Module)
	if !ok {
		logger.Warnf("[%s] Module is not indexed, no patch applied", tree.Version)
		return nil
	}

	desc, err := it.registry.ReadSource(ctx, newest)
	if err != nil {
		logger.Errorf("[%s] Cannot read patches of %s: %v", tree.Version, newest, err)
		return nil
	}

	names := make([]string, 0, len(desc.Patches))
	for name := range desc.Patches {
		names = append(names, name)
	}
	sort.Strings(names)

	applied := 0
	for _, name := range names {
		patchFile := newest.PatchPath(name)
		if !it.registry.Exists(patchFile) {
			logger.Warnf("[%s] Patch %s is recorded but missing on disk", tree.Version, patchFile)
			continue
		}
		if applyErr := it.workingTree.Apply(ctx, tree.Path, patchFile); applyErr != nil {
			logger.Errorf("[%s] Failed to apply %s, tree left pristine: %v", tree.Version, name, applyErr)
			return nil
		}
		applied++
	}

	if applied > 0 {
		if stageErr := it.workingTree.AddAll(ctx, tree.Path); stageErr != nil {
			return fmt.Errorf("failed to stage applied patch: %w", stageErr)
		}
		logger.Infof("[%s] Applied %d patch file(s)", tree.Version, applied)
	}
	return nil
}

func (it *SourceAcquirer) commitPristine(ctx context.Context, tree entities.SourceTree) error {
	if err := it.workingTree.Init(ctx, tree.Path); err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	if err := it.workingTree.AddAll(ctx, tree.Path); err != nil {
		return fmt.Errorf("failed to stage pristine sources: %w", err)
	}
	if err := it.workingTree.Commit(ctx, tree.Path, initialCommitMessage); err != nil {
		return fmt.Errorf("failed to commit pristine sources: %w", err)
	}
	return nil
}
