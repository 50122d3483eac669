package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	"github.com/rios0rios0/registrypatcher/internal/domain/repositories"
	"github.com/rios0rios0/registrypatcher/internal/forkpoint"
)

// ErrForkPointNotFound is returned when the local branch shares no commit
// with the upstream history that was scanned. Callers must pass an explicit
// baseline instead.
var ErrForkPointNotFound = errors.New("fork point not found")

// ChangeDetector finds source trees with local modifications and modules
// that need a new version folder before their patch can be regenerated.
type ChangeDetector struct {
	settings    *entities.Settings
	workingTree repositories.WorkingTreeRepository
	history     repositories.HistoryRepository
	generator   *PatchGenerator
}

// NewChangeDetector creates a ChangeDetector. history may be nil when only
// DetectChanged is used.
func NewChangeDetector(
	settings *entities.Settings,
	registry repositories.RegistryRepository,
	workingTree repositories.WorkingTreeRepository,
	history repositories.HistoryRepository,
) *ChangeDetector {
	return &ChangeDetector{
		settings:    settings,
		workingTree: workingTree,
		history:     history,
		generator:   NewPatchGenerator(settings, registry, workingTree),
	}
}

// DetectChanged returns the trees with unstaged or untracked changes, plus
// the trees whose staged changes are not what the registry records for the
// version. Ignored housekeeping files never count.
func (it *ChangeDetector) DetectChanged(ctx context.Context, trees []entities.SourceTree) []entities.SourceTree {
	var changed []entities.SourceTree
	for _, tree := range trees {
		isChanged, err := it.isChanged(ctx, tree)
		if err != nil {
			logger.Errorf("[%s] Failed to inspect tree: %v", tree.Version, err)
			continue
		}
		if isChanged {
			changed = append(changed, tree)
		}
	}
	return changed
}

func (it *ChangeDetector) isChanged(ctx context.Context, tree entities.SourceTree) (bool, error) {
	entries, err := it.workingTree.Status(ctx, tree.Path)
	if err != nil {
		return false, fmt.Errorf("failed to read status: %w", err)
	}

	staged := false
	for _, entry := range entries {
		if it.settings.IsIgnored(entry.Path) {
			continue
		}
		if !entry.IsStagedOnly() {
			return true, nil
		}
		staged = true
	}
	if !staged {
		return false, nil
	}

	recorded, err := it.generator.IsRecorded(ctx, tree)
	if err != nil {
		return false, err
	}
	return !recorded, nil
}

// DetectNeedsBump returns the trees whose module still has the same newest
// version at baseline as it has now. Such a module must get a new version
// folder first, or its patch would rewrite the history of a version the
// upstream registry already published. A module with no version folder at
// baseline is new and never needs a bump.
func (it *ChangeDetector) DetectNeedsBump(
	ctx context.Context,
	trees []entities.SourceTree,
	baseline string,
) []entities.SourceTree {
	var needsBump []entities.SourceTree
	for _, tree := range trees {
		dirs, err := it.history.ListDirectories(ctx, baseline, filepath.Dir(tree.Version.Dir))
		if err != nil {
			logger.Errorf("[%s] Failed to list versions at %s: %v", tree.Version, shortHash(baseline), err)
			needsBump = append(needsBump, tree)
			continue
		}

		historical, err := entities.ResolveNewest(dirs)
		if err != nil {
			logger.Debugf("[%s] Not tracked at %s", tree.Version, shortHash(baseline))
			continue
		}

		if filepath.Base(historical) == tree.Version.Name {
			logger.Debugf("[%s] Newest version unchanged since %s", tree.Version, shortHash(baseline))
			needsBump = append(needsBump, tree)
		}
	}
	return needsBump
}

// FindBaseline resolves the commit that local changes are compared against.
// An explicit revision wins; otherwise the fork point between the local and
// the upstream ref is searched. A local ref with no commits of its own has
// nothing to compare and uses its own head.
func (it *ChangeDetector) FindBaseline(ctx context.Context, explicit string) (string, error) {
	baseline, err := it.resolveBaseline(ctx, explicit)
	if err != nil {
		return "", err
	}
	it.describeBaseline(ctx, baseline)
	return baseline, nil
}

func (it *ChangeDetector) resolveBaseline(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		return it.history.ResolveRevision(ctx, explicit)
	}

	localHead, err := it.history.ResolveRevision(ctx, it.settings.LocalRef)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", it.settings.LocalRef, err)
	}
	upstreamHead, err := it.history.ResolveRevision(ctx, it.settings.UpstreamRef)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", it.settings.UpstreamRef, err)
	}

	local, err := it.history.Log(ctx, localHead, upstreamHead, it.settings.HistoryDepth)
	if err != nil {
		return "", fmt.Errorf("failed to read local history: %w", err)
	}
	if len(local) == 0 {
		logger.Infof("%s has no commits beyond %s", it.settings.LocalRef, it.settings.UpstreamRef)
		return localHead, nil
	}

	truncated := it.settings.HistoryDepth > 0 && len(local) >= it.settings.HistoryDepth
	if truncated {
		logger.Warnf(
			"%s has at least %d commits beyond %s, its oldest commits were not scanned",
			it.settings.LocalRef, it.settings.HistoryDepth, it.settings.UpstreamRef,
		)
	}

	upstream, err := it.history.Log(ctx, upstreamHead, "", it.settings.HistoryDepth)
	if err != nil {
		return "", fmt.Errorf("failed to read upstream history: %w", err)
	}

	fork, ok := forkpoint.Find(local, upstream)
	if !ok {
		if truncated {
			return "", fmt.Errorf(
				"%w between %s and %s: local history truncated at %d commits, raise history_depth",
				ErrForkPointNotFound, it.settings.LocalRef, it.settings.UpstreamRef, it.settings.HistoryDepth,
			)
		}
		return "", fmt.Errorf(
			"%w between %s and %s within %d commits",
			ErrForkPointNotFound, it.settings.LocalRef, it.settings.UpstreamRef, it.settings.HistoryDepth,
		)
	}

	logger.Infof("Fork point with %s: %s", it.settings.UpstreamRef, shortHash(fork.Hash))
	return fork.Hash, nil
}

func (it *ChangeDetector) describeBaseline(ctx context.Context, baseline string) {
	details, err := it.history.CommitDetails(ctx, baseline)
	if err != nil {
		logger.Debugf("No details for baseline %s: %v", shortHash(baseline), err)
		return
	}
	logger.Infof(
		"Baseline %s by %s on %s: %s",
		shortHash(details.Hash), details.Author, details.Date.Format(entities.CommitDateLayout), details.Subject(),
	)
}

func shortHash(hash string) string {
	const shortLen = 10
	if len(hash) > shortLen {
		return hash[:shortLen]
	}
	return hash
}
