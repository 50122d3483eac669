package commands

import (
	"context"
	"sort"
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	infraRepos "github.com/rios0rios0/registrypatcher/internal/infrastructure/repositories"
	"github.com/rios0rios0/registrypatcher/internal/taskrunner"
)

// Patch is the interface for the patch command.
type Patch interface {
	Execute(ctx context.Context, settings *entities.Settings, opts PatchOptions) (*PatchResult, error)
}

// PatchOptions holds runtime options for a patch run.
type PatchOptions struct {
	Modules  []string // If set, only these modules are considered
	Baseline string   // Explicit baseline revision, skips the fork point search
	DryRun   bool     // Preview regenerated patches without writing them
	Force    bool     // Also patch modules that need a version bump
	Reporter taskrunner.Reporter
}

// PatchResult summarizes a patch run.
type PatchResult struct {
	Baseline  string
	Changed   []string
	NeedsBump []string
	Patched   []entities.PatchRecord
	Previews  []PatchPreview
	Failed    []string
}

// PatchCommand regenerates the patch of every changed module whose newest
// version has already been bumped past the baseline.
type PatchCommand struct {
	repositories *infraRepos.RepositoryRegistry
}

// NewPatchCommand creates a new PatchCommand.
func NewPatchCommand(repositories *infraRepos.RepositoryRegistry) *PatchCommand {
	return &PatchCommand{repositories: repositories}
}

// Execute detects changed modules, holds back the ones needing a bump and
// regenerates patches for the rest in parallel.
func (it *PatchCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts PatchOptions,
) (*PatchResult, error) {
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

	result := &PatchResult{}
	trees := acquiredTrees(ctx, registry, workingTree, index.Filter(opts.Modules))
	changed := NewChangeDetector(settings, registry, workingTree, nil).DetectChanged(ctx, trees)
	for _, tree := range changed {
		result.Changed = append(result.Changed, tree.Version.Module)
	}
	if len(changed) == 0 {
		logger.Info("No local modifications found, nothing to patch.")
		return result, nil
	}

	history, err := it.repositories.History(settings)
	if err != nil {
		return nil, err
	}
	detector := NewChangeDetector(settings, registry, workingTree, history)

	result.Baseline, err = detector.FindBaseline(ctx, opts.Baseline)
	if err != nil {
		return nil, err
	}

	toPatch := changed
	needsBump := detector.DetectNeedsBump(ctx, changed, result.Baseline)
	if len(needsBump) > 0 {
		held := make(map[string]struct{}, len(needsBump))
		for _, tree := range needsBump {
			result.NeedsBump = append(result.NeedsBump, tree.Version.Module)
			held[tree.Version.Module] = struct{}{}
			if opts.Force {
				logger.Warnf("[%s] Needs a version bump, patching anyway (--force)", tree.Version)
			} else {
				logger.Warnf("[%s] Needs a version bump: create a new version folder before patching", tree.Version)
			}
		}
		if !opts.Force {
			toPatch = make([]entities.SourceTree, 0, len(changed))
			for _, tree := range changed {
				if _, ok := held[tree.Version.Module]; !ok {
					toPatch = append(toPatch, tree)
				}
			}
		}
	}

	generator := NewPatchGenerator(settings, registry, workingTree)
	it.generate(ctx, settings, generator, toPatch, opts, result)

	sort.Slice(result.Patched, func(i, j int) bool { return result.Patched[i].Path < result.Patched[j].Path })
	sort.Slice(result.Previews, func(i, j int) bool { return result.Previews[i].Record.Path < result.Previews[j].Record.Path })
	sort.Strings(result.Failed)

	logger.Infof(
		"Patch complete: %d changed, %d need a bump, %d patched, %d previewed, %d failed",
		len(result.Changed), len(result.NeedsBump), len(result.Patched), len(result.Previews), len(result.Failed),
	)
	return result, nil
}

func (it *PatchCommand) generate(
	ctx context.Context,
	settings *entities.Settings,
	generator *PatchGenerator,
	trees []entities.SourceTree,
	opts PatchOptions,
	result *PatchResult,
) {
	label := "patch"
	if opts.DryRun {
		label = "preview"
	}

	var mu sync.Mutex
	taskrunner.Run(trees, func(tree entities.SourceTree) {
		if opts.DryRun {
			preview, previewErr := generator.Preview(ctx, tree)
			mu.Lock()
			defer mu.Unlock()
			if previewErr != nil {
				logger.Errorf("[%s] Preview failed: %v", tree.Version, previewErr)
				result.Failed = append(result.Failed, tree.Version.String())
				return
			}
			if preview.Changed {
				logger.Infof("[%s] [DRY RUN] Would rewrite %s:\n%s", tree.Version, preview.Record.Name, preview.Diff)
			} else {
				logger.Infof("[%s] [DRY RUN] %s is up to date", tree.Version, preview.Record.Name)
			}
			result.Previews = append(result.Previews, preview)
			return
		}

		record, patchErr := generator.PatchAndHash(ctx, tree)
		mu.Lock()
		defer mu.Unlock()
		if patchErr != nil {
			logger.Errorf("[%s] Patch generation failed: %v", tree.Version, patchErr)
			result.Failed = append(result.Failed, tree.Version.String())
			return
		}
		result.Patched = append(result.Patched, record)
	}, taskrunner.Options[entities.SourceTree]{
		Concurrency: settings.Concurrency,
		Label:       label,
		Name:        treeName,
		Reporter:    opts.Reporter,
	})
}
