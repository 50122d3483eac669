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

// Acquire is the interface for the acquire command.
type Acquire interface {
	Execute(ctx context.Context, settings *entities.Settings, opts AcquireOptions) (*AcquireResult, error)
}

// AcquireOptions holds runtime options for an acquire run.
type AcquireOptions struct {
	Modules  []string // If set, only these modules are acquired
	Reporter taskrunner.Reporter
}

// AcquireResult summarizes an acquire run.
type AcquireResult struct {
	Trees      []entities.SourceTree
	Failed     []string
	Unresolved []string
}

// AcquireCommand downloads, extracts and initializes the newest version of
// every selected module in parallel.
type AcquireCommand struct {
	repositories *infraRepos.RepositoryRegistry
}

// NewAcquireCommand creates a new AcquireCommand.
func NewAcquireCommand(repositories *infraRepos.RepositoryRegistry) *AcquireCommand {
	return &AcquireCommand{repositories: repositories}
}

// Execute acquires every selected module. Failures are isolated per module.
func (it *AcquireCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts AcquireOptions,
) (*AcquireResult, error) {
	registry, err := it.repositories.Registry(settings)
	if err != nil {
		return nil, err
	}
	archive, err := it.repositories.Archive(settings)
	if err != nil {
		return nil, err
	}
	workingTree, err := it.repositories.WorkingTree(settings)
	if err != nil {
		return nil, err
	}

	index, unresolved, err := resolveIndex(ctx, registry)
	if err != nil {
		return nil, err
	}
	it.hideWorkDirs(ctx, settings)

	result := &AcquireResult{}
	for _, module := range unresolved {
		result.Unresolved = append(result.Unresolved, module.Name)
	}

	acquirer := NewSourceAcquirer(registry, archive, workingTree)
	versions := index.Filter(opts.Modules)
	logger.Infof("Acquiring %d module(s)...", len(versions))

	var mu sync.Mutex
	taskrunner.Run(versions, func(version entities.Version) {
		tree, acquireErr := acquirer.Acquire(ctx, version)
		if acquireErr == nil {
			acquireErr = acquirer.InitializeRepository(ctx, tree, index)
		}

		mu.Lock()
		defer mu.Unlock()
		if acquireErr != nil {
			logger.Errorf("[%s] Acquisition failed: %v", version, acquireErr)
			result.Failed = append(result.Failed, version.String())
			return
		}
		result.Trees = append(result.Trees, tree)
	}, taskrunner.Options[entities.Version]{
		Concurrency: settings.Concurrency,
		Label:       "acquire",
		Name:        versionName,
		Reporter:    opts.Reporter,
	})

	sort.Slice(result.Trees, func(i, j int) bool {
		return result.Trees[i].Version.Module < result.Trees[j].Version.Module
	})
	sort.Strings(result.Failed)

	logger.Infof(
		"Acquire complete: %d ready, %d failed, %d without versions",
		len(result.Trees), len(result.Failed), len(result.Unresolved),
	)
	return result, nil
}

// hideWorkDirs keeps the extracted archives out of the registry's own status.
func (it *AcquireCommand) hideWorkDirs(ctx context.Context, settings *entities.Settings) {
	history, err := it.repositories.History(settings)
	if err != nil {
		logger.Warnf("Registry is not under version control, %s folders stay visible: %v", entities.DiffedSourcesDir, err)
		return
	}
	if err = history.ExcludeFromStatus(ctx, entities.DiffedSourcesDir+"/"); err != nil {
		logger.Warnf("Failed to exclude %s folders from the registry status: %v", entities.DiffedSourcesDir, err)
	}
}
