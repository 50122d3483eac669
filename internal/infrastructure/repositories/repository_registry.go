package repositories

import (
	"errors"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	domainRepos "github.com/rios0rios0/registrypatcher/internal/domain/repositories"
)

// RegistryFactory creates a RegistryRepository for the given settings.
type RegistryFactory func(settings *entities.Settings) domainRepos.RegistryRepository

// WorkingTreeFactory creates a WorkingTreeRepository for the given settings.
type WorkingTreeFactory func(settings *entities.Settings) domainRepos.WorkingTreeRepository

// ArchiveFactory creates an ArchiveRepository for the given settings.
type ArchiveFactory func(settings *entities.Settings) domainRepos.ArchiveRepository

// HistoryFactory opens a HistoryRepository for the given settings. Opening
// fails when the registry root is not under version control.
type HistoryFactory func(settings *entities.Settings) (domainRepos.HistoryRepository, error)

// RepositoryRegistry holds the constructors of every repository the commands
// need. Repositories depend on settings that are only known once the CLI
// flags are parsed, so commands build them per run.
type RepositoryRegistry struct {
	registry    RegistryFactory
	workingTree WorkingTreeFactory
	archive     ArchiveFactory
	history     HistoryFactory
}

// NewRepositoryRegistry creates an empty repository registry.
func NewRepositoryRegistry() *RepositoryRegistry {
	return &RepositoryRegistry{}
}

// RegisterRegistry sets the registry repository constructor.
func (r *RepositoryRegistry) RegisterRegistry(factory RegistryFactory) {
	r.registry = factory
}

// RegisterWorkingTree sets the working tree repository constructor.
func (r *RepositoryRegistry) RegisterWorkingTree(factory WorkingTreeFactory) {
	r.workingTree = factory
}

// RegisterArchive sets the archive repository constructor.
func (r *RepositoryRegistry) RegisterArchive(factory ArchiveFactory) {
	r.archive = factory
}

// RegisterHistory sets the history repository constructor.
func (r *RepositoryRegistry) RegisterHistory(factory HistoryFactory) {
	r.history = factory
}

// Registry returns a registry repository configured for settings.
func (r *RepositoryRegistry) Registry(settings *entities.Settings) (domainRepos.RegistryRepository, error) {
	if r.registry == nil {
		return nil, errors.New("no registry repository registered")
	}
	return r.registry(settings), nil
}

// WorkingTree returns a working tree repository configured for settings.
func (r *RepositoryRegistry) WorkingTree(settings *entities.Settings) (domainRepos.WorkingTreeRepository, error) {
	if r.workingTree == nil {
		return nil, errors.New("no working tree repository registered")
	}
	return r.workingTree(settings), nil
}

// Archive returns an archive repository configured for settings.
func (r *RepositoryRegistry) Archive(settings *entities.Settings) (domainRepos.ArchiveRepository, error) {
	if r.archive == nil {
		return nil, errors.New("no archive repository registered")
	}
	return r.archive(settings), nil
}

// History opens the history repository of the registry root.
func (r *RepositoryRegistry) History(settings *entities.Settings) (domainRepos.HistoryRepository, error) {
	if r.history == nil {
		return nil, errors.New("no history repository registered")
	}
	return r.history(settings)
}
