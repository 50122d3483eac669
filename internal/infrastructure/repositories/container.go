package repositories

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/registrypatcher/internal/infrastructure/repositories/archive"
	"github.com/rios0rios0/registrypatcher/internal/infrastructure/repositories/gitcli"
	"github.com/rios0rios0/registrypatcher/internal/infrastructure/repositories/gogit"
	"github.com/rios0rios0/registrypatcher/internal/infrastructure/repositories/registry"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register the repository registry with every concrete constructor
	return container.Provide(func() *RepositoryRegistry {
		reg := NewRepositoryRegistry()
		reg.RegisterRegistry(registry.NewFilesystemRegistryRepository)
		reg.RegisterWorkingTree(gitcli.NewGitCLIRepository)
		reg.RegisterArchive(archive.NewHTTPArchiveRepository)
		reg.RegisterHistory(gogit.NewHistoryRepository)
		return reg
	})
}
