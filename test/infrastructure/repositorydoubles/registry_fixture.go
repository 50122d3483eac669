//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	"github.com/rios0rios0/registrypatcher/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/registrypatcher/internal/infrastructure/repositories"
	"github.com/rios0rios0/registrypatcher/internal/infrastructure/repositories/registry"
)

// RegistryFixture lays out a throwaway registry in a temporary folder.
type RegistryFixture struct {
	Root     string
	Settings *entities.Settings
}

// NewRegistryFixture creates an empty registry with default settings.
func NewRegistryFixture(t testing.TB) *RegistryFixture {
	t.Helper()

	settings := entities.DefaultSettings()
	settings.RegistryRoot = t.TempDir()
	settings.Concurrency = 2
	settings.ApplyDefaults()
	require.NoError(t, os.MkdirAll(settings.ModulesRoot(), 0o755))

	return &RegistryFixture{Root: settings.RegistryRoot, Settings: settings}
}

// AddVersion creates a version folder holding the given source.json.
func (f *RegistryFixture) AddVersion(t testing.TB, module, name string, source []byte) entities.Version {
	t.Helper()

	dir := filepath.Join(f.Settings.ModulesRoot(), module, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, entities.SourceFileName), source, 0o600))
	return entities.Version{Module: module, Name: name, Dir: dir}
}

// AddPatch writes a patch file into the version's patches folder.
func (f *RegistryFixture) AddPatch(t testing.TB, version entities.Version, name string, data []byte) string {
	t.Helper()

	path := version.PatchPath(name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// AddTree creates the extracted source tree of a version with the given files.
func (f *RegistryFixture) AddTree(
	t testing.TB,
	version entities.Version,
	stripPrefix string,
	files map[string]string,
) entities.SourceTree {
	t.Helper()

	tree := entities.NewSourceTree(version, stripPrefix)
	require.NoError(t, os.MkdirAll(tree.Path, 0o755))
	for name, content := range files {
		target := filepath.Join(tree.Path, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
		require.NoError(t, os.WriteFile(target, []byte(content), 0o600))
	}
	return tree
}

// Registry returns the filesystem registry repository over the fixture.
func (f *RegistryFixture) Registry() repositories.RegistryRepository {
	return registry.NewFilesystemRegistryRepository(f.Settings)
}

// Repositories wires the fixture and the given doubles into a repository
// registry. A nil history leaves the history constructor unregistered.
func (f *RegistryFixture) Repositories(
	workingTree repositories.WorkingTreeRepository,
	archive repositories.ArchiveRepository,
	history repositories.HistoryRepository,
) *infraRepos.RepositoryRegistry {
	reg := infraRepos.NewRepositoryRegistry()
	reg.RegisterRegistry(registry.NewFilesystemRegistryRepository)
	reg.RegisterWorkingTree(func(_ *entities.Settings) repositories.WorkingTreeRepository {
		return workingTree
	})
	reg.RegisterArchive(func(_ *entities.Settings) repositories.ArchiveRepository {
		return archive
	})
	if history != nil {
		reg.RegisterHistory(func(_ *entities.Settings) (repositories.HistoryRepository, error) {
			return history, nil
		})
	}
	return reg
}
