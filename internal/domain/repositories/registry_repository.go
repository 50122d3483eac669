package repositories

import (
	"context"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
)

// RegistryRepository gives access to the module folders of the registry.
type RegistryRepository interface {
	// ListModules returns every module folder under the modules root.
	ListModules(ctx context.Context) ([]entities.Module, error)

	// ListVersionDirs returns the paths of every version candidate folder of a module.
	ListVersionDirs(ctx context.Context, module entities.Module) ([]string, error)

	// ReadSource decodes and validates the version's source.json.
	ReadSource(ctx context.Context, version entities.Version) (*entities.SourceDescriptor, error)

	// WriteSource rewrites the version's source.json in full.
	WriteSource(ctx context.Context, version entities.Version, desc *entities.SourceDescriptor) error

	// ReadFile returns the content of a file, or nil if it does not exist.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile replaces a file with data, creating parent folders as needed.
	WriteFile(ctx context.Context, path string, data []byte) error

	// Remove deletes a file; a missing file is not an error.
	Remove(ctx context.Context, path string) error

	// RemoveTree deletes a folder and everything below it; a missing folder is not an error.
	RemoveTree(ctx context.Context, path string) error

	// Exists reports whether a path exists.
	Exists(path string) bool
}
