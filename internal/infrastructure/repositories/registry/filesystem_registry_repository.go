package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	"github.com/rios0rios0/registrypatcher/internal/domain/repositories"
)

const (
	dirFileMode  = 0o755
	fileFileMode = 0o644
)

// FilesystemRegistryRepository implements repositories.RegistryRepository on
// the local modules folder. Writes go to a temporary sibling first and are
// renamed into place, so readers never observe a half-written file.
type FilesystemRegistryRepository struct {
	modulesRoot string
}

// NewFilesystemRegistryRepository creates a registry rooted at the settings' modules folder.
func NewFilesystemRegistryRepository(settings *entities.Settings) repositories.RegistryRepository {
	return &FilesystemRegistryRepository{modulesRoot: settings.ModulesRoot()}
}

func (it *FilesystemRegistryRepository) ListModules(_ context.Context) ([]entities.Module, error) {
	entries, err := os.ReadDir(it.modulesRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to read modules folder %s: %w", it.modulesRoot, err)
	}

	var modules []entities.Module
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		modules = append(modules, entities.Module{
			Name: entry.Name(),
			Dir:  filepath.Join(it.modulesRoot, entry.Name()),
		})
	}
	return modules, nil
}

func (it *FilesystemRegistryRepository) ListVersionDirs(_ context.Context, module entities.Module) ([]string, error) {
	entries, err := os.ReadDir(module.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read module folder %s: %w", module.Dir, err)
	}

	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == entities.DiffedSourcesDir {
			continue
		}
		dirs = append(dirs, module.VersionDir(entry.Name()))
	}
	sort.Strings(dirs)
	return dirs, nil
}

func (it *FilesystemRegistryRepository) ReadSource(
	_ context.Context,
	version entities.Version,
) (*entities.SourceDescriptor, error) {
	path := version.SourcePath()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	desc, err := entities.DecodeSourceDescriptor(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return desc, nil
}

func (it *FilesystemRegistryRepository) WriteSource(
	ctx context.Context,
	version entities.Version,
	desc *entities.SourceDescriptor,
) error {
	data, err := desc.Encode()
	if err != nil {
		return err
	}
	return it.WriteFile(ctx, version.SourcePath(), data)
}

func (it *FilesystemRegistryRepository) ReadFile(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

func (it *FilesystemRegistryRepository) WriteFile(_ context.Context, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirFileMode); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		return fmt.Errorf("failed to write %s: %w", path, writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to write %s: %w", path, closeErr)
	}
	if err = os.Chmod(tmp.Name(), fileFileMode); err != nil {
		return fmt.Errorf("failed to set mode of %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func (it *FilesystemRegistryRepository) Remove(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (it *FilesystemRegistryRepository) RemoveTree(_ context.Context, path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

func (it *FilesystemRegistryRepository) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
