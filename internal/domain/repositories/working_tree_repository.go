package repositories

import (
	"context"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
)

// WorkingTreeRepository drives the version-control binary inside an extracted
// source tree. Every call blocks until the underlying process exits.
type WorkingTreeRepository interface {
	// IsRepository returns true if the tree already has version-control metadata.
	IsRepository(path string) bool

	// Init creates an empty repository in the tree.
	Init(ctx context.Context, path string) error

	// AddAll stages every change of the tree, including deletions and new files.
	AddAll(ctx context.Context, path string) error

	// Commit records the staged content with the given message.
	Commit(ctx context.Context, path, message string) error

	// Apply applies a unified diff to the working tree, tolerating whitespace changes.
	Apply(ctx context.Context, path, patchFile string) error

	// DiffCached returns the unified diff of the staged changes against HEAD.
	DiffCached(ctx context.Context, path string) ([]byte, error)

	// PreviewDiff returns the diff DiffCached would return after AddAll,
	// without touching the tree's index.
	PreviewDiff(ctx context.Context, path string) ([]byte, error)

	// Status returns the porcelain status entries of the tree.
	Status(ctx context.Context, path string) ([]entities.StatusEntry, error)
}
