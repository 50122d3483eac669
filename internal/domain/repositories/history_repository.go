package repositories

import (
	"context"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
)

// HistoryRepository reads the commit history of the registry itself and keeps
// its local exclude list.
type HistoryRepository interface {
	// ResolveRevision turns a branch, tag, remote ref or hash into a commit hash.
	ResolveRevision(ctx context.Context, revision string) (string, error)

	// Log lists commits reachable from head, newest first, stopping after limit
	// commits. Commits reachable from exclude are skipped when exclude is set.
	Log(ctx context.Context, head, exclude string, limit int) ([]entities.CommitRef, error)

	// CommitDetails returns the author, date and message of a commit.
	CommitDetails(ctx context.Context, hash string) (entities.CommitDetails, error)

	// ListDirectories lists the sub-folder names of dir as recorded at commit.
	// dir is a path on disk inside the repository's worktree. A dir that does
	// not exist at that commit yields an empty list.
	ListDirectories(ctx context.Context, commit, dir string) ([]string, error)

	// ExcludeFromStatus adds pattern to the repository's local exclude file
	// unless it is already listed.
	ExcludeFromStatus(ctx context.Context, pattern string) error
}
