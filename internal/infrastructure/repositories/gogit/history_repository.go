package gogit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/filesystem"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	"github.com/rios0rios0/registrypatcher/internal/domain/repositories"
)

const excludeFile = "info/exclude"

// HistoryRepository implements repositories.HistoryRepository on top of the
// registry's own git repository, read in-process with go-git.
type HistoryRepository struct {
	repo *git.Repository
}

// NewHistoryRepository opens the repository containing the registry root.
func NewHistoryRepository(settings *entities.Settings) (repositories.HistoryRepository, error) {
	repo, err := git.PlainOpenWithOptions(settings.RegistryRoot, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open registry repository at %s: %w", settings.RegistryRoot, err)
	}
	return &HistoryRepository{repo: repo}, nil
}

// NewHistoryRepositoryFrom wraps an already opened repository.
func NewHistoryRepositoryFrom(repo *git.Repository) *HistoryRepository {
	return &HistoryRepository{repo: repo}
}

func (it *HistoryRepository) ResolveRevision(_ context.Context, revision string) (string, error) {
	hash, err := it.repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return "", fmt.Errorf("failed to resolve revision %q: %w", revision, err)
	}
	return hash.String(), nil
}

func (it *HistoryRepository) Log(
	ctx context.Context,
	head, exclude string,
	limit int,
) ([]entities.CommitRef, error) {
	excluded := map[plumbing.Hash]struct{}{}
	if exclude != "" {
		err := it.walk(ctx, plumbing.NewHash(exclude), func(commit *object.Commit) error {
			excluded[commit.Hash] = struct{}{}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	var commits []entities.CommitRef
	err := it.walk(ctx, plumbing.NewHash(head), func(commit *object.Commit) error {
		if _, skip := excluded[commit.Hash]; skip {
			return nil
		}
		commits = append(commits, toCommitRef(commit))
		if limit > 0 && len(commits) >= limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return commits, nil
}

func (it *HistoryRepository) CommitDetails(_ context.Context, hash string) (entities.CommitDetails, error) {
	commit, err := it.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return entities.CommitDetails{}, fmt.Errorf("failed to read commit %s: %w", hash, err)
	}
	return entities.CommitDetails{
		Hash:    commit.Hash.String(),
		Author:  commit.Author.Name,
		Date:    commit.Author.When,
		Message: commit.Message,
	}, nil
}

func (it *HistoryRepository) ListDirectories(_ context.Context, commit, dir string) ([]string, error) {
	rel, err := it.worktreePath(dir)
	if err != nil {
		return nil, err
	}

	commitObject, err := it.repo.CommitObject(plumbing.NewHash(commit))
	if err != nil {
		return nil, fmt.Errorf("failed to read commit %s: %w", commit, err)
	}
	tree, err := commitObject.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to read tree of %s: %w", commit, err)
	}

	if rel != "." {
		tree, err = tree.Tree(filepath.ToSlash(rel))
		if errors.Is(err, object.ErrDirectoryNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s at %s: %w", rel, commit, err)
		}
	}

	var names []string
	for _, entry := range tree.Entries {
		if entry.Mode == filemode.Dir {
			names = append(names, entry.Name)
		}
	}
	return names, nil
}

func (it *HistoryRepository) ExcludeFromStatus(_ context.Context, pattern string) error {
	storage, ok := it.repo.Storer.(*filesystem.Storage)
	if !ok {
		return errors.New("registry repository has no metadata folder on disk")
	}
	fs := storage.Filesystem()

	content, err := util.ReadFile(fs, excludeFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read %s: %w", excludeFile, err)
	}
	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == pattern {
			logger.Debugf("%q is already excluded", pattern)
			return nil
		}
	}

	if err = fs.MkdirAll(filepath.Dir(excludeFile), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(excludeFile), err)
	}
	file, err := fs.OpenFile(excludeFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", excludeFile, err)
	}
	defer file.Close()

	line := pattern + "\n"
	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		line = "\n" + line
	}
	if _, err = file.Write([]byte(line)); err != nil {
		return fmt.Errorf("failed to write %s: %w", excludeFile, err)
	}
	logger.Infof("Added %q to the registry's %s", pattern, excludeFile)
	return nil
}

// worktreePath turns a path on disk into a path relative to the worktree
// root, which is what commit trees are keyed by.
func (it *HistoryRepository) worktreePath(dir string) (string, error) {
	worktree, err := it.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to open registry worktree: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	root := resolveLinks(worktree.Filesystem.Root())
	rel, err := filepath.Rel(root, resolveLinks(abs))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the registry repository at %s", dir, root)
	}
	return rel, nil
}

func resolveLinks(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return filepath.Clean(path)
}

// walk visits the history of from, newest committer time first.
func (it *HistoryRepository) walk(
	ctx context.Context,
	from plumbing.Hash,
	visit func(commit *object.Commit) error,
) error {
	iter, err := it.repo.Log(&git.LogOptions{
		From:  from,
		Order: git.LogOrderCommitterTime,
	})
	if err != nil {
		return fmt.Errorf("failed to read history of %s: %w", from, err)
	}
	defer iter.Close()

	err = iter.ForEach(func(commit *object.Commit) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return visit(commit)
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return fmt.Errorf("failed to walk history of %s: %w", from, err)
	}
	return nil
}

func toCommitRef(commit *object.Commit) entities.CommitRef {
	parents := make([]string, 0, len(commit.ParentHashes))
	for _, parent := range commit.ParentHashes {
		parents = append(parents, parent.String())
	}
	return entities.CommitRef{Hash: commit.Hash.String(), Parents: parents}
}
