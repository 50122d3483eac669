package gitcli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	"github.com/rios0rios0/registrypatcher/internal/domain/repositories"
)

const (
	gitDir        = ".git"
	indexFile     = "index"
	committerName = "registrypatcher"
	committerMail = "registrypatcher@localhost"
	statusMinLen  = 3 // "XY path"
)

// baseArgs keep output independent from the user's git configuration so
// that the same tree always yields byte-identical diffs.
var baseArgs = []string{ //nolint:gochecknoglobals // constant argument list
	"-c", "core.quotepath=false",
	"-c", "core.autocrlf=false",
	"-c", "commit.gpgsign=false",
	"-c", "diff.noprefix=false",
	"-c", "diff.mnemonicprefix=false",
}

// GitCLIRepository implements repositories.WorkingTreeRepository by running
// the git binary.
type GitCLIRepository struct {
	binary string
}

// NewGitCLIRepository creates a repository that runs the configured git binary.
func NewGitCLIRepository(settings *entities.Settings) repositories.WorkingTreeRepository {
	return &GitCLIRepository{binary: settings.GitBinary}
}

func (it *GitCLIRepository) IsRepository(path string) bool {
	_, err := os.Stat(filepath.Join(path, gitDir))
	return err == nil
}

func (it *GitCLIRepository) Init(ctx context.Context, path string) error {
	_, err := it.run(ctx, path, nil, "init", "-q")
	return err
}

func (it *GitCLIRepository) AddAll(ctx context.Context, path string) error {
	_, err := it.run(ctx, path, nil, "add", "-A")
	return err
}

func (it *GitCLIRepository) Commit(ctx context.Context, path, message string) error {
	env := []string{
		"GIT_AUTHOR_NAME=" + committerName,
		"GIT_AUTHOR_EMAIL=" + committerMail,
		"GIT_COMMITTER_NAME=" + committerName,
		"GIT_COMMITTER_EMAIL=" + committerMail,
	}
	_, err := it.run(ctx, path, env, "commit", "-q", "--no-verify", "--allow-empty", "-m", message)
	return err
}

func (it *GitCLIRepository) Apply(ctx context.Context, path, patchFile string) error {
	absPatch, err := filepath.Abs(patchFile)
	if err != nil {
		return fmt.Errorf("invalid patch path %q: %w", patchFile, err)
	}
	_, err = it.run(ctx, path, nil, "apply", "--ignore-whitespace", "--whitespace=nowarn", absPatch)
	return err
}

func (it *GitCLIRepository) DiffCached(ctx context.Context, path string) ([]byte, error) {
	return it.diffCached(ctx, path, nil)
}

// PreviewDiff stages into a copy of the index, so the tree's own index is
// left untouched.
func (it *GitCLIRepository) PreviewDiff(ctx context.Context, path string) ([]byte, error) {
	scratch, err := os.CreateTemp("", "registrypatcher-index-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch index: %w", err)
	}
	scratchPath := scratch.Name()
	defer os.Remove(scratchPath)

	copied, copyErr := copyIndex(filepath.Join(path, gitDir, indexFile), scratch)
	closeErr := scratch.Close()
	if copyErr != nil {
		return nil, copyErr
	}
	if closeErr != nil {
		return nil, fmt.Errorf("failed to write scratch index: %w", closeErr)
	}
	if !copied {
		// git rejects an empty index file but accepts a missing one
		_ = os.Remove(scratchPath)
	}

	env := []string{"GIT_INDEX_FILE=" + scratchPath}
	if _, err = it.run(ctx, path, env, "add", "-A"); err != nil {
		return nil, err
	}
	return it.diffCached(ctx, path, env)
}

func (it *GitCLIRepository) Status(ctx context.Context, path string) ([]entities.StatusEntry, error) {
	output, err := it.run(ctx, path, nil, "status", "--porcelain=v1", "-z", "--untracked-files=all")
	if err != nil {
		return nil, err
	}
	return ParseStatus(output), nil
}

func (it *GitCLIRepository) diffCached(ctx context.Context, path string, env []string) ([]byte, error) {
	return it.run(ctx, path, env, "diff", "--cached", "--no-color", "--no-ext-diff", "--no-renames")
}

// run executes git in dir and returns its standard output. The standard
// error is folded into the returned error.
func (it *GitCLIRepository) run(ctx context.Context, dir string, env []string, args ...string) ([]byte, error) {
	fullArgs := append(append([]string{}, baseArgs...), args...)
	cmd := exec.CommandContext(ctx, it.binary, fullArgs...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debugf("Running git %s in %s", strings.Join(args, " "), dir)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}

// ParseStatus parses the NUL separated output of `git status --porcelain=v1 -z`.
// Renames and copies carry their source path in the following field, which
// is skipped.
func ParseStatus(output []byte) []entities.StatusEntry {
	fields := strings.Split(string(output), "\x00")
	entries := make([]entities.StatusEntry, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		field := fields[i]
		if len(field) < statusMinLen {
			continue
		}
		entry := entities.StatusEntry{
			Index:    field[0],
			Worktree: field[1],
			Path:     field[3:],
		}
		if entry.Index == 'R' || entry.Index == 'C' {
			i++
		}
		entries = append(entries, entry)
	}
	return entries
}

func copyIndex(source string, target io.Writer) (bool, error) {
	file, err := os.Open(source)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to open index: %w", err)
	}
	defer file.Close()

	if _, err = io.Copy(target, file); err != nil {
		return false, fmt.Errorf("failed to copy index: %w", err)
	}
	return true, nil
}
