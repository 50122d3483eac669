//go:build unit

package gitcli_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	"github.com/rios0rios0/registrypatcher/internal/infrastructure/repositories/gitcli"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	t.Run("should split NUL separated entries", func(t *testing.T) {
		t.Parallel()

		// given
		output := []byte(" M src/a.c\x00M  src/b.c\x00?? new file.c\x00")

		// when
		entries := gitcli.ParseStatus(output)

		// then
		assert.Equal(t, []entities.StatusEntry{
			{Index: ' ', Worktree: 'M', Path: "src/a.c"},
			{Index: 'M', Worktree: ' ', Path: "src/b.c"},
			{Index: '?', Worktree: '?', Path: "new file.c"},
		}, entries)
	})

	t.Run("should skip the source path of renames", func(t *testing.T) {
		t.Parallel()

		// given
		output := []byte("R  new.c\x00old.c\x00 D gone.c\x00")

		// when
		entries := gitcli.ParseStatus(output)

		// then
		assert.Equal(t, []entities.StatusEntry{
			{Index: 'R', Worktree: ' ', Path: "new.c"},
			{Index: ' ', Worktree: 'D', Path: "gone.c"},
		}, entries)
	})

	t.Run("should return nothing for a clean tree", func(t *testing.T) {
		t.Parallel()

		// given / when
		entries := gitcli.ParseStatus(nil)

		// then
		assert.Empty(t, entries)
	})
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func TestGitCLIRepository(t *testing.T) {
	t.Parallel()

	t.Run("should stage an applied patch so only later edits count as changes", func(t *testing.T) {
		t.Parallel()
		requireGit(t)

		// given
		ctx := context.Background()
		repo := gitcli.NewGitCLIRepository(entities.DefaultSettings())
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.c"), []byte("int a;\n"), 0o600))
		require.NoError(t, repo.Init(ctx, dir))
		require.NoError(t, repo.AddAll(ctx, dir))
		require.NoError(t, repo.Commit(ctx, dir, "Initial commit"))
		assert.True(t, repo.IsRepository(dir))

		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.c"), []byte("int a = 1;\n"), 0o600))
		require.NoError(t, repo.AddAll(ctx, dir))

		// when
		staged, statusErr := repo.Status(ctx, dir)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.c"), []byte("int b;\n"), 0o600))
		edited, editedErr := repo.Status(ctx, dir)

		// then
		require.NoError(t, statusErr)
		require.NoError(t, editedErr)
		assert.Equal(t, []entities.StatusEntry{{Index: 'M', Worktree: ' ', Path: "a.c"}}, staged)
		assert.Contains(t, edited, entities.StatusEntry{Index: '?', Worktree: '?', Path: "b.c"})
	})

	t.Run("should produce the same diff from the index and from a preview", func(t *testing.T) {
		t.Parallel()
		requireGit(t)

		// given
		ctx := context.Background()
		repo := gitcli.NewGitCLIRepository(entities.DefaultSettings())
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.c"), []byte("int a;\n"), 0o600))
		require.NoError(t, repo.Init(ctx, dir))
		require.NoError(t, repo.AddAll(ctx, dir))
		require.NoError(t, repo.Commit(ctx, dir, "Initial commit"))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.c"), []byte("int a = 1;\n"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "new.c"), []byte("int n;\n"), 0o600))

		// when
		preview, previewErr := repo.PreviewDiff(ctx, dir)
		statusAfterPreview, statusErr := repo.Status(ctx, dir)
		require.NoError(t, repo.AddAll(ctx, dir))
		cached, cachedErr := repo.DiffCached(ctx, dir)

		// then
		require.NoError(t, previewErr)
		require.NoError(t, statusErr)
		require.NoError(t, cachedErr)
		assert.Equal(t, string(cached), string(preview))
		assert.Contains(t, string(cached), "diff --git a/a.c b/a.c")
		assert.Contains(t, string(cached), "+int n;")
		assert.Contains(t, statusAfterPreview, entities.StatusEntry{Index: '?', Worktree: '?', Path: "new.c"})
	})

	t.Run("should apply a patch produced by DiffCached", func(t *testing.T) {
		t.Parallel()
		requireGit(t)

		// given
		ctx := context.Background()
		repo := gitcli.NewGitCLIRepository(entities.DefaultSettings())
		source := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(source, "a.c"), []byte("int a;\n"), 0o600))
		require.NoError(t, repo.Init(ctx, source))
		require.NoError(t, repo.AddAll(ctx, source))
		require.NoError(t, repo.Commit(ctx, source, "Initial commit"))
		require.NoError(t, os.WriteFile(filepath.Join(source, "a.c"), []byte("int a = 1;\n"), 0o600))
		require.NoError(t, repo.AddAll(ctx, source))
		diff, err := repo.DiffCached(ctx, source)
		require.NoError(t, err)

		target := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(target, "a.c"), []byte("int a;\n"), 0o600))
		require.NoError(t, repo.Init(ctx, target))
		patchFile := filepath.Join(t.TempDir(), "a.patch")
		require.NoError(t, os.WriteFile(patchFile, diff, 0o600))

		// when
		applyErr := repo.Apply(ctx, target, patchFile)

		// then
		require.NoError(t, applyErr)
		content, readErr := os.ReadFile(filepath.Join(target, "a.c"))
		require.NoError(t, readErr)
		assert.Equal(t, "int a = 1;\n", string(content))
	})

	t.Run("should include the git error output when a command fails", func(t *testing.T) {
		t.Parallel()
		requireGit(t)

		// given
		ctx := context.Background()
		repo := gitcli.NewGitCLIRepository(entities.DefaultSettings())
		dir := t.TempDir()
		require.NoError(t, repo.Init(ctx, dir))

		// when
		err := repo.Apply(ctx, dir, filepath.Join(dir, "missing.patch"))

		// then
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "git apply"))
	})
}
