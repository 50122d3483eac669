//go:build unit

package commands_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/registrypatcher/internal/domain/commands"
	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	"github.com/rios0rios0/registrypatcher/internal/infrastructure/repositories/gogit"
	"github.com/rios0rios0/registrypatcher/test/domain/entitybuilders"
	doubles "github.com/rios0rios0/registrypatcher/test/infrastructure/repositorydoubles"
)

func newLibXTree(t *testing.T, fixture *doubles.RegistryFixture) entities.SourceTree {
	t.Helper()

	source := entitybuilders.NewSourceDescriptorBuilder().WithStripPrefix("lib-x-1.1").BuildJSON()
	fixture.AddVersion(t, "lib-x", "1.0", source)
	version := fixture.AddVersion(t, "lib-x", "1.1", source)
	return fixture.AddTree(t, version, "lib-x-1.1", nil)
}

// newRecordedLibXTree lays out lib-x 1.1 with a staged tree whose diff,
// patch file, integrity and manifest copy all agree.
func newRecordedLibXTree(
	t *testing.T,
	fixture *doubles.RegistryFixture,
	workingTree *doubles.SpyWorkingTreeRepository,
) entities.SourceTree {
	t.Helper()

	source := entitybuilders.NewSourceDescriptorBuilder().
		WithStripPrefix("lib-x-1.1").
		WithPatch(entities.DefaultPatchName, entities.Integrity([]byte(libXDiff))).
		BuildJSON()
	version := fixture.AddVersion(t, "lib-x", "1.1", source)
	fixture.AddPatch(t, version, entities.DefaultPatchName, []byte(libXDiff))
	manifest := "module(name = \"lib-x\", version = \"1.1\")\n"
	require.NoError(t, os.WriteFile(filepath.Join(version.Dir, "MODULE.bazel"), []byte(manifest), 0o600))
	tree := fixture.AddTree(t, version, "lib-x-1.1", map[string]string{"MODULE.bazel": manifest})

	workingTree.Statuses[tree.Path] = []entities.StatusEntry{{Index: 'M', Worktree: ' ', Path: "src/a.c"}}
	workingTree.Diffs[tree.Path] = []byte(libXDiff)
	return tree
}

func TestChangeDetectorDetectChanged(t *testing.T) {
	t.Parallel()

	t.Run("should report a tree with unstaged edits", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := doubles.NewRegistryFixture(t)
		workingTree := doubles.NewSpyWorkingTreeRepository()
		tree := newRecordedLibXTree(t, fixture, workingTree)
		workingTree.Statuses[tree.Path] = []entities.StatusEntry{{Index: 'M', Worktree: 'M', Path: "src/a.c"}}
		detector := commands.NewChangeDetector(fixture.Settings, fixture.Registry(), workingTree, nil)

		// when
		changed := detector.DetectChanged(context.Background(), []entities.SourceTree{tree})

		// then
		assert.Equal(t, []entities.SourceTree{tree}, changed)
		assert.Empty(t, workingTree.PreviewCalls)
	})

	t.Run("should skip a staged tree whose patch is already recorded", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := doubles.NewRegistryFixture(t)
		workingTree := doubles.NewSpyWorkingTreeRepository()
		tree := newRecordedLibXTree(t, fixture, workingTree)
		detector := commands.NewChangeDetector(fixture.Settings, fixture.Registry(), workingTree, nil)

		// when
		changed := detector.DetectChanged(context.Background(), []entities.SourceTree{tree})

		// then
		assert.Empty(t, changed)
		assert.Equal(t, []string{tree.Path}, workingTree.PreviewCalls)
	})

	t.Run("should report a staged tree whose patch file was never written", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := doubles.NewRegistryFixture(t)
		workingTree := doubles.NewSpyWorkingTreeRepository()
		tree := newRecordedLibXTree(t, fixture, workingTree)
		require.NoError(t, os.Remove(tree.Version.PatchPath(entities.DefaultPatchName)))
		detector := commands.NewChangeDetector(fixture.Settings, fixture.Registry(), workingTree, nil)

		// when
		changed := detector.DetectChanged(context.Background(), []entities.SourceTree{tree})

		// then
		assert.Equal(t, []entities.SourceTree{tree}, changed)
	})

	t.Run("should report a staged tree edited by hand since the last patch", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := doubles.NewRegistryFixture(t)
		workingTree := doubles.NewSpyWorkingTreeRepository()
		tree := newRecordedLibXTree(t, fixture, workingTree)
		workingTree.Diffs[tree.Path] = []byte(libXDiff + "+int b;\n")
		detector := commands.NewChangeDetector(fixture.Settings, fixture.Registry(), workingTree, nil)

		// when
		changed := detector.DetectChanged(context.Background(), []entities.SourceTree{tree})

		// then
		assert.Equal(t, []entities.SourceTree{tree}, changed)
	})

	t.Run("should report a staged tree whose integrity is stale", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := doubles.NewRegistryFixture(t)
		workingTree := doubles.NewSpyWorkingTreeRepository()
		tree := newRecordedLibXTree(t, fixture, workingTree)
		stale := entitybuilders.NewSourceDescriptorBuilder().
			WithStripPrefix("lib-x-1.1").
			WithPatch(entities.DefaultPatchName, "sha256-stale").
			BuildJSON()
		require.NoError(t, os.WriteFile(tree.Version.SourcePath(), stale, 0o600))
		detector := commands.NewChangeDetector(fixture.Settings, fixture.Registry(), workingTree, nil)

		// when
		changed := detector.DetectChanged(context.Background(), []entities.SourceTree{tree})

		// then
		assert.Equal(t, []entities.SourceTree{tree}, changed)
	})

	t.Run("should report a staged tree whose manifest copy is out of date", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := doubles.NewRegistryFixture(t)
		workingTree := doubles.NewSpyWorkingTreeRepository()
		tree := newRecordedLibXTree(t, fixture, workingTree)
		require.NoError(t, os.Remove(filepath.Join(tree.Version.Dir, "MODULE.bazel")))
		detector := commands.NewChangeDetector(fixture.Settings, fixture.Registry(), workingTree, nil)

		// when
		changed := detector.DetectChanged(context.Background(), []entities.SourceTree{tree})

		// then
		assert.Equal(t, []entities.SourceTree{tree}, changed)
	})

	t.Run("should ignore housekeeping files", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := doubles.NewRegistryFixture(t)
		workingTree := doubles.NewSpyWorkingTreeRepository()
		tree := newRecordedLibXTree(t, fixture, workingTree)
		workingTree.Statuses[tree.Path] = []entities.StatusEntry{
			{Index: '?', Worktree: '?', Path: ".DS_Store"},
			{Index: ' ', Worktree: 'M', Path: "MODULE.bazel.lock"},
		}
		detector := commands.NewChangeDetector(fixture.Settings, fixture.Registry(), workingTree, nil)

		// when
		changed := detector.DetectChanged(context.Background(), []entities.SourceTree{tree})

		// then
		assert.Empty(t, changed)
		assert.Empty(t, workingTree.PreviewCalls)
	})
}

func TestChangeDetectorDetectNeedsBump(t *testing.T) {
	t.Parallel()

	t.Run("should not flag a module bumped after the baseline", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := doubles.NewRegistryFixture(t)
		tree := newLibXTree(t, fixture)
		moduleDir := filepath.Dir(tree.Version.Dir)
		history := &doubles.StubHistoryRepository{
			Directories: map[string]map[string][]string{"base": {moduleDir: {"1.0"}}},
		}
		detector := commands.NewChangeDetector(fixture.Settings, nil, nil, history)

		// when
		needsBump := detector.DetectNeedsBump(context.Background(), []entities.SourceTree{tree}, "base")

		// then
		assert.Empty(t, needsBump)
		assert.Equal(t, []string{"base:" + moduleDir}, history.ListCalls)
	})

	t.Run("should flag a module whose newest version existed at the baseline", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := doubles.NewRegistryFixture(t)
		tree := newLibXTree(t, fixture)
		history := &doubles.StubHistoryRepository{
			Directories: map[string]map[string][]string{
				"base": {filepath.Dir(tree.Version.Dir): {"1.0", "1.1"}},
			},
		}
		detector := commands.NewChangeDetector(fixture.Settings, nil, nil, history)

		// when
		needsBump := detector.DetectNeedsBump(context.Background(), []entities.SourceTree{tree}, "base")

		// then
		assert.Equal(t, []entities.SourceTree{tree}, needsBump)
	})

	t.Run("should never flag a module added after the baseline", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := doubles.NewRegistryFixture(t)
		tree := newLibXTree(t, fixture)
		history := &doubles.StubHistoryRepository{}
		detector := commands.NewChangeDetector(fixture.Settings, nil, nil, history)

		// when
		needsBump := detector.DetectNeedsBump(context.Background(), []entities.SourceTree{tree}, "base")

		// then
		assert.Empty(t, needsBump)
	})

	t.Run("should flag a published version of a registry kept in a sub-folder", func(t *testing.T) {
		t.Parallel()

		// given
		repoDir := t.TempDir()
		settings := entities.DefaultSettings()
		settings.RegistryRoot = filepath.Join(repoDir, "registry")
		settings.ApplyDefaults()
		version := entities.Version{
			Module: "lib-x",
			Name:   "1.0",
			Dir:    filepath.Join(settings.ModulesRoot(), "lib-x", "1.0"),
		}
		require.NoError(t, os.MkdirAll(version.Dir, 0o755))
		require.NoError(t, os.WriteFile(version.SourcePath(),
			entitybuilders.NewSourceDescriptorBuilder().BuildJSON(), 0o600))

		repo, err := git.PlainInit(repoDir, false)
		require.NoError(t, err)
		worktree, err := repo.Worktree()
		require.NoError(t, err)
		_, err = worktree.Add("registry")
		require.NoError(t, err)
		head, err := worktree.Commit("publish lib-x 1.0", &git.CommitOptions{
			Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
		})
		require.NoError(t, err)

		history, err := gogit.NewHistoryRepository(settings)
		require.NoError(t, err)
		tree := entities.NewSourceTree(version, "lib-x-1.0")
		detector := commands.NewChangeDetector(settings, nil, nil, history)

		// when
		needsBump := detector.DetectNeedsBump(context.Background(), []entities.SourceTree{tree}, head.String())

		// then
		assert.Equal(t, []entities.SourceTree{tree}, needsBump)
	})

	t.Run("should flag a module whose history cannot be read", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := doubles.NewRegistryFixture(t)
		tree := newLibXTree(t, fixture)
		history := &doubles.StubHistoryRepository{ListErr: errors.New("object not found")}
		detector := commands.NewChangeDetector(fixture.Settings, nil, nil, history)

		// when
		needsBump := detector.DetectNeedsBump(context.Background(), []entities.SourceTree{tree}, "base")

		// then
		assert.Len(t, needsBump, 1)
	})
}

func TestChangeDetectorFindBaseline(t *testing.T) {
	t.Parallel()

	settings := entities.DefaultSettings()

	t.Run("should resolve an explicit baseline without searching", func(t *testing.T) {
		t.Parallel()

		// given
		history := &doubles.StubHistoryRepository{Revisions: map[string]string{"v1.0": "abc123"}}
		detector := commands.NewChangeDetector(settings, nil, nil, history)

		// when
		baseline, err := detector.FindBaseline(context.Background(), "v1.0")

		// then
		require.NoError(t, err)
		assert.Equal(t, "abc123", baseline)
		assert.Empty(t, history.LogCalls)
	})

	t.Run("should use the fork point of the local branch", func(t *testing.T) {
		t.Parallel()

		// given
		history := &doubles.StubHistoryRepository{
			Revisions: map[string]string{"HEAD": "L2", "origin/main": "U3"},
			Logs: map[string][]entities.CommitRef{
				"L2": {{Hash: "L2", Parents: []string{"L1"}}, {Hash: "L1", Parents: []string{"U2"}}},
				"U3": {
					{Hash: "U3", Parents: []string{"U2"}},
					{Hash: "U2", Parents: []string{"U1"}},
					{Hash: "U1"},
				},
			},
		}
		detector := commands.NewChangeDetector(settings, nil, nil, history)

		// when
		baseline, err := detector.FindBaseline(context.Background(), "")

		// then
		require.NoError(t, err)
		assert.Equal(t, "U2", baseline)
		assert.Equal(t, []doubles.LogCall{
			{Head: "L2", Exclude: "U3", Limit: settings.HistoryDepth},
			{Head: "U3", Exclude: "", Limit: settings.HistoryDepth},
		}, history.LogCalls)
	})

	t.Run("should use the local head when it has no commits of its own", func(t *testing.T) {
		t.Parallel()

		// given
		history := &doubles.StubHistoryRepository{
			Revisions: map[string]string{"HEAD": "U3", "origin/main": "U3"},
		}
		detector := commands.NewChangeDetector(settings, nil, nil, history)

		// when
		baseline, err := detector.FindBaseline(context.Background(), "")

		// then
		require.NoError(t, err)
		assert.Equal(t, "U3", baseline)
	})

	t.Run("should return ErrForkPointNotFound for unrelated histories", func(t *testing.T) {
		t.Parallel()

		// given
		history := &doubles.StubHistoryRepository{
			Revisions: map[string]string{"HEAD": "L1", "origin/main": "U1"},
			Logs: map[string][]entities.CommitRef{
				"L1": {{Hash: "L1", Parents: []string{"X0"}}},
				"U1": {{Hash: "U1", Parents: []string{"U0"}}},
			},
		}
		detector := commands.NewChangeDetector(settings, nil, nil, history)

		// when
		_, err := detector.FindBaseline(context.Background(), "")

		// then
		require.ErrorIs(t, err, commands.ErrForkPointNotFound)
	})

	t.Run("should point at history_depth when the local history was truncated", func(t *testing.T) {
		t.Parallel()

		// given
		shallow := *settings
		shallow.HistoryDepth = 2
		history := &doubles.StubHistoryRepository{
			Revisions: map[string]string{"HEAD": "L3", "origin/main": "U2"},
			Logs: map[string][]entities.CommitRef{
				"L3": {{Hash: "L3", Parents: []string{"L2"}}, {Hash: "L2", Parents: []string{"L1"}}},
				"U2": {{Hash: "U2", Parents: []string{"U1"}}, {Hash: "U1"}},
			},
		}
		detector := commands.NewChangeDetector(&shallow, nil, nil, history)

		// when
		_, err := detector.FindBaseline(context.Background(), "")

		// then
		require.ErrorIs(t, err, commands.ErrForkPointNotFound)
		assert.Contains(t, err.Error(), "history_depth")
	})

	t.Run("should still return the baseline when its details cannot be read", func(t *testing.T) {
		t.Parallel()

		// given
		history := &doubles.StubHistoryRepository{
			Revisions: map[string]string{"v1.0": "abc123", "v1.1": "def456"},
			Details: map[string]entities.CommitDetails{
				"def456": {
					Hash:    "def456",
					Author:  "Jane Doe",
					Date:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
					Message: "Add lib-x 1.1\n\nBumps the version.",
				},
			},
		}
		detector := commands.NewChangeDetector(settings, nil, nil, history)

		// when
		undescribed, undescribedErr := detector.FindBaseline(context.Background(), "v1.0")
		described, describedErr := detector.FindBaseline(context.Background(), "v1.1")

		// then
		require.NoError(t, undescribedErr)
		require.NoError(t, describedErr)
		assert.Equal(t, "abc123", undescribed)
		assert.Equal(t, "def456", described)
	})

	t.Run("should fail when the upstream ref does not exist", func(t *testing.T) {
		t.Parallel()

		// given
		history := &doubles.StubHistoryRepository{Revisions: map[string]string{"HEAD": "L1"}}
		detector := commands.NewChangeDetector(settings, nil, nil, history)

		// when
		_, err := detector.FindBaseline(context.Background(), "")

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "origin/main")
	})
}
