//go:build unit

package controllers_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/registrypatcher/internal/domain/commands"
	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	"github.com/rios0rios0/registrypatcher/internal/infrastructure/controllers"
	"github.com/rios0rios0/registrypatcher/test/domain/commanddoubles"
)

// newCommand builds a subcommand carrying the root's persistent flags, set
// from a throwaway config file.
func newCommand(t *testing.T, controller entities.Controller, flags ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "registrypatcher.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("registry_root: /srv/registry\n"), 0o600))

	//nolint:exhaustruct // Minimal Command initialization with required fields only
	cmd := &cobra.Command{Use: controller.GetBind().Use}
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("registry", "", "")
	cmd.Flags().Int("concurrency", 0, "")
	cmd.Flags().Bool("verbose", false, "")
	controller.AddFlags(cmd)
	require.NoError(t, cmd.Flags().Parse(append([]string{"--config", configPath}, flags...)))

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	return cmd, out
}

func TestListControllerExecute(t *testing.T) {
	t.Parallel()

	t.Run("should print the newest version of each module", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubListCommand{
			ExecuteResult: &commands.ListResult{
				Newest: []entities.Version{{Module: "lib-x", Name: "1.1"}},
			},
		}
		controller := controllers.NewListController(stub)
		cmd, out := newCommand(t, controller)

		// when
		controller.Execute(cmd, []string{"lib-x"})

		// then
		assert.Equal(t, 1, stub.ExecuteCallCount)
		assert.Equal(t, []string{"lib-x"}, stub.LastOpts.Modules)
		assert.Equal(t, filepath.FromSlash("/srv/registry"), stub.LastSettings.RegistryRoot)
		assert.Equal(t, "lib-x\t1.1\n", out.String())
	})

	t.Run("should not print anything when the command fails", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubListCommand{ExecuteErr: errors.New("boom")}
		controller := controllers.NewListController(stub)
		cmd, out := newCommand(t, controller)

		// when
		controller.Execute(cmd, nil)

		// then
		assert.Equal(t, 1, stub.ExecuteCallCount)
		assert.Empty(t, out.String())
	})

	t.Run("should not run the command when the config is invalid", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubListCommand{}
		controller := controllers.NewListController(stub)
		cmd, _ := newCommand(t, controller)
		require.NoError(t, cmd.Flags().Set("config", filepath.Join(t.TempDir(), "missing.yaml")))

		// when
		controller.Execute(cmd, nil)

		// then
		assert.Zero(t, stub.ExecuteCallCount)
	})
}

func TestAcquireControllerExecute(t *testing.T) {
	t.Parallel()

	t.Run("should override registry and concurrency from flags", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubAcquireCommand{}
		controller := controllers.NewAcquireController(stub)
		cmd, _ := newCommand(t, controller, "--registry", "/other/registry", "--concurrency", "3")

		// when
		controller.Execute(cmd, []string{"zlib", "boost"})

		// then
		require.Equal(t, 1, stub.ExecuteCallCount)
		assert.Equal(t, filepath.FromSlash("/other/registry"), stub.LastSettings.RegistryRoot)
		assert.Equal(t, 3, stub.LastSettings.Concurrency)
		assert.Equal(t, []string{"zlib", "boost"}, stub.LastOpts.Modules)
		assert.NotNil(t, stub.LastOpts.Reporter)
	})
}

func TestStatusControllerExecute(t *testing.T) {
	t.Parallel()

	t.Run("should print the modified modules", func(t *testing.T) {
		t.Parallel()

		// given
		tree := entities.SourceTree{Version: entities.Version{Module: "zlib"}, Path: "/srv/zlib/src"}
		stub := &commanddoubles.StubStatusCommand{
			ExecuteResult: &commands.StatusResult{Changed: []entities.SourceTree{tree}},
		}
		controller := controllers.NewStatusController(stub)
		cmd, out := newCommand(t, controller)

		// when
		controller.Execute(cmd, nil)

		// then
		assert.Equal(t, "zlib\t/srv/zlib/src\n", out.String())
	})
}

func TestPatchControllerExecute(t *testing.T) {
	t.Parallel()

	t.Run("should pass the patch flags to the command", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubPatchCommand{}
		controller := controllers.NewPatchController(stub)
		cmd, _ := newCommand(t, controller, "--baseline", "v1", "--dry-run", "--force")

		// when
		controller.Execute(cmd, nil)

		// then
		require.Equal(t, 1, stub.ExecuteCallCount)
		assert.Equal(t, "v1", stub.LastOpts.Baseline)
		assert.True(t, stub.LastOpts.DryRun)
		assert.True(t, stub.LastOpts.Force)
	})

	t.Run("should print the written patches", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubPatchCommand{
			ExecuteResult: &commands.PatchResult{
				Patched: []entities.PatchRecord{{Path: "/srv/p/lib.patch", Integrity: "sha256-x"}},
			},
		}
		controller := controllers.NewPatchController(stub)
		cmd, out := newCommand(t, controller)

		// when
		controller.Execute(cmd, nil)

		// then
		assert.Equal(t, "/srv/p/lib.patch\tsha256-x\n", out.String())
	})
}

func TestCleanControllerExecute(t *testing.T) {
	t.Parallel()

	t.Run("should pass the modules and flags to the command", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubCleanCommand{}
		controller := controllers.NewCleanController(stub)
		cmd, _ := newCommand(t, controller, "--dry-run", "--force")

		// when
		controller.Execute(cmd, []string{"lib-x"})

		// then
		require.Equal(t, 1, stub.ExecuteCallCount)
		assert.Equal(t, []string{"lib-x"}, stub.LastOpts.Modules)
		assert.True(t, stub.LastOpts.DryRun)
		assert.True(t, stub.LastOpts.Force)
		assert.Equal(t, filepath.FromSlash("/srv/registry"), stub.LastSettings.RegistryRoot)
	})

	t.Run("should print the removed folders", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubCleanCommand{
			ExecuteResult: &commands.CleanResult{Removed: []string{"/srv/registry/modules/lib-x/diffed_sources"}},
		}
		controller := controllers.NewCleanController(stub)
		cmd, out := newCommand(t, controller)

		// when
		controller.Execute(cmd, nil)

		// then
		assert.Equal(t, "/srv/registry/modules/lib-x/diffed_sources\n", out.String())
	})

	t.Run("should print nothing when the command fails", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubCleanCommand{ExecuteErr: errors.New("boom")}
		controller := controllers.NewCleanController(stub)
		cmd, out := newCommand(t, controller)

		// when
		controller.Execute(cmd, nil)

		// then
		assert.Empty(t, out.String())
	})
}
