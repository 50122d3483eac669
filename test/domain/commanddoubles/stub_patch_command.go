//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/registrypatcher/internal/domain/commands"
	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
)

// StubPatchCommand is a stub implementation of commands.Patch.
type StubPatchCommand struct {
	ExecuteCallCount int
	ExecuteResult    *commands.PatchResult
	ExecuteErr       error
	LastSettings     *entities.Settings
	LastOpts         commands.PatchOptions
}

var _ commands.Patch = (*StubPatchCommand)(nil)

func (s *StubPatchCommand) Execute(
	_ context.Context,
	settings *entities.Settings,
	opts commands.PatchOptions,
) (*commands.PatchResult, error) {
	s.ExecuteCallCount++
	s.LastSettings = settings
	s.LastOpts = opts
	if s.ExecuteErr != nil {
		return nil, s.ExecuteErr
	}
	if s.ExecuteResult == nil {
		return &commands.PatchResult{}, nil
	}
	return s.ExecuteResult, nil
}
