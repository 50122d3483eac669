//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/registrypatcher/internal/domain/commands"
	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
)

// StubCleanCommand is a stub implementation of commands.Clean.
type StubCleanCommand struct {
	ExecuteCallCount int
	ExecuteResult    *commands.CleanResult
	ExecuteErr       error
	LastSettings     *entities.Settings
	LastOpts         commands.CleanOptions
}

var _ commands.Clean = (*StubCleanCommand)(nil)

func (s *StubCleanCommand) Execute(
	_ context.Context,
	settings *entities.Settings,
	opts commands.CleanOptions,
) (*commands.CleanResult, error) {
	s.ExecuteCallCount++
	s.LastSettings = settings
	s.LastOpts = opts
	if s.ExecuteErr != nil {
		return nil, s.ExecuteErr
	}
	if s.ExecuteResult == nil {
		return &commands.CleanResult{}, nil
	}
	return s.ExecuteResult, nil
}
