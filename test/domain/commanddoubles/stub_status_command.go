//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/registrypatcher/internal/domain/commands"
	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
)

// StubStatusCommand is a stub implementation of commands.Status.
type StubStatusCommand struct {
	ExecuteCallCount int
	ExecuteResult    *commands.StatusResult
	ExecuteErr       error
	LastSettings     *entities.Settings
	LastOpts         commands.StatusOptions
}

var _ commands.Status = (*StubStatusCommand)(nil)

func (s *StubStatusCommand) Execute(
	_ context.Context,
	settings *entities.Settings,
	opts commands.StatusOptions,
) (*commands.StatusResult, error) {
	s.ExecuteCallCount++
	s.LastSettings = settings
	s.LastOpts = opts
	if s.ExecuteErr != nil {
		return nil, s.ExecuteErr
	}
	if s.ExecuteResult == nil {
		return &commands.StatusResult{}, nil
	}
	return s.ExecuteResult, nil
}
