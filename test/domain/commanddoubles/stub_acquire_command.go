//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/registrypatcher/internal/domain/commands"
	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
)

// StubAcquireCommand is a stub implementation of commands.Acquire.
type StubAcquireCommand struct {
	ExecuteCallCount int
	ExecuteResult    *commands.AcquireResult
	ExecuteErr       error
	LastSettings     *entities.Settings
	LastOpts         commands.AcquireOptions
}

var _ commands.Acquire = (*StubAcquireCommand)(nil)

func (s *StubAcquireCommand) Execute(
	_ context.Context,
	settings *entities.Settings,
	opts commands.AcquireOptions,
) (*commands.AcquireResult, error) {
	s.ExecuteCallCount++
	s.LastSettings = settings
	s.LastOpts = opts
	if s.ExecuteErr != nil {
		return nil, s.ExecuteErr
	}
	if s.ExecuteResult == nil {
		return &commands.AcquireResult{}, nil
	}
	return s.ExecuteResult, nil
}
