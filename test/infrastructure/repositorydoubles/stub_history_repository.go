//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	"github.com/rios0rios0/registrypatcher/internal/domain/repositories"
)

// LogCall records a single invocation of Log.
type LogCall struct {
	Head    string
	Exclude string
	Limit   int
}

// StubHistoryRepository implements repositories.HistoryRepository from canned data.
type StubHistoryRepository struct {
	// --- ResolveRevision ---
	Revisions map[string]string // revision -> hash

	// --- Log ---
	Logs     map[string][]entities.CommitRef // head hash -> commits, newest first
	LogErr   error
	LogCalls []LogCall

	// --- CommitDetails ---
	Details map[string]entities.CommitDetails // hash -> details

	// --- ListDirectories ---
	Directories map[string]map[string][]string // commit -> absolute dir -> names
	ListErr     error
	ListCalls   []string

	// --- ExcludeFromStatus ---
	ExcludeErr   error
	ExcludeCalls []string
}

var _ repositories.HistoryRepository = (*StubHistoryRepository)(nil)

func (s *StubHistoryRepository) ResolveRevision(_ context.Context, revision string) (string, error) {
	hash, ok := s.Revisions[revision]
	if !ok {
		return "", fmt.Errorf("unknown revision %q", revision)
	}
	return hash, nil
}

func (s *StubHistoryRepository) Log(
	_ context.Context,
	head, exclude string,
	limit int,
) ([]entities.CommitRef, error) {
	s.LogCalls = append(s.LogCalls, LogCall{Head: head, Exclude: exclude, Limit: limit})
	if s.LogErr != nil {
		return nil, s.LogErr
	}
	return s.Logs[head], nil
}

func (s *StubHistoryRepository) CommitDetails(_ context.Context, hash string) (entities.CommitDetails, error) {
	details, ok := s.Details[hash]
	if !ok {
		return entities.CommitDetails{}, fmt.Errorf("unknown commit %q", hash)
	}
	return details, nil
}

func (s *StubHistoryRepository) ListDirectories(_ context.Context, commit, dir string) ([]string, error) {
	s.ListCalls = append(s.ListCalls, commit+":"+dir)
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return s.Directories[commit][dir], nil
}

func (s *StubHistoryRepository) ExcludeFromStatus(_ context.Context, pattern string) error {
	s.ExcludeCalls = append(s.ExcludeCalls, pattern)
	return s.ExcludeErr
}
