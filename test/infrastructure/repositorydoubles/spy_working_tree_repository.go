//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	"github.com/rios0rios0/registrypatcher/internal/domain/repositories"
)

// ApplyCall records a single invocation of Apply.
type ApplyCall struct {
	Path      string
	PatchFile string
}

// SpyWorkingTreeRepository implements repositories.WorkingTreeRepository as a
// configurable spy. It is safe for the concurrent use the task runner makes.
type SpyWorkingTreeRepository struct {
	mu sync.Mutex

	// --- IsRepository / Init ---
	Repositories map[string]bool
	InitErr      error
	InitCalls    []string

	// --- AddAll / Commit ---
	AddAllErr   error
	AddAllCalls []string
	CommitErr   error
	CommitCalls []string

	// --- Apply ---
	ApplyErr   error
	ApplyCalls []ApplyCall

	// --- DiffCached / PreviewDiff ---
	Diffs        map[string][]byte
	DiffErr      error
	PreviewCalls []string

	// --- Status ---
	Statuses  map[string][]entities.StatusEntry
	StatusErr map[string]error
}

var _ repositories.WorkingTreeRepository = (*SpyWorkingTreeRepository)(nil)

// NewSpyWorkingTreeRepository creates a spy with empty response maps.
func NewSpyWorkingTreeRepository() *SpyWorkingTreeRepository {
	return &SpyWorkingTreeRepository{
		Repositories: map[string]bool{},
		Diffs:        map[string][]byte{},
		Statuses:     map[string][]entities.StatusEntry{},
		StatusErr:    map[string]error{},
	}
}

func (s *SpyWorkingTreeRepository) IsRepository(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Repositories[path]
}

func (s *SpyWorkingTreeRepository) Init(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InitCalls = append(s.InitCalls, path)
	if s.InitErr != nil {
		return s.InitErr
	}
	s.Repositories[path] = true
	return nil
}

func (s *SpyWorkingTreeRepository) AddAll(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AddAllCalls = append(s.AddAllCalls, path)
	return s.AddAllErr
}

func (s *SpyWorkingTreeRepository) Commit(_ context.Context, path, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CommitCalls = append(s.CommitCalls, path)
	return s.CommitErr
}

func (s *SpyWorkingTreeRepository) Apply(_ context.Context, path, patchFile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ApplyCalls = append(s.ApplyCalls, ApplyCall{Path: path, PatchFile: patchFile})
	return s.ApplyErr
}

func (s *SpyWorkingTreeRepository) DiffCached(_ context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DiffErr != nil {
		return nil, s.DiffErr
	}
	return s.Diffs[path], nil
}

func (s *SpyWorkingTreeRepository) PreviewDiff(_ context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PreviewCalls = append(s.PreviewCalls, path)
	if s.DiffErr != nil {
		return nil, s.DiffErr
	}
	return s.Diffs[path], nil
}

func (s *SpyWorkingTreeRepository) Status(_ context.Context, path string) ([]entities.StatusEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.StatusErr[path]; err != nil {
		return nil, err
	}
	return s.Statuses[path], nil
}
