//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/rios0rios0/registrypatcher/internal/domain/repositories"
)

// StubArchiveRepository implements repositories.ArchiveRepository on the real
// filesystem: Fetch writes canned bytes and Extract writes canned files.
type StubArchiveRepository struct {
	mu sync.Mutex

	// --- Fetch ---
	Content    []byte
	FetchErr   error
	FetchCalls []string

	// --- Extract ---
	Files        map[string]string // path relative to the destination -> content
	ExtractErr   error
	ExtractCalls []string
}

var _ repositories.ArchiveRepository = (*StubArchiveRepository)(nil)

func (s *StubArchiveRepository) Fetch(_ context.Context, url, dest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FetchCalls = append(s.FetchCalls, url)
	if s.FetchErr != nil {
		return s.FetchErr
	}
	return os.WriteFile(dest, s.Content, 0o600)
}

func (s *StubArchiveRepository) Extract(_ context.Context, archive, destDir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ExtractCalls = append(s.ExtractCalls, archive)
	if s.ExtractErr != nil {
		return s.ExtractErr
	}
	for name, content := range s.Files {
		target := filepath.Join(destDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, []byte(content), 0o600); err != nil {
			return err
		}
	}
	return nil
}
