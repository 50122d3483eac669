package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	"github.com/rios0rios0/registrypatcher/internal/domain/repositories"
)

const (
	dirFileMode    = 0o755
	fileModeMask   = 0o777
	ownerReadWrite = 0o600
)

// HTTPArchiveRepository fetches archives over HTTP and unpacks gzip tarballs.
// Downloads are attempted once; there is no retry.
type HTTPArchiveRepository struct {
	client *http.Client
}

// NewHTTPArchiveRepository creates an archive repository using the configured timeout.
func NewHTTPArchiveRepository(settings *entities.Settings) repositories.ArchiveRepository {
	return &HTTPArchiveRepository{client: &http.Client{Timeout: settings.HTTPTimeout}}
}

// NewHTTPArchiveRepositoryWithClient creates an archive repository on a custom client.
func NewHTTPArchiveRepositoryWithClient(client *http.Client) *HTTPArchiveRepository {
	return &HTTPArchiveRepository{client: client}
}

func (it *HTTPArchiveRepository) Fetch(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := it.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// dest only appears once the download is complete
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".part-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil {
		return fmt.Errorf("failed to download archive: %w", copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to write archive: %w", closeErr)
	}

	if err = os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to store archive: %w", err)
	}
	logger.Debugf("Downloaded %d bytes to %s", written, dest)
	return nil
}

func (it *HTTPArchiveRepository) Extract(ctx context.Context, archive, destDir string) error {
	file, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to read gzip stream: %w", err)
	}
	defer gz.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return fmt.Errorf("invalid destination %q: %w", destDir, err)
	}

	reader := tar.NewReader(gz)
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		header, nextErr := reader.Next()
		if errors.Is(nextErr, io.EOF) {
			return nil
		}
		if nextErr != nil {
			return fmt.Errorf("failed to read tar entry: %w", nextErr)
		}

		if extractErr := extractEntry(root, header, reader); extractErr != nil {
			return extractErr
		}
	}
}

func extractEntry(root string, header *tar.Header, reader io.Reader) error {
	target, err := safeJoin(root, header.Name)
	if err != nil {
		return err
	}

	switch header.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, dirFileMode)

	case tar.TypeReg:
		if err = os.MkdirAll(filepath.Dir(target), dirFileMode); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
		}
		out, createErr := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(header.Mode)&fileModeMask|ownerReadWrite)
		if createErr != nil {
			return fmt.Errorf("failed to create %s: %w", target, createErr)
		}
		if _, err = io.Copy(out, reader); err != nil { //nolint:gosec // archive size bounded by upstream release
			out.Close()
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		return out.Close()

	case tar.TypeSymlink:
		if _, err = safeJoin(root, filepath.Join(filepath.Dir(header.Name), header.Linkname)); err != nil || filepath.IsAbs(header.Linkname) {
			logger.Warnf("Skipping symlink %s -> %s escaping the archive", header.Name, header.Linkname)
			return nil
		}
		if err = os.MkdirAll(filepath.Dir(target), dirFileMode); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
		}
		_ = os.Remove(target)
		return os.Symlink(header.Linkname, target)

	default:
		logger.Debugf("Skipping tar entry %s of type %q", header.Name, header.Typeflag)
		return nil
	}
}

// safeJoin joins name under root and rejects names escaping it.
func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("tar entry %q escapes the destination folder", name)
	}
	return target, nil
}
