package repositories

import "context"

// ArchiveRepository downloads and unpacks upstream source archives.
type ArchiveRepository interface {
	// Fetch downloads url and stores the raw bytes at dest.
	Fetch(ctx context.Context, url, dest string) error

	// Extract unpacks the gzip-compressed tarball at archive into destDir.
	Extract(ctx context.Context, archive, destDir string) error
}
