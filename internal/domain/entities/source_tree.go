package entities

import (
	"path/filepath"
)

// SourceTree is the extracted, version-controlled working copy of a
// version's upstream archive.
type SourceTree struct {
	Version Version
	Path    string
}

// NewSourceTree derives the tree location from the version and its strip prefix.
func NewSourceTree(version Version, stripPrefix string) SourceTree {
	return SourceTree{
		Version: version,
		Path:    filepath.Join(version.WorkDir(), stripPrefix),
	}
}

// StatusEntry is one line of a porcelain status listing.
type StatusEntry struct {
	Index    byte // staged side of the status code
	Worktree byte // unstaged side of the status code
	Path     string
}

// IsUntracked reports whether the entry is a file git does not know about.
func (e StatusEntry) IsUntracked() bool {
	return e.Index == '?' && e.Worktree == '?'
}

// IsStagedOnly reports whether every change of the entry is already in the
// index. Staged content is what the last patch application or patch
// generation recorded, so it does not count as a local modification.
func (e StatusEntry) IsStagedOnly() bool {
	return !e.IsUntracked() && e.Worktree == ' '
}
