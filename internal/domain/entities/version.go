package entities

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
)

// VersionPrefix is the only major line the registry tracks. Folders outside
// of it are ignored rather than treated as errors.
const VersionPrefix = "1."

// ErrVersionNotFound is returned when no candidate folder matches the
// tracked version line.
var ErrVersionNotFound = errors.New("no version directory found")

// Version is one version directory of a module, e.g. "modules/boost/1.83.0.bzl.1".
type Version struct {
	Module string // owning module name
	Name   string // folder name, e.g. "1.83.0.bzl.1"
	Dir    string // absolute or registry-relative path of the folder
}

// String returns the module@version label used in log lines.
func (v Version) String() string {
	return v.Module + "@" + v.Name
}

// IsVersionName reports whether a folder name belongs to the tracked version line.
func IsVersionName(name string) bool {
	return strings.HasPrefix(name, VersionPrefix)
}

// ParseVersion turns a folder name into the integers of its purely numeric
// dot-separated segments. "1.83.0.bzl.1" parses to [1 83 0 1].
func ParseVersion(name string) []int {
	parts := strings.Split(name, ".")
	result := make([]int, 0, len(parts))
	for _, part := range parts {
		if part == "" || strings.TrimLeft(part, "0123456789") != "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		result = append(result, n)
	}
	return result
}

// CompareVersions orders two folder names by their numeric tuples. A tuple
// that is a strict prefix of the other is less. Equal tuples fall back to a
// plain string comparison so that the result is deterministic.
func CompareVersions(a, b string) int {
	left, right := ParseVersion(a), ParseVersion(b)
	for i := 0; i < len(left) && i < len(right); i++ {
		if left[i] != right[i] {
			if left[i] < right[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(left) < len(right):
		return -1
	case len(left) > len(right):
		return 1
	}
	return strings.Compare(a, b)
}

// ResolveNewest returns the candidate path whose final segment is the newest
// version of the tracked line. Candidates outside of the line are skipped;
// ErrVersionNotFound is returned when nothing is left.
func ResolveNewest(candidates []string) (string, error) {
	newest := ""
	newestName := ""
	for _, candidate := range candidates {
		name := filepath.Base(candidate)
		if !IsVersionName(name) {
			continue
		}
		if newest == "" || CompareVersions(name, newestName) > 0 {
			newest = candidate
			newestName = name
		}
	}
	if newest == "" {
		return "", ErrVersionNotFound
	}
	return newest, nil
}

const (
	// DiffedSourcesDir is the working folder created beside the version folders.
	DiffedSourcesDir = "diffed_sources"
	// SourceFileName is the metadata record of a version.
	SourceFileName = "source.json"
	// PatchesDirName holds the patch files of a version.
	PatchesDirName = "patches"
)

// WorkDir is the module-level folder where archives are downloaded and extracted.
func (v Version) WorkDir() string {
	return filepath.Join(filepath.Dir(v.Dir), DiffedSourcesDir)
}

// SourcePath is the path of the version's source.json.
func (v Version) SourcePath() string {
	return filepath.Join(v.Dir, SourceFileName)
}

// PatchPath is the path of the named patch file inside the version folder.
func (v Version) PatchPath(name string) string {
	return filepath.Join(v.Dir, PatchesDirName, name)
}
