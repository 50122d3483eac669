package entities

import (
	"crypto/sha256"
	"encoding/base64"
)

// IntegrityPrefix tags integrity strings with the hash algorithm used.
const IntegrityPrefix = "sha256-"

// PatchRecord is a generated patch file plus the integrity of its exact bytes.
type PatchRecord struct {
	Name      string
	Path      string
	Integrity string
	Size      int
}

// Integrity returns the "sha256-<base64>" digest of data.
func Integrity(data []byte) string {
	sum := sha256.Sum256(data)
	return IntegrityPrefix + base64.StdEncoding.EncodeToString(sum[:])
}
