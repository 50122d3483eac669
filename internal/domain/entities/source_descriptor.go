package entities

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
)

// DefaultPatchName is the file name a regenerated patch is written under when
// the version does not record exactly one patch.
const DefaultPatchName = "patch.diff"

// ErrInvalidSource marks a source.json that is missing required fields or
// cannot be decoded.
var ErrInvalidSource = errors.New("invalid source descriptor")

// SourceDescriptor is the decoded source.json of a version. Keys the engine
// does not know about are kept in Extra and written back untouched.
type SourceDescriptor struct {
	URL         string
	StripPrefix string
	Integrity   string
	Patches     map[string]string // patch file name -> integrity string
	Extra       map[string]json.RawMessage
}

const (
	keyURL         = "url"
	keyStripPrefix = "strip_prefix"
	keyIntegrity   = "integrity"
	keyPatches     = "patches"
)

// DecodeSourceDescriptor parses and validates a source.json payload.
func DecodeSourceDescriptor(data []byte) (*SourceDescriptor, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrInvalidSource)
	}

	desc := &SourceDescriptor{Patches: map[string]string{}}
	fields := map[string]any{
		keyURL:         &desc.URL,
		keyStripPrefix: &desc.StripPrefix,
		keyIntegrity:   &desc.Integrity,
		keyPatches:     &desc.Patches,
	}
	for key, target := range fields {
		value, ok := raw[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, target); err != nil {
			return nil, fmt.Errorf("%w: field %q: %w", ErrInvalidSource, key, err)
		}
		delete(raw, key)
	}
	if desc.Patches == nil {
		desc.Patches = map[string]string{}
	}
	if len(raw) > 0 {
		desc.Extra = raw
	}

	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return desc, nil
}

// Validate rejects descriptors that cannot be used to materialize a tree.
func (d *SourceDescriptor) Validate() error {
	if strings.TrimSpace(d.URL) == "" {
		return fmt.Errorf("%w: %q is required", ErrInvalidSource, keyURL)
	}
	if strings.TrimSpace(d.StripPrefix) == "" {
		return fmt.Errorf("%w: %q is required", ErrInvalidSource, keyStripPrefix)
	}
	return nil
}

// Encode renders the descriptor as indented JSON with a trailing newline.
func (d *SourceDescriptor) Encode() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+4) //nolint:mnd // known keys
	for key, value := range d.Extra {
		out[key] = value
	}
	out[keyURL] = d.URL
	out[keyStripPrefix] = d.StripPrefix
	out[keyIntegrity] = d.Integrity
	patches := d.Patches
	if patches == nil {
		patches = map[string]string{}
	}
	out[keyPatches] = patches

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(out); err != nil {
		return nil, fmt.Errorf("failed to encode source descriptor: %w", err)
	}
	return buf.Bytes(), nil
}

// ArchiveName is the file name the archive is stored under once downloaded.
func (d *SourceDescriptor) ArchiveName() string {
	trimmed := d.URL
	if idx := strings.IndexAny(trimmed, "?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return path.Base(trimmed)
}

// PatchName returns the single patch file name recorded for the version, or
// DefaultPatchName when none or several are recorded.
func (d *SourceDescriptor) PatchName() string {
	if len(d.Patches) == 1 {
		for name := range d.Patches {
			return name
		}
	}
	return DefaultPatchName
}
