//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"maps"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

const (
	defaultURL         = "https://example.com/archive/lib-1.0.0.tar.gz"
	defaultStripPrefix = "lib-1.0.0"
	defaultIntegrity   = "sha256-AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="
)

// SourceDescriptorBuilder helps create test source descriptors with a fluent interface.
type SourceDescriptorBuilder struct {
	*testkit.BaseBuilder
	url         string
	stripPrefix string
	integrity   string
	patches     map[string]string
}

// NewSourceDescriptorBuilder creates a new source descriptor builder with sensible defaults.
func NewSourceDescriptorBuilder() *SourceDescriptorBuilder {
	return &SourceDescriptorBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		url:         defaultURL,
		stripPrefix: defaultStripPrefix,
		integrity:   defaultIntegrity,
		patches:     map[string]string{},
	}
}

// WithURL sets the archive URL.
func (b *SourceDescriptorBuilder) WithURL(url string) *SourceDescriptorBuilder {
	b.url = url
	return b
}

// WithStripPrefix sets the folder the archive extracts into.
func (b *SourceDescriptorBuilder) WithStripPrefix(prefix string) *SourceDescriptorBuilder {
	b.stripPrefix = prefix
	return b
}

// WithIntegrity sets the archive integrity.
func (b *SourceDescriptorBuilder) WithIntegrity(integrity string) *SourceDescriptorBuilder {
	b.integrity = integrity
	return b
}

// WithPatch records a patch file and its integrity.
func (b *SourceDescriptorBuilder) WithPatch(name, integrity string) *SourceDescriptorBuilder {
	b.patches[name] = integrity
	return b
}

// Build creates the source descriptor (satisfies testkit.Builder interface).
func (b *SourceDescriptorBuilder) Build() interface{} {
	return b.BuildSourceDescriptor()
}

// BuildSourceDescriptor creates the source descriptor with a concrete return type.
func (b *SourceDescriptorBuilder) BuildSourceDescriptor() *entities.SourceDescriptor {
	return &entities.SourceDescriptor{
		URL:         b.url,
		StripPrefix: b.stripPrefix,
		Integrity:   b.integrity,
		Patches:     maps.Clone(b.patches),
	}
}

// BuildJSON encodes the source descriptor the way it is stored on disk.
func (b *SourceDescriptorBuilder) BuildJSON() []byte {
	data, err := b.BuildSourceDescriptor().Encode()
	if err != nil {
		panic(err)
	}
	return data
}

// Reset clears the builder state, allowing it to be reused.
func (b *SourceDescriptorBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.url = defaultURL
	b.stripPrefix = defaultStripPrefix
	b.integrity = defaultIntegrity
	b.patches = map[string]string{}
	return b
}

// Clone creates a deep copy of the SourceDescriptorBuilder.
func (b *SourceDescriptorBuilder) Clone() testkit.Builder {
	return &SourceDescriptorBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		url:         b.url,
		stripPrefix: b.stripPrefix,
		integrity:   b.integrity,
		patches:     maps.Clone(b.patches),
	}
}
