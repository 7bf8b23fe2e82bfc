package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/mirrorkeep/domain"
)

// MirrorRecordBuilder helps create test mirror records with a fluent interface.
type MirrorRecordBuilder struct {
	*testkit.BaseBuilder
	fullName    string
	mirrorURL   string
	upstreamURL string
	description string
	private     bool
}

// NewMirrorRecordBuilder creates a new mirror record builder with sensible defaults.
func NewMirrorRecordBuilder() *MirrorRecordBuilder {
	return &MirrorRecordBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		fullName:    "testuser/mirror-repo",
		mirrorURL:   "https://github.com/testuser/mirror-repo",
		upstreamURL: "https://github.com/upstream/repo",
		description: "test mirror",
		private:     true,
	}
}

// WithFullName sets the owner/repo name.
func (b *MirrorRecordBuilder) WithFullName(name string) *MirrorRecordBuilder {
	b.fullName = name
	return b
}

// WithMirrorURL sets the mirror URL.
func (b *MirrorRecordBuilder) WithMirrorURL(url string) *MirrorRecordBuilder {
	b.mirrorURL = url
	return b
}

// WithUpstreamURL sets the upstream URL; pass "" for an unknown upstream.
func (b *MirrorRecordBuilder) WithUpstreamURL(url string) *MirrorRecordBuilder {
	b.upstreamURL = url
	return b
}

// WithDescription sets the description.
func (b *MirrorRecordBuilder) WithDescription(description string) *MirrorRecordBuilder {
	b.description = description
	return b
}

// WithPrivate sets the visibility flag.
func (b *MirrorRecordBuilder) WithPrivate(private bool) *MirrorRecordBuilder {
	b.private = private
	return b
}

// Build creates the record (satisfies testkit.Builder interface).
func (b *MirrorRecordBuilder) Build() interface{} {
	return b.BuildMirrorRecord()
}

// BuildMirrorRecord creates the record with a concrete return type.
func (b *MirrorRecordBuilder) BuildMirrorRecord() domain.MirrorRecord {
	return domain.MirrorRecord{
		FullName:    b.fullName,
		MirrorURL:   b.mirrorURL,
		UpstreamURL: b.upstreamURL,
		Description: b.description,
		Private:     b.private,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *MirrorRecordBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.fullName = "testuser/mirror-repo"
	b.mirrorURL = "https://github.com/testuser/mirror-repo"
	b.upstreamURL = "https://github.com/upstream/repo"
	b.description = "test mirror"
	b.private = true
	return b
}

// Clone creates a deep copy of the MirrorRecordBuilder.
func (b *MirrorRecordBuilder) Clone() testkit.Builder {
	return &MirrorRecordBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		fullName:    b.fullName,
		mirrorURL:   b.mirrorURL,
		upstreamURL: b.upstreamURL,
		description: b.description,
		private:     b.private,
	}
}
