// Package cache provides byte-level caching for repository lookups.
//
// Descriptors and repository metadata are expensive to fetch and parse, so
// adapters cache their decoded form through the [Cache] interface. Several
// backends are available:
//
//   - [FileCache]: one file per entry, for the CLI
//   - [MemoryCache]: bounded LRU, for tests and single-process servers
//   - [RedisCache]: shared cache for multi-instance servers
//   - [NullCache]: caching disabled
//
// Keys are built by a [Keyer] so that every backend sees the same layout:
//
//	k := cache.NewDefaultKeyer()
//	key := k.DescriptorKey("org.slf4j:slf4j-api:pom:2.0.9")
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default time-to-live per entry kind.
const (
	TTLDescriptor = 7 * 24 * time.Hour // Released descriptors never change
	TTLMetadata   = time.Hour          // maven-metadata.xml is republished on deploy
	TTLSnapshot   = 10 * time.Minute   // Descriptors of snapshot versions
	TTLReport     = 30 * 24 * time.Hour
)

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey is the key for a raw HTTP response body.
	HTTPKey(namespace, url string) string

	// DescriptorKey is the key for a parsed module descriptor.
	DescriptorKey(coordinate string) string

	// MetadataKey is the key for merged repository metadata.
	MetadataKey(repositoryID, ref string) string

	// ResolutionKey is the key for a resolution result.
	ResolutionKey(root string, opts ResolutionKeyOpts) string
}

// ResolutionKeyOpts are the inputs that change a resolution result.
type ResolutionKeyOpts struct {
	Scope        string   `json:"scope"`
	Types        []string `json:"types,omitempty"`
	Repositories []string `json:"repositories,omitempty"`
	IncludeRoot  bool     `json:"include_root,omitempty"`
}

// DefaultKeyer produces readable keys for descriptors and metadata and
// hashed keys for resolution results.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default Keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey implements Keyer.
func (DefaultKeyer) HTTPKey(namespace, url string) string {
	return "http:" + namespace + ":" + url
}

// DescriptorKey implements Keyer.
func (DefaultKeyer) DescriptorKey(coordinate string) string {
	return "descriptor:" + coordinate
}

// MetadataKey implements Keyer.
func (DefaultKeyer) MetadataKey(repositoryID, ref string) string {
	return "metadata:" + repositoryID + ":" + ref
}

// ResolutionKey implements Keyer.
func (DefaultKeyer) ResolutionKey(root string, opts ResolutionKeyOpts) string {
	return hashKey("resolution", root, opts)
}

var _ Keyer = DefaultKeyer{}
