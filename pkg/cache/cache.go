// Package cache stores computed permutations and rendered artifacts so that
// reordering the same graph twice does the work once.
//
// Entries are opaque byte slices addressed by string keys. Keys are built by a
// [Keyer] from the graph fingerprint and the options that influence the
// result, so any change to either produces a different key.
//
// Three backends are provided: [FileCache] for the CLI, [RedisCache] for the
// HTTP server and [NullCache] when caching is disabled.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values per entry kind.
const (
	TTLPermutation = 7 * 24 * time.Hour
	TTLRender      = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was found. A missing or
	// expired entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// PermutationKeyOpts are the options that change a computed permutation.
type PermutationKeyOpts struct {
	Source   uint32 `json:"source"`
	Reverse  bool   `json:"reverse,omitempty"`
	Complete bool   `json:"complete,omitempty"`
}

// RenderKeyOpts are the options that change a rendered graph.
type RenderKeyOpts struct {
	Source   uint32 `json:"source"`
	Reverse  bool   `json:"reverse,omitempty"`
	Complete bool   `json:"complete,omitempty"`
	Format   string `json:"format"`
	Layout   string `json:"layout,omitempty"`
	Band     bool   `json:"band,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	PermutationKey(fingerprint string, opts PermutationKeyOpts) string
	RenderKey(fingerprint string, opts RenderKeyOpts) string
}

// DefaultKeyer hashes the fingerprint together with the options.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PermutationKey returns the key of a permutation result.
func (DefaultKeyer) PermutationKey(fingerprint string, opts PermutationKeyOpts) string {
	return hashKey("perm", fingerprint, opts)
}

// RenderKey returns the key of a rendered artifact.
func (DefaultKeyer) RenderKey(fingerprint string, opts RenderKeyOpts) string {
	return hashKey("render", fingerprint, opts)
}
