// Package cache provides pluggable byte-level caching for pipeline results.
//
// Two backends are provided: a file-based cache for CLI usage and a
// Redis-backed cache for server deployments where multiple instances share
// one cache. A null cache disables caching entirely.
//
// Keys are generated through the [Keyer] interface so that every component
// that caches data derives keys the same way. Use [NewScopedKeyer] to add a
// prefix when isolation between contexts is needed.
package cache

import (
	"context"
	"time"
)

// TTLs for the different cached artifact classes.
const (
	// TTLResolve is how long a resolved candidate set stays fresh.
	// Registry state changes slowly enough that an hour is a safe window.
	TTLResolve = time.Hour

	// TTLRun is how long a stored run report stays cached.
	TTLRun = 24 * time.Hour
)

// Cache is the interface for cache backends.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ResolveKeyOpts are the options that affect a resolution result and
// therefore participate in its cache key.
type ResolveKeyOpts struct {
	Registry    string `json:"registry"`
	Concurrency int    `json:"concurrency"`
}

// Keyer generates cache keys for the artifacts depsync caches.
type Keyer interface {
	// ResolveKey generates a key for a resolved candidate set. namesHash
	// is a content hash of the sorted module name list.
	ResolveKey(namesHash string, opts ResolveKeyOpts) string

	// RunKey generates a key for a stored run report.
	RunKey(runID string) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// ResolveKey generates a key for a resolved candidate set.
func (k *DefaultKeyer) ResolveKey(namesHash string, opts ResolveKeyOpts) string {
	return hashKey("resolve", namesHash, opts)
}

// RunKey generates a key for a stored run report.
func (k *DefaultKeyer) RunKey(runID string) string {
	return "run:" + runID
}

// ScopedKeyer wraps a Keyer with a prefix, giving separate namespaces to
// different users or contexts sharing one backend.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ResolveKey generates a prefixed key for a resolved candidate set.
func (k *ScopedKeyer) ResolveKey(namesHash string, opts ResolveKeyOpts) string {
	return k.prefix + k.inner.ResolveKey(namesHash, opts)
}

// RunKey generates a prefixed key for a stored run report.
func (k *ScopedKeyer) RunKey(runID string) string {
	return k.prefix + k.inner.RunKey(runID)
}
