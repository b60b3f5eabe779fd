// Package cache stores fetched scene documents and source payloads.
//
// Three backends share the Cache interface: NullCache for tests and
// --no-cache runs, FileCache for the CLI and RedisCache for the HTTP server.
// Keys are produced by a Keyer so callers never build raw strings.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value and true on a hit. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds cache keys for the kinds of data mapstyle caches.
type Keyer interface {
	SceneKey(url string) string
	SourceKey(sourceType, location string) string
}

// DefaultKeyer hashes key components under fixed prefixes.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SceneKey returns the key for a remote scene document.
func (DefaultKeyer) SceneKey(url string) string {
	return hashKey("scene", url)
}

// SourceKey returns the key for a remote feature source payload.
func (DefaultKeyer) SourceKey(sourceType, location string) string {
	return hashKey("source", sourceType, location)
}

// PrefixKeyer namespaces another keyer, e.g. per deployment sharing one Redis.
type PrefixKeyer struct {
	inner  Keyer
	prefix string
}

// NewPrefixKeyer wraps inner with prefix. A nil inner uses DefaultKeyer.
func NewPrefixKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &PrefixKeyer{inner: inner, prefix: prefix}
}

func (k *PrefixKeyer) SceneKey(url string) string {
	return k.prefix + k.inner.SceneKey(url)
}

func (k *PrefixKeyer) SourceKey(sourceType, location string) string {
	return k.prefix + k.inner.SourceKey(sourceType, location)
}
