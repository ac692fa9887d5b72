// Package cache stores upstream responses with a time-to-live.
//
// Caching is an optimization, never a correctness dependency: callers treat
// a read error as a miss and a write error as a skipped write.
//
// Three backends implement [Cache]:
//   - [FileCache]: one JSON envelope file per key, for CLI usage
//   - [RedisCache]: shared cache backed by Redis, native expiry
//   - [NullCache]: stores nothing, used with --no-cache
//
// Entries are checked lazily. An expired or corrupt entry is reported as a
// miss and removed on that read. There is no background sweeper;
// [Cache.CleanExpired] is an explicit maintenance operation.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache is a byte-oriented TTL store.
type Cache interface {
	// Get returns the cached value for key. ok is false on a miss,
	// including expired and corrupt entries.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	// Set stores data under key. A ttl of 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Clear removes every entry and returns how many were removed.
	Clear(ctx context.Context) (int, error)
	// CleanExpired removes expired and corrupt entries and returns the count.
	CleanExpired(ctx context.Context) (int, error)
	// Stats reports the number of stored entries and their total size.
	Stats(ctx context.Context) (Stats, error)
	// Close releases backend resources.
	Close() error
}

// Stats summarizes a cache's contents.
type Stats struct {
	Total     int   `json:"total"`
	SizeBytes int64 `json:"sizeBytes"`
}

// Key builds a namespaced cache key, e.g. Key("github", "foo/bar").
func Key(namespace, id string) string {
	return namespace + ":" + id
}

const maxTokenLen = 80

// Sanitize converts key into a filesystem-safe token. The result keeps a
// readable prefix of the key and ends with a short hash of the full key,
// so distinct keys map to distinct tokens.
func Sanitize(key string) string {
	var b strings.Builder
	for _, r := range key {
		if b.Len() >= maxTokenLen {
			break
		}
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '.' || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	token := strings.Trim(b.String(), ".")
	return token + "-" + Hash([]byte(key))[:16]
}
