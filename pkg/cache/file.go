package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const entryExt = ".json"

// FileCache implements a file-based cache for CLI usage.
// Each key is stored in its own file as an envelope holding the payload,
// the write timestamp and the ttl.
type FileCache struct {
	dir string
	now func() time.Time
}

// FileOption configures a [FileCache].
type FileOption func(*FileCache)

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) FileOption {
	return func(c *FileCache) { c.now = now }
}

// NewFileCache creates a file-based cache in the given directory.
// The directory will be created if it doesn't exist.
func NewFileCache(dir string, opts ...FileOption) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	c := &FileCache{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// cacheEntry is the on-disk envelope. Timestamp and TTL are milliseconds.
// JSON payloads are embedded as is; anything else is stored as a base64
// string with Encoding set.
type cacheEntry struct {
	Data      json.RawMessage `json:"data"`
	Encoding  string          `json:"encoding,omitempty"`
	Timestamp int64           `json:"timestamp"`
	TTL       int64           `json:"ttl"`
}

const encodingBase64 = "base64"

func newEntry(data []byte, now time.Time, ttl time.Duration) (cacheEntry, error) {
	entry := cacheEntry{Data: data, Timestamp: now.UnixMilli(), TTL: ttl.Milliseconds()}
	if json.Valid(data) {
		return entry, nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return entry, err
	}
	entry.Data, entry.Encoding = encoded, encodingBase64
	return entry, nil
}

func (e cacheEntry) payload() ([]byte, error) {
	if e.Encoding != encodingBase64 {
		return e.Data, nil
	}
	var data []byte
	err := json.Unmarshal(e.Data, &data)
	return data, err
}

func (e cacheEntry) expired(now time.Time) bool {
	return e.TTL > 0 && now.UnixMilli()-e.Timestamp > e.TTL
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Get retrieves a value from the cache.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)

	entry, err := readEntry(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if errors.Is(err, errCorrupt) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if entry.expired(c.now()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	data, err := entry.payload()
	if err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return data, true, nil
}

// Set stores a value in the cache.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry, err := newEntry(data, c.now(), ttl)
	if err != nil {
		return err
	}

	entryData, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(entryData); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path(key))
}

// Delete removes a value from the cache.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes every entry file.
func (c *FileCache) Clear(ctx context.Context) (int, error) {
	n := 0
	err := c.walk(func(path string, _ fs.FileInfo) error {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		n++
		return nil
	})
	return n, err
}

// CleanExpired removes expired and unreadable entries.
func (c *FileCache) CleanExpired(ctx context.Context) (int, error) {
	now := c.now()
	n := 0
	err := c.walk(func(path string, _ fs.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry, err := readEntry(path)
		if err != nil && !errors.Is(err, errCorrupt) {
			return nil
		}
		if err == nil && !entry.expired(now) {
			return nil
		}
		if err := os.Remove(path); err == nil {
			n++
		}
		return nil
	})
	return n, err
}

// Stats counts entry files and their sizes.
func (c *FileCache) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := c.walk(func(_ string, info fs.FileInfo) error {
		s.Total++
		s.SizeBytes += info.Size()
		return nil
	})
	return s, err
}

// Close does nothing for file cache.
func (c *FileCache) Close() error {
	return nil
}

// path converts a cache key to a file path.
func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, Sanitize(key)+entryExt)
}

// walk calls fn for each entry file in the cache directory.
func (c *FileCache) walk(fn func(path string, info fs.FileInfo) error) error {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, entryExt) || strings.HasPrefix(name, ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if err := fn(filepath.Join(c.dir, name), info); err != nil {
			return err
		}
	}
	return nil
}

var errCorrupt = errors.New("corrupt cache entry")

func readEntry(path string) (cacheEntry, error) {
	var entry cacheEntry
	data, err := os.ReadFile(path)
	if err != nil {
		return entry, err
	}
	if err := json.Unmarshal(data, &entry); err != nil || entry.Timestamp == 0 {
		return entry, errCorrupt
	}
	return entry, nil
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)
