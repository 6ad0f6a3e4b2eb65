// Package cache keeps retrieved database schemas on disk so that schema
// inspection commands do not hit the API on every run. Records are never
// cached.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/klauern/notionsync/internal/logging"
	"github.com/klauern/notionsync/internal/model"
	"github.com/klauern/notionsync/internal/util"
)

// Entry represents a cached schema with metadata
type Entry struct {
	Schema   model.Schema `json:"schema"`
	CachedAt time.Time    `json:"cached_at"`
}

// Cache manages cached schemas keyed by database id.
type Cache struct {
	Version string           `json:"version"`
	Entries map[string]Entry `json:"entries"`
	path    string
	now     func() time.Time
}

const (
	cacheVersion = "1.0"
	// DefaultTTL is the default time-to-live for cache entries
	DefaultTTL = 1 * time.Hour
	// Filename is the cache file inside the cache directory.
	Filename = "schemas.json"
)

// New creates or loads the schema cache in cacheDir.
// If cacheDir is empty, defaults to the notionsync cache directory.
func New(cacheDir string) (*Cache, error) {
	if cacheDir == "" {
		cacheDir = util.CachePath()
	}
	if err := os.MkdirAll(cacheDir, 0o750); err != nil {
		return nil, err
	}

	cachePath := filepath.Join(cacheDir, Filename)
	cache := &Cache{
		Version: cacheVersion,
		Entries: make(map[string]Entry),
		path:    cachePath,
		now:     time.Now,
	}

	// #nosec G304 - cachePath is constructed from trusted configuration path
	if data, err := os.ReadFile(cachePath); err == nil {
		if err := json.Unmarshal(data, cache); err != nil {
			// Corrupted cache, start fresh
			logging.Debug("discarding corrupted schema cache", logging.Path(cachePath), logging.Err(err))
			cache.Entries = make(map[string]Entry)
		}
		// Version mismatch, invalidate cache
		if cache.Version != cacheVersion {
			cache.Entries = make(map[string]Entry)
			cache.Version = cacheVersion
		}
		if cache.Entries == nil {
			cache.Entries = make(map[string]Entry)
		}
	}

	return cache, nil
}

// Get returns the cached schema of a database if it is younger than ttl.
// A ttl of zero or less never expires.
func (c *Cache) Get(databaseID string, ttl time.Duration) (*model.Schema, bool) {
	entry, exists := c.Entries[databaseID]
	if !exists {
		return nil, false
	}
	if ttl > 0 && c.now().Sub(entry.CachedAt) > ttl {
		return nil, false
	}
	schema := entry.Schema
	return &schema, true
}

// Set stores a schema in the cache
func (c *Cache) Set(databaseID string, schema *model.Schema) {
	c.Entries[databaseID] = Entry{
		Schema:   *schema,
		CachedAt: c.now(),
	}
}

// Save persists the cache to disk
func (c *Cache) Save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	// #nosec G306 - cache files should be readable by user
	return os.WriteFile(c.path, data, 0o644)
}

// Clear removes all entries from the cache
func (c *Cache) Clear() error {
	c.Entries = make(map[string]Entry)
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Size returns the number of entries in the cache
func (c *Cache) Size() int {
	return len(c.Entries)
}

// Path returns the cache file location.
func (c *Cache) Path() string {
	return c.path
}

// Prune removes stale entries based on TTL
func (c *Cache) Prune(ttl time.Duration) int {
	pruned := 0
	for key, entry := range c.Entries {
		if c.now().Sub(entry.CachedAt) > ttl {
			delete(c.Entries, key)
			pruned++
		}
	}
	return pruned
}

// SchemaFetcher retrieves a database schema from the remote service.
type SchemaFetcher interface {
	RetrieveSchema(ctx context.Context, databaseID string) (*model.Schema, error)
}

// Schemas is a SchemaFetcher that answers from the cache when it can.
type Schemas struct {
	fetcher SchemaFetcher
	cache   *Cache
	ttl     time.Duration
	// Refresh bypasses cached entries; fresh results are still stored.
	Refresh bool
}

// NewSchemas wraps fetcher with cache. A nil cache disables caching.
func NewSchemas(fetcher SchemaFetcher, cache *Cache, ttl time.Duration) *Schemas {
	return &Schemas{fetcher: fetcher, cache: cache, ttl: ttl}
}

// RetrieveSchema returns the schema of databaseID.
func (s *Schemas) RetrieveSchema(ctx context.Context, databaseID string) (*model.Schema, error) {
	if s.cache != nil && !s.Refresh {
		if schema, ok := s.cache.Get(databaseID, s.ttl); ok {
			logging.Debug("schema cache hit", logging.Database(databaseID))
			return schema, nil
		}
	}

	schema, err := s.fetcher.RetrieveSchema(ctx, databaseID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(databaseID, schema)
		if err := s.cache.Save(); err != nil {
			logging.Warn("failed to save schema cache", logging.Path(s.cache.Path()), logging.Err(err))
		}
	}
	return schema, nil
}
