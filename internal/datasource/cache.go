package datasource

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/f1-predictor/internal/metrics"
)

// CacheKey identifies one cached resource of a weekend
type CacheKey struct {
	Source   string
	Season   int
	Round    int
	Resource string
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s/%d/%02d/%s", k.Source, k.Season, k.Round, k.Resource)
}

func (k CacheKey) path(dir string) string {
	return filepath.Join(dir, k.Source, fmt.Sprint(k.Season), fmt.Sprintf("%02d", k.Round), k.Resource+".json")
}

// SessionCache keeps fetched session data in memory and, for data that can no
// longer change, on disk under dir/<source>/<season>/<round>/<resource>.json.
type SessionCache struct {
	dir    string
	memory *cache.Cache
	ttl    time.Duration
}

// NewSessionCache creates a cache rooted at dir. An empty dir disables the disk layer.
func NewSessionCache(dir string, ttl time.Duration) *SessionCache {
	return &SessionCache{
		dir:    dir,
		memory: cache.New(ttl, ttl*2),
		ttl:    ttl,
	}
}

// Get decodes the cached value for key into v and reports whether it was found.
func (sc *SessionCache) Get(key CacheKey, v interface{}) bool {
	if raw, found := sc.memory.Get(key.String()); found {
		if data, ok := raw.([]byte); ok && json.Unmarshal(data, v) == nil {
			metrics.RecordCacheLookup("memory", true)
			return true
		}
	}
	metrics.RecordCacheLookup("memory", false)

	if sc.dir == "" {
		return false
	}
	data, err := os.ReadFile(key.path(sc.dir))
	if err != nil || json.Unmarshal(data, v) != nil {
		metrics.RecordCacheLookup("disk", false)
		return false
	}
	metrics.RecordCacheLookup("disk", true)
	sc.memory.Set(key.String(), data, sc.ttl)
	return true
}

// Set stores v under key. When persist is true it is also written to disk.
func (sc *SessionCache) Set(key CacheKey, v interface{}, persist bool) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	sc.memory.Set(key.String(), data, sc.ttl)

	if !persist || sc.dir == "" {
		return nil
	}

	path := key.path(sc.dir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	return os.Rename(tmp, path)
}

// ItemCount returns the number of items in the memory layer
func (sc *SessionCache) ItemCount() int {
	return sc.memory.ItemCount()
}
