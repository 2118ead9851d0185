package localcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// Cache is a durable key-value store backed by one JSON file per key. The
// terminal uses it to survive restarts while offline: branch snapshots and
// master data are staged here and reloaded before the network comes back.
// Writes go through a temp file and rename so a crash never leaves a
// half-written entry behind.
type Cache struct {
	dir    string
	mu     sync.Mutex
	logger apt.Logger
}

func New(dir string, logger apt.Logger) (*Cache, error) {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory: %w", err)
	}
	return &Cache{dir: dir, logger: logger}, nil
}

// BranchKey names a branch-scoped entry.
func BranchKey(branchID uuid.UUID, entity string) string {
	return fmt.Sprintf("branch-%s-%s", branchID.String(), entity)
}

// GlobalKey names a branch-independent entry, versioned so schema changes
// invalidate stale files instead of failing to decode them.
func GlobalKey(entity string, schemaVersion int) string {
	return fmt.Sprintf("global-%s-v%d", entity, schemaVersion)
}

// Put stores v under key, replacing any previous value atomically.
func (c *Cache) Put(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cannot marshal cache entry %s: %w", key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("cannot write cache entry %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cannot commit cache entry %s: %w", key, err)
	}
	return nil
}

// Get loads the value stored under key into target. It returns false when
// the key has never been stored.
func (c *Cache) Get(key string, target interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("cannot read cache entry %s: %w", key, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("cannot decode cache entry %s: %w", key, err)
	}
	return true, nil
}

// Delete removes the entry. Deleting a missing key is not an error.
func (c *Cache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot delete cache entry %s: %w", key, err)
	}
	return nil
}

func (c *Cache) path(key string) string {
	// Keys are composed from UUIDs and entity names, but sanitize anyway.
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(c.dir, safe+".json")
}
