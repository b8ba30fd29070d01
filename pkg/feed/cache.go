package feed

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/xerrors"
)

const feedBucket = "feed"

// Cache stores fetched feed documents in a bolt file under the cache
// directory, keyed by source URL with the fetch timestamp alongside.
type Cache struct {
	db *bolt.DB
}

type cacheEntry struct {
	FetchedAt time.Time `json:"fetched_at"`
	Body      []byte    `json:"body"`
}

// CachePath returns the bolt file path under cacheDir.
func CachePath(cacheDir string) string {
	return filepath.Join(cacheDir, "worm-scan.db")
}

// OpenCache opens (creating if needed) the feed cache under cacheDir.
func OpenCache(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0700); err != nil {
		return nil, xerrors.Errorf("failed to mkdir: %w", err)
	}
	db, err := bolt.Open(CachePath(cacheDir), 0600, nil)
	if err != nil {
		return nil, xerrors.Errorf("failed to open cache: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	if err := c.db.Close(); err != nil {
		return xerrors.Errorf("failed to close cache: %w", err)
	}
	return nil
}

// Get returns the cached body for url when the entry is younger than ttl at
// the given time.
func (c *Cache) Get(url string, now time.Time, ttl time.Duration) ([]byte, bool) {
	var body []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(feedBucket))
		if bkt == nil {
			return nil
		}
		raw := bkt.Get([]byte(url))
		if raw == nil {
			return nil
		}
		var entry cacheEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil // unreadable entry counts as a miss
		}
		if now.Sub(entry.FetchedAt) >= ttl {
			return nil
		}
		body = entry.Body
		return nil
	})
	if err != nil || body == nil {
		return nil, false
	}
	return body, true
}

// Put stores the body for url stamped with the fetch time.
func (c *Cache) Put(url string, body []byte, now time.Time) error {
	raw, err := json.Marshal(cacheEntry{FetchedAt: now, Body: body})
	if err != nil {
		return xerrors.Errorf("failed to marshal cache entry: %w", err)
	}
	err = c.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(feedBucket))
		if err != nil {
			return xerrors.Errorf("failed to create bucket: %w", err)
		}
		return bkt.Put([]byte(url), raw)
	})
	if err != nil {
		return xerrors.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}
