package dbtest

import (
	"testing"

	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	fixtures "github.com/aquasecurity/bolt-fixtures"
	"github.com/AlexTiTanium/worm-scan/pkg/feed"
)

// InitCacheDir loads the given fixture files into a fresh feed cache file
// and returns the cache directory.
func InitCacheDir(t *testing.T, fixtureFiles []string) string {
	t.Helper()

	cacheDir := t.TempDir()

	loader, err := fixtures.New(feed.CachePath(cacheDir), fixtureFiles)
	require.NoError(t, err)
	require.NoError(t, loader.Load())
	require.NoError(t, loader.Close())

	return cacheDir
}

// RawValue reads one key out of a bucket in the cache file.
func RawValue(t *testing.T, dbPath, bucket, key string) []byte {
	t.Helper()

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{ReadOnly: true})
	require.NoError(t, err)
	defer db.Close()

	var b []byte
	err = db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(bucket))
		if bkt == nil {
			return nil
		}
		v := bkt.Get([]byte(key))
		b = make([]byte, len(v))
		copy(b, v)
		return nil
	})
	require.NoError(t, err)
	return b
}
