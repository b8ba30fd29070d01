package utils

import (
	"os"
	"path/filepath"
)

// CacheDir returns the default per-user cache directory for worm-scan.
func CacheDir() string {
	tmpDir, err := os.UserCacheDir()
	if err != nil {
		tmpDir = os.TempDir()
	}
	return filepath.Join(tmpDir, "worm-scan")
}
