package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyPrefix is bumped whenever the cached payload format changes
const keyPrefix = "reltext-v1-"

// Key builds a cache key for content produced by the named backend.
// The key is safe to use as a file name.
func Key(namespace, content string) string {
	hash := sha256.Sum256([]byte(namespace + "\x00" + content))
	return keyPrefix + hex.EncodeToString(hash[:])
}
