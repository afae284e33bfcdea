package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// hashKey returns the first 16 hex characters of the SHA-256 hash of key.
// This produces a deterministic, compact identifier for any key regardless
// of length or special characters.
func hashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:8]) // 8 bytes = 16 hex chars
}

// Key joins parts into a composite cache key. A NUL separator keeps
// ("a", "bc") distinct from ("ab", "c").
func Key(parts ...string) string {
	return strings.Join(parts, "\x00")
}
