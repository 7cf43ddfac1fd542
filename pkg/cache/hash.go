package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// hashKey joins parts with NUL separators, hashes them, and prefixes the
// digest: "prefix:<sha256>".
func hashKey(prefix string, parts ...string) string {
	return prefix + ":" + Hash([]byte(strings.Join(parts, "\x00")))
}

// Hash returns the hex-encoded SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
