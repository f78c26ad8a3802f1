package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex SHA-256 of data. Repository content hashes feed
// analysis cache keys, so the digest is kept at full length; truncating
// would let distinct checkouts alias the same entry.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey derives a bounded-length key from a prefix and the JSON encoding
// of parts. Option structs hash into the key instead of being spliced in,
// so key length stays flat no matter how the options grow.
func hashKey(prefix string, parts ...any) string {
	encoded, _ := json.Marshal(parts)
	return prefix + ":" + Hash(encoded)
}
