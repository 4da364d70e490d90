package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey builds a namespaced key of the form prefix:hash(parts). The
// parts are marshalled as JSON so structured options (chain filters,
// render dimensions) hash stably without manual string assembly.
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash returns the SHA-256 of data as a 64-character hex string. It
// identifies structure payloads and session states, so artifacts keyed
// by it go stale the moment their inputs change.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
