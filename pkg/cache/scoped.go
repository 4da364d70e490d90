package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// The live viewer server uses this to keep per-session caches separate,
// so one session's artifacts never collide with another's.
//
// Example usage:
//
//	// Session-specific keys for a live viewer
//	sessionKeyer := NewScopedKeyer(NewDefaultKeyer(), "session:9f1c:")
//
//	// Global keys for shared structure downloads
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// StructureKey generates a prefixed key for parsed structure caching.
func (k *ScopedKeyer) StructureKey(id string, opts StructureKeyOpts) string {
	return k.prefix + k.inner.StructureKey(id, opts)
}

// ArtifactKey generates a prefixed key for rendered artifact caching.
func (k *ScopedKeyer) ArtifactKey(structureHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(structureHash, opts)
}
