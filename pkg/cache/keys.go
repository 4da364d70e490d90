package cache

// Keyer generates cache keys for the three cacheable stages of the
// pipeline: raw HTTP downloads, parsed structures, and rendered artifacts.
type Keyer interface {
	// HTTPKey generates a key for HTTP response caching.
	// The namespace identifies the remote service (e.g. "rcsb:", "afdb:").
	HTTPKey(namespace, key string) string

	// StructureKey generates a key for parsed structure caching.
	StructureKey(id string, opts StructureKeyOpts) string

	// ArtifactKey generates a key for rendered artifact caching.
	// The structure hash covers the coordinate payload; opts cover
	// everything that changes the rendered output.
	ArtifactKey(structureHash string, opts ArtifactKeyOpts) string
}

// StructureKeyOpts captures the options that affect structure parsing.
type StructureKeyOpts struct {
	Source string // "rcsb", "afdb", "file"
	Format string // "pdb", "cif"
}

// ArtifactKeyOpts captures the options that affect rendered output.
// Rotation is the flattened row-major view matrix so that two renders of
// the same structure from different orientations get distinct keys.
type ArtifactKeyOpts struct {
	Format    string
	Width     int
	Height    int
	ColorMode string
	Outline   string
	Zoom      float64
	Rotation  [9]float64
}

// DefaultKeyer is the standard key generator.
// Keys embed a SHA-256 hash of the options so that any option change
// invalidates the cached entry.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for HTTP response caching.
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// StructureKey generates a key for parsed structure caching.
func (k *DefaultKeyer) StructureKey(id string, opts StructureKeyOpts) string {
	return hashKey("structure", id, opts)
}

// ArtifactKey generates a key for rendered artifact caching.
func (k *DefaultKeyer) ArtifactKey(structureHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", structureHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
