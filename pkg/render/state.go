package render

import (
	"github.com/flatmol/flatmol/pkg/mol"
)

// Cache keys. Each cache stores the key it was computed for and is
// reused only on exact match, so invalidation is a struct comparison
// instead of a web of dirty flags.

// segCacheKey identifies a derived segment list.
type segCacheKey struct {
	object  string
	frame   int
	gen     uint64
	cyclic  bool
	overlay bool
}

// occCacheKey identifies a shadow/tint computation. The rotation matrix
// participates directly: reuse requires it bit-for-bit identical.
type occCacheKey struct {
	object       string
	frame        int
	gen          uint64
	overlay      bool
	rotation     mol.Mat3
	visibleCount int
}

// colorCacheKey identifies a per-position base color array.
type colorCacheKey struct {
	object     string
	frame      int
	overlay    bool
	mode       ColorMode
	colorblind bool
	pastel     float64
}

// mergeCacheKey identifies the concatenated overlay coordinate array.
// Frames are immutable once appended, so the frame count suffices.
type mergeCacheKey struct {
	object string
	frames int
}

// maskCacheKey identifies a resolved visibility mask.
type maskCacheKey struct {
	object  string
	frame   int
	overlay bool
	selGen  uint64
}

// State is the per-viewer mutable render context: camera, config, and
// the cross-render caches tagged with what they were computed for.
type State struct {
	Config   Config
	Rotation mol.Mat3

	// structureGen counts bond and contact mutations on any object;
	// segment-derived caches key against it.
	structureGen uint64
	// selGen counts selection facet changes.
	selGen uint64

	segKey segCacheKey
	segs   []Segment

	occKey  occCacheKey
	shadows []float64
	tints   []float64

	colorKey colorCacheKey
	colors   []mol.RGB

	mergeKey     mergeCacheKey
	mergedCoords []mol.Vec3
	mergedOffs   []int
	mergedLens   []int

	maskKey maskCacheKey
	mask    VisibilityMask

	// Snapshot of the last completed render, serving highlight queries.
	lastView    View
	lastPts     []ScreenPoint
	lastOffs    []int
	lastLens    []int
	lastMask    VisibilityMask
	hasLastView bool
}

// invalidateStructure drops every cache derived from connectivity.
func (s *State) invalidateStructure() {
	s.structureGen++
}

// invalidateSelection drops the resolved mask.
func (s *State) invalidateSelection() {
	s.selGen++
}
