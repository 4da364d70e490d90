// Package render is the pseudo-3D tube renderer: it turns per-position
// molecular frames into stroked 2D segments with approximate ambient
// occlusion.
//
// # Overview
//
// The pipeline runs in five stages, all on the caller's goroutine:
//
//   - Segment derivation: positions become drawable connectivity, either
//     from explicit bonds or by distance-based inference ([BuildSegments])
//   - Transform: rotation, centering, and projection to screen space
//     ([View])
//   - Visibility: selection facets compose into a [VisibilityMask]
//   - Occlusion: pairwise shadow and tint approximation, grid-accelerated
//     for large frames
//   - Draw: back-to-front compositing onto a [Canvas] with outline styles
//     and endpoint rounding
//
// # Viewer
//
// [Viewer] owns the mutable state (rotation, zoom, selection, caches) and
// exposes the operations UI and export collaborators call:
//
//	v := render.NewViewer(render.DefaultConfig(), logger)
//	v.AppendFrame("obj", frame)
//	v.Rotate(0.3, 0.1)
//	err := v.Render(canvas)
//
// Output surfaces implement [Canvas]; see the rastersink and svgsink
// subpackages. The topology subpackage exports derived connectivity as
// Graphviz diagrams for debugging.
//
// # Caching
//
// Segment lists are cached per (object, frame) and survive rotation and
// zoom. Shadow/tint arrays are cached against the exact rotation matrix
// and visible-position count. Per-position colors are cached per color
// mode. Everything else is recomputed per render; there is no hidden
// background work and no locking.
package render
