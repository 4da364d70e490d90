// Package mol provides the molecular data model shared by the parser,
// renderer, and state layers.
//
// # Core Types
//
//   - [Frame]: one timestep of per-position data (coordinates plus
//     optional type, chain, confidence, name, and residue arrays)
//   - [Object]: a named ordered sequence of Frames with aggregate
//     statistics maintained on append
//   - [Contact]: a long-range restraint between two positions, parsed
//     from .cst files or built programmatically
//   - [Bond]: an explicit connectivity pair
//   - [Vec3], [Mat3]: float64 vector/matrix math for rotation, alignment,
//     and projection
//
// # Position Arrays
//
// Frames store positions as parallel arrays rather than a slice of
// structs: the renderer iterates coordinates far more often than any
// other field, and optional arrays (chains, confidences) stay nil when
// absent instead of forcing a zero value into every element. Accessors
// like [Frame.ChainAt] apply the documented defaults so callers never
// branch on nil.
//
// # Alignment and Orientation
//
//   - [AlignTo]: Kabsch superposition of one coordinate set onto another
//   - [BestView]: principal-axis orientation that maximizes screen-space
//     spread, computed for the first frame of every object
//
// # Wire Format
//
// Contact and molecule-type serialization matches the viewer state JSON
// format: contacts are heterogeneous arrays ([idx1, idx2, weight, color?]
// or [chain1, res1, chain2, res2, weight, color?]) and molecule types are
// single letters ("P", "D", "R", "L").
package mol
