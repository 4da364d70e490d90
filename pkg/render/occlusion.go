package render

import (
	"math"
	"sort"

	"github.com/flatmol/flatmol/pkg/mol"
)

// Occlusion model constants. The rational falloff
// cutoff² / (cutoff² + d²·distanceWeight) stands in for a logistic
// curve without transcendentals in the pair loop; the cap keeps stacked
// casters from darkening without bound.
const (
	distanceWeight   = 2.0
	shadowCutoffMult = 2.0
	tintCutoffMult   = 0.5
	offsetMult       = 2.5
	shadowSumCap     = 12.0
)

// Broad-phase grid tuning. Above gridThreshold visible segments the
// pair scan buckets midpoints into a uniform 2D grid and each receiver
// tests only its 3×3 neighborhood.
const (
	gridThreshold     = 1000
	gridTargetPerCell = 5
	gridMinCells      = 20
	gridMaxCells      = 150
	gridCellCap       = 128
)

// referenceLength is the characteristic segment length per molecule
// type, in ångströms: ligand covalent bond, CA-CA step, nucleic
// backbone step. Zero-length points substitute it, and the receiver
// offset term scales from it.
func referenceLength(t mol.MoleculeType) float64 {
	switch t {
	case mol.Ligand:
		return 1.5
	case mol.DNA, mol.RNA:
		return 5.9
	default:
		return 3.8
	}
}

// occSegment is the occlusion view of one visible segment: its midpoint
// in rotated space (ångströms), effective length, and isolation class.
type occSegment struct {
	mid     mol.Vec3
	effLen  float64
	offset  float64
	contact bool
	source  int
}

func newOccSegment(s Segment, rotated []mol.Vec3) occSegment {
	a, b := rotated[s.Idx1], rotated[s.Idx2]
	ref := referenceLength(s.Type)
	eff := s.Length
	if eff <= 0 {
		eff = ref
	}
	return occSegment{
		mid:     a.Add(b).Scale(0.5),
		effLen:  eff,
		offset:  ref * offsetMult,
		contact: s.Contact,
		source:  s.Source,
	}
}

// pairOcclusion returns the shadow and tint contribution cast by c onto
// r. All pair rules live here so the direct and grid paths agree
// exactly: the caster must be strictly nearer the camera, contacts
// neither cast nor receive, and sources never occlude each other.
func pairOcclusion(r, c *occSegment) (shadow, tint float64) {
	if c.mid.Z <= r.mid.Z {
		return 0, 0
	}
	if r.contact || c.contact || r.source != c.source {
		return 0, 0
	}

	avgLen := (r.effLen + c.effLen) / 2
	shadowCutoff := avgLen * shadowCutoffMult
	tintCutoff := avgLen * tintCutoffMult

	dx := r.mid.X - c.mid.X
	dy := r.mid.Y - c.mid.Y
	dz := r.mid.Z - c.mid.Z
	d2 := dx*dx + dy*dy
	d3 := d2 + dz*dz

	if lim := shadowCutoff + r.offset; d3 <= lim*lim {
		sc2 := shadowCutoff * shadowCutoff
		shadow = sc2 / (sc2 + d3*distanceWeight)
	}
	if lim := tintCutoff + r.offset; d2 <= lim*lim {
		tc2 := tintCutoff * tintCutoff
		tint = tc2 / (tc2 + d2*distanceWeight)
	}
	return shadow, tint
}

// computeOcclusion returns per-segment shadow sums (saturated at
// shadowSumCap) and tint maxima. Output order matches the input.
func computeOcclusion(segs []occSegment) (shadow, tint []float64) {
	if len(segs) >= gridThreshold {
		return occludeGrid(segs)
	}
	return occludeDirect(segs)
}

// occludeDirect scans all nearer-camera pairs. The outer loop walks
// back-to-front, so every potential caster of a receiver sits later in
// the order.
func occludeDirect(segs []occSegment) (shadow, tint []float64) {
	n := len(segs)
	shadow = make([]float64, n)
	tint = make([]float64, n)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return segs[order[a]].mid.Z < segs[order[b]].mid.Z
	})

	for oi, ri := range order {
		r := &segs[ri]
		if r.contact {
			continue
		}
		var sum, maxTint float64
		for _, ci := range order[oi+1:] {
			c := &segs[ci]
			if c.mid.Z <= r.mid.Z {
				continue // depth ties cast nothing
			}
			s, t := pairOcclusion(r, c)
			sum += s
			if t > maxTint {
				maxTint = t
			}
		}
		if sum > shadowSumCap {
			sum = shadowSumCap
		}
		shadow[ri] = sum
		tint[ri] = maxTint
	}
	return shadow, tint
}

// occludeGrid is the bucketed broad phase: midpoints hash into a
// uniform 2D grid over the data extent and each receiver scans its 3×3
// neighborhood. Cell lists are sorted nearest-first so the scan stops
// at the first caster not nearer than the receiver.
func occludeGrid(segs []occSegment) (shadow, tint []float64) {
	n := len(segs)
	shadow = make([]float64, n)
	tint = make([]float64, n)

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := range segs {
		m := segs[i].mid
		minX = math.Min(minX, m.X)
		minY = math.Min(minY, m.Y)
		maxX = math.Max(maxX, m.X)
		maxY = math.Max(maxY, m.Y)
	}
	extent := math.Max(maxX-minX, maxY-minY)

	cells := int(math.Sqrt(float64(n) / gridTargetPerCell))
	if cells < gridMinCells {
		cells = gridMinCells
	} else if cells > gridMaxCells {
		cells = gridMaxCells
	}
	cellSize := extent / float64(cells)
	if cellSize <= 0 {
		cellSize = 1
	}

	cellOf := func(x, y float64) (int, int) {
		cx := int((x - minX) / cellSize)
		cy := int((y - minY) / cellSize)
		if cx < 0 {
			cx = 0
		} else if cx >= cells {
			cx = cells - 1
		}
		if cy < 0 {
			cy = 0
		} else if cy >= cells {
			cy = cells - 1
		}
		return cx, cy
	}

	buckets := make([][]int, cells*cells)
	for i := range segs {
		cx, cy := cellOf(segs[i].mid.X, segs[i].mid.Y)
		idx := cy*cells + cx
		if len(buckets[idx]) < gridCellCap {
			buckets[idx] = append(buckets[idx], i)
		}
	}
	for _, members := range buckets {
		sort.SliceStable(members, func(a, b int) bool {
			return segs[members[a]].mid.Z > segs[members[b]].mid.Z
		})
	}

	for i := range segs {
		r := &segs[i]
		if r.contact {
			continue
		}
		cx, cy := cellOf(r.mid.X, r.mid.Y)
		var sum, maxTint float64
		for ny := cy - 1; ny <= cy+1; ny++ {
			if ny < 0 || ny >= cells {
				continue
			}
			for nx := cx - 1; nx <= cx+1; nx++ {
				if nx < 0 || nx >= cells {
					continue
				}
				for _, ci := range buckets[ny*cells+nx] {
					c := &segs[ci]
					if c.mid.Z <= r.mid.Z {
						break // nearest-first; the rest are farther
					}
					s, t := pairOcclusion(r, c)
					sum += s
					if t > maxTint {
						maxTint = t
					}
				}
			}
		}
		if sum > shadowSumCap {
			sum = shadowSumCap
		}
		shadow[i] = sum
		tint[i] = maxTint
	}
	return shadow, tint
}
