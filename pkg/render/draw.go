package render

import (
	"math"
	"sort"

	"github.com/flatmol/flatmol/pkg/mol"
)

// renderCap bounds the segments drawn in one pass; when exceeded, the
// far end of the depth order is discarded so the nearest geometry
// always survives.
const renderCap = 50000

// outlinePad widens the background outline stroke, in pixels.
const outlinePad = 3.0

var (
	backgroundColor = mol.RGB{R: 255, G: 255, B: 255}
	outlineColor    = mol.RGB{}
)

// drawPass composites the visible segments onto the canvas.
//
// segs is the visible set in any order; shadows and tints run parallel
// to it (nil when shadowing is off). pts and colors are indexed by
// render position index. The pass depth-sorts back-to-front, applies
// the render cap, decides endpoint rounding, and emits per-segment
// background and foreground primitives according to the outline style.
func drawPass(c Canvas, cfg Config, scale float64, segs []Segment, pts []ScreenPoint, colors []mol.RGB, shadows, tints []float64) {
	if len(segs) == 0 {
		return
	}

	depths := make([]float64, len(segs))
	for i, s := range segs {
		depths[i] = (pts[s.Idx1].Depth + pts[s.Idx2].Depth) / 2
	}
	order := make([]int, len(segs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return depths[order[a]] < depths[order[b]]
	})
	if len(order) > renderCap {
		order = order[len(order)-renderCap:]
	}

	var bright []float64
	if cfg.DepthCue {
		ordered := make([]float64, len(order))
		for k, i := range order {
			ordered[k] = depths[i]
		}
		bright = normalizeDepths(ordered)
	}

	intensity := 1 - cfg.ShadowStrength
	if intensity < 0.05 {
		intensity = 0.05
	} else if intensity > 1 {
		intensity = 1
	}

	type endpointKey struct {
		t     mol.MoleculeType
		chain string
		idx   int
	}
	seen := make(map[endpointKey]bool, 2*len(order))

	for k, i := range order {
		seg := segs[i]
		p1, p2 := pts[seg.Idx1], pts[seg.Idx2]
		if !p1.OK || !p2.OK {
			continue
		}
		width := strokeWidth(seg, p1, p2, cfg, scale)

		if seg.Contact {
			col := defaultContactColor
			if seg.Color != nil {
				col = *seg.Color
			}
			c.Stroke(p1.X, p1.Y, p2.X, p2.Y, width, col, CapRound)
			continue
		}

		col := blendRGB(colors[seg.Idx1], colors[seg.Idx2])
		if shadows != nil {
			col = towardWhite(col, tints[i])
			col = scaleRGB(col, math.Pow(intensity, shadows[i]))
		}
		if bright != nil {
			col = scaleRGB(col, 0.5+0.5*bright[k])
		}

		// An endpoint is a true terminus only if no earlier-drawn
		// segment of the same type-and-chain class ended there.
		key1 := endpointKey{seg.Type, seg.Chain, seg.Idx1}
		key2 := endpointKey{seg.Type, seg.Chain, seg.Idx2}
		round1 := seg.IsPoint() || !seen[key1]
		round2 := seg.IsPoint() || !seen[key2]
		seen[key1] = true
		seen[key2] = true

		if seg.IsPoint() {
			drawPoint(c, cfg, p1, width, col)
			continue
		}
		drawTube(c, cfg, p1, p2, width, col, round1, round2)
	}
}

// drawTube emits the stroke layers for one tube segment.
func drawTube(c Canvas, cfg Config, p1, p2 ScreenPoint, width float64, col mol.RGB, round1, round2 bool) {
	switch cfg.Outline {
	case OutlinePartial:
		c.Stroke(p1.X, p1.Y, p2.X, p2.Y, width+outlinePad, outlineColor, CapButt)
	case OutlineFull:
		c.Stroke(p1.X, p1.Y, p2.X, p2.Y, width+outlinePad, outlineColor, CapButt)
		r := (width + outlinePad) / 2
		if round1 {
			c.FillCircle(p1.X, p1.Y, r, outlineColor)
		}
		if round2 {
			c.FillCircle(p2.X, p2.Y, r, outlineColor)
		}
	}
	c.Stroke(p1.X, p1.Y, p2.X, p2.Y, width, col, CapRound)
}

// drawPoint emits a lone position as a disc, ringed when outlined.
func drawPoint(c Canvas, cfg Config, p ScreenPoint, width float64, col mol.RGB) {
	if cfg.Outline != OutlineNone {
		c.FillCircle(p.X, p.Y, (width+outlinePad)/2, outlineColor)
	}
	c.FillCircle(p.X, p.Y, width/2, col)
}
