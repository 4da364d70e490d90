package render

import "github.com/flatmol/flatmol/pkg/mol"

// CapStyle selects stroke endpoint treatment.
type CapStyle int

const (
	// CapButt ends the stroke flush at the endpoint.
	CapButt CapStyle = iota
	// CapRound extends a half-disc beyond the endpoint.
	CapRound
)

// Canvas is the output surface the draw pass composites onto. Calls
// arrive back-to-front and implementations paint in call order with no
// z-buffer. Coordinates are pixels with y growing downward.
//
// Per-endpoint cap differences are expressed by the draw pass itself
// (butt strokes plus explicit cap discs), so implementations only need
// whole-stroke caps.
type Canvas interface {
	// Clear fills the entire surface.
	Clear(c mol.RGB)

	// Stroke draws one line segment of the given width.
	Stroke(x1, y1, x2, y2, width float64, c mol.RGB, style CapStyle)

	// FillCircle draws a filled disc of radius r.
	FillCircle(x, y, r float64, c mol.RGB)
}
