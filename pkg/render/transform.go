package render

import (
	"github.com/flatmol/flatmol/pkg/mol"
)

// viewportPadding keeps the structure inside the frame at zoom 1.
const viewportPadding = 0.9

// perspectiveEpsilon clips points at or behind the camera plane.
const perspectiveEpsilon = 1e-6

// Width multipliers per segment class, applied to the scaled base width.
// Points always use the atom multiplier regardless of type; contact
// widths additionally scale by the contact weight.
const (
	widthLigand  = 0.5
	widthNucleic = 1.5
	widthContact = 0.5
	widthPoint   = 0.75
)

// ScreenPoint is one projected position.
type ScreenPoint struct {
	X float64
	Y float64

	// Depth is the rotated z in screen-scaled units; larger is nearer
	// the camera.
	Depth float64

	// Factor is the perspective magnification (1 under Orthographic).
	Factor float64

	// OK is false when the point was clipped by the camera plane.
	OK bool
}

// View is the per-render projection context: one rotation, one center,
// one scale. Build it with NewView and feed every coordinate of the
// frame through Rotate and Project.
type View struct {
	Width  int
	Height int

	Rotation mol.Mat3
	Center   mol.Vec3

	// Scale converts ångströms to pixels.
	Scale float64

	Projection Projection
	Focal      float64
}

// NewView derives the projection context from the viewport, the camera
// state, and the object's maximum radial extent in ångströms.
func NewView(cfg Config, rotation mol.Mat3, center mol.Vec3, maxExtent float64) View {
	if maxExtent < 1e-6 {
		maxExtent = 1
	}
	dim := cfg.Width
	if cfg.Height < dim {
		dim = cfg.Height
	}
	return View{
		Width:      cfg.Width,
		Height:     cfg.Height,
		Rotation:   rotation,
		Center:     center,
		Scale:      float64(dim) * viewportPadding / (2 * maxExtent) * cfg.Zoom,
		Projection: cfg.Projection,
		Focal:      cfg.Focal,
	}
}

// Rotate maps a model-space coordinate into the rotated camera frame,
// still in ångströms. Larger z is nearer the camera.
func (v *View) Rotate(p mol.Vec3) mol.Vec3 {
	return v.Rotation.MulVec(p.Sub(v.Center))
}

// Project maps a rotated coordinate onto the screen plane. Screen y
// grows downward.
func (v *View) Project(r mol.Vec3) ScreenPoint {
	sp := ScreenPoint{Depth: r.Z * v.Scale, Factor: 1, OK: true}
	x := r.X * v.Scale
	y := r.Y * v.Scale
	if v.Projection == Perspective {
		eff := v.Focal - r.Z
		if eff < perspectiveEpsilon {
			sp.OK = false
			return sp
		}
		f := v.Focal / eff
		x *= f
		y *= f
		sp.Factor = f
	}
	sp.X = float64(v.Width)/2 + x
	sp.Y = float64(v.Height)/2 - y
	return sp
}

// projectAll rotates and projects every coordinate. The rotated set is
// returned too; occlusion distances are measured in that space.
func projectAll(coords []mol.Vec3, v *View) ([]mol.Vec3, []ScreenPoint) {
	rotated := make([]mol.Vec3, len(coords))
	pts := make([]ScreenPoint, len(coords))
	for i, c := range coords {
		r := v.Rotate(c)
		rotated[i] = r
		pts[i] = v.Project(r)
	}
	return rotated, pts
}

// RotateBy composes an incremental drag rotation onto m: horizontal
// deltas spin about the screen y axis, vertical deltas about x. Angles
// are radians.
func RotateBy(m mol.Mat3, dx, dy float64) mol.Mat3 {
	return mol.RotationX(dy).Mul(mol.RotationY(dx)).Mul(m)
}

// strokeWidth returns the screen-space stroke width of a segment. Under
// perspective the width follows the mean endpoint magnification.
func strokeWidth(seg Segment, p1, p2 ScreenPoint, cfg Config, scale float64) float64 {
	w := cfg.LineWidth * scale
	switch {
	case seg.Contact:
		cw := seg.Weight
		if cw < 0.25 {
			cw = 0.25
		} else if cw > 3 {
			cw = 3
		}
		w *= widthContact * cw
	case seg.IsPoint():
		w *= widthPoint
	default:
		switch seg.Type {
		case mol.Ligand:
			w *= widthLigand
		case mol.DNA, mol.RNA:
			w *= widthNucleic
		}
	}
	return w * (p1.Factor + p2.Factor) / 2
}
