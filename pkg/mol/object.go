package mol

import (
	"math"

	"github.com/flatmol/flatmol/pkg/errors"
)

// Object is a named ordered sequence of Frames sharing identity, e.g. one
// modeled structure or trajectory. Aggregate statistics are maintained
// incrementally on append so the renderer never rescans whole
// trajectories for scale or centering.
type Object struct {
	Name   string
	Frames []*Frame

	// Object-level connectivity, inherited by frames that omit their own.
	Bonds    []Bond
	Contacts []Contact

	// Rotation and Center hold the preferred orientation computed from
	// the first frame (principal-axis best view).
	Rotation *Mat3
	Center   *Vec3

	// Running statistics over every appended position.
	coordSum   Vec3
	coordCount int
	maxRadius  float64
	radCount   int
	radMean    float64
	radM2      float64
}

// NewObject creates an empty object.
func NewObject(name string) *Object {
	return &Object{Name: name}
}

// Append adds a frame to the object and updates the aggregate statistics.
//
// The first frame additionally computes the best-view rotation and center.
// When align is true and the frame has the same position count as the
// previous frame, its coordinates are superposed onto the previous frame
// with the Kabsch algorithm, so trajectories stay registered while the
// camera holds still.
func (o *Object) Append(f *Frame, align bool) {
	if len(o.Frames) == 0 {
		if len(f.Coords) > 0 {
			rot, center := BestView(f.Coords)
			o.Rotation = &rot
			o.Center = &center
		}
	} else if align {
		prev := o.LastFrame()
		if len(prev.Coords) > 0 && len(f.Coords) == len(prev.Coords) {
			f.Coords = AlignTo(f.Coords, prev.Coords)
		}
	}

	o.Frames = append(o.Frames, f)
	o.accumulate(f)
}

// accumulate folds a frame's positions into the running statistics.
// Radii are measured against the centroid current at accumulation time;
// the renderer treats the radial extent as an estimate and guards the
// degenerate zero case itself.
func (o *Object) accumulate(f *Frame) {
	for _, c := range f.Coords {
		o.coordSum = o.coordSum.Add(c)
		o.coordCount++
	}
	if o.coordCount == 0 {
		return
	}

	centroid := o.Centroid()
	for _, c := range f.Coords {
		r := c.Dist(centroid)
		if r > o.maxRadius {
			o.maxRadius = r
		}
		o.radCount++
		delta := r - o.radMean
		o.radMean += delta / float64(o.radCount)
		o.radM2 += delta * (r - o.radMean)
	}
}

// Centroid returns the running mean of all appended positions, or the
// zero vector for an empty object.
func (o *Object) Centroid() Vec3 {
	if o.coordCount == 0 {
		return Vec3{}
	}
	return o.coordSum.Scale(1 / float64(o.coordCount))
}

// MaxRadius returns the maximum observed distance of any position from
// the running centroid.
func (o *Object) MaxRadius() float64 {
	return o.maxRadius
}

// RadiusStdDev returns the sample standard deviation of position radii.
func (o *Object) RadiusStdDev() float64 {
	if o.radCount < 2 {
		return 0
	}
	return math.Sqrt(o.radM2 / float64(o.radCount-1))
}

// FrameCount returns the number of frames.
func (o *Object) FrameCount() int {
	return len(o.Frames)
}

// Frame returns frame i.
func (o *Object) Frame(i int) (*Frame, error) {
	if i < 0 || i >= len(o.Frames) {
		return nil, errors.New(errors.ErrCodeFrameNotFound, "object %q has no frame %d (have %d)", o.Name, i, len(o.Frames))
	}
	return o.Frames[i], nil
}

// LastFrame returns the most recent frame, or nil for an empty object.
func (o *Object) LastFrame() *Frame {
	if len(o.Frames) == 0 {
		return nil
	}
	return o.Frames[len(o.Frames)-1]
}

// EffectiveBonds returns the bond list in effect for frame i: the frame's
// own bonds when present, otherwise the object-level bonds. Nil means
// connectivity should be inferred.
func (o *Object) EffectiveBonds(i int) []Bond {
	if i >= 0 && i < len(o.Frames) && o.Frames[i].Bonds != nil {
		return o.Frames[i].Bonds
	}
	return o.Bonds
}
