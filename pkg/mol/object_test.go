package mol

import (
	"math"
	"testing"

	"github.com/flatmol/flatmol/pkg/errors"
)

func TestObjectAppendFirstFrameOrientation(t *testing.T) {
	o := NewObject("traj")
	o.Append(&Frame{Coords: helix(20)}, true)

	if o.Rotation == nil {
		t.Fatal("first frame should compute a best-view rotation")
	}
	if o.Center == nil {
		t.Fatal("first frame should compute a center")
	}
	if det := o.Rotation.Det(); math.Abs(det-1) > 1e-9 {
		t.Errorf("rotation det = %v, want 1", det)
	}
}

func TestObjectAppendAligns(t *testing.T) {
	base := helix(20)
	o := NewObject("traj")
	o.Append(&Frame{Coords: base}, true)

	// Second frame is the first rigidly moved; alignment should snap it
	// back onto the first frame.
	rot := RotationZ(0.9)
	moved := make([]Vec3, len(base))
	for i, p := range base {
		moved[i] = rot.MulVec(p).Add(Vec3{4, 4, 4})
	}
	o.Append(&Frame{Coords: moved}, true)

	if got := rmsd(o.Frames[1].Coords, base); got > 1e-9 {
		t.Errorf("rmsd after aligned append = %v, want ~0", got)
	}
}

func TestObjectAppendNoAlign(t *testing.T) {
	base := helix(20)
	o := NewObject("traj")
	o.Append(&Frame{Coords: base}, false)

	moved := make([]Vec3, len(base))
	for i, p := range base {
		moved[i] = p.Add(Vec3{100, 0, 0})
	}
	o.Append(&Frame{Coords: moved}, false)

	if got := o.Frames[1].Coords[0].X; math.Abs(got-moved[0].X) > 1e-12 {
		t.Errorf("align=false should keep coordinates verbatim, got X=%v", got)
	}
}

func TestObjectAppendSkipsAlignOnShapeMismatch(t *testing.T) {
	o := NewObject("traj")
	o.Append(&Frame{Coords: helix(20)}, true)

	short := helix(10)
	o.Append(&Frame{Coords: short}, true)

	if got := rmsd(o.Frames[1].Coords, short); got > 1e-12 {
		t.Errorf("mismatched frame should be stored unchanged, rmsd=%v", got)
	}
}

func TestObjectStats(t *testing.T) {
	o := NewObject("cube")
	o.Append(&Frame{Coords: []Vec3{
		{-1, -1, -1}, {1, -1, -1}, {-1, 1, -1}, {1, 1, -1},
		{-1, -1, 1}, {1, -1, 1}, {-1, 1, 1}, {1, 1, 1},
	}}, false)

	if got := o.Centroid(); !vecNear(got, Vec3{}, 1e-12) {
		t.Errorf("centroid = %v, want origin", got)
	}

	wantR := math.Sqrt(3)
	if got := o.MaxRadius(); math.Abs(got-wantR) > 1e-12 {
		t.Errorf("max radius = %v, want %v", got, wantR)
	}

	// All eight corners are equidistant from the centroid.
	if got := o.RadiusStdDev(); got > 1e-9 {
		t.Errorf("radius stddev = %v, want ~0", got)
	}
}

func TestObjectStatsAccumulateAcrossFrames(t *testing.T) {
	o := NewObject("traj")
	o.Append(&Frame{Coords: []Vec3{{0, 0, 0}}}, false)
	o.Append(&Frame{Coords: []Vec3{{4, 0, 0}}}, false)

	if got := o.Centroid(); !vecNear(got, Vec3{2, 0, 0}, 1e-12) {
		t.Errorf("centroid = %v, want (2,0,0)", got)
	}
	if o.MaxRadius() <= 0 {
		t.Error("max radius should grow once frames diverge")
	}
}

func TestObjectEmptyStats(t *testing.T) {
	o := NewObject("empty")
	if got := o.Centroid(); !vecNear(got, Vec3{}, 0) {
		t.Errorf("empty centroid = %v", got)
	}
	if got := o.MaxRadius(); got != 0 {
		t.Errorf("empty max radius = %v", got)
	}
	if got := o.RadiusStdDev(); got != 0 {
		t.Errorf("empty radius stddev = %v", got)
	}
}

func TestObjectFrameLookup(t *testing.T) {
	o := NewObject("traj")
	o.Append(&Frame{Coords: helix(5)}, false)

	if _, err := o.Frame(0); err != nil {
		t.Errorf("Frame(0) error: %v", err)
	}

	_, err := o.Frame(3)
	if err == nil {
		t.Fatal("Frame(3) should fail")
	}
	if !errors.Is(err, errors.ErrCodeFrameNotFound) {
		t.Errorf("error code = %v, want FRAME_NOT_FOUND", errors.GetCode(err))
	}

	if _, err := o.Frame(-1); err == nil {
		t.Error("Frame(-1) should fail")
	}
}

func TestObjectLastFrame(t *testing.T) {
	o := NewObject("traj")
	if o.LastFrame() != nil {
		t.Error("empty object should have no last frame")
	}

	first := &Frame{Coords: helix(5)}
	second := &Frame{Coords: helix(5)}
	o.Append(first, false)
	o.Append(second, false)
	if got := o.LastFrame(); got != second {
		t.Errorf("LastFrame = %p, want most recent append %p", got, second)
	}
}

func TestObjectEffectiveBonds(t *testing.T) {
	o := NewObject("traj")
	o.Bonds = []Bond{{0, 1}}
	o.Append(&Frame{Coords: helix(5)}, false)
	o.Append(&Frame{Coords: helix(5), Bonds: []Bond{{2, 3}}}, false)

	if got := o.EffectiveBonds(0); len(got) != 1 || got[0] != (Bond{0, 1}) {
		t.Errorf("frame 0 bonds = %v, want object-level {0,1}", got)
	}
	if got := o.EffectiveBonds(1); len(got) != 1 || got[0] != (Bond{2, 3}) {
		t.Errorf("frame 1 bonds = %v, want frame-level {2,3}", got)
	}
	if got := o.EffectiveBonds(99); len(got) != 1 || got[0] != (Bond{0, 1}) {
		t.Errorf("out-of-range frame bonds = %v, want object-level", got)
	}
}

func TestFrameAccessorDefaults(t *testing.T) {
	f := &Frame{Coords: []Vec3{{0, 0, 0}, {1, 0, 0}}}

	if got := f.TypeAt(0); got != Protein {
		t.Errorf("TypeAt default = %v, want Protein", got)
	}
	if got := f.ChainAt(1); got != DefaultChain {
		t.Errorf("ChainAt default = %q, want %q", got, DefaultChain)
	}
	if got := f.ConfidenceAt(0); got != DefaultConfidence {
		t.Errorf("ConfidenceAt default = %v, want %v", got, DefaultConfidence)
	}
	if got := f.ResidueAt(1); got != 1 {
		t.Errorf("ResidueAt default = %v, want index", got)
	}
	if got := f.NameAt(0); got != "" {
		t.Errorf("NameAt default = %q, want empty", got)
	}
}

func TestFrameSanitize(t *testing.T) {
	f := &Frame{
		Coords:      []Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}},
		Confidences: []float64{90, 80}, // wrong length
		Chains:      []string{"A", "A", "B"},
	}

	dropped := f.Sanitize()
	if len(dropped) != 1 {
		t.Fatalf("dropped = %v, want one entry", dropped)
	}
	if f.Confidences != nil {
		t.Error("mismatched confidences should be dropped")
	}
	if f.Chains == nil {
		t.Error("matching chains should be kept")
	}
}

func TestFrameSanitizePAE(t *testing.T) {
	f := &Frame{
		Coords: []Vec3{{0, 0, 0}, {1, 0, 0}},
		PAE:    make([]uint8, 9),
	}
	if dropped := f.Sanitize(); len(dropped) != 0 {
		t.Fatalf("dropped = %v, want none", dropped)
	}
	if f.PAESize != 3 {
		t.Errorf("PAESize = %d, want 3 (inferred)", f.PAESize)
	}

	bad := &Frame{
		Coords: []Vec3{{0, 0, 0}},
		PAE:    make([]uint8, 7),
	}
	if dropped := bad.Sanitize(); len(dropped) != 1 {
		t.Fatalf("dropped = %v, want one entry", dropped)
	}
	if bad.PAE != nil {
		t.Error("non-square PAE should be dropped")
	}
}
