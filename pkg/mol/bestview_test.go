package mol

import (
	"math"
	"testing"
)

func TestBestViewEmpty(t *testing.T) {
	rot, center := BestView(nil)
	if !matNear(rot, Identity(), 0) {
		t.Errorf("rotation = %v, want identity", rot)
	}
	if !vecNear(center, Vec3{}, 0) {
		t.Errorf("center = %v, want origin", center)
	}
}

func TestBestViewSinglePoint(t *testing.T) {
	rot, center := BestView([]Vec3{{3, 4, 5}})
	if !matNear(rot, Identity(), 0) {
		t.Errorf("rotation = %v, want identity for degenerate input", rot)
	}
	if !vecNear(center, Vec3{3, 4, 5}, geomEps) {
		t.Errorf("center = %v, want the point itself", center)
	}
}

func TestBestViewCenter(t *testing.T) {
	coords := []Vec3{{0, 0, 0}, {2, 0, 0}, {0, 4, 0}, {2, 4, 8}}
	_, center := BestView(coords)
	if !vecNear(center, Vec3{1, 2, 2}, 1e-12) {
		t.Errorf("center = %v, want mean of coords", center)
	}
}

func TestBestViewIsProperRotation(t *testing.T) {
	rot, _ := BestView(helix(40))
	if det := rot.Det(); math.Abs(det-1) > 1e-9 {
		t.Errorf("det = %v, want 1", det)
	}
	if got := rot.Mul(rot.Transpose()); !matNear(got, Identity(), 1e-9) {
		t.Errorf("R·Rᵀ = %v, want identity", got)
	}
}

func TestBestViewSpreadsElongatedAxis(t *testing.T) {
	// Points stretched along an oblique direction: after orientation the
	// dominant variance must land on one screen axis, leaving almost
	// nothing on the other two for a near-collinear set.
	dir, _ := (Vec3{1, 2, 0.5}).Normalize(1e-10)
	coords := make([]Vec3, 50)
	for i := range coords {
		jitter := Vec3{
			0.01 * math.Sin(float64(i)),
			0.01 * math.Cos(float64(3*i)),
			0.01 * math.Sin(float64(7*i)),
		}
		coords[i] = dir.Scale(float64(i)).Add(jitter)
	}

	rot, center := BestView(coords)

	var varX, varY float64
	for _, c := range coords {
		p := rot.MulVec(c.Sub(center))
		varX += p.X * p.X
		varY += p.Y * p.Y
	}
	n := float64(len(coords))
	varX /= n
	varY /= n

	hi := math.Max(varX, varY)
	lo := math.Min(varX, varY)
	if hi < 100*lo {
		t.Errorf("variance not concentrated on one screen axis: varX=%v varY=%v", varX, varY)
	}
}
