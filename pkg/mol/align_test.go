package mol

import (
	"math"
	"testing"
)

// helix returns a synthetic helical point set with non-degenerate
// covariance, convenient for alignment tests.
func helix(n int) []Vec3 {
	pts := make([]Vec3, n)
	for i := range pts {
		a := float64(i) * 0.6
		pts[i] = Vec3{5 * math.Cos(a), 5 * math.Sin(a), 1.5 * float64(i)}
	}
	return pts
}

func rmsd(a, b []Vec3) float64 {
	var sum float64
	for i := range a {
		sum += a[i].DistSq(b[i])
	}
	return math.Sqrt(sum / float64(len(a)))
}

func TestKabschRecoversRotation(t *testing.T) {
	orig := helix(20)
	center := centroidOf(orig)

	rot := RotationX(0.8).Mul(RotationY(-0.3))

	a := make([]Vec3, len(orig))
	b := make([]Vec3, len(orig))
	for i, p := range orig {
		c := p.Sub(center)
		a[i] = c
		b[i] = rot.MulVec(c)
	}

	got := KabschRotation(a, b)
	if !matNear(got, rot, 1e-9) {
		t.Errorf("KabschRotation = %v, want %v", got, rot)
	}
}

func TestKabschIsProperRotation(t *testing.T) {
	a := helix(15)
	center := centroidOf(a)
	for i := range a {
		a[i] = a[i].Sub(center)
	}

	// Mirror the target set; the reflection correction must still return
	// a proper rotation (det +1, never −1).
	b := make([]Vec3, len(a))
	for i, p := range a {
		b[i] = Vec3{-p.X, p.Y, p.Z}
	}

	r := KabschRotation(a, b)
	if det := r.Det(); math.Abs(det-1) > 1e-9 {
		t.Errorf("det = %v, want 1", det)
	}
}

func TestAlignToUndoesRigidTransform(t *testing.T) {
	target := helix(25)

	rot := RotationY(1.2).Mul(RotationX(0.4))
	shift := Vec3{10, -3, 7}

	moving := make([]Vec3, len(target))
	for i, p := range target {
		moving[i] = rot.MulVec(p).Add(shift)
	}

	aligned := AlignTo(moving, target)
	if got := rmsd(aligned, target); got > 1e-9 {
		t.Errorf("rmsd after align = %v, want ~0", got)
	}
}

func TestAlignToLengthMismatch(t *testing.T) {
	moving := helix(10)
	target := helix(12)

	got := AlignTo(moving, target)
	if len(got) != len(moving) {
		t.Fatalf("len = %d, want %d", len(got), len(moving))
	}
	for i := range got {
		if !vecNear(got[i], moving[i], 0) {
			t.Fatalf("coords changed on length mismatch at %d", i)
		}
	}
}

func TestAlignToEmpty(t *testing.T) {
	if got := AlignTo(nil, nil); got != nil {
		t.Errorf("AlignTo(nil, nil) = %v, want nil", got)
	}
}

func TestJacobiEigenDiagonal(t *testing.T) {
	// Already-diagonal input: eigenvalues sorted descending, eigenvectors
	// are the matching axes.
	m := Mat3{
		2, 0, 0,
		0, 7, 0,
		0, 0, 4,
	}
	vals, vecs := jacobiEigen(m)

	want := [3]float64{7, 4, 2}
	for i := range vals {
		if math.Abs(vals[i]-want[i]) > 1e-12 {
			t.Errorf("vals[%d] = %v, want %v", i, vals[i], want[i])
		}
	}

	// Largest eigenvalue's eigenvector should be ±ŷ.
	v0 := vecs.Col(0)
	if math.Abs(math.Abs(v0.Y)-1) > 1e-12 {
		t.Errorf("first eigenvector = %v, want ±ŷ", v0)
	}
}

func TestJacobiEigenReconstructs(t *testing.T) {
	// Symmetric matrix with distinct eigenvalues: A·v = λ·v for each pair.
	m := Mat3{
		4, 1, 2,
		1, 5, 3,
		2, 3, 6,
	}
	vals, vecs := jacobiEigen(m)

	for i := 0; i < 3; i++ {
		v := vecs.Col(i)
		av := m.MulVec(v)
		lv := v.Scale(vals[i])
		if !vecNear(av, lv, 1e-9) {
			t.Errorf("A·v%d = %v, λ·v%d = %v", i, av, i, lv)
		}
	}

	if vals[0] < vals[1] || vals[1] < vals[2] {
		t.Errorf("eigenvalues not descending: %v", vals)
	}
}

func TestSVD3RoundTrip(t *testing.T) {
	h := Mat3{
		1, 2, 0,
		-3, 1, 4,
		2, -1, 1,
	}
	u, s, v := svd3(h)

	// Reconstruct U·diag(s)·Vᵀ.
	d := Mat3{s[0], 0, 0, 0, s[1], 0, 0, 0, s[2]}
	got := u.Mul(d).Mul(v.Transpose())
	if !matNear(got, h, 1e-9) {
		t.Errorf("U·S·Vᵀ = %v, want %v", got, h)
	}

	if s[0] < s[1] || s[1] < s[2] || s[2] < 0 {
		t.Errorf("singular values not sorted non-negative: %v", s)
	}
}
