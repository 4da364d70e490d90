package mol

import "math"

// jacobiEigen diagonalizes a symmetric 3×3 matrix with cyclic Jacobi
// rotations. Returns eigenvalues in descending order and the matching
// eigenvectors as the columns of the returned matrix.
func jacobiEigen(m Mat3) ([3]float64, Mat3) {
	a := [3][3]float64{
		{m[0], m[1], m[2]},
		{m[3], m[4], m[5]},
		{m[6], m[7], m[8]},
	}
	v := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	for sweep := 0; sweep < 50; sweep++ {
		off := a[0][1]*a[0][1] + a[0][2]*a[0][2] + a[1][2]*a[1][2]
		diag := a[0][0]*a[0][0] + a[1][1]*a[1][1] + a[2][2]*a[2][2]
		if off <= 1e-24*(diag+1e-300) {
			break
		}
		for p := 0; p < 2; p++ {
			for q := p + 1; q < 3; q++ {
				if math.Abs(a[p][q]) < 1e-30 {
					continue
				}
				// Rotation angle that annihilates a[p][q].
				theta := (a[q][q] - a[p][p]) / (2 * a[p][q])
				t := math.Copysign(1, theta) / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				c := 1 / math.Sqrt(t*t+1)
				s := t * c

				for k := 0; k < 3; k++ {
					akp, akq := a[k][p], a[k][q]
					a[k][p] = c*akp - s*akq
					a[k][q] = s*akp + c*akq
				}
				for k := 0; k < 3; k++ {
					akp, akq := a[p][k], a[q][k]
					a[p][k] = c*akp - s*akq
					a[q][k] = s*akp + c*akq
				}
				for k := 0; k < 3; k++ {
					vkp, vkq := v[k][p], v[k][q]
					v[k][p] = c*vkp - s*vkq
					v[k][q] = s*vkp + c*vkq
				}
			}
		}
	}

	vals := [3]float64{a[0][0], a[1][1], a[2][2]}
	order := [3]int{0, 1, 2}
	// Sort three eigenvalues descending.
	for i := 0; i < 2; i++ {
		for j := i + 1; j < 3; j++ {
			if vals[order[j]] > vals[order[i]] {
				order[i], order[j] = order[j], order[i]
			}
		}
	}

	sorted := [3]float64{vals[order[0]], vals[order[1]], vals[order[2]]}
	vecs := matFromCols(
		Vec3{v[0][order[0]], v[1][order[0]], v[2][order[0]]},
		Vec3{v[0][order[1]], v[1][order[1]], v[2][order[1]]},
		Vec3{v[0][order[2]], v[1][order[2]], v[2][order[2]]},
	)
	return sorted, vecs
}

// svd3 computes the singular value decomposition h = U·diag(s)·Vᵀ of a
// 3×3 matrix via the eigendecomposition of hᵀh. Singular values are
// returned in descending order. Rank-deficient inputs get their missing
// left singular vectors completed orthogonally.
func svd3(h Mat3) (u Mat3, s [3]float64, v Mat3) {
	k := h.Transpose().Mul(h)
	vals, vecs := jacobiEigen(k)
	v = vecs

	for i := 0; i < 3; i++ {
		if vals[i] > 0 {
			s[i] = math.Sqrt(vals[i])
		}
	}

	eps := 1e-10 * (s[0] + 1e-30)
	var cols [3]Vec3
	have := 0
	for i := 0; i < 3; i++ {
		if s[i] > eps {
			cols[i] = h.MulVec(v.Col(i)).Scale(1 / s[i])
			have = i + 1
		}
	}

	switch have {
	case 0:
		cols = [3]Vec3{{X: 1}, {Y: 1}, {Z: 1}}
	case 1:
		cols[1] = anyPerpendicular(cols[0])
		cols[2] = cols[0].Cross(cols[1])
	case 2:
		cols[2] = cols[0].Cross(cols[1])
	}

	u = matFromCols(cols[0], cols[1], cols[2])
	return u, s, v
}

// anyPerpendicular returns a unit vector orthogonal to the given unit
// vector.
func anyPerpendicular(v Vec3) Vec3 {
	axis := Vec3{X: 1}
	if math.Abs(v.X) > 0.9 {
		axis = Vec3{Y: 1}
	}
	p, _ := v.Cross(axis).Normalize(1e-30)
	return p
}

// KabschRotation computes the rotation R that optimally superposes the
// centered coordinate set a onto the centered set b in the least-squares
// sense: b_i ≈ R·a_i. Both inputs must already have zero mean. The
// reflection case (det < 0) is corrected by flipping the singular vector
// of the smallest singular value, so the result is always a proper
// rotation.
func KabschRotation(a, b []Vec3) Mat3 {
	var h Mat3
	for i := range a {
		h[0] += a[i].X * b[i].X
		h[1] += a[i].X * b[i].Y
		h[2] += a[i].X * b[i].Z
		h[3] += a[i].Y * b[i].X
		h[4] += a[i].Y * b[i].Y
		h[5] += a[i].Y * b[i].Z
		h[6] += a[i].Z * b[i].X
		h[7] += a[i].Z * b[i].Y
		h[8] += a[i].Z * b[i].Z
	}

	u, _, v := svd3(h)
	r := v.Mul(u.Transpose())
	if r.Det() < 0 {
		v[2], v[5], v[8] = -v[2], -v[5], -v[8]
		r = v.Mul(u.Transpose())
	}
	return r
}

// AlignTo superposes moving onto target with the Kabsch algorithm and
// returns the transformed copy. The inputs must have equal length; on a
// mismatch (or empty input) moving is returned unchanged.
func AlignTo(moving, target []Vec3) []Vec3 {
	if len(moving) == 0 || len(moving) != len(target) {
		return moving
	}

	mMean := centroidOf(moving)
	tMean := centroidOf(target)

	mCent := make([]Vec3, len(moving))
	tCent := make([]Vec3, len(target))
	for i := range moving {
		mCent[i] = moving[i].Sub(mMean)
		tCent[i] = target[i].Sub(tMean)
	}

	r := KabschRotation(mCent, tCent)

	out := make([]Vec3, len(moving))
	for i := range mCent {
		out[i] = r.MulVec(mCent[i]).Add(tMean)
	}
	return out
}

// centroidOf returns the mean of a coordinate set.
func centroidOf(pts []Vec3) Vec3 {
	var sum Vec3
	for _, p := range pts {
		sum = sum.Add(p)
	}
	if len(pts) == 0 {
		return sum
	}
	return sum.Scale(1 / float64(len(pts)))
}
