package mol

// BestView computes the orientation that spreads a coordinate set across
// the screen plane, and the center to rotate about.
//
// The principal axes of the centered coordinates are taken from the
// covariance matrix, then candidate orientations are scored: both
// assignments of the two largest axes to screen X/Y, under all sign
// combinations, with the screen Z axis completed by cross product to keep
// the rotation proper. The candidate maximizing the ratio of larger to
// smaller projected variance wins, matching the interactive viewer's
// preference for landscape-filling orientations.
//
// Returns the identity rotation for degenerate inputs (empty, single
// point, or collinear sets whose second axis vanishes).
func BestView(coords []Vec3) (Mat3, Vec3) {
	center := centroidOf(coords)
	if len(coords) == 0 {
		return Identity(), center
	}

	centered := make([]Vec3, len(coords))
	for i, c := range coords {
		centered[i] = c.Sub(center)
	}

	// Covariance H = Σ c·cᵀ over the centered coordinates.
	var h Mat3
	for _, c := range centered {
		h[0] += c.X * c.X
		h[1] += c.X * c.Y
		h[2] += c.X * c.Z
		h[4] += c.Y * c.Y
		h[5] += c.Y * c.Z
		h[8] += c.Z * c.Z
	}
	h[3], h[6], h[7] = h[1], h[2], h[5]

	_, vecs := jacobiEigen(h)
	v1 := vecs.Col(0) // largest variance
	v2 := vecs.Col(1) // second largest

	bestRatio := -1.0
	best := Identity()

	for _, firstToX := range []bool{true, false} {
		for _, s1 := range []float64{1, -1} {
			for _, s2 := range []float64{1, -1} {
				e1 := v1.Scale(s1)
				e2 := v2.Scale(s2)

				x, y := e1, e2
				if !firstToX {
					x, y = e2, e1
				}

				r0, ok := x.Normalize(1e-10)
				if !ok {
					continue
				}
				// Orthogonalize the Y axis against X.
				y = y.Sub(r0.Scale(y.Dot(r0)))
				r1, ok := y.Normalize(1e-10)
				if !ok {
					continue
				}
				r2 := r0.Cross(r1)
				rot := matFromRows(r0, r1, r2)

				// Projected variance; the centered set keeps zero mean
				// under rotation, so the variance is the mean square.
				var sumXX, sumYY float64
				for _, c := range centered {
					p := rot.MulVec(c)
					sumXX += p.X * p.X
					sumYY += p.Y * p.Y
				}
				n := float64(len(centered))
				varX := sumXX / n
				varY := sumYY / n

				lo, hi := varX, varY
				if lo > hi {
					lo, hi = hi, lo
				}
				ratio := hi / (lo + 1e-10)
				if ratio > bestRatio {
					bestRatio = ratio
					best = rot
				}
			}
		}
	}

	return best, center
}
