package mol

import "math"

// Vec3 is a 3D vector in ångströms (model space) or screen units after
// projection.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns v − w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product v·w.
func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the cross product v×w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.NormSq())
}

// NormSq returns the squared length of v.
func (v Vec3) NormSq() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Normalize returns v scaled to unit length, or the zero vector if v is
// shorter than the given epsilon.
func (v Vec3) Normalize(eps float64) (Vec3, bool) {
	n := v.Norm()
	if n < eps {
		return Vec3{}, false
	}
	return v.Scale(1 / n), true
}

// Dist returns the Euclidean distance between v and w.
func (v Vec3) Dist(w Vec3) float64 {
	return v.Sub(w).Norm()
}

// DistSq returns the squared distance between v and w. Used in hot loops
// where the comparison threshold is itself squared.
func (v Vec3) DistSq(w Vec3) float64 {
	return v.Sub(w).NormSq()
}

// Mat3 is a 3×3 row-major matrix. Applied to column vectors: w = M·v.
type Mat3 [9]float64

// Identity returns the identity matrix.
func Identity() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Mul returns m·n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = m[r*3]*n[c] + m[r*3+1]*n[3+c] + m[r*3+2]*n[6+c]
		}
	}
	return out
}

// MulVec returns m·v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

// Transpose returns mᵀ.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Det returns the determinant of m.
func (m Mat3) Det() float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

// Row returns row r as a vector.
func (m Mat3) Row(r int) Vec3 {
	return Vec3{m[r*3], m[r*3+1], m[r*3+2]}
}

// Col returns column c as a vector.
func (m Mat3) Col(c int) Vec3 {
	return Vec3{m[c], m[3+c], m[6+c]}
}

// RotationX returns the rotation matrix for angle radians about the X axis.
func RotationX(angle float64) Mat3 {
	s, c := math.Sincos(angle)
	return Mat3{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}
}

// RotationY returns the rotation matrix for angle radians about the Y axis.
func RotationY(angle float64) Mat3 {
	s, c := math.Sincos(angle)
	return Mat3{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	}
}

// RotationZ returns the rotation matrix for angle radians about the Z axis.
func RotationZ(angle float64) Mat3 {
	s, c := math.Sincos(angle)
	return Mat3{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}
}

// matFromRows builds a matrix whose rows are the given vectors.
func matFromRows(r0, r1, r2 Vec3) Mat3 {
	return Mat3{
		r0.X, r0.Y, r0.Z,
		r1.X, r1.Y, r1.Z,
		r2.X, r2.Y, r2.Z,
	}
}

// matFromCols builds a matrix whose columns are the given vectors.
func matFromCols(c0, c1, c2 Vec3) Mat3 {
	return Mat3{
		c0.X, c1.X, c2.X,
		c0.Y, c1.Y, c2.Y,
		c0.Z, c1.Z, c2.Z,
	}
}
