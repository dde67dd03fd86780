package math3d

import "math"

// Mat4 is a 4x4 matrix stored in column-major order.
//
// Memory layout (indices):
// | 0  4  8  12 |
// | 1  5  9  13 |
// | 2  6  10 14 |
// | 3  7  11 15 |
//
// For a rigid transform the first three columns are the images of the
// X, Y and Z axes and the fourth column is the translation.
type Mat4 [16]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate creates a translation matrix.
func Translate(v Vec3) Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		v.X, v.Y, v.Z, 1,
	}
}

// Scale creates a scaling matrix.
func Scale(v Vec3) Mat4 {
	return Mat4{
		v.X, 0, 0, 0,
		0, v.Y, 0, 0,
		0, 0, v.Z, 0,
		0, 0, 0, 1,
	}
}

// FromBasis creates the matrix whose columns are x, y, z and origin.
func FromBasis(x, y, z, origin Vec3) Mat4 {
	return Mat4{
		x.X, x.Y, x.Z, 0,
		y.X, y.Y, y.Z, 0,
		z.X, z.Y, z.Z, 0,
		origin.X, origin.Y, origin.Z, 1,
	}
}

// RotateX creates a rotation matrix around the X axis.
func RotateX(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	}
}

// RotateZ creates a rotation matrix around the Z axis.
func RotateZ(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		c, s, 0, 0,
		-s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// LookAt creates a view matrix looking from eye towards center.
func LookAt(eye, center, up Vec3) Mat4 {
	f := center.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)

	return Mat4{
		s.X, u.X, -f.X, 0,
		s.Y, u.Y, -f.Y, 0,
		s.Z, u.Z, -f.Z, 0,
		-s.Dot(eye), -u.Dot(eye), f.Dot(eye), 1,
	}
}

// Perspective creates a perspective projection matrix.
// fovy is vertical field of view in radians.
// aspect is width/height.
// near and far are clipping planes.
func Perspective(fovy, aspect, near, far float64) Mat4 {
	f := 1.0 / math.Tan(fovy/2)
	nf := 1.0 / (near - far)

	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * nf, -1,
		0, 0, 2 * far * near * nf, 0,
	}
}

// Orthographic creates an orthographic projection matrix.
func Orthographic(left, right, bottom, top, near, far float64) Mat4 {
	rl := 1.0 / (right - left)
	tb := 1.0 / (top - bottom)
	fn := 1.0 / (far - near)

	return Mat4{
		2 * rl, 0, 0, 0,
		0, 2 * tb, 0, 0,
		0, 0, -2 * fn, 0,
		-(right + left) * rl, -(top + bottom) * tb, -(far + near) * fn, 1,
	}
}

// Mul multiplies two matrices: a * b.
//
//nolint:st1016 // a*b naming convention is clearer for matrix multiplication
func (a Mat4) Mul(b Mat4) Mat4 {
	var m Mat4
	for col := range 4 {
		for row := range 4 {
			var sum float64
			for k := range 4 {
				sum += a[row+k*4] * b[k+col*4]
			}
			m[row+col*4] = sum
		}
	}
	return m
}

// MulVec3 transforms a Vec3 as a point (w=1).
func (m Mat4) MulVec3(v Vec3) Vec3 {
	w := m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]
	if w == 0 {
		w = 1
	}
	return Vec3{
		(m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]) / w,
		(m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]) / w,
		(m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]) / w,
	}
}

// MulVec3Dir transforms a Vec3 as a direction (w=0, no translation).
func (m Mat4) MulVec3Dir(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z,
	}
}

// MulVec4 transforms a Vec4.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// Transpose returns the transposed matrix.
func (m Mat4) Transpose() Mat4 {
	return Mat4{
		m[0], m[4], m[8], m[12],
		m[1], m[5], m[9], m[13],
		m[2], m[6], m[10], m[14],
		m[3], m[7], m[11], m[15],
	}
}

// Column returns the xyz part of column i.
func (m Mat4) Column(i int) Vec3 {
	return Vec3{m[i*4], m[i*4+1], m[i*4+2]}
}

// Translation extracts the translation component.
func (m Mat4) Translation() Vec3 {
	return m.Column(3)
}

// Invert returns the inverse of m and false when m is singular.
//
// The inverse is assembled from the twelve 2x2 minors of the upper and
// lower row pairs.
func (m Mat4) Invert() (Mat4, bool) {
	a := func(r, c int) float64 { return m[r+c*4] }

	s0 := a(0, 0)*a(1, 1) - a(1, 0)*a(0, 1)
	s1 := a(0, 0)*a(1, 2) - a(1, 0)*a(0, 2)
	s2 := a(0, 0)*a(1, 3) - a(1, 0)*a(0, 3)
	s3 := a(0, 1)*a(1, 2) - a(1, 1)*a(0, 2)
	s4 := a(0, 1)*a(1, 3) - a(1, 1)*a(0, 3)
	s5 := a(0, 2)*a(1, 3) - a(1, 2)*a(0, 3)

	c5 := a(2, 2)*a(3, 3) - a(3, 2)*a(2, 3)
	c4 := a(2, 1)*a(3, 3) - a(3, 1)*a(2, 3)
	c3 := a(2, 1)*a(3, 2) - a(3, 1)*a(2, 2)
	c2 := a(2, 0)*a(3, 3) - a(3, 0)*a(2, 3)
	c1 := a(2, 0)*a(3, 2) - a(3, 0)*a(2, 2)
	c0 := a(2, 0)*a(3, 1) - a(3, 0)*a(2, 1)

	det := s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
	if det == 0 || math.IsNaN(det) {
		return Identity(), false
	}
	d := 1 / det

	var inv Mat4
	set := func(r, c int, v float64) { inv[r+c*4] = v * d }

	set(0, 0, a(1, 1)*c5-a(1, 2)*c4+a(1, 3)*c3)
	set(0, 1, -a(0, 1)*c5+a(0, 2)*c4-a(0, 3)*c3)
	set(0, 2, a(3, 1)*s5-a(3, 2)*s4+a(3, 3)*s3)
	set(0, 3, -a(2, 1)*s5+a(2, 2)*s4-a(2, 3)*s3)

	set(1, 0, -a(1, 0)*c5+a(1, 2)*c2-a(1, 3)*c1)
	set(1, 1, a(0, 0)*c5-a(0, 2)*c2+a(0, 3)*c1)
	set(1, 2, -a(3, 0)*s5+a(3, 2)*s2-a(3, 3)*s1)
	set(1, 3, a(2, 0)*s5-a(2, 2)*s2+a(2, 3)*s1)

	set(2, 0, a(1, 0)*c4-a(1, 1)*c2+a(1, 3)*c0)
	set(2, 1, -a(0, 0)*c4+a(0, 1)*c2-a(0, 3)*c0)
	set(2, 2, a(3, 0)*s4-a(3, 1)*s2+a(3, 3)*s0)
	set(2, 3, -a(2, 0)*s4+a(2, 1)*s2-a(2, 3)*s0)

	set(3, 0, -a(1, 0)*c3+a(1, 1)*c1-a(1, 2)*c0)
	set(3, 1, a(0, 0)*c3-a(0, 1)*c1+a(0, 2)*c0)
	set(3, 2, -a(3, 0)*s3+a(3, 1)*s1-a(3, 2)*s0)
	set(3, 3, a(2, 0)*s3-a(2, 1)*s1+a(2, 2)*s0)

	return inv, true
}

// Inverse returns the inverse of the matrix, or identity if it is singular.
func (m Mat4) Inverse() Mat4 {
	inv, _ := m.Invert()
	return inv
}
