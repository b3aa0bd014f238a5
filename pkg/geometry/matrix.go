package geometry

import (
	"math"

	"golang.org/x/image/math/f64"

	"github.com/menta2k/image-augmenter/pkg/types"
)

// Matrix is a 3x3 affine transform in homogeneous coordinates, acting on column vectors:
//
//	| x' |   | m00 m01 m02 |   | x |
//	| y' | = | m10 m11 m12 | · | y |
//	| 1  |   |  0   0   1  |   | 1 |
//
// Applying A and then B is B.Multiply(A).
type Matrix [3][3]float64

// Identity returns the identity transformation matrix.
func Identity() Matrix {
	return Matrix{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// Translate creates a translation matrix.
func Translate(x, y float64) Matrix {
	return Matrix{
		{1, 0, x},
		{0, 1, y},
		{0, 0, 1},
	}
}

// Scale creates a scaling matrix.
func Scale(x, y float64) Matrix {
	return Matrix{
		{x, 0, 0},
		{0, y, 0},
		{0, 0, 1},
	}
}

// Rotate creates a rotation matrix for an image coordinate system (y axis down).
// Positive angles, in degrees, turn counter-clockwise as displayed.
func Rotate(deg float64) Matrix {
	cos, sin := cosSin(deg)
	return Matrix{
		{cos, sin, 0},
		{-sin, cos, 0},
		{0, 0, 1},
	}
}

// Shear creates a shear matrix: x' = x + kx·y, y' = y + ky·x.
func Shear(kx, ky float64) Matrix {
	return Matrix{
		{1, kx, 0},
		{ky, 1, 0},
		{0, 0, 1},
	}
}

// About conjugates m so it acts around the point c instead of the origin.
func About(m Matrix, c types.Point) Matrix {
	return Translate(c.X, c.Y).Multiply(m).Multiply(Translate(-c.X, -c.Y))
}

// Multiply multiplies two matrices (m * other).
func (m Matrix) Multiply(other Matrix) Matrix {
	var out Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][0]*other[0][j] + m[i][1]*other[1][j] + m[i][2]*other[2][j]
		}
	}
	return out
}

// TransformPoint applies the transformation to a point.
func (m Matrix) TransformPoint(p types.Point) types.Point {
	w := m[2][0]*p.X + m[2][1]*p.Y + m[2][2]
	if w == 0 {
		w = 1
	}
	return types.Point{
		X: (m[0][0]*p.X + m[0][1]*p.Y + m[0][2]) / w,
		Y: (m[1][0]*p.X + m[1][1]*p.Y + m[1][2]) / w,
	}
}

// Invert returns the inverse matrix.
// Returns the identity matrix if the matrix is not invertible.
func (m Matrix) Invert() Matrix {
	a, b, c := m[0][0], m[0][1], m[0][2]
	d, e, f := m[1][0], m[1][1], m[1][2]
	det := a*e - b*d
	if math.Abs(det) < 1e-12 {
		return Identity()
	}
	inv := 1.0 / det
	return Matrix{
		{e * inv, -b * inv, (b*f - c*e) * inv},
		{-d * inv, a * inv, (c*d - a*f) * inv},
		{0, 0, 1},
	}
}

// IsIdentity returns true if the matrix is the identity matrix.
func (m Matrix) IsIdentity() bool {
	return m == Identity()
}

// IsScaleOnly reports whether the matrix scales and translates without rotating or shearing.
func (m Matrix) IsScaleOnly() bool {
	return m[0][1] == 0 && m[1][0] == 0
}

// Equal compares two matrices within eps per element.
func (m Matrix) Equal(other Matrix, eps float64) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(m[i][j]-other[i][j]) > eps {
				return false
			}
		}
	}
	return true
}

// Aff3 returns the top two rows in the layout golang.org/x/image/draw expects.
func (m Matrix) Aff3() f64.Aff3 {
	return f64.Aff3{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
	}
}

// cosSin returns exact values for multiples of 90 degrees so quarter turns do not leak
// rounding noise into canvas sizes.
func cosSin(deg float64) (float64, float64) {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	switch d {
	case 0:
		return 1, 0
	case 90:
		return 0, 1
	case 180:
		return -1, 0
	case 270:
		return 0, -1
	}
	rad := deg * math.Pi / 180
	return math.Cos(rad), math.Sin(rad)
}
