// Package geom holds the local-to-world frame math shared by the extent engine,
// the renderer and the software rasterizer.
package geom

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// degenerateEpsilon is the squared length below which a vector is treated as zero.
const degenerateEpsilon = 1e-12

var (
	unitX = mgl32.Vec3{1, 0, 0}
	unitY = mgl32.Vec3{0, 1, 0}
)

// Basis builds an orthonormal frame from an object's axis and up vectors.
// The pair need not be perpendicular: x follows axis, z = x × up and y = z × x.
// A zero-length axis falls back to +X. When axis and up are parallel (or up is zero),
// up falls back to +X, or to +Y when the axis itself lies along X. The result is never NaN.
//
// Parameters:
//   - axis: the object's orientation axis
//   - up: the object's up vector
//
// Returns:
//   - x, y, z: unit vectors of the frame
func Basis(axis, up mgl32.Vec3) (x, y, z mgl32.Vec3) {
	x = unitX
	if l := axis.Dot(axis); l > degenerateEpsilon {
		x = axis.Mul(1 / math32.Sqrt(l))
	}
	z = x.Cross(up)
	if z.Dot(z) <= degenerateEpsilon*max(1, up.Dot(up)) {
		alt := unitX
		if math32.Abs(x.Dot(unitX)) > 0.9 {
			alt = unitY
		}
		z = x.Cross(alt)
	}
	z = z.Normalize()
	y = z.Cross(x)
	return x, y, z
}

// ModelMatrix builds the local-to-world transform for a primitive.
// Local x, y and z are scaled by size and mapped onto the Basis frame before translation.
//
// Parameters:
//   - pos: world position of the local origin
//   - axis: orientation axis
//   - up: up vector
//   - size: non-uniform scale along local x, y, z
//
// Returns:
//   - mgl32.Mat4: the column-major model matrix
func ModelMatrix(pos, axis, up, size mgl32.Vec3) mgl32.Mat4 {
	x, y, z := Basis(axis, up)
	x = x.Mul(size[0])
	y = y.Mul(size[1])
	z = z.Mul(size[2])
	return mgl32.Mat4{
		x[0], x[1], x[2], 0,
		y[0], y[1], y[2], 0,
		z[0], z[1], z[2], 0,
		pos[0], pos[1], pos[2], 1,
	}
}

// NormalMatrix returns the inverse-transpose of the upper 3x3 of m.
// A singular matrix (zero size component) yields the plain upper 3x3 instead.
func NormalMatrix(m mgl32.Mat4) mgl32.Mat3 {
	m3 := m.Mat3()
	if math32.Abs(m3.Det()) < 1e-20 {
		return m3
	}
	return m3.Inv().Transpose()
}
