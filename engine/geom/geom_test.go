package geom

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func assertVec(t *testing.T, want, have mgl32.Vec3) {
	t.Helper()
	for i := range 3 {
		assert.InDelta(t, want[i], have[i], 1e-5, "component %d of %v", i, have)
	}
}

func assertFinite(t *testing.T, vs ...mgl32.Vec3) {
	t.Helper()
	for _, v := range vs {
		for i := range 3 {
			assert.False(t, math32.IsNaN(v[i]) || math32.IsInf(v[i], 0), "non-finite %v", v)
		}
	}
}

func TestBasisOrthogonal(t *testing.T) {
	x, y, z := Basis(mgl32.Vec3{2, 0, 0}, mgl32.Vec3{0, 1, 0})
	assertVec(t, mgl32.Vec3{1, 0, 0}, x)
	assertVec(t, mgl32.Vec3{0, 1, 0}, y)
	assertVec(t, mgl32.Vec3{0, 0, 1}, z)
}

func TestBasisNonOrthogonalUp(t *testing.T) {
	x, y, z := Basis(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{1, 1, 0})
	assertVec(t, mgl32.Vec3{1, 0, 0}, x)
	assertVec(t, mgl32.Vec3{0, 1, 0}, y)
	assertVec(t, mgl32.Vec3{0, 0, 1}, z)
}

func TestBasisDegenerate(t *testing.T) {
	tests := []struct {
		name     string
		axis, up mgl32.Vec3
	}{
		{"axis equals up", mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 1, 0}},
		{"axis opposite up", mgl32.Vec3{0, 0, -3}, mgl32.Vec3{0, 0, 1}},
		{"axis along x equals up", mgl32.Vec3{1, 0, 0}, mgl32.Vec3{4, 0, 0}},
		{"zero axis", mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}},
		{"zero up", mgl32.Vec3{0, 0, 1}, mgl32.Vec3{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, z := Basis(tt.axis, tt.up)
			assertFinite(t, x, y, z)
			assert.InDelta(t, 1, x.Len(), 1e-5)
			assert.InDelta(t, 1, y.Len(), 1e-5)
			assert.InDelta(t, 1, z.Len(), 1e-5)
			assert.InDelta(t, 0, x.Dot(y), 1e-5)
			assert.InDelta(t, 0, x.Dot(z), 1e-5)

			x2, y2, z2 := Basis(tt.axis, tt.up)
			assert.Equal(t, x, x2)
			assert.Equal(t, y, y2)
			assert.Equal(t, z, z2)
		})
	}
}

func TestModelMatrixBounds(t *testing.T) {
	unit := AABB{Min: mgl32.Vec3{-0.5, -0.5, -0.5}, Max: mgl32.Vec3{0.5, 0.5, 0.5}}
	m := ModelMatrix(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{4, 2, 1})
	b := unit.Transform(m)
	assertVec(t, mgl32.Vec3{0.5, 1, 1}, b.Min)
	assertVec(t, mgl32.Vec3{1.5, 3, 5}, b.Max)
}

func TestModelMatrixDegenerateHasArea(t *testing.T) {
	unit := AABB{Min: mgl32.Vec3{-0.5, -0.5, -0.5}, Max: mgl32.Vec3{0.5, 0.5, 0.5}}
	m := ModelMatrix(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 1, 1})
	b := unit.Transform(m)
	assertFinite(t, b.Min, b.Max)
	for i := range 3 {
		assert.Greater(t, b.Max[i]-b.Min[i], float32(0.5))
	}
}

func TestAABB(t *testing.T) {
	b := Empty()
	assert.True(t, b.IsEmpty())
	b = b.Extend(mgl32.Vec3{1, -1, 0}).Extend(mgl32.Vec3{-1, 1, 2})
	assert.False(t, b.IsEmpty())
	assertVec(t, mgl32.Vec3{0, 0, 1}, b.Center())
	assert.Equal(t, b, b.Union(Empty()))
	p := b.Pad(1)
	assertVec(t, mgl32.Vec3{-2, -2, -1}, p.Min)
}

func TestNormalMatrixNonUniformScale(t *testing.T) {
	m := ModelMatrix(mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{2, 1, 1})
	n := NormalMatrix(m).Mul3x1(mgl32.Vec3{1, 1, 0}).Normalize()
	assertVec(t, mgl32.Vec3{1, 2, 0}.Normalize(), n)
}
