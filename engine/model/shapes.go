package model

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	roundSegments = 32
	sphereStacks  = 16
	ringTubeSteps = 12
	ringMajor     = 0.4
	ringMinor     = 0.1
	arrowShaft    = 0.8
)

func (m *Mesh) addVertex(p, n mgl32.Vec3, uv mgl32.Vec2, bump mgl32.Vec3) uint32 {
	m.Vertices = append(m.Vertices, Vertex{
		Position: p,
		Normal:   n,
		Color:    mgl32.Vec3{1, 1, 1},
		Opacity:  1,
		TexPos:   uv,
		BumpAxis: bump,
	})
	return uint32(len(m.Vertices) - 1)
}

func (m *Mesh) addTriangle(a, b, c uint32) {
	m.Indices = append(m.Indices, a, b, c)
}

// flatTriangle adds a triangle with its own three vertices and a face normal.
func (m *Mesh) flatTriangle(a, b, c mgl32.Vec3) {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Len() > 0 {
		n = n.Normalize()
	}
	bump := b.Sub(a)
	if bump.Len() > 0 {
		bump = bump.Normalize()
	}
	i0 := m.addVertex(a, n, mgl32.Vec2{0, 0}, bump)
	i1 := m.addVertex(b, n, mgl32.Vec2{1, 0}, bump)
	i2 := m.addVertex(c, n, mgl32.Vec2{0.5, 1}, bump)
	m.addTriangle(i0, i1, i2)
}

// Box returns a unit cube centered on the origin.
func Box() *Mesh {
	faces := [6][3]mgl32.Vec3{
		{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
		{{0, 1, 0}, {0, 0, 1}, {1, 0, 0}},
		{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
		{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
		{{0, 0, -1}, {0, 1, 0}, {1, 0, 0}},
	}
	m := &Mesh{}
	for _, f := range faces {
		n, u, v := f[0], f[1], f[2]
		c := n.Mul(0.5).Sub(u.Mul(0.5)).Sub(v.Mul(0.5))
		i0 := m.addVertex(c, n, mgl32.Vec2{0, 0}, u)
		i1 := m.addVertex(c.Add(u), n, mgl32.Vec2{1, 0}, u)
		i2 := m.addVertex(c.Add(u).Add(v), n, mgl32.Vec2{1, 1}, u)
		i3 := m.addVertex(c.Add(v), n, mgl32.Vec2{0, 1}, u)
		m.addTriangle(i0, i1, i2)
		m.addTriangle(i0, i2, i3)
	}
	return m
}

// Sphere returns a sphere of unit diameter centered on the origin with its poles on the x axis.
func Sphere() *Mesh {
	m := &Mesh{}
	for i := 0; i <= sphereStacks; i++ {
		theta := math32.Pi * float32(i) / sphereStacks
		st, ct := sincos(theta)
		for j := 0; j <= roundSegments; j++ {
			phi := 2 * math32.Pi * float32(j) / roundSegments
			sp, cp := sincos(phi)
			n := mgl32.Vec3{ct, st * cp, st * sp}
			uv := mgl32.Vec2{float32(j) / roundSegments, float32(i) / sphereStacks}
			m.addVertex(n.Mul(0.5), n, uv, mgl32.Vec3{0, -sp, cp})
		}
	}
	row := uint32(roundSegments + 1)
	for i := range uint32(sphereStacks) {
		for j := range uint32(roundSegments) {
			a := i*row + j
			b := a + row
			m.addTriangle(a, b, a+1)
			m.addTriangle(a+1, b, b+1)
		}
	}
	return m
}

// lathe revolves the profile segment (x0, r0)-(x1, r1) around the x axis.
func (m *Mesh) lathe(x0, r0, x1, r1 float32) {
	nx, nr := -(r1 - r0), x1-x0
	if l := math32.Hypot(nx, nr); l > 0 {
		nx, nr = nx/l, nr/l
	}
	base := uint32(len(m.Vertices))
	for j := 0; j <= roundSegments; j++ {
		a := 2 * math32.Pi * float32(j) / roundSegments
		sa, ca := sincos(a)
		n := mgl32.Vec3{nx, nr * ca, nr * sa}
		bump := mgl32.Vec3{0, -sa, ca}
		u := float32(j) / roundSegments
		m.addVertex(mgl32.Vec3{x0, r0 * ca, r0 * sa}, n, mgl32.Vec2{u, 0}, bump)
		m.addVertex(mgl32.Vec3{x1, r1 * ca, r1 * sa}, n, mgl32.Vec2{u, 1}, bump)
	}
	for j := range uint32(roundSegments) {
		a := base + 2*j
		m.addTriangle(a, a+2, a+1)
		m.addTriangle(a+1, a+2, a+3)
	}
}

// disk adds a flat cap of radius r at x facing along sign.
func (m *Mesh) disk(x, r, sign float32) {
	n := mgl32.Vec3{sign, 0, 0}
	center := m.addVertex(mgl32.Vec3{x, 0, 0}, n, mgl32.Vec2{0.5, 0.5}, mgl32.Vec3{0, 1, 0})
	for j := 0; j <= roundSegments; j++ {
		a := 2 * math32.Pi * float32(j) / roundSegments
		sa, ca := sincos(a)
		m.addVertex(mgl32.Vec3{x, r * ca, r * sa}, n, mgl32.Vec2{0.5 + 0.5*ca, 0.5 + 0.5*sa}, mgl32.Vec3{0, 1, 0})
	}
	for j := range uint32(roundSegments) {
		a, b := center+1+j, center+2+j
		if sign > 0 {
			m.addTriangle(center, a, b)
		} else {
			m.addTriangle(center, b, a)
		}
	}
}

// Cylinder returns a unit-diameter cylinder from x=0 to x=1.
func Cylinder() *Mesh {
	m := &Mesh{}
	m.lathe(0, 0.5, 1, 0.5)
	m.disk(0, 0.5, -1)
	m.disk(1, 0.5, 1)
	return m
}

// Cone returns a cone with a unit-diameter base at x=0 and its apex at x=1.
func Cone() *Mesh {
	m := &Mesh{}
	m.lathe(0, 0.5, 1, 0)
	m.disk(0, 0.5, -1)
	return m
}

// Pyramid returns a pyramid with a unit square base at x=0 and its apex at x=1.
func Pyramid() *Mesh {
	m := &Mesh{}
	apex := mgl32.Vec3{1, 0, 0}
	c := [4]mgl32.Vec3{
		{0, -0.5, -0.5},
		{0, 0.5, -0.5},
		{0, 0.5, 0.5},
		{0, -0.5, 0.5},
	}
	for i := range c {
		m.flatTriangle(c[i], c[(i+1)%4], apex)
	}
	m.flatTriangle(c[0], c[2], c[1])
	m.flatTriangle(c[0], c[3], c[2])
	return m
}

// Arrow returns a box shaft along x in [0, 0.8] topped by a pyramid head reaching x=1.
// The shaft is half as wide as the head.
func Arrow() *Mesh {
	m := &Mesh{}
	shaft := mgl32.Translate3D(arrowShaft/2, 0, 0).Mul4(mgl32.Scale3D(arrowShaft, 0.5, 0.5))
	head := mgl32.Translate3D(arrowShaft, 0, 0).Mul4(mgl32.Scale3D(1-arrowShaft, 1, 1))
	m.Merge(Box(), shaft)
	m.Merge(Pyramid(), head)
	return m
}

// Ring returns a torus around the x axis with a unit outer diameter and a unit
// thickness along x.
func Ring() *Mesh {
	m := &Mesh{}
	for i := 0; i <= roundSegments; i++ {
		a := 2 * math32.Pi * float32(i) / roundSegments
		sa, ca := sincos(a)
		for j := 0; j <= ringTubeSteps; j++ {
			b := 2 * math32.Pi * float32(j) / ringTubeSteps
			sb, cb := sincos(b)
			rho := ringMajor + ringMinor*cb
			p := mgl32.Vec3{0.5 * sb, rho * ca, rho * sa}
			n := mgl32.Vec3{sb / 0.5, cb / ringMinor * ca, cb / ringMinor * sa}.Normalize()
			uv := mgl32.Vec2{float32(i) / roundSegments, float32(j) / ringTubeSteps}
			m.addVertex(p, n, uv, mgl32.Vec3{0, -sa, ca})
		}
	}
	row := uint32(ringTubeSteps + 1)
	for i := range uint32(roundSegments) {
		for j := range uint32(ringTubeSteps) {
			a := i*row + j
			b := a + row
			m.addTriangle(a, b, a+1)
			m.addTriangle(a+1, b, b+1)
		}
	}
	return m
}

func sincos(a float32) (float32, float32) {
	return math32.Sin(a), math32.Cos(a)
}
