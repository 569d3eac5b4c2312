package model

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxyviz/engine/geom"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidMesh is returned by Validate for malformed meshes.
var ErrInvalidMesh = errors.New("model: invalid mesh")

// Vertex is one vertex of a mesh template in local coordinates.
type Vertex struct {
	// Position is the local-space position.
	Position mgl32.Vec3
	// Normal is the local-space normal.
	Normal mgl32.Vec3
	// Color is the linear RGB multiplier applied on top of the primitive color.
	Color mgl32.Vec3
	// Opacity is the per-vertex opacity. A mesh with any vertex below 1 is model-level transparent.
	Opacity float32
	// TexPos is the texture coordinate.
	TexPos mgl32.Vec2
	// BumpAxis is the tangent used to orient bump maps.
	BumpAxis mgl32.Vec3
}

// Mesh is a geometry template: a triangle list over Vertices.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// Bounds returns the local-space bounding box of the mesh.
func (m *Mesh) Bounds() geom.AABB {
	b := geom.Empty()
	for _, v := range m.Vertices {
		b = b.Extend(v.Position)
	}
	return b
}

// Transparent reports whether any vertex has opacity below 1.
func (m *Mesh) Transparent() bool {
	for _, v := range m.Vertices {
		if v.Opacity < 1 {
			return true
		}
	}
	return false
}

// Validate checks the index list against the vertex list.
//
// Returns:
//   - error: ErrInvalidMesh describing the first problem found, or nil
func (m *Mesh) Validate() error {
	if m == nil || len(m.Vertices) == 0 {
		return fmt.Errorf("%w: no vertices", ErrInvalidMesh)
	}
	if len(m.Indices) == 0 || len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: index count %d is not a positive multiple of 3", ErrInvalidMesh, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			return fmt.Errorf("%w: index %d references vertex %d of %d", ErrInvalidMesh, i, idx, len(m.Vertices))
		}
	}
	return nil
}

// Merge appends other into m, transforming positions by xf and normals by its normal matrix.
// Used to assemble compound meshes from several templates.
//
// Parameters:
//   - other: the mesh to append
//   - xf: local transform applied to the appended mesh
func (m *Mesh) Merge(other *Mesh, xf mgl32.Mat4) {
	base := uint32(len(m.Vertices))
	nm := geom.NormalMatrix(xf)
	for _, v := range other.Vertices {
		v.Position = mgl32.TransformCoordinate(v.Position, xf)
		if n := nm.Mul3x1(v.Normal); n.Len() > 0 {
			v.Normal = n.Normalize()
		}
		m.Vertices = append(m.Vertices, v)
	}
	for _, i := range other.Indices {
		m.Indices = append(m.Indices, base+i)
	}
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Vertices: append([]Vertex(nil), m.Vertices...),
		Indices:  append([]uint32(nil), m.Indices...),
	}
}
