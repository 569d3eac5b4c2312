// Package model defines the closed set of primitive kinds, their per-kind records
// and the mesh templates GPU models are built from.
package model

import (
	"sync"

	"github.com/Carmen-Shannon/oxyviz/engine/geom"
	"github.com/go-gl/mathgl/mgl32"
)

// Kind is the closed enumeration of primitive variants.
type Kind int

const (
	// KindBox is a unit cube centered on pos.
	KindBox Kind = iota
	// KindSphere is an ellipsoid of unit diameter centered on pos.
	KindSphere
	// KindCylinder extends from pos along axis.
	KindCylinder
	// KindCone extends from its base at pos to its apex along axis.
	KindCone
	// KindPyramid extends from its square base at pos to its apex along axis.
	KindPyramid
	// KindArrow extends from its tail at pos to its tip along axis.
	KindArrow
	// KindRing is a torus around axis centered on pos.
	KindRing
	// KindCurve is a polyline of radius-carrying points, drawn as cylinder segments.
	KindCurve
	// KindPoints is a set of points drawn as spheres.
	KindPoints
	// KindTriangle references three vertex-pool vertices.
	KindTriangle
	// KindQuad references four vertex-pool vertices.
	KindQuad
	// KindCompound owns a per-object mesh.
	KindCompound

	kindCount
)

// KindRecord is the per-kind behavior table entry.
type KindRecord struct {
	// Name is the kind's model key for shared geometry.
	Name string
	// Mesh builds the kind's shared template; nil for kinds without one.
	Mesh func() *Mesh
	// DefaultSize is the size given to new primitives of the kind.
	DefaultSize mgl32.Vec3
	// Shared kinds draw as instances of one static model per kind.
	Shared bool
	// VertexBacked kinds draw indexed triangles out of the shared vertex pool.
	VertexBacked bool
	// Vertices is the number of vertex-pool references for vertex-backed kinds.
	Vertices int
	// Path kinds expand into one instance of Instance's model per point or segment.
	Path bool
	// Instance is the shared kind a path kind draws with.
	Instance Kind
}

var records = [kindCount]KindRecord{
	KindBox:      {Name: "box", Mesh: Box, DefaultSize: mgl32.Vec3{1, 1, 1}, Shared: true},
	KindSphere:   {Name: "sphere", Mesh: Sphere, DefaultSize: mgl32.Vec3{2, 2, 2}, Shared: true},
	KindCylinder: {Name: "cylinder", Mesh: Cylinder, DefaultSize: mgl32.Vec3{1, 2, 2}, Shared: true},
	KindCone:     {Name: "cone", Mesh: Cone, DefaultSize: mgl32.Vec3{1, 2, 2}, Shared: true},
	KindPyramid:  {Name: "pyramid", Mesh: Pyramid, DefaultSize: mgl32.Vec3{1, 1, 1}, Shared: true},
	KindArrow:    {Name: "arrow", Mesh: Arrow, DefaultSize: mgl32.Vec3{1, 0.2, 0.2}, Shared: true},
	KindRing:     {Name: "ring", Mesh: Ring, DefaultSize: mgl32.Vec3{0.2, 2.2, 2.2}, Shared: true},
	KindCurve:    {Name: "curve", DefaultSize: mgl32.Vec3{1, 1, 1}, Path: true, Instance: KindCylinder},
	KindPoints:   {Name: "points", DefaultSize: mgl32.Vec3{1, 1, 1}, Path: true, Instance: KindSphere},
	KindTriangle: {Name: "triangle", DefaultSize: mgl32.Vec3{1, 1, 1}, VertexBacked: true, Vertices: 3},
	KindQuad:     {Name: "quad", DefaultSize: mgl32.Vec3{1, 1, 1}, VertexBacked: true, Vertices: 4},
	KindCompound: {Name: "compound", DefaultSize: mgl32.Vec3{1, 1, 1}},
}

// Record returns the behavior table entry for k.
func (k Kind) Record() KindRecord {
	if !k.Valid() {
		return KindRecord{Name: "unknown"}
	}
	return records[k]
}

// Valid reports whether k is a member of the enumeration.
func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

func (k Kind) String() string {
	return k.Record().Name
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, kindCount)
	for k := range kindCount {
		out[k] = k
	}
	return out
}

var (
	templatesMu sync.Mutex
	templates   = map[Kind]*Mesh{}
)

// Template returns the cached shared mesh for k, or nil for kinds without one.
// The returned mesh must not be modified.
func Template(k Kind) *Mesh {
	rec := k.Record()
	if rec.Mesh == nil {
		return nil
	}
	templatesMu.Lock()
	defer templatesMu.Unlock()
	m, ok := templates[k]
	if !ok {
		m = rec.Mesh()
		templates[k] = m
	}
	return m
}

// LocalBounds returns the local-space bounds of a shared kind's template.
// Kinds without a template report an empty box.
func LocalBounds(k Kind) geom.AABB {
	if m := Template(k); m != nil {
		return m.Bounds()
	}
	return geom.Empty()
}
