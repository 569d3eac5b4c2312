package scene

import (
	"slices"

	"github.com/Carmen-Shannon/oxyviz/engine/model"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// Handle is the arena index of a primitive. It is stable for the primitive's lifetime
// and distinct from the render id, which changes on every visibility toggle.
type Handle int32

// NoHandle is the zero-value sentinel for "no primitive".
const NoHandle Handle = -1

// DefaultCurveRadius is the radius of curve and points primitives created without one.
const DefaultCurveRadius = 0.05

// CurvePoint is one point of a curve or points primitive, in world coordinates.
// The zero value of every field other than Pos inherits from the primitive.
type CurvePoint struct {
	Pos mgl32.Vec3
	// Color overrides the primitive color when set.
	Color *mgl32.Vec3
	// Radius overrides the primitive radius when positive.
	Radius float32
}

// Point returns a curve point at pos that inherits color and radius from its primitive.
func Point(pos mgl32.Vec3) CurvePoint {
	return CurvePoint{Pos: pos}
}

// WithColor returns a copy of p that overrides the primitive color with c.
func (p CurvePoint) WithColor(c mgl32.Vec3) CurvePoint {
	p.Color = &c
	return p
}

// clonePoints copies points so the scene never shares a color override with its caller.
func clonePoints(points []CurvePoint) []CurvePoint {
	out := slices.Clone(points)
	for i, p := range out {
		if p.Color != nil {
			out[i] = p.WithColor(*p.Color)
		}
	}
	return out
}

// Object is a read-only snapshot of a primitive.
type Object struct {
	Handle Handle
	Kind   model.Kind
	// ID is the render/pick id, or 0 while the primitive is invisible.
	ID uint32
	// Span is the number of consecutive ids the primitive reserves.
	Span uint32

	Pos, Axis, Up, Size mgl32.Vec3
	Color               mgl32.Vec3
	Opacity             float32
	Shininess           float32
	Emissive            bool
	Material            material.Material
	Visible             bool
	Pickable            bool

	// Vertices holds the vertex-pool ids of a triangle or quad.
	Vertices []int32
	// Points and Radius describe a curve or points primitive.
	Points []CurvePoint
	Radius float32
	// Mesh is the per-object mesh of a compound. It must not be modified.
	Mesh *model.Mesh
	// MeshVersion changes whenever the compound mesh is replaced.
	MeshVersion uint64
}

// PointColor returns the effective color of point i.
func (o *Object) PointColor(i int) mgl32.Vec3 {
	if c := o.Points[i].Color; c != nil {
		return *c
	}
	return o.Color
}

// PointRadius returns the effective radius of point i.
func (o *Object) PointRadius(i int) float32 {
	if r := o.Points[i].Radius; r > 0 {
		return r
	}
	return o.Radius
}

// Transparent reports whether the primitive's own opacity or its compound mesh makes
// it transparent. Vertex-backed primitives also depend on live vertex opacity, which
// the snapshot does not capture.
func (o *Object) Transparent() bool {
	if o.Opacity < 1 {
		return true
	}
	return o.Mesh != nil && o.Mesh.Transparent()
}

// record is the arena entry behind a Handle.
type record struct {
	alive bool
	kind  model.Kind
	id    uint32
	span  uint32

	pos, axis, up, size mgl32.Vec3
	color               mgl32.Vec3
	opacity             float32
	shininess           float32
	emissive            bool
	mat                 material.Material
	visible             bool
	pickable            bool
	radius              float32
}

func newRecord(kind model.Kind) record {
	return record{
		alive:     true,
		kind:      kind,
		axis:      mgl32.Vec3{1, 0, 0},
		up:        mgl32.Vec3{0, 1, 0},
		size:      kind.Record().DefaultSize,
		color:     mgl32.Vec3{1, 1, 1},
		opacity:   1,
		shininess: 0.6,
		visible:   true,
		pickable:  true,
		radius:    DefaultCurveRadius,
	}
}

// ObjectOption is a functional option applied to a new primitive.
type ObjectOption func(*record)

// WithPos sets the position.
func WithPos(p mgl32.Vec3) ObjectOption {
	return func(r *record) { r.pos = p }
}

// WithAxis sets the orientation axis.
func WithAxis(a mgl32.Vec3) ObjectOption {
	return func(r *record) { r.axis = a }
}

// WithUp sets the up vector.
func WithUp(u mgl32.Vec3) ObjectOption {
	return func(r *record) { r.up = u }
}

// WithSize sets the non-uniform size along local x, y, z.
func WithSize(s mgl32.Vec3) ObjectOption {
	return func(r *record) { r.size = s }
}

// WithColor sets the linear RGB color.
func WithColor(c mgl32.Vec3) ObjectOption {
	return func(r *record) { r.color = c }
}

// WithOpacity sets the opacity, clamped to [0, 1].
func WithOpacity(o float32) ObjectOption {
	return func(r *record) { r.opacity = clamp01(o) }
}

// WithShininess sets the specular strength, clamped to [0, 1].
func WithShininess(s float32) ObjectOption {
	return func(r *record) { r.shininess = clamp01(s) }
}

// WithEmissive sets whether the primitive ignores lighting.
func WithEmissive(e bool) ObjectOption {
	return func(r *record) { r.emissive = e }
}

// WithTexture sets the color texture name.
func WithTexture(name string) ObjectOption {
	return func(r *record) { r.mat.Texture = name }
}

// WithBumpmap sets the bump-map texture name.
func WithBumpmap(name string) ObjectOption {
	return func(r *record) { r.mat.Bumpmap = name }
}

// WithVisible sets the initial visibility. Invisible primitives get no id.
func WithVisible(v bool) ObjectOption {
	return func(r *record) { r.visible = v }
}

// WithPickable sets whether the primitive takes part in picking.
func WithPickable(p bool) ObjectOption {
	return func(r *record) { r.pickable = p }
}

// WithRadius sets the default point radius of a curve or points primitive.
func WithRadius(radius float32) ObjectOption {
	return func(r *record) {
		if radius > 0 {
			r.radius = radius
		}
	}
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}
