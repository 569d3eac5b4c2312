// Package extent computes the bounding volume of the visible scene and the view range
// needed to keep it on screen, reusing per-object bounds for objects that did not change.
package extent

import (
	"github.com/Carmen-Shannon/oxyviz/engine/geom"
	"github.com/Carmen-Shannon/oxyviz/engine/model"
	"github.com/Carmen-Shannon/oxyviz/engine/scene"
	"github.com/Carmen-Shannon/oxyviz/engine/vertexpool"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultHysteresis is the factor the required range must move by before it is adopted.
const DefaultHysteresis = 3

// Result is one autoscale computation.
type Result struct {
	// Range is the adopted view range.
	Range float32
	// Required is the range the current bounds actually need.
	Required float32
	// Bounds is the world-space box around every visible primitive.
	Bounds geom.AABB
	// ZMin and ZMax are the depth extrema of Bounds measured from the camera center
	// along the camera forward direction.
	ZMin, ZMax float32
}

// Engine is the incremental extent computer. It is not safe for concurrent use.
type Engine struct {
	hysteresis float32

	cache map[scene.Handle]geom.AABB

	last    Result
	has     bool
	center  mgl32.Vec3
	forward mgl32.Vec3
}

// New creates an extent Engine.
//
// Parameters:
//   - options: variadic list of EngineBuilderOption functions
//
// Returns:
//   - *Engine: the engine
func New(options ...EngineBuilderOption) *Engine {
	e := &Engine{
		hysteresis: DefaultHysteresis,
		cache:      make(map[scene.Handle]geom.AABB),
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Reset forgets cached bounds and the last adopted range.
func (e *Engine) Reset() {
	clear(e.cache)
	e.last, e.has = Result{}, false
}

// Last returns the most recent result.
func (e *Engine) Last() (Result, bool) {
	return e.last, e.has
}

// Compute walks the visible primitives of sc and returns the extent of the scene.
// Bounds of primitives absent from dirty are taken from the cache. With no dirty
// primitive and an unmoved camera the previous result is returned as is. With no
// visible primitive the previous range is kept.
//
// Parameters:
//   - sc: the scene
//   - dirty: the primitives changed since the previous call
//
// Returns:
//   - Result: the extent
//   - bool: false while no extent has ever been computed
func (e *Engine) Compute(sc scene.Scene, dirty []scene.Handle) (Result, bool) {
	cam := sc.Camera()
	center, forward := cam.Center(), cam.Forward()
	if e.has && len(dirty) == 0 && center == e.center && forward == e.forward {
		return e.last, true
	}

	for _, h := range dirty {
		delete(e.cache, h)
	}

	bounds := geom.Empty()
	for _, h := range sc.Visible() {
		b, ok := e.cache[h]
		if !ok {
			o, live := sc.Object(h)
			if !live {
				continue
			}
			b = ObjectBounds(sc.Vertices(), &o)
			e.cache[h] = b
		}
		if !b.IsEmpty() {
			bounds = bounds.Union(b)
		}
	}
	if bounds.IsEmpty() {
		return e.last, e.has
	}

	res := Result{Bounds: bounds, ZMin: 0, ZMax: 0}
	first := true
	for _, c := range bounds.Corners() {
		d := c.Sub(center)
		res.Required = max(res.Required, d.Len())
		z := d.Dot(forward)
		if first {
			res.ZMin, res.ZMax = z, z
			first = false
			continue
		}
		res.ZMin, res.ZMax = min(res.ZMin, z), max(res.ZMax, z)
	}
	if res.Required <= 0 {
		res.Required = e.last.Range
		if !e.has {
			res.Required = 1
		}
	}

	res.Range = e.last.Range
	if !e.has || res.Required > e.hysteresis*e.last.Range || res.Required*e.hysteresis < e.last.Range {
		res.Range = res.Required
	}

	e.last, e.has = res, true
	e.center, e.forward = center, forward
	return res, true
}

// ObjectBounds computes the world-space bounds of one primitive.
// Shared and compound kinds map their local bounds through the pos/axis/up/size frame;
// a non-orthogonal or degenerate axis/up pair falls back to a deterministic basis.
// Triangles and quads use live vertex positions. Curves and points use the union of
// their point spheres.
//
// Parameters:
//   - pool: the vertex pool backing triangles and quads
//   - o: the primitive snapshot
//
// Returns:
//   - geom.AABB: the world-space bounds, empty for primitives without geometry
func ObjectBounds(pool *vertexpool.Pool, o *scene.Object) geom.AABB {
	rec := o.Kind.Record()
	switch {
	case rec.Shared:
		return model.LocalBounds(o.Kind).Transform(geom.ModelMatrix(o.Pos, o.Axis, o.Up, o.Size))
	case o.Kind == model.KindCompound && o.Mesh != nil:
		return o.Mesh.Bounds().Transform(geom.ModelMatrix(o.Pos, o.Axis, o.Up, o.Size))
	case rec.VertexBacked:
		b := geom.Empty()
		for _, v := range o.Vertices {
			if p := pool.Read(v, vertexpool.ChannelPosition); p != nil {
				b = b.Extend(mgl32.Vec3{p[0], p[1], p[2]})
			}
		}
		return b
	case rec.Path:
		b := geom.Empty()
		for i, p := range o.Points {
			r := o.PointRadius(i)
			b = b.Union(geom.AABB{Min: p.Pos, Max: p.Pos}.Pad(r))
		}
		return b
	}
	return geom.Empty()
}
