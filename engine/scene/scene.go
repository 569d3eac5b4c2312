// Package scene is the explicit session context of a visualization: the primitive
// arena, the vertex pool, the change tracker, the id allocator and the visible table,
// plus the lights, background, camera and texture loader a frame is rendered with.
package scene

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxyviz/common"
	"github.com/Carmen-Shannon/oxyviz/engine/camera"
	"github.com/Carmen-Shannon/oxyviz/engine/change"
	"github.com/Carmen-Shannon/oxyviz/engine/light"
	"github.com/Carmen-Shannon/oxyviz/engine/model"
	"github.com/Carmen-Shannon/oxyviz/engine/texture"
	"github.com/Carmen-Shannon/oxyviz/engine/vertexpool"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxID is the largest render id. Ids are encoded into 24 bits of color for picking.
const MaxID = 1<<24 - 1

var (
	// ErrUnknownPrimitive is returned for handles that were never issued or were deleted.
	ErrUnknownPrimitive = errors.New("scene: unknown primitive")
	// ErrDeletedVertex is returned when a triangle or quad references a released or unknown vertex.
	ErrDeletedVertex = errors.New("scene: reference to deleted vertex")
	// ErrVertexInUse is returned when deleting a vertex still referenced by a triangle or quad.
	ErrVertexInUse = errors.New("scene: vertex in use")
	// ErrUnknownVertex is returned for vertex ids that were never allocated or were released.
	ErrUnknownVertex = errors.New("scene: unknown vertex")
	// ErrKindMismatch is returned when an operation does not apply to a primitive's kind.
	ErrKindMismatch = errors.New("scene: operation not supported by primitive kind")
	// ErrInvalidGeometry is returned for malformed compound meshes.
	ErrInvalidGeometry = errors.New("scene: invalid geometry")
	// ErrIDsExhausted is returned when no encodable render id is left.
	ErrIDsExhausted = errors.New("scene: render ids exhausted")
)

type compound struct {
	mesh    *model.Mesh
	version uint64
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu sync.RWMutex

	id   uuid.UUID
	name string

	objects   []record
	surfaces  map[Handle][]int32
	curves    map[Handle][]CurvePoint
	compounds map[Handle]*compound

	chunkSize int
	pool      *vertexpool.Pool
	tracker   *change.Tracker

	nextID  uint32
	visible []uint32
	byID    map[uint32]Handle

	lights     []light.Light
	ambient    mgl32.Vec3
	background mgl32.Vec3
	cam        camera.Camera
	textures   texture.Loader
}

// Scene owns every piece of per-session state. All mutation goes through its methods,
// each of which marks the affected primitive dirty in the change tracker. A Scene is
// safe for concurrent use, but the render loop expects a single writer per tick.
type Scene interface {
	// ID returns the session id used to correlate log output.
	ID() uuid.UUID

	// Name returns the scene name.
	Name() string

	// Add creates a primitive of a shared-model kind (box, sphere, cylinder, cone,
	// pyramid, arrow, ring).
	//
	// Parameters:
	//   - kind: the primitive kind
	//   - opts: attribute options
	//
	// Returns:
	//   - Handle: the new primitive
	//   - error: ErrKindMismatch for other kinds, ErrIDsExhausted when no id is left
	Add(kind model.Kind, opts ...ObjectOption) (Handle, error)

	// AddTriangle creates a triangle over three vertex-pool vertices.
	//
	// Returns:
	//   - Handle: the new primitive
	//   - error: ErrDeletedVertex when any vertex is released or unknown
	AddTriangle(v0, v1, v2 int32, opts ...ObjectOption) (Handle, error)

	// AddQuad creates a quad over four vertex-pool vertices, drawn as triangles (v0, v1, v2)
	// and (v0, v2, v3).
	//
	// Returns:
	//   - Handle: the new primitive
	//   - error: ErrDeletedVertex when any vertex is released or unknown
	AddQuad(v0, v1, v2, v3 int32, opts ...ObjectOption) (Handle, error)

	// AddCurve creates a polyline through points. A visible curve reserves one id per point.
	AddCurve(points []CurvePoint, opts ...ObjectOption) (Handle, error)

	// AddPoints creates a set of spheres at points. A visible set reserves one id per point.
	AddPoints(points []CurvePoint, opts ...ObjectOption) (Handle, error)

	// AddCompound creates a primitive drawing its own mesh under the pos/axis/up/size frame.
	//
	// Returns:
	//   - Handle: the new primitive
	//   - error: ErrInvalidGeometry when the mesh does not validate
	AddCompound(mesh *model.Mesh, opts ...ObjectOption) (Handle, error)

	// Delete removes a primitive, releasing its id.
	Delete(h Handle) error

	SetPos(h Handle, v mgl32.Vec3) error
	SetAxis(h Handle, v mgl32.Vec3) error
	SetUp(h Handle, v mgl32.Vec3) error
	SetSize(h Handle, v mgl32.Vec3) error
	SetColor(h Handle, c mgl32.Vec3) error
	SetOpacity(h Handle, o float32) error
	SetShininess(h Handle, s float32) error
	SetEmissive(h Handle, e bool) error
	SetTexture(h Handle, name string) error
	SetBumpmap(h Handle, name string) error
	SetPickable(h Handle, p bool) error
	SetRadius(h Handle, r float32) error

	// SetVisible registers or deregisters a primitive. Hiding releases its id; showing
	// assigns a fresh one. Ids are never reused.
	SetVisible(h Handle, v bool) error

	// SetCurvePoints replaces the points of a curve or points primitive.
	SetCurvePoints(h Handle, points []CurvePoint) error

	// AppendCurvePoint adds a point to a curve or points primitive.
	AppendCurvePoint(h Handle, p CurvePoint) error

	// SetMesh replaces the mesh of a compound primitive.
	SetMesh(h Handle, mesh *model.Mesh) error

	// NewVertex allocates a vertex-pool vertex initialized from v.
	NewVertex(v Vertex) (int32, error)

	// SetVertex writes one channel of a vertex. Every triangle and quad using the vertex
	// is dirtied when the tracker is drained.
	SetVertex(id int32, ch vertexpool.Channel, values ...float32) error

	// DeleteVertex releases a vertex that no triangle or quad references.
	DeleteVertex(id int32) error

	// Vertex returns a snapshot of a live vertex.
	Vertex(id int32) (Vertex, bool)

	// Object returns a snapshot of a live primitive.
	Object(h Handle) (Object, bool)

	// Visible returns the visible primitives in id order.
	Visible() []Handle

	// ResolvePick maps a render id to the primitive and the sub-element (point index)
	// it belongs to. Stale and unknown ids report false.
	ResolvePick(id uint32) (Handle, int, bool)

	// Drain returns and clears the dirty primitives and vertices since the last call.
	Drain() change.Changes

	// Vertices returns the vertex pool.
	Vertices() *vertexpool.Pool

	Lights() []light.Light
	AddLight(l light.Light)
	RemoveLight(l light.Light)
	Ambient() mgl32.Vec3
	SetAmbient(c mgl32.Vec3)
	Background() mgl32.Vec3
	SetBackground(c mgl32.Vec3)

	// Camera returns the scene camera.
	Camera() camera.Camera

	// Textures returns the loader texture names are resolved through.
	Textures() texture.Loader
}

var _ Scene = &scene{}

// New creates an empty scene with the default lights, a black background, a default
// camera and a texture loader rooted at the working directory.
//
// Parameters:
//   - options: variadic list of SceneBuilderOption functions to configure the scene
//
// Returns:
//   - Scene: the new scene
func New(options ...SceneBuilderOption) Scene {
	s := &scene{
		id:        uuid.New(),
		surfaces:  make(map[Handle][]int32),
		curves:    make(map[Handle][]CurvePoint),
		compounds: make(map[Handle]*compound),
		tracker:   change.NewTracker(),
		nextID:    1,
		byID:      make(map[uint32]Handle),
	}
	s.lights, s.ambient = light.DefaultLights()
	for _, opt := range options {
		opt(s)
	}
	poolOpts := []vertexpool.PoolBuilderOption{vertexpool.WithMarker(s.tracker)}
	if s.chunkSize > 0 {
		poolOpts = append(poolOpts, vertexpool.WithChunkSize(s.chunkSize))
	}
	s.pool = vertexpool.NewPool(poolOpts...)
	if s.cam == nil {
		s.cam = camera.NewCamera()
	}
	if s.textures == nil {
		s.textures = texture.NewLoader()
	}
	common.Logger().Debug("scene created", zap.Stringer("session", s.id), zap.String("name", s.name))
	return s
}

func (s *scene) ID() uuid.UUID {
	return s.id
}

func (s *scene) Name() string {
	return s.name
}

// get returns the live record for h. Callers hold s.mu.
func (s *scene) get(h Handle) (*record, error) {
	if h < 0 || int(h) >= len(s.objects) || !s.objects[h].alive {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPrimitive, h)
	}
	return &s.objects[h], nil
}

// insert appends r to the arena, registers it when visible and marks it dirty.
func (s *scene) insert(r record, opts []ObjectOption) (Handle, error) {
	for _, opt := range opts {
		opt(&r)
	}
	h := Handle(len(s.objects))
	s.objects = append(s.objects, r)
	if r.visible {
		if err := s.register(h); err != nil {
			s.objects[h].alive = false
			return NoHandle, err
		}
	}
	s.requestTextures(&s.objects[h])
	s.tracker.MarkObject(int32(h))
	return h, nil
}

func (s *scene) requestTextures(r *record) {
	for _, name := range r.mat.Names() {
		s.textures.Request(name)
	}
}

// span returns the number of ids h occupies while visible.
func (s *scene) span(h Handle) uint32 {
	if pts, ok := s.curves[h]; ok {
		return uint32(max(len(pts), 1))
	}
	return 1
}

// register assigns a fresh id range to h and adds it to the visible table.
func (s *scene) register(h Handle) error {
	r := &s.objects[h]
	n := s.span(h)
	if !s.fits(n) {
		return ErrIDsExhausted
	}
	r.id, r.span = s.nextID, n
	r.visible = true
	s.nextID += n
	s.visible = append(s.visible, r.id)
	s.byID[r.id] = h
	return nil
}

// fits reports whether n more ids can be handed out.
func (s *scene) fits(n uint32) bool {
	return uint64(s.nextID)+uint64(n)-1 <= MaxID
}

// unregister releases h's id and removes it from the visible table.
func (s *scene) unregister(h Handle) {
	r := &s.objects[h]
	if r.id != 0 {
		if i, ok := slices.BinarySearch(s.visible, r.id); ok {
			s.visible = slices.Delete(s.visible, i, i+1)
		}
		delete(s.byID, r.id)
	}
	r.id, r.span = 0, 0
	r.visible = false
}

// reregister gives a visible primitive a fresh id range sized for its current span.
// On ErrIDsExhausted the primitive keeps its old range.
func (s *scene) reregister(h Handle) error {
	r := &s.objects[h]
	n := s.span(h)
	if !r.visible || n <= r.span {
		return nil
	}
	if !s.fits(n) {
		return ErrIDsExhausted
	}
	s.unregister(h)
	return s.register(h)
}

func (s *scene) Add(kind model.Kind, opts ...ObjectOption) (Handle, error) {
	if !kind.Record().Shared {
		return NoHandle, fmt.Errorf("%w: Add(%s)", ErrKindMismatch, kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(newRecord(kind), opts)
}

func (s *scene) AddTriangle(v0, v1, v2 int32, opts ...ObjectOption) (Handle, error) {
	return s.addSurface(model.KindTriangle, []int32{v0, v1, v2}, opts)
}

func (s *scene) AddQuad(v0, v1, v2, v3 int32, opts ...ObjectOption) (Handle, error) {
	return s.addSurface(model.KindQuad, []int32{v0, v1, v2, v3}, opts)
}

func (s *scene) addSurface(kind model.Kind, verts []int32, opts []ObjectOption) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range verts {
		if !s.pool.Live(v) {
			return NoHandle, fmt.Errorf("%w: %d", ErrDeletedVertex, v)
		}
	}
	// Surface shininess scales the per-vertex value, so it starts at full strength.
	rec := newRecord(kind)
	rec.shininess = 1
	h, err := s.insert(rec, opts)
	if err != nil {
		return NoHandle, err
	}
	s.surfaces[h] = verts
	for _, v := range verts {
		s.tracker.Depend(v, int32(h))
	}
	return h, nil
}

func (s *scene) AddCurve(points []CurvePoint, opts ...ObjectOption) (Handle, error) {
	return s.addPath(model.KindCurve, points, opts)
}

func (s *scene) AddPoints(points []CurvePoint, opts ...ObjectOption) (Handle, error) {
	return s.addPath(model.KindPoints, points, opts)
}

func (s *scene) addPath(kind model.Kind, points []CurvePoint, opts []ObjectOption) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// The span depends on the point count, so the table entry must exist before registration.
	h := Handle(len(s.objects))
	s.curves[h] = clonePoints(points)
	if _, err := s.insert(newRecord(kind), opts); err != nil {
		delete(s.curves, h)
		return NoHandle, err
	}
	return h, nil
}

func (s *scene) AddCompound(mesh *model.Mesh, opts ...ObjectOption) (Handle, error) {
	if err := mesh.Validate(); err != nil {
		return NoHandle, fmt.Errorf("%w: %w", ErrInvalidGeometry, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h, err := s.insert(newRecord(model.KindCompound), opts)
	if err != nil {
		return NoHandle, err
	}
	s.compounds[h] = &compound{mesh: mesh.Clone(), version: 1}
	return h, nil
}

func (s *scene) Delete(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.get(h)
	if err != nil {
		return err
	}
	s.unregister(h)
	for _, v := range s.surfaces[h] {
		s.tracker.Undepend(v, int32(h))
	}
	delete(s.surfaces, h)
	delete(s.curves, h)
	delete(s.compounds, h)
	r.alive = false
	s.tracker.MarkObject(int32(h))
	return nil
}

// mutate applies fn to the live record for h and marks it dirty.
func (s *scene) mutate(h Handle, fn func(r *record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.get(h)
	if err != nil {
		return err
	}
	if err := fn(r); err != nil {
		return err
	}
	s.tracker.MarkObject(int32(h))
	return nil
}

func (s *scene) SetPos(h Handle, v mgl32.Vec3) error {
	return s.mutate(h, func(r *record) error { r.pos = v; return nil })
}

func (s *scene) SetAxis(h Handle, v mgl32.Vec3) error {
	return s.mutate(h, func(r *record) error { r.axis = v; return nil })
}

func (s *scene) SetUp(h Handle, v mgl32.Vec3) error {
	return s.mutate(h, func(r *record) error { r.up = v; return nil })
}

func (s *scene) SetSize(h Handle, v mgl32.Vec3) error {
	return s.mutate(h, func(r *record) error { r.size = v; return nil })
}

func (s *scene) SetColor(h Handle, c mgl32.Vec3) error {
	return s.mutate(h, func(r *record) error { r.color = c; return nil })
}

func (s *scene) SetOpacity(h Handle, o float32) error {
	return s.mutate(h, func(r *record) error { r.opacity = clamp01(o); return nil })
}

func (s *scene) SetShininess(h Handle, v float32) error {
	return s.mutate(h, func(r *record) error { r.shininess = clamp01(v); return nil })
}

func (s *scene) SetEmissive(h Handle, e bool) error {
	return s.mutate(h, func(r *record) error { r.emissive = e; return nil })
}

func (s *scene) SetTexture(h Handle, name string) error {
	return s.mutate(h, func(r *record) error {
		r.mat.Texture = name
		s.requestTextures(r)
		return nil
	})
}

func (s *scene) SetBumpmap(h Handle, name string) error {
	return s.mutate(h, func(r *record) error {
		r.mat.Bumpmap = name
		s.requestTextures(r)
		return nil
	})
}

func (s *scene) SetPickable(h Handle, p bool) error {
	return s.mutate(h, func(r *record) error { r.pickable = p; return nil })
}

func (s *scene) SetRadius(h Handle, radius float32) error {
	return s.mutate(h, func(r *record) error {
		if !r.kind.Record().Path {
			return fmt.Errorf("%w: SetRadius(%s)", ErrKindMismatch, r.kind)
		}
		if radius > 0 {
			r.radius = radius
		}
		return nil
	})
}

func (s *scene) SetVisible(h Handle, v bool) error {
	return s.mutate(h, func(r *record) error {
		if r.visible == v {
			return nil
		}
		if !v {
			s.unregister(h)
			return nil
		}
		return s.register(h)
	})
}

func (s *scene) SetCurvePoints(h Handle, points []CurvePoint) error {
	return s.mutate(h, func(r *record) error {
		if !r.kind.Record().Path {
			return fmt.Errorf("%w: SetCurvePoints(%s)", ErrKindMismatch, r.kind)
		}
		prev := s.curves[h]
		s.curves[h] = clonePoints(points)
		if err := s.reregister(h); err != nil {
			s.curves[h] = prev
			return err
		}
		return nil
	})
}

func (s *scene) AppendCurvePoint(h Handle, p CurvePoint) error {
	return s.mutate(h, func(r *record) error {
		if !r.kind.Record().Path {
			return fmt.Errorf("%w: AppendCurvePoint(%s)", ErrKindMismatch, r.kind)
		}
		prev := s.curves[h]
		s.curves[h] = append(prev, clonePoints([]CurvePoint{p})...)
		if err := s.reregister(h); err != nil {
			s.curves[h] = prev
			return err
		}
		return nil
	})
}

func (s *scene) SetMesh(h Handle, mesh *model.Mesh) error {
	if err := mesh.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidGeometry, err)
	}
	return s.mutate(h, func(r *record) error {
		c, ok := s.compounds[h]
		if !ok {
			return fmt.Errorf("%w: SetMesh(%s)", ErrKindMismatch, r.kind)
		}
		c.mesh = mesh.Clone()
		c.version++
		return nil
	})
}

func (s *scene) Object(h Handle) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.get(h)
	if err != nil {
		return Object{}, false
	}
	o := Object{
		Handle:    h,
		Kind:      r.kind,
		ID:        r.id,
		Span:      r.span,
		Pos:       r.pos,
		Axis:      r.axis,
		Up:        r.up,
		Size:      r.size,
		Color:     r.color,
		Opacity:   r.opacity,
		Shininess: r.shininess,
		Emissive:  r.emissive,
		Material:  r.mat,
		Visible:   r.visible,
		Pickable:  r.pickable,
		Radius:    r.radius,
	}
	if v, ok := s.surfaces[h]; ok {
		o.Vertices = slices.Clone(v)
	}
	if pts, ok := s.curves[h]; ok {
		o.Points = clonePoints(pts)
	}
	if c, ok := s.compounds[h]; ok {
		o.Mesh, o.MeshVersion = c.mesh, c.version
	}
	return o, true
}

func (s *scene) Visible() []Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Handle, len(s.visible))
	for i, id := range s.visible {
		out[i] = s.byID[id]
	}
	return out
}

func (s *scene) ResolvePick(id uint32) (Handle, int, bool) {
	if id == 0 {
		return NoHandle, 0, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := sort.Search(len(s.visible), func(i int) bool { return s.visible[i] > id }) - 1
	if i < 0 {
		return NoHandle, 0, false
	}
	base := s.visible[i]
	h := s.byID[base]
	if id-base >= s.objects[h].span {
		return NoHandle, 0, false
	}
	return h, int(id - base), true
}

func (s *scene) Drain() change.Changes {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Drain()
}

func (s *scene) Vertices() *vertexpool.Pool {
	return s.pool
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lights)
}

func (s *scene) AddLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = append(s.lights, l)
}

func (s *scene) RemoveLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = slices.DeleteFunc(s.lights, func(x light.Light) bool { return x == l })
}

func (s *scene) Ambient() mgl32.Vec3 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ambient
}

func (s *scene) SetAmbient(c mgl32.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ambient = c
}

func (s *scene) Background() mgl32.Vec3 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.background
}

func (s *scene) SetBackground(c mgl32.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.background = c
}

func (s *scene) Camera() camera.Camera {
	return s.cam
}

func (s *scene) Textures() texture.Loader {
	return s.textures
}
