package scene

import (
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxyviz/engine/model"
	"github.com/Carmen-Shannon/oxyviz/engine/texture"
	"github.com/Carmen-Shannon/oxyviz/engine/vertexpool"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScene(t *testing.T) Scene {
	t.Helper()
	return New(WithName(t.Name()), WithTextureLoader(texture.NewLoader(texture.WithFS(fstest.MapFS{}))))
}

func TestDrainIsIdempotent(t *testing.T) {
	s := newTestScene(t)
	h, err := s.Add(model.KindBox)
	require.NoError(t, err)
	s.Drain()

	for i := range 10 {
		require.NoError(t, s.SetPos(h, mgl32.Vec3{float32(i), 0, 0}))
		require.NoError(t, s.SetColor(h, mgl32.Vec3{1, 0, 0}))
		require.NoError(t, s.SetSize(h, mgl32.Vec3{2, 2, 2}))
	}
	c := s.Drain()
	assert.Equal(t, []int32{int32(h)}, c.Objects)
	assert.True(t, s.Drain().Empty())
}

func TestVertexWritePropagatesToSurfaces(t *testing.T) {
	s := newTestScene(t)
	var ids [4]int32
	for i := range ids {
		id, err := s.NewVertex(DefaultVertex())
		require.NoError(t, err)
		ids[i] = id
	}
	tri, err := s.AddTriangle(ids[0], ids[1], ids[2])
	require.NoError(t, err)
	quad, err := s.AddQuad(ids[0], ids[1], ids[2], ids[3])
	require.NoError(t, err)
	other, err := s.Add(model.KindSphere)
	require.NoError(t, err)
	s.Drain()

	require.NoError(t, s.SetVertex(ids[1], vertexpool.ChannelOpacity, 0.5))
	c := s.Drain()
	assert.ElementsMatch(t, []int32{int32(tri), int32(quad)}, c.Objects)
	assert.NotContains(t, c.Objects, int32(other))
	assert.Equal(t, []int32{ids[1]}, c.Vertices)

	require.NoError(t, s.SetVertex(ids[3], vertexpool.ChannelColor, 1, 0, 0))
	assert.Equal(t, []int32{int32(quad)}, s.Drain().Objects)

	v, ok := s.Vertex(ids[1])
	require.True(t, ok)
	assert.Equal(t, float32(0.5), v.Opacity)
}

func TestVisibilityToggleNeverReusesIDs(t *testing.T) {
	s := newTestScene(t)
	h, err := s.Add(model.KindBox)
	require.NoError(t, err)
	o, _ := s.Object(h)
	first := o.ID
	require.NotZero(t, first)

	seen := map[uint32]bool{first: true}
	for range 2 {
		require.NoError(t, s.SetVisible(h, false))
		o, _ = s.Object(h)
		assert.Zero(t, o.ID)
		assert.Empty(t, s.Visible())
		_, _, ok := s.ResolvePick(first)
		assert.False(t, ok)

		require.NoError(t, s.SetVisible(h, true))
		o, _ = s.Object(h)
		assert.False(t, seen[o.ID], "id %d reused", o.ID)
		seen[o.ID] = true
		assert.Equal(t, []Handle{h}, s.Visible())
	}
	got, sub, ok := s.ResolvePick(o.ID)
	assert.True(t, ok)
	assert.Equal(t, h, got)
	assert.Zero(t, sub)
}

func TestCurveReservesIDPerPoint(t *testing.T) {
	s := newTestScene(t)
	box, err := s.Add(model.KindBox)
	require.NoError(t, err)
	pts := []CurvePoint{Point(mgl32.Vec3{0, 0, 0}), Point(mgl32.Vec3{1, 0, 0}), Point(mgl32.Vec3{2, 0, 0})}
	curve, err := s.AddCurve(pts, WithRadius(0.1))
	require.NoError(t, err)
	after, err := s.Add(model.KindSphere)
	require.NoError(t, err)

	o, _ := s.Object(curve)
	assert.Equal(t, uint32(3), o.Span)
	for i := range 3 {
		h, sub, ok := s.ResolvePick(o.ID + uint32(i))
		require.True(t, ok)
		assert.Equal(t, curve, h)
		assert.Equal(t, i, sub)
	}
	a, _ := s.Object(after)
	assert.Equal(t, o.ID+3, a.ID)
	assert.Equal(t, []Handle{box, curve, after}, s.Visible())

	require.NoError(t, s.AppendCurvePoint(curve, Point(mgl32.Vec3{3, 0, 0})))
	o2, _ := s.Object(curve)
	assert.Greater(t, o2.ID, a.ID)
	assert.Equal(t, uint32(4), o2.Span)
	_, _, ok := s.ResolvePick(o.ID)
	assert.False(t, ok)
	assert.Equal(t, []Handle{box, after, curve}, s.Visible())

	assert.InDelta(t, 0.1, o2.PointRadius(0), 1e-6)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, o2.PointColor(0))
}

func TestCurvePointInheritsByDefault(t *testing.T) {
	s := newTestScene(t)
	red := mgl32.Vec3{1, 0, 0}
	override := mgl32.Vec3{0, 0, 1}
	curve, err := s.AddCurve([]CurvePoint{
		{Pos: mgl32.Vec3{0, 0, 0}},
		{Pos: mgl32.Vec3{1, 0, 0}, Color: &override, Radius: 0.2},
		Point(mgl32.Vec3{2, 0, 0}).WithColor(mgl32.Vec3{0, 1, 0}),
	}, WithColor(red), WithRadius(0.1))
	require.NoError(t, err)
	override[2] = 0

	o, _ := s.Object(curve)
	assert.Equal(t, red, o.PointColor(0))
	assert.InDelta(t, 0.1, o.PointRadius(0), 1e-6)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, o.PointColor(1))
	assert.InDelta(t, 0.2, o.PointRadius(1), 1e-6)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, o.PointColor(2))

	*o.Points[1].Color = mgl32.Vec3{}
	again, _ := s.Object(curve)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, again.PointColor(1))
}

func TestCurveGrowthRollsBackWhenIDsExhausted(t *testing.T) {
	s := newTestScene(t)
	curve, err := s.AddCurve([]CurvePoint{Point(mgl32.Vec3{0, 0, 0}), Point(mgl32.Vec3{1, 0, 0})})
	require.NoError(t, err)
	before, _ := s.Object(curve)
	s.(*scene).nextID = MaxID

	check := func(t *testing.T) {
		t.Helper()
		o, _ := s.Object(curve)
		assert.Equal(t, before.Points, o.Points)
		assert.Equal(t, before.ID, o.ID)
		assert.Equal(t, uint32(2), o.Span)
		assert.True(t, o.Visible)
		assert.Equal(t, []Handle{curve}, s.Visible())
		h, sub, ok := s.ResolvePick(before.ID + 1)
		require.True(t, ok)
		assert.Equal(t, curve, h)
		assert.Equal(t, 1, sub)
	}

	err = s.AppendCurvePoint(curve, Point(mgl32.Vec3{2, 0, 0}))
	assert.ErrorIs(t, err, ErrIDsExhausted)
	check(t)

	err = s.SetCurvePoints(curve, []CurvePoint{
		Point(mgl32.Vec3{0, 0, 0}), Point(mgl32.Vec3{1, 0, 0}), Point(mgl32.Vec3{2, 0, 0}),
	})
	assert.ErrorIs(t, err, ErrIDsExhausted)
	check(t)

	require.NoError(t, s.SetCurvePoints(curve, []CurvePoint{Point(mgl32.Vec3{5, 0, 0})}))
	o, _ := s.Object(curve)
	assert.Len(t, o.Points, 1)
	assert.Equal(t, before.ID, o.ID)
}

func TestSurfaceShininessScalesVertices(t *testing.T) {
	s := newTestScene(t)
	a, _ := s.NewVertex(DefaultVertex())
	b, _ := s.NewVertex(DefaultVertex())
	c, _ := s.NewVertex(DefaultVertex())

	tri, err := s.AddTriangle(a, b, c)
	require.NoError(t, err)
	o, _ := s.Object(tri)
	assert.Equal(t, float32(1), o.Shininess)

	require.NoError(t, s.SetShininess(tri, 0.25))
	o, _ = s.Object(tri)
	assert.Equal(t, float32(0.25), o.Shininess)

	quad, err := s.AddQuad(a, b, c, a, WithShininess(0))
	require.NoError(t, err)
	o, _ = s.Object(quad)
	assert.Zero(t, o.Shininess)
}

func TestVertexReferenceErrors(t *testing.T) {
	s := newTestScene(t)
	a, _ := s.NewVertex(DefaultVertex())
	b, _ := s.NewVertex(DefaultVertex())
	c, _ := s.NewVertex(DefaultVertex())
	require.NoError(t, s.DeleteVertex(c))

	_, err := s.AddTriangle(a, b, c)
	assert.ErrorIs(t, err, ErrDeletedVertex)
	_, err = s.AddQuad(a, b, 99, a)
	assert.ErrorIs(t, err, ErrDeletedVertex)

	d, _ := s.NewVertex(DefaultVertex())
	tri, err := s.AddTriangle(a, b, d)
	require.NoError(t, err)
	assert.ErrorIs(t, s.DeleteVertex(d), ErrVertexInUse)

	require.NoError(t, s.Delete(tri))
	assert.NoError(t, s.DeleteVertex(d))
	assert.ErrorIs(t, s.DeleteVertex(d), ErrUnknownVertex)
	assert.ErrorIs(t, s.SetVertex(d, vertexpool.ChannelOpacity, 1), ErrUnknownVertex)
}

func TestKindAndHandleErrors(t *testing.T) {
	s := newTestScene(t)
	_, err := s.Add(model.KindTriangle)
	assert.ErrorIs(t, err, ErrKindMismatch)

	box, err := s.Add(model.KindBox)
	require.NoError(t, err)
	assert.ErrorIs(t, s.SetCurvePoints(box, nil), ErrKindMismatch)
	assert.ErrorIs(t, s.SetMesh(box, model.Box()), ErrKindMismatch)

	require.NoError(t, s.Delete(box))
	assert.ErrorIs(t, s.SetPos(box, mgl32.Vec3{}), ErrUnknownPrimitive)
	assert.ErrorIs(t, s.Delete(box), ErrUnknownPrimitive)
	assert.ErrorIs(t, s.SetOpacity(Handle(42), 1), ErrUnknownPrimitive)
	_, ok := s.Object(box)
	assert.False(t, ok)
	assert.Empty(t, s.Visible())
	assert.Contains(t, s.Drain().Objects, int32(box))
}

func TestCompound(t *testing.T) {
	s := newTestScene(t)
	_, err := s.AddCompound(&model.Mesh{})
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	mesh := model.Box()
	mesh.Vertices[0].Opacity = 0.5
	h, err := s.AddCompound(mesh, WithPos(mgl32.Vec3{1, 2, 3}))
	require.NoError(t, err)
	o, ok := s.Object(h)
	require.True(t, ok)
	assert.True(t, o.Transparent())
	assert.Equal(t, uint64(1), o.MeshVersion)

	require.NoError(t, s.SetMesh(h, model.Sphere()))
	o, _ = s.Object(h)
	assert.False(t, o.Transparent())
	assert.Equal(t, uint64(2), o.MeshVersion)
}

func TestOptionsAndSnapshot(t *testing.T) {
	s := newTestScene(t)
	h, err := s.Add(model.KindCylinder,
		WithPos(mgl32.Vec3{1, 0, 0}),
		WithOpacity(1.5),
		WithShininess(-1),
		WithVisible(false),
		WithPickable(false),
		WithTexture("wood.png"),
	)
	require.NoError(t, err)
	o, _ := s.Object(h)
	assert.Equal(t, float32(1), o.Opacity)
	assert.Equal(t, float32(0), o.Shininess)
	assert.False(t, o.Visible)
	assert.False(t, o.Pickable)
	assert.Zero(t, o.ID)
	assert.Equal(t, model.KindCylinder.Record().DefaultSize, o.Size)
	assert.Equal(t, "wood.png", o.Material.Texture)

	_, requested := s.Textures().Get("wood.png")
	assert.True(t, requested)
}

func TestLightsAndBackground(t *testing.T) {
	s := newTestScene(t)
	assert.Len(t, s.Lights(), 2)
	l := s.Lights()[0]
	s.RemoveLight(l)
	assert.Len(t, s.Lights(), 1)
	s.AddLight(l)
	assert.Len(t, s.Lights(), 2)

	s.SetBackground(mgl32.Vec3{0.1, 0.2, 0.3})
	assert.Equal(t, mgl32.Vec3{0.1, 0.2, 0.3}, s.Background())
	assert.NotEqual(t, s.ID(), New().ID())
	assert.NotNil(t, s.Camera())
}
