package bucket

import (
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxyviz/engine/model"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/material"
	"github.com/Carmen-Shannon/oxyviz/engine/scene"
	"github.com/Carmen-Shannon/oxyviz/engine/texture"
	"github.com/Carmen-Shannon/oxyviz/engine/vertexpool"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScene(t *testing.T) scene.Scene {
	t.Helper()
	return scene.New(scene.WithName(t.Name()), scene.WithTextureLoader(texture.NewLoader(texture.WithFS(fstest.MapFS{}))))
}

func TestOpaqueAndTransparentSplit(t *testing.T) {
	sc := newTestScene(t)
	a, err := sc.Add(model.KindBox)
	require.NoError(t, err)
	b, err := sc.Add(model.KindSphere)
	require.NoError(t, err)
	c, err := sc.Add(model.KindBox, scene.WithOpacity(0.5))
	require.NoError(t, err)

	bs := Sort(sc, nil)
	require.Len(t, bs.Opaque, 1)
	require.Len(t, bs.Transparent, 1)
	assert.True(t, bs.HasTransparent())

	op := bs.Opaque[0]
	assert.Equal(t, []Batch{
		{Model: "box", Handles: []scene.Handle{a}},
		{Model: "sphere", Handles: []scene.Handle{b}},
	}, op.Batches)
	assert.Equal(t, []scene.Handle{c}, bs.Transparent[0].Batches[0].Handles)
	assert.Equal(t, []*Bucket{op, bs.Transparent[0]}, bs.All())
}

func TestMaterialsSeparateBuckets(t *testing.T) {
	sc := newTestScene(t)
	_, err := sc.Add(model.KindBox)
	require.NoError(t, err)
	_, err = sc.Add(model.KindBox, scene.WithTexture("wood.png"))
	require.NoError(t, err)
	_, err = sc.Add(model.KindBox, scene.WithTexture("wood.png"), scene.WithBumpmap("rough.png"))
	require.NoError(t, err)

	bs := Sort(sc, func(material.Material) bool { return true })
	require.Len(t, bs.Opaque, 3)
	classes := map[material.Class]bool{}
	for _, b := range bs.Opaque {
		classes[b.Material.Class()] = true
	}
	assert.Len(t, classes, 3)
}

func TestNotReadyTexturesAreSkipped(t *testing.T) {
	sc := newTestScene(t)
	_, err := sc.Add(model.KindBox)
	require.NoError(t, err)
	_, err = sc.Add(model.KindSphere, scene.WithTexture("wood.png"))
	require.NoError(t, err)

	bs := Sort(sc, func(material.Material) bool { return false })
	assert.Len(t, bs.Opaque, 1)
	require.Len(t, bs.Skipped, 1)
	assert.Equal(t, "wood.png", bs.Skipped[0].Texture)
}

func TestSurfacesUseLiveVertexOpacity(t *testing.T) {
	sc := newTestScene(t)
	var ids [4]int32
	for i := range ids {
		id, err := sc.NewVertex(scene.DefaultVertex())
		require.NoError(t, err)
		ids[i] = id
	}
	tri, err := sc.AddTriangle(ids[0], ids[1], ids[2])
	require.NoError(t, err)
	quad, err := sc.AddQuad(ids[0], ids[1], ids[2], ids[3])
	require.NoError(t, err)

	bs := Sort(sc, nil)
	require.Len(t, bs.Opaque, 1)
	assert.Equal(t, []scene.Handle{tri, quad}, bs.Opaque[0].Surfaces)
	assert.Equal(t, []uint32{
		uint32(ids[0]), uint32(ids[1]), uint32(ids[2]),
		uint32(ids[0]), uint32(ids[1]), uint32(ids[2]),
		uint32(ids[0]), uint32(ids[2]), uint32(ids[3]),
	}, bs.Opaque[0].Indices)

	require.NoError(t, sc.SetVertex(ids[3], vertexpool.ChannelOpacity, 0.4))
	bs = Sort(sc, nil)
	require.Len(t, bs.Opaque, 1)
	require.Len(t, bs.Transparent, 1)
	assert.Equal(t, []scene.Handle{tri}, bs.Opaque[0].Surfaces)
	assert.Equal(t, []scene.Handle{quad}, bs.Transparent[0].Surfaces)
}

func TestHiddenPrimitivesLeaveBuckets(t *testing.T) {
	sc := newTestScene(t)
	a, err := sc.Add(model.KindBox)
	require.NoError(t, err)
	b, err := sc.Add(model.KindBox)
	require.NoError(t, err)

	require.NoError(t, sc.SetVisible(a, false))
	bs := Sort(sc, nil)
	require.Len(t, bs.Opaque, 1)
	assert.Equal(t, []scene.Handle{b}, bs.Opaque[0].Batches[0].Handles)

	require.NoError(t, sc.SetVisible(b, false))
	assert.Zero(t, Sort(sc, nil).Len())
}

func TestModelKeys(t *testing.T) {
	sc := newTestScene(t)
	curve, err := sc.AddCurve([]scene.CurvePoint{scene.Point(mgl32.Vec3{}), scene.Point(mgl32.Vec3{1, 0, 0})})
	require.NoError(t, err)
	pts, err := sc.AddPoints([]scene.CurvePoint{scene.Point(mgl32.Vec3{})})
	require.NoError(t, err)
	cmp, err := sc.AddCompound(model.Template(model.KindBox))
	require.NoError(t, err)

	co, _ := sc.Object(curve)
	po, _ := sc.Object(pts)
	mo, _ := sc.Object(cmp)
	assert.Equal(t, "cylinder", ModelKey(&co))
	assert.Equal(t, "sphere", ModelKey(&po))
	assert.True(t, IsCompoundKey(ModelKey(&mo)))

	require.NoError(t, sc.SetMesh(cmp, model.Template(model.KindSphere)))
	mo2, _ := sc.Object(cmp)
	assert.NotEqual(t, ModelKey(&mo), ModelKey(&mo2))
}
