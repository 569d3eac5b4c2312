package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesValidate(t *testing.T) {
	for _, k := range Kinds() {
		rec := k.Record()
		if !rec.Shared {
			assert.Nil(t, Template(k), k.String())
			continue
		}
		m := Template(k)
		require.NotNil(t, m, k.String())
		require.NoError(t, m.Validate(), k.String())
		assert.False(t, m.Transparent(), k.String())
		for _, v := range m.Vertices {
			assert.InDelta(t, 1, v.Normal.Len(), 1e-4, k.String())
		}
	}
}

func TestTemplateBounds(t *testing.T) {
	tests := []struct {
		kind     Kind
		min, max mgl32.Vec3
	}{
		{KindBox, mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0.5, 0.5, 0.5}},
		{KindSphere, mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0.5, 0.5, 0.5}},
		{KindCylinder, mgl32.Vec3{0, -0.5, -0.5}, mgl32.Vec3{1, 0.5, 0.5}},
		{KindCone, mgl32.Vec3{0, -0.5, -0.5}, mgl32.Vec3{1, 0.5, 0.5}},
		{KindPyramid, mgl32.Vec3{0, -0.5, -0.5}, mgl32.Vec3{1, 0.5, 0.5}},
		{KindArrow, mgl32.Vec3{0, -0.5, -0.5}, mgl32.Vec3{1, 0.5, 0.5}},
		{KindRing, mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0.5, 0.5, 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			b := LocalBounds(tt.kind)
			for i := range 3 {
				assert.InDelta(t, tt.min[i], b.Min[i], 1e-4)
				assert.InDelta(t, tt.max[i], b.Max[i], 1e-4)
			}
		})
	}
}

func TestRecords(t *testing.T) {
	assert.True(t, KindTriangle.Record().VertexBacked)
	assert.Equal(t, 4, KindQuad.Record().Vertices)
	assert.True(t, KindCurve.Record().Path)
	assert.Equal(t, KindCylinder, KindCurve.Record().Instance)
	assert.False(t, KindCompound.Record().Shared)
	assert.False(t, Kind(-1).Valid())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestMeshValidate(t *testing.T) {
	var empty *Mesh
	assert.ErrorIs(t, empty.Validate(), ErrInvalidMesh)

	m := &Mesh{Vertices: make([]Vertex, 3), Indices: []uint32{0, 1}}
	assert.ErrorIs(t, m.Validate(), ErrInvalidMesh)

	m.Indices = []uint32{0, 1, 3}
	assert.ErrorIs(t, m.Validate(), ErrInvalidMesh)

	m.Indices = []uint32{0, 1, 2}
	assert.NoError(t, m.Validate())
}

func TestMeshTransparentAndMerge(t *testing.T) {
	m := Box().Clone()
	assert.False(t, m.Transparent())
	m.Vertices[0].Opacity = 0.5
	assert.True(t, m.Transparent())
	assert.False(t, Template(KindBox).Transparent())

	merged := &Mesh{}
	merged.Merge(Box(), mgl32.Translate3D(2, 0, 0))
	b := merged.Bounds()
	assert.InDelta(t, 1.5, b.Min[0], 1e-5)
	assert.InDelta(t, 2.5, b.Max[0], 1e-5)
	assert.Len(t, merged.Indices, 36)
}

func TestGPUVertexMarshal(t *testing.T) {
	g := NewGPUVertex(Vertex{
		Position: mgl32.Vec3{1, 2, 3},
		Color:    mgl32.Vec3{0.5, 0.25, 1},
		Opacity:  0.75,
	})
	assert.Equal(t, 80, g.Size())
	buf := g.Marshal()
	require.Len(t, buf, 80)
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:])))
	assert.Equal(t, float32(0.75), math.Float32frombits(binary.LittleEndian.Uint32(buf[44:])))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[64:])))
}

func TestGPUInstanceMarshal(t *testing.T) {
	g := GPUInstance{Pick: [4]float32{0, 0, 1, 1}}
	assert.Equal(t, 160, g.Size())
	buf := g.Marshal()
	require.Len(t, buf, 160)
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[136:])))

	verts, idx := MarshalMesh(Template(KindBox))
	assert.Len(t, verts, 24*80)
	assert.Len(t, idx, 36*4)
}
