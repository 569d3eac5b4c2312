package picking

import (
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxyviz/engine/model"
	"github.com/Carmen-Shannon/oxyviz/engine/scene"
	"github.com/Carmen-Shannon/oxyviz/engine/texture"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	for _, id := range []uint32{1, 2, 255, 256, 65535, 65536, 1 << 20, MaxID - 1, MaxID} {
		got, ok := Decode(Encode(id))
		require.True(t, ok, "id %d", id)
		assert.Equal(t, id, got)

		got, ok = DecodeFloat(EncodeFloat(id))
		require.True(t, ok, "id %d", id)
		assert.Equal(t, id, got)
	}
}

func TestNothing(t *testing.T) {
	tests := []struct {
		name string
		c    [4]uint8
	}{
		{"clear", [4]uint8{}},
		{"zero alpha", [4]uint8{1, 2, 3, 0}},
		{"zero id", [4]uint8{0, 0, 0, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Decode(tt.c)
			assert.False(t, ok)
		})
	}
	assert.Equal(t, [4]uint8{}, Encode(0))
	assert.Equal(t, [4]uint8{}, Encode(MaxID+1))
}

func TestResolve(t *testing.T) {
	sc := scene.New(scene.WithTextureLoader(texture.NewLoader(texture.WithFS(fstest.MapFS{}))))
	box, err := sc.Add(model.KindBox)
	require.NoError(t, err)
	curve, err := sc.AddCurve([]scene.CurvePoint{
		scene.Point(mgl32.Vec3{0, 0, 0}),
		scene.Point(mgl32.Vec3{1, 0, 0}),
		scene.Point(mgl32.Vec3{2, 0, 0}),
	})
	require.NoError(t, err)

	bo, _ := sc.Object(box)
	hit, ok := Resolve(sc, Encode(bo.ID))
	require.True(t, ok)
	assert.Equal(t, Hit{Handle: box, ID: bo.ID}, hit)

	co, _ := sc.Object(curve)
	hit, ok = Resolve(sc, Encode(co.ID+2))
	require.True(t, ok)
	assert.Equal(t, curve, hit.Handle)
	assert.Equal(t, 2, hit.Sub)

	require.NoError(t, sc.SetVisible(box, false))
	_, ok = Resolve(sc, Encode(bo.ID))
	assert.False(t, ok)
}
