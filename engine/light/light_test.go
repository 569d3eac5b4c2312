package light

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShadeAmbientOnly(t *testing.T) {
	c := Shade(nil, mgl32.Vec3{0.2, 0.2, 0.2}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{}, mgl32.Vec3{0, 0, 5}, mgl32.Vec3{1, 0.5, 0}, 0)
	assert.InDelta(t, 0.2, c[0], 1e-6)
	assert.InDelta(t, 0.1, c[1], 1e-6)
	assert.InDelta(t, 0, c[2], 1e-6)
}

func TestShadeLambert(t *testing.T) {
	lights := []Light{NewLight(LightTypeDirectional, WithDirection(0, 0, -1))}
	eye := mgl32.Vec3{0, 0, 5}
	c := Shade(lights, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{}, eye, mgl32.Vec3{1, 0, 0}, 0)
	assert.InDelta(t, 1, c[0], 1e-5)

	// A back face seen from the eye is lit like the front face.
	back := Shade(lights, mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{}, eye, mgl32.Vec3{1, 0, 0}, 0)
	assert.InDelta(t, c[0], back[0], 1e-5)

	tilted := Shade(lights, mgl32.Vec3{}, mgl32.Vec3{0, 1, 1}, mgl32.Vec3{}, eye, mgl32.Vec3{1, 0, 0}, 0)
	assert.InDelta(t, 0.7071, tilted[0], 1e-3)
}

func TestShadeSpecularAndDisabled(t *testing.T) {
	l := NewLight(LightTypeDirectional, WithDirection(0, 0, -1))
	eye := mgl32.Vec3{0, 0, 5}
	c := Shade([]Light{l}, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{}, eye, mgl32.Vec3{}, 0.5)
	assert.InDelta(t, 0.5, c[0], 1e-5)

	l.SetEnabled(false)
	c = Shade([]Light{l}, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{}, eye, mgl32.Vec3{1, 1, 1}, 0.5)
	assert.Equal(t, mgl32.Vec3{}, c)
}

func TestShadePointRange(t *testing.T) {
	l := NewLight(LightTypePoint, WithPosition(0, 0, 2), WithRange(4))
	c := Shade([]Light{l}, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{}, mgl32.Vec3{0, 0, 5}, mgl32.Vec3{1, 1, 1}, 0)
	assert.InDelta(t, 0.5, c[0], 1e-5)

	far := NewLight(LightTypePoint, WithPosition(0, 0, 10), WithRange(4))
	c = Shade([]Light{far}, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{}, mgl32.Vec3{0, 0, 5}, mgl32.Vec3{1, 1, 1}, 0)
	assert.InDelta(t, 0, c[0], 1e-6)
}

func TestDefaultLights(t *testing.T) {
	lights, ambient := DefaultLights()
	require.Len(t, lights, 2)
	assert.Equal(t, mgl32.Vec3{0.2, 0.2, 0.2}, ambient)
	assert.InDelta(t, 1, lights[0].Direction().Len(), 1e-5)
}

func TestMarshalLightBuffer(t *testing.T) {
	lights, ambient := DefaultLights()
	lights[1].SetEnabled(false)
	buf := MarshalLightBuffer(lights, ambient)
	require.Len(t, buf, LightBufferSize())
	assert.Equal(t, byte(1), buf[12])
	assert.Equal(t, 64, (&GPULight{}).Size())
	assert.Equal(t, 16, (&GPULightHeader{}).Size())
	g := ToGPULight(lights[0])
	assert.Len(t, g.Marshal(), 64)
}
