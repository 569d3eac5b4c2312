package backend

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestDepthRoundTrip(t *testing.T) {
	for _, z := range []float32{0, 1e-7, 0.001, 0.25, 0.5, 0.75, 0.999999, 1} {
		k := DepthKey(z)
		assert.Equal(t, k, DecodeDepth(EncodeDepth(z)), "z=%v", z)
		assert.InDelta(t, z, DepthFloat(k), 1.0/depthScale, "z=%v", z)
	}
	assert.Equal(t, uint32(0), DepthKey(1))
	assert.Equal(t, uint32(depthScale), DepthKey(0))
	assert.Equal(t, uint32(0), DepthKey(2))
}

func TestDepthKeyOrdersNearFirst(t *testing.T) {
	assert.Greater(t, DepthKey(0.2), DepthKey(0.3))
	assert.Equal(t, uint8(255), EncodeDepth(0.3)[3])
}

func TestPeelKeep(t *testing.T) {
	tests := []struct {
		name        string
		k, d0, prev uint32
		layer       int
		want        bool
	}{
		{"behind opaque", 10, 20, 0, 1, false},
		{"at opaque", 20, 20, 0, 1, false},
		{"first layer in front", 30, 20, 0, 1, true},
		{"second layer behind first", 25, 20, 30, 2, true},
		{"second layer at first", 30, 20, 30, 2, false},
		{"second layer in front of first", 40, 20, 30, 2, false},
		{"empty previous layer", 25, 20, 0, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PeelKeep(tt.k, tt.d0, tt.prev, tt.layer))
		})
	}
}

func TestComposite(t *testing.T) {
	red := [4]float32{1, 0, 0, 1}
	blue := [4]float32{0, 0, 1, 0.5}
	got := Composite(red, blue)
	assert.InDeltaSlice(t, []float32{0.5, 0, 0.5, 1}, got[:], 1e-6)

	// nearer layer first
	green := [4]float32{0, 1, 0, 0.5}
	got = Composite(red, green, blue)
	assert.InDeltaSlice(t, []float32{0.25, 0.5, 0.25, 1}, got[:], 1e-6)

	// empty layers leave the base untouched
	got = Composite(red, [4]float32{}, [4]float32{})
	assert.Equal(t, red, got)
}

func TestTargets(t *testing.T) {
	assert.Equal(t, "C0", ColorTarget(0).String())
	assert.Equal(t, "D4", DepthTarget(4).String())
	assert.Equal(t, "pick", TargetPick.String())
	assert.Len(t, Targets(), 11)
	assert.False(t, Target(-1).Valid())
	assert.Equal(t, "peel-color[2]->C2", Pass{Program: ProgramPeelColor, Target: TargetColor2, Layer: 2}.String())
}

func TestInstanceGPU(t *testing.T) {
	in := Instance{
		Model:     mgl32.Translate3D(1, 2, 3),
		Normal:    mgl32.Ident3(),
		Color:     mgl32.Vec3{0.1, 0.2, 0.3},
		Opacity:   0.5,
		Shininess: 0.7,
		Emissive:  true,
	}
	g := in.GPU()
	assert.Equal(t, float32(1), g.Model[12])
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 0.5}, g.Color)
	assert.Equal(t, float32(1), g.Normal[0])
	assert.Equal(t, float32(1), g.Normal[5])
	assert.Equal(t, float32(1), g.Normal[10])
	assert.Equal(t, float32(0), g.Normal[3])
	assert.Equal(t, [4]float32{0.7, 1, 0, 0}, g.Params)
}
