package camera

import (
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVec(t *testing.T, want, got mgl32.Vec3, delta float64) {
	t.Helper()
	for i := range 3 {
		assert.InDelta(t, want[i], got[i], delta, "component %d", i)
	}
}

func TestCameraDerivedEye(t *testing.T) {
	cam := NewCamera(WithRange(2), WithFov(math32.Pi/2))
	// tan(45°) = 1, so the eye sits exactly range units behind the center.
	assert.InDelta(t, 2, cam.Distance(), 1e-5)
	assertVec(t, mgl32.Vec3{0, 0, 2}, cam.Eye(), 1e-5)

	cam.SetCenter(mgl32.Vec3{1, 0, 0})
	cam.Update()
	assertVec(t, mgl32.Vec3{1, 0, 2}, cam.Eye(), 1e-5)
}

func TestCameraProjectsCenterToMiddle(t *testing.T) {
	cam := NewCamera(WithRange(5))
	cam.SetDepthExtent(-1, 1)
	cam.Update()

	clip := cam.ViewProjection().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	ndc := clip.Vec3().Mul(1 / clip[3])
	assert.InDelta(t, 0, ndc[0], 1e-5)
	assert.InDelta(t, 0, ndc[1], 1e-5)
	assert.Greater(t, ndc[2], float32(0))
	assert.Less(t, ndc[2], float32(1))

	assert.Less(t, cam.Near(), cam.Distance()-1)
	assert.Greater(t, cam.Far(), cam.Distance()+1)
}

func TestCameraForwardParallelToUp(t *testing.T) {
	cam := NewCamera(WithForward(mgl32.Vec3{0, -1, 0}))
	v := cam.View()
	for i := range 16 {
		assert.False(t, math.IsNaN(float64(v[i])))
	}
}

func TestCameraIgnoresInvalidSetters(t *testing.T) {
	cam := NewCamera()
	cam.SetRange(-1)
	cam.SetForward(mgl32.Vec3{})
	cam.SetAspect(0)
	assert.Equal(t, float32(10), cam.Range())
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, cam.Forward())
	assert.Equal(t, float32(1), cam.Aspect())
}

func TestControllerOrbit(t *testing.T) {
	cam := NewCamera()
	cc := NewCameraController(cam)
	assert.InDelta(t, 0, cc.Elevation(), 1e-5)

	cc.Orbit(math32.Pi/2, 0)
	f := cam.Forward()
	assert.InDelta(t, 1, f.Len(), 1e-5)
	assert.InDelta(t, 0, f[1], 1e-5)
	assert.InDelta(t, 0, f[2], 1e-5)

	cc.Orbit(0, 10)
	assert.InDelta(t, math32.Pi/2-0.05, cc.Elevation(), 1e-4)
	assert.Less(t, cam.Forward()[1], float32(0))
}

func TestControllerZoomDisablesAutoscale(t *testing.T) {
	cam := NewCamera(WithRange(4))
	cc := NewCameraController(cam, WithZoomSpeed(float32(math.Ln2)))
	require.True(t, cam.Autoscale())

	cc.Zoom(1)
	assert.False(t, cam.Autoscale())
	assert.InDelta(t, 2, cam.Range(), 1e-5)
}

func TestControllerPan(t *testing.T) {
	cam := NewCamera(WithRange(2))
	cc := NewCameraController(cam)
	cc.Pan(0.5, 0.25)
	assertVec(t, mgl32.Vec3{1, 0.5, 0}, cam.Center(), 1e-5)
}

func TestGPUCameraUniform(t *testing.T) {
	cam := NewCamera()
	g := NewGPUCameraUniform(cam)
	assert.Equal(t, 80, g.Size())
	assert.Len(t, g.Marshal(), 80)
	assert.Equal(t, [3]float32(cam.Eye()), g.CameraPosition)
}

func TestControllerRequiresCamera(t *testing.T) {
	assert.Panics(t, func() { NewCameraController(nil) })
}
