// Package camera holds the view state derived each frame from the scene center,
// forward and up directions, field of view and range.
package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxyviz/common"
	"github.com/Carmen-Shannon/oxyviz/engine/geom"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	center  mgl32.Vec3
	forward mgl32.Vec3
	up      mgl32.Vec3

	fov       float32
	aspect    float32
	viewRange float32
	autoscale bool

	zMin, zMax float32
	hasExtent  bool

	eye            mgl32.Vec3
	near, far      float32
	view           mgl32.Mat4
	projection     mgl32.Mat4
	viewProjection mgl32.Mat4
}

// Camera is the view of a scene. Position is derived, not stored: the eye sits
// Range/tan(Fov/2) behind Center along Forward, so the sphere of radius Range around
// Center fills the view.
type Camera interface {
	// Center returns the point the camera looks at.
	//
	// Returns:
	//   - mgl32.Vec3: the view center
	Center() mgl32.Vec3

	// Forward returns the normalized view direction.
	//
	// Returns:
	//   - mgl32.Vec3: the view direction
	Forward() mgl32.Vec3

	// Up returns the normalized up vector.
	//
	// Returns:
	//   - mgl32.Vec3: the up vector
	Up() mgl32.Vec3

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Range returns the radius of the region around Center kept in view.
	Range() float32

	// Autoscale reports whether Range follows the scene extent.
	Autoscale() bool

	// Eye returns the world-space camera position computed by the last Update.
	Eye() mgl32.Vec3

	// Distance returns the distance from Eye to Center.
	Distance() float32

	// Near returns the near clipping distance computed by the last Update.
	Near() float32

	// Far returns the far clipping distance computed by the last Update.
	Far() float32

	// View returns the view matrix computed by the last Update.
	View() mgl32.Mat4

	// Projection returns the projection matrix computed by the last Update.
	Projection() mgl32.Mat4

	// ViewProjection returns the combined view-projection matrix computed by the last Update.
	ViewProjection() mgl32.Mat4

	// Update recomputes the eye, clip planes and matrices. Called once per frame.
	Update()

	// SetCenter sets the view center.
	SetCenter(c mgl32.Vec3)

	// SetForward sets the view direction. Zero vectors are ignored.
	SetForward(f mgl32.Vec3)

	// SetUp sets the up vector. Zero vectors are ignored.
	SetUp(u mgl32.Vec3)

	// SetFov sets the vertical field of view in radians.
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height).
	SetAspect(aspect float32)

	// SetRange sets the view range. Non-positive values are ignored.
	SetRange(r float32)

	// SetAutoscale toggles automatic range adjustment.
	SetAutoscale(on bool)

	// SetDepthExtent records the depth extrema of the visible scene measured from Center
	// along Forward. Near and far planes are fitted to them on the next Update.
	//
	// Parameters:
	//   - zMin: the nearest depth, negative toward the eye
	//   - zMax: the farthest depth
	SetDepthExtent(zMin, zMax float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a camera looking down -z with +y up, a 60 degree field of view
// and autoscale enabled.
//
// Parameters:
//   - options: variadic list of CameraBuilderOption functions to configure the camera
//
// Returns:
//   - Camera: a new Camera instance
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:        &sync.Mutex{},
		forward:   mgl32.Vec3{0, 0, -1},
		up:        mgl32.Vec3{0, 1, 0},
		fov:       mgl32.DegToRad(60),
		aspect:    1,
		viewRange: 10,
		autoscale: true,
	}
	for _, opt := range options {
		opt(c)
	}
	c.Update()
	return c
}

func (c *cameraImpl) Center() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.center
}

func (c *cameraImpl) Forward() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forward
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Range() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewRange
}

func (c *cameraImpl) Autoscale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoscale
}

func (c *cameraImpl) Eye() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eye
}

func (c *cameraImpl) Distance() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.distance()
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) View() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *cameraImpl) Projection() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection
}

func (c *cameraImpl) ViewProjection() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjection
}

func (c *cameraImpl) SetCenter(center mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.center = center
}

func (c *cameraImpl) SetForward(f mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f.Len() > 0 {
		c.forward = f.Normalize()
	}
}

func (c *cameraImpl) SetUp(u mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if u.Len() > 0 {
		c.up = u.Normalize()
	}
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = common.Clamp(fov, 0.01, math32.Pi-0.01)
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aspect > 0 {
		c.aspect = aspect
	}
}

func (c *cameraImpl) SetRange(r float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r > 0 {
		c.viewRange = r
	}
}

func (c *cameraImpl) SetAutoscale(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoscale = on
}

func (c *cameraImpl) SetDepthExtent(zMin, zMax float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zMin, c.zMax = zMin, zMax
	c.hasExtent = zMax >= zMin
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()

	dist := c.distance()
	c.eye = c.center.Sub(c.forward.Mul(dist))

	// A forward parallel to up would make LookAt degenerate; borrow the basis fallback.
	up := c.up
	if c.forward.Cross(up).Len() < 1e-6 {
		_, up, _ = geom.Basis(c.forward, up)
	}
	c.view = mgl32.LookAtV(c.eye, c.center, up)

	zMin, zMax := -c.viewRange, c.viewRange
	if c.hasExtent {
		zMin, zMax = c.zMin, c.zMax
	}
	pad := 0.05 * c.viewRange
	c.near = max(dist+zMin-pad, dist/100)
	c.far = max(dist+zMax+pad, 2*c.near)
	c.projection = common.Perspective(c.fov, c.aspect, c.near, c.far)
	c.viewProjection = c.projection.Mul4(c.view)
}

func (c *cameraImpl) distance() float32 {
	return c.viewRange / math32.Tan(c.fov/2)
}
