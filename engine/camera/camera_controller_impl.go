package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxyviz/common"
	"github.com/Carmen-Shannon/oxyviz/engine/geom"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraControllerImpl struct {
	mu *sync.Mutex

	cam Camera

	minElevation float32
	maxElevation float32

	orbitSpeed       float32
	mouseSensitivity float32
	zoomSpeed        float32
	panSpeed         float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a controller driving cam.
//
// Parameters:
//   - cam: the camera to control
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the configured controller
func NewCameraController(cam Camera, options ...CameraControllerOption) CameraController {
	if cam == nil {
		panic("camera: controller requires a camera")
	}
	cc := &cameraControllerImpl{
		mu:  &sync.Mutex{},
		cam: cam,

		minElevation: -math32.Pi/2 + 0.05,
		maxElevation: math32.Pi/2 - 0.05,

		orbitSpeed:       0.03,
		mouseSensitivity: 0.005,
		zoomSpeed:        0.1,
		panSpeed:         1.0,
	}
	for _, option := range options {
		option(cc)
	}
	return cc
}

// frame returns the up axis and two horizontal reference axes perpendicular to it.
func (cc *cameraControllerImpl) frame() (u, a, b mgl32.Vec3) {
	u, a, b = geom.Basis(cc.cam.Up(), mgl32.Vec3{0, 0, 1})
	return u, a, b
}

// angles returns the azimuth and elevation of the current forward vector.
func (cc *cameraControllerImpl) angles() (az, el float32) {
	u, a, b := cc.frame()
	f := cc.cam.Forward()
	el = math32.Asin(common.Clamp(-f.Dot(u), -1, 1))
	az = math32.Atan2(f.Dot(b), f.Dot(a))
	return az, el
}

func (cc *cameraControllerImpl) setAngles(az, el float32) {
	el = common.Clamp(el, cc.minElevation, cc.maxElevation)
	u, a, b := cc.frame()
	ce, se := math32.Cos(el), math32.Sin(el)
	f := a.Mul(ce * math32.Cos(az)).Add(b.Mul(ce * math32.Sin(az))).Sub(u.Mul(se))
	cc.cam.SetForward(f)
}

func (cc *cameraControllerImpl) Camera() Camera {
	return cc.cam
}

func (cc *cameraControllerImpl) Orbit(dAzimuth, dElevation float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	az, el := cc.angles()
	cc.setAngles(az+dAzimuth, el+dElevation)
}

func (cc *cameraControllerImpl) OrbitLeft() {
	cc.Orbit(-cc.orbitSpeed, 0)
}

func (cc *cameraControllerImpl) OrbitRight() {
	cc.Orbit(cc.orbitSpeed, 0)
}

func (cc *cameraControllerImpl) OrbitUp() {
	cc.Orbit(0, cc.orbitSpeed)
}

func (cc *cameraControllerImpl) OrbitDown() {
	cc.Orbit(0, -cc.orbitSpeed)
}

func (cc *cameraControllerImpl) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	az, _ := cc.angles()
	return az
}

func (cc *cameraControllerImpl) Elevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	_, el := cc.angles()
	return el
}

func (cc *cameraControllerImpl) OrbitSpeed() float32 {
	return cc.orbitSpeed
}

func (cc *cameraControllerImpl) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cam.SetAutoscale(false)
	cc.cam.SetRange(cc.cam.Range() * math32.Exp(-delta*cc.zoomSpeed))
}

func (cc *cameraControllerImpl) ZoomSpeed() float32 {
	return cc.zoomSpeed
}

func (cc *cameraControllerImpl) MouseSensitivity() float32 {
	return cc.mouseSensitivity
}

func (cc *cameraControllerImpl) Pan(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	f := cc.cam.Forward()
	_, up, right := geom.Basis(f, cc.cam.Up())
	scale := cc.cam.Range() * cc.panSpeed
	cc.cam.SetAutoscale(false)
	cc.cam.SetCenter(cc.cam.Center().Add(right.Mul(dx * scale)).Add(up.Mul(dy * scale)))
}

func (cc *cameraControllerImpl) PanSpeed() float32 {
	return cc.panSpeed
}
