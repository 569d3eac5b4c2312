package camera

// CameraController turns user input into camera state changes. Each call applies one
// input event; the controller never animates between frames.
type CameraController interface {
	orbitCameraController
	planarCameraController

	// Camera returns the controlled camera.
	//
	// Returns:
	//   - Camera: the camera this controller drives
	Camera() Camera

	// Zoom scales the view range by exp(-delta*ZoomSpeed). Zooming is a user override
	// of the view range, so it turns autoscale off.
	//
	// Parameters:
	//   - delta: positive to zoom in, negative to zoom out
	Zoom(delta float32)

	// ZoomSpeed returns the zoom rate per unit of delta.
	ZoomSpeed() float32

	// MouseSensitivity returns the orbit angle in radians per pixel of mouse drag.
	MouseSensitivity() float32
}

// orbitCameraController rotates the view direction around the center.
type orbitCameraController interface {
	// Orbit rotates the view by the given azimuth and elevation deltas in radians.
	// Elevation is clamped so the view never looks straight along the up axis.
	//
	// Parameters:
	//   - dAzimuth: rotation around the up axis
	//   - dElevation: rotation toward the up axis
	Orbit(dAzimuth, dElevation float32)

	// OrbitLeft rotates the view left by OrbitSpeed.
	OrbitLeft()

	// OrbitRight rotates the view right by OrbitSpeed.
	OrbitRight()

	// OrbitUp raises the eye by OrbitSpeed.
	OrbitUp()

	// OrbitDown lowers the eye by OrbitSpeed.
	OrbitDown()

	// Azimuth returns the current angle of the view direction around the up axis.
	Azimuth() float32

	// Elevation returns the current height angle of the eye above the center.
	Elevation() float32

	// OrbitSpeed returns the step used by the keyboard orbit methods.
	OrbitSpeed() float32
}

// planarCameraController moves the center in the view plane.
type planarCameraController interface {
	// Pan moves the center across the view plane. Deltas are fractions of the view
	// range, so panning feels the same at any scale.
	//
	// Parameters:
	//   - dx: movement along the screen-right direction
	//   - dy: movement along the screen-up direction
	Pan(dx, dy float32)

	// PanSpeed returns the pan multiplier.
	PanSpeed() float32
}
