package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraBuilderOption is a functional option for configuring a Camera.
type CameraBuilderOption func(*cameraImpl)

// WithCenter sets the initial view center.
//
// Parameters:
//   - center: the point the camera looks at
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's center
func WithCenter(center mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.center = center
	}
}

// WithForward sets the initial view direction.
//
// Parameters:
//   - forward: the view direction, normalized on apply
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's forward vector
func WithForward(forward mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		if forward.Len() > 0 {
			c.forward = forward.Normalize()
		}
	}
}

// WithUp sets the camera's up vector.
//
// Parameters:
//   - up: the up vector, normalized on apply
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's up vector
func WithUp(up mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		if up.Len() > 0 {
			c.up = up.Normalize()
		}
	}
}

// WithFov sets the vertical field of view.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithAspect sets the aspect ratio.
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
	}
}

// WithRange sets the initial view range.
func WithRange(r float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.viewRange = r
	}
}

// WithAutoscale sets whether the range follows the scene extent.
func WithAutoscale(on bool) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.autoscale = on
	}
}
