// Package light defines the scene light sources and the shading model shared by the
// GPU scene shader and the software rasterizer.
package light

import (
	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a distant light with no position, only a direction.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position
	// and attenuates with distance up to its range.
	LightTypePoint

	// LightTypeSpot represents a point light restricted to a cone around its direction.
	LightTypeSpot
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType  LightType
	position   mgl32.Vec3
	direction  mgl32.Vec3
	color      mgl32.Vec3
	intensity  float32
	lightRange float32
	innerCone  float32 // stored as cos(angle in radians)
	outerCone  float32 // stored as cos(angle in radians)
	enabled    bool
}

// Light is a light source evaluated by the lit scene programs.
type Light interface {
	// Type retrieves the kind of light.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	// Position retrieves the world-space position. Unused by directional lights.
	//
	// Returns:
	//   - mgl32.Vec3: the light position
	Position() mgl32.Vec3

	// Direction retrieves the normalized direction the light travels in.
	// Unused by point lights.
	//
	// Returns:
	//   - mgl32.Vec3: the light direction
	Direction() mgl32.Vec3

	// Color retrieves the linear RGB color of the light.
	//
	// Returns:
	//   - mgl32.Vec3: the light color
	Color() mgl32.Vec3

	// Intensity retrieves the scalar multiplier applied to the color.
	//
	// Returns:
	//   - float32: the intensity
	Intensity() float32

	// Range retrieves the attenuation cutoff distance of point and spot lights.
	// Zero disables attenuation.
	//
	// Returns:
	//   - float32: the range
	Range() float32

	// InnerCone retrieves the cosine of the spot inner half-angle.
	InnerCone() float32

	// OuterCone retrieves the cosine of the spot outer half-angle.
	OuterCone() float32

	// Enabled reports whether the light contributes to shading.
	Enabled() bool

	// SetPosition sets the world-space position.
	SetPosition(p mgl32.Vec3)

	// SetDirection sets the travel direction. The direction is normalized.
	SetDirection(d mgl32.Vec3)

	// SetColor sets the linear RGB color.
	SetColor(c mgl32.Vec3)

	// SetIntensity sets the scalar multiplier.
	SetIntensity(intensity float32)

	// SetEnabled toggles the light.
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with defaults and any provided
// options applied.
//
// Parameters:
//   - lightType: the kind of light to create (directional, point, or spot)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType:  lightType,
		direction:  mgl32.Vec3{0, -1, 0},
		color:      mgl32.Vec3{1, 1, 1},
		intensity:  1,
		lightRange: 0,
		innerCone:  0.9063, // cos(25°)
		outerCone:  0.8192, // cos(35°)
		enabled:    true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DefaultLights returns the standard lighting rig: a bright and a dim distant light
// from opposite sides, plus the ambient level to use with them.
//
// Returns:
//   - []Light: the two distant lights
//   - mgl32.Vec3: the ambient color
func DefaultLights() ([]Light, mgl32.Vec3) {
	return []Light{
		NewLight(LightTypeDirectional, WithDirection(-0.22, -0.44, -0.88), WithColor(0.8, 0.8, 0.8)),
		NewLight(LightTypeDirectional, WithDirection(0.88, 0.22, 0.44), WithColor(0.3, 0.3, 0.3)),
	}, mgl32.Vec3{0.2, 0.2, 0.2}
}

func (l *lightImpl) Type() LightType { return l.lightType }
func (l *lightImpl) Position() mgl32.Vec3 { return l.position }
func (l *lightImpl) Direction() mgl32.Vec3 { return l.direction }
func (l *lightImpl) Color() mgl32.Vec3 { return l.color }
func (l *lightImpl) Intensity() float32 { return l.intensity }
func (l *lightImpl) Range() float32 { return l.lightRange }
func (l *lightImpl) InnerCone() float32 { return l.innerCone }
func (l *lightImpl) OuterCone() float32 { return l.outerCone }
func (l *lightImpl) Enabled() bool { return l.enabled }
func (l *lightImpl) SetPosition(p mgl32.Vec3) { l.position = p }
func (l *lightImpl) SetColor(c mgl32.Vec3) { l.color = c }
func (l *lightImpl) SetEnabled(enabled bool) { l.enabled = enabled }

func (l *lightImpl) SetDirection(d mgl32.Vec3) {
	l.direction = normalize3(d)
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}
