package scene

import (
	"github.com/Carmen-Shannon/oxyviz/engine/camera"
	"github.com/Carmen-Shannon/oxyviz/engine/light"
	"github.com/Carmen-Shannon/oxyviz/engine/texture"
	"github.com/go-gl/mathgl/mgl32"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithName sets the scene name used in log output.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *scene) {
		s.name = name
	}
}

// WithCamera sets the scene camera. A default camera is created otherwise.
//
// Parameters:
//   - cam: the camera
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.cam = cam
	}
}

// WithTextureLoader sets the loader texture names are resolved through.
//
// Parameters:
//   - l: the texture loader
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithTextureLoader(l texture.Loader) SceneBuilderOption {
	return func(s *scene) {
		s.textures = l
	}
}

// WithLights replaces the default lighting rig.
//
// Parameters:
//   - ambient: the ambient color
//   - lights: the scene lights
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLights(ambient mgl32.Vec3, lights ...light.Light) SceneBuilderOption {
	return func(s *scene) {
		s.ambient = ambient
		s.lights = lights
	}
}

// WithBackground sets the clear color.
func WithBackground(c mgl32.Vec3) SceneBuilderOption {
	return func(s *scene) {
		s.background = c
	}
}

// WithVertexChunkSize sets the vertex pool growth chunk.
func WithVertexChunkSize(n int) SceneBuilderOption {
	return func(s *scene) {
		s.chunkSize = n
	}
}
