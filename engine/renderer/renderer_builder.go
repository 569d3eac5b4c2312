package renderer

import (
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxyviz/engine/window"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithBackend drives an already created backend instead of building one from the backend type.
//
// Parameters:
//   - b: the backend
//
// Returns:
//   - RendererBuilderOption: a function that applies the backend option to a renderer
func WithBackend(b backend.Backend) RendererBuilderOption {
	return func(r *renderer) {
		r.backend = b
	}
}

// WithBackendType selects the backend NewRenderer creates. The default is BackendTypeWGPU.
//
// Parameters:
//   - t: the backend type
//
// Returns:
//   - RendererBuilderOption: a function that applies the backend type option to a renderer
func WithBackendType(t RendererBackendType) RendererBuilderOption {
	return func(r *renderer) {
		r.backendType = t
	}
}

// WithWindow sets the window the WebGPU backend presents to.
//
// Parameters:
//   - w: the window
//
// Returns:
//   - RendererBuilderOption: a function that applies the window option to a renderer
func WithWindow(w window.Window) RendererBuilderOption {
	return func(r *renderer) {
		r.window = w
	}
}

// WithSize sets the initial target size of a headless backend.
//
// Parameters:
//   - width: the width in pixels
//   - height: the height in pixels
//
// Returns:
//   - RendererBuilderOption: a function that applies the size option to a renderer
func WithSize(width, height int) RendererBuilderOption {
	return func(r *renderer) {
		r.width = width
		r.height = height
	}
}

// WithMode sets the mode Render draws in. The default is ModeRender.
func WithMode(m Mode) RendererBuilderOption {
	return func(r *renderer) {
		r.mode = m
	}
}

// WithMaxPeelLayers caps the number of transparency layers below what the backend allows.
func WithMaxPeelLayers(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.maxLayers = n
	}
}

// WithHysteresis sets the autoscale hysteresis factor of the extent engine.
func WithHysteresis(h float32) RendererBuilderOption {
	return func(r *renderer) {
		r.hysteresis = h
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe). It is unrelated to BackendTypeSoftware, which needs no GPU API at all.
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}
