package engine

import (
	"strings"

	"github.com/Carmen-Shannon/oxyviz/engine/camera"
	"github.com/Carmen-Shannon/oxyviz/engine/config"
	"github.com/Carmen-Shannon/oxyviz/engine/profiler"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer"
	"github.com/Carmen-Shannon/oxyviz/engine/scene"
	"github.com/Carmen-Shannon/oxyviz/engine/texture"
	"github.com/Carmen-Shannon/oxyviz/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler replaces the default profiler.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithTickRate sets the tick rate in frames per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.engineTickRate = tickDuration(fps)
	}
}

// WithRenderFrameLimit sets an optional frame rate cap in frames per second.
// Pass 0 to uncap the loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = frameLimit(fps)
	}
}

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithWindowOptions sets the options of the window the engine creates.
func WithWindowOptions(options ...window.WindowBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.windowOptions = append(e.windowOptions, options...)
	}
}

// WithScene sets the scene the engine draws instead of an empty one.
//
// Parameters:
//   - s: the scene
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scene = s
	}
}

// WithRenderer sets an already created renderer. Renderer options are then ignored.
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithBackendType selects the backend of the renderer the engine creates. The software
// backend needs no window.
func WithBackendType(t renderer.RendererBackendType) EngineBuilderOption {
	return func(e *engine) {
		e.backendType = t
	}
}

// WithHeadless selects the software backend at the given target size.
//
// Parameters:
//   - width: target width in pixels
//   - height: target height in pixels
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithHeadless(width, height int) EngineBuilderOption {
	return func(e *engine) {
		e.backendType = renderer.BackendTypeSoftware
		e.width, e.height = width, height
	}
}

// WithRendererOptions adds options to the renderer the engine creates.
func WithRendererOptions(options ...renderer.RendererBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.rendererOptions = append(e.rendererOptions, options...)
	}
}

// WithCameraOptions adds options to the camera of the scene the engine creates.
func WithCameraOptions(options ...camera.CameraBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.cameraOptions = append(e.cameraOptions, options...)
	}
}

// WithTextureOptions adds options to the texture loader of the scene the engine creates.
func WithTextureOptions(options ...texture.LoaderBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.loaderOptions = append(e.loaderOptions, options...)
	}
}

// WithLogging builds the package logger at NewEngine.
//
// Parameters:
//   - level: the minimum level ("debug", "info", "warn", "error")
//   - development: true for the console encoder
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogging(level string, development bool) EngineBuilderOption {
	return func(e *engine) {
		e.logLevel = level
		e.logDevelopment = development
	}
}

// WithConfig maps a file configuration onto the window, renderer, camera, texture loader,
// logger and loop options. Options given after it override its values.
//
// Parameters:
//   - cfg: a validated configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg config.Config) EngineBuilderOption {
	return func(e *engine) {
		e.windowOptions = append(e.windowOptions, window.WithConfig(cfg.Window))
		e.width, e.height = cfg.Window.Width, cfg.Window.Height

		e.backendType = renderer.BackendTypeWGPU
		if strings.EqualFold(cfg.Render.Backend, config.BackendSoftware) {
			e.backendType = renderer.BackendTypeSoftware
		}
		present := renderer.PresentModeVSync
		if strings.EqualFold(cfg.Render.PresentMode, config.PresentUncapped) {
			present = renderer.PresentModeUncapped
		}
		e.rendererOptions = append(e.rendererOptions,
			renderer.WithPresentMode(present),
			renderer.WithMaxPeelLayers(cfg.Render.Layers),
			renderer.WithForceSoftwareRenderer(cfg.Render.FallbackAdapter),
			renderer.WithHysteresis(cfg.Render.Hysteresis),
		)
		e.engineTickRate = tickDuration(cfg.Render.TickRate)
		e.renderFrameLimit = frameLimit(cfg.Render.FrameLimit)
		e.profilingEnabled = cfg.Render.ProfilingEnabled

		e.cameraOptions = append(e.cameraOptions,
			camera.WithFov(mgl32.DegToRad(cfg.Camera.Fov)),
			camera.WithAutoscale(cfg.Camera.Autoscale),
		)
		if cfg.Camera.Range > 0 {
			e.cameraOptions = append(e.cameraOptions, camera.WithRange(cfg.Camera.Range))
		}

		if cfg.Textures.Root != "" {
			e.loaderOptions = append(e.loaderOptions, texture.WithRoot(cfg.Textures.Root))
		}
		e.loaderOptions = append(e.loaderOptions,
			texture.WithWorkers(cfg.Textures.Workers),
			texture.WithMaxSize(cfg.Textures.MaxSize),
		)

		e.logLevel = cfg.Log.Level
		e.logDevelopment = cfg.Log.Development
	}
}
