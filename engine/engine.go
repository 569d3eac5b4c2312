package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxyviz/common"
	"github.com/Carmen-Shannon/oxyviz/engine/camera"
	"github.com/Carmen-Shannon/oxyviz/engine/picking"
	"github.com/Carmen-Shannon/oxyviz/engine/profiler"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer"
	"github.com/Carmen-Shannon/oxyviz/engine/scene"
	"github.com/Carmen-Shannon/oxyviz/engine/texture"
	"github.com/Carmen-Shannon/oxyviz/engine/window"
	"go.uber.org/zap"
)

// engine implements the Engine interface.
// The main goroutine runs the window message loop; one render goroutine owns the scene
// and runs the ticks.
type engine struct {
	mu     *sync.Mutex
	stepMu *sync.Mutex

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window     window.Window
	scene      scene.Scene
	renderer   renderer.Renderer
	controller camera.CameraController

	input      chan InputEvent
	inputState inputState

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate   time.Duration
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	lastTick         time.Time

	beforeRenderCallback func(deltaTime float32)
	renderCallback       func(deltaTime float32)
	pickCallback         func(hit picking.Hit, ok bool)

	// Construction inputs collected from builder options
	backendType     renderer.RendererBackendType
	windowOptions   []window.WindowBuilderOption
	rendererOptions []renderer.RendererBuilderOption
	cameraOptions   []camera.CameraBuilderOption
	loaderOptions   []texture.LoaderBuilderOption
	logLevel        string
	logDevelopment  bool
	width, height   int
}

// Engine is the main entry point for the engine.
// It owns a scene, the renderer drawing it and the camera controller driven by window input.
type Engine interface {
	// Window returns the window, or nil for a headless engine.
	Window() window.Window

	// Scene returns the scene the engine draws.
	Scene() scene.Scene

	// Renderer returns the renderer.
	Renderer() renderer.Renderer

	// Controller returns the camera controller input events are applied to.
	Controller() camera.CameraController

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the tick rate in frames per second.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the loop, which then runs at the tick rate.
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// SetBeforeRenderCallback registers the function called each tick after input is
	// applied and before the frame is drawn. Scene mutation belongs here.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetBeforeRenderCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called each tick after the frame is drawn.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetPickCallback registers the function receiving the result of each left click.
	// Picking costs one readback per click; none is issued without a callback.
	//
	// Parameters:
	//   - callback: function receiving the hit and whether anything was hit
	SetPickCallback(callback func(hit picking.Hit, ok bool))

	// Post queues an input event for the next tick. Window callbacks post here.
	Post(ev InputEvent)

	// Step runs one tick synchronously: apply queued input, run the before-render hook,
	// render, run the render hook.
	//
	// Returns:
	//   - renderer.FrameStats: counters of the frame
	//   - error: a render error
	Step() (renderer.FrameStats, error)

	// Run starts the tick loop and blocks until the window closes or Quit is called.
	// With a window it must be called on the main goroutine.
	Run()

	// Quit stops the tick loop. Safe to call multiple times.
	Quit()

	// Release frees the renderer and closes the window.
	Release()
}

var _ Engine = &engine{}

// NewEngine creates an Engine. Unless given with WithScene and WithRenderer, the engine
// creates a scene, a window (for the WebGPU backend) and a renderer from its options.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: an error if the logger, window or renderer could not be created
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		mu:              &sync.Mutex{},
		stepMu:          &sync.Mutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		input:           make(chan InputEvent, inputQueueSize),
		engineTickRate:  time.Second / 60,
		backendType:     renderer.BackendTypeWGPU,
	}
	for _, opt := range options {
		opt(e)
	}

	if e.logLevel != "" {
		l, err := common.NewLogger(e.logLevel, e.logDevelopment)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		common.SetLogger(l)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler()
	}

	if e.scene == nil {
		e.scene = scene.New(
			scene.WithCamera(camera.NewCamera(e.cameraOptions...)),
			scene.WithTextureLoader(texture.NewLoader(e.loaderOptions...)),
		)
	}

	if e.renderer == nil {
		ropts := []renderer.RendererBuilderOption{renderer.WithBackendType(e.backendType)}
		if e.backendType == renderer.BackendTypeWGPU && e.window == nil {
			w, err := window.NewWindow(e.windowOptions...)
			if err != nil {
				return nil, fmt.Errorf("engine: %w", err)
			}
			e.window = w
		}
		if e.window != nil {
			ropts = append(ropts, renderer.WithWindow(e.window))
		} else if e.width > 0 && e.height > 0 {
			ropts = append(ropts, renderer.WithSize(e.width, e.height))
		}
		r, err := renderer.NewRenderer(append(ropts, e.rendererOptions...)...)
		if err != nil {
			if e.window != nil {
				_ = e.window.Close()
			}
			return nil, fmt.Errorf("engine: %w", err)
		}
		e.renderer = r
	}

	e.controller = camera.NewCameraController(e.scene.Camera())

	width, height := e.renderer.Backend().Size()
	if e.window != nil {
		width, height = e.window.Width(), e.window.Height()
	}
	if width > 0 && height > 0 {
		e.inputState.height = height
		e.scene.Camera().SetAspect(float32(width) / float32(height))
	}

	if e.window != nil {
		e.attachWindow(e.window)
	}

	common.Logger().Info("engine created",
		zap.Stringer("scene", e.scene.ID()),
		zap.String("backend", e.renderer.Backend().Name()),
		zap.Int("layers", e.renderer.PeelLayers()),
	)
	return e, nil
}

// attachWindow forwards window callbacks into the input queue. Callbacks run on the main
// goroutine and never touch the scene.
func (e *engine) attachWindow(w window.Window) {
	w.SetResizeCallback(func(width, height int) {
		e.Post(InputEvent{Kind: InputResize, Width: width, Height: height})
	})
	w.SetMouseDownCallback(func(button int, x, y int32) {
		e.Post(InputEvent{Kind: InputMouseDown, Button: button, X: x, Y: y})
	})
	w.SetMouseUpCallback(func(button int, x, y int32) {
		e.Post(InputEvent{Kind: InputMouseUp, Button: button, X: x, Y: y})
	})
	w.SetMouseMoveCallback(func(x, y int32) {
		e.Post(InputEvent{Kind: InputMouseMove, X: x, Y: y})
	})
	w.SetScrollCallback(func(delta float32) {
		e.Post(InputEvent{Kind: InputScroll, Delta: delta})
	})
	w.SetKeyDownCallback(func(key uint32) {
		e.Post(InputEvent{Kind: InputKeyDown, Key: key})
	})
	w.SetKeyUpCallback(func(key uint32) {
		e.Post(InputEvent{Kind: InputKeyUp, Key: key})
	})
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Controller() camera.CameraController {
	return e.controller
}

// hooks is a snapshot of the callbacks taken at the start of a tick, so a hook may
// replace callbacks without deadlocking.
type hooks struct {
	beforeRender func(deltaTime float32)
	render       func(deltaTime float32)
	pick         func(hit picking.Hit, ok bool)
	profiling    bool
}

func (e *engine) hooks() hooks {
	e.mu.Lock()
	defer e.mu.Unlock()
	return hooks{
		beforeRender: e.beforeRenderCallback,
		render:       e.renderCallback,
		pick:         e.pickCallback,
		profiling:    e.profilingEnabled,
	}
}

func (e *engine) Step() (renderer.FrameStats, error) {
	e.stepMu.Lock()
	defer e.stepMu.Unlock()

	now := time.Now()
	var dt float32
	if !e.lastTick.IsZero() {
		dt = float32(now.Sub(e.lastTick).Seconds())
	}
	e.lastTick = now

	h := e.hooks()
	e.drainInput(h.pick)
	if h.beforeRender != nil {
		h.beforeRender(dt)
	}
	stats, err := e.renderer.Render(e.scene)
	if err != nil {
		return stats, err
	}
	if h.render != nil {
		h.render(dt)
	}
	if h.profiling {
		e.profiler.Tick(stats)
	}
	return stats, nil
}

func (e *engine) Run() {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()

	e.wg.Add(1)
	go e.handleRender()

	if e.window != nil {
		// Quit may come from any goroutine; the window is closed on this one.
		e.window.SetUpdateCallback(func() {
			select {
			case <-e.quitChannel:
				_ = e.window.Close()
			default:
			}
		})
		e.window.ProcessMessages()
		e.signalQuit()
	} else {
		<-e.quitChannel
	}
	e.wg.Wait()

	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
}

// Quit signals the render goroutine to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handleRender runs the tick loop in its own goroutine at the tick rate, sleeping further
// when a frame limit is set. Listens for tick rate changes via tickRateChannel.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("render goroutine recovered from panic",
				zap.Any("panic", r), zap.Stringer("scene", e.scene.ID()))
			e.signalQuit()
		}
	}()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	for {
		select {
		case <-e.quitChannel:
			return
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		case <-ticker.C:
			start := time.Now()
			if _, err := e.Step(); err != nil {
				common.Logger().Warn("frame failed", zap.Error(err))
			}
			e.mu.Lock()
			limit := e.renderFrameLimit
			e.mu.Unlock()
			if limit > 0 {
				if remaining := limit - time.Since(start); remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

func (e *engine) Release() {
	e.signalQuit()
	e.renderer.Release()
	if e.window != nil {
		_ = e.window.Close()
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

// SetTickRate sets the tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	newRate := tickDuration(fps)

	e.mu.Lock()
	running := e.running
	if !running {
		e.engineTickRate = newRate
	}
	e.mu.Unlock()
	if !running {
		return
	}

	// Non-blocking send; a pending value is replaced.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderFrameLimit = frameLimit(fps)
}

func (e *engine) SetBeforeRenderCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.beforeRenderCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderCallback = callback
}

func (e *engine) SetPickCallback(callback func(hit picking.Hit, ok bool)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pickCallback = callback
}

func tickDuration(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}

func frameLimit(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
