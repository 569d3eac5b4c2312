package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxyviz/common"
	"github.com/Carmen-Shannon/oxyviz/engine/bucket"
	"github.com/Carmen-Shannon/oxyviz/engine/extent"
	"github.com/Carmen-Shannon/oxyviz/engine/model"
	"github.com/Carmen-Shannon/oxyviz/engine/picking"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/material"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/soft"
	"github.com/Carmen-Shannon/oxyviz/engine/scene"
	"github.com/Carmen-Shannon/oxyviz/engine/window"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Default software target size when no window or size is given.
const (
	defaultWidth  = 640
	defaultHeight = 480
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     backend.Backend
	window      window.Window
	mode        Mode
	layers      int
	maxLayers   int

	extent *extent.Engine

	sceneID   uuid.UUID
	compounds map[scene.Handle]string
	failed    map[string]bool

	// Pre-creation config collected from builder options
	width, height        int
	hysteresis           float32
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
}

// Renderer turns a scene into frames. Each Render call synchronizes the scene with the
// backend (change drain, autoscale, camera, vertex-pool flush, model and texture
// uploads), sorts the visible primitives into buckets, plans the passes and executes them.
//
// A Renderer is driven from a single goroutine.
type Renderer interface {
	// Render draws one frame of sc in the renderer's mode.
	//
	// Parameters:
	//   - sc: the scene to draw
	//
	// Returns:
	//   - FrameStats: counters for the frame
	//   - error: ErrModeUnsupported for modes Render cannot produce, or a backend error
	Render(sc scene.Scene) (FrameStats, error)

	// Pick draws the pickable primitives of sc into the pick target and resolves the pixel
	// at (x, y), measured from the top-left corner. A miss, including a stale id, reports false
	// with a nil error.
	//
	// Parameters:
	//   - sc: the scene to pick from
	//   - x, y: pixel coordinates
	//
	// Returns:
	//   - picking.Hit: the picked primitive
	//   - bool: true on a hit
	//   - error: a backend error
	Pick(sc scene.Scene, x, y int) (picking.Hit, bool, error)

	// Resize reconfigures the backend targets for a new surface size.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// Mode returns the mode Render draws in.
	Mode() Mode

	// SetMode changes the mode Render draws in.
	SetMode(m Mode)

	// PeelLayers returns the number of transparency layers chosen for the backend.
	PeelLayers() int

	// Backend returns the backend the renderer drives.
	Backend() backend.Backend

	// Release frees the backend.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer. The backend is the one given with WithBackend, or is
// built from WithBackendType: the WebGPU backend (default) needs a window from WithWindow,
// the software backend renders headless at WithSize. The number of peel layers is chosen
// once from the backend capabilities: 4 when eight or more texture units are available,
// 2 otherwise.
//
// Parameters:
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the renderer
//   - error: an error if the backend could not be created or configured
func NewRenderer(options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: BackendTypeWGPU,
		mode:        ModeRender,
		maxLayers:   backend.MaxLayers,
		hysteresis:  extent.DefaultHysteresis,
		compounds:   make(map[scene.Handle]string),
		failed:      make(map[string]bool),
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}
	r.extent = extent.New(extent.WithHysteresis(r.hysteresis))

	if r.backend == nil {
		switch r.backendType {
		case BackendTypeSoftware:
			r.backend = soft.New()
			if err := r.backend.Configure(common.Coalesce(r.width, defaultWidth), common.Coalesce(r.height, defaultHeight)); err != nil {
				return nil, err
			}
		case BackendTypeWGPU:
			if r.window == nil {
				return nil, errors.New("renderer: the wgpu backend needs a window")
			}
			b, err := newWGPURendererBackend(r.window.SurfaceDescriptor(), r.forceFallbackAdapter)
			if err != nil {
				return nil, err
			}
			if r.pendingPresentMode != nil {
				b.SetPresentMode(*r.pendingPresentMode)
			}
			if err := b.Configure(r.window.Width(), r.window.Height()); err != nil {
				b.Release()
				return nil, err
			}
			r.backend = b
		default:
			return nil, fmt.Errorf("renderer: unknown backend type %s", r.backendType)
		}
	} else if r.width > 0 && r.height > 0 {
		if err := r.backend.Configure(r.width, r.height); err != nil {
			return nil, err
		}
	}

	caps := r.backend.Capabilities()
	r.layers = 4
	if caps.MaxTextureUnits < 8 {
		r.layers = 2
		common.Logger().Warn("renderer: few texture units, reducing transparency layers",
			zap.Int("textureUnits", caps.MaxTextureUnits),
			zap.Int("layers", r.layers),
		)
	}
	r.layers = min(r.layers, max(r.maxLayers, 1))
	common.Logger().Info("renderer: backend selected",
		zap.String("backend", r.backend.Name()),
		zap.Int("layers", r.layers),
	)
	return r, nil
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.backend.Configure(width, height); err != nil {
		common.Logger().Warn("renderer: resize failed", zap.Int("width", width), zap.Int("height", height), zap.Error(err))
	}
}

func (r *renderer) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

func (r *renderer) SetMode(m Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = m
}

func (r *renderer) PeelLayers() int {
	return r.layers
}

func (r *renderer) Backend() backend.Backend {
	return r.backend
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.Release()
}

func (r *renderer) Render(sc scene.Scene) (FrameStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stats FrameStats
	if r.mode != ModeRender && r.mode != ModeOffscreen {
		return stats, fmt.Errorf("%w: %s", ErrModeUnsupported, r.mode)
	}
	if err := r.sync(sc, &stats); err != nil {
		return stats, err
	}

	bs := bucket.Sort(sc, r.textureReady(sc, &stats))
	stats.Buckets = bs.Len()
	stats.Skipped = len(bs.Skipped)
	stats.Transparent = len(bs.Transparent)

	f, err := r.buildFrame(sc, bs, false, &stats)
	if err != nil {
		return stats, err
	}
	passes, err := PlanPasses(r.mode, bs.HasTransparent(), r.layers)
	if err != nil {
		return stats, err
	}
	bg := sc.Background()
	for i := range passes {
		if passes[i].Program == backend.ProgramLit {
			passes[i].ClearColor = [4]float32{bg[0], bg[1], bg[2], 1}
		}
	}

	if err := r.backend.BeginFrame(&f.data); err != nil {
		return stats, err
	}
	err = r.execute(f, passes, &stats)
	return stats, errors.Join(err, r.backend.EndFrame())
}

func (r *renderer) Pick(sc scene.Scene, x, y int) (picking.Hit, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stats FrameStats
	if err := r.sync(sc, &stats); err != nil {
		return picking.Hit{}, false, err
	}
	bs := bucket.Sort(sc, nil)
	f, err := r.buildFrame(sc, bs, true, &stats)
	if err != nil {
		return picking.Hit{}, false, err
	}
	passes, err := PlanPasses(ModePick, false, r.layers)
	if err != nil {
		return picking.Hit{}, false, err
	}

	if err := r.backend.BeginFrame(&f.data); err != nil {
		return picking.Hit{}, false, err
	}
	err = r.execute(f, passes, &stats)
	var px [4]uint8
	if err == nil {
		px, err = r.backend.ReadPixel(backend.TargetPick, x, y)
	}
	if err = errors.Join(err, r.backend.EndFrame()); err != nil {
		return picking.Hit{}, false, err
	}

	hit, ok := picking.Resolve(sc, px)
	return hit, ok, nil
}

func (r *renderer) execute(f *frame, passes []backend.Pass, stats *FrameStats) error {
	for _, p := range passes {
		if err := r.backend.BeginPass(p); err != nil {
			return fmt.Errorf("renderer: begin %s: %w", p, err)
		}
		stats.Passes++
		for _, d := range f.draws(p.Program) {
			if err := r.backend.Draw(d); err != nil {
				return errors.Join(fmt.Errorf("renderer: draw %q in %s: %w", d.Model, p, err), r.backend.EndPass())
			}
			stats.Draws++
		}
		if err := r.backend.EndPass(); err != nil {
			return fmt.Errorf("renderer: end %s: %w", p, err)
		}
	}
	return nil
}

// sync brings the backend and camera up to date with the scene.
func (r *renderer) sync(sc scene.Scene, stats *FrameStats) error {
	if id := sc.ID(); id != r.sceneID {
		r.sceneID = id
		r.extent.Reset()
		for _, key := range r.compounds {
			r.backend.ReleaseModel(key)
		}
		clear(r.compounds)
		sc.Vertices().Invalidate()
	}
	if err := r.ensureTemplates(stats); err != nil {
		return err
	}

	changes := sc.Drain()
	dirty := make([]scene.Handle, len(changes.Objects))
	for i, key := range changes.Objects {
		h := scene.Handle(key)
		dirty[i] = h
		if _, live := sc.Object(h); !live {
			if old, ok := r.compounds[h]; ok {
				r.backend.ReleaseModel(old)
				delete(r.compounds, h)
			}
		}
	}

	cam := sc.Camera()
	if w, h := r.backend.Size(); w > 0 && h > 0 {
		cam.SetAspect(float32(w) / float32(h))
	}
	if res, ok := r.extent.Compute(sc, dirty); ok {
		if cam.Autoscale() {
			cam.SetRange(res.Range)
		}
		cam.SetDepthExtent(res.ZMin, res.ZMax)
	}
	cam.Update()

	n, err := sc.Vertices().Flush(r.backend.UploadVertexChannel)
	stats.Uploads += n
	if err != nil {
		return fmt.Errorf("renderer: vertex upload: %w", err)
	}
	return nil
}

// ensureTemplates uploads the shared model of every instanced kind once per backend.
func (r *renderer) ensureTemplates(stats *FrameStats) error {
	for _, k := range model.Kinds() {
		rec := k.Record()
		if !rec.Shared || r.backend.HasModel(rec.Name) {
			continue
		}
		if err := r.backend.CreateModel(rec.Name, model.Template(k)); err != nil {
			return fmt.Errorf("renderer: model %s: %w", rec.Name, err)
		}
		stats.Uploads++
	}
	return nil
}

// ensureCompound uploads the current mesh of a compound, releasing the model of the mesh
// it replaced.
func (r *renderer) ensureCompound(o *scene.Object, key string, stats *FrameStats) error {
	if old, ok := r.compounds[o.Handle]; ok && old != key {
		r.backend.ReleaseModel(old)
	}
	r.compounds[o.Handle] = key
	if r.backend.HasModel(key) || o.Mesh == nil {
		return nil
	}
	if err := r.backend.CreateModel(key, o.Mesh); err != nil {
		return fmt.Errorf("renderer: compound %d: %w", o.Handle, err)
	}
	stats.Uploads++
	return nil
}

// textureReady reports whether every texture of a material can be drawn, uploading
// textures as their loads complete. Failed loads count as ready and draw plain.
func (r *renderer) textureReady(sc scene.Scene, stats *FrameStats) func(material.Material) bool {
	return func(m material.Material) bool {
		for _, name := range m.Names() {
			if r.failed[name] || r.backend.HasTexture(name) {
				continue
			}
			t := sc.Textures().Request(name)
			if !t.Ready() {
				return false
			}
			err := t.Err()
			if err == nil {
				err = r.backend.CreateTexture(name, t.Image())
			}
			if err != nil {
				r.failed[name] = true
				common.Logger().Warn("renderer: texture unavailable, drawing without it",
					zap.String("texture", name),
					zap.Error(err),
				)
				continue
			}
			stats.Uploads++
		}
		return true
	}
}
