// Package soft is a CPU rasterizer implementing backend.Backend with the same program
// semantics as the WGSL shaders. It renders headless and is used for capture and tests.
package soft

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/Carmen-Shannon/oxyviz/common"
	"github.com/Carmen-Shannon/oxyviz/engine/model"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxyviz/engine/vertexpool"
	"go.uber.org/zap"
)

// Name is the backend name reported in logs.
const Name = "software"

// Backend is the software rasterizer.
type Backend struct {
	mu *sync.Mutex

	textureUnits   int
	maxTextureSize int

	width, height int
	targets       map[backend.Target][][4]float32
	depth         []float32

	models   map[string]*model.Mesh
	textures map[string]*image.RGBA
	channels [len(vertexpool.Channels)][]float32

	frame *backend.FrameData
	pass  *backend.Pass
}

var _ backend.Backend = &Backend{}

// New creates a software backend. Targets are allocated by Configure, or up front
// with WithSize.
//
// Parameters:
//   - options: variadic list of BackendBuilderOption functions
//
// Returns:
//   - *Backend: the backend
func New(options ...BackendBuilderOption) *Backend {
	b := &Backend{
		mu:             &sync.Mutex{},
		textureUnits:   16,
		maxTextureSize: 4096,
		targets:        make(map[backend.Target][][4]float32),
		models:         make(map[string]*model.Mesh),
		textures:       make(map[string]*image.RGBA),
	}
	for _, opt := range options {
		opt(b)
	}
	if b.width > 0 && b.height > 0 {
		b.allocate(b.width, b.height)
	}
	return b
}

func (b *Backend) Name() string {
	return Name
}

func (b *Backend) Capabilities() backend.Capabilities {
	return backend.Capabilities{MaxTextureUnits: b.textureUnits, MaxTextureSize: b.maxTextureSize}
}

func (b *Backend) Configure(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("soft: invalid size %dx%d", width, height)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allocate(width, height)
	return nil
}

func (b *Backend) allocate(width, height int) {
	b.width, b.height = width, height
	n := width * height
	b.targets[backend.TargetScreen] = make([][4]float32, n)
	for _, t := range backend.Targets() {
		b.targets[t] = make([][4]float32, n)
	}
	b.depth = make([]float32, n)
}

func (b *Backend) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *Backend) CreateModel(key string, m *model.Mesh) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("soft: model %q: %w", key, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.models[key] = m.Clone()
	return nil
}

func (b *Backend) HasModel(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.models[key]
	return ok
}

func (b *Backend) ReleaseModel(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.models, key)
}

func (b *Backend) CreateTexture(name string, img *image.RGBA) error {
	if img == nil {
		return fmt.Errorf("soft: texture %q: nil image", name)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.textures[name] = common.FitImage(img, b.maxTextureSize)
	return nil
}

func (b *Backend) HasTexture(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.textures[name]
	return ok
}

func (b *Backend) UploadVertexChannel(ch vertexpool.Channel, data []float32) error {
	if ch.Width() == 0 {
		return fmt.Errorf("soft: unknown channel %d", int(ch))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channels[ch] = append(b.channels[ch][:0], data...)
	return nil
}

func (b *Backend) BeginFrame(fd *backend.FrameData) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frame != nil {
		return fmt.Errorf("soft: frame already in progress")
	}
	if b.width == 0 {
		return fmt.Errorf("soft: not configured")
	}
	if fd == nil {
		fd = &backend.FrameData{}
	}
	b.frame = fd
	return nil
}

func (b *Backend) BeginPass(p backend.Pass) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frame == nil || b.pass != nil {
		return backend.ErrNoFrame
	}
	buf, ok := b.targets[p.Target]
	if !ok {
		return fmt.Errorf("%w: %s", backend.ErrUnknownTarget, p.Target)
	}
	if p.Clear {
		for i := range buf {
			buf[i] = p.ClearColor
		}
	}
	for i := range b.depth {
		b.depth[i] = 1
	}
	b.pass = &p
	return nil
}

func (b *Backend) Draw(d backend.Draw) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frame == nil || b.pass == nil {
		return backend.ErrNoFrame
	}
	if b.pass.Program == backend.ProgramMerge {
		return fmt.Errorf("soft: merge passes take no draws")
	}
	if int(d.FirstInstance+d.InstanceCount) > len(b.frame.Instances) {
		return fmt.Errorf("soft: instances %d+%d out of range", d.FirstInstance, d.InstanceCount)
	}
	if d.Model == backend.PoolModel {
		if int(d.FirstIndex+d.IndexCount) > len(b.frame.Indices) {
			return fmt.Errorf("soft: indices %d+%d out of range", d.FirstIndex, d.IndexCount)
		}
		b.drawPool(d)
		return nil
	}
	m, ok := b.models[d.Model]
	if !ok {
		return fmt.Errorf("%w: %q", backend.ErrUnknownModel, d.Model)
	}
	b.drawMesh(m, d)
	return nil
}

func (b *Backend) EndPass() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pass == nil {
		return backend.ErrNoFrame
	}
	if b.pass.Program == backend.ProgramMerge {
		b.merge(b.pass)
	}
	b.pass = nil
	return nil
}

func (b *Backend) merge(p *backend.Pass) {
	dst := b.targets[p.Target]
	c0 := b.targets[backend.TargetColor0]
	layers := min(p.Layers, backend.MaxLayers)
	px := make([][4]float32, layers)
	for i := range dst {
		for k := range layers {
			px[k] = b.targets[backend.ColorTarget(k+1)][i]
		}
		out := backend.Composite(c0[i], px...)
		out[3] = 1
		dst[i] = out
	}
}

func (b *Backend) ReadPixel(t backend.Target, x, y int) ([4]uint8, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.targets[t]
	if !ok {
		return [4]uint8{}, fmt.Errorf("%w: %s", backend.ErrUnknownTarget, t)
	}
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return [4]uint8{}, nil
	}
	return quantize(buf[y*b.width+x]), nil
}

func (b *Backend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frame == nil {
		return backend.ErrNoFrame
	}
	if b.pass != nil {
		common.Logger().Warn("soft: frame ended inside a pass", zap.Stringer("pass", b.pass))
		b.pass = nil
	}
	b.frame = nil
	return nil
}

func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.models)
	clear(b.textures)
	clear(b.targets)
	b.depth = nil
	b.width, b.height = 0, 0
	b.frame, b.pass = nil, nil
}

// Pixel returns the unquantized color of a target pixel.
func (b *Backend) Pixel(t backend.Target, x, y int) [4]float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.targets[t]
	if !ok || x < 0 || y < 0 || x >= b.width || y >= b.height {
		return [4]float32{}
	}
	return buf[y*b.width+x]
}

// Image captures the screen target.
func (b *Backend) Image() *image.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	img := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	buf := b.targets[backend.TargetScreen]
	for y := range b.height {
		for x := range b.width {
			c := quantize(buf[y*b.width+x])
			img.SetRGBA(x, y, color.RGBA{R: c[0], G: c[1], B: c[2], A: c[3]})
		}
	}
	return img
}

func quantize(c [4]float32) [4]uint8 {
	var out [4]uint8
	for i, v := range c {
		out[i] = uint8(common.Clamp(v, 0, 1)*255 + 0.5)
	}
	return out
}
