package renderer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxyviz/common"
	"github.com/Carmen-Shannon/oxyviz/engine/camera"
	"github.com/Carmen-Shannon/oxyviz/engine/light"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/material"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxyviz/engine/vertexpool"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// targetFormat is the format of every offscreen target.
const targetFormat = wgpu.TextureFormatRGBA8Unorm

// maxPassesPerFrame bounds the dynamic-offset pass parameter buffer.
const maxPassesPerFrame = 16

// Frame group bindings.
const (
	bindingCamera = iota
	bindingLights
	bindingInstances
	bindingPassParams
)

// Pool provider bindings.
const (
	bindingPoolVertices = iota
	bindingPoolIndices
)

// wgpuRendererBackendImpl draws the planned passes with WebGPU. Offscreen targets are
// RGBA8 textures; one Depth24Plus texture is shared by every pass and cleared at each.
type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	alphaMode     wgpu.CompositeAlphaMode
	presentMode   wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)
	width, height int
	caps          backend.Capabilities

	sceneShader, mergeShader         shader.Shader
	sceneModule, mergeModule         *wgpu.ShaderModule
	frameLayout, materialLayout      *wgpu.BindGroupLayout
	peelLayout, mergeLayout          *wgpu.BindGroupLayout
	sceneLayout, peelPipelineLayout  *wgpu.PipelineLayout
	mergePipelineLayout              *wgpu.PipelineLayout
	pipelines                        map[string]pipeline.Pipeline
	sampler                          *wgpu.Sampler
	white                            bind_group_provider.BindGroupProvider
	frameGroup, mergeGroup, poolMesh bind_group_provider.BindGroupProvider
	peelGroups                       [backend.MaxLayers + 1]bind_group_provider.BindGroupProvider
	materials                        map[string]bind_group_provider.BindGroupProvider
	targets                          map[backend.Target]bind_group_provider.BindGroupProvider
	depth                            bind_group_provider.BindGroupProvider
	readback                         *wgpu.Buffer

	models   map[string]bind_group_provider.BindGroupProvider
	textures map[string]bind_group_provider.BindGroupProvider

	// channels holds the last upload of every vertex-pool channel; the interleaved pool
	// vertex buffer is rebuilt from them when poolDirty is set.
	channels  [len(vertexpool.Channels)][]float32
	poolDirty bool

	// Frame state
	frame          *backend.FrameData
	encoder        *wgpu.CommandEncoder
	pass           *wgpu.RenderPassEncoder
	passInfo       backend.Pass
	passIndex      int
	passFormat     wgpu.TextureFormat
	passCull       bool
	surfaceTexture *wgpu.Texture
	surfaceView    *wgpu.TextureView
}

var _ backend.Backend = &wgpuRendererBackendImpl{}

// newWGPURendererBackend requests an adapter and device for the given surface and
// prepares every shader, layout and frame buffer. Targets are allocated by Configure.
//
// Parameters:
//   - surfaceDescriptor: the platform surface of the window
//   - forceFallbackAdapter: request the software fallback adapter
//
// Returns:
//   - *wgpuRendererBackendImpl: the backend
//   - error: if no adapter or device is available or a resource could not be created
func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) (*wgpuRendererBackendImpl, error) {
	if surfaceDescriptor == nil {
		return nil, errors.New("wgpu: window has no surface")
	}
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		sceneShader: shader.Scene(),
		mergeShader: shader.Merge(),
		pipelines:   make(map[string]pipeline.Pipeline),
		materials:   make(map[string]bind_group_provider.BindGroupProvider),
		targets:     make(map[backend.Target]bind_group_provider.BindGroupProvider),
		models:      make(map[string]bind_group_provider.BindGroupProvider),
		textures:    make(map[string]bind_group_provider.BindGroupProvider),
		frameGroup:  bind_group_provider.NewBindGroupProvider("frame"),
		mergeGroup:  bind_group_provider.NewBindGroupProvider("merge"),
		poolMesh:    bind_group_provider.NewBindGroupProvider(backend.PoolModel),
		depth:       bind_group_provider.NewBindGroupProvider("depth"),
		white:       bind_group_provider.NewBindGroupProvider("white"),
	}
	for k := range b.peelGroups {
		b.peelGroups[k] = bind_group_provider.NewBindGroupProvider(fmt.Sprintf("peel[%d]", k))
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("wgpu: request adapter: %w", err)
	}
	b.adapter = a

	supported := a.GetLimits().Limits
	b.caps = backend.Capabilities{
		MaxTextureUnits: int(supported.MaxSampledTexturesPerShaderStage),
		MaxTextureSize:  int(supported.MaxTextureDimension2D),
	}

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("wgpu: request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	if err := b.initPrograms(); err != nil {
		b.Release()
		return nil, err
	}
	if err := b.initFrameResources(); err != nil {
		b.Release()
		return nil, err
	}
	common.Logger().Info("wgpu: device ready",
		zap.Bool("fallbackAdapter", forceFallbackAdapter),
		zap.Int("textureUnits", b.caps.MaxTextureUnits),
		zap.Int("maxTextureSize", b.caps.MaxTextureSize),
	)
	return b, nil
}

// initPrograms compiles both shader modules and creates the bind group and pipeline layouts.
func (b *wgpuRendererBackendImpl) initPrograms() error {
	var err error
	if b.sceneModule, err = b.device.CreateShaderModule(b.sceneShader.Module()); err != nil {
		return fmt.Errorf("wgpu: compile %s: %w", b.sceneShader.Key(), err)
	}
	if b.mergeModule, err = b.device.CreateShaderModule(b.mergeShader.Module()); err != nil {
		return fmt.Errorf("wgpu: compile %s: %w", b.mergeShader.Key(), err)
	}

	layouts := make([]*wgpu.BindGroupLayout, 0, 4)
	for _, desc := range slices.Concat(b.sceneShader.BindGroupLayoutDescriptors(), b.mergeShader.BindGroupLayoutDescriptors()) {
		layout, layoutErr := b.device.CreateBindGroupLayout(&desc)
		if layoutErr != nil {
			return fmt.Errorf("wgpu: bind group layout %s: %w", desc.Label, layoutErr)
		}
		layouts = append(layouts, layout)
	}
	b.frameLayout = layouts[shader.GroupFrame]
	b.materialLayout = layouts[shader.GroupMaterial]
	b.peelLayout = layouts[shader.GroupPeel]
	b.mergeLayout = layouts[3]

	if b.sceneLayout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "scene",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.frameLayout, b.materialLayout},
	}); err != nil {
		return err
	}
	if b.peelPipelineLayout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "peel",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.frameLayout, b.materialLayout, b.peelLayout},
	}); err != nil {
		return err
	}
	b.mergePipelineLayout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "merge",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.mergeLayout},
	})
	return err
}

// cullMode maps a draw's cull flag onto the rasterizer state.
func cullMode(cull bool) wgpu.CullMode {
	if cull {
		return wgpu.CullModeBack
	}
	return wgpu.CullModeNone
}

// pipelineFor returns the pipeline of program p drawing into format, creating it on first use.
func (b *wgpuRendererBackendImpl) pipelineFor(p backend.Program, format wgpu.TextureFormat, cull bool) (pipeline.Pipeline, error) {
	if cached, ok := b.pipelines[pipeline.Key(p, format, cullMode(cull))]; ok {
		return cached, nil
	}
	cfg, err := pipeline.ForProgram(p, format, cullMode(cull))
	if err != nil {
		return nil, err
	}
	if err := b.registerRenderPipeline(cfg); err != nil {
		return nil, fmt.Errorf("wgpu: pipeline %s: %w", cfg.PipelineKey(), err)
	}
	b.pipelines[cfg.PipelineKey()] = cfg
	return cfg, nil
}

// registerRenderPipeline creates the GPU pipeline described by p.
func (b *wgpuRendererBackendImpl) registerRenderPipeline(p pipeline.Pipeline) error {
	s := p.Shader()
	module, layout := b.sceneModule, b.sceneLayout
	switch {
	case p.Program() == backend.ProgramMerge:
		module, layout = b.mergeModule, b.mergePipelineLayout
	case p.Peel():
		layout = b.peelPipelineLayout
	}

	target := wgpu.ColorTargetState{
		Format:    p.Format(),
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}

	var depthStencil *wgpu.DepthStencilState
	if p.DepthTestEnabled() {
		depthStencil = &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      p.DepthCompare(),
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: s.VertexEntryPoint(),
			Buffers:    s.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: p.FragmentEntryPoint(),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		return err
	}
	p.SetRenderPipeline(created)
	return nil
}

func (b *wgpuRendererBackendImpl) Name() string {
	return "wgpu"
}

func (b *wgpuRendererBackendImpl) Capabilities() backend.Capabilities {
	return b.caps
}

// SetPresentMode sets the surface present mode used by the next Configure.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) Configure(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("wgpu: invalid size %dx%d", width, height)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.encoder != nil {
		return errors.New("wgpu: cannot configure during a frame")
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 {
		return errors.New("wgpu: surface reports no formats")
	}
	b.surfaceFormat = pickSurfaceFormat(capabilities.Formats)
	b.alphaMode = capabilities.AlphaModes[0]
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   b.alphaMode,
	})
	b.width, b.height = width, height
	if err := b.allocateTargets(); err != nil {
		return err
	}
	common.Logger().Debug("wgpu: configured",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Uint32("format", uint32(b.surfaceFormat)),
	)
	return nil
}

// pickSurfaceFormat prefers a linear 8-bit format so the screen matches offscreen targets.
func pickSurfaceFormat(formats []wgpu.TextureFormat) wgpu.TextureFormat {
	for _, f := range formats {
		if f == wgpu.TextureFormatBGRA8Unorm || f == wgpu.TextureFormatRGBA8Unorm {
			return f
		}
	}
	return formats[0]
}

func (b *wgpuRendererBackendImpl) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *wgpuRendererBackendImpl) BeginFrame(fd *backend.FrameData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.encoder != nil {
		return errors.New("wgpu: frame already in progress")
	}
	if b.width == 0 {
		return errors.New("wgpu: not configured")
	}
	if fd == nil {
		fd = &backend.FrameData{}
	}
	if err := b.syncPool(); err != nil {
		return err
	}
	if err := b.writeFrame(fd); err != nil {
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	b.encoder = encoder
	b.frame = fd
	b.passIndex = 0
	return nil
}

// writeFrame uploads the uniforms, instances and pool indices of fd and rebuilds the
// frame bind group when a buffer grew.
func (b *wgpuRendererBackendImpl) writeFrame(fd *backend.FrameData) error {
	cam := camera.GPUCameraUniform{
		ViewProj:       [16]float32(fd.Uniforms.ViewProjection),
		CameraPosition: [3]float32(fd.Uniforms.Eye),
	}
	instances := make([]byte, 0, len(fd.Instances)*160)
	for i := range fd.Instances {
		g := fd.Instances[i].GPU()
		instances = g.AppendTo(instances)
	}
	indices := common.SliceToBytes(fd.Indices)

	writes := []bind_group_provider.BufferWrite{
		{Provider: b.frameGroup, Binding: bindingCamera, Data: cam.Marshal()},
		{Provider: b.frameGroup, Binding: bindingLights, Data: light.MarshalLightBuffer(fd.Uniforms.Lights, fd.Uniforms.Ambient)},
	}
	if len(instances) > 0 {
		if _, err := b.ensureBuffer(b.frameGroup, bindingInstances, uint64(len(instances)), wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst); err != nil {
			return err
		}
		writes = append(writes, bind_group_provider.BufferWrite{Provider: b.frameGroup, Binding: bindingInstances, Data: instances})
	}
	if len(indices) > 0 {
		if _, err := b.ensureBuffer(b.poolMesh, bindingPoolIndices, uint64(len(indices)), wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst); err != nil {
			return err
		}
		writes = append(writes, bind_group_provider.BufferWrite{Provider: b.poolMesh, Binding: bindingPoolIndices, Data: indices})
	}
	b.writeBuffers(writes)

	if b.frameGroup.Stale() {
		return b.buildFrameGroup()
	}
	return nil
}

func (b *wgpuRendererBackendImpl) writeBuffers(writes []bind_group_provider.BufferWrite) {
	for _, w := range writes {
		if !w.Fits() {
			common.Logger().Warn("wgpu: dropped buffer write",
				zap.String("provider", w.Provider.Label()),
				zap.Int("binding", w.Binding),
				zap.Int("bytes", len(w.Data)),
			)
			continue
		}
		b.queue.WriteBuffer(w.Provider.Buffer(w.Binding), w.Offset, w.Data)
	}
}

func (b *wgpuRendererBackendImpl) BeginPass(p backend.Pass) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.encoder == nil || b.pass != nil {
		return backend.ErrNoFrame
	}
	if b.passIndex >= maxPassesPerFrame {
		return fmt.Errorf("wgpu: more than %d passes in a frame", maxPassesPerFrame)
	}

	view, format, err := b.targetView(p.Target)
	if err != nil {
		return err
	}
	pl, err := b.pipelineFor(p.Program, format, false)
	if err != nil {
		return err
	}

	loadOp := wgpu.LoadOpLoad
	if p.Clear {
		loadOp = wgpu.LoadOpClear
	}
	desc := &wgpu.RenderPassDescriptor{
		Label: p.String(),
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    view,
			LoadOp:  loadOp,
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: float64(p.ClearColor[0]),
				G: float64(p.ClearColor[1]),
				B: float64(p.ClearColor[2]),
				A: float64(p.ClearColor[3]),
			},
		}},
	}
	if pl.DepthTestEnabled() {
		_, depthView := b.depth.Texture()
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		}
	}

	params := make([]byte, shader.PassParamsSize)
	binary.LittleEndian.PutUint32(params, uint32(p.Layer))
	offset := uint64(b.passIndex * shader.PassParamsStride)
	b.writeBuffers([]bind_group_provider.BufferWrite{{Provider: b.frameGroup, Binding: bindingPassParams, Offset: offset, Data: params}})

	pass := b.encoder.BeginRenderPass(desc)
	pass.SetPipeline(pl.RenderPipeline())
	b.pass = pass
	b.passInfo = p
	b.passFormat = format
	b.passCull = false
	b.passIndex++

	if p.Program == backend.ProgramMerge {
		merge := make([]byte, shader.MergeParamsSize)
		binary.LittleEndian.PutUint32(merge, uint32(min(max(p.Layers, 0), backend.MaxLayers)))
		b.writeBuffers([]bind_group_provider.BufferWrite{{Provider: b.mergeGroup, Binding: 0, Data: merge}})
		pass.SetBindGroup(0, b.mergeGroup.BindGroup(), nil)
		pass.Draw(3, 1, 0, 0)
		return nil
	}

	pass.SetBindGroup(shader.GroupFrame, b.frameGroup.BindGroup(), []uint32{uint32(offset)})
	if pl.Peel() {
		layer := min(max(p.Layer, 1), backend.MaxLayers)
		pass.SetBindGroup(shader.GroupPeel, b.peelGroups[layer].BindGroup(), nil)
	}
	return nil
}

// targetView resolves the color attachment of t, acquiring the surface texture on the
// first screen pass of the frame.
func (b *wgpuRendererBackendImpl) targetView(t backend.Target) (*wgpu.TextureView, wgpu.TextureFormat, error) {
	if t == backend.TargetScreen {
		if b.surfaceView == nil {
			tex, err := b.surface.GetCurrentTexture()
			if err != nil {
				return nil, 0, fmt.Errorf("wgpu: acquire surface: %w", err)
			}
			view, err := tex.CreateView(nil)
			if err != nil {
				tex.Release()
				return nil, 0, err
			}
			b.surfaceTexture, b.surfaceView = tex, view
		}
		return b.surfaceView, b.surfaceFormat, nil
	}
	p, ok := b.targets[t]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", backend.ErrUnknownTarget, t)
	}
	_, view := p.Texture()
	return view, targetFormat, nil
}

func (b *wgpuRendererBackendImpl) Draw(d backend.Draw) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pass == nil {
		return backend.ErrNoFrame
	}
	if b.passInfo.Program == backend.ProgramMerge {
		return errors.New("wgpu: merge passes take no draws")
	}
	if int(d.FirstInstance+d.InstanceCount) > len(b.frame.Instances) {
		return fmt.Errorf("wgpu: instances %d+%d out of range", d.FirstInstance, d.InstanceCount)
	}

	m := d.Material
	if b.passInfo.Program == backend.ProgramPick || b.passInfo.Program == backend.ProgramDepth {
		m = material.Material{}
	}
	group, err := b.materialGroup(m)
	if err != nil {
		return err
	}
	if d.Cull != b.passCull {
		pl, err := b.pipelineFor(b.passInfo.Program, b.passFormat, d.Cull)
		if err != nil {
			return err
		}
		b.pass.SetPipeline(pl.RenderPipeline())
		b.passCull = d.Cull
	}
	b.pass.SetBindGroup(shader.GroupMaterial, group.BindGroup(), nil)

	if d.Model == backend.PoolModel {
		if int(d.FirstIndex+d.IndexCount) > len(b.frame.Indices) {
			return fmt.Errorf("wgpu: indices %d+%d out of range", d.FirstIndex, d.IndexCount)
		}
		vb, ib := b.poolMesh.Buffer(bindingPoolVertices), b.poolMesh.Buffer(bindingPoolIndices)
		if vb == nil || ib == nil || d.IndexCount == 0 {
			return nil
		}
		b.pass.SetVertexBuffer(0, vb, 0, wgpu.WholeSize)
		b.pass.SetIndexBuffer(ib, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		b.pass.DrawIndexed(d.IndexCount, d.InstanceCount, d.FirstIndex, 0, d.FirstInstance)
		return nil
	}

	mesh, ok := b.models[d.Model]
	if !ok {
		return fmt.Errorf("%w: %q", backend.ErrUnknownModel, d.Model)
	}
	b.pass.SetVertexBuffer(0, mesh.VertexBuffer(), 0, wgpu.WholeSize)
	b.pass.SetIndexBuffer(mesh.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.pass.DrawIndexed(uint32(mesh.IndexCount()), d.InstanceCount, 0, 0, d.FirstInstance)
	return nil
}

func (b *wgpuRendererBackendImpl) EndPass() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pass == nil {
		return backend.ErrNoFrame
	}
	b.pass.End()
	b.pass.Release()
	b.pass = nil
	return nil
}

// submit finishes the current encoder and submits it to the queue.
func (b *wgpuRendererBackendImpl) submit() error {
	commandBuffer, err := b.encoder.Finish(nil)
	b.encoder.Release()
	b.encoder = nil
	if err != nil {
		return err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.encoder == nil {
		return backend.ErrNoFrame
	}
	if b.pass != nil {
		common.Logger().Warn("wgpu: frame ended inside a pass", zap.Stringer("pass", b.passInfo))
		b.pass.End()
		b.pass.Release()
		b.pass = nil
	}
	err := b.submit()
	b.frame = nil

	if b.surfaceTexture != nil {
		if err == nil {
			b.surface.Present()
		}
		b.surfaceView.Release()
		b.surfaceTexture.Release()
		b.surfaceView, b.surfaceTexture = nil, nil
	}
	return err
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pass != nil {
		b.pass.Release()
		b.pass = nil
	}
	if b.encoder != nil {
		b.encoder.Release()
		b.encoder = nil
	}
	if b.surfaceView != nil {
		b.surfaceView.Release()
		b.surfaceView = nil
	}
	if b.surfaceTexture != nil {
		b.surfaceTexture.Release()
		b.surfaceTexture = nil
	}
	for _, p := range b.materials {
		p.Release()
	}
	clear(b.materials)
	for _, p := range b.models {
		p.Release()
	}
	clear(b.models)
	for _, p := range b.textures {
		p.Release()
	}
	clear(b.textures)
	b.releaseTargets()
	for _, p := range b.pipelines {
		p.Release()
	}
	clear(b.pipelines)
	b.frameGroup.Release()
	b.mergeGroup.Release()
	b.poolMesh.Release()
	b.white.Release()
	if b.readback != nil {
		b.readback.Release()
		b.readback = nil
	}
	if b.sampler != nil {
		b.sampler.Release()
		b.sampler = nil
	}
	for _, l := range []*wgpu.PipelineLayout{b.sceneLayout, b.peelPipelineLayout, b.mergePipelineLayout} {
		if l != nil {
			l.Release()
		}
	}
	b.sceneLayout, b.peelPipelineLayout, b.mergePipelineLayout = nil, nil, nil
	for _, l := range []*wgpu.BindGroupLayout{b.frameLayout, b.materialLayout, b.peelLayout, b.mergeLayout} {
		if l != nil {
			l.Release()
		}
	}
	b.frameLayout, b.materialLayout, b.peelLayout, b.mergeLayout = nil, nil, nil, nil
	for _, m := range []*wgpu.ShaderModule{b.sceneModule, b.mergeModule} {
		if m != nil {
			m.Release()
		}
	}
	b.sceneModule, b.mergeModule = nil, nil
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
	b.width, b.height = 0, 0
}
