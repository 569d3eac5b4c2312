package renderer

import (
	"errors"
	"fmt"
	"image"

	"github.com/Carmen-Shannon/oxyviz/common"
	"github.com/Carmen-Shannon/oxyviz/engine/light"
	"github.com/Carmen-Shannon/oxyviz/engine/model"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/material"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxyviz/engine/vertexpool"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// readbackRowBytes is the row pitch of a one-texel copy; copies require 256-byte rows.
const readbackRowBytes = 256

// initialInstanceCapacity sizes the instance buffer before the first frame grows it.
const initialInstanceCapacity = 64

// initFrameResources creates the sampler, the fallback texture and the fixed-size
// uniform, storage and readback buffers.
func (b *wgpuRendererBackendImpl) initFrameResources() error {
	var err error
	if b.sampler, err = b.newSampler("scene", common.SamplerStagingData{}); err != nil {
		return err
	}

	white := image.NewRGBA(image.Rect(0, 0, 1, 1))
	copy(white.Pix, []uint8{255, 255, 255, 255})
	tex, view, err := b.uploadTexture("white", white)
	if err != nil {
		return err
	}
	b.white.SetTexture(tex, view)

	var inst model.GPUInstance
	buffers := []struct {
		provider bind_group_provider.BindGroupProvider
		binding  int
		size     uint64
		usage    wgpu.BufferUsage
	}{
		{b.frameGroup, bindingCamera, 80, wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst},
		{b.frameGroup, bindingLights, uint64(light.LightBufferSize()), wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst},
		{b.frameGroup, bindingInstances, uint64(inst.Size() * initialInstanceCapacity), wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst},
		{b.frameGroup, bindingPassParams, maxPassesPerFrame * shader.PassParamsStride, wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst},
		{b.mergeGroup, 0, shader.MergeParamsSize, wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst},
	}
	for _, buf := range buffers {
		if _, err := b.ensureBuffer(buf.provider, buf.binding, buf.size, buf.usage); err != nil {
			return err
		}
	}

	b.readback, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Readback Buffer",
		Size:  readbackRowBytes,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	return err
}

func (b *wgpuRendererBackendImpl) newSampler(label string, data common.SamplerStagingData) (*wgpu.Sampler, error) {
	return b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label + " Sampler",
		AddressModeU:  common.Coalesce(data.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(data.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(data.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(data.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(data.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(data.MipmapFilter, wgpu.MipmapFilterModeNearest),
		LodMinClamp:   common.Coalesce(data.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(data.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(data.MaxAnisotropy, 1),
	})
}

// ensureBuffer returns the buffer at binding, replacing it with a larger one when it
// cannot hold size bytes. Replacing a buffer marks the provider's bind group stale.
func (b *wgpuRendererBackendImpl) ensureBuffer(p bind_group_provider.BindGroupProvider, binding int, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	if buf := p.Buffer(binding); buf != nil && p.BufferSize(binding) >= size {
		return buf, nil
	}
	if cur := p.BufferSize(binding); cur > 0 {
		size = max(size, cur+cur/2)
	}
	size = (size + 3) &^ 3
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: fmt.Sprintf("%s Buffer %d", p.Label(), binding),
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: %s buffer %d: %w", p.Label(), binding, err)
	}
	p.SetBuffer(binding, buf, size)
	return buf, nil
}

func (b *wgpuRendererBackendImpl) buildFrameGroup() error {
	entries := []wgpu.BindGroupEntry{
		{Binding: bindingCamera, Buffer: b.frameGroup.Buffer(bindingCamera), Size: wgpu.WholeSize},
		{Binding: bindingLights, Buffer: b.frameGroup.Buffer(bindingLights), Size: wgpu.WholeSize},
		{Binding: bindingInstances, Buffer: b.frameGroup.Buffer(bindingInstances), Size: wgpu.WholeSize},
		{Binding: bindingPassParams, Buffer: b.frameGroup.Buffer(bindingPassParams), Size: shader.PassParamsSize},
	}
	return b.buildGroup(b.frameGroup, b.frameLayout, entries)
}

func (b *wgpuRendererBackendImpl) buildGroup(p bind_group_provider.BindGroupProvider, layout *wgpu.BindGroupLayout, entries []wgpu.BindGroupEntry) error {
	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.Label() + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("wgpu: bind group %s: %w", p.Label(), err)
	}
	p.SetBindGroup(bg)
	return nil
}

// allocateTargets (re)creates every offscreen target and the shared depth texture at the
// configured size, then rebinds the peel and merge groups to the new views.
func (b *wgpuRendererBackendImpl) allocateTargets() error {
	b.releaseTargets()
	size := wgpu.Extent3D{Width: uint32(b.width), Height: uint32(b.height), DepthOrArrayLayers: 1}

	for _, t := range backend.Targets() {
		tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         t.String() + " Target",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     wgpu.TextureDimension2D,
			Format:        targetFormat,
			Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopySrc,
		})
		if err != nil {
			return fmt.Errorf("wgpu: target %s: %w", t, err)
		}
		view, err := tex.CreateView(nil)
		if err != nil {
			tex.Release()
			return err
		}
		b.targets[t] = bind_group_provider.NewBindGroupProvider(t.String(), bind_group_provider.WithTexture(tex, view))
	}

	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return err
	}
	depthView, err := depthTexture.CreateView(nil)
	if err != nil {
		depthTexture.Release()
		return err
	}
	b.depth.SetTexture(depthTexture, depthView)

	view := func(t backend.Target) *wgpu.TextureView {
		_, v := b.targets[t].Texture()
		return v
	}
	for layer := 1; layer <= backend.MaxLayers; layer++ {
		g := b.peelGroups[layer]
		g.SetTextureView(0, view(backend.TargetDepth0))
		g.SetTextureView(1, view(backend.DepthTarget(layer-1)))
		if err := b.buildGroup(g, b.peelLayout, []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: g.TextureView(0)},
			{Binding: 1, TextureView: g.TextureView(1)},
		}); err != nil {
			return err
		}
	}

	entries := []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: b.mergeGroup.Buffer(0), Size: wgpu.WholeSize},
	}
	for k := range backend.MaxLayers + 1 {
		b.mergeGroup.SetTextureView(k+1, view(backend.ColorTarget(k)))
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(k + 1), TextureView: b.mergeGroup.TextureView(k + 1)})
	}
	return b.buildGroup(b.mergeGroup, b.mergeLayout, entries)
}

func (b *wgpuRendererBackendImpl) releaseTargets() {
	for t, p := range b.targets {
		p.Release()
		delete(b.targets, t)
	}
	b.depth.Release()
	for _, g := range b.peelGroups {
		g.Release()
	}
}

// uploadTexture creates a sampled RGBA8 texture holding img.
func (b *wgpuRendererBackendImpl) uploadTexture(label string, img *image.RGBA) (*wgpu.Texture, *wgpu.TextureView, error) {
	staging := common.NewTextureStagingData(img)
	size := wgpu.Extent3D{Width: staging.Width, Height: staging.Height, DepthOrArrayLayers: 1}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label + " Texture",
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, nil, err
	}
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		staging.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  staging.Width * 4,
			RowsPerImage: staging.Height,
		},
		&size,
	)
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, err
	}
	return tex, view, nil
}

func (b *wgpuRendererBackendImpl) CreateModel(key string, m *model.Mesh) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("wgpu: model %q: %w", key, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	verts, indices := model.MarshalMesh(m)
	p := bind_group_provider.NewBindGroupProvider(key)
	vb, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: key + " Vertex Buffer",
		Size:  uint64(len(verts)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	ib, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: key + " Index Buffer",
		Size:  uint64(len(indices)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vb.Release()
		return err
	}
	b.queue.WriteBuffer(vb, 0, verts)
	b.queue.WriteBuffer(ib, 0, indices)
	p.SetMesh(vb, ib, len(indices)/4)

	if old, ok := b.models[key]; ok {
		old.Release()
	}
	b.models[key] = p
	return nil
}

func (b *wgpuRendererBackendImpl) HasModel(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.models[key]
	return ok
}

func (b *wgpuRendererBackendImpl) ReleaseModel(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.models[key]; ok {
		p.Release()
		delete(b.models, key)
	}
}

func (b *wgpuRendererBackendImpl) CreateTexture(name string, img *image.RGBA) error {
	if img == nil {
		return fmt.Errorf("wgpu: texture %q: nil image", name)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	tex, view, err := b.uploadTexture(name, common.FitImage(img, b.caps.MaxTextureSize))
	if err != nil {
		return fmt.Errorf("wgpu: texture %q: %w", name, err)
	}
	if old, ok := b.textures[name]; ok {
		old.Release()
		b.dropMaterials()
	}
	b.textures[name] = bind_group_provider.NewBindGroupProvider(name, bind_group_provider.WithTexture(tex, view))
	return nil
}

// dropMaterials releases every cached material group; they are rebuilt on next use.
func (b *wgpuRendererBackendImpl) dropMaterials() {
	for key, p := range b.materials {
		p.Release()
		delete(b.materials, key)
	}
}

func (b *wgpuRendererBackendImpl) HasTexture(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.textures[name]
	return ok
}

// materialGroup returns the bind group of m, built against the textures uploaded so far.
// A reference to a texture that was never uploaded draws as if it were absent.
func (b *wgpuRendererBackendImpl) materialGroup(m material.Material) (bind_group_provider.BindGroupProvider, error) {
	var resolved material.Material
	if _, ok := b.textures[m.Texture]; ok && m.Texture != "" {
		resolved.Texture = m.Texture
	}
	if _, ok := b.textures[m.Bumpmap]; ok && m.Bumpmap != "" {
		resolved.Bumpmap = m.Bumpmap
	}
	key := resolved.Key()
	if p, ok := b.materials[key]; ok && !p.Stale() {
		return p, nil
	}

	p := bind_group_provider.NewBindGroupProvider(key)
	flags := material.NewGPUMaterialParams(resolved)
	if _, err := b.ensureBuffer(p, 3, shader.MaterialFlagsSize, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst); err != nil {
		return nil, err
	}
	b.writeBuffers([]bind_group_provider.BufferWrite{{Provider: p, Binding: 3, Data: flags.Marshal()}})

	_, white := b.white.Texture()
	p.SetTextureView(0, white)
	p.SetTextureView(1, white)
	if resolved.Texture != "" {
		_, v := b.textures[resolved.Texture].Texture()
		p.SetTextureView(0, v)
	}
	if resolved.Bumpmap != "" {
		_, v := b.textures[resolved.Bumpmap].Texture()
		p.SetTextureView(1, v)
	}
	p.SetSampler(2, b.sampler)

	if err := b.buildGroup(p, b.materialLayout, []wgpu.BindGroupEntry{
		{Binding: 0, TextureView: p.TextureView(0)},
		{Binding: 1, TextureView: p.TextureView(1)},
		{Binding: 2, Sampler: p.Sampler(2)},
		{Binding: 3, Buffer: p.Buffer(3), Size: wgpu.WholeSize},
	}); err != nil {
		p.Release()
		return nil, err
	}
	if old, ok := b.materials[key]; ok {
		old.Release()
	}
	b.materials[key] = p
	return p, nil
}

func (b *wgpuRendererBackendImpl) UploadVertexChannel(ch vertexpool.Channel, data []float32) error {
	if ch.Width() == 0 {
		return fmt.Errorf("wgpu: unknown channel %d", int(ch))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channels[ch] = append(b.channels[ch][:0], data...)
	b.poolDirty = true
	return nil
}

// syncPool interleaves the uploaded channels into the pool vertex buffer.
func (b *wgpuRendererBackendImpl) syncPool() error {
	if !b.poolDirty {
		return nil
	}
	n := len(b.channels[vertexpool.ChannelPosition]) / 3
	if n == 0 {
		b.poolDirty = false
		return nil
	}
	read := func(ch vertexpool.Channel, i int) []float32 {
		w := ch.Width()
		if data := b.channels[ch]; (i+1)*w <= len(data) {
			return data[i*w : (i+1)*w]
		}
		return ch.Default()
	}

	var v model.GPUVertex
	buf := make([]byte, 0, n*v.Size())
	for i := range n {
		pos, nrm, col := read(vertexpool.ChannelPosition, i), read(vertexpool.ChannelNormal, i), read(vertexpool.ChannelColor, i)
		tex, bump := read(vertexpool.ChannelTexPos, i), read(vertexpool.ChannelBumpAxis, i)
		v = model.GPUVertex{
			Position: [3]float32(pos),
			Normal:   [3]float32(nrm),
			TexPos:   [2]float32(tex),
			Color:    [4]float32{col[0], col[1], col[2], read(vertexpool.ChannelOpacity, i)[0]},
			BumpAxis: [4]float32{bump[0], bump[1], bump[2], 0},
			Params:   [4]float32{read(vertexpool.ChannelShininess, i)[0], read(vertexpool.ChannelEmissive, i)[0], 0, 0},
		}
		buf = v.AppendTo(buf)
	}
	if _, err := b.ensureBuffer(b.poolMesh, bindingPoolVertices, uint64(len(buf)), wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst); err != nil {
		return err
	}
	b.writeBuffers([]bind_group_provider.BufferWrite{{Provider: b.poolMesh, Binding: bindingPoolVertices, Data: buf}})
	b.poolDirty = false
	return nil
}

// ReadPixel copies one texel of an offscreen target into the readback buffer and waits
// for the copy. Inside a frame the work encoded so far is submitted first.
func (b *wgpuRendererBackendImpl) ReadPixel(t backend.Target, x, y int) ([4]uint8, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.targets[t]
	if !ok {
		return [4]uint8{}, fmt.Errorf("%w: %s", backend.ErrUnknownTarget, t)
	}
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return [4]uint8{}, nil
	}
	if b.pass != nil {
		return [4]uint8{}, errors.New("wgpu: cannot read pixels inside a pass")
	}

	inFrame := b.encoder != nil
	if !inFrame {
		encoder, err := b.device.CreateCommandEncoder(nil)
		if err != nil {
			return [4]uint8{}, err
		}
		b.encoder = encoder
	}
	tex, _ := p.Texture()
	b.encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: uint32(x), Y: uint32(y)},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: b.readback,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  readbackRowBytes,
				RowsPerImage: 1,
			},
		},
		&wgpu.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
	)
	if err := b.submit(); err != nil {
		return [4]uint8{}, err
	}
	if inFrame {
		encoder, err := b.device.CreateCommandEncoder(nil)
		if err != nil {
			return [4]uint8{}, err
		}
		b.encoder = encoder
	}

	var status wgpu.BufferMapAsyncStatus
	if err := b.readback.MapAsync(wgpu.MapModeRead, 0, readbackRowBytes, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	}); err != nil {
		return [4]uint8{}, err
	}
	b.device.Poll(true, nil)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		common.Logger().Warn("wgpu: readback failed", zap.Stringer("target", t), zap.Int("status", int(status)))
		return [4]uint8{}, errors.New("wgpu: readback map failed")
	}
	var out [4]uint8
	copy(out[:], b.readback.GetMappedRange(0, 4))
	b.readback.Unmap()
	return out, nil
}
