// Package bind_group_provider holds the GPU resources behind one bind group, one mesh or
// one texture, and tracks when a bind group must be rebuilt.
package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// bindGroup is the GPU bind group created for this provider, or nil before the backend builds it.
	bindGroup *wgpu.BindGroup
	// stale is set when a binding changed after the bind group was built.
	stale bool

	// buffers holds the owned GPU buffers, keyed by binding index.
	buffers map[int]*wgpu.Buffer
	// bufferSizes holds the allocated size of each buffer.
	bufferSizes map[int]uint64
	// textureViews holds borrowed texture views, keyed by binding index.
	textureViews map[int]*wgpu.TextureView
	// samplers holds borrowed samplers, keyed by binding index.
	samplers map[int]*wgpu.Sampler

	// texture and textureView are owned: the provider is a texture or render target.
	texture     *wgpu.Texture
	textureView *wgpu.TextureView

	// vertexBuffer, indexBuffer and indexCount describe an uploaded mesh.
	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   int
}

// BindGroupProvider owns the GPU resources of one bind group, mesh or texture.
//
// Buffers, the texture and the mesh buffers are owned and released by Release or when
// replaced. Texture views and samplers set per binding are borrowed from other providers
// and are never released here. Changing any binding marks the bind group stale; the
// backend rebuilds it before the next draw that uses it.
type BindGroupProvider interface {
	// Release releases every owned GPU resource and the bind group.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the created bind group for shader binding.
	// Returns nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// Stale reports whether the bind group is missing or out of date.
	Stale() bool

	// SetBindGroup replaces the bind group, releasing the previous one, and clears Stale.
	//
	// Parameters:
	//   - bg: the created bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// Buffer returns the buffer at binding, or nil if not set.
	Buffer(binding int) *wgpu.Buffer

	// BufferSize returns the allocated size of the buffer at binding.
	BufferSize(binding int) uint64

	// SetBuffer stores an owned buffer of the given size at binding, releasing the buffer
	// it replaces.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	//   - size: the allocated size in bytes
	SetBuffer(binding int, buf *wgpu.Buffer, size uint64)

	// TextureView returns the view bound at binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.TextureView: the texture view or nil
	TextureView(binding int) *wgpu.TextureView

	// SetTextureView binds a borrowed texture view.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tv: the texture view to store
	SetTextureView(binding int, tv *wgpu.TextureView)

	// Sampler returns the sampler bound at binding, or nil if not set.
	Sampler(binding int) *wgpu.Sampler

	// SetSampler binds a borrowed sampler.
	//
	// Parameters:
	//   - binding: the binding index
	//   - s: the sampler to store
	SetSampler(binding int, s *wgpu.Sampler)

	// Texture returns the owned texture and its default view.
	Texture() (*wgpu.Texture, *wgpu.TextureView)

	// SetTexture stores an owned texture and view, releasing the ones it replaces.
	SetTexture(tex *wgpu.Texture, view *wgpu.TextureView)

	// VertexBuffer returns the GPU vertex buffer, or nil if not initialized.
	VertexBuffer() *wgpu.Buffer

	// IndexBuffer returns the GPU index buffer, or nil if not initialized.
	IndexBuffer() *wgpu.Buffer

	// IndexCount returns the number of indices for draw calls.
	IndexCount() int

	// SetMesh stores owned vertex and index buffers, releasing the ones they replace.
	//
	// Parameters:
	//   - vertices: the vertex buffer
	//   - indices: the index buffer
	//   - indexCount: the number of indices
	SetMesh(vertices, indices *wgpu.Buffer, indexCount int)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: the debug label
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		stale:        true,
		buffers:      make(map[int]*wgpu.Buffer),
		bufferSizes:  make(map[int]uint64),
		textureViews: make(map[int]*wgpu.TextureView),
		samplers:     make(map[int]*wgpu.Sampler),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) Stale() bool {
	return p.stale || p.bindGroup == nil
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
	p.stale = false
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) BufferSize(binding int) uint64 {
	return p.bufferSizes[binding]
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer, size uint64) {
	if old := p.buffers[binding]; old != nil && old != buf {
		old.Release()
	}
	p.buffers[binding] = buf
	p.bufferSizes[binding] = size
	p.stale = true
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) SetTextureView(binding int, tv *wgpu.TextureView) {
	if cur, ok := p.textureViews[binding]; ok && cur == tv {
		return
	}
	p.textureViews[binding] = tv
	p.stale = true
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	if cur, ok := p.samplers[binding]; ok && cur == s {
		return
	}
	p.samplers[binding] = s
	p.stale = true
}

func (p *bindGroupProvider) Texture() (*wgpu.Texture, *wgpu.TextureView) {
	return p.texture, p.textureView
}

func (p *bindGroupProvider) SetTexture(tex *wgpu.Texture, view *wgpu.TextureView) {
	p.releaseTexture()
	p.texture = tex
	p.textureView = view
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) SetMesh(vertices, indices *wgpu.Buffer, indexCount int) {
	p.releaseMesh()
	p.vertexBuffer = vertices
	p.indexBuffer = indices
	p.indexCount = indexCount
}

func (p *bindGroupProvider) releaseTexture() {
	if p.textureView != nil {
		p.textureView.Release()
		p.textureView = nil
	}
	if p.texture != nil {
		p.texture.Release()
		p.texture = nil
	}
}

func (p *bindGroupProvider) releaseMesh() {
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
	p.indexCount = 0
}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
		delete(p.bufferSizes, i)
	}
	clear(p.textureViews)
	clear(p.samplers)
	p.releaseTexture()
	p.releaseMesh()
	p.stale = true
}
