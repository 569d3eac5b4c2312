package bind_group_provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBindGroupProviderLabel(t *testing.T) {
	p := NewBindGroupProvider("frame")
	assert.Equal(t, "frame", p.Label())
	assert.Nil(t, p.BindGroup())
	assert.True(t, p.Stale())
}

func TestBindingsMarkStale(t *testing.T) {
	p := NewBindGroupProvider("material")
	p.SetBindGroup(nil)
	// Without a bind group the provider is always stale.
	assert.True(t, p.Stale())

	impl := p.(*bindGroupProvider)
	impl.stale = false
	p.SetTextureView(0, nil)
	assert.True(t, impl.stale)

	impl.stale = false
	p.SetTextureView(0, nil)
	assert.False(t, impl.stale, "rebinding the same view is a no-op")

	p.SetSampler(2, nil)
	assert.True(t, impl.stale)
}

func TestBufferSizeAndWrites(t *testing.T) {
	p := NewBindGroupProvider("frame")
	assert.Zero(t, p.BufferSize(0))
	w := BufferWrite{Provider: p, Binding: 0, Data: make([]byte, 16)}
	assert.False(t, w.Fits(), "no buffer allocated")
	assert.False(t, BufferWrite{}.Fits())
}

func TestReleaseEmptyProvider(t *testing.T) {
	p := NewBindGroupProvider("mesh")
	p.SetMesh(nil, nil, 36)
	assert.Equal(t, 36, p.IndexCount())
	p.Release()
	assert.Zero(t, p.IndexCount())
	assert.Nil(t, p.VertexBuffer())
	assert.Nil(t, p.IndexBuffer())
	tex, view := p.Texture()
	assert.Nil(t, tex)
	assert.Nil(t, view)
	assert.True(t, p.Stale())
}
