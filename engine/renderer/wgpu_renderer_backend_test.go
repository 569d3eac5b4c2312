package renderer

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestPickSurfaceFormat(t *testing.T) {
	assert.Equal(t, wgpu.TextureFormatBGRA8Unorm,
		pickSurfaceFormat([]wgpu.TextureFormat{wgpu.TextureFormatBGRA8UnormSrgb, wgpu.TextureFormatBGRA8Unorm}))
	assert.Equal(t, wgpu.TextureFormatRGBA8UnormSrgb,
		pickSurfaceFormat([]wgpu.TextureFormat{wgpu.TextureFormatRGBA8UnormSrgb}))
}

func TestNewWGPUBackendNeedsSurface(t *testing.T) {
	_, err := newWGPURendererBackend(nil, false)
	assert.Error(t, err)
}
