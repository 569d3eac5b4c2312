package pipeline

import (
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithShader sets the shader module the pipeline runs.
//
// Parameters:
//   - s: the shader
//
// Returns:
//   - PipelineBuilderOption: a function that sets the shader for this pipeline
func WithShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.shader = s
	}
}

// WithPeel makes the pipeline layout include the peel depth-map group.
func WithPeel(peel bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.peel = peel
	}
}

// WithDepth sets the depth-stencil state. A pipeline without a depth test has no depth
// attachment, so write and compare are then ignored.
//
// Parameters:
//   - test: whether fragments are depth tested
//   - write: whether passing fragments write depth
//   - compare: the comparison against the stored depth
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth state for this pipeline
func WithDepth(test, write bool, compare wgpu.CompareFunction) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthTestEnabled = test
		p.depthWriteEnabled = write
		p.depthCompare = compare
	}
}

// WithNoDepth disables the depth test and write, as for full-screen passes.
func WithNoDepth() PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthTestEnabled = false
		p.depthWriteEnabled = false
	}
}

// WithBlend sets the color blend state. Nil disables blending so fragments replace the target.
//
// Parameters:
//   - state: the blend state, or nil
//
// Returns:
//   - PipelineBuilderOption: a function that sets the blend state for this pipeline
func WithBlend(state *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendState = state
	}
}

// WithRasterizer sets the primitive assembly state.
//
// Parameters:
//   - topology: the primitive topology
//   - frontFace: the winding of front faces
//   - cull: which faces are culled; wgpu.CullModeNone draws both, as two-sided lighting expects
//
// Returns:
//   - PipelineBuilderOption: a function that sets the rasterizer state for this pipeline
func WithRasterizer(topology wgpu.PrimitiveTopology, frontFace wgpu.FrontFace, cull wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
		p.frontFace = frontFace
		p.cullMode = cull
	}
}

// WithCullMode sets which faces the rasterizer discards. Front faces wind counter-clockwise.
func WithCullMode(cull wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = cull
	}
}

// WithWriteMask sets the color channels the pipeline writes.
func WithWriteMask(writeMask wgpu.ColorWriteMask) PipelineBuilderOption {
	return func(p *pipeline) {
		p.writeMask = writeMask
	}
}
