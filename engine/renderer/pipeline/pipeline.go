// Package pipeline describes the fixed-function state of every render program.
package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxyviz/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string
	program     backend.Program
	format      wgpu.TextureFormat
	shader      shader.Shader

	renderPipeline *wgpu.RenderPipeline

	depthTestEnabled  bool
	depthWriteEnabled bool
	depthCompare      wgpu.CompareFunction
	peel              bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
	blendState        *wgpu.BlendState
}

// Pipeline is the configuration of one render pipeline: a program drawing into one color
// format. The GPU object is created by the backend and attached with SetRenderPipeline.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Program returns the program the pipeline runs.
	Program() backend.Program

	// Format returns the color target format.
	Format() wgpu.TextureFormat

	// Shader returns the shader module the pipeline runs.
	Shader() shader.Shader

	// FragmentEntryPoint returns the fragment entry of the program.
	FragmentEntryPoint() string

	// RenderPipeline returns the GPU pipeline, nil until SetRenderPipeline.
	RenderPipeline() *wgpu.RenderPipeline

	// DepthTestEnabled returns whether the pipeline has a depth attachment.
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	DepthWriteEnabled() bool

	// DepthCompare returns the depth comparison function.
	DepthCompare() wgpu.CompareFunction

	// BlendEnabled returns whether blending is enabled for this pipeline.
	BlendEnabled() bool

	// BlendState returns the blend state configured for this pipeline.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state, or nil if blending is not enabled
	BlendState() *wgpu.BlendState

	// Peel reports whether the pipeline binds the peel depth maps as group 2.
	Peel() bool

	// CullMode returns the cull mode configured for this pipeline.
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order configured for this pipeline.
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	WriteMask() wgpu.ColorWriteMask

	// SetRenderPipeline sets the render pipeline
	//
	// Parameters:
	//   - p: the WebGPU render pipeline to set
	SetRenderPipeline(p *wgpu.RenderPipeline)

	// Release frees the GPU pipeline.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a pipeline configuration with depth testing and writing on,
// LessEqual comparison, no blending and no culling.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - program: the program the pipeline runs
//   - format: the color target format
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, program backend.Program, format wgpu.TextureFormat, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		program:           program,
		format:            format,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		depthCompare:      wgpu.CompareFunctionLessEqual,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Key builds the cache key of a program drawing into format with the given cull mode.
func Key(program backend.Program, format wgpu.TextureFormat, cull wgpu.CullMode) string {
	return fmt.Sprintf("%s/%d/%d", program, format, cull)
}

// ForProgram returns the configuration of program p drawing into format.
//
// Lit blends straight alpha over its target so an opaque layer keeps alpha 1. Depth,
// peel and pick passes overwrite their targets. Merge draws a full-screen triangle with
// no depth attachment and never culls.
//
// Closed shapes are drawn with wgpu.CullModeBack so a transparent solid contributes one
// peel layer per surface it covers, not two. Open surfaces use wgpu.CullModeNone.
//
// Parameters:
//   - p: the program
//   - format: the color target format
//   - cull: the faces discarded by the rasterizer
//
// Returns:
//   - Pipeline: the configuration, without a GPU pipeline attached
//   - error: for unknown programs
func ForProgram(p backend.Program, format wgpu.TextureFormat, cull wgpu.CullMode) (Pipeline, error) {
	if p == backend.ProgramMerge {
		cull = wgpu.CullModeNone
	}
	key := Key(p, format, cull)
	switch p {
	case backend.ProgramLit:
		return NewPipeline(key, p, format,
			WithShader(shader.Scene()),
			WithBlend(straightAlphaOver()),
			WithCullMode(cull),
		), nil
	case backend.ProgramDepth, backend.ProgramPick:
		return NewPipeline(key, p, format,
			WithShader(shader.Scene()),
			WithCullMode(cull),
		), nil
	case backend.ProgramPeelColor, backend.ProgramPeelDepth:
		return NewPipeline(key, p, format,
			WithShader(shader.Scene()),
			WithPeel(true),
			WithCullMode(cull),
		), nil
	case backend.ProgramMerge:
		return NewPipeline(key, p, format,
			WithShader(shader.Merge()),
			WithNoDepth(),
		), nil
	}
	return nil, fmt.Errorf("pipeline: unknown program %s", p)
}

func straightAlphaOver() *wgpu.BlendState {
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
	}
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Program() backend.Program {
	return p.program
}

func (p *pipeline) Format() wgpu.TextureFormat {
	return p.format
}

func (p *pipeline) Shader() shader.Shader {
	return p.shader
}

func (p *pipeline) FragmentEntryPoint() string {
	if p.shader == nil {
		return ""
	}
	e, _ := p.shader.FragmentEntryPoint(p.program)
	return e
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthCompare() wgpu.CompareFunction {
	return p.depthCompare
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendState != nil
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) Peel() bool {
	return p.peel
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
}
