// Package shader holds the WGSL programs of the WebGPU backend together with the bind group
// and vertex layouts they declare.
package shader

import (
	_ "embed"
	"fmt"
	"regexp"

	"github.com/Carmen-Shannon/oxyviz/engine/renderer/backend"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed scene.wgsl
var sceneSource string

//go:embed merge.wgsl
var mergeSource string

// Bind group indices of the scene shader.
const (
	// GroupFrame holds the camera, lights, instances and per-pass parameters.
	GroupFrame = 0
	// GroupMaterial holds the texture, bumpmap, sampler and material flags of a draw.
	GroupMaterial = 1
	// GroupPeel holds the depth maps a peel pass reads.
	GroupPeel = 2
)

// Sizes of the small uniforms the shaders declare.
const (
	// PassParamsSize is the size of the per-pass parameter block.
	PassParamsSize = 16
	// PassParamsStride separates consecutive pass parameter blocks in the dynamic-offset
	// buffer; it matches the minimum uniform offset alignment.
	PassParamsStride = 256
	// MaterialFlagsSize is the size of the material flags uniform.
	MaterialFlagsSize = 16
	// MergeParamsSize is the size of the merge layer-count uniform.
	MergeParamsSize = 16
	// VertexStride is the size of one interleaved vertex (model.GPUVertex).
	VertexStride = 80
)

var entryPointPattern = regexp.MustCompile(`@(vertex|fragment|compute)\s+fn\s+(\w+)\s*\(`)

// shader is the implementation of the Shader interface.
type shader struct {
	key             string
	source          string
	vertexEntry     string
	fragmentEntries map[backend.Program]string
	groups          []wgpu.BindGroupLayoutDescriptor
	vertexLayouts   []wgpu.VertexBufferLayout
	module          *wgpu.ShaderModuleDescriptor
}

// Shader is a WGSL module plus the layouts a pipeline needs to run it.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	Key() string

	// Source retrieves the WGSL shader source code.
	Source() string

	// Module returns the descriptor used to compile the shader.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor

	// VertexEntryPoint returns the name of the vertex stage entry.
	VertexEntryPoint() string

	// FragmentEntryPoint returns the fragment entry that implements program p.
	//
	// Parameters:
	//   - p: the program of the pass
	//
	// Returns:
	//   - string: the entry point name
	//   - bool: false if the shader does not implement p
	FragmentEntryPoint(p backend.Program) (string, bool)

	// BindGroupLayoutDescriptors returns the bind group layouts in group order.
	BindGroupLayoutDescriptors() []wgpu.BindGroupLayoutDescriptor

	// VertexLayouts returns the vertex buffer layouts, empty for shaders that generate
	// their vertices.
	VertexLayouts() []wgpu.VertexBufferLayout

	// EntryPoints lists every entry point declared in the source.
	EntryPoints() []string
}

var _ Shader = &shader{}

// NewShader creates a Shader from WGSL source.
//
// Parameters:
//   - key: a unique identifier for the shader, used as its label
//   - source: the WGSL source
//   - opts: options declaring entry points and layouts
//
// Returns:
//   - Shader: the shader
func NewShader(key, source string, opts ...ShaderBuilderOption) Shader {
	s := &shader{
		key:             key,
		source:          source,
		fragmentEntries: make(map[backend.Program]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.module = &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) VertexEntryPoint() string {
	return s.vertexEntry
}

func (s *shader) FragmentEntryPoint(p backend.Program) (string, bool) {
	e, ok := s.fragmentEntries[p]
	return e, ok
}

func (s *shader) BindGroupLayoutDescriptors() []wgpu.BindGroupLayoutDescriptor {
	return s.groups
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) EntryPoints() []string {
	var out []string
	for _, m := range entryPointPattern.FindAllStringSubmatch(s.source, -1) {
		out = append(out, m[2])
	}
	return out
}

// Scene returns the shader behind every program except ProgramMerge.
//
// Group 0 is the frame group, group 1 the material group and group 2 the peel group; peel
// programs use all three, the other programs the first two.
func Scene() Shader {
	return NewShader("scene", sceneSource,
		WithVertexEntryPoint("vs_main"),
		WithFragmentEntryPoint(backend.ProgramLit, "fs_lit"),
		WithFragmentEntryPoint(backend.ProgramDepth, "fs_depth"),
		WithFragmentEntryPoint(backend.ProgramPeelColor, "fs_peel_color"),
		WithFragmentEntryPoint(backend.ProgramPeelDepth, "fs_peel_depth"),
		WithFragmentEntryPoint(backend.ProgramPick, "fs_pick"),
		WithBindGroupLayout(frameLayout()),
		WithBindGroupLayout(materialLayout()),
		WithBindGroupLayout(peelLayout()),
		WithVertexLayouts(vertexLayout()),
	)
}

// Merge returns the full-screen compositing shader.
func Merge() Shader {
	return NewShader("merge", mergeSource,
		WithVertexEntryPoint("vs_fullscreen"),
		WithFragmentEntryPoint(backend.ProgramMerge, "fs_merge"),
		WithBindGroupLayout(mergeLayout()),
	)
}

func bufferEntry(binding uint32, vis wgpu.ShaderStage, t wgpu.BufferBindingType) wgpu.BindGroupLayoutEntry {
	e := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: vis}
	e.Buffer.Type = t
	return e
}

func textureEntry(binding uint32) wgpu.BindGroupLayoutEntry {
	e := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: wgpu.ShaderStageFragment}
	e.Texture.SampleType = wgpu.TextureSampleTypeFloat
	e.Texture.ViewDimension = wgpu.TextureViewDimension2D
	return e
}

func frameLayout() wgpu.BindGroupLayoutDescriptor {
	params := bufferEntry(3, wgpu.ShaderStageFragment, wgpu.BufferBindingTypeUniform)
	params.Buffer.HasDynamicOffset = true
	params.Buffer.MinBindingSize = PassParamsSize
	return wgpu.BindGroupLayoutDescriptor{
		Label: "frame",
		Entries: []wgpu.BindGroupLayoutEntry{
			bufferEntry(0, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, wgpu.BufferBindingTypeUniform),
			bufferEntry(1, wgpu.ShaderStageFragment, wgpu.BufferBindingTypeReadOnlyStorage),
			bufferEntry(2, wgpu.ShaderStageVertex, wgpu.BufferBindingTypeReadOnlyStorage),
			params,
		},
	}
}

func materialLayout() wgpu.BindGroupLayoutDescriptor {
	samp := wgpu.BindGroupLayoutEntry{Binding: 2, Visibility: wgpu.ShaderStageFragment}
	samp.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	return wgpu.BindGroupLayoutDescriptor{
		Label: "material",
		Entries: []wgpu.BindGroupLayoutEntry{
			textureEntry(0),
			textureEntry(1),
			samp,
			bufferEntry(3, wgpu.ShaderStageFragment, wgpu.BufferBindingTypeUniform),
		},
	}
}

func peelLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label:   "peel",
		Entries: []wgpu.BindGroupLayoutEntry{textureEntry(0), textureEntry(1)},
	}
}

func mergeLayout() wgpu.BindGroupLayoutDescriptor {
	entries := []wgpu.BindGroupLayoutEntry{
		bufferEntry(0, wgpu.ShaderStageFragment, wgpu.BufferBindingTypeUniform),
	}
	for k := range backend.MaxLayers + 1 {
		entries = append(entries, textureEntry(uint32(k+1)))
	}
	return wgpu.BindGroupLayoutDescriptor{Label: "merge", Entries: entries}
}

// vertexLayout mirrors model.GPUVertex.
func vertexLayout() wgpu.VertexBufferLayout {
	attrs := []struct {
		format wgpu.VertexFormat
		offset uint64
	}{
		{wgpu.VertexFormatFloat32x3, 0},
		{wgpu.VertexFormatFloat32x3, 12},
		{wgpu.VertexFormatFloat32x2, 24},
		{wgpu.VertexFormatFloat32x4, 32},
		{wgpu.VertexFormatFloat32x4, 48},
		{wgpu.VertexFormatFloat32x4, 64},
	}
	out := wgpu.VertexBufferLayout{
		ArrayStride: VertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
	}
	for i, a := range attrs {
		out.Attributes = append(out.Attributes, wgpu.VertexAttribute{
			Format:         a.format,
			Offset:         a.offset,
			ShaderLocation: uint32(i),
		})
	}
	return out
}

// Group returns the layout descriptor of group i.
//
// Parameters:
//   - s: the shader
//   - i: the group index
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the descriptor
//   - error: if s declares no group i
func Group(s Shader, i int) (wgpu.BindGroupLayoutDescriptor, error) {
	groups := s.BindGroupLayoutDescriptors()
	if i < 0 || i >= len(groups) {
		return wgpu.BindGroupLayoutDescriptor{}, fmt.Errorf("shader: %s has no bind group %d", s.Key(), i)
	}
	return groups[i], nil
}
