package shader

import (
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/backend"
	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderBuilderOption is a functional option used to configure a Shader during construction.
type ShaderBuilderOption func(*shader)

// WithVertexEntryPoint names the vertex stage entry.
func WithVertexEntryPoint(name string) ShaderBuilderOption {
	return func(s *shader) {
		s.vertexEntry = name
	}
}

// WithFragmentEntryPoint names the fragment entry implementing program p.
//
// Parameters:
//   - p: the program
//   - name: the WGSL function name
//
// Returns:
//   - ShaderBuilderOption: a function that records the entry point
func WithFragmentEntryPoint(p backend.Program, name string) ShaderBuilderOption {
	return func(s *shader) {
		s.fragmentEntries[p] = name
	}
}

// WithBindGroupLayout appends the layout of the next bind group.
func WithBindGroupLayout(desc wgpu.BindGroupLayoutDescriptor) ShaderBuilderOption {
	return func(s *shader) {
		s.groups = append(s.groups, desc)
	}
}

// WithVertexLayouts sets the vertex buffer layouts.
func WithVertexLayouts(layouts ...wgpu.VertexBufferLayout) ShaderBuilderOption {
	return func(s *shader) {
		s.vertexLayouts = layouts
	}
}
