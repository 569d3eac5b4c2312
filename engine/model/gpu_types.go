package model

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUVertex is the GPU-aligned form of one mesh or vertex-pool vertex.
// Size: 80 bytes (std430 aligned, no padding required).
type GPUVertex struct {
	Position [3]float32 // offset  0: model-space position
	Normal   [3]float32 // offset 12: model-space normal
	TexPos   [2]float32 // offset 24: texture coordinate
	Color    [4]float32 // offset 32: rgb color multiplier + opacity
	BumpAxis [4]float32 // offset 48: bump tangent (xyz), w unused
	Params   [4]float32 // offset 64: shininess multiplier, emissive, unused, unused
}

// Size returns the size of the GPUVertex struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the vertex for GPU upload.
//
// Returns:
//   - []byte: 80-byte buffer ready for GPU upload
func (g *GPUVertex) Marshal() []byte {
	return g.AppendTo(make([]byte, 0, 80))
}

// AppendTo appends the serialized vertex to buf.
func (g *GPUVertex) AppendTo(buf []byte) []byte {
	buf = putFloats(buf, g.Position[:]...)
	buf = putFloats(buf, g.Normal[:]...)
	buf = putFloats(buf, g.TexPos[:]...)
	buf = putFloats(buf, g.Color[:]...)
	buf = putFloats(buf, g.BumpAxis[:]...)
	return putFloats(buf, g.Params[:]...)
}

// NewGPUVertex converts a template vertex. Template vertices carry a unit shininess
// multiplier and no emission; the instance supplies both.
func NewGPUVertex(v Vertex) GPUVertex {
	return GPUVertex{
		Position: v.Position,
		Normal:   v.Normal,
		TexPos:   v.TexPos,
		Color:    [4]float32{v.Color[0], v.Color[1], v.Color[2], v.Opacity},
		BumpAxis: [4]float32{v.BumpAxis[0], v.BumpAxis[1], v.BumpAxis[2], 0},
		Params:   [4]float32{1, 0, 0, 0},
	}
}

// MarshalMesh serializes a mesh into its vertex and index buffers.
//
// Parameters:
//   - m: the mesh to serialize
//
// Returns:
//   - []byte: interleaved GPUVertex data
//   - []byte: little-endian uint32 indices
func MarshalMesh(m *Mesh) ([]byte, []byte) {
	verts := make([]byte, 0, len(m.Vertices)*80)
	for _, v := range m.Vertices {
		g := NewGPUVertex(v)
		verts = g.AppendTo(verts)
	}
	idx := make([]byte, 4*len(m.Indices))
	for i, n := range m.Indices {
		binary.LittleEndian.PutUint32(idx[4*i:], n)
	}
	return verts, idx
}

// GPUInstance is the GPU-aligned per-instance record read by the scene shader.
// Size: 160 bytes (std430 aligned, no padding required).
type GPUInstance struct {
	Model  [16]float32 // offset   0: model matrix, column major
	Normal [12]float32 // offset  64: normal matrix as three vec4 columns
	Color  [4]float32  // offset 112: rgb color + opacity
	Pick   [4]float32  // offset 128: false color for the pick program
	Params [4]float32  // offset 144: shininess, emissive, unused, unused
}

// Size returns the size of the GPUInstance struct in bytes.
func (g *GPUInstance) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the instance for GPU upload.
//
// Returns:
//   - []byte: 160-byte buffer ready for GPU upload
func (g *GPUInstance) Marshal() []byte {
	return g.AppendTo(make([]byte, 0, 160))
}

// AppendTo appends the serialized instance to buf.
func (g *GPUInstance) AppendTo(buf []byte) []byte {
	buf = putFloats(buf, g.Model[:]...)
	buf = putFloats(buf, g.Normal[:]...)
	buf = putFloats(buf, g.Color[:]...)
	buf = putFloats(buf, g.Pick[:]...)
	return putFloats(buf, g.Params[:]...)
}

func putFloats(buf []byte, vs ...float32) []byte {
	for _, v := range vs {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}
