package material

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUMaterialParams is the per-draw material uniform of the scene shader.
// Size: 16 bytes (one vec4<f32>, std430 aligned).
type GPUMaterialParams struct {
	Flags [4]float32 // offset 0: has texture, has bump map, unused, unused
}

// NewGPUMaterialParams builds the uniform for m.
func NewGPUMaterialParams(m Material) GPUMaterialParams {
	var g GPUMaterialParams
	if m.Texture != "" {
		g.Flags[0] = 1
	}
	if m.Bumpmap != "" {
		g.Flags[1] = 1
	}
	return g
}

// Size returns the size of the GPUMaterialParams struct in bytes.
func (g *GPUMaterialParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniform for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (g *GPUMaterialParams) Marshal() []byte {
	buf := make([]byte, 16)
	for i, f := range g.Flags {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}
