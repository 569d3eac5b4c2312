package light

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxGPULights is the maximum number of lights marshaled into the light buffer per frame.
const MaxGPULights = 16

// GPULight is the GPU-aligned representation of a single light source.
// Size: 64 bytes (std430 / WGSL aligned).
type GPULight struct {
	Position   [3]float32 // offset  0: world-space position (point/spot)
	LightType  uint32     // offset 12: 0 = directional, 1 = point, 2 = spot
	Color      [3]float32 // offset 16: RGB color
	Intensity  float32    // offset 28: scalar multiplier
	Direction  [3]float32 // offset 32: normalized travel direction (directional/spot)
	LightRange float32    // offset 44: attenuation cutoff distance, 0 = none
	InnerCone  float32    // offset 48: cos(inner half-angle) for spot
	OuterCone  float32    // offset 52: cos(outer half-angle) for spot
	_pad       [2]uint32  // offset 56: padding to 64-byte alignment
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, 0, 64)
	buf = appendFloats(buf, g.Position[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, g.LightType)
	buf = appendFloats(buf, g.Color[:]...)
	buf = appendFloats(buf, g.Intensity)
	buf = appendFloats(buf, g.Direction[:]...)
	buf = appendFloats(buf, g.LightRange, g.InnerCone, g.OuterCone)
	return binary.LittleEndian.AppendUint64(buf, 0)
}

// GPULightHeader is the header prepended to the light buffer.
// Size: 16 bytes (vec3 + u32, std430 aligned).
type GPULightHeader struct {
	AmbientColor [3]float32 // offset 0: scene ambient RGB
	LightCount   uint32     // offset 12: number of lights following the header
}

// Size returns the size of the GPULightHeader struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (h *GPULightHeader) Size() int {
	return int(unsafe.Sizeof(*h))
}

// Marshal serializes the header for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (h *GPULightHeader) Marshal() []byte {
	buf := appendFloats(make([]byte, 0, 16), h.AmbientColor[:]...)
	return binary.LittleEndian.AppendUint32(buf, h.LightCount)
}

// ToGPULight converts a Light to its GPU representation.
func ToGPULight(l Light) GPULight {
	return GPULight{
		Position:   l.Position(),
		LightType:  uint32(l.Type()),
		Color:      l.Color(),
		Intensity:  l.Intensity(),
		Direction:  l.Direction(),
		LightRange: l.Range(),
		InnerCone:  l.InnerCone(),
		OuterCone:  l.OuterCone(),
	}
}

// MarshalLightBuffer marshals the enabled lights into a fixed-size buffer:
//
//	[GPULightHeader (16 bytes)] [GPULight × MaxGPULights (64 bytes each)]
//
// Unused slots are zero. Lights beyond MaxGPULights are dropped.
//
// Parameters:
//   - lights: the scene lights (only enabled lights are included)
//   - ambient: the scene ambient color
//
// Returns:
//   - []byte: the marshaled buffer ready for GPU upload
func MarshalLightBuffer(lights []Light, ambient mgl32.Vec3) []byte {
	size := LightBufferSize()
	buf := make([]byte, 16, size)
	count := uint32(0)
	for _, l := range lights {
		if !l.Enabled() || count >= MaxGPULights {
			continue
		}
		g := ToGPULight(l)
		buf = append(buf, g.Marshal()...)
		count++
	}
	h := GPULightHeader{AmbientColor: ambient, LightCount: count}
	copy(buf[:16], h.Marshal())
	return buf[:size]
}

// LightBufferSize returns the byte size of the buffer MarshalLightBuffer produces.
func LightBufferSize() int {
	return 16 + 64*MaxGPULights
}

func appendFloats(buf []byte, vs ...float32) []byte {
	for _, v := range vs {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}
