// Package picking encodes render ids as opaque colors for the pick pass and decodes the
// pixel read back under the cursor.
package picking

import "github.com/Carmen-Shannon/oxyviz/engine/scene"

// MaxID is the largest id an RGB8 pick color can carry.
const MaxID = scene.MaxID

// Hit is a resolved pick.
type Hit struct {
	// Handle is the picked primitive.
	Handle scene.Handle
	// ID is the render id read back from the pick target.
	ID uint32
	// Sub is the point index within a curve or points primitive, 0 otherwise.
	Sub int
}

// Encode packs id into an opaque RGBA8 color, red carrying the low byte.
// Ids outside [1, MaxID] encode as the transparent "nothing" color.
//
// Parameters:
//   - id: the render id
//
// Returns:
//   - [4]uint8: the pick color
func Encode(id uint32) [4]uint8 {
	if id == 0 || id > MaxID {
		return [4]uint8{}
	}
	return [4]uint8{uint8(id), uint8(id >> 8), uint8(id >> 16), 255}
}

// Decode unpacks a pick color. A zero alpha or a zero id means nothing was hit.
//
// Parameters:
//   - c: the pixel read back from the pick target
//
// Returns:
//   - uint32: the render id
//   - bool: true if the pixel carries an id
func Decode(c [4]uint8) (uint32, bool) {
	if c[3] == 0 {
		return 0, false
	}
	id := uint32(c[0]) | uint32(c[1])<<8 | uint32(c[2])<<16
	return id, id != 0
}

// EncodeFloat returns the pick color of id as normalized floats for instance data.
func EncodeFloat(id uint32) [4]float32 {
	c := Encode(id)
	return [4]float32{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, float32(c[3]) / 255}
}

// DecodeFloat quantizes a normalized color back to RGBA8 and decodes it.
func DecodeFloat(c [4]float32) (uint32, bool) {
	var b [4]uint8
	for i, v := range c {
		b[i] = uint8(min(max(v, 0), 1)*255 + 0.5)
	}
	return Decode(b)
}

// Resolve decodes a pick pixel and maps it to the primitive it belongs to.
// Stale ids of hidden or deleted primitives resolve to a miss.
//
// Parameters:
//   - sc: the scene the id was drawn from
//   - c: the pixel read back from the pick target
//
// Returns:
//   - Hit: the resolved pick
//   - bool: false on a miss
func Resolve(sc scene.Scene, c [4]uint8) (Hit, bool) {
	id, ok := Decode(c)
	if !ok {
		return Hit{}, false
	}
	h, sub, ok := sc.ResolvePick(id)
	if !ok {
		return Hit{}, false
	}
	return Hit{Handle: h, ID: id, Sub: sub}, true
}
