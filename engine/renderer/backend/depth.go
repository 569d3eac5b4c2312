package backend

// depthScale is the largest 24-bit depth key.
const depthScale = 1<<24 - 1

// DepthKey quantizes a window-space depth in [0, 1] to a 24-bit key of 1-z.
// Nearer fragments get larger keys; the far plane and cleared depth maps are 0.
func DepthKey(z float32) uint32 {
	z = min(max(z, 0), 1)
	return uint32((1-float64(z))*depthScale + 0.5)
}

// EncodeDepth stores the depth key of z in the RGB channels of an opaque RGBA8 color,
// red carrying the high byte.
func EncodeDepth(z float32) [4]uint8 {
	k := DepthKey(z)
	return [4]uint8{uint8(k >> 16), uint8(k >> 8), uint8(k), 255}
}

// DecodeDepth recovers the depth key from an encoded color.
func DecodeDepth(c [4]uint8) uint32 {
	return uint32(c[0])<<16 | uint32(c[1])<<8 | uint32(c[2])
}

// DepthFloat converts a depth key back to window-space depth.
func DepthFloat(key uint32) float32 {
	return float32(1 - float64(key)/depthScale)
}

// PeelKeep reports whether a fragment with depth key k belongs to peel layer `layer`:
// it must be in front of the opaque depth d0 and, past the first layer, strictly
// behind the previous layer's depth prev.
func PeelKeep(k, d0, prev uint32, layer int) bool {
	if k <= d0 {
		return false
	}
	return layer <= 1 || k < prev
}

// Composite merges peel layers over the opaque color c0 with the over operator,
// back to front. layers[0] is the nearest layer. Layer colors are straight (not
// premultiplied) alpha; the result keeps the alpha of c0.
func Composite(c0 [4]float32, layers ...[4]float32) [4]float32 {
	out := c0
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		a := l[3]
		for c := range 3 {
			out[c] = l[c]*a + out[c]*(1-a)
		}
	}
	return out
}
