package light

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// SpecularExponent maps a shininess in [0, 1] to the Blinn-Phong exponent.
func SpecularExponent(shininess float32) float32 {
	return 1 + 99*shininess
}

// Shade evaluates the lighting model at a surface point: ambient plus Lambert diffuse
// and Blinn-Phong specular per enabled light. Surfaces are two-sided, so a normal
// facing away from the eye is flipped before lighting.
//
// Parameters:
//   - lights: the scene lights
//   - ambient: the ambient color
//   - normal: the world-space surface normal, not necessarily normalized
//   - position: the world-space surface position
//   - eye: the world-space camera position
//   - color: the surface color
//   - shininess: specular strength in [0, 1]
//
// Returns:
//   - mgl32.Vec3: the lit color, unclamped
func Shade(lights []Light, ambient, normal, position, eye, color mgl32.Vec3, shininess float32) mgl32.Vec3 {
	n := normalize3(normal)
	v := normalize3(eye.Sub(position))
	if n.Dot(v) < 0 {
		n = n.Mul(-1)
	}
	out := mul3(ambient, color)
	exp := SpecularExponent(shininess)
	for _, l := range lights {
		if !l.Enabled() {
			continue
		}
		var dir mgl32.Vec3
		atten := l.Intensity()
		switch l.Type() {
		case LightTypeDirectional:
			dir = l.Direction().Mul(-1)
		default:
			toLight := l.Position().Sub(position)
			d := toLight.Len()
			dir = normalize3(toLight)
			if r := l.Range(); r > 0 {
				atten *= clamp01(1 - d/r)
			}
			if l.Type() == LightTypeSpot {
				cos := l.Direction().Dot(dir.Mul(-1))
				atten *= smoothstep(l.OuterCone(), l.InnerCone(), cos)
			}
		}
		if atten <= 0 {
			continue
		}
		diff := max(n.Dot(dir), 0)
		var spec float32
		if diff > 0 && shininess > 0 {
			h := normalize3(dir.Add(v))
			spec = shininess * math32.Pow(max(n.Dot(h), 0), exp)
		}
		lc := l.Color().Mul(atten)
		out = out.Add(mul3(lc, color.Mul(diff))).Add(lc.Mul(spec))
	}
	return out
}

func mul3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}

func smoothstep(e0, e1, x float32) float32 {
	if e1 == e0 {
		if x >= e0 {
			return 1
		}
		return 0
	}
	t := clamp01((x - e0) / (e1 - e0))
	return t * t * (3 - 2*t)
}
