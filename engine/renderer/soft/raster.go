package soft

import (
	"image"

	"github.com/Carmen-Shannon/oxyviz/engine/light"
	"github.com/Carmen-Shannon/oxyviz/engine/model"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxyviz/engine/vertexpool"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// rvert is a transformed vertex carrying every interpolated attribute.
type rvert struct {
	clip      mgl32.Vec4
	world     mgl32.Vec3
	normal    mgl32.Vec3
	color     mgl32.Vec4
	tex       mgl32.Vec2
	bump      mgl32.Vec3
	shininess float32
	emissive  float32
}

func lerp(a, b rvert, t float32) rvert {
	s := 1 - t
	return rvert{
		clip:      a.clip.Mul(s).Add(b.clip.Mul(t)),
		world:     a.world.Mul(s).Add(b.world.Mul(t)),
		normal:    a.normal.Mul(s).Add(b.normal.Mul(t)),
		color:     a.color.Mul(s).Add(b.color.Mul(t)),
		tex:       a.tex.Mul(s).Add(b.tex.Mul(t)),
		bump:      a.bump.Mul(s).Add(b.bump.Mul(t)),
		shininess: a.shininess*s + b.shininess*t,
		emissive:  a.emissive*s + b.emissive*t,
	}
}

func blend3(v *[3]rvert, w [3]float32) rvert {
	var out rvert
	for i := range 3 {
		out.world = out.world.Add(v[i].world.Mul(w[i]))
		out.normal = out.normal.Add(v[i].normal.Mul(w[i]))
		out.color = out.color.Add(v[i].color.Mul(w[i]))
		out.tex = out.tex.Add(v[i].tex.Mul(w[i]))
		out.bump = out.bump.Add(v[i].bump.Mul(w[i]))
		out.shininess += v[i].shininess * w[i]
		out.emissive += v[i].emissive * w[i]
	}
	return out
}

// drawState is the per-draw context of the fragment stage.
type drawState struct {
	pass  *backend.Pass
	u     *backend.Uniforms
	tex   *image.RGBA
	bump  *image.RGBA
	pick  [4]float32
	color [][4]float32
	cull  bool
}

func (b *Backend) newDrawState(d backend.Draw) *drawState {
	s := &drawState{
		pass:  b.pass,
		u:     &b.frame.Uniforms,
		color: b.targets[b.pass.Target],
		cull:  d.Cull,
	}
	if d.Material.Texture != "" {
		s.tex = b.textures[d.Material.Texture]
	}
	if d.Material.Bumpmap != "" {
		s.bump = b.textures[d.Material.Bumpmap]
	}
	return s
}

// vertex applies the instance to one vertex. Colors and shininess multiply, emission
// takes the larger of instance and vertex.
func (b *Backend) vertex(in *backend.Instance, pos, normal, col mgl32.Vec3, opacity float32, tex mgl32.Vec2, bump mgl32.Vec3, shininess, emissive float32) rvert {
	world := in.Model.Mul4x1(pos.Vec4(1)).Vec3()
	if in.Emissive {
		emissive = 1
	}
	return rvert{
		clip:      b.frame.Uniforms.ViewProjection.Mul4x1(world.Vec4(1)),
		world:     world,
		normal:    in.Normal.Mul3x1(normal),
		color:     mgl32.Vec4{in.Color[0] * col[0], in.Color[1] * col[1], in.Color[2] * col[2], in.Opacity * opacity},
		tex:       tex,
		bump:      in.Model.Mat3().Mul3x1(bump),
		shininess: in.Shininess * shininess,
		emissive:  emissive,
	}
}

func (b *Backend) drawMesh(m *model.Mesh, d backend.Draw) {
	s := b.newDrawState(d)
	verts := make([]rvert, len(m.Vertices))
	for i := range d.InstanceCount {
		in := &b.frame.Instances[d.FirstInstance+i]
		s.pick = in.Pick
		for j, v := range m.Vertices {
			verts[j] = b.vertex(in, v.Position, v.Normal, v.Color, v.Opacity, v.TexPos, v.BumpAxis, 1, 0)
		}
		for t := 0; t+2 < len(m.Indices); t += 3 {
			b.triangle(s, verts[m.Indices[t]], verts[m.Indices[t+1]], verts[m.Indices[t+2]])
		}
	}
}

func (b *Backend) drawPool(d backend.Draw) {
	s := b.newDrawState(d)
	idx := b.frame.Indices[d.FirstIndex : d.FirstIndex+d.IndexCount]
	n := len(b.channels[vertexpool.ChannelPosition]) / 3
	for i := range d.InstanceCount {
		in := &b.frame.Instances[d.FirstInstance+i]
		s.pick = in.Pick
		for t := 0; t+2 < len(idx); t += 3 {
			var tri [3]rvert
			ok := true
			for k := range 3 {
				id := int(idx[t+k])
				if id >= n {
					ok = false
					break
				}
				tri[k] = b.poolVertex(in, id)
			}
			if ok {
				b.triangle(s, tri[0], tri[1], tri[2])
			}
		}
	}
}

func (b *Backend) channel(ch vertexpool.Channel, id int) []float32 {
	w := ch.Width()
	data := b.channels[ch]
	if (id+1)*w > len(data) {
		return nil
	}
	return data[id*w : (id+1)*w]
}

func vec3Of(v []float32, def mgl32.Vec3) mgl32.Vec3 {
	if len(v) < 3 {
		return def
	}
	return mgl32.Vec3{v[0], v[1], v[2]}
}

func scalarOf(v []float32, def float32) float32 {
	if len(v) < 1 {
		return def
	}
	return v[0]
}

func (b *Backend) poolVertex(in *backend.Instance, id int) rvert {
	var tex mgl32.Vec2
	if t := b.channel(vertexpool.ChannelTexPos, id); t != nil {
		tex = mgl32.Vec2{t[0], t[1]}
	}
	return b.vertex(in,
		vec3Of(b.channel(vertexpool.ChannelPosition, id), mgl32.Vec3{}),
		vec3Of(b.channel(vertexpool.ChannelNormal, id), mgl32.Vec3{0, 0, 1}),
		vec3Of(b.channel(vertexpool.ChannelColor, id), mgl32.Vec3{1, 1, 1}),
		scalarOf(b.channel(vertexpool.ChannelOpacity, id), 1),
		tex,
		vec3Of(b.channel(vertexpool.ChannelBumpAxis, id), mgl32.Vec3{1, 0, 0}),
		scalarOf(b.channel(vertexpool.ChannelShininess, id), 0.6),
		scalarOf(b.channel(vertexpool.ChannelEmissive, id), 0),
	)
}

// triangle clips against the near plane (z >= 0 in clip space) and rasterizes the
// resulting fan.
func (b *Backend) triangle(s *drawState, v0, v1, v2 rvert) {
	in := [3]rvert{v0, v1, v2}
	var poly [4]rvert
	n := 0
	for i := range 3 {
		a, c := in[i], in[(i+1)%3]
		da, dc := a.clip[2], c.clip[2]
		if da >= 0 {
			poly[n] = a
			n++
		}
		if (da >= 0) != (dc >= 0) {
			poly[n] = lerp(a, c, da/(da-dc))
			n++
		}
	}
	for i := 1; i+1 < n; i++ {
		b.raster(s, &[3]rvert{poly[0], poly[i], poly[i+1]})
	}
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func (b *Backend) raster(s *drawState, v *[3]rvert) {
	W, H := float32(b.width), float32(b.height)
	var sx, sy, sz, iw [3]float32
	for i := range 3 {
		w := v[i].clip[3]
		if w <= 1e-9 {
			return
		}
		iw[i] = 1 / w
		sx[i] = (v[i].clip[0]*iw[i] + 1) * 0.5 * W
		sy[i] = (1 - v[i].clip[1]*iw[i]) * 0.5 * H
		sz[i] = v[i].clip[2] * iw[i]
	}
	// Screen y points down, so counter-clockwise front faces have a negative area.
	area := edge(sx[0], sy[0], sx[1], sy[1], sx[2], sy[2])
	if math32.Abs(area) < 1e-12 || (s.cull && area > 0) {
		return
	}
	x0 := max(int(math32.Floor(min(sx[0], sx[1], sx[2]))), 0)
	x1 := min(int(math32.Ceil(max(sx[0], sx[1], sx[2]))), b.width-1)
	y0 := max(int(math32.Floor(min(sy[0], sy[1], sy[2]))), 0)
	y1 := min(int(math32.Ceil(max(sy[0], sy[1], sy[2]))), b.height-1)

	for py := y0; py <= y1; py++ {
		fy := float32(py) + 0.5
		for px := x0; px <= x1; px++ {
			fx := float32(px) + 0.5
			l0 := edge(sx[1], sy[1], sx[2], sy[2], fx, fy) / area
			l1 := edge(sx[2], sy[2], sx[0], sy[0], fx, fy) / area
			l2 := 1 - l0 - l1
			if l0 < 0 || l1 < 0 || l2 < 0 {
				continue
			}
			z := l0*sz[0] + l1*sz[1] + l2*sz[2]
			if z < 0 || z > 1 {
				continue
			}
			w := [3]float32{l0 * iw[0], l1 * iw[1], l2 * iw[2]}
			sum := w[0] + w[1] + w[2]
			for i := range w {
				w[i] /= sum
			}
			b.fragment(s, px, py, z, v, w)
		}
	}
}

func (b *Backend) fragment(s *drawState, px, py int, z float32, v *[3]rvert, w [3]float32) {
	i := py*b.width + px
	p := s.pass
	if p.Program == backend.ProgramPeelColor || p.Program == backend.ProgramPeelDepth {
		d0 := backend.DecodeDepth(quantize(b.targets[backend.TargetDepth0][i]))
		var prev uint32
		if p.Layer > 1 {
			prev = backend.DecodeDepth(quantize(b.targets[backend.DepthTarget(p.Layer-1)][i]))
		}
		if !backend.PeelKeep(backend.DepthKey(z), d0, prev, p.Layer) {
			return
		}
	}
	if z > b.depth[i] {
		return
	}
	b.depth[i] = z

	switch p.Program {
	case backend.ProgramDepth, backend.ProgramPeelDepth:
		s.color[i] = encodedDepth(z)
	case backend.ProgramPick:
		s.color[i] = s.pick
	case backend.ProgramPeelColor:
		f := blend3(v, w)
		c := s.shade(&f)
		s.color[i] = [4]float32{c[0], c[1], c[2], f.color[3]}
	case backend.ProgramLit:
		f := blend3(v, w)
		c := s.shade(&f)
		a := min(max(f.color[3], 0), 1)
		dst := s.color[i]
		s.color[i] = [4]float32{
			c[0]*a + dst[0]*(1-a),
			c[1]*a + dst[1]*(1-a),
			c[2]*a + dst[2]*(1-a),
			1,
		}
	}
}

func encodedDepth(z float32) [4]float32 {
	e := backend.EncodeDepth(z)
	return [4]float32{float32(e[0]) / 255, float32(e[1]) / 255, float32(e[2]) / 255, 1}
}

// shade returns the lit, clamped color of a fragment.
func (s *drawState) shade(f *rvert) mgl32.Vec3 {
	base := f.color.Vec3()
	if s.tex != nil {
		t := sample(s.tex, f.tex)
		base = mgl32.Vec3{base[0] * t[0], base[1] * t[1], base[2] * t[2]}
	}
	n := f.normal
	if s.bump != nil {
		n = perturb(n, f.bump, sample(s.bump, f.tex))
	}
	if f.emissive >= 0.5 {
		return clamp3(base)
	}
	return clamp3(light.Shade(s.u.Lights, s.u.Ambient, n, f.world, s.u.Eye, base, f.shininess))
}

// perturb maps a tangent-space normal-map texel onto the surface frame spanned by the
// bump axis and the geometric normal.
func perturb(n, axis mgl32.Vec3, texel [4]float32) mgl32.Vec3 {
	if n.Len() < 1e-9 {
		return n
	}
	n = n.Normalize()
	t := axis.Sub(n.Mul(axis.Dot(n)))
	if t.Len() < 1e-9 {
		return n
	}
	t = t.Normalize()
	bt := n.Cross(t)
	tx, ty, tz := texel[0]*2-1, texel[1]*2-1, texel[2]*2-1
	return t.Mul(tx).Add(bt.Mul(ty)).Add(n.Mul(tz))
}

func clamp3(c mgl32.Vec3) mgl32.Vec3 {
	for i := range c {
		c[i] = min(max(c[i], 0), 1)
	}
	return c
}

// sample reads img bilinearly at uv with repeat wrapping; v runs bottom to top.
func sample(img *image.RGBA, uv mgl32.Vec2) [4]float32 {
	r := img.Bounds()
	w, h := r.Dx(), r.Dy()
	if w == 0 || h == 0 {
		return [4]float32{1, 1, 1, 1}
	}
	u := uv[0] - math32.Floor(uv[0])
	v := 1 - (uv[1] - math32.Floor(uv[1]))
	fx := u*float32(w) - 0.5
	fy := v*float32(h) - 0.5
	x0, y0 := int(math32.Floor(fx)), int(math32.Floor(fy))
	tx, ty := fx-float32(x0), fy-float32(y0)

	texel := func(x, y int) [4]float32 {
		x = ((x % w) + w) % w
		y = ((y % h) + h) % h
		o := img.PixOffset(r.Min.X+x, r.Min.Y+y)
		p := img.Pix[o : o+4]
		return [4]float32{float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255, float32(p[3]) / 255}
	}
	a, bb := texel(x0, y0), texel(x0+1, y0)
	c, d := texel(x0, y0+1), texel(x0+1, y0+1)
	var out [4]float32
	for i := range out {
		top := a[i]*(1-tx) + bb[i]*tx
		bot := c[i]*(1-tx) + d[i]*tx
		out[i] = top*(1-ty) + bot*ty
	}
	return out
}
