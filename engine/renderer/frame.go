package renderer

import (
	"github.com/Carmen-Shannon/oxyviz/engine/bucket"
	"github.com/Carmen-Shannon/oxyviz/engine/geom"
	"github.com/Carmen-Shannon/oxyviz/engine/model"
	"github.com/Carmen-Shannon/oxyviz/engine/picking"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/material"
	"github.com/Carmen-Shannon/oxyviz/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// frame is the instance and index data of one frame plus its draw lists.
type frame struct {
	data        backend.FrameData
	opaque      []backend.Draw
	transparent []backend.Draw
}

// draws returns the draws a program consumes: lit and depth passes draw the opaque
// buckets, peel passes the transparent ones, and pick passes everything.
func (f *frame) draws(p backend.Program) []backend.Draw {
	switch p {
	case backend.ProgramLit, backend.ProgramDepth:
		return f.opaque
	case backend.ProgramPeelColor, backend.ProgramPeelDepth:
		return f.transparent
	case backend.ProgramPick:
		out := make([]backend.Draw, 0, len(f.opaque)+len(f.transparent))
		out = append(out, f.opaque...)
		return append(out, f.transparent...)
	}
	return nil
}

// buildFrame expands the buckets into instances and draws. Pick frames leave out
// primitives that are not pickable and draw everything untextured.
func (r *renderer) buildFrame(sc scene.Scene, bs bucket.Buckets, pickOnly bool, stats *FrameStats) (*frame, error) {
	cam := sc.Camera()
	ambient, bg := sc.Ambient(), sc.Background()
	f := &frame{data: backend.FrameData{Uniforms: backend.Uniforms{
		ViewProjection: cam.ViewProjection(),
		Eye:            cam.Eye(),
		Lights:         sc.Lights(),
		Ambient:        ambient,
		Background:     bg,
	}}}

	for _, b := range bs.All() {
		out := &f.opaque
		if b.Transparent {
			out = &f.transparent
		}
		mat := b.Material
		if pickOnly {
			mat = material.Material{}
		}

		for _, batch := range b.Batches {
			closed := !bucket.IsCompoundKey(batch.Model)
			first := uint32(len(f.data.Instances))
			for _, h := range batch.Handles {
				o, ok := sc.Object(h)
				if !ok || (pickOnly && !o.Pickable) {
					continue
				}
				if o.Kind == model.KindCompound {
					if err := r.ensureCompound(&o, batch.Model, stats); err != nil {
						return nil, err
					}
				}
				f.data.Instances = appendInstances(f.data.Instances, &o)
			}
			n := uint32(len(f.data.Instances)) - first
			kept := n
			if closed {
				kept = partitionMirrored(f.data.Instances[first:])
			}
			if kept > 0 {
				*out = append(*out, backend.Draw{
					Model:         batch.Model,
					FirstInstance: first,
					InstanceCount: kept,
					Material:      mat,
					Cull:          closed,
				})
			}
			if n > kept {
				*out = append(*out, backend.Draw{
					Model:         batch.Model,
					FirstInstance: first + kept,
					InstanceCount: n - kept,
					Material:      mat,
				})
			}
		}

		base := uint32(len(f.data.Indices))
		f.data.Indices = append(f.data.Indices, b.Indices...)
		offset := base
		for _, h := range b.Surfaces {
			o, ok := sc.Object(h)
			if !ok {
				continue
			}
			count := uint32(3)
			if len(o.Vertices) == 4 {
				count = 6
			}
			first := offset
			offset += count
			if pickOnly && !o.Pickable {
				continue
			}
			f.data.Instances = append(f.data.Instances, backend.Instance{
				Model:     mgl32.Ident4(),
				Normal:    mgl32.Ident3(),
				Color:     o.Color,
				Opacity:   o.Opacity,
				Pick:      picking.EncodeFloat(o.ID),
				Shininess: o.Shininess,
				Emissive:  o.Emissive,
			})
			*out = append(*out, backend.Draw{
				Model:         backend.PoolModel,
				FirstInstance: uint32(len(f.data.Instances)) - 1,
				InstanceCount: 1,
				FirstIndex:    first,
				IndexCount:    count,
				Material:      mat,
			})
		}
	}
	return f, nil
}

// partitionMirrored moves the instances whose transform reverses winding to the end of
// in, keeping relative order, and returns how many keep their winding.
func partitionMirrored(in []backend.Instance) uint32 {
	var mirrored []backend.Instance
	n := 0
	for _, x := range in {
		if x.Model.Mat3().Det() < 0 {
			mirrored = append(mirrored, x)
			continue
		}
		in[n] = x
		n++
	}
	copy(in[n:], mirrored)
	return uint32(n)
}

// appendInstances appends the instances a primitive draws with: one for shared and
// compound kinds, one cylinder per curve segment and one sphere per point.
func appendInstances(dst []backend.Instance, o *scene.Object) []backend.Instance {
	rec := o.Kind.Record()
	switch {
	case o.Kind == model.KindCurve:
		for i := 0; i+1 < len(o.Points); i++ {
			p0, p1 := o.Points[i].Pos, o.Points[i+1].Pos
			seg := p1.Sub(p0)
			l := seg.Len()
			if l == 0 {
				continue
			}
			d := 2 * o.PointRadius(i)
			dst = append(dst, instance(o, geom.ModelMatrix(p0, seg, o.Up, mgl32.Vec3{l, d, d}), o.PointColor(i), o.ID+uint32(i)))
		}
	case o.Kind == model.KindPoints:
		for i, p := range o.Points {
			d := 2 * o.PointRadius(i)
			dst = append(dst, instance(o, geom.ModelMatrix(p.Pos, o.Axis, o.Up, mgl32.Vec3{d, d, d}), o.PointColor(i), o.ID+uint32(i)))
		}
	case rec.Shared, o.Kind == model.KindCompound:
		dst = append(dst, instance(o, geom.ModelMatrix(o.Pos, o.Axis, o.Up, o.Size), o.Color, o.ID))
	}
	return dst
}

func instance(o *scene.Object, m mgl32.Mat4, color mgl32.Vec3, id uint32) backend.Instance {
	return backend.Instance{
		Model:     m,
		Normal:    geom.NormalMatrix(m),
		Color:     color,
		Opacity:   o.Opacity,
		Pick:      picking.EncodeFloat(id),
		Shininess: o.Shininess,
		Emissive:  o.Emissive,
	}
}
