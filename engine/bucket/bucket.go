// Package bucket partitions the visible primitives of a scene into draw buckets by
// transparency and material, grouping instanced primitives by model.
package bucket

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxyviz/engine/model"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/material"
	"github.com/Carmen-Shannon/oxyviz/engine/scene"
	"github.com/Carmen-Shannon/oxyviz/engine/vertexpool"
)

// Batch is a run of primitives drawn instanced from one model.
type Batch struct {
	Model   string
	Handles []scene.Handle
}

// Bucket is every visible primitive sharing a transparency class and material.
type Bucket struct {
	Material    material.Material
	Transparent bool
	// Batches holds instanced primitives, ordered by model.
	Batches []Batch
	// Indices is the flattened vertex-pool index list of Surfaces.
	Indices []uint32
	// Surfaces are the triangles and quads drawn from the vertex pool.
	Surfaces []scene.Handle
}

// Len returns the number of primitives in the bucket.
func (b *Bucket) Len() int {
	n := len(b.Surfaces)
	for _, batch := range b.Batches {
		n += len(batch.Handles)
	}
	return n
}

// Buckets is the result of one Sort.
type Buckets struct {
	Opaque      []*Bucket
	Transparent []*Bucket
	// Skipped lists the materials whose textures were not ready, one entry per skipped bucket.
	Skipped []material.Material
}

// All returns the opaque buckets followed by the transparent ones.
func (bs Buckets) All() []*Bucket {
	out := make([]*Bucket, 0, len(bs.Opaque)+len(bs.Transparent))
	out = append(out, bs.Opaque...)
	return append(out, bs.Transparent...)
}

// HasTransparent reports whether any transparent bucket will be drawn.
func (bs Buckets) HasTransparent() bool {
	return len(bs.Transparent) > 0
}

// Len returns the number of buckets to draw.
func (bs Buckets) Len() int {
	return len(bs.Opaque) + len(bs.Transparent)
}

// ModelKey names the backend model a primitive is drawn with. Shared kinds use the kind
// name, paths use the kind they are instanced from, and compounds get a per-object key
// that changes with their mesh. Vertex-backed kinds have no model.
//
// Parameters:
//   - o: the primitive snapshot
//
// Returns:
//   - string: the model key, empty for vertex-backed primitives
func ModelKey(o *scene.Object) string {
	rec := o.Kind.Record()
	switch {
	case rec.Shared:
		return rec.Name
	case rec.Path:
		return rec.Instance.String()
	case o.Kind == model.KindCompound:
		return CompoundKey(o.Handle, o.MeshVersion)
	}
	return ""
}

// CompoundKey names the model of a compound primitive.
func CompoundKey(h scene.Handle, version uint64) string {
	return fmt.Sprintf("compound/%d/%d", h, version)
}

// IsCompoundKey reports whether key names a compound model.
func IsCompoundKey(key string) bool {
	return strings.HasPrefix(key, "compound/")
}

type bucketKey struct {
	transparent bool
	material    string
}

// Sort walks the visible primitives of sc in id order and partitions them.
// A primitive is transparent when its opacity is below 1, its compound mesh carries
// transparency, or (for triangles and quads) any referenced vertex has a live opacity
// below 1. Buckets whose material ready reports false are dropped and counted in Skipped.
//
// Parameters:
//   - sc: the scene
//   - ready: reports whether a textured material can be drawn; nil treats all as ready
//
// Returns:
//   - Buckets: the partition
func Sort(sc scene.Scene, ready func(material.Material) bool) Buckets {
	pool := sc.Vertices()
	byKey := make(map[bucketKey]*Bucket)
	batchIdx := make(map[*Bucket]map[string]int)
	var order []*Bucket

	for _, h := range sc.Visible() {
		o, ok := sc.Object(h)
		if !ok {
			continue
		}
		k := bucketKey{transparent: transparent(pool, &o), material: o.Material.Key()}
		b, ok := byKey[k]
		if !ok {
			b = &Bucket{Material: o.Material, Transparent: k.transparent}
			byKey[k] = b
			batchIdx[b] = make(map[string]int)
			order = append(order, b)
		}

		if o.Kind.Record().VertexBacked {
			b.Surfaces = append(b.Surfaces, h)
			b.Indices = appendSurface(b.Indices, o.Vertices)
			continue
		}
		m := ModelKey(&o)
		i, ok := batchIdx[b][m]
		if !ok {
			i = len(b.Batches)
			batchIdx[b][m] = i
			b.Batches = append(b.Batches, Batch{Model: m})
		}
		b.Batches[i].Handles = append(b.Batches[i].Handles, h)
	}

	var out Buckets
	for _, b := range order {
		if b.Material.Class() != material.ClassPlain && ready != nil && !ready(b.Material) {
			out.Skipped = append(out.Skipped, b.Material)
			continue
		}
		slices.SortStableFunc(b.Batches, func(x, y Batch) int { return strings.Compare(x.Model, y.Model) })
		if b.Transparent {
			out.Transparent = append(out.Transparent, b)
		} else {
			out.Opaque = append(out.Opaque, b)
		}
	}
	byMaterial := func(x, y *Bucket) int { return strings.Compare(x.Material.Key(), y.Material.Key()) }
	slices.SortStableFunc(out.Opaque, byMaterial)
	slices.SortStableFunc(out.Transparent, byMaterial)
	return out
}

func transparent(pool *vertexpool.Pool, o *scene.Object) bool {
	if o.Transparent() {
		return true
	}
	for _, v := range o.Vertices {
		if pool.Opacity(v) < 1 {
			return true
		}
	}
	return false
}

// appendSurface appends the triangle list of a triangle (v0 v1 v2) or quad
// (v0 v1 v2, v0 v2 v3).
func appendSurface(idx []uint32, v []int32) []uint32 {
	switch len(v) {
	case 3:
		return append(idx, uint32(v[0]), uint32(v[1]), uint32(v[2]))
	case 4:
		return append(idx,
			uint32(v[0]), uint32(v[1]), uint32(v[2]),
			uint32(v[0]), uint32(v[2]), uint32(v[3]),
		)
	}
	return idx
}
