// Package change records which primitives and vertices were mutated since the
// previous frame and propagates vertex mutations to the primitives that consume them.
package change

import (
	"slices"

	"github.com/bits-and-blooms/bitset"
)

// Changes is the drained dirty state for one frame.
// Both slices are ascending and hold each key at most once.
type Changes struct {
	// Objects holds the arena handles of dirty primitives, including every
	// primitive that references a dirty vertex.
	Objects []int32
	// Vertices holds the ids of dirty vertex-pool entries.
	Vertices []int32
}

// Empty reports whether nothing changed.
func (c Changes) Empty() bool {
	return len(c.Objects) == 0 && len(c.Vertices) == 0
}

// Tracker is the per-scene dirty set with a vertex -> dependent-primitive reverse table.
// It is not safe for concurrent use; the frame loop is its only writer.
type Tracker struct {
	objects  bitset.BitSet
	vertices bitset.BitSet

	dependents map[int32][]int32
}

// NewTracker creates an empty Tracker.
//
// Returns:
//   - *Tracker: the newly created tracker
func NewTracker() *Tracker {
	return &Tracker{
		dependents: make(map[int32][]int32),
	}
}

// MarkObject adds a primitive to the dirty set. Repeated marks coalesce.
//
// Parameters:
//   - key: the primitive's arena handle
func (t *Tracker) MarkObject(key int32) {
	if key >= 0 {
		t.objects.Set(uint(key))
	}
}

// MarkVertex adds a vertex to the dirty set. Its dependents are marked when drained.
//
// Parameters:
//   - id: the vertex id
func (t *Tracker) MarkVertex(id int32) {
	if id >= 0 {
		t.vertices.Set(uint(id))
	}
}

// Depend records that object consumes vertex.
// Recording the same edge twice keeps a single edge.
//
// Parameters:
//   - vertex: the vertex id
//   - object: the consuming primitive's arena handle
func (t *Tracker) Depend(vertex, object int32) {
	deps := t.dependents[vertex]
	if slices.Contains(deps, object) {
		return
	}
	t.dependents[vertex] = append(deps, object)
}

// Undepend removes the edge between vertex and object.
//
// Parameters:
//   - vertex: the vertex id
//   - object: the primitive's arena handle
func (t *Tracker) Undepend(vertex, object int32) {
	deps := t.dependents[vertex]
	i := slices.Index(deps, object)
	if i < 0 {
		return
	}
	deps = slices.Delete(deps, i, i+1)
	if len(deps) == 0 {
		delete(t.dependents, vertex)
		return
	}
	t.dependents[vertex] = deps
}

// Dependents returns the primitives that reference vertex.
// The returned slice must not be modified.
func (t *Tracker) Dependents(vertex int32) []int32 {
	return t.dependents[vertex]
}

// Pending reports whether anything was marked since the last Drain.
func (t *Tracker) Pending() bool {
	return t.objects.Any() || t.vertices.Any()
}

// Drain returns the dirty state accumulated since the previous call and clears it.
// Every primitive depending on a dirty vertex is added to Objects before returning.
//
// Returns:
//   - Changes: the dirty primitives and vertices for this frame
func (t *Tracker) Drain() Changes {
	var c Changes
	if t.vertices.Any() {
		c.Vertices = make([]int32, 0, t.vertices.Count())
		for v, ok := t.vertices.NextSet(0); ok; v, ok = t.vertices.NextSet(v + 1) {
			c.Vertices = append(c.Vertices, int32(v))
			for _, o := range t.dependents[int32(v)] {
				t.objects.Set(uint(o))
			}
		}
	}
	if t.objects.Any() {
		c.Objects = make([]int32, 0, t.objects.Count())
		for o, ok := t.objects.NextSet(0); ok; o, ok = t.objects.NextSet(o + 1) {
			c.Objects = append(c.Objects, int32(o))
		}
	}
	t.objects.ClearAll()
	t.vertices.ClearAll()
	return c
}
