// Package vertexpool holds the shared, growable per-channel vertex storage used by
// free-form triangles and quads.
package vertexpool

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// DefaultChunkSize is the number of vertices added each time the pool grows.
const DefaultChunkSize = 256

var (
	// ErrUnknownVertex is returned for ids that were never allocated or were released.
	ErrUnknownVertex = errors.New("vertexpool: unknown vertex")
	// ErrChannelWidth is returned when a write carries the wrong number of components.
	ErrChannelWidth = errors.New("vertexpool: wrong component count for channel")
)

// Marker receives vertex dirty notifications.
type Marker interface {
	MarkVertex(id int32)
}

// Pool is a growable structure-of-channels vertex store indexed by vertex id.
// Ids are never reused; released vertices are tombstoned.
// It is not safe for concurrent use.
type Pool struct {
	chunk    int
	n        int
	capacity int

	data  [channelCount][]float32
	dirty [channelCount]bool
	live  bitset.BitSet

	marker Marker
}

// PoolBuilderOption is a functional option for configuring a Pool.
type PoolBuilderOption func(*Pool)

// WithChunkSize sets the number of vertices added on each growth step.
// Values < 1 keep the default.
//
// Parameters:
//   - n: vertices per chunk
//
// Returns:
//   - PoolBuilderOption: option function to apply
func WithChunkSize(n int) PoolBuilderOption {
	return func(p *Pool) {
		if n > 0 {
			p.chunk = n
		}
	}
}

// WithMarker sets the receiver of vertex dirty notifications.
//
// Parameters:
//   - m: the marker, typically the scene's change tracker
//
// Returns:
//   - PoolBuilderOption: option function to apply
func WithMarker(m Marker) PoolBuilderOption {
	return func(p *Pool) {
		p.marker = m
	}
}

// NewPool creates an empty Pool.
//
// Parameters:
//   - options: functional options for the pool
//
// Returns:
//   - *Pool: the newly created pool
func NewPool(options ...PoolBuilderOption) *Pool {
	p := &Pool{chunk: DefaultChunkSize}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Len returns the number of vertices ever allocated, including released ones.
func (p *Pool) Len() int { return p.n }

// Cap returns the current backing capacity in vertices.
func (p *Pool) Cap() int { return p.capacity }

// Live reports whether id refers to an allocated, unreleased vertex.
func (p *Pool) Live(id int32) bool {
	return id >= 0 && int(id) < p.n && p.live.Test(uint(id))
}

// Allocate returns a fresh vertex id initialized to channel defaults.
// Storage grows by one chunk when full; existing channel data is copied into the new arrays.
//
// Returns:
//   - int32: the new vertex id
func (p *Pool) Allocate() int32 {
	if p.n == p.capacity {
		p.grow()
	}
	id := p.n
	p.n++
	for c := range channelCount {
		w := channelWidths[c]
		copy(p.data[c][id*w:(id+1)*w], channelDefaults[c])
		p.dirty[c] = true
	}
	p.live.Set(uint(id))
	p.mark(int32(id))
	return int32(id)
}

func (p *Pool) grow() {
	p.capacity += p.chunk
	for c := range channelCount {
		next := make([]float32, p.capacity*channelWidths[c])
		copy(next, p.data[c])
		p.data[c] = next
	}
}

// Release tombstones a vertex. Its storage stays in place and its id is never reused.
//
// Parameters:
//   - id: the vertex to release
//
// Returns:
//   - error: ErrUnknownVertex if id is not live
func (p *Pool) Release(id int32) error {
	if !p.Live(id) {
		return fmt.Errorf("release %d: %w", id, ErrUnknownVertex)
	}
	p.live.Clear(uint(id))
	return nil
}

// Write updates one channel of one vertex and marks both dirty.
//
// Parameters:
//   - id: the vertex id
//   - ch: the channel to write
//   - values: exactly ch.Width() components
//
// Returns:
//   - error: ErrUnknownVertex or ErrChannelWidth
func (p *Pool) Write(id int32, ch Channel, values ...float32) error {
	if !p.Live(id) {
		return fmt.Errorf("write %s to %d: %w", ch, id, ErrUnknownVertex)
	}
	w := ch.Width()
	if w == 0 || len(values) != w {
		return fmt.Errorf("write %s to %d: got %d components: %w", ch, id, len(values), ErrChannelWidth)
	}
	copy(p.data[ch][int(id)*w:], values)
	p.dirty[ch] = true
	p.mark(id)
	return nil
}

// Read returns the components of one channel of one vertex.
// The returned slice aliases pool storage and is valid until the next Allocate.
func (p *Pool) Read(id int32, ch Channel) []float32 {
	w := ch.Width()
	if id < 0 || int(id) >= p.n || w == 0 {
		return nil
	}
	return p.data[ch][int(id)*w : (int(id)+1)*w]
}

// Opacity returns the live opacity of a vertex, or 1 for unknown ids.
func (p *Pool) Opacity(id int32) float32 {
	if v := p.Read(id, ChannelOpacity); v != nil {
		return v[0]
	}
	return 1
}

// Dirty reports whether the channel has pending changes.
func (p *Pool) Dirty(ch Channel) bool {
	return ch >= 0 && ch < channelCount && p.dirty[ch]
}

// Invalidate marks every allocated channel dirty so the next Flush uploads the whole
// pool, as needed after the receiving backend lost or never had the data.
func (p *Pool) Invalidate() {
	if p.capacity == 0 {
		return
	}
	for _, ch := range Channels {
		p.dirty[ch] = true
	}
}

// Flush uploads the full backing array of every channel dirtied since the last flush.
// Nothing is uploaded when no vertex changed. A failed upload leaves that channel dirty.
//
// Parameters:
//   - upload: receives the channel and its complete backing array
//
// Returns:
//   - int: the number of channels uploaded
//   - error: the first upload error
func (p *Pool) Flush(upload func(ch Channel, data []float32) error) (int, error) {
	uploaded := 0
	for _, ch := range Channels {
		if !p.dirty[ch] {
			continue
		}
		if err := upload(ch, p.data[ch][:p.capacity*channelWidths[ch]]); err != nil {
			return uploaded, fmt.Errorf("flush %s: %w", ch, err)
		}
		p.dirty[ch] = false
		uploaded++
	}
	return uploaded, nil
}

func (p *Pool) mark(id int32) {
	if p.marker != nil {
		p.marker.MarkVertex(id)
	}
}
