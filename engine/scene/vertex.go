package scene

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxyviz/engine/vertexpool"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is the full attribute set of one vertex-pool vertex.
type Vertex struct {
	Pos       mgl32.Vec3
	Normal    mgl32.Vec3
	Color     mgl32.Vec3
	Opacity   float32
	Shininess float32
	Emissive  bool
	TexPos    mgl32.Vec2
	BumpAxis  mgl32.Vec3
}

// DefaultVertex returns a white, opaque vertex at the origin facing +z.
func DefaultVertex() Vertex {
	return Vertex{
		Normal:    mgl32.Vec3{0, 0, 1},
		Color:     mgl32.Vec3{1, 1, 1},
		Opacity:   1,
		Shininess: 0.6,
		BumpAxis:  mgl32.Vec3{1, 0, 0},
	}
}

func (v Vertex) channels() [len(vertexpool.Channels)][]float32 {
	emissive := float32(0)
	if v.Emissive {
		emissive = 1
	}
	return [...][]float32{
		vertexpool.ChannelPosition:  v.Pos[:],
		vertexpool.ChannelNormal:    v.Normal[:],
		vertexpool.ChannelColor:     v.Color[:],
		vertexpool.ChannelOpacity:   {clamp01(v.Opacity)},
		vertexpool.ChannelShininess: {clamp01(v.Shininess)},
		vertexpool.ChannelEmissive:  {emissive},
		vertexpool.ChannelTexPos:    v.TexPos[:],
		vertexpool.ChannelBumpAxis:  v.BumpAxis[:],
	}
}

func (s *scene) NewVertex(v Vertex) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.pool.Allocate()
	for ch, values := range v.channels() {
		if err := s.pool.Write(id, vertexpool.Channel(ch), values...); err != nil {
			return id, err
		}
	}
	return id, nil
}

func (s *scene) SetVertex(id int32, ch vertexpool.Channel, values ...float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.pool.Write(id, ch, values...); err != nil {
		if errors.Is(err, vertexpool.ErrUnknownVertex) {
			return fmt.Errorf("%w: %d", ErrUnknownVertex, id)
		}
		return err
	}
	return nil
}

func (s *scene) DeleteVertex(id int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pool.Live(id) {
		return fmt.Errorf("%w: %d", ErrUnknownVertex, id)
	}
	if deps := s.tracker.Dependents(id); len(deps) > 0 {
		return fmt.Errorf("%w: vertex %d is used by %d primitives", ErrVertexInUse, id, len(deps))
	}
	return s.pool.Release(id)
}

func (s *scene) Vertex(id int32) (Vertex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.pool.Live(id) {
		return Vertex{}, false
	}
	var v Vertex
	copy(v.Pos[:], s.pool.Read(id, vertexpool.ChannelPosition))
	copy(v.Normal[:], s.pool.Read(id, vertexpool.ChannelNormal))
	copy(v.Color[:], s.pool.Read(id, vertexpool.ChannelColor))
	v.Opacity = s.pool.Read(id, vertexpool.ChannelOpacity)[0]
	v.Shininess = s.pool.Read(id, vertexpool.ChannelShininess)[0]
	v.Emissive = s.pool.Read(id, vertexpool.ChannelEmissive)[0] != 0
	copy(v.TexPos[:], s.pool.Read(id, vertexpool.ChannelTexPos))
	copy(v.BumpAxis[:], s.pool.Read(id, vertexpool.ChannelBumpAxis))
	return v, true
}
