package renderer

import (
	"errors"
	"fmt"
)

// ErrModeUnsupported is returned when a frame is requested in a mode no backend implements.
var ErrModeUnsupported = errors.New("renderer: mode not supported")

// RendererBackendType identifies the backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU backend drawing to a window surface.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeSoftware selects the headless CPU rasterizer.
	BackendTypeSoftware
)

func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeSoftware:
		return "software"
	}
	return fmt.Sprintf("backend(%d)", int(t))
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// Mode selects what a frame produces.
type Mode int

const (
	// ModeRender draws the scene to the screen, peeling when transparent buckets exist.
	ModeRender Mode = iota
	// ModePick draws pick colors into the pick target.
	ModePick
	// ModeExtent computes the scene extent on the GPU. No backend implements it; the CPU
	// extent engine is used instead.
	ModeExtent
	// ModeOffscreen renders through the offscreen opaque layer and the merge pass even
	// when nothing is transparent.
	ModeOffscreen
)

func (m Mode) String() string {
	switch m {
	case ModeRender:
		return "render"
	case ModePick:
		return "pick"
	case ModeExtent:
		return "extent"
	case ModeOffscreen:
		return "offscreen"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// FrameStats summarizes one Render or Pick call.
type FrameStats struct {
	// Passes is the number of passes executed.
	Passes int
	// Draws is the number of draws issued across all passes.
	Draws int
	// Buckets is the number of buckets drawn.
	Buckets int
	// Skipped is the number of buckets skipped because their textures were not ready.
	Skipped int
	// Transparent is the number of transparent buckets drawn.
	Transparent int
	// Uploads counts vertex channels, models and textures uploaded during sync.
	Uploads int
}
