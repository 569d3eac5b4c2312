// Package backend defines the contract between the pipeline orchestrator and a GPU (or
// software) implementation: programs, render targets, per-frame data and the pass/draw
// state machine.
package backend

import (
	"errors"
	"fmt"
	"image"

	"github.com/Carmen-Shannon/oxyviz/engine/light"
	"github.com/Carmen-Shannon/oxyviz/engine/model"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/material"
	"github.com/Carmen-Shannon/oxyviz/engine/vertexpool"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrNoFrame is returned by pass and draw calls made outside BeginFrame/EndFrame,
	// and by draws made outside BeginPass/EndPass.
	ErrNoFrame = errors.New("backend: no frame or pass in progress")
	// ErrUnknownTarget is returned for targets the backend does not allocate.
	ErrUnknownTarget = errors.New("backend: unknown render target")
	// ErrUnknownModel is returned by Draw for a model that was never created.
	ErrUnknownModel = errors.New("backend: unknown model")
)

// PoolModel is the model key of draws that read the vertex pool through FrameData.Indices.
const PoolModel = "vertexpool"

// MaxLayers is the deepest peel the targets support.
const MaxLayers = 4

// Program selects the shading behavior of a pass.
type Program int

const (
	// ProgramLit shades color with lights and materials, depth-tested LessEqual.
	ProgramLit Program = iota
	// ProgramDepth writes the encoded depth of each fragment as a color.
	ProgramDepth
	// ProgramPeelColor shades the nearest fragment behind the previous peel layer.
	ProgramPeelColor
	// ProgramPeelDepth writes the encoded depth of the same fragment ProgramPeelColor keeps.
	ProgramPeelDepth
	// ProgramMerge composites the color layers over the opaque color, back to front.
	ProgramMerge
	// ProgramPick writes the instance pick color.
	ProgramPick
)

var programNames = [...]string{"lit", "depth", "peel-color", "peel-depth", "merge", "pick"}

func (p Program) String() string {
	if p < 0 || int(p) >= len(programNames) {
		return fmt.Sprintf("program(%d)", int(p))
	}
	return programNames[p]
}

// Target names a render target.
type Target int

const (
	// TargetScreen is the presented surface.
	TargetScreen Target = iota
	TargetColor0
	TargetColor1
	TargetColor2
	TargetColor3
	TargetColor4
	TargetDepth0
	TargetDepth1
	TargetDepth2
	TargetDepth3
	TargetDepth4
	// TargetPick receives pick colors.
	TargetPick
	targetCount
)

// ColorTarget returns the color target of peel layer k (0 is the opaque layer).
func ColorTarget(k int) Target {
	return TargetColor0 + Target(k)
}

// DepthTarget returns the depth-map target of peel layer k (0 is the opaque layer).
func DepthTarget(k int) Target {
	return TargetDepth0 + Target(k)
}

// Valid reports whether t names a target.
func (t Target) Valid() bool {
	return t >= TargetScreen && t < targetCount
}

// Targets returns every offscreen target.
func Targets() []Target {
	out := make([]Target, 0, targetCount-1)
	for t := TargetColor0; t < targetCount; t++ {
		out = append(out, t)
	}
	return out
}

func (t Target) String() string {
	switch {
	case t == TargetScreen:
		return "screen"
	case t == TargetPick:
		return "pick"
	case t >= TargetColor0 && t <= TargetColor4:
		return fmt.Sprintf("C%d", t-TargetColor0)
	case t >= TargetDepth0 && t <= TargetDepth4:
		return fmt.Sprintf("D%d", t-TargetDepth0)
	}
	return fmt.Sprintf("target(%d)", int(t))
}

// Pass is one render pass.
type Pass struct {
	Program Program
	Target  Target
	// Layer is the peel layer of peel passes, counted from 1.
	Layer int
	// Layers is the number of color layers a merge pass composites.
	Layers int
	// Clear clears color and depth to ClearColor before drawing.
	Clear      bool
	ClearColor [4]float32
}

func (p Pass) String() string {
	switch p.Program {
	case ProgramPeelColor, ProgramPeelDepth:
		return fmt.Sprintf("%s[%d]->%s", p.Program, p.Layer, p.Target)
	case ProgramMerge:
		return fmt.Sprintf("%s(%d)->%s", p.Program, p.Layers, p.Target)
	}
	return fmt.Sprintf("%s->%s", p.Program, p.Target)
}

// Draw is one indexed draw inside a pass.
type Draw struct {
	// Model is a model key passed to CreateModel, or PoolModel.
	Model string
	// FirstInstance and InstanceCount select FrameData.Instances.
	FirstInstance uint32
	InstanceCount uint32
	// FirstIndex and IndexCount select FrameData.Indices for PoolModel draws.
	FirstIndex uint32
	IndexCount uint32
	Material   material.Material
	// Cull discards back faces. Front faces wind counter-clockwise in normalized device
	// coordinates. Set for closed shapes drawn with a non-mirroring transform.
	Cull bool
}

// Instance is the per-instance state of a draw.
type Instance struct {
	Model     mgl32.Mat4
	Normal    mgl32.Mat3
	Color     mgl32.Vec3
	Opacity   float32
	Pick      [4]float32
	Shininess float32
	Emissive  bool
}

// GPU converts the instance to its upload layout.
func (in *Instance) GPU() model.GPUInstance {
	g := model.GPUInstance{
		Model: in.Model,
		Color: [4]float32{in.Color[0], in.Color[1], in.Color[2], in.Opacity},
		Pick:  in.Pick,
	}
	for c := range 3 {
		col := in.Normal.Col(c)
		copy(g.Normal[c*4:c*4+3], col[:])
	}
	g.Params[0] = in.Shininess
	if in.Emissive {
		g.Params[1] = 1
	}
	return g
}

// Uniforms is the per-frame shading state.
type Uniforms struct {
	ViewProjection mgl32.Mat4
	Eye            mgl32.Vec3
	Lights         []light.Light
	Ambient        mgl32.Vec3
	Background     mgl32.Vec3
}

// FrameData is everything the draws of one frame read.
type FrameData struct {
	Uniforms  Uniforms
	Instances []Instance
	// Indices index the vertex pool for PoolModel draws.
	Indices []uint32
}

// Capabilities describes backend limits the orchestrator adapts to.
type Capabilities struct {
	// MaxTextureUnits is the number of textures one fragment stage may sample.
	MaxTextureUnits int
	MaxTextureSize  int
}

// Backend executes passes planned by the orchestrator. Calls are made from the render
// goroutine only. A frame is BeginFrame, any number of BeginPass/Draw.../EndPass
// sequences, optional ReadPixel calls, then EndFrame.
type Backend interface {
	// Name identifies the implementation in logs.
	Name() string

	// Capabilities reports the limits of the device.
	Capabilities() Capabilities

	// Configure (re)allocates the screen and every offscreen target at the given size.
	Configure(width, height int) error

	// Size returns the configured target size.
	Size() (int, int)

	// CreateModel uploads a mesh under key, replacing any previous model with that key.
	CreateModel(key string, m *model.Mesh) error

	// HasModel reports whether key was uploaded.
	HasModel(key string) bool

	// ReleaseModel frees the model under key.
	ReleaseModel(key string)

	// CreateTexture uploads a decoded image under name.
	CreateTexture(name string, img *image.RGBA) error

	// HasTexture reports whether name was uploaded.
	HasTexture(name string) bool

	// UploadVertexChannel replaces the full backing array of one vertex-pool channel.
	UploadVertexChannel(ch vertexpool.Channel, data []float32) error

	// BeginFrame starts a frame reading fd.
	BeginFrame(fd *FrameData) error

	// BeginPass starts a pass, clearing its target when requested.
	BeginPass(p Pass) error

	// Draw issues one draw in the current pass. Merge passes take no draws.
	Draw(d Draw) error

	// EndPass finishes the current pass.
	EndPass() error

	// ReadPixel synchronously reads one pixel of an offscreen target. Rows count from the top.
	ReadPixel(t Target, x, y int) ([4]uint8, error)

	// EndFrame submits the frame and presents the screen if a pass drew to it.
	EndFrame() error

	// Release frees every resource.
	Release()
}
