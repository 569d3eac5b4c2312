package engine

import (
	"math"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxyviz/common"
	"github.com/Carmen-Shannon/oxyviz/engine/config"
	"github.com/Carmen-Shannon/oxyviz/engine/model"
	"github.com/Carmen-Shannon/oxyviz/engine/picking"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/soft"
	"github.com/Carmen-Shannon/oxyviz/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHeadless(t *testing.T, opts ...EngineBuilderOption) (Engine, *soft.Backend) {
	t.Helper()
	e, err := NewEngine(append([]EngineBuilderOption{WithHeadless(16, 16)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(e.Release)
	sb, ok := e.Renderer().Backend().(*soft.Backend)
	require.True(t, ok)
	return e, sb
}

func addBox(t *testing.T, sc scene.Scene, c mgl32.Vec3) scene.Handle {
	t.Helper()
	h, err := sc.Add(model.KindBox, scene.WithColor(c), scene.WithEmissive(true))
	require.NoError(t, err)
	return h
}

func TestStepRunsHooksInOrder(t *testing.T) {
	e, _ := newHeadless(t)
	var calls []string
	e.SetBeforeRenderCallback(func(float32) { calls = append(calls, "before") })
	e.SetRenderCallback(func(float32) { calls = append(calls, "after") })

	stats, err := e.Step()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Passes)
	assert.Equal(t, []string{"before", "after"}, calls)
}

func TestStepDeltaTime(t *testing.T) {
	e, _ := newHeadless(t)
	var dts []float32
	e.SetBeforeRenderCallback(func(dt float32) { dts = append(dts, dt) })

	_, err := e.Step()
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = e.Step()
	require.NoError(t, err)

	require.Len(t, dts, 2)
	assert.Zero(t, dts[0])
	assert.Greater(t, dts[1], float32(0))
}

func TestBeforeRenderMutationIsDrawn(t *testing.T) {
	e, sb := newHeadless(t)
	h := addBox(t, e.Scene(), mgl32.Vec3{1, 0, 0})
	e.SetBeforeRenderCallback(func(float32) {
		require.NoError(t, e.Scene().SetColor(h, mgl32.Vec3{0, 1, 0}))
	})

	_, err := e.Step()
	require.NoError(t, err)
	px := sb.Pixel(backend.TargetScreen, 8, 8)
	assert.InDelta(t, 0, px[0], 0.02)
	assert.InDelta(t, 1, px[1], 0.02)
}

func TestLeftClickPicks(t *testing.T) {
	e, _ := newHeadless(t)
	h := addBox(t, e.Scene(), mgl32.Vec3{1, 0, 0})

	type result struct {
		hit picking.Hit
		ok  bool
	}
	var results []result
	e.SetPickCallback(func(hit picking.Hit, ok bool) {
		results = append(results, result{hit, ok})
	})

	e.Post(InputEvent{Kind: InputMouseDown, Button: common.MouseButtonLeft, X: 8, Y: 8})
	e.Post(InputEvent{Kind: InputMouseUp, Button: common.MouseButtonLeft, X: 8, Y: 8})
	e.Post(InputEvent{Kind: InputMouseDown, Button: common.MouseButtonLeft, X: 0, Y: 0})
	_, err := e.Step()
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.True(t, results[0].ok)
	assert.Equal(t, h, results[0].hit.Handle)
	assert.False(t, results[1].ok)
}

func TestRightClickDoesNotPick(t *testing.T) {
	e, _ := newHeadless(t)
	addBox(t, e.Scene(), mgl32.Vec3{1, 0, 0})
	picks := 0
	e.SetPickCallback(func(picking.Hit, bool) { picks++ })

	e.Post(InputEvent{Kind: InputMouseDown, Button: common.MouseButtonRight, X: 8, Y: 8})
	_, err := e.Step()
	require.NoError(t, err)
	assert.Zero(t, picks)
}

func TestRightDragOrbits(t *testing.T) {
	e, _ := newHeadless(t)
	before := e.Controller().Azimuth()

	e.Post(InputEvent{Kind: InputMouseDown, Button: common.MouseButtonRight, X: 0, Y: 8})
	e.Post(InputEvent{Kind: InputMouseMove, X: 40, Y: 8})
	e.Post(InputEvent{Kind: InputMouseUp, Button: common.MouseButtonRight, X: 40, Y: 8})
	e.Post(InputEvent{Kind: InputMouseMove, X: 80, Y: 8})
	_, err := e.Step()
	require.NoError(t, err)

	sens := e.Controller().MouseSensitivity()
	d := math.Remainder(float64(e.Controller().Azimuth()-before), 2*math.Pi)
	assert.InDelta(t, 40*sens, math.Abs(d), 1e-4)
}

func TestMiddleDragPans(t *testing.T) {
	e, _ := newHeadless(t)
	before := e.Scene().Camera().Center()

	e.Post(InputEvent{Kind: InputMouseDown, Button: common.MouseButtonMiddle, X: 8, Y: 8})
	e.Post(InputEvent{Kind: InputMouseMove, X: 12, Y: 8})
	_, err := e.Step()
	require.NoError(t, err)

	assert.NotEqual(t, before, e.Scene().Camera().Center())
}

func TestScrollZoomDisablesAutoscale(t *testing.T) {
	e, _ := newHeadless(t)
	addBox(t, e.Scene(), mgl32.Vec3{1, 0, 0})
	_, err := e.Step()
	require.NoError(t, err)
	require.True(t, e.Scene().Camera().Autoscale())
	before := e.Scene().Camera().Range()

	e.Post(InputEvent{Kind: InputScroll, Delta: 1})
	_, err = e.Step()
	require.NoError(t, err)

	assert.False(t, e.Scene().Camera().Autoscale())
	assert.Less(t, e.Scene().Camera().Range(), before)
}

func TestResizeEvent(t *testing.T) {
	e, sb := newHeadless(t)
	e.Post(InputEvent{Kind: InputResize, Width: 32, Height: 16})
	e.Post(InputEvent{Kind: InputResize, Width: 0, Height: 16})
	_, err := e.Step()
	require.NoError(t, err)

	w, h := sb.Size()
	assert.Equal(t, 32, w)
	assert.Equal(t, 16, h)
	assert.InDelta(t, 2, e.Scene().Camera().Aspect(), 1e-6)
}

func TestPostDropsWhenFull(t *testing.T) {
	e, _ := newHeadless(t)
	for range inputQueueSize + 10 {
		e.Post(InputEvent{Kind: InputKeyUp})
	}
	impl := e.(*engine)
	assert.Len(t, impl.input, inputQueueSize)

	_, err := e.Step()
	require.NoError(t, err)
	assert.Empty(t, impl.input)
}

func TestRunHeadlessUntilQuit(t *testing.T) {
	e, _ := newHeadless(t, WithTickRate(1000))
	frames := 0
	e.SetRenderCallback(func(float32) {
		frames++
		if frames == 3 {
			e.Quit()
		}
	})

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
	assert.GreaterOrEqual(t, frames, 3)
}

func TestWithConfig(t *testing.T) {
	t.Cleanup(func() { common.SetLogger(nil) })
	cfg := config.Default()
	cfg.Window.Width, cfg.Window.Height = 20, 10
	cfg.Render.Backend = config.BackendSoftware
	cfg.Render.Layers = 2
	cfg.Camera.Fov = 90
	cfg.Camera.Range = 7
	cfg.Camera.Autoscale = false
	cfg.Log.Level = "error"

	e, err := NewEngine(WithConfig(cfg))
	require.NoError(t, err)
	t.Cleanup(e.Release)

	assert.Nil(t, e.Window())
	assert.Equal(t, soft.Name, e.Renderer().Backend().Name())
	assert.Equal(t, 2, e.Renderer().PeelLayers())
	w, h := e.Renderer().Backend().Size()
	assert.Equal(t, 20, w)
	assert.Equal(t, 10, h)

	cam := e.Scene().Camera()
	assert.InDelta(t, mgl32.DegToRad(90), cam.Fov(), 1e-5)
	assert.InDelta(t, 7, cam.Range(), 1e-5)
	assert.False(t, cam.Autoscale())
	assert.InDelta(t, 2, cam.Aspect(), 1e-6)
}

func TestWithRendererAndScene(t *testing.T) {
	r, err := renderer.NewRenderer(renderer.WithBackendType(renderer.BackendTypeSoftware), renderer.WithSize(8, 8))
	require.NoError(t, err)
	sc := scene.New(scene.WithName("given"))

	e, err := NewEngine(WithRenderer(r), WithScene(sc))
	require.NoError(t, err)
	t.Cleanup(e.Release)
	assert.Same(t, r, e.Renderer())
	assert.Equal(t, "given", e.Scene().Name())
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := NewEngine(WithHeadless(8, 8), WithLogging("loud", false))
	assert.Error(t, err)
}
