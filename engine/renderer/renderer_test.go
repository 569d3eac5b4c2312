package renderer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Carmen-Shannon/oxyviz/engine/bucket"
	"github.com/Carmen-Shannon/oxyviz/engine/model"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxyviz/engine/renderer/soft"
	"github.com/Carmen-Shannon/oxyviz/engine/scene"
	"github.com/Carmen-Shannon/oxyviz/engine/texture"
	"github.com/Carmen-Shannon/oxyviz/engine/vertexpool"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = mgl32.Vec3{1, 0, 0}
	green = mgl32.Vec3{0, 1, 0}
	blue  = mgl32.Vec3{0, 0, 1}
	bg    = mgl32.Vec3{0.1, 0.2, 0.3}
)

func newSoftRenderer(t *testing.T, opts ...RendererBuilderOption) (Renderer, *soft.Backend) {
	t.Helper()
	base := []RendererBuilderOption{WithBackendType(BackendTypeSoftware), WithSize(16, 16)}
	r, err := NewRenderer(append(base, opts...)...)
	require.NoError(t, err)
	sb, ok := r.Backend().(*soft.Backend)
	require.True(t, ok)
	return r, sb
}

func newScene(opts ...scene.SceneBuilderOption) scene.Scene {
	return scene.New(append([]scene.SceneBuilderOption{scene.WithBackground(bg)}, opts...)...)
}

func addBox(t *testing.T, sc scene.Scene, z float32, c mgl32.Vec3, opacity float32, opts ...scene.ObjectOption) scene.Handle {
	t.Helper()
	base := []scene.ObjectOption{
		scene.WithPos(mgl32.Vec3{0, 0, z}),
		scene.WithColor(c),
		scene.WithOpacity(opacity),
		scene.WithEmissive(true),
	}
	h, err := sc.Add(model.KindBox, append(base, opts...)...)
	require.NoError(t, err)
	return h
}

func assertColor(t *testing.T, want mgl32.Vec3, have [4]float32) {
	t.Helper()
	for i := range 3 {
		assert.InDelta(t, want[i], have[i], 0.02, "channel %d of %v", i, have)
	}
}

func center(sb *soft.Backend) [4]float32 {
	return sb.Pixel(backend.TargetScreen, 8, 8)
}

func TestPlanPasses(t *testing.T) {
	names := func(ps []backend.Pass) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.String()
		}
		return out
	}

	tests := []struct {
		name        string
		mode        Mode
		transparent bool
		layers      int
		want        []string
	}{
		{"opaque", ModeRender, false, 4, []string{"lit->screen"}},
		{"pick", ModePick, true, 4, []string{"pick->pick"}},
		{"offscreen opaque", ModeOffscreen, false, 4, []string{"lit->C0", "merge(0)->screen"}},
		{"two layers", ModeRender, true, 2, []string{
			"lit->C0", "depth->D0",
			"peel-color[1]->C1", "peel-depth[1]->D1",
			"peel-color[2]->C2",
			"merge(2)->screen",
		}},
		{"clamped", ModeRender, true, 9, []string{
			"lit->C0", "depth->D0",
			"peel-color[1]->C1", "peel-depth[1]->D1",
			"peel-color[2]->C2", "peel-depth[2]->D2",
			"peel-color[3]->C3", "peel-depth[3]->D3",
			"peel-color[4]->C4",
			"merge(4)->screen",
		}},
		{"at least one", ModeOffscreen, true, 0, []string{
			"lit->C0", "depth->D0", "peel-color[1]->C1", "merge(1)->screen",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps, err := PlanPasses(tt.mode, tt.transparent, tt.layers)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(ps))
			for _, p := range ps {
				assert.Equal(t, p.Program != backend.ProgramMerge, p.Clear, p.String())
			}
		})
	}

	_, err := PlanPasses(ModeExtent, false, 4)
	assert.ErrorIs(t, err, ErrModeUnsupported)
	_, err = PlanPasses(Mode(42), false, 4)
	assert.ErrorIs(t, err, ErrModeUnsupported)
}

func TestNewRendererNeedsWindow(t *testing.T) {
	_, err := NewRenderer()
	assert.Error(t, err)
}

func TestRenderOpaque(t *testing.T) {
	r, sb := newSoftRenderer(t)
	sc := newScene()
	addBox(t, sc, 0, red, 1)

	stats, err := r.Render(sc)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Passes)
	assert.Equal(t, 1, stats.Draws)
	assert.Equal(t, 1, stats.Buckets)
	assert.Zero(t, stats.Transparent)
	assert.Positive(t, stats.Uploads)

	assertColor(t, red, center(sb))
	assertColor(t, bg, sb.Pixel(backend.TargetScreen, 0, 0))
	assert.Equal(t, float32(1), sb.Pixel(backend.TargetScreen, 0, 0)[3])
}

func TestRenderTransparentInFront(t *testing.T) {
	r, sb := newSoftRenderer(t)
	require.Equal(t, 4, r.PeelLayers())
	sc := newScene()
	addBox(t, sc, -1, red, 1)
	addBox(t, sc, 1, blue, 0.5)

	stats, err := r.Render(sc)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Passes)
	assert.Equal(t, 1, stats.Transparent)
	assertColor(t, mgl32.Vec3{0.5, 0, 0.5}, center(sb))
}

func TestRenderTransparentBehindOpaque(t *testing.T) {
	r, sb := newSoftRenderer(t)
	sc := newScene()
	addBox(t, sc, -1, blue, 0.5)
	addBox(t, sc, 1, red, 1)

	_, err := r.Render(sc)
	require.NoError(t, err)
	assertColor(t, red, center(sb))
}

func TestRenderTwoTransparentLayers(t *testing.T) {
	r, sb := newSoftRenderer(t)
	sc := newScene()
	addBox(t, sc, -1, red, 1)
	addBox(t, sc, 0, green, 0.5, scene.WithSize(mgl32.Vec3{1, 1, 0.5}))
	addBox(t, sc, 1, blue, 0.5, scene.WithSize(mgl32.Vec3{1, 1, 0.5}))

	_, err := r.Render(sc)
	require.NoError(t, err)
	// Green over red, then blue over that.
	assertColor(t, mgl32.Vec3{0.25, 0.25, 0.5}, center(sb))
}

func TestLayerDowngrade(t *testing.T) {
	sb := soft.New(soft.WithSize(16, 16), soft.WithTextureUnits(4))
	r, err := NewRenderer(WithBackend(sb))
	require.NoError(t, err)
	assert.Equal(t, 2, r.PeelLayers())

	sc := newScene()
	addBox(t, sc, -1, red, 1)
	addBox(t, sc, 1, blue, 0.5)
	stats, err := r.Render(sc)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Passes)
	assertColor(t, mgl32.Vec3{0.5, 0, 0.5}, center(sb))
}

func TestMaxPeelLayers(t *testing.T) {
	r, _ := newSoftRenderer(t, WithMaxPeelLayers(1))
	assert.Equal(t, 1, r.PeelLayers())
}

func TestRenderOffscreen(t *testing.T) {
	r, sb := newSoftRenderer(t, WithMode(ModeOffscreen))
	sc := newScene()
	addBox(t, sc, 0, green, 1)

	stats, err := r.Render(sc)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Passes)
	assertColor(t, green, center(sb))
	assertColor(t, bg, sb.Pixel(backend.TargetScreen, 0, 0))
}

func TestRenderHiddenObject(t *testing.T) {
	r, sb := newSoftRenderer(t)
	sc := newScene()
	h := addBox(t, sc, 0, red, 1)

	_, err := r.Render(sc)
	require.NoError(t, err)
	assertColor(t, red, center(sb))

	require.NoError(t, sc.SetVisible(h, false))
	stats, err := r.Render(sc)
	require.NoError(t, err)
	assert.Zero(t, stats.Draws)
	assertColor(t, bg, center(sb))
}

func TestRenderModeUnsupported(t *testing.T) {
	r, _ := newSoftRenderer(t)
	r.SetMode(ModeExtent)
	assert.Equal(t, ModeExtent, r.Mode())
	_, err := r.Render(newScene())
	assert.ErrorIs(t, err, ErrModeUnsupported)

	r.SetMode(ModePick)
	_, err = r.Render(newScene())
	assert.ErrorIs(t, err, ErrModeUnsupported)
}

func TestPick(t *testing.T) {
	r, _ := newSoftRenderer(t)
	sc := newScene()
	back := addBox(t, sc, -1, red, 1)
	front := addBox(t, sc, 1, blue, 0.5)

	hit, ok, err := r.Pick(sc, 8, 8)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, front, hit.Handle)

	_, ok, err = r.Pick(sc, 0, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, sc.SetPickable(front, false))
	hit, ok, err = r.Pick(sc, 8, 8)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, back, hit.Handle)

	require.NoError(t, sc.SetVisible(back, false))
	_, ok, err = r.Pick(sc, 8, 8)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPickCurveSegment(t *testing.T) {
	r, _ := newSoftRenderer(t)
	sc := newScene()
	h, err := sc.AddCurve([]scene.CurvePoint{
		scene.Point(mgl32.Vec3{-2, 0, 0}),
		scene.Point(mgl32.Vec3{-0.01, 0, 0}),
		scene.Point(mgl32.Vec3{2, 0, 0}),
	}, scene.WithRadius(0.3))
	require.NoError(t, err)

	hit, ok, err := r.Pick(sc, 12, 8)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, h, hit.Handle)
	assert.Equal(t, 1, hit.Sub)

	hit, ok, err = r.Pick(sc, 3, 8)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, hit.Sub)
}

func TestRenderQuad(t *testing.T) {
	r, sb := newSoftRenderer(t)
	sc := newScene()
	h := addQuad(t, sc, green)
	o, ok := sc.Object(h)
	require.True(t, ok)
	ids := o.Vertices

	stats, err := r.Render(sc)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Draws)
	assertColor(t, green, center(sb))

	hit, ok, err := r.Pick(sc, 8, 8)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, h, hit.Handle)

	require.NoError(t, sc.SetVertex(ids[2], vertexpool.ChannelColor, blue[:]...))
	_, err = r.Render(sc)
	require.NoError(t, err)
	assert.Greater(t, center(sb)[2], float32(0))
}

func TestCompoundModels(t *testing.T) {
	r, sb := newSoftRenderer(t)
	sc := newScene()
	h, err := sc.AddCompound(model.Box(), scene.WithColor(green), scene.WithEmissive(true))
	require.NoError(t, err)

	_, err = r.Render(sc)
	require.NoError(t, err)
	assertColor(t, green, center(sb))
	o, ok := sc.Object(h)
	require.True(t, ok)
	first := bucket.CompoundKey(h, o.MeshVersion)
	assert.True(t, sb.HasModel(first))

	require.NoError(t, sc.SetMesh(h, model.Sphere()))
	_, err = r.Render(sc)
	require.NoError(t, err)
	o, _ = sc.Object(h)
	second := bucket.CompoundKey(h, o.MeshVersion)
	assert.NotEqual(t, first, second)
	assert.False(t, sb.HasModel(first))
	assert.True(t, sb.HasModel(second))

	require.NoError(t, sc.Delete(h))
	_, err = r.Render(sc)
	require.NoError(t, err)
	assert.False(t, sb.HasModel(second))
}

func addQuad(t *testing.T, sc scene.Scene, c mgl32.Vec3) scene.Handle {
	t.Helper()
	return addQuadAt(t, sc, 0, c)
}

// addQuadAt adds an emissive 2x2 quad in the plane z, facing the default camera.
func addQuadAt(t *testing.T, sc scene.Scene, z float32, c mgl32.Vec3, opts ...scene.ObjectOption) scene.Handle {
	t.Helper()
	var ids [4]int32
	for i, p := range []mgl32.Vec3{{-1, -1, z}, {1, -1, z}, {1, 1, z}, {-1, 1, z}} {
		v := scene.DefaultVertex()
		v.Pos = p
		v.Color = c
		id, err := sc.NewVertex(v)
		require.NoError(t, err)
		ids[i] = id
	}
	h, err := sc.AddQuad(ids[0], ids[1], ids[2], ids[3], append([]scene.ObjectOption{scene.WithEmissive(true)}, opts...)...)
	require.NoError(t, err)
	return h
}

func TestRenderThreeTranslucentPlanes(t *testing.T) {
	r, sb := newSoftRenderer(t)
	require.GreaterOrEqual(t, r.PeelLayers(), 3)
	sc := newScene()
	addQuadAt(t, sc, -1, red)
	planes := []struct {
		z       float32
		color   mgl32.Vec3
		opacity float32
	}{
		{0, green, 0.5},
		{0.5, blue, 0.4},
		{1, mgl32.Vec3{1, 1, 0}, 0.3},
	}
	for _, p := range planes {
		addQuadAt(t, sc, p.z, p.color, scene.WithOpacity(p.opacity))
	}

	stats, err := r.Render(sc)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Transparent)

	// Composite takes the nearest layer first.
	layers := make([][4]float32, 0, len(planes))
	for i := len(planes) - 1; i >= 0; i-- {
		p := planes[i]
		layers = append(layers, [4]float32{p.color[0], p.color[1], p.color[2], p.opacity})
	}
	want := backend.Composite([4]float32{1, 0, 0, 1}, layers...)
	assertColor(t, mgl32.Vec3{want[0], want[1], want[2]}, center(sb))
}

func TestRenderMirroredBox(t *testing.T) {
	r, sb := newSoftRenderer(t)
	sc := newScene()
	addBox(t, sc, 0, red, 1, scene.WithSize(mgl32.Vec3{-1, 1, 1}))

	stats, err := r.Render(sc)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Draws)
	assertColor(t, red, center(sb))
}

func TestSceneSwitchReuploads(t *testing.T) {
	r, sb := newSoftRenderer(t)
	a, b := newScene(), newScene()
	addQuad(t, a, green)
	addQuad(t, b, blue)

	for _, step := range []struct {
		sc   scene.Scene
		want mgl32.Vec3
	}{{a, green}, {b, blue}, {a, green}} {
		stats, err := r.Render(step.sc)
		require.NoError(t, err)
		assert.Positive(t, stats.Uploads)
		assertColor(t, step.want, center(sb))
	}
}

// gateFS blocks every Open until gate is closed.
type gateFS struct {
	fstest.MapFS
	gate chan struct{}
}

func (g gateFS) Open(name string) (fs.File, error) {
	<-g.gate
	return g.MapFS.Open(name)
}

func solidPNG(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := range 2 {
		for x := range 2 {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func waitTexture(t *testing.T, l texture.Loader, name string) {
	t.Helper()
	tex, ok := l.Get(name)
	require.True(t, ok)
	select {
	case <-tex.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("texture %s never became ready", name)
	}
}

func TestTextureSkippedUntilReady(t *testing.T) {
	gate := gateFS{
		MapFS: fstest.MapFS{"green.png": {Data: solidPNG(t, color.RGBA{G: 255, A: 255})}},
		gate:  make(chan struct{}),
	}
	loader := texture.NewLoader(texture.WithFS(gate))
	r, sb := newSoftRenderer(t)
	sc := newScene(scene.WithTextureLoader(loader))
	addBox(t, sc, 0, mgl32.Vec3{1, 1, 1}, 1, scene.WithTexture("green.png"))

	stats, err := r.Render(sc)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, stats.Buckets)
	assertColor(t, bg, center(sb))
	assert.False(t, sb.HasTexture("green.png"))

	close(gate.gate)
	waitTexture(t, loader, "green.png")

	stats, err = r.Render(sc)
	require.NoError(t, err)
	assert.Zero(t, stats.Skipped)
	assert.Equal(t, 1, stats.Buckets)
	assert.True(t, sb.HasTexture("green.png"))
	assertColor(t, green, center(sb))
}

func TestFailedTextureDrawsPlain(t *testing.T) {
	loader := texture.NewLoader(texture.WithFS(fstest.MapFS{}))
	r, sb := newSoftRenderer(t)
	sc := newScene(scene.WithTextureLoader(loader))
	addBox(t, sc, 0, red, 1, scene.WithTexture("missing.png"))
	waitTexture(t, loader, "missing.png")

	for range 2 {
		stats, err := r.Render(sc)
		require.NoError(t, err)
		assert.Zero(t, stats.Skipped)
		assert.Equal(t, 1, stats.Draws)
		assertColor(t, red, center(sb))
	}
	assert.False(t, sb.HasTexture("missing.png"))
}

func TestResize(t *testing.T) {
	r, sb := newSoftRenderer(t)
	r.Resize(32, 8)
	w, h := sb.Size()
	assert.Equal(t, 32, w)
	assert.Equal(t, 8, h)

	sc := newScene()
	addBox(t, sc, 0, red, 1)
	_, err := r.Render(sc)
	require.NoError(t, err)
	assert.InDelta(t, 4, sc.Camera().Aspect(), 1e-6)
	assertColor(t, red, sb.Pixel(backend.TargetScreen, 16, 4))
}
