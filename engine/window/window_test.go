package window

import (
	"testing"

	"github.com/Carmen-Shannon/oxyviz/engine/config"
	"github.com/stretchr/testify/assert"
)

func TestWindowDefaults(t *testing.T) {
	w := newEngineWindow()
	assert.Equal(t, "oxyviz", w.Title())
	assert.Equal(t, 1280, w.Width())
	assert.Equal(t, 720, w.Height())
	assert.True(t, w.resizable)
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.Error(t, w.Close())
}

func TestWindowSizeLimits(t *testing.T) {
	tests := []struct {
		name string
		opts []WindowBuilderOption
		w, h int
		maxW int
		maxH int
	}{
		{"within", []WindowBuilderOption{WithSize(800, 600), WithSizeLimits(640, 480, 1920, 1080)}, 800, 600, 1920, 1080},
		{"clamped up", []WindowBuilderOption{WithSize(100, 100), WithSizeLimits(640, 480, 0, 0)}, 640, 480, 0, 0},
		{"clamped down", []WindowBuilderOption{WithSize(4000, 3000), WithSizeLimits(0, 0, 1920, 1080)}, 1920, 1080, 1920, 1080},
		{"max below min", []WindowBuilderOption{WithSize(800, 600), WithSizeLimits(640, 480, 320, 240)}, 640, 480, 640, 480},
		{"degenerate", []WindowBuilderOption{WithSize(0, -5)}, 1, 1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newEngineWindow(tt.opts...)
			assert.Equal(t, tt.w, w.Width())
			assert.Equal(t, tt.h, w.Height())
			assert.Equal(t, tt.maxW, w.maxWidth)
			assert.Equal(t, tt.maxH, w.maxHeight)
		})
	}
}

func TestWindowWithConfig(t *testing.T) {
	w := newEngineWindow(WithConfig(config.Window{Title: "lab", Width: 640, Height: 480, Resizable: false}))
	assert.Equal(t, "lab", w.Title())
	assert.Equal(t, 640, w.Width())
	assert.Equal(t, 480, w.Height())
	assert.False(t, w.resizable)

	w = newEngineWindow(WithTitle("keep"), WithConfig(config.Window{}))
	assert.Equal(t, "keep", w.Title())
	assert.Equal(t, 1280, w.Width())
}

func TestSetTitleIsApplied(t *testing.T) {
	w := newEngineWindow(WithTitle("a"))
	_, ok := w.takeTitle()
	assert.False(t, ok)

	w.SetTitle("a")
	_, ok = w.takeTitle()
	assert.False(t, ok)

	w.SetTitle("b")
	w.SetTitle("c")
	title, ok := w.takeTitle()
	assert.True(t, ok)
	assert.Equal(t, "c", title)
	assert.Equal(t, "c", w.Title())

	_, ok = w.takeTitle()
	assert.False(t, ok)
}
