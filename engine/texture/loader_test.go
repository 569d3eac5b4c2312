package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range w {
		img.Set(i, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func wait(t *testing.T, tex *Texture) {
	t.Helper()
	select {
	case <-tex.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("texture %s never became ready", tex.Name())
	}
}

func TestRequestLoadsAsynchronously(t *testing.T) {
	fsys := fstest.MapFS{"wood.png": {Data: pngBytes(t, 4, 2)}}
	l := NewLoader(WithFS(fsys))

	tex := l.Request("wood.png")
	require.NotNil(t, tex)
	wait(t, tex)

	assert.True(t, tex.Ready())
	require.NoError(t, tex.Err())
	require.NotNil(t, tex.Image())
	assert.Equal(t, 4, tex.Image().Bounds().Dx())
	assert.Equal(t, uint8(200), tex.Image().Pix[0])
	assert.Equal(t, []string{"wood.png"}, l.Loaded())
}

func TestRequestDeduplicates(t *testing.T) {
	fsys := fstest.MapFS{"a.png": {Data: pngBytes(t, 2, 2)}}
	l := NewLoader(WithFS(fsys), WithWorkers(4))

	var wg sync.WaitGroup
	got := make([]*Texture, 16)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = l.Request("a.png")
		}()
	}
	wg.Wait()
	for _, tex := range got {
		assert.Same(t, got[0], tex)
	}
	wait(t, got[0])

	cached, ok := l.Get("a.png")
	assert.True(t, ok)
	assert.Same(t, got[0], cached)
	assert.Same(t, got[0], l.Request("a.png"))
}

func TestRequestMissingFile(t *testing.T) {
	l := NewLoader(WithFS(fstest.MapFS{}))
	tex := l.Request("missing.png")
	wait(t, tex)

	assert.True(t, tex.Ready())
	assert.Error(t, tex.Err())
	assert.Nil(t, tex.Image())
	assert.Empty(t, l.Loaded())

	_, ok := l.Get("other.png")
	assert.False(t, ok)
}

func TestRequestMaxSize(t *testing.T) {
	fsys := fstest.MapFS{"big.png": {Data: pngBytes(t, 64, 16)}}
	l := NewLoader(WithFS(fsys), WithMaxSize(16))
	tex := l.Request("big.png")
	wait(t, tex)

	require.NoError(t, tex.Err())
	assert.Equal(t, 16, tex.Image().Bounds().Dx())
	assert.Equal(t, 4, tex.Image().Bounds().Dy())
}

func TestNotReadyHandle(t *testing.T) {
	tex := newTexture("pending")
	assert.False(t, tex.Ready())
	assert.Nil(t, tex.Image())
	assert.NoError(t, tex.Err())

	tex.complete(nil, ErrEmptyName)
	tex.complete(image.NewRGBA(image.Rect(0, 0, 1, 1)), nil)
	assert.ErrorIs(t, tex.Err(), ErrEmptyName)
	assert.Nil(t, tex.Image())
}
