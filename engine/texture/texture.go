// Package texture loads named images asynchronously for use as primitive textures
// and bump maps.
package texture

import (
	"image"
	"sync"
	"sync/atomic"
)

// Texture is the handle returned by a texture request. It starts not ready and
// becomes ready exactly once, either with an image or with an error.
type Texture struct {
	name  string
	once  sync.Once
	ready atomic.Bool
	done  chan struct{}
	img   *image.RGBA
	err   error
}

func newTexture(name string) *Texture {
	return &Texture{name: name, done: make(chan struct{})}
}

// Name returns the name the texture was requested by.
func (t *Texture) Name() string {
	return t.name
}

// Ready reports whether the load has finished.
func (t *Texture) Ready() bool {
	return t.ready.Load()
}

// Done returns a channel closed when the load finishes.
func (t *Texture) Done() <-chan struct{} {
	return t.done
}

// Image returns the decoded image, or nil while loading or after a failed load.
func (t *Texture) Image() *image.RGBA {
	if !t.Ready() {
		return nil
	}
	return t.img
}

// Err returns the load error, or nil while loading or after a successful load.
func (t *Texture) Err() error {
	if !t.Ready() {
		return nil
	}
	return t.err
}

// complete publishes the result. Only the first call has an effect.
func (t *Texture) complete(img *image.RGBA, err error) {
	t.once.Do(func() {
		t.img, t.err = img, err
		t.ready.Store(true)
		close(t.done)
	})
}
