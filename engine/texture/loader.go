package texture

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxyviz/common"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrEmptyName is the load error of a texture requested with an empty name.
var ErrEmptyName = errors.New("texture: empty name")

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	fsys    fs.FS
	maxSize int
	workers int

	cache  map[string]*Texture
	group  singleflight.Group
	pool   worker.DynamicWorkerPool
	nextID int
}

// Loader requests named textures. Requests return immediately with a handle that
// becomes ready once the image is decoded on the worker pool. Requests are deduplicated
// by name and completed loads stay cached for later consumers.
type Loader interface {
	// Request returns the handle for name, starting a load if none exists.
	//
	// Parameters:
	//   - name: the texture path inside the loader's file system
	//
	// Returns:
	//   - *Texture: the shared handle for name
	Request(name string) *Texture

	// Get returns the handle for name without starting a load.
	//
	// Parameters:
	//   - name: the texture name
	//
	// Returns:
	//   - *Texture: the handle, or nil
	//   - bool: true if name has been requested
	Get(name string) (*Texture, bool)

	// Loaded returns the names of all textures that finished loading successfully, sorted.
	//
	// Returns:
	//   - []string: the loaded texture names
	Loaded() []string
}

var _ Loader = &loader{}

// NewLoader creates a Loader with the provided options applied.
// By default textures are read from the current working directory.
//
// Parameters:
//   - options: variadic list of LoaderBuilderOption functions to configure the loader
//
// Returns:
//   - Loader: the configured loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		workers: 2,
		cache:   make(map[string]*Texture),
	}
	for _, opt := range options {
		opt(l)
	}
	if l.fsys == nil {
		l.fsys = os.DirFS(".")
	}
	l.pool = worker.NewDynamicWorkerPool(l.workers, 256, 1*time.Second)
	return l
}

func (l *loader) Request(name string) *Texture {
	l.mu.RLock()
	t, ok := l.cache[name]
	l.mu.RUnlock()
	if ok {
		return t
	}

	l.mu.Lock()
	if t, ok = l.cache[name]; ok {
		l.mu.Unlock()
		return t
	}
	t = newTexture(name)
	l.cache[name] = t
	id := l.nextID
	l.nextID++
	l.mu.Unlock()

	l.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			img, err := l.load(name)
			if err != nil {
				common.Logger().Warn("texture load failed", zap.String("texture", name), zap.Error(err))
			}
			t.complete(img, err)
			return nil, nil
		},
	})
	return t
}

// load decodes name, sharing the decode with any concurrent load of the same file.
func (l *loader) load(name string) (*image.RGBA, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	key := path.Clean(name)
	v, err, _ := l.group.Do(key, func() (any, error) {
		f, err := l.fsys.Open(key)
		if err != nil {
			return nil, fmt.Errorf("failed to open texture %s: %w", name, err)
		}
		defer f.Close()
		img, err := common.DecodeImage(f)
		if err != nil {
			return nil, fmt.Errorf("texture %s: %w", name, err)
		}
		if l.maxSize > 0 {
			img = common.FitImage(img, l.maxSize)
		}
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*image.RGBA), nil
}

func (l *loader) Get(name string) (*Texture, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.cache[name]
	return t, ok
}

func (l *loader) Loaded() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []string
	for name, t := range l.cache {
		if t.Ready() && t.Err() == nil {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
