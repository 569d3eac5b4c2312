package texture

import (
	"io/fs"
	"os"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithFS sets the file system textures are read from.
//
// Parameters:
//   - fsys: the source file system
//
// Returns:
//   - LoaderBuilderOption: a function that applies the file system option to a loader
func WithFS(fsys fs.FS) LoaderBuilderOption {
	return func(l *loader) {
		l.fsys = fsys
	}
}

// WithRoot reads textures from the directory root on disk.
//
// Parameters:
//   - root: the directory texture names are relative to
//
// Returns:
//   - LoaderBuilderOption: a function that applies the root option to a loader
func WithRoot(root string) LoaderBuilderOption {
	return func(l *loader) {
		l.fsys = os.DirFS(root)
	}
}

// WithMaxSize downscales decoded images whose larger side exceeds n pixels.
// Zero keeps images at their decoded size.
//
// Parameters:
//   - n: the maximum texture dimension
//
// Returns:
//   - LoaderBuilderOption: a function that applies the size option to a loader
func WithMaxSize(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.maxSize = n
	}
}

// WithWorkers sets the number of decode workers.
//
// Parameters:
//   - n: the worker count, at least 1
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.workers = n
		}
	}
}
