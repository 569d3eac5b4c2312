// Package material describes the texture and bump-map references a primitive is drawn with.
package material

// Class is the material class a bucket is drawn with.
type Class int

const (
	// ClassPlain has neither texture nor bump map.
	ClassPlain Class = iota
	// ClassTexture has a color texture only.
	ClassTexture
	// ClassBump has a bump map only.
	ClassBump
	// ClassTextureBump has both a color texture and a bump map.
	ClassTextureBump
)

var classNames = [...]string{"plain", "texture", "bump", "texture+bump"}

func (c Class) String() string {
	if c < 0 || int(c) >= len(classNames) {
		return "unknown"
	}
	return classNames[c]
}

// Material is the texture and bump-map reference pair of a primitive. Textures are
// referenced by name; the zero value is the plain material.
type Material struct {
	Texture string
	Bumpmap string
}

// New creates a Material configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: the configured material
func New(options ...MaterialBuilderOption) Material {
	var m Material
	for _, opt := range options {
		opt(&m)
	}
	return m
}

// Class returns the material class derived from which references are set.
func (m Material) Class() Class {
	switch {
	case m.Texture != "" && m.Bumpmap != "":
		return ClassTextureBump
	case m.Texture != "":
		return ClassTexture
	case m.Bumpmap != "":
		return ClassBump
	default:
		return ClassPlain
	}
}

// Key returns the identity key of the material. Two materials with the same key
// share a bucket.
func (m Material) Key() string {
	return m.Class().String() + "|" + m.Texture + "|" + m.Bumpmap
}

// Names returns the texture names the material references, color texture first.
func (m Material) Names() []string {
	var out []string
	if m.Texture != "" {
		out = append(out, m.Texture)
	}
	if m.Bumpmap != "" {
		out = append(out, m.Bumpmap)
	}
	return out
}
