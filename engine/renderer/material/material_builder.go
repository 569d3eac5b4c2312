package material

// MaterialBuilderOption is a function that configures a Material during construction.
type MaterialBuilderOption func(*Material)

// WithTexture sets the color texture reference.
//
// Parameters:
//   - name: the texture name as understood by the texture loader
//
// Returns:
//   - MaterialBuilderOption: a function that applies the texture option to a material
func WithTexture(name string) MaterialBuilderOption {
	return func(m *Material) {
		m.Texture = name
	}
}

// WithBumpmap sets the bump-map reference.
//
// Parameters:
//   - name: the bump-map texture name as understood by the texture loader
//
// Returns:
//   - MaterialBuilderOption: a function that applies the bump-map option to a material
func WithBumpmap(name string) MaterialBuilderOption {
	return func(m *Material) {
		m.Bumpmap = name
	}
}
