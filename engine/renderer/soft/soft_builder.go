package soft

// BackendBuilderOption is a functional option for configuring a Backend.
type BackendBuilderOption func(*Backend)

// WithTextureUnits sets the number of texture units reported in Capabilities.
//
// Parameters:
//   - n: sampled textures per fragment stage
//
// Returns:
//   - BackendBuilderOption: option function to apply
func WithTextureUnits(n int) BackendBuilderOption {
	return func(b *Backend) {
		b.textureUnits = n
	}
}

// WithMaxTextureSize caps the dimensions of uploaded textures.
func WithMaxTextureSize(n int) BackendBuilderOption {
	return func(b *Backend) {
		if n > 0 {
			b.maxTextureSize = n
		}
	}
}

// WithSize allocates targets at construction.
//
// Parameters:
//   - width: target width in pixels
//   - height: target height in pixels
//
// Returns:
//   - BackendBuilderOption: option function to apply
func WithSize(width, height int) BackendBuilderOption {
	return func(b *Backend) {
		b.width, b.height = width, height
	}
}
