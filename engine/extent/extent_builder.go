package extent

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*Engine)

// WithHysteresis sets the factor the required range must grow or shrink by before the
// engine adopts it. Values of 1 or less adopt every change.
//
// Parameters:
//   - h: the hysteresis factor
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithHysteresis(h float32) EngineBuilderOption {
	return func(e *Engine) {
		e.hysteresis = max(h, 1)
	}
}
