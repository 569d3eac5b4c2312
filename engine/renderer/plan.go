package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxyviz/engine/renderer/backend"
)

// PlanPasses returns the ordered passes of a frame.
//
// Without transparency a render frame is a single lit pass to the screen. With it, the
// opaque scene is drawn to C0 and its depth map to D0, then each peel layer k draws the
// nearest transparent fragments behind layer k-1 into Ck and their depth into Dk (the
// depth of the last layer is never read, so it is not drawn), and a merge pass composites
// every layer over C0 onto the screen. ModeOffscreen always takes the C0/merge route.
//
// Parameters:
//   - mode: the frame mode
//   - transparent: whether any transparent bucket will be drawn
//   - layers: the number of peel layers, clamped to [1, backend.MaxLayers]
//
// Returns:
//   - []backend.Pass: the passes in execution order
//   - error: ErrModeUnsupported for ModeExtent and unknown modes
func PlanPasses(mode Mode, transparent bool, layers int) ([]backend.Pass, error) {
	layers = min(max(layers, 1), backend.MaxLayers)
	switch mode {
	case ModePick:
		return []backend.Pass{{Program: backend.ProgramPick, Target: backend.TargetPick, Clear: true}}, nil
	case ModeRender:
		if !transparent {
			return []backend.Pass{{Program: backend.ProgramLit, Target: backend.TargetScreen, Clear: true}}, nil
		}
	case ModeOffscreen:
	default:
		return nil, fmt.Errorf("%w: %s", ErrModeUnsupported, mode)
	}

	passes := []backend.Pass{{Program: backend.ProgramLit, Target: backend.TargetColor0, Clear: true}}
	if !transparent {
		return append(passes, backend.Pass{Program: backend.ProgramMerge, Target: backend.TargetScreen}), nil
	}
	passes = append(passes, backend.Pass{Program: backend.ProgramDepth, Target: backend.TargetDepth0, Clear: true})
	for k := 1; k <= layers; k++ {
		passes = append(passes, backend.Pass{
			Program: backend.ProgramPeelColor,
			Target:  backend.ColorTarget(k),
			Layer:   k,
			Clear:   true,
		})
		if k < layers {
			passes = append(passes, backend.Pass{
				Program: backend.ProgramPeelDepth,
				Target:  backend.DepthTarget(k),
				Layer:   k,
				Clear:   true,
			})
		}
	}
	return append(passes, backend.Pass{Program: backend.ProgramMerge, Target: backend.TargetScreen, Layers: layers}), nil
}
