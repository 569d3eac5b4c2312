package engine

import (
	"fmt"

	"github.com/Carmen-Shannon/oxyviz/common"
	"github.com/Carmen-Shannon/oxyviz/engine/picking"
	"go.uber.org/zap"
)

// inputQueueSize bounds the number of window events waiting for the next tick.
const inputQueueSize = 256

// InputKind identifies the type of an InputEvent.
type InputKind int

const (
	InputMouseDown InputKind = iota
	InputMouseUp
	InputMouseMove
	InputScroll
	InputKeyDown
	InputKeyUp
	InputResize
)

func (k InputKind) String() string {
	switch k {
	case InputMouseDown:
		return "mouse-down"
	case InputMouseUp:
		return "mouse-up"
	case InputMouseMove:
		return "mouse-move"
	case InputScroll:
		return "scroll"
	case InputKeyDown:
		return "key-down"
	case InputKeyUp:
		return "key-up"
	case InputResize:
		return "resize"
	}
	return fmt.Sprintf("input(%d)", int(k))
}

// InputEvent is one window event. Only the fields of its kind are set.
type InputEvent struct {
	Kind InputKind

	// Button is the mouse button of down and up events.
	Button int
	// X, Y are the cursor position in pixels from the top-left corner.
	X, Y int32
	// Delta is the scroll amount, positive away from the user.
	Delta float32
	// Key is the key code of key events.
	Key uint32
	// Width, Height are the new surface size of resize events.
	Width, Height int
}

// inputState is the drag state carried between events.
type inputState struct {
	down   [3]bool
	lastX  int32
	lastY  int32
	height int
}

// Post queues an input event for the next tick. Events that do not fit are dropped.
//
// Parameters:
//   - ev: the event
func (e *engine) Post(ev InputEvent) {
	select {
	case e.input <- ev:
	default:
		common.Logger().Debug("input queue full, event dropped", zap.Stringer("kind", ev.Kind))
	}
}

// drainInput applies every queued event. Called at the start of each tick on the render goroutine.
func (e *engine) drainInput(onPick func(hit picking.Hit, ok bool)) {
	for {
		select {
		case ev := <-e.input:
			e.apply(ev, onPick)
		default:
			return
		}
	}
}

// apply turns one event into camera, pick or resize actions. A left press picks, a right
// drag orbits, a middle drag pans and the wheel zooms.
func (e *engine) apply(ev InputEvent, onPick func(hit picking.Hit, ok bool)) {
	st := &e.inputState
	switch ev.Kind {
	case InputMouseDown:
		if ev.Button >= 0 && ev.Button < len(st.down) {
			st.down[ev.Button] = true
		}
		st.lastX, st.lastY = ev.X, ev.Y
		if ev.Button == common.MouseButtonLeft {
			e.pick(int(ev.X), int(ev.Y), onPick)
		}
	case InputMouseUp:
		if ev.Button >= 0 && ev.Button < len(st.down) {
			st.down[ev.Button] = false
		}
	case InputMouseMove:
		dx, dy := float32(ev.X-st.lastX), float32(ev.Y-st.lastY)
		st.lastX, st.lastY = ev.X, ev.Y
		switch {
		case st.down[common.MouseButtonRight]:
			sens := e.controller.MouseSensitivity()
			e.controller.Orbit(-dx*sens, dy*sens)
		case st.down[common.MouseButtonMiddle]:
			h := float32(max(st.height, 1))
			e.controller.Pan(-dx/h, dy/h)
		}
	case InputScroll:
		e.controller.Zoom(ev.Delta)
	case InputKeyDown:
		switch ev.Key {
		case common.KeyA:
			e.controller.OrbitLeft()
		case common.KeyD:
			e.controller.OrbitRight()
		case common.KeyW:
			e.controller.OrbitUp()
		case common.KeyS:
			e.controller.OrbitDown()
		case common.KeyQ:
			e.controller.Zoom(1)
		case common.KeyE:
			e.controller.Zoom(-1)
		}
	case InputKeyUp:
	case InputResize:
		if ev.Width <= 0 || ev.Height <= 0 {
			return
		}
		st.height = ev.Height
		e.renderer.Resize(ev.Width, ev.Height)
		e.scene.Camera().SetAspect(float32(ev.Width) / float32(ev.Height))
	}
}

// pick resolves the pixel under a click and reports it to the pick callback.
// No readback is issued when no callback is registered.
func (e *engine) pick(x, y int, onPick func(hit picking.Hit, ok bool)) {
	if onPick == nil {
		return
	}
	hit, ok, err := e.renderer.Pick(e.scene, x, y)
	if err != nil {
		common.Logger().Warn("pick failed", zap.Int("x", x), zap.Int("y", y), zap.Error(err))
		return
	}
	onPick(hit, ok)
}
