package common

// Key codes for the camera bindings. Printable keys use their ASCII value, which is
// also the GLFW key code.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyA = 'A' // orbit left
	KeyD = 'D' // orbit right
	KeyW = 'W' // orbit up
	KeyS = 'S' // orbit down
	KeyQ = 'Q' // zoom in
	KeyE = 'E' // zoom out
)

// Mouse buttons, matching GLFW button numbering.
//
// Left picks, right drags orbit and middle drags pan.
const (
	MouseButtonLeft   = 0
	MouseButtonRight  = 1
	MouseButtonMiddle = 2
)
