package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*flyController)

// WithPosition sets the initial world-space position.
//
// Parameters:
//   - x: X coordinate of the camera
//   - y: Y coordinate of the camera
//   - z: Z coordinate of the camera
//
// Returns:
//   - CameraControllerOption: functional option to set the position
func WithPosition(x, y, z float32) CameraControllerOption {
	return func(fc *flyController) {
		fc.position = mgl32.Vec3{x, y, z}
	}
}

// WithYaw sets the initial rotation about the Y axis.
//
// Parameters:
//   - yaw: angle in radians (0 = +Z axis)
//
// Returns:
//   - CameraControllerOption: functional option to set the yaw
func WithYaw(yaw float32) CameraControllerOption {
	return func(fc *flyController) {
		fc.yaw = yaw
	}
}

// WithPitch sets the initial pitch. The value is clamped to [-MaxPitch, MaxPitch].
//
// Parameters:
//   - pitch: angle in radians, positive looks down
//
// Returns:
//   - CameraControllerOption: functional option to set the pitch
func WithPitch(pitch float32) CameraControllerOption {
	return func(fc *flyController) {
		fc.pitch = pitch
	}
}

// WithBindings replaces the default key table.
//
// Parameters:
//   - b: the key table
//
// Returns:
//   - CameraControllerOption: functional option to set the key bindings
func WithBindings(b Bindings) CameraControllerOption {
	return func(fc *flyController) {
		fc.bindings = b
	}
}
