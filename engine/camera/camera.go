package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	fov    float32
	aspect float32
	near   float32
	far    float32
	scale  float32

	world      mgl32.Mat4
	view       mgl32.Mat4
	projection mgl32.Mat4
	mvp        mgl32.Mat4

	controller CameraController
}

// Camera defines the interface for the camera system.
// The camera holds perspective settings and computes the world, view and projection matrices
// from an attached CameraController each frame via Update().
type Camera interface {
	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// World returns the uniform-scale model matrix.
	World() mgl32.Mat4

	// View returns the current left-handed view matrix.
	View() mgl32.Mat4

	// Projection returns the current left-handed projection matrix with depth in [0, 1].
	Projection() mgl32.Mat4

	// MVP returns projection * view * world as computed by the last Update.
	//
	// Returns:
	//   - mgl32.Mat4: the model-view-projection matrix
	MVP() mgl32.Mat4

	// Controller returns the attached CameraController.
	//
	// Returns:
	//   - CameraController: the attached controller
	Controller() CameraController

	// Update ticks the controller once and recomputes the matrices.
	//
	// Returns:
	//   - mgl32.Mat4: the new model-view-projection matrix
	Update() mgl32.Mat4

	// SetAspect sets the aspect ratio (width / height) and recomputes the matrices.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera with a 60 degree field of view, depth range [0.001, 100] and a world
// scale of 0.5. A fly controller at the origin is attached unless one is given.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		fov:    mgl32.DegToRad(60),
		aspect: 1.0,
		near:   0.001,
		far:    100.0,
		scale:  0.5,
	}
	for _, option := range options {
		option(c)
	}
	if c.controller == nil {
		c.controller = NewFlyController()
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) World() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.world
}

func (c *cameraImpl) View() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *cameraImpl) Projection() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection
}

func (c *cameraImpl) MVP() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mvp
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) Update() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller.Update()
	c.updateMatrices()
	return c.mvp
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

// updateMatrices recalculates the world, view, projection and combined matrices from the
// controller's current pose. Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.world = mgl32.Scale3D(c.scale, c.scale, c.scale)
	c.view = common.LookToLH(c.controller.Position(), c.controller.Forward(), c.controller.Up())
	c.projection = common.PerspectiveFovLH(c.fov, c.aspect, c.near, c.far)
	c.mvp = c.projection.Mul4(c.view).Mul4(c.world)
}
