package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxPitch is the largest absolute pitch in radians, just short of straight up or down so the view
// basis never degenerates.
const MaxPitch = float32(math.Pi / 2 * 0.99999)

// CameraController owns the camera's positional state and advances it once per tick from the
// velocity accumulated through key events.
type CameraController interface {
	// Apply queues a key event. Events are reduced into the velocity on the next Update.
	//
	// Parameters:
	//   - ev: the key event
	Apply(ev InputEvent)

	// Update reduces the queued events, then integrates one tick of motion.
	Update()

	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: the position
	Position() mgl32.Vec3

	// SetPosition moves the camera without changing its orientation.
	//
	// Parameters:
	//   - p: the new world-space position
	SetPosition(p mgl32.Vec3)

	// Forward returns the unit view direction derived from yaw and pitch.
	//
	// Returns:
	//   - mgl32.Vec3: the forward vector
	Forward() mgl32.Vec3

	// Up returns the world up vector.
	//
	// Returns:
	//   - mgl32.Vec3: the up vector
	Up() mgl32.Vec3

	// Yaw returns the rotation about the Y axis in radians.
	Yaw() float32

	// Pitch returns the rotation about the camera X axis in radians, within [-MaxPitch, MaxPitch].
	Pitch() float32

	// Velocity returns the current per-tick velocity.
	//
	// Returns:
	//   - Velocity: the velocity
	Velocity() Velocity
}

// flyController is a first-person controller: WASD moves in the horizontal plane relative to the
// view direction, Space and Shift move along world Y, the arrows turn the view.
type flyController struct {
	mu *sync.Mutex

	position mgl32.Vec3
	up       mgl32.Vec3
	yaw      float32
	pitch    float32

	velocity Velocity
	bindings Bindings
	pending  []InputEvent
}

var _ CameraController = &flyController{}

// NewFlyController creates a fly controller at the origin looking down +Z.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewFlyController(options ...CameraControllerOption) CameraController {
	fc := &flyController{
		mu:       &sync.Mutex{},
		up:       mgl32.Vec3{0, 1, 0},
		bindings: DefaultBindings(),
	}
	for _, option := range options {
		option(fc)
	}
	fc.pitch = clampPitch(fc.pitch)
	return fc
}

func (fc *flyController) Apply(ev InputEvent) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.pending = append(fc.pending, ev)
}

func (fc *flyController) Update() {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	for _, ev := range fc.pending {
		fc.velocity = Reduce(fc.bindings, fc.velocity, ev)
	}
	fc.pending = fc.pending[:0]

	fc.integrate()
}

// integrate advances one tick. Caller must hold the mutex.
func (fc *flyController) integrate() {
	v := fc.velocity

	fc.pitch = clampPitch(fc.pitch - v.DPitch)
	fc.yaw += v.DYaw

	fwd := forward(fc.yaw, fc.pitch)
	m := fwd.Mul(v.DZ).Add(fwd.Cross(fc.up).Mul(v.DX))

	// Planar speed is independent of pitch.
	if size := float32(math.Sqrt(float64(fwd[0]*fwd[0] + fwd[2]*fwd[2]))); size > 0 {
		m = m.Mul(1 / size)
	}

	fc.position[0] += m[0]
	fc.position[1] += v.DY
	fc.position[2] += m[2]
}

func (fc *flyController) Position() mgl32.Vec3 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.position
}

func (fc *flyController) SetPosition(p mgl32.Vec3) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.position = p
}

func (fc *flyController) Forward() mgl32.Vec3 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return forward(fc.yaw, fc.pitch)
}

func (fc *flyController) Up() mgl32.Vec3 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.up
}

func (fc *flyController) Yaw() float32 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.yaw
}

func (fc *flyController) Pitch() float32 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.pitch
}

func (fc *flyController) Velocity() Velocity {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.velocity
}

// forward rotates +Z by pitch about X, then by yaw about Y.
func forward(yaw, pitch float32) mgl32.Vec3 {
	return mgl32.Rotate3DY(yaw).Mul3(mgl32.Rotate3DX(pitch)).Mul3x1(mgl32.Vec3{0, 0, 1})
}

func clampPitch(p float32) float32 {
	return common.Clamp(p, -MaxPitch, MaxPitch)
}
