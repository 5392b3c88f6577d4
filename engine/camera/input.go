package camera

import "github.com/Carmen-Shannon/oxy-viewer/common"

// Action is the transition of a key in an InputEvent.
type Action int

const (
	ActionPress Action = iota
	ActionRelease
	// ActionRepeat is a held key auto-repeating. It is handled like ActionPress.
	ActionRepeat
)

// InputEvent is a single key transition delivered by the window.
type InputEvent struct {
	// Key is a common.Key* key code.
	Key    int
	Action Action
}

// Axis names one component of a Velocity.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
	AxisPitch
	AxisYaw
)

// Velocity is the per-tick camera motion. Translation components are in world units and rotation
// components in radians, both per Update.
type Velocity struct {
	DX, DY, DZ   float32
	DPitch, DYaw float32
}

func (v Velocity) with(axis Axis, value float32) Velocity {
	switch axis {
	case AxisX:
		v.DX = value
	case AxisY:
		v.DY = value
	case AxisZ:
		v.DZ = value
	case AxisPitch:
		v.DPitch = value
	case AxisYaw:
		v.DYaw = value
	}
	return v
}

// IsZero reports whether every component is zero.
func (v Velocity) IsZero() bool {
	return v == Velocity{}
}

// Binding maps a key to the velocity component it drives while held.
type Binding struct {
	Axis  Axis
	Delta float32
}

// Bindings maps key codes to their Binding.
type Bindings map[int]Binding

// DefaultMoveSpeed and DefaultLookSpeed are the per-tick deltas of DefaultBindings.
const (
	DefaultMoveSpeed float32 = 0.001
	DefaultLookSpeed float32 = 0.001
)

// NewBindings builds the fly camera key table: WASD to move in the horizontal plane, Space and
// either Shift key to move vertically, the arrow keys to look around.
//
// Parameters:
//   - move: the translation delta per tick
//   - look: the rotation delta per tick in radians
//
// Returns:
//   - Bindings: the key table
func NewBindings(move, look float32) Bindings {
	return Bindings{
		common.KeyW:          {Axis: AxisZ, Delta: move},
		common.KeyS:          {Axis: AxisZ, Delta: -move},
		common.KeyA:          {Axis: AxisX, Delta: move},
		common.KeyD:          {Axis: AxisX, Delta: -move},
		common.KeySpace:      {Axis: AxisY, Delta: move},
		common.KeyLeftShift:  {Axis: AxisY, Delta: -move},
		common.KeyRightShift: {Axis: AxisY, Delta: -move},
		common.KeyUp:         {Axis: AxisPitch, Delta: look},
		common.KeyDown:       {Axis: AxisPitch, Delta: -look},
		common.KeyLeft:       {Axis: AxisYaw, Delta: -look},
		common.KeyRight:      {Axis: AxisYaw, Delta: look},
	}
}

// DefaultBindings returns NewBindings(DefaultMoveSpeed, DefaultLookSpeed).
func DefaultBindings() Bindings {
	return NewBindings(DefaultMoveSpeed, DefaultLookSpeed)
}

// Reduce returns the velocity after ev. A press sets the bound component to its delta, a release
// resets only that component to zero. Unbound keys leave v unchanged.
//
// Parameters:
//   - b: the key table
//   - v: the current velocity
//   - ev: the key event
//
// Returns:
//   - Velocity: the new velocity
func Reduce(b Bindings, v Velocity, ev InputEvent) Velocity {
	binding, ok := b[ev.Key]
	if !ok {
		return v
	}
	switch ev.Action {
	case ActionPress, ActionRepeat:
		return v.with(binding.Axis, binding.Delta)
	case ActionRelease:
		return v.with(binding.Axis, 0)
	default:
		return v
	}
}
