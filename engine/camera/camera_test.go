package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
)

func press(key int) InputEvent   { return InputEvent{Key: key, Action: ActionPress} }
func release(key int) InputEvent { return InputEvent{Key: key, Action: ActionRelease} }

func TestPitchIsClamped(t *testing.T) {
	tests := []struct {
		key  int
		want float32
	}{
		{common.KeyUp, -MaxPitch},
		{common.KeyDown, MaxPitch},
	}
	for _, tt := range tests {
		ctrl := NewFlyController(WithBindings(NewBindings(0.001, 0.5)))
		ctrl.Apply(press(tt.key))
		for i := 0; i < 20; i++ {
			ctrl.Update()
			if p := ctrl.Pitch(); p > MaxPitch || p < -MaxPitch {
				t.Fatalf("key %d tick %d: pitch %v outside bound", tt.key, i, p)
			}
		}
		if p := ctrl.Pitch(); p != tt.want {
			t.Errorf("key %d: pitch = %v, want %v", tt.key, p, tt.want)
		}
	}

	ctrl := NewFlyController(WithPitch(10))
	if ctrl.Pitch() != MaxPitch {
		t.Fatalf("initial pitch not clamped: %v", ctrl.Pitch())
	}
}

func TestKeyUpResetsOnlyItsComponent(t *testing.T) {
	b := DefaultBindings()
	v := Velocity{}
	for _, key := range []int{common.KeyW, common.KeyA, common.KeySpace, common.KeyRight} {
		v = Reduce(b, v, press(key))
	}
	want := Velocity{DX: 0.001, DY: 0.001, DZ: 0.001, DYaw: 0.001}
	if v != want {
		t.Fatalf("velocity after presses = %+v, want %+v", v, want)
	}

	v = Reduce(b, v, release(common.KeyW))
	want.DZ = 0
	if v != want {
		t.Fatalf("velocity after W up = %+v, want %+v", v, want)
	}
	if again := Reduce(b, v, release(common.KeyW)); again != v {
		t.Fatalf("second W up changed velocity to %+v", again)
	}

	if got := Reduce(b, v, press('Q')); got != v {
		t.Fatalf("unbound key changed velocity to %+v", got)
	}

	for _, key := range []int{common.KeyA, common.KeySpace, common.KeyRight} {
		v = Reduce(b, v, release(key))
	}
	if !v.IsZero() {
		t.Fatalf("velocity after all keys up = %+v", v)
	}
}

func TestOpposingKeysOverride(t *testing.T) {
	b := DefaultBindings()
	v := Reduce(b, Velocity{}, press(common.KeyW))
	v = Reduce(b, v, press(common.KeyS))
	if v.DZ != -0.001 {
		t.Fatalf("DZ = %v, want the last pressed key's delta", v.DZ)
	}
	v = Reduce(b, v, release(common.KeyW))
	if v.DZ != 0 {
		t.Fatalf("DZ = %v after W up, want 0", v.DZ)
	}
}

func TestNoDriftAtRest(t *testing.T) {
	ctrl := NewFlyController(WithPosition(1, 2, 3), WithYaw(0.3), WithPitch(0.2))
	cam := NewCamera(WithController(ctrl), WithAspect(800.0/600.0))

	first := cam.Update()
	pos := ctrl.Position()
	yaw, pitch := ctrl.Yaw(), ctrl.Pitch()

	for i := 0; i < 1000; i++ {
		if mvp := cam.Update(); mvp != first {
			t.Fatalf("tick %d: MVP changed at rest", i)
		}
	}
	if ctrl.Position() != pos || ctrl.Yaw() != yaw || ctrl.Pitch() != pitch {
		t.Fatalf("pose drifted: %v %v %v", ctrl.Position(), ctrl.Yaw(), ctrl.Pitch())
	}
}

func TestForwardMotionKeepsHeight(t *testing.T) {
	ctrl := NewFlyController(WithPitch(0.6))
	ctrl.Apply(press(common.KeyW))
	for i := 0; i < 100; i++ {
		ctrl.Update()
	}

	p := ctrl.Position()
	if p[1] != 0 {
		t.Fatalf("y = %v, forward motion must stay in the horizontal plane", p[1])
	}
	if p[0] != 0 {
		t.Fatalf("x = %v, want 0 when facing +Z", p[0])
	}
	if math.Abs(float64(p[2])-0.1) > 1e-4 {
		t.Fatalf("z = %v, want 0.1 regardless of pitch", p[2])
	}

	ctrl.Apply(release(common.KeyW))
	ctrl.Update()
	if ctrl.Position() != p {
		t.Fatal("camera kept moving after key up")
	}
}

func TestStrafeAndVertical(t *testing.T) {
	ctrl := NewFlyController()
	ctrl.Apply(press(common.KeyA))
	ctrl.Apply(press(common.KeySpace))
	ctrl.Update()

	p := ctrl.Position()
	if p[0] >= 0 || p[2] != 0 {
		t.Fatalf("A should move along -X, position %v", p)
	}
	if p[1] != 0.001 {
		t.Fatalf("Space should raise y by one step, got %v", p[1])
	}
}

func TestYawTurnsForward(t *testing.T) {
	ctrl := NewFlyController(WithBindings(NewBindings(0.001, float32(math.Pi/2))))
	ctrl.Apply(press(common.KeyRight))
	ctrl.Update()

	fwd := ctrl.Forward()
	want := mgl32.Vec3{1, 0, 0}
	for i := range want {
		if math.Abs(float64(fwd[i]-want[i])) > 1e-5 {
			t.Fatalf("forward after a quarter turn right = %v, want +X", fwd)
		}
	}
}

func TestCameraMatrices(t *testing.T) {
	cam := NewCamera()
	mvp := cam.Update()

	if cam.World() != mgl32.Scale3D(0.5, 0.5, 0.5) {
		t.Fatalf("world = %v", cam.World())
	}
	if mvp != cam.Projection().Mul4(cam.View()).Mul4(cam.World()) {
		t.Fatal("MVP is not projection * view * world")
	}

	// A point straight ahead lands in the center of the screen with depth inside [0, 1].
	clip := mvp.Mul4x1(mgl32.Vec4{0, 0, 2, 1})
	if math.Abs(float64(clip[0])) > 1e-6 || math.Abs(float64(clip[1])) > 1e-6 {
		t.Fatalf("clip xy = %v, %v", clip[0], clip[1])
	}
	if math.Abs(float64(clip[3])-1) > 1e-6 {
		t.Fatalf("clip w = %v, want view depth 1", clip[3])
	}
	if d := clip[2] / clip[3]; d <= 0 || d >= 1 {
		t.Fatalf("depth = %v", d)
	}
}
