package engine

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
)

type fakeWindow struct {
	open      bool
	pumped    int
	events    map[int][]camera.InputEvent
	onUpdate  func()
	onKey     func(camera.InputEvent)
	width     int
	height    int
	maxPumped int
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{open: true, width: 800, height: 600, maxPumped: 1000}
}

func (w *fakeWindow) SetUpdateCallback(cb func())                  { w.onUpdate = cb }
func (w *fakeWindow) SetKeyCallback(cb func(ev camera.InputEvent)) { w.onKey = cb }
func (w *fakeWindow) RequestClose()                                { w.open = false }
func (w *fakeWindow) Width() int                                   { return w.width }
func (w *fakeWindow) Height() int                                  { return w.height }

func (w *fakeWindow) ProcessMessages() {
	for w.open && w.pumped < w.maxPumped {
		for _, ev := range w.events[w.pumped] {
			w.onKey(ev)
		}
		w.pumped++
		w.onUpdate()
	}
}

type fakeRenderer struct {
	calls     []string
	mvps      []mgl32.Mat4
	failAt    int
	renders   int
	surfaceOK bool
}

func (r *fakeRenderer) Update(mvp mgl32.Mat4) error {
	r.calls = append(r.calls, "update")
	r.mvps = append(r.mvps, mvp)
	return nil
}

func (r *fakeRenderer) Render() error {
	r.calls = append(r.calls, "render")
	r.renders++
	if r.renders == r.failAt {
		return common.Errorf(common.KindSubmit, "fake.Render", "device lost")
	}
	return nil
}

func (r *fakeRenderer) CheckSurface(width, height int) error {
	if !r.surfaceOK {
		return common.Errorf(common.KindResizeUnsupported, "fake.CheckSurface", "%dx%d", width, height)
	}
	return nil
}

func TestRunStopsAfterMaxFrames(t *testing.T) {
	w := newFakeWindow()
	r := &fakeRenderer{surfaceOK: true}
	var seen []uint64
	e := NewEngine(
		WithWindow(w),
		WithRenderer(r),
		WithCamera(camera.NewCamera()),
		WithMaxFrames(5),
		WithFrameCallback(func(frame uint64) { seen = append(seen, frame) }),
	)

	if err := e.Run(); err != nil {
		t.Fatalf("Run: %+v", err)
	}
	if e.Frames() != 5 || len(seen) != 5 || seen[4] != 5 {
		t.Fatalf("frames = %d, callbacks = %v", e.Frames(), seen)
	}
	if w.open {
		t.Fatal("window still open")
	}
	for i, call := range r.calls {
		want := "update"
		if i%2 == 1 {
			want = "render"
		}
		if call != want {
			t.Fatalf("call %d = %s, want %s (%v)", i, call, want, r.calls)
		}
	}
}

func TestKeyEventsReachTheCamera(t *testing.T) {
	w := newFakeWindow()
	w.events = map[int][]camera.InputEvent{
		2: {{Key: common.KeyW, Action: camera.ActionPress}},
		6: {{Key: common.KeyW, Action: camera.ActionRelease}},
	}
	r := &fakeRenderer{surfaceOK: true}
	cam := camera.NewCamera()
	e := NewEngine(WithWindow(w), WithRenderer(r), WithCamera(cam), WithMaxFrames(10))

	if err := e.Run(); err != nil {
		t.Fatal(err)
	}

	if r.mvps[0] != r.mvps[1] {
		t.Fatal("MVP changed before any key was pressed")
	}
	if r.mvps[2] == r.mvps[1] {
		t.Fatal("MVP did not change on the frame W was pressed")
	}
	if r.mvps[7] != r.mvps[9] {
		t.Fatal("MVP kept changing after W was released")
	}
	if z := cam.Controller().Position()[2]; z <= 0 {
		t.Fatalf("camera z = %v, want forward motion", z)
	}
}

func TestFrameErrorStopsLoop(t *testing.T) {
	w := newFakeWindow()
	r := &fakeRenderer{surfaceOK: true, failAt: 3}
	e := NewEngine(WithWindow(w), WithRenderer(r), WithCamera(camera.NewCamera()))

	err := e.Run()
	if !errors.Is(err, common.ErrSubmit) {
		t.Fatalf("err = %v, want a submit error", err)
	}
	if e.Frames() != 2 || r.renders != 3 || w.pumped != 3 {
		t.Fatalf("frames = %d, renders = %d, pumped = %d", e.Frames(), r.renders, w.pumped)
	}
}

func TestRunRejectsSurfaceMismatch(t *testing.T) {
	w := newFakeWindow()
	r := &fakeRenderer{}
	e := NewEngine(WithWindow(w), WithRenderer(r), WithCamera(camera.NewCamera()))

	if err := e.Run(); !errors.Is(err, common.ErrResizeUnsupported) {
		t.Fatalf("err = %v, want a resize error", err)
	}
	if w.pumped != 0 || len(r.calls) != 0 {
		t.Fatal("loop ran with a mismatched surface")
	}
}

func TestRunNeedsCollaborators(t *testing.T) {
	if err := NewEngine().Run(); err == nil {
		t.Fatal("expected an error without a window")
	}
}
