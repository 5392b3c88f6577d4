package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"
	"github.com/go-gl/mathgl/mgl32"
)

// Window is the part of window.Window the frame loop drives.
type Window interface {
	SetUpdateCallback(callback func())
	SetKeyCallback(callback func(ev camera.InputEvent))
	ProcessMessages()
	RequestClose()
	Width() int
	Height() int
}

// Renderer is the part of renderer.Renderer the frame loop drives.
type Renderer interface {
	Update(mvp mgl32.Mat4) error
	Render() error
	CheckSurface(width, height int) error
}

// engine implements the Engine interface.
// Runs the whole frame on the window's message loop goroutine.
type engine struct {
	mu sync.Mutex

	running  bool
	quitOnce sync.Once
	err      error
	frames   uint64

	window   Window
	renderer Renderer
	camera   camera.Camera

	profiler         *profiler.Profiler
	profilingEnabled bool

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	maxFrames        uint64        // 0 = run until the window closes
	frameCallback    func(frame uint64)
}

// Engine is the main entry point for the viewer.
// It forwards key events to the camera and runs one frame per message loop iteration:
// camera update, transform write, record, submit, present and GPU wait, in that order.
type Engine interface {
	// Window returns the window the engine runs on.
	//
	// Returns:
	//   - Window: the window instance
	Window() Window

	// Renderer returns the renderer frames are drawn with.
	Renderer() Renderer

	// Camera returns the camera driven by the frame loop.
	Camera() camera.Camera

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the frame loop and blocks until the window closes, Quit is called or a frame fails.
	//
	// Returns:
	//   - error: the first frame error, or nil on a clean shutdown
	Run() error

	// Quit asks the loop to stop after the current frame.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()

	// Frames returns the number of frames rendered so far.
	Frames() uint64
}

// NewEngine creates a new Engine instance with the provided options.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (window, renderer, camera, profiling)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{}
	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler()
	}
	return e
}

func (e *engine) Window() Window {
	return e.window
}

func (e *engine) Renderer() Renderer {
	return e.renderer
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Run() error {
	const op = "engine.Run"
	if e.window == nil || e.renderer == nil || e.camera == nil {
		return common.Errorf(common.KindSubmit, op, "engine needs a window, a renderer and a camera")
	}
	if err := e.renderer.CheckSurface(e.window.Width(), e.window.Height()); err != nil {
		return err
	}

	e.mu.Lock()
	e.running = true
	e.mu.Unlock()

	ctrl := e.camera.Controller()
	e.window.SetKeyCallback(ctrl.Apply)
	e.window.SetUpdateCallback(e.frame)
	e.window.ProcessMessages()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
	return e.err
}

// frame runs one iteration of the loop. A failure is recorded and closes the window; the loop
// never retries a frame.
func (e *engine) frame() {
	if !e.isRunning() {
		return
	}
	start := time.Now()

	if err := e.renderFrame(); err != nil {
		slog.Error("frame failed", "frame", e.frames, "error", err)
		e.mu.Lock()
		e.err = err
		e.mu.Unlock()
		e.Quit()
		return
	}
	e.frames++

	if e.frameCallback != nil {
		e.frameCallback(e.frames)
	}
	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick()
	}
	if e.maxFrames > 0 && e.frames >= e.maxFrames {
		e.Quit()
		return
	}

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

func (e *engine) renderFrame() error {
	if err := e.renderer.CheckSurface(e.window.Width(), e.window.Height()); err != nil {
		return err
	}
	mvp := e.camera.Update()
	if err := e.renderer.Update(mvp); err != nil {
		return err
	}
	return e.renderer.Render()
}

func (e *engine) isRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Quit stops the loop and closes the window.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		if e.window != nil {
			e.window.RequestClose()
		}
	})
}

func (e *engine) Frames() uint64 {
	return e.frames
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetRenderFrameLimit sets an optional frame rate cap.
// Pass 0 to uncap the loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
