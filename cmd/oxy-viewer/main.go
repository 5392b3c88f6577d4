// Command oxy-viewer opens a window and draws an OBJ mesh, or the built-in triangle, with a
// first-person fly camera.
//
//	oxy-viewer -obj assets/cube.obj -mtl assets/cube.mtl
//
// Controls: WASD move, Space/Left Shift up and down, arrow keys look, Escape quits.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-viewer/engine"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/config"
	"github.com/Carmen-Shannon/oxy-viewer/engine/loader"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-viewer/engine/window"
)

type flags struct {
	config   string
	obj      string
	mtl      string
	shader   string
	triangle bool
	buffers  int
	vsync    bool
	software bool
	logLevel string
	profile  bool
	frames   uint64
}

func main() {
	var f flags
	fs := flag.NewFlagSet("oxy-viewer", flag.ExitOnError)
	fs.StringVar(&f.config, "config", "", "YAML config file")
	fs.StringVar(&f.obj, "obj", "", "OBJ mesh to draw")
	fs.StringVar(&f.mtl, "mtl", "", "MTL material library for -obj")
	fs.StringVar(&f.shader, "shader", "", "WGSL shader file (default: built-in)")
	fs.BoolVar(&f.triangle, "triangle", false, "draw the built-in triangle instead of a mesh")
	fs.IntVar(&f.buffers, "buffers", renderer.MinBufferCount, "number of swap chain buffers")
	fs.BoolVar(&f.vsync, "vsync", true, "wait for vertical blank when presenting")
	fs.BoolVar(&f.software, "software", false, "force the fallback (software) adapter")
	fs.StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "debug, info, warn or error")
	fs.BoolVar(&f.profile, "profile", false, "log frame statistics every second")
	fs.Uint64Var(&f.frames, "frames", 0, "exit after this many frames (0 = until the window closes)")
	fs.Parse(os.Args[1:])

	if err := run(fs, f); err != nil {
		slog.Error("oxy-viewer failed", "error", err)
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, if any, and applies the flags that were set explicitly.
func loadConfig(fs *flag.FlagSet, f flags) (config.Config, error) {
	cfg := config.Default()
	if f.config != "" {
		var err error
		if cfg, err = config.Load(f.config); err != nil {
			return config.Config{}, err
		}
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "obj":
			cfg.Mesh.OBJ = f.obj
			cfg.Mesh.Triangle = false
		case "mtl":
			cfg.Mesh.MTL = f.mtl
		case "shader":
			cfg.Shader.Path = f.shader
		case "triangle":
			cfg.Mesh.Triangle = f.triangle
		case "buffers":
			cfg.Renderer.BufferCount = f.buffers
		case "vsync":
			cfg.Renderer.VSync = f.vsync
		case "software":
			cfg.Renderer.ForceFallbackAdapter = f.software
		case "log-level":
			cfg.Log.Level = f.logLevel
		case "profile":
			cfg.Profile = f.profile
		}
	})
	return cfg, cfg.Validate()
}

func setupLogging(w io.Writer, cfg config.Config) error {
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func run(fs *flag.FlagSet, f flags) error {
	cfg, err := loadConfig(fs, f)
	if err != nil {
		return err
	}
	if err := setupLogging(os.Stderr, cfg); err != nil {
		return err
	}

	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	vs, fsh, err := loadShader(cfg.Shader.Path)
	if err != nil {
		return err
	}
	p := pipeline.NewPipeline("mesh",
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fsh),
		pipeline.WithDepthClip(cfg.Renderer.DepthClip),
	)

	prof := profiler.NewProfiler()
	presentMode := renderer.PresentModeVSync
	if !cfg.Renderer.VSync {
		presentMode = renderer.PresentModeUncapped
	}
	opts := []renderer.RendererBuilderOption{
		renderer.WithPipeline(p),
		renderer.WithPresentMode(presentMode),
		renderer.WithBufferCount(cfg.Renderer.BufferCount),
		renderer.WithForceSoftwareRenderer(cfg.Renderer.ForceFallbackAdapter),
	}
	if cfg.Profile {
		opts = append(opts, renderer.WithWaitObserver(prof.ObserveWait))
	}
	r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, win, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Destroy(); err != nil {
			slog.Error("renderer teardown failed", "error", err)
		}
	}()

	mesh, err := loadMesh(cfg, r.Aspect())
	if err != nil {
		return err
	}
	if err := r.LoadMesh(mesh.Vertices()); err != nil {
		return err
	}
	slog.Info("mesh ready", "name", mesh.Name(), "triangles", mesh.TriangleCount())

	pos := cfg.Camera.Position
	cam := camera.NewCamera(
		camera.WithAspect(r.Aspect()),
		camera.WithController(camera.NewFlyController(
			camera.WithPosition(pos[0], pos[1], pos[2]),
			camera.WithBindings(camera.NewBindings(cfg.Camera.MoveSpeed, cfg.Camera.LookSpeed)),
		)),
	)

	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithRenderer(r),
		engine.WithCamera(cam),
		engine.WithProfiler(prof),
		engine.WithProfiling(cfg.Profile),
		engine.WithMaxFrames(f.frames),
	)
	if err := eng.Run(); err != nil {
		return err
	}
	slog.Info("window closed", "frames", eng.Frames())
	return nil
}

func loadShader(path string) (shader.Shader, shader.Shader, error) {
	if path == "" {
		return shader.Default()
	}
	return shader.LoadFile(path)
}

func loadMesh(cfg config.Config, aspect float32) (model.Model, error) {
	if cfg.Mesh.Triangle {
		return loader.Triangle(aspect), nil
	}
	l := loader.NewLoader(loader.BackendTypeOBJ)
	defer l.Close()
	return l.Load(cfg.Mesh.OBJ, cfg.Mesh.MTL)
}
