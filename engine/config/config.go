// Package config holds the viewer's settings and loads them from YAML files.
package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the complete viewer configuration. The zero value is not valid, start from Default.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Renderer RendererConfig `yaml:"renderer"`
	Mesh     MeshConfig     `yaml:"mesh"`
	Shader   ShaderConfig   `yaml:"shader"`
	Camera   CameraConfig   `yaml:"camera"`
	Log      LogConfig      `yaml:"log"`

	// Profile enables periodic frame statistics in the log.
	Profile bool `yaml:"profile"`
}

// WindowConfig sets the window title and its fixed client size.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// RendererConfig holds the swap chain and adapter settings.
type RendererConfig struct {
	BufferCount          int  `yaml:"buffer_count"`
	VSync                bool `yaml:"vsync"`
	ForceFallbackAdapter bool `yaml:"force_fallback_adapter"`
	DepthClip            bool `yaml:"depth_clip"`
}

// MeshConfig selects the mesh to draw. When Triangle is set the OBJ paths are ignored.
type MeshConfig struct {
	OBJ      string `yaml:"obj"`
	MTL      string `yaml:"mtl"`
	Triangle bool   `yaml:"triangle"`
}

// ShaderConfig points at a WGSL file. An empty path selects the built-in shader.
type ShaderConfig struct {
	Path string `yaml:"path"`
}

// CameraConfig sets the camera's start position and per-tick speeds.
type CameraConfig struct {
	Position  [3]float32 `yaml:"position,flow"`
	MoveSpeed float32    `yaml:"move_speed"`
	LookSpeed float32    `yaml:"look_speed"`
}

// LogConfig selects the slog level and handler.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

const (
	DefaultTitle     = "oxy-viewer"
	DefaultWidth     = 800
	DefaultHeight    = 600
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns the built-in configuration: an 800x600 window, two vsynced back buffers, the
// built-in triangle and shader, and the camera two units behind the origin.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  DefaultTitle,
			Width:  DefaultWidth,
			Height: DefaultHeight,
		},
		Renderer: RendererConfig{
			BufferCount: renderer.MinBufferCount,
			VSync:       true,
			DepthClip:   true,
		},
		Mesh: MeshConfig{
			Triangle: true,
		},
		Camera: CameraConfig{
			Position:  [3]float32{0, 0, -2},
			MoveSpeed: 0.001,
			LookSpeed: 0.001,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads the YAML file at path over Default. Keys missing from the file keep their default
// value, unknown keys are an error. The result is validated.
//
// Parameters:
//   - path: the config file path
//
// Returns:
//   - Config: the loaded configuration
//   - error: error if the file cannot be read, parsed or validated
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config %s", path)
	}
	cfg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Decode reads YAML from r over Default and validates the result. An empty document yields Default.
//
// Parameters:
//   - r: the YAML source
//
// Returns:
//   - Config: the decoded configuration
//   - error: error if the document cannot be parsed or validated
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "failed to parse config")
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// normalize fills blank strings with their defaults.
func (c *Config) normalize() {
	c.Window.Title = common.Coalesce(c.Window.Title, DefaultTitle)
	c.Log.Level = strings.ToLower(common.Coalesce(c.Log.Level, DefaultLogLevel))
	c.Log.Format = strings.ToLower(common.Coalesce(c.Log.Format, DefaultLogFormat))
}

// Validate checks every setting's range.
//
// Returns:
//   - error: the first invalid setting, or nil
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Renderer.BufferCount < renderer.MinBufferCount || c.Renderer.BufferCount > renderer.MaxBufferCount {
		return errors.Errorf("renderer.buffer_count %d outside [%d, %d]",
			c.Renderer.BufferCount, renderer.MinBufferCount, renderer.MaxBufferCount)
	}
	if !c.Mesh.Triangle && c.Mesh.OBJ == "" {
		return errors.New("mesh.obj is required unless mesh.triangle is set")
	}
	if c.Camera.MoveSpeed <= 0 || c.Camera.LookSpeed <= 0 {
		return errors.Errorf("camera speeds must be positive, got move %v look %v", c.Camera.MoveSpeed, c.Camera.LookSpeed)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Errorf("log.format %q must be text or json", c.Log.Format)
	}
	return nil
}

// LogLevel parses Log.Level.
//
// Returns:
//   - slog.Level: the level
//   - error: error if the level name is unknown
func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.Wrapf(err, "log.level %q", c.Log.Level)
	}
	return level, nil
}
