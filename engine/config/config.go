// Package config reads engine settings from TOML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid value")

// Config is the root of a configuration file. Missing sections and keys keep the values
// of Default.
type Config struct {
	Window   Window   `toml:"window"`
	Render   Render   `toml:"render"`
	Camera   Camera   `toml:"camera"`
	Textures Textures `toml:"textures"`
	Log      Log      `toml:"log"`
}

// Window holds the initial window geometry.
type Window struct {
	Title     string `toml:"title"`
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	Resizable bool   `toml:"resizable"`
}

// Render selects the backend and the transparency budget.
type Render struct {
	// Backend is "wgpu" or "software".
	Backend string `toml:"backend"`
	// PresentMode is "vsync" or "uncapped".
	PresentMode      string  `toml:"present_mode"`
	Layers           int     `toml:"layers"`
	FallbackAdapter  bool    `toml:"fallback_adapter"`
	Hysteresis       float32 `toml:"hysteresis"`
	FrameLimit       float64 `toml:"frame_limit"`
	TickRate         float64 `toml:"tick_rate"`
	ProfilingEnabled bool    `toml:"profiling"`
}

// Camera holds the initial view.
type Camera struct {
	// Fov is the vertical field of view in degrees.
	Fov       float32 `toml:"fov"`
	Range     float32 `toml:"range"`
	Autoscale bool    `toml:"autoscale"`
}

// Textures configures the texture loader.
type Textures struct {
	Root    string `toml:"root"`
	Workers int    `toml:"workers"`
	MaxSize int    `toml:"max_size"`
}

// Log configures the package logger.
type Log struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// Backend names accepted in [render].
const (
	BackendWGPU     = "wgpu"
	BackendSoftware = "software"
)

// Present modes accepted in [render].
const (
	PresentVSync    = "vsync"
	PresentUncapped = "uncapped"
)

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Window: Window{Title: "oxyviz", Width: 1280, Height: 720, Resizable: true},
		Render: Render{
			Backend:     BackendWGPU,
			PresentMode: PresentVSync,
			Layers:      4,
			Hysteresis:  3,
			TickRate:    60,
		},
		Camera:   Camera{Fov: 60, Autoscale: true},
		Textures: Textures{Root: ".", Workers: 4, MaxSize: 4096},
		Log:      Log{Level: "info"},
	}
}

// Load reads and parses a configuration file.
//
// Parameters:
//   - path: the TOML file
//
// Returns:
//   - Config: the parsed configuration over Default
//   - error: a read, decode or validation error
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML over Default. Unknown keys are rejected.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the parsed configuration
//   - error: a decode or validation error
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("config: %s", strict.String())
		}
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	switch strings.ToLower(c.Render.Backend) {
	case BackendWGPU, BackendSoftware:
	default:
		return fmt.Errorf("%w: render.backend %q", ErrInvalid, c.Render.Backend)
	}
	switch strings.ToLower(c.Render.PresentMode) {
	case PresentVSync, PresentUncapped:
	default:
		return fmt.Errorf("%w: render.present_mode %q", ErrInvalid, c.Render.PresentMode)
	}
	if c.Render.Layers < 1 || c.Render.Layers > 4 {
		return fmt.Errorf("%w: render.layers %d not in [1, 4]", ErrInvalid, c.Render.Layers)
	}
	if c.Render.Hysteresis < 1 {
		return fmt.Errorf("%w: render.hysteresis %g below 1", ErrInvalid, c.Render.Hysteresis)
	}
	if c.Camera.Fov <= 0 || c.Camera.Fov >= 180 {
		return fmt.Errorf("%w: camera.fov %g", ErrInvalid, c.Camera.Fov)
	}
	if c.Camera.Range < 0 {
		return fmt.Errorf("%w: camera.range %g", ErrInvalid, c.Camera.Range)
	}
	if c.Textures.Workers < 0 || c.Textures.MaxSize < 0 {
		return fmt.Errorf("%w: textures workers=%d max_size=%d", ErrInvalid, c.Textures.Workers, c.Textures.MaxSize)
	}
	return nil
}

// Marshal encodes the configuration as TOML.
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
