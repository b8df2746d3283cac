// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	gomath "math"
	"time"

	"github.com/Faultbox/terraview/internal/assets"
	"github.com/Faultbox/terraview/internal/engine/camera"
	"github.com/Faultbox/terraview/internal/loader"
	"github.com/Faultbox/terraview/internal/logger"
)

// ErrInvalid is wrapped by every Validate error.
var ErrInvalid = errors.New("invalid config")

// Config holds all viewer settings.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Controls ControlsConfig `yaml:"controls"`
	Assets   AssetsConfig   `yaml:"assets"`
	Status   StatusConfig   `yaml:"status"`
	Debug    DebugConfig    `yaml:"debug"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// ViewerConfig selects the model to show.
type ViewerConfig struct {
	ModelURL    string  `yaml:"model_url"`
	ModelType   string  `yaml:"model_type"` // obj, glb or gltf; inferred from the URL when empty
	MaterialURL string  `yaml:"material_url"`
	FOV         float32 `yaml:"fov"`
	AutoRotate  bool    `yaml:"auto_rotate"`
	Shadows     bool    `yaml:"shadows"`
	Watch       bool    `yaml:"watch"` // Reload local files when they change
}

// ControlsConfig holds orbit control settings.
type ControlsConfig struct {
	MinDistance float32 `yaml:"min_distance"`
	MaxDistance float32 `yaml:"max_distance"`
	MaxPolarDeg float32 `yaml:"max_polar_deg"`
	Damping     float32 `yaml:"damping"`
	RotateSpeed float32 `yaml:"rotate_speed"`
	ZoomSpeed   float32 `yaml:"zoom_speed"`
}

// AssetsConfig holds fetch settings.
type AssetsConfig struct {
	Cache     bool          `yaml:"cache"`
	Timeout   time.Duration `yaml:"timeout"` // 0 waits forever
	UserAgent string        `yaml:"user_agent"`
}

// StatusConfig holds status feed settings.
type StatusConfig struct {
	Listen string `yaml:"listen"` // Empty disables the feed
}

// DebugConfig holds diagnostic settings.
type DebugConfig struct {
	ShowBounds    bool   `yaml:"show_bounds"`
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	orbit := camera.DefaultOrbitSettings()
	return &Config{
		Window: WindowConfig{
			Title:  "Terraview",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Viewer: ViewerConfig{
			FOV:        camera.DefaultFOV,
			AutoRotate: true,
			Shadows:    true,
		},
		Controls: ControlsConfig{
			MinDistance: orbit.MinDistance,
			MaxDistance: orbit.MaxDistance,
			MaxPolarDeg: 81,
			Damping:     orbit.DampingFactor,
			RotateSpeed: orbit.RotateSpeed,
			ZoomSpeed:   orbit.ZoomSpeed,
		},
		Assets: AssetsConfig{
			Cache:     true,
			UserAgent: "terraview",
		},
		Debug: DebugConfig{
			ScreenshotDir: "screenshots",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: logger.FormatConsole,
		},
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	case c.Viewer.FOV <= 0 || c.Viewer.FOV >= 180:
		return fmt.Errorf("%w: fov %v must be in (0, 180)", ErrInvalid, c.Viewer.FOV)
	case c.Controls.MinDistance < 0 || c.Controls.MaxDistance < c.Controls.MinDistance:
		return fmt.Errorf("%w: distance range [%v, %v]", ErrInvalid, c.Controls.MinDistance, c.Controls.MaxDistance)
	case c.Controls.MaxPolarDeg <= 0 || c.Controls.MaxPolarDeg > 180:
		return fmt.Errorf("%w: max_polar_deg %v must be in (0, 180]", ErrInvalid, c.Controls.MaxPolarDeg)
	case c.Controls.Damping < 0 || c.Controls.Damping >= 1:
		return fmt.Errorf("%w: damping %v must be in [0, 1)", ErrInvalid, c.Controls.Damping)
	case c.Assets.Timeout < 0:
		return fmt.Errorf("%w: negative asset timeout", ErrInvalid)
	}
	return nil
}

// Request returns the configured load request. The model type is inferred
// from the URL when not set. An unknown type is passed through as given so
// the load fails with it.
func (c *Config) Request() loader.Request {
	req := loader.Request{
		ModelURL:    c.Viewer.ModelURL,
		Kind:        loader.Kind(c.Viewer.ModelType),
		MaterialURL: c.Viewer.MaterialURL,
	}
	if c.Viewer.ModelType == "" {
		req.Kind, _ = loader.KindFromPath(c.Viewer.ModelURL)
	} else if kind, err := loader.ParseKind(c.Viewer.ModelType); err == nil {
		req.Kind = kind
	}
	return req
}

// OrbitSettings converts the controls section.
func (c *Config) OrbitSettings() camera.OrbitSettings {
	return camera.OrbitSettings{
		MinDistance:   c.Controls.MinDistance,
		MaxDistance:   c.Controls.MaxDistance,
		MinPolar:      0,
		MaxPolar:      c.Controls.MaxPolarDeg * gomath.Pi / 180,
		DampingFactor: c.Controls.Damping,
		RotateSpeed:   c.Controls.RotateSpeed,
		ZoomSpeed:     c.Controls.ZoomSpeed,
	}
}

// FetchOptions converts the assets section.
func (c *Config) FetchOptions() assets.Options {
	return assets.Options{
		Cache:     c.Assets.Cache,
		Timeout:   c.Assets.Timeout,
		UserAgent: c.Assets.UserAgent,
	}
}

// LoggerOptions converts the logging section.
func (c *Config) LoggerOptions() logger.Options {
	opts := logger.Options{
		Level:   c.Logging.Level,
		Format:  c.Logging.Format,
		Console: true,
	}
	if c.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(c.Logging.LogFile)
	}
	return opts
}
