package config

import (
	"errors"
	gomath "math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Faultbox/terraview/internal/loader"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Window.Width != 1280 || cfg.Window.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if !cfg.Window.VSync {
		t.Error("expected vsync to be true by default")
	}

	if cfg.Viewer.FOV != 50 {
		t.Errorf("expected fov 50, got %v", cfg.Viewer.FOV)
	}
	if !cfg.Viewer.AutoRotate || !cfg.Viewer.Shadows || cfg.Viewer.Watch {
		t.Errorf("unexpected viewer defaults: %+v", cfg.Viewer)
	}

	if cfg.Controls.MinDistance != 50 || cfg.Controls.MaxDistance != 1000 {
		t.Errorf("expected distance range [50, 1000], got [%v, %v]", cfg.Controls.MinDistance, cfg.Controls.MaxDistance)
	}
	if cfg.Controls.Damping != 0.1 || cfg.Controls.RotateSpeed != 0.5 {
		t.Errorf("unexpected controls: %+v", cfg.Controls)
	}

	if !cfg.Assets.Cache || cfg.Assets.Timeout != 0 {
		t.Errorf("unexpected assets defaults: %+v", cfg.Assets)
	}
	if cfg.Status.Listen != "" {
		t.Errorf("expected status feed disabled, got %q", cfg.Status.Listen)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestOrbitSettings(t *testing.T) {
	s := Default().OrbitSettings()
	if got, want := float64(s.MaxPolar), gomath.Pi*0.45; gomath.Abs(got-want) > 1e-6 {
		t.Errorf("MaxPolar = %v, want %v", got, want)
	}
	if s.MinDistance != 50 || s.MaxDistance != 1000 || s.DampingFactor != 0.1 || s.RotateSpeed != 0.5 {
		t.Errorf("settings = %+v", s)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false

viewer:
  model_url: "https://example.com/models/hill.obj"
  material_url: "https://example.com/models/hill.mtl"
  fov: 60
  watch: true

controls:
  max_distance: 2500

assets:
  cache: false
  timeout: 30s

status:
  listen: ":8090"

debug:
  show_bounds: true

logging:
  level: "debug"
  format: "json"
  log_file: "viewer.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Window.Width != 1920 || cfg.Window.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if !cfg.Window.Fullscreen || cfg.Window.VSync {
		t.Errorf("unexpected window: %+v", cfg.Window)
	}
	if cfg.Viewer.FOV != 60 || !cfg.Viewer.Watch {
		t.Errorf("unexpected viewer: %+v", cfg.Viewer)
	}
	if cfg.Controls.MaxDistance != 2500 || cfg.Controls.MinDistance != 50 {
		t.Errorf("controls not merged with defaults: %+v", cfg.Controls)
	}
	if cfg.Assets.Cache || cfg.Assets.Timeout != 30*time.Second {
		t.Errorf("unexpected assets: %+v", cfg.Assets)
	}
	if cfg.Status.Listen != ":8090" || !cfg.Debug.ShowBounds {
		t.Errorf("unexpected status/debug: %+v %+v", cfg.Status, cfg.Debug)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.LogFile != "viewer.log" {
		t.Errorf("unexpected logging: %+v", cfg.Logging)
	}

	req := cfg.Request()
	want := loader.Request{
		ModelURL:    "https://example.com/models/hill.obj",
		Kind:        loader.KindOBJ,
		MaterialURL: "https://example.com/models/hill.mtl",
	}
	if req != want {
		t.Errorf("Request() = %+v, want %+v", req, want)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
window:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestRequest(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		modelType string
		want      loader.Kind
	}{
		{"explicit", "https://x/model", "GLB", loader.KindGLB},
		{"from extension", "file:///data/scene.gltf", "", loader.KindGLTF},
		{"query string", "https://x/a.OBJ?v=2", "", loader.KindOBJ},
		{"unknown type kept", "https://x/a.obj", "fbx", loader.Kind("fbx")},
		{"unknown extension", "https://x/a.stl", "", loader.Kind("stl")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Viewer.ModelURL = tt.url
			cfg.Viewer.ModelType = tt.modelType
			if got := cfg.Request().Kind; got != tt.want {
				t.Errorf("Kind = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"fov too wide", func(c *Config) { c.Viewer.FOV = 180 }},
		{"inverted distance", func(c *Config) { c.Controls.MinDistance, c.Controls.MaxDistance = 100, 10 }},
		{"polar", func(c *Config) { c.Controls.MaxPolarDeg = 0 }},
		{"damping", func(c *Config) { c.Controls.Damping = 1 }},
		{"timeout", func(c *Config) { c.Assets.Timeout = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile("config.yaml", []byte("window:\n  width: 800\n"), 0o644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" || !cfg.Debug.ShowBounds {
					t.Errorf("debug flag: level %s, show bounds %v", cfg.Logging.Level, cfg.Debug.ShowBounds)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name: "model flag resets type and material",
			setup: func() {
				*flagModel = "terrain.glb"
			},
			verify: func(t *testing.T, cfg *Config) {
				req := cfg.Request()
				if req.ModelURL != "terrain.glb" || req.Kind != loader.KindGLB || req.MaterialURL != "" {
					t.Errorf("request = %+v", req)
				}
			},
			teardown: func() { *flagModel = "" },
		},
		{
			name: "type and material flags",
			setup: func() {
				*flagModel = "https://x/download?id=7"
				*flagType = "obj"
				*flagMaterial = "https://x/download?id=8"
			},
			verify: func(t *testing.T, cfg *Config) {
				req := cfg.Request()
				if req.Kind != loader.KindOBJ || req.MaterialURL != "https://x/download?id=8" {
					t.Errorf("request = %+v", req)
				}
			},
			teardown: func() {
				*flagModel = ""
				*flagType = ""
				*flagMaterial = ""
			},
		},
		{
			name: "viewer flags",
			setup: func() {
				*flagFOV = 35
				*flagWatch = true
				*flagStatus = "127.0.0.1:9000"
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Viewer.FOV != 35 || !cfg.Viewer.Watch || cfg.Status.Listen != "127.0.0.1:9000" {
					t.Errorf("viewer %+v, status %+v", cfg.Viewer, cfg.Status)
				}
			},
			teardown: func() {
				*flagFOV = 0
				*flagWatch = false
				*flagStatus = ""
			},
		},
		{
			name:  "windowed flag",
			setup: func() { *flagWindowed = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Fullscreen {
					t.Error("expected fullscreen to be false with windowed flag")
				}
			},
			teardown: func() { *flagWindowed = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Window.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Width != 2560 || cfg.Window.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Window.Width, cfg.Window.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			cfg.Viewer.MaterialURL = "configured.mtl"
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width from flag, height from file
	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Window.Height)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("viewer:\n  fov: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); !errors.Is(err, ErrInvalid) {
		t.Errorf("Load() = %v, want ErrInvalid", err)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Viewer.ModelURL = "https://example.com/a.glb"
	cfg.Assets.Timeout = 15 * time.Second

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Viewer.ModelURL != cfg.Viewer.ModelURL || loaded.Assets.Timeout != cfg.Assets.Timeout {
		t.Errorf("reloaded = %+v / %+v", loaded.Viewer, loaded.Assets)
	}
}
