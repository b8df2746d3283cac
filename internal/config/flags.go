package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging and the bounds overlay")
	flagModel      = flag.String("model", "", "Model URL or path (also accepted as the first argument)")
	flagType       = flag.String("type", "", "Model type: obj, glb or gltf (default: from extension)")
	flagMaterial   = flag.String("mtl", "", "Material library URL or path for OBJ models")
	flagFOV        = flag.Float64("fov", 0, "Vertical field of view in degrees")
	flagWatch      = flag.Bool("watch", false, "Reload local model files when they change")
	flagStatus     = flag.String("status", "", "Status feed listen address, e.g. :8090")
	flagLogFile    = flag.String("log-file", "", "Write logs to this file as well")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Debug.ShowBounds = true
	}
	model := *flagModel
	if model == "" {
		model = flag.Arg(0)
	}
	if model != "" {
		cfg.Viewer.ModelURL = model
		// A model given on the command line does not inherit the
		// configured model's type or material.
		cfg.Viewer.ModelType = ""
		cfg.Viewer.MaterialURL = ""
	}
	if *flagType != "" {
		cfg.Viewer.ModelType = *flagType
	}
	if *flagMaterial != "" {
		cfg.Viewer.MaterialURL = *flagMaterial
	}
	if *flagFOV > 0 {
		cfg.Viewer.FOV = float32(*flagFOV)
	}
	if *flagWatch {
		cfg.Viewer.Watch = true
	}
	if *flagStatus != "" {
		cfg.Status.Listen = *flagStatus
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagWindowed {
		cfg.Window.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
}
