package config

import (
	"flag"
	"os"
)

// flags holds the command-line overrides. They are registered on a FlagSet
// so tests can parse their own arguments.
type flags struct {
	config     string
	debug      bool
	windowed   bool
	fullscreen bool
	width      int
	height     int
	shaderDir  string
	ssao       bool
	noReload   bool
	seed       int64
}

var (
	cliFlags flags
	cliSet   = newFlagSet(&cliFlags)
)

func newFlagSet(f *flags) *flag.FlagSet {
	fs := flag.NewFlagSet("scenery", flag.ContinueOnError)
	fs.StringVar(&f.config, "config", "", "Path to config file")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&f.windowed, "windowed", false, "Run in windowed mode")
	fs.BoolVar(&f.fullscreen, "fullscreen", false, "Run in fullscreen mode")
	fs.IntVar(&f.width, "width", 0, "Window width")
	fs.IntVar(&f.height, "height", 0, "Window height")
	fs.StringVar(&f.shaderDir, "shaders", "", "Directory overriding the embedded shaders")
	fs.BoolVar(&f.ssao, "ssao", false, "Start with ambient occlusion enabled")
	fs.BoolVar(&f.noReload, "no-reload", false, "Disable shader hot reload")
	fs.Int64Var(&f.seed, "seed", 0, "Demo scene random seed")
	return fs
}

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() error {
	return cliSet.Parse(os.Args[1:])
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return cliFlags.config
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *flags) {
	if f.debug {
		cfg.Logging.Level = "debug"
	}
	if f.windowed {
		cfg.Graphics.Fullscreen = false
	}
	if f.fullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if f.width > 0 {
		cfg.Graphics.Width = f.width
	}
	if f.height > 0 {
		cfg.Graphics.Height = f.height
	}
	if f.shaderDir != "" {
		cfg.Renderer.ShaderDir = f.shaderDir
	}
	if f.ssao {
		cfg.Renderer.SSAO = true
	}
	if f.noReload {
		cfg.Renderer.HotReload = false
	}
	if f.seed != 0 {
		cfg.Demo.Seed = f.seed
	}
}
