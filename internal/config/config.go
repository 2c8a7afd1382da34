// Package config handles application configuration loading and management.
package config

import "time"

// Config holds all application settings.
type Config struct {
	Graphics    GraphicsConfig   `yaml:"graphics"`
	Renderer    RendererConfig   `yaml:"renderer"`
	Demo        DemoConfig       `yaml:"demo"`
	Logging     LoggingConfig    `yaml:"logging"`
	Screenshots ScreenshotConfig `yaml:"screenshots"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// RendererConfig holds deferred renderer settings.
type RendererConfig struct {
	ShaderDir             string     `yaml:"shader_dir"`  // Overrides embedded shaders
	AssetPaths            []string   `yaml:"asset_paths"` // Texture search directories
	DebugBuffers          bool       `yaml:"debug_buffers"`
	SSAO                  bool       `yaml:"ssao"`
	SSAOFilterRadius      [2]float32 `yaml:"ssao_filter_radius"`
	SSAODistanceThreshold float32    `yaml:"ssao_distance_threshold"`
	TextureSamplerOffset  uint32     `yaml:"texture_sampler_offset"`
	HotReload             bool       `yaml:"hot_reload"`
}

// DemoConfig holds settings of the demo scene.
type DemoConfig struct {
	Boxes  int           `yaml:"boxes"`
	Tick   time.Duration `yaml:"tick"`
	Seed   int64         `yaml:"seed"` // 0 picks a time based seed
	Lights int           `yaml:"lights"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// ScreenshotConfig holds screenshot output settings.
type ScreenshotConfig struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Renderer: RendererConfig{
			DebugBuffers:          false,
			SSAO:                  false,
			SSAOFilterRadius:      [2]float32{0.001, 0.001},
			SSAODistanceThreshold: 0.5,
			TextureSamplerOffset:  5,
			HotReload:             true,
		},
		Demo: DemoConfig{
			Boxes:  20,
			Tick:   16 * time.Millisecond,
			Lights: 3,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Screenshots: ScreenshotConfig{
			Dir:    "screenshots",
			Prefix: "scenery",
		},
	}
}
