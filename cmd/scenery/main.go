// Package main is the entry point of the scenery viewer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/scenery/internal/app"
	"github.com/Faultbox/scenery/internal/assets"
	"github.com/Faultbox/scenery/internal/config"
	"github.com/Faultbox/scenery/internal/demo"
	"github.com/Faultbox/scenery/internal/engine/camera"
	"github.com/Faultbox/scenery/internal/engine/debug"
	"github.com/Faultbox/scenery/internal/engine/input"
	"github.com/Faultbox/scenery/internal/engine/opengl"
	"github.com/Faultbox/scenery/internal/engine/renderer"
	"github.com/Faultbox/scenery/internal/engine/shader"
	"github.com/Faultbox/scenery/internal/engine/texture"
	"github.com/Faultbox/scenery/internal/engine/window"
	"github.com/Faultbox/scenery/internal/logger"
)

const title = "scenery"

func main() {
	if err := config.ParseFlags(); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== scenery ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("scenery exited with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("closed normally")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	win, err := window.New(window.Config{
		Title:      title,
		Width:      int32(cfg.Graphics.Width),
		Height:     int32(cfg.Graphics.Height),
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer win.Close()

	// The device needs the context created by the window.
	dev, err := opengl.NewDevice()
	if err != nil {
		return err
	}

	shaders, err := shader.NewLibrary(cfg.Renderer.ShaderDir)
	if err != nil {
		return err
	}

	textures := assets.NewManager()
	defer textures.Close()
	for _, dir := range cfg.Renderer.AssetPaths {
		if err := textures.AddDir(dir); err != nil {
			logger.Warn("skipping asset path", zap.String("path", dir), zap.Error(err))
		}
	}

	width, height := win.DrawableSize()
	rcfg := renderer.DefaultConfig()
	rcfg.Width, rcfg.Height = width, height
	rcfg.DebugBuffers = cfg.Renderer.DebugBuffers
	rcfg.SSAO = cfg.Renderer.SSAO
	rcfg.SSAOFilterRadius = mgl32.Vec2(cfg.Renderer.SSAOFilterRadius)
	rcfg.SSAODistanceThreshold = cfg.Renderer.SSAODistanceThreshold
	rcfg.TextureUnitOffset = cfg.Renderer.TextureSamplerOffset

	r, err := renderer.NewDeferredRenderer(dev, shaders, texture.NewLoader(textures, dev), rcfg)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	scene, err := demo.Build(cfg.Demo, float32(width)/float32(max(height, 1)))
	if err != nil {
		r.Close()
		return fmt.Errorf("building demo scene: %w", err)
	}

	orbit := camera.NewOrbit()
	orbit.Distance = 30

	vcfg := app.ViewerConfig{
		Scene:       scene.Scene,
		Camera:      scene.Camera,
		Renderer:    r,
		Orbit:       orbit,
		FovY:        demo.FieldOfView,
		Near:        demo.NearPlane,
		Far:         demo.FarPlane,
		Screenshots: debug.NewScreenshotCapture(cfg.Screenshots.Dir, cfg.Screenshots.Prefix),
		Pixels:      dev,
	}

	if cfg.Renderer.HotReload && cfg.Renderer.ShaderDir != "" {
		w, err := shader.NewWatcher(cfg.Renderer.ShaderDir)
		if err != nil {
			logger.Warn("shader hot reload disabled", zap.Error(err))
		} else {
			defer w.Close()
			go w.Run(ctx)
			vcfg.ShaderChanges = w.Changes()
		}
	}

	viewer, err := app.NewViewer(vcfg)
	if err != nil {
		r.Close()
		return err
	}

	animCtx, cancelAnim := context.WithCancel(ctx)
	defer cancelAnim()
	go demo.NewAnimator(scene, cfg.Demo.Tick).Run(animCtx)

	return app.Run(ctx, app.NewSDLPlatform(win, input.New()), viewer, app.Options{Title: title})
}
