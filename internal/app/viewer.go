package app

import (
	"errors"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/scenery/internal/engine/camera"
	"github.com/Faultbox/scenery/internal/engine/debug"
	"github.com/Faultbox/scenery/internal/engine/input"
	"github.com/Faultbox/scenery/internal/engine/picking"
	"github.com/Faultbox/scenery/internal/engine/scenegraph"
	"github.com/Faultbox/scenery/internal/logger"
)

// SceneRenderer is the renderer surface the viewer drives.
type SceneRenderer interface {
	InitializeScene(sc *scenegraph.Scene) error
	// IsNodeFailure reports whether an InitializeScene error only names
	// nodes that will be skipped, leaving the scene renderable.
	IsNodeFailure(err error) bool
	Render(sc *scenegraph.Scene) error
	Resize(width, height int32) error
	ToggleDebug() bool
	ToggleSSAO() bool
	ReloadShaders(changed ...string) error
	Close()
}

// ViewerConfig wires a Viewer.
type ViewerConfig struct {
	Scene    *scenegraph.Scene
	Camera   *scenegraph.Camera
	Renderer SceneRenderer

	// Orbit drives Camera when set.
	Orbit *camera.Orbit

	FovY, Near, Far float32

	// Screenshots are taken on F12 when both are set.
	Screenshots *debug.ScreenshotCapture
	Pixels      debug.PixelReader

	// ShaderChanges delivers changed shader file names to reload.
	ShaderChanges <-chan []string
}

// Viewer is a Handler that renders a scene through an orbit camera.
//
// Keys: F1 toggles the G-buffer debug view, F2 toggles ambient occlusion,
// F12 saves a screenshot, arrow keys and PageUp/PageDown pan the orbit.
// Dragging with the left button orbits, the wheel zooms and a right click
// centers the orbit on the node under the cursor.
type Viewer struct {
	cfg ViewerConfig
	log *zap.Logger

	width, height int32
	dragging      bool
	capture       bool
}

// NewViewer creates a viewer.
func NewViewer(cfg ViewerConfig) (*Viewer, error) {
	if cfg.Scene == nil || cfg.Camera == nil || cfg.Renderer == nil {
		return nil, errors.New("viewer needs a scene, a camera and a renderer")
	}
	return &Viewer{cfg: cfg, log: logger.Named("viewer")}, nil
}

func (v *Viewer) Init() error {
	if v.cfg.Orbit != nil {
		v.cfg.Orbit.Apply(v.cfg.Camera)
	}
	err := v.cfg.Renderer.InitializeScene(v.cfg.Scene)
	if err != nil && v.cfg.Renderer.IsNodeFailure(err) {
		v.log.Warn("some nodes failed to initialize and will not be drawn", zap.Error(err))
		return nil
	}
	return err
}

func (v *Viewer) Reshape(width, height int32) error {
	width, height = max(width, 1), max(height, 1)
	if width == v.width && height == v.height {
		return nil
	}
	v.width, v.height = width, height
	v.cfg.Camera.SetPerspective(v.cfg.FovY, float32(width)/float32(height), v.cfg.Near, v.cfg.Far)
	return v.cfg.Renderer.Resize(width, height)
}

func (v *Viewer) Display() error {
	v.reloadShaders()

	if v.cfg.Orbit != nil {
		v.cfg.Orbit.Apply(v.cfg.Camera)
	}
	if err := v.cfg.Renderer.Render(v.cfg.Scene); err != nil {
		return err
	}

	if v.capture {
		v.capture = false
		v.screenshot()
	}
	return nil
}

func (v *Viewer) Dispose() {
	v.cfg.Renderer.Close()
}

// HandleEvent applies key toggles and camera controls.
func (v *Viewer) HandleEvent(e input.Event) {
	o := v.cfg.Orbit

	switch e.Type {
	case input.EventKeyDown:
		if e.Repeat {
			v.pan(e.Key)
			return
		}
		switch e.Key {
		case sdl.SCANCODE_F1:
			v.log.Info("deferred buffer debug view", zap.Bool("enabled", v.cfg.Renderer.ToggleDebug()))
		case sdl.SCANCODE_F2:
			v.log.Info("ambient occlusion", zap.Bool("enabled", v.cfg.Renderer.ToggleSSAO()))
		case sdl.SCANCODE_F12:
			v.capture = true
		default:
			v.pan(e.Key)
		}

	case input.EventMouseDown:
		switch e.Button {
		case sdl.BUTTON_LEFT:
			v.dragging = true
		case sdl.BUTTON_RIGHT:
			v.pick(e.MouseX, e.MouseY)
		}
	case input.EventMouseUp:
		if e.Button == sdl.BUTTON_LEFT {
			v.dragging = false
		}
	case input.EventMouseMove:
		if v.dragging && o != nil {
			o.HandleDrag(float32(e.DeltaX), float32(e.DeltaY))
		}
	case input.EventMouseWheel:
		if o != nil {
			o.HandleZoom(e.Wheel)
		}
	}
}

func (v *Viewer) pan(key sdl.Scancode) {
	o := v.cfg.Orbit
	if o == nil {
		return
	}
	switch key {
	case sdl.SCANCODE_UP:
		o.HandleMovement(1, 0, 0)
	case sdl.SCANCODE_DOWN:
		o.HandleMovement(-1, 0, 0)
	case sdl.SCANCODE_LEFT:
		o.HandleMovement(0, -1, 0)
	case sdl.SCANCODE_RIGHT:
		o.HandleMovement(0, 1, 0)
	case sdl.SCANCODE_PAGEUP:
		o.HandleMovement(0, 0, 1)
	case sdl.SCANCODE_PAGEDOWN:
		o.HandleMovement(0, 0, -1)
	}
}

func (v *Viewer) pick(x, y int32) {
	if v.width == 0 || v.height == 0 {
		return
	}
	hit, ok := picking.PickScreen(v.cfg.Scene, v.cfg.Camera, float32(x), float32(y), float32(v.width), float32(v.height))
	if !ok {
		return
	}
	v.log.Info("picked node",
		zap.String("node", hit.Node.Name),
		zap.Stringer("id", hit.Node.ID),
		zap.Float32("distance", hit.Distance),
	)
	if v.cfg.Orbit != nil {
		v.cfg.Orbit.Center = hit.Node.WorldPosition()
	}
}

// reloadShaders drains pending change batches without blocking.
func (v *Viewer) reloadShaders() {
	if v.cfg.ShaderChanges == nil {
		return
	}
	for {
		select {
		case changed, ok := <-v.cfg.ShaderChanges:
			if !ok {
				v.cfg.ShaderChanges = nil
				return
			}
			if err := v.cfg.Renderer.ReloadShaders(changed...); err != nil {
				v.log.Error("shader reload failed", zap.Strings("files", changed), zap.Error(err))
				continue
			}
			v.log.Info("shaders reloaded", zap.Strings("files", changed))
		default:
			return
		}
	}
}

func (v *Viewer) screenshot() {
	if v.cfg.Screenshots == nil || v.cfg.Pixels == nil {
		return
	}
	path, err := v.cfg.Screenshots.Capture(v.cfg.Pixels, v.width, v.height)
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}
