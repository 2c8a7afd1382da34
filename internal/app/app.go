// Package app runs the frame loop that drives a Handler from window and
// input events.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/scenery/internal/engine/input"
	"github.com/Faultbox/scenery/internal/logger"
)

// Handler receives the lifecycle callbacks of the loop. All callbacks run on
// the goroutine that called Run, which owns the graphics context.
type Handler interface {
	Init() error
	Reshape(width, height int32) error
	Display() error
	Dispose()
}

// EventHandler is implemented by handlers that react to input events.
type EventHandler interface {
	HandleEvent(e input.Event)
}

// Platform is the window system the loop runs on.
type Platform interface {
	// PollEvents returns the events since the last call and whether the
	// user asked to quit.
	PollEvents() ([]input.Event, bool)
	SwapBuffers()
	// DrawableSize is the framebuffer size in pixels.
	DrawableSize() (int32, int32)
	SetTitle(title string)
}

// Options controls the loop.
type Options struct {
	Title string
	// MaxFrames stops the loop after that many frames. Zero runs until quit.
	MaxFrames int
}

// Run calls Init, an initial Reshape, then Display once per frame until the
// platform reports quit, Escape is pressed, ctx is done or a callback fails.
// Dispose runs before Run returns, also when Init fails.
func Run(ctx context.Context, p Platform, h Handler, opts Options) error {
	log := logger.Named("app")

	defer func() {
		log.Info("disposing")
		h.Dispose()
	}()

	if err := h.Init(); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := h.Reshape(p.DrawableSize()); err != nil {
		return fmt.Errorf("reshape: %w", err)
	}

	events, _ := h.(EventHandler)

	frames := 0
	fpsFrames := 0
	fpsTimer := time.Now()
	log.Info("starting frame loop")

	for {
		select {
		case <-ctx.Done():
			log.Info("frame loop cancelled", zap.Error(ctx.Err()))
			return nil
		default:
		}

		evs, quit := p.PollEvents()
		if quit {
			return nil
		}
		for _, e := range evs {
			switch e.Type {
			case input.EventWindowResize:
				if err := h.Reshape(p.DrawableSize()); err != nil {
					return fmt.Errorf("reshape: %w", err)
				}
			case input.EventKeyDown:
				if e.Key == sdl.SCANCODE_ESCAPE {
					return nil
				}
			}
			if events != nil {
				events.HandleEvent(e)
			}
		}

		if err := h.Display(); err != nil {
			return fmt.Errorf("display: %w", err)
		}
		p.SwapBuffers()

		frames++
		fpsFrames++
		if elapsed := time.Since(fpsTimer); elapsed >= time.Second {
			fps := float64(fpsFrames) / elapsed.Seconds()
			if opts.Title != "" {
				p.SetTitle(fmt.Sprintf("%s - %.1f fps", opts.Title, fps))
			}
			log.Debug("fps", zap.Float64("fps", fps))
			fpsFrames = 0
			fpsTimer = time.Now()
		}

		if opts.MaxFrames > 0 && frames >= opts.MaxFrames {
			return nil
		}
	}
}
