package app

import (
	"github.com/Faultbox/scenery/internal/engine/input"
	"github.com/Faultbox/scenery/internal/engine/window"
)

// SDLPlatform runs the loop on an SDL window.
type SDLPlatform struct {
	Window *window.Window
	Input  *input.Input
}

// NewSDLPlatform pairs a window with an input handler.
func NewSDLPlatform(w *window.Window, in *input.Input) *SDLPlatform {
	return &SDLPlatform{Window: w, Input: in}
}

// PollEvents returns this frame's events with mouse positions converted to
// drawable pixels.
func (p *SDLPlatform) PollEvents() ([]input.Event, bool) {
	quit := p.Input.Update()
	events := p.Input.Events()

	ww, wh := p.Window.Size()
	dw, dh := p.Window.DrawableSize()
	if ww > 0 && wh > 0 && (ww != dw || wh != dh) {
		for i := range events {
			events[i].MouseX = events[i].MouseX * dw / ww
			events[i].MouseY = events[i].MouseY * dh / wh
		}
	}
	return events, quit
}

func (p *SDLPlatform) SwapBuffers() { p.Window.SwapBuffers() }

func (p *SDLPlatform) DrawableSize() (int32, int32) { return p.Window.DrawableSize() }

func (p *SDLPlatform) SetTitle(title string) { p.Window.SetTitle(title) }
