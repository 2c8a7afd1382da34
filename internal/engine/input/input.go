// Package input translates SDL2 events into engine events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType identifies an input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Event is a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Repeat bool
	Width  int32
	Height int32
	MouseX int32
	MouseY int32
	DeltaX int32
	DeltaY int32
	Button uint8
	Wheel  float32
}

// Input collects the events of one frame and tracks held keys and buttons.
type Input struct {
	events  []Event
	held    map[sdl.Scancode]bool
	buttons map[uint8]bool
}

// New creates an input handler.
func New() *Input {
	return &Input{
		events:  make([]Event, 0, 16),
		held:    make(map[sdl.Scancode]bool),
		buttons: make(map[uint8]bool),
	}
}

// Update polls every pending SDL event. It returns true when the
// application was asked to quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	quit := false
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		if e, ok := i.Translate(ev); ok {
			quit = quit || e.Type == EventQuit
		}
	}
	return quit
}

// Translate converts one SDL event, records it and updates held state.
// It reports false for events the engine ignores.
func (i *Input) Translate(ev sdl.Event) (Event, bool) {
	var e Event
	switch s := ev.(type) {
	case *sdl.QuitEvent:
		e = Event{Type: EventQuit}

	case *sdl.WindowEvent:
		if s.Event != sdl.WINDOWEVENT_RESIZED && s.Event != sdl.WINDOWEVENT_SIZE_CHANGED {
			return Event{}, false
		}
		e = Event{Type: EventWindowResize, Width: s.Data1, Height: s.Data2}

	case *sdl.KeyboardEvent:
		code := s.Keysym.Scancode
		switch s.Type {
		case sdl.KEYDOWN:
			e = Event{Type: EventKeyDown, Key: code, Repeat: s.Repeat != 0}
			i.held[code] = true
		case sdl.KEYUP:
			e = Event{Type: EventKeyUp, Key: code}
			delete(i.held, code)
		default:
			return Event{}, false
		}

	case *sdl.MouseMotionEvent:
		e = Event{Type: EventMouseMove, MouseX: s.X, MouseY: s.Y, DeltaX: s.XRel, DeltaY: s.YRel}

	case *sdl.MouseButtonEvent:
		e = Event{MouseX: s.X, MouseY: s.Y, Button: s.Button}
		switch s.Type {
		case sdl.MOUSEBUTTONDOWN:
			e.Type = EventMouseDown
			i.buttons[s.Button] = true
		case sdl.MOUSEBUTTONUP:
			e.Type = EventMouseUp
			delete(i.buttons, s.Button)
		default:
			return Event{}, false
		}

	case *sdl.MouseWheelEvent:
		e = Event{Type: EventMouseWheel, Wheel: float32(s.Y)}

	default:
		return Event{}, false
	}

	i.events = append(i.events, e)
	return e, true
}

// Events returns the events gathered by the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed reports whether scancode went down this frame, ignoring
// key repeat.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode && !e.Repeat {
			return true
		}
	}
	return false
}

// IsKeyHeld reports whether scancode is currently down.
func (i *Input) IsKeyHeld(scancode sdl.Scancode) bool {
	return i.held[scancode]
}

// IsButtonHeld reports whether a mouse button is currently down.
func (i *Input) IsButtonHeld(button uint8) bool {
	return i.buttons[button]
}
