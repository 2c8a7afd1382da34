package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/scenery/internal/engine/input"
)

type fakePlatform struct {
	frames [][]input.Event
	quitAt int
	polls  int
	swaps  int
	width  int32
	height int32
	titles []string
	onPoll func(n int)
}

func (p *fakePlatform) PollEvents() ([]input.Event, bool) {
	p.polls++
	if p.onPoll != nil {
		p.onPoll(p.polls)
	}
	if p.quitAt > 0 && p.polls >= p.quitAt {
		return nil, true
	}
	if p.polls <= len(p.frames) {
		return p.frames[p.polls-1], false
	}
	return nil, false
}

func (p *fakePlatform) SwapBuffers()                 { p.swaps++ }
func (p *fakePlatform) DrawableSize() (int32, int32) { return p.width, p.height }
func (p *fakePlatform) SetTitle(title string)        { p.titles = append(p.titles, title) }

type fakeHandler struct {
	calls      []string
	sizes      [][2]int32
	events     []input.Event
	initErr    error
	displayErr error
}

func (h *fakeHandler) Init() error {
	h.calls = append(h.calls, "init")
	return h.initErr
}

func (h *fakeHandler) Reshape(w, ht int32) error {
	h.calls = append(h.calls, "reshape")
	h.sizes = append(h.sizes, [2]int32{w, ht})
	return nil
}

func (h *fakeHandler) Display() error {
	h.calls = append(h.calls, "display")
	return h.displayErr
}

func (h *fakeHandler) Dispose() { h.calls = append(h.calls, "dispose") }

func (h *fakeHandler) HandleEvent(e input.Event) { h.events = append(h.events, e) }

func TestRunLifecycle(t *testing.T) {
	p := &fakePlatform{width: 800, height: 600}
	h := &fakeHandler{}

	require.NoError(t, Run(context.Background(), p, h, Options{MaxFrames: 2}))

	assert.Equal(t, []string{"init", "reshape", "display", "display", "dispose"}, h.calls)
	assert.Equal(t, [][2]int32{{800, 600}}, h.sizes)
	assert.Equal(t, 2, p.swaps)
}

func TestRunQuitEvent(t *testing.T) {
	p := &fakePlatform{width: 1, height: 1, quitAt: 3}
	h := &fakeHandler{}

	require.NoError(t, Run(context.Background(), p, h, Options{}))
	assert.Equal(t, 2, p.swaps)
	assert.Equal(t, "dispose", h.calls[len(h.calls)-1])
}

func TestRunEscapeQuits(t *testing.T) {
	p := &fakePlatform{
		width: 1, height: 1,
		frames: [][]input.Event{
			{{Type: input.EventKeyDown, Key: sdl.SCANCODE_F1}},
			{{Type: input.EventKeyDown, Key: sdl.SCANCODE_ESCAPE}},
		},
	}
	h := &fakeHandler{}

	require.NoError(t, Run(context.Background(), p, h, Options{}))
	assert.Equal(t, 1, p.swaps)
	require.Len(t, h.events, 1)
	assert.Equal(t, sdl.Scancode(sdl.SCANCODE_F1), h.events[0].Key)
}

func TestRunResizeReshapes(t *testing.T) {
	p := &fakePlatform{width: 640, height: 480}
	p.frames = [][]input.Event{{{Type: input.EventWindowResize, Width: 320, Height: 240}}}
	p.onPoll = func(n int) {
		if n == 1 {
			// drawable size differs from window size on high-DPI displays
			p.width, p.height = 640*2, 480*2
		}
	}
	h := &fakeHandler{}

	require.NoError(t, Run(context.Background(), p, h, Options{MaxFrames: 1}))
	assert.Equal(t, [][2]int32{{640, 480}, {1280, 960}}, h.sizes)
}

func TestRunInitFailure(t *testing.T) {
	h := &fakeHandler{initErr: errors.New("no context")}

	err := Run(context.Background(), &fakePlatform{}, h, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, h.initErr)
	assert.Equal(t, []string{"init", "dispose"}, h.calls)
}

func TestRunDisplayFailure(t *testing.T) {
	h := &fakeHandler{displayErr: errors.New("lost device")}

	err := Run(context.Background(), &fakePlatform{width: 1, height: 1}, h, Options{})
	assert.ErrorIs(t, err, h.displayErr)
	assert.Equal(t, "dispose", h.calls[len(h.calls)-1])
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &fakePlatform{width: 1, height: 1}
	p.onPoll = func(n int) {
		if n == 2 {
			cancel()
		}
	}
	h := &fakeHandler{}

	require.NoError(t, Run(ctx, p, h, Options{}))
	assert.Equal(t, 2, p.swaps)
}
