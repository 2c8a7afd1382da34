package demo

import (
	"context"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/scenery/internal/engine/scenegraph"
	"github.com/Faultbox/scenery/internal/logger"
)

// Animation constants.
const (
	BoxStep      = 0.02
	MaxTicks     = 500
	CompanionRot = 0.01
)

// Animator moves the demo boxes back and forth and spins the companion box.
// It never touches nodes directly: every change is queued on the scene and
// applied by the render goroutine.
type Animator struct {
	scene   *Scene
	tick    time.Duration
	ticks   int
	reverse bool
	dropped int
	log     *zap.Logger
}

// NewAnimator creates an animator stepping every tick.
func NewAnimator(sc *Scene, tick time.Duration) *Animator {
	return &Animator{scene: sc, tick: tick, log: logger.Named("demo.animator")}
}

// Run steps the animation until ctx is done.
func (a *Animator) Run(ctx context.Context) {
	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Debug("animator stopped", zap.Int("dropped", a.dropped))
			return
		case <-ticker.C:
			a.Step()
		}
	}
}

// Step queues one animation frame. A frame is dropped when the scene queue is
// full so a stalled render loop cannot block the animator.
func (a *Animator) Step() bool {
	offset := float32(BoxStep * float64(a.ticks))
	boxes := a.scene.Boxes
	companion := a.scene.Companion

	queued := a.scene.TryEnqueue(func(*scenegraph.Scene) {
		for i, box := range boxes {
			p := box.Position()
			p[i%3] = offset
			box.SetPosition(p)
		}
		if companion != nil {
			companion.SetRotation(companion.Rotation().Mul(mgl32.QuatRotate(CompanionRot, mgl32.Vec3{0, 0, 1})))
		}
	})
	if !queued {
		a.dropped++
	}

	if a.ticks >= MaxTicks && !a.reverse {
		a.reverse = true
	}
	if a.ticks <= 0 && a.reverse {
		a.reverse = false
	}
	if a.reverse {
		a.ticks--
	} else {
		a.ticks++
	}
	return queued
}

// Ticks returns the current animation tick.
func (a *Animator) Ticks() int { return a.ticks }

// Dropped returns how many frames were dropped on a full queue.
func (a *Animator) Dropped() int { return a.dropped }
