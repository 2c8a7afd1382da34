// Package lighting gathers scene point lights for upload to the lighting pass.
package lighting

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/scenery/internal/engine/scenegraph"
)

// MaxPointLights is the size of the light array in the lighting shader.
const MaxPointLights = 32

// PointLight is a light as uploaded to the GPU.
type PointLight struct {
	Position  mgl32.Vec3 // world position
	Color     mgl32.Vec3 // 0-1 per channel
	Intensity float32
}

// PointLightBuffer holds at most MaxPointLights lights.
type PointLightBuffer struct {
	Lights  []PointLight
	Dropped int // lights that did not fit during the last fill
}

// NewPointLightBuffer creates an empty buffer.
func NewPointLightBuffer() *PointLightBuffer {
	return &PointLightBuffer{Lights: make([]PointLight, 0, MaxPointLights)}
}

// Len returns the number of lights held.
func (b *PointLightBuffer) Len() int { return len(b.Lights) }

// Clear removes all lights.
func (b *PointLightBuffer) Clear() {
	b.Lights = b.Lights[:0]
	b.Dropped = 0
}

// AddLight adds a light with its color clamped to 0-1 and a negative
// intensity raised to zero. It returns false when the buffer is full.
func (b *PointLightBuffer) AddLight(l PointLight) bool {
	if len(b.Lights) >= MaxPointLights {
		b.Dropped++
		return false
	}
	l.Color = mgl32.Vec3{
		mgl32.Clamp(l.Color[0], 0, 1),
		mgl32.Clamp(l.Color[1], 0, 1),
		mgl32.Clamp(l.Color[2], 0, 1),
	}
	if l.Intensity < 0 {
		l.Intensity = 0
	}
	b.Lights = append(b.Lights, l)
	return true
}

// Collect refills the buffer from the point light nodes among nodes. Positions
// are read from the world matrix, which must be current.
func (b *PointLightBuffer) Collect(nodes []*scenegraph.Node) {
	b.Clear()
	for _, n := range nodes {
		l, ok := scenegraph.AsPointLight(n)
		if !ok || !l.Visible {
			continue
		}
		b.AddLight(PointLight{
			Position:  l.WorldPosition(),
			Color:     l.EmissionColor,
			Intensity: l.Intensity,
		})
	}
}

// FromScene discovers the scene's point lights and collects them.
func (b *PointLightBuffer) FromScene(sc *scenegraph.Scene) {
	b.Collect(sc.Discover(func(n *scenegraph.Node) bool { return n.Is(scenegraph.Light) }))
}
