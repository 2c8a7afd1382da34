// Package camera drives scene graph camera nodes from user input.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/scenery/internal/engine/scenegraph"
)

// Orbit orbits a camera node around a center point.
type Orbit struct {
	Center mgl32.Vec3

	// Spherical coordinates
	Distance float32
	Pitch    float32 // radians above the horizon
	Yaw      float32 // radians around +Y

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbit creates an orbit controller framing a scene of a few units.
func NewOrbit() *Orbit {
	return &Orbit{
		Distance:        12,
		Pitch:           0.35,
		MinDistance:     1,
		MaxDistance:     500,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the eye position in world space.
func (o *Orbit) Position() mgl32.Vec3 {
	sp, cp := math.Sincos(float64(o.Pitch))
	sy, cy := math.Sincos(float64(o.Yaw))
	return o.Center.Add(mgl32.Vec3{
		o.Distance * float32(cp*sy),
		o.Distance * float32(sp),
		o.Distance * float32(cp*cy),
	})
}

// Apply moves cam to the orbit position looking at the center.
func (o *Orbit) Apply(cam *scenegraph.Camera) {
	eye := o.Position()
	cam.SetPosition(eye)
	if fwd := o.Center.Sub(eye); fwd.Len() > 0 {
		cam.Forward = fwd.Normalize()
	}
	cam.Up = mgl32.Vec3{0, 1, 0}
}

// HandleDrag rotates by a mouse drag delta in pixels.
func (o *Orbit) HandleDrag(dx, dy float32) {
	o.Yaw -= dx * o.DragSensitivity
	o.Pitch = mgl32.Clamp(o.Pitch+dy*o.DragSensitivity, o.MinPitch, o.MaxPitch)
}

// HandleZoom changes the distance by a wheel delta.
func (o *Orbit) HandleZoom(delta float32) {
	o.Distance = mgl32.Clamp(o.Distance-delta*o.Distance*o.ZoomSensitivity, o.MinDistance, o.MaxDistance)
}

// HandleMovement pans the center relative to the current yaw.
func (o *Orbit) HandleMovement(forward, right, up float32) {
	speed := o.Distance * 0.01
	sy, cy := math.Sincos(float64(o.Yaw))
	dir := mgl32.Vec3{float32(sy), 0, float32(cy)}
	side := mgl32.Vec3{float32(cy), 0, float32(-sy)}
	o.Center = o.Center.
		Add(dir.Mul(-forward * speed)).
		Add(side.Mul(right * speed)).
		Add(mgl32.Vec3{0, up * speed, 0})
}

// FitToBounds centers on a bounding box (minX, maxX, minY, maxY, minZ, maxZ)
// and backs off far enough to see all of it.
func (o *Orbit) FitToBounds(bb [6]float32) {
	lo := mgl32.Vec3{bb[0], bb[2], bb[4]}
	hi := mgl32.Vec3{bb[1], bb[3], bb[5]}
	o.Center = lo.Add(hi).Mul(0.5)
	o.Distance = mgl32.Clamp(hi.Sub(lo).Len()*1.5, o.MinDistance, o.MaxDistance)
}
