// Package demo builds the sample scene shown by the scenery binary and the
// animation that drives it.
package demo

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/scenery/internal/config"
	"github.com/Faultbox/scenery/internal/engine/scenegraph"
	"github.com/Faultbox/scenery/internal/logger"
)

// Camera projection used by the demo.
const (
	FieldOfView = 50 * math.Pi / 180
	NearPlane   = 0.1
	FarPlane    = 1000
)

// Scene is the demo graph with handles to the nodes the animator moves.
type Scene struct {
	*scenegraph.Scene

	Camera    *scenegraph.Camera
	Boxes     []*scenegraph.Box
	Companion *scenegraph.Box
	Sphere    *scenegraph.Sphere
	Hull      *scenegraph.Box
	Lights    []*scenegraph.PointLight
}

// Build creates the demo scene: randomly sized and placed boxes, a red
// companion box and a sphere riding on the last box, an enclosing hull box,
// point lights and the active camera.
func Build(cfg config.DemoConfig, aspect float32) (*Scene, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	d := &Scene{Scene: scenegraph.NewScene()}

	for i := 0; i < cfg.Boxes; i++ {
		box := scenegraph.NewBox(mgl32.Vec3{
			randomIn(rng, 0.5, 4),
			randomIn(rng, 0.5, 4),
			randomIn(rng, 0.5, 4),
		})
		box.Name = fmt.Sprintf("box-%02d", i)
		box.SetPosition(mgl32.Vec3{
			randomIn(rng, -10, 10),
			randomIn(rng, -10, 10),
			randomIn(rng, -10, 10),
		})
		if err := d.AddChild(box); err != nil {
			return nil, err
		}
		d.Boxes = append(d.Boxes, box)
	}

	d.Companion = scenegraph.NewBox(mgl32.Vec3{5, 5, 5})
	d.Companion.Name = "companion"
	d.Companion.SetPosition(mgl32.Vec3{-2, 3, 0.5})
	d.Companion.SetRotation(mgl32.AnglesToQuat(2.4, 1.2, 0.5, mgl32.XYZ))
	d.Companion.Material = &scenegraph.Material{
		Diffuse: mgl32.Vec3{1, 0, 0},
	}

	d.Sphere = scenegraph.NewSphere(0.5, 20)
	d.Sphere.Name = "sphere"
	d.Sphere.SetPosition(mgl32.Vec3{5, -1.2, 2})

	// Both ride on the last box, or sit at the root when there are no boxes.
	var carrier scenegraph.Object = d.Scene
	if n := len(d.Boxes); n > 0 {
		carrier = d.Boxes[n-1]
	}
	for _, o := range []scenegraph.Object{d.Companion, d.Sphere} {
		if err := carrier.AsNode().AddChild(o); err != nil {
			return nil, err
		}
	}

	// The hull is initialized with the rest but hidden: from inside, all of
	// its faces are back faces.
	d.Hull = scenegraph.NewBox(mgl32.Vec3{75, 75, 75})
	d.Hull.Name = "hull"
	d.Hull.Visible = false
	if err := d.AddChild(d.Hull); err != nil {
		return nil, err
	}

	for i := 0; i < cfg.Lights; i++ {
		l := scenegraph.NewPointLight(fmt.Sprintf("light-%d", i))
		angle := 2 * math.Pi * float64(i) / float64(cfg.Lights)
		l.SetPosition(mgl32.Vec3{8 * float32(math.Cos(angle)), 6, 8 * float32(math.Sin(angle))})
		l.EmissionColor = lightColors[i%len(lightColors)]
		l.Intensity = 1.5
		if err := d.AddChild(l); err != nil {
			return nil, err
		}
		d.Lights = append(d.Lights, l)
	}

	d.Camera = scenegraph.NewCamera("camera")
	d.Camera.SetPerspective(FieldOfView, aspect, NearPlane, FarPlane)
	if err := d.AddChild(d.Camera); err != nil {
		return nil, err
	}
	d.SetActiveCamera(d.Camera)

	logger.Named("demo").Info("demo scene built",
		zap.Int64("seed", seed),
		zap.Int("boxes", len(d.Boxes)),
		zap.Int("lights", len(d.Lights)),
		zap.Int("nodes", d.Len()),
	)
	return d, nil
}

var lightColors = []mgl32.Vec3{
	{1, 1, 0.8},
	{0.6, 0.7, 1},
	{1, 0.6, 0.5},
}

// randomIn returns a value in [min, max+1). The extra unit widens the range
// the same way for every axis and size.
func randomIn(rng *rand.Rand, min, max float32) float32 {
	return min + rng.Float32()*((max-min)+1)
}
