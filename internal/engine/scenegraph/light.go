package scenegraph

import "github.com/go-gl/mathgl/mgl32"

// PointLight is an omnidirectional light node.
type PointLight struct {
	Node

	EmissionColor mgl32.Vec3
	Intensity     float32
}

// NewPointLight creates a white light of unit intensity.
func NewPointLight(name string) *PointLight {
	l := &PointLight{
		EmissionColor: mgl32.Vec3{1, 1, 1},
		Intensity:     1,
	}
	l.init(name, "PointLight")
	l.outer = l
	l.AddCapability(Light)
	return l
}

// AsPointLight returns the light behind n.
func AsPointLight(n *Node) (*PointLight, bool) {
	l, ok := n.outer.(*PointLight)
	return l, ok
}
