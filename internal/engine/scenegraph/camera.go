package scenegraph

import "github.com/go-gl/mathgl/mgl32"

// Camera is an observer node carrying view and projection matrices.
type Camera struct {
	Node

	Active bool

	View       mgl32.Mat4
	Projection mgl32.Mat4

	Forward mgl32.Vec3
	Up      mgl32.Vec3

	// Orientation is applied after the view matrix, e.g. from an arcball.
	Orientation mgl32.Quat
}

// NewCamera creates an inactive camera looking down -Z.
func NewCamera(name string) *Camera {
	c := &Camera{
		View:        mgl32.Ident4(),
		Projection:  mgl32.Ident4(),
		Forward:     mgl32.Vec3{0, 0, -1},
		Up:          mgl32.Vec3{0, 1, 0},
		Orientation: mgl32.QuatIdent(),
	}
	c.init(name, "Camera")
	c.outer = c
	c.AddCapability(Observer)
	return c
}

// SetPerspective sets a perspective projection. fovY is in radians.
func (c *Camera) SetPerspective(fovY, aspect, near, far float32) {
	if aspect <= 0 {
		aspect = 1
	}
	c.Projection = mgl32.Perspective(fovY, aspect, near, far)
}

// UpdateView rebuilds the view matrix from the camera's world position and its
// forward/up basis. The camera's world matrix must be current.
func (c *Camera) UpdateView() {
	eye := c.WorldPosition()
	c.View = mgl32.LookAtV(eye, eye.Add(c.Forward), c.Up)
}

// ViewRotation returns the view matrix composed with the camera orientation.
func (c *Camera) ViewRotation() mgl32.Mat4 {
	return c.View.Mul4(c.Orientation.Mat4())
}

// AsCamera returns the camera behind n.
func AsCamera(n *Node) (*Camera, bool) {
	c, ok := n.outer.(*Camera)
	return c, ok
}
