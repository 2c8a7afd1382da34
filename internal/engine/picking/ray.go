// Package picking casts rays from screen positions into the scene graph.
package picking

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/scenery/internal/engine/scenegraph"
)

// Ray is a half line with a normalized direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// ScreenToRay converts pixel coordinates to a world-space ray. invViewProj is
// the inverse of projection * view.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj mgl32.Mat4) Ray {
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH // screen Y grows downwards

	near := unproject(invViewProj, mgl32.Vec4{ndcX, ndcY, -1, 1})
	far := unproject(invViewProj, mgl32.Vec4{ndcX, ndcY, 1, 1})

	dir := far.Sub(near)
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return Ray{Origin: near, Direction: dir}
}

func unproject(inv mgl32.Mat4, p mgl32.Vec4) mgl32.Vec3 {
	w := inv.Mul4x1(p)
	if w[3] != 0 {
		return w.Vec3().Mul(1 / w[3])
	}
	return w.Vec3()
}

// IntersectAABB returns the distance along the ray to the box. A ray starting
// inside the box reports the exit distance.
func (r Ray) IntersectAABB(box AABB) (t float32, hit bool) {
	tmin := float32(-math.MaxFloat32)
	tmax := float32(math.MaxFloat32)

	for axis := 0; axis < 3; axis++ {
		o, d := r.Origin[axis], r.Direction[axis]
		if d == 0 {
			if o < box.Min[axis] || o > box.Max[axis] {
				return 0, false
			}
			continue
		}
		t1 := (box.Min[axis] - o) / d
		t2 := (box.Max[axis] - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// WorldAABB transforms a local bounding box (minX, maxX, minY, maxY, minZ,
// maxZ) by world and returns the box enclosing the transformed corners.
func WorldAABB(local [6]float32, world mgl32.Mat4) AABB {
	inf := float32(math.Inf(1))
	out := AABB{Min: mgl32.Vec3{inf, inf, inf}, Max: mgl32.Vec3{-inf, -inf, -inf}}
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{local[i&1], local[2+(i>>1)&1], local[4+(i>>2)&1]}
		p := mgl32.TransformCoordinate(corner, world)
		for axis := 0; axis < 3; axis++ {
			out.Min[axis] = min(out.Min[axis], p[axis])
			out.Max[axis] = max(out.Max[axis], p[axis])
		}
	}
	return out
}

// Hit is a picked node and its distance from the ray origin.
type Hit struct {
	Node     *scenegraph.Node
	Distance float32
}

// Pick returns the nearest visible geometry node below root hit by r. World
// matrices are used as they are; callers pick after a frame has updated them.
func Pick(root scenegraph.Object, r Ray) (Hit, bool) {
	var best Hit
	found := false
	nodes := scenegraph.Discover(root, func(n *scenegraph.Node) bool {
		return n.Visible && n.Is(scenegraph.HasGeometry)
	})
	for _, n := range nodes {
		m, ok := scenegraph.AsMesh(n)
		if !ok || m.Geometry().VertexCount() == 0 {
			continue
		}
		t, hit := r.IntersectAABB(WorldAABB(m.Bounds(), n.World))
		if hit && (!found || t < best.Distance) {
			best = Hit{Node: n, Distance: t}
			found = true
		}
	}
	return best, found
}

// PickScreen casts a ray through a pixel of cam's viewport and picks.
func PickScreen(sc *scenegraph.Scene, cam *scenegraph.Camera, x, y, width, height float32) (Hit, bool) {
	viewProj := cam.Projection.Mul4(cam.ViewRotation())
	return Pick(sc, ScreenToRay(x, y, width, height, viewProj.Inv()))
}
