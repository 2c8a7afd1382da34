package scenegraph

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// GeometryType is the primitive topology of a geometry.
type GeometryType int

const (
	Triangles GeometryType = iota
	TriangleStrip
	TriangleFan
	Points
	Line
	Polygon
)

func (t GeometryType) String() string {
	switch t {
	case Triangles:
		return "triangles"
	case TriangleStrip:
		return "triangle-strip"
	case TriangleFan:
		return "triangle-fan"
	case Points:
		return "points"
	case Line:
		return "line"
	case Polygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// Geometry holds the vertex data of a geometry-bearing node.
type Geometry struct {
	Vertices  []float32
	Normals   []float32
	TexCoords []float32
	Indices   []uint32

	VertexSize   int // components per vertex and normal
	TexCoordSize int // components per texture coordinate
	Type         GeometryType

	// Dynamic hints that the data is rewritten often.
	Dynamic bool
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	if g.VertexSize <= 0 {
		return 0
	}
	return len(g.Vertices) / g.VertexSize
}

// Material describes surface response and textures of a node.
type Material struct {
	Ambient  mgl32.Vec3
	Diffuse  mgl32.Vec3
	Specular mgl32.Vec3

	// Textures maps a logical slot name to a texture file path.
	Textures map[string]string

	// Program is an already linked program to use instead of a derived one.
	// Zero means none.
	Program uint32
}

// Mesh is a renderable node with geometry.
type Mesh struct {
	Node

	// BoundingBox is min/max per axis: minX, maxX, minY, maxY, minZ, maxZ.
	// Valid after GenerateBoundingBox.
	BoundingBox    [6]float32
	hasBoundingBox bool
}

// NewMesh creates a mesh without vertex data.
func NewMesh(name string) *Mesh {
	m := &Mesh{}
	m.initMesh(name, "Mesh")
	return m
}

func (m *Mesh) initMesh(name, kind string) {
	m.init(name, kind)
	m.outer = m
	m.geometry = &Geometry{VertexSize: 3, TexCoordSize: 2, Type: Triangles}
	m.AddCapability(HasGeometry | Renderable)
}

// AsMesh returns the mesh behind n.
func AsMesh(n *Node) (*Mesh, bool) {
	switch o := n.outer.(type) {
	case *Mesh:
		return o, true
	case *Box:
		return &o.Mesh, true
	case *Sphere:
		return &o.Mesh, true
	}
	return nil, false
}

// GenerateBoundingBox computes and stores the axis-aligned bounds of the vertices.
func (m *Mesh) GenerateBoundingBox() [6]float32 {
	g := m.geometry
	if g.VertexCount() == 0 || g.VertexSize < 3 {
		m.BoundingBox = [6]float32{}
		m.hasBoundingBox = false
		return m.BoundingBox
	}

	inf := float32(math.Inf(1))
	box := [6]float32{inf, -inf, inf, -inf, inf, -inf}
	for i := 0; i+2 < len(g.Vertices); i += g.VertexSize {
		for axis := 0; axis < 3; axis++ {
			v := g.Vertices[i+axis]
			if v < box[axis*2] {
				box[axis*2] = v
			}
			if v > box[axis*2+1] {
				box[axis*2+1] = v
			}
		}
	}
	m.BoundingBox = box
	m.hasBoundingBox = true
	return box
}

// Bounds returns the bounding box, generating it on first use.
func (m *Mesh) Bounds() [6]float32 {
	if !m.hasBoundingBox {
		return m.GenerateBoundingBox()
	}
	return m.BoundingBox
}

// CenterOn moves the mesh so that its bounding box center lies at p and
// returns the half extents of the box. Without a bounding box it does nothing
// and returns the zero vector.
func (m *Mesh) CenterOn(p mgl32.Vec3) mgl32.Vec3 {
	if !m.hasBoundingBox {
		return mgl32.Vec3{}
	}
	bb := m.BoundingBox
	lo := mgl32.Vec3{bb[0], bb[2], bb[4]}
	hi := mgl32.Vec3{bb[1], bb[3], bb[5]}
	half := hi.Sub(lo).Mul(0.5)
	m.SetPosition(p.Sub(lo.Add(half)))
	return half
}

// FitInto scales the mesh uniformly so its largest extent equals side and
// returns the applied scale. Without a bounding box the scale is left at one.
func (m *Mesh) FitInto(side float32) mgl32.Vec3 {
	if !m.hasBoundingBox {
		return mgl32.Vec3{1, 1, 1}
	}
	bb := m.BoundingBox
	largest := max(bb[1]-bb[0], bb[3]-bb[2], bb[5]-bb[4])
	if largest <= 0 {
		return m.scale
	}
	f := side / largest
	m.SetScale(mgl32.Vec3{f, f, f})
	return m.scale
}

// Box is an axis-aligned box mesh centered on its origin.
type Box struct {
	Mesh
	Size mgl32.Vec3
}

var boxFaces = [6][3]mgl32.Vec3{
	// normal, u, v with u x v = normal
	{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
}

// NewBox creates a box with the given edge lengths.
func NewBox(size mgl32.Vec3) *Box {
	b := &Box{Size: size}
	b.initMesh("Box", "Box")
	b.outer = b

	half := size.Mul(0.5)
	corners := [6][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, -1}, {1, 1}, {-1, 1}}

	g := b.geometry
	for _, f := range boxFaces {
		n, u, v := f[0], f[1], f[2]
		for _, c := range corners {
			p := n.Add(u.Mul(c[0])).Add(v.Mul(c[1]))
			g.Vertices = append(g.Vertices, p.X()*half.X(), p.Y()*half.Y(), p.Z()*half.Z())
			g.Normals = append(g.Normals, n.X(), n.Y(), n.Z())
			g.TexCoords = append(g.TexCoords, (c[0]+1)/2, (c[1]+1)/2)
		}
	}
	return b
}

// Sphere is a UV sphere mesh.
type Sphere struct {
	Mesh
	Radius   float32
	Segments int
}

// NewSphere creates an indexed sphere with segments rings and slices.
func NewSphere(radius float32, segments int) *Sphere {
	if segments < 3 {
		segments = 3
	}
	s := &Sphere{Radius: radius, Segments: segments}
	s.initMesh("Sphere", "Sphere")
	s.outer = s

	g := s.geometry
	for i := 0; i <= segments; i++ {
		theta := float64(i) * math.Pi / float64(segments)
		for j := 0; j <= segments; j++ {
			phi := float64(j) * 2 * math.Pi / float64(segments)
			nx := float32(math.Sin(theta) * math.Cos(phi))
			ny := float32(math.Cos(theta))
			nz := float32(math.Sin(theta) * math.Sin(phi))
			g.Vertices = append(g.Vertices, nx*radius, ny*radius, nz*radius)
			g.Normals = append(g.Normals, nx, ny, nz)
			g.TexCoords = append(g.TexCoords, float32(j)/float32(segments), float32(i)/float32(segments))
		}
	}

	row := uint32(segments + 1)
	for i := uint32(0); i < uint32(segments); i++ {
		for j := uint32(0); j < uint32(segments); j++ {
			a := i*row + j
			b := a + row
			g.Indices = append(g.Indices, a, a+1, b, a+1, b+1, b)
		}
	}
	return s
}
