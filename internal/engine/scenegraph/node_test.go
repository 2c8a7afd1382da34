package scenegraph

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomVec(r *rand.Rand, lo, hi float32) mgl32.Vec3 {
	return mgl32.Vec3{
		lo + r.Float32()*(hi-lo),
		lo + r.Float32()*(hi-lo),
		lo + r.Float32()*(hi-lo),
	}
}

func randomQuat(r *rand.Rand) mgl32.Quat {
	return mgl32.AnglesToQuat(r.Float32()*6, r.Float32()*6, r.Float32()*6, mgl32.XYZ)
}

func TestTransformationPropagation(t *testing.T) {
	scene := NewScene()
	childOne := NewNode("first child")
	subChild := NewNode("child of first child")

	require.NoError(t, scene.AddChild(childOne))
	require.NoError(t, childOne.AddChild(subChild))

	childOne.SetPosition(mgl32.Vec3{1, 1, 1})
	subChild.SetPosition(mgl32.Vec3{-1, -1, -1})
	subChild.SetScale(mgl32.Vec3{2, 1, 1})
	rot := mgl32.AnglesToQuat(0.5, 0.5, 0.5, mgl32.XYZ)
	subChild.SetRotation(rot)

	childOne.UpdateWorld(true, false)

	expected := mgl32.Translate3D(1, 1, 1).
		Mul4(mgl32.Translate3D(-1, -1, -1)).
		Mul4(rot.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(2, 1, 1))

	assert.True(t, expected.ApproxEqualThreshold(subChild.World, 1e-5), "got %v want %v", subChild.World, expected)
}

func TestWorldIsProductOfAncestorModels(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	scene := NewScene()

	var chain []*Node
	var parent Object = scene
	for i := 0; i < 6; i++ {
		n := NewNode("link")
		n.SetPosition(randomVec(r, -10, 10))
		n.SetScale(randomVec(r, 0.5, 2))
		n.SetRotation(randomQuat(r))
		require.NoError(t, parent.AsNode().AddChild(n))
		chain = append(chain, n)
		parent = n
	}

	scene.UpdateWorld(true, true)

	acc := mgl32.Ident4()
	for i, n := range chain {
		acc = acc.Mul4(composeModel(n.Position(), n.Rotation(), n.Scale()))
		assert.True(t, acc.ApproxEqualThreshold(n.World, 1e-2), "level %d: got %v want %v", i, n.World, acc)
	}
}

func TestDirtyAncestorForcesDescendants(t *testing.T) {
	scene := NewScene()
	parent := NewNode("parent")
	child := NewNode("child")
	require.NoError(t, scene.AddChild(parent))
	require.NoError(t, parent.AddChild(child))
	child.SetPosition(mgl32.Vec3{0, 1, 0})
	scene.UpdateWorld(true, false)

	parent.SetPosition(mgl32.Vec3{5, 0, 0})
	assert.False(t, child.NeedsUpdate)

	scene.UpdateWorld(true, false)
	assert.InDelta(t, 5, child.WorldPosition().X(), 1e-6)
	assert.InDelta(t, 1, child.WorldPosition().Y(), 1e-6)
}

func addSiblings(r *rand.Rand, to *Node, maxSiblings, level, maxLevels int) int {
	if level >= maxLevels {
		return 0
	}
	total := 0
	numSib := 1 + r.Intn(maxSiblings-1)
	for i := 0; i < numSib; i++ {
		n := NewNode("sibling")
		n.SetPosition(randomVec(r, -100, 100))
		n.SetScale(randomVec(r, 0.1, 10))
		n.SetRotation(randomQuat(r))
		if err := to.AddChild(n); err != nil {
			panic(err)
		}
		total++
		total += addSiblings(r, n, maxSiblings, level+1, maxLevels)
	}
	return total
}

func TestLargeScenegraphDiscovery(t *testing.T) {
	const levels, maxSiblings = 6, 8
	r := rand.New(rand.NewSource(42))
	scene := NewScene()

	total := addSiblings(r, &scene.Node, maxSiblings, 0, levels)
	require.GreaterOrEqual(t, total, levels)
	require.LessOrEqual(t, total, 262144)

	scene.UpdateWorld(true, true)

	discovered := scene.Discover(func(n *Node) bool { return n.Visible })
	assert.Len(t, discovered, total+1)
	assert.Equal(t, total+1, scene.Len())

	for _, n := range discovered {
		assert.False(t, n.NeedsUpdate)
		assert.False(t, n.NeedsUpdateWorld)
	}
}

func TestDiscoverOrderAndPurity(t *testing.T) {
	scene := NewScene()
	a := NewNode("a")
	b := NewNode("b")
	a1 := NewNode("a1")
	a2 := NewNode("a2")
	require.NoError(t, scene.AddChild(a))
	require.NoError(t, scene.AddChild(b))
	require.NoError(t, a.AddChild(a1))
	require.NoError(t, a.AddChild(a2))

	var names []string
	for _, n := range Discover(scene, func(*Node) bool { return true }) {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"Scene", "a", "a1", "a2", "b"}, names)

	// discovery must not clear dirty state
	assert.True(t, a1.NeedsUpdate)

	sub := Discover(a, func(n *Node) bool { return n.Name != "a1" })
	require.Len(t, sub, 2)
	assert.Same(t, a, sub[0])
	assert.Same(t, a2, sub[1])
}

func TestTransformWritesTriggerUpdate(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	writes := map[string]func(*Node){
		"position": func(n *Node) { n.SetPosition(randomVec(r, -100, 100)) },
		"scale":    func(n *Node) { n.SetScale(randomVec(r, 0, 1)) },
		"rotation": func(n *Node) { n.SetRotation(randomQuat(r)) },
	}

	for name, write := range writes {
		t.Run(name, func(t *testing.T) {
			scene := NewScene()
			node := NewNode("node")
			require.NoError(t, scene.AddChild(node))
			assert.True(t, node.NeedsUpdate)
			assert.True(t, node.NeedsUpdateWorld)

			scene.UpdateWorld(true, false)
			assert.False(t, node.NeedsUpdate)

			write(node)
			assert.True(t, node.NeedsUpdate)
			assert.True(t, node.NeedsUpdateWorld)

			scene.UpdateWorld(true, false)
			assert.False(t, node.NeedsUpdate)
			assert.False(t, node.NeedsUpdateWorld)
		})
	}
}

func TestBoundingBoxGeneration(t *testing.T) {
	m := NewMesh("mesh")
	m.Geometry().Vertices = []float32{-1, -1, -1, 1, 1, 1}

	assert.Equal(t, [6]float32{-1, 1, -1, 1, -1, 1}, m.GenerateBoundingBox())
}

func TestCentering(t *testing.T) {
	m := NewMesh("mesh")
	m.Geometry().Vertices = []float32{-1, -1, -1, 1, 1, 1}
	m.GenerateBoundingBox()

	half := m.CenterOn(mgl32.Vec3{0, 0, 0})
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, half)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, m.Position())
}

func TestFitting(t *testing.T) {
	m := NewMesh("mesh")
	m.Geometry().Vertices = []float32{-1, -2, -4, 1, 2, 4}
	m.GenerateBoundingBox()

	scaling := m.FitInto(0.5)
	assert.Equal(t, mgl32.Vec3{0.0625, 0.0625, 0.0625}, scaling)
	assert.Equal(t, scaling, m.Scale())
	assert.True(t, m.NeedsUpdate)
}

func TestFittingWithoutBoundingBox(t *testing.T) {
	m := NewMesh("mesh")
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, m.FitInto(2))
	assert.Equal(t, mgl32.Vec3{}, m.CenterOn(mgl32.Vec3{1, 2, 3}))
}

func TestGetScene(t *testing.T) {
	scene := NewScene()
	n1 := NewNode("n1")
	n2 := NewNode("n2")
	n3 := NewNode("n3")
	require.NoError(t, scene.AddChild(n1))
	require.NoError(t, n1.AddChild(n3))

	got, ok := n1.Scene()
	require.True(t, ok)
	assert.Same(t, scene, got)

	got, ok = n3.Scene()
	require.True(t, ok)
	assert.Same(t, scene, got)

	_, ok = n2.Scene()
	assert.False(t, ok)
}

func TestAddChildOwnership(t *testing.T) {
	scene := NewScene()
	a := NewNode("a")
	b := NewNode("b")
	c := NewNode("c")
	require.NoError(t, scene.AddChild(a))
	require.NoError(t, scene.AddChild(b))
	require.NoError(t, a.AddChild(c))

	assert.ErrorIs(t, b.AddChild(c), ErrAlreadyOwned)
	assert.NoError(t, a.AddChild(c), "re-adding to the same parent is a no-op")
	assert.Len(t, a.Children(), 1)

	assert.ErrorIs(t, c.AddChild(a), ErrAlreadyOwned)
	assert.ErrorIs(t, c.AddChild(c), ErrCycle)
	assert.ErrorIs(t, c.AddChild(scene), ErrCycle)
	assert.ErrorIs(t, a.AddChild(nil), ErrNilNode)

	require.NoError(t, a.RemoveChild(c))
	assert.Nil(t, c.Parent())
	require.NoError(t, b.AddChild(c))
	assert.Same(t, b, c.Parent())

	assert.ErrorIs(t, a.RemoveChild(c), ErrNotChild)
}

func TestDetachedCycle(t *testing.T) {
	a := NewNode("a")
	b := NewNode("b")
	require.NoError(t, a.AddChild(b))
	assert.ErrorIs(t, b.AddChild(a), ErrCycle)
}

func TestRemoveChildRunsHooksForSubtree(t *testing.T) {
	scene := NewScene()
	parent := NewMesh("parent")
	child := NewBox(mgl32.Vec3{1, 1, 1})
	require.NoError(t, scene.AddChild(parent))
	require.NoError(t, parent.AddChild(child))
	assert.Len(t, scene.TakePendingInit(), 2)

	var removed []*Node
	scene.OnRemove(func(n *Node) { removed = append(removed, n) })

	require.NoError(t, scene.RemoveChild(parent))
	require.Len(t, removed, 2)
	assert.Same(t, &parent.Node, removed[0])
	assert.Same(t, &child.Node, removed[1])

	_, ok := scene.Lookup(child.ID)
	assert.False(t, ok)
	assert.Equal(t, 1, scene.Len())
}

func TestPendingInitTracksAttachedGeometry(t *testing.T) {
	scene := NewScene()
	detached := NewNode("group")
	box := NewBox(mgl32.Vec3{1, 2, 3})
	require.NoError(t, detached.AddChild(box))
	assert.Empty(t, scene.TakePendingInit())

	require.NoError(t, scene.AddChild(detached))
	pending := scene.TakePendingInit()
	require.Len(t, pending, 1)
	assert.Same(t, &box.Node, pending[0])
	assert.Empty(t, scene.TakePendingInit())

	n, ok := scene.Lookup(box.ID)
	require.True(t, ok)
	assert.Same(t, &box.Node, n)
}

type rendererState struct{ initialized bool }

func (*rendererState) MetadataConsumer() string { return "renderer" }

type pickerState struct{ hits int }

func (*pickerState) MetadataConsumer() string { return "picker" }

func TestMetadata(t *testing.T) {
	n := NewNode("n")
	_, ok := MetadataAs[*rendererState](n, "renderer")
	assert.False(t, ok)

	n.SetMetadata(&rendererState{initialized: true})
	n.SetMetadata(&pickerState{hits: 2})
	s, ok := MetadataAs[*rendererState](n, "renderer")
	require.True(t, ok)
	assert.True(t, s.initialized)

	// records are keyed by their consumer and checked by type
	_, ok = MetadataAs[*pickerState](n, "renderer")
	assert.False(t, ok)
	p, ok := MetadataAs[*pickerState](n, "picker")
	require.True(t, ok)
	assert.Equal(t, 2, p.hits)

	n.SetMetadata(&rendererState{})
	s, _ = MetadataAs[*rendererState](n, "renderer")
	assert.False(t, s.initialized, "a consumer holds one record")

	n.DeleteMetadata("renderer")
	_, ok = n.Metadata("renderer")
	assert.False(t, ok)
	_, ok = n.Metadata("picker")
	assert.True(t, ok)
}

func TestGeometryShapes(t *testing.T) {
	box := NewBox(mgl32.Vec3{2, 4, 6})
	g := box.Geometry()
	assert.Equal(t, 36, g.VertexCount())
	assert.Len(t, g.Normals, len(g.Vertices))
	assert.Len(t, g.TexCoords, 36*2)
	assert.Empty(t, g.Indices)
	assert.Equal(t, [6]float32{-1, 1, -2, 2, -3, 3}, box.GenerateBoundingBox())
	assert.True(t, box.Is(HasGeometry|Renderable))

	sphere := NewSphere(1, 8)
	sg := sphere.Geometry()
	assert.Equal(t, 81, sg.VertexCount())
	assert.Len(t, sg.Indices, 8*8*6)
	for _, idx := range sg.Indices {
		assert.Less(t, int(idx), sg.VertexCount())
	}

	m, ok := AsMesh(&sphere.Node)
	require.True(t, ok)
	assert.Same(t, &sphere.Mesh, m)
}
