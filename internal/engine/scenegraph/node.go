// Package scenegraph provides the spatial node hierarchy: transform propagation,
// predicate discovery and the scene root with its active observer.
package scenegraph

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Graph structure errors.
var (
	ErrAlreadyOwned = errors.New("node already has a different parent")
	ErrCycle        = errors.New("node cannot be attached below itself")
	ErrNotChild     = errors.New("node is not a child of this parent")
	ErrNilNode      = errors.New("nil node")
)

// Capability tags what a node can take part in.
type Capability uint8

const (
	HasGeometry Capability = 1 << iota
	Renderable
	Light
	Observer
)

// Object is anything that carries a Node, including the node types that embed it.
type Object interface {
	AsNode() *Node
}

// Node is a spatial entity owning a local transform and zero or more children.
type Node struct {
	Name string
	ID   uuid.UUID

	// Kind is the concrete type name, used to derive shader file names.
	Kind string

	Visible               bool
	UseClassDerivedShader bool
	Material              *Material

	// Model and World are only valid after UpdateWorld has run since the
	// last transform write on this node or any ancestor.
	Model mgl32.Mat4
	World mgl32.Mat4

	NeedsUpdate      bool
	NeedsUpdateWorld bool

	position mgl32.Vec3
	scale    mgl32.Vec3
	rotation mgl32.Quat

	caps     Capability
	geometry *Geometry

	// parent is a back reference only; ownership runs through children.
	parent   *Node
	children []*Node
	outer    Object

	metadata map[string]NodeMetadata
}

// NewNode creates a detached node.
func NewNode(name string) *Node {
	n := &Node{}
	n.init(name, "Node")
	return n
}

func (n *Node) init(name, kind string) {
	n.Name = name
	n.ID = uuid.New()
	n.Kind = kind
	n.Visible = true
	n.scale = mgl32.Vec3{1, 1, 1}
	n.rotation = mgl32.QuatIdent()
	n.Model = mgl32.Ident4()
	n.World = mgl32.Ident4()
	n.NeedsUpdate = true
	n.NeedsUpdateWorld = true
	n.outer = n
}

// AsNode returns n.
func (n *Node) AsNode() *Node { return n }

// Outer returns the value embedding this node (a *Camera, *Mesh, ...), or the node itself.
func (n *Node) Outer() Object { return n.outer }

// Position returns the local position.
func (n *Node) Position() mgl32.Vec3 { return n.position }

// Scale returns the local scale.
func (n *Node) Scale() mgl32.Vec3 { return n.scale }

// Rotation returns the local rotation.
func (n *Node) Rotation() mgl32.Quat { return n.rotation }

// SetPosition sets the local position and marks the node dirty.
func (n *Node) SetPosition(p mgl32.Vec3) {
	n.position = p
	n.markDirty()
}

// SetScale sets the local scale and marks the node dirty.
func (n *Node) SetScale(s mgl32.Vec3) {
	n.scale = s
	n.markDirty()
}

// SetRotation sets the local rotation and marks the node dirty.
// The quaternion is normalized.
func (n *Node) SetRotation(q mgl32.Quat) {
	n.rotation = q.Normalize()
	n.markDirty()
}

func (n *Node) markDirty() {
	n.NeedsUpdate = true
	n.NeedsUpdateWorld = true
}

// Is reports whether the node carries every capability in c.
func (n *Node) Is(c Capability) bool { return n.caps&c == c }

// AddCapability tags the node with c.
func (n *Node) AddCapability(c Capability) { n.caps |= c }

// Geometry returns the node's geometry, or nil.
func (n *Node) Geometry() *Geometry { return n.geometry }

// Parent returns the owning node, or nil when detached or at the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the owned children in insertion order.
// The slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// AddChild attaches child under n. A child that is already owned by another
// node must be removed from it first.
func (n *Node) AddChild(o Object) error {
	if o == nil || o.AsNode() == nil {
		return ErrNilNode
	}
	child := o.AsNode()
	if child == n {
		return ErrCycle
	}
	if child.parent == n {
		return nil
	}
	if child.parent != nil {
		return ErrAlreadyOwned
	}
	for p := n; p != nil; p = p.parent {
		if p == child {
			return ErrCycle
		}
	}
	if _, isScene := child.outer.(*Scene); isScene {
		return ErrCycle
	}

	child.parent = n
	child.markDirty()
	n.children = append(n.children, child)

	if sc, ok := n.Scene(); ok {
		sc.attach(child)
	}
	return nil
}

// RemoveChild detaches child from n. If n is part of a scene, the scene's
// removal hooks run for every node of the detached subtree.
func (n *Node) RemoveChild(o Object) error {
	if o == nil || o.AsNode() == nil {
		return ErrNilNode
	}
	child := o.AsNode()
	idx := -1
	for i, c := range n.children {
		if c == child {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotChild
	}

	sc, inScene := n.Scene()
	n.children = append(n.children[:idx], n.children[idx+1:]...)
	child.parent = nil
	child.markDirty()

	if inScene {
		sc.detach(child)
	}
	return nil
}

// Scene walks the parent chain and returns the scene at its root, if any.
func (n *Node) Scene() (*Scene, bool) {
	root := n
	for root.parent != nil {
		root = root.parent
	}
	sc, ok := root.outer.(*Scene)
	return sc, ok
}

// UpdateWorld recomputes the model matrix when the node is dirty or force is
// set, then the world matrix from the parent's world. With updateChildren the
// walk continues into every child, forcing recomputation below any node whose
// model changed.
func (n *Node) UpdateWorld(updateChildren, force bool) {
	recomputed := false
	if n.NeedsUpdate || force {
		n.Model = composeModel(n.position, n.rotation, n.scale)
		n.NeedsUpdate = false
		recomputed = true
	}

	if n.parent != nil {
		n.World = n.parent.World.Mul4(n.Model)
	} else {
		n.World = n.Model
	}
	n.NeedsUpdateWorld = false

	if !updateChildren {
		return
	}
	for _, c := range n.children {
		c.UpdateWorld(true, force || recomputed)
	}
}

// WorldPosition returns the translation part of the world matrix.
func (n *Node) WorldPosition() mgl32.Vec3 {
	return n.World.Col(3).Vec3()
}

// composeModel builds T * R * S.
func composeModel(p mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(p.X(), p.Y(), p.Z()).
		Mul4(r.Mat4()).
		Mul4(mgl32.Scale3D(s.X(), s.Y(), s.Z()))
}

// NodeMetadata is a consumer-specific record attached to a node. A node holds
// at most one record per consumer.
type NodeMetadata interface {
	MetadataConsumer() string
}

// SetMetadata attaches v to the node, replacing the record of its consumer.
func (n *Node) SetMetadata(v NodeMetadata) {
	if n.metadata == nil {
		n.metadata = make(map[string]NodeMetadata)
	}
	n.metadata[v.MetadataConsumer()] = v
}

// Metadata returns the record stored for consumer.
func (n *Node) Metadata(consumer string) (NodeMetadata, bool) {
	v, ok := n.metadata[consumer]
	return v, ok
}

// DeleteMetadata removes the record stored for consumer.
func (n *Node) DeleteMetadata(consumer string) {
	delete(n.metadata, consumer)
}

// MetadataAs returns the record stored for consumer if it has type T.
func MetadataAs[T NodeMetadata](n *Node, consumer string) (T, bool) {
	var zero T
	v, ok := n.metadata[consumer]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Discover returns every node of root's subtree, root included, for which pred
// holds. Order is pre-order with siblings in insertion order. It never touches
// transforms.
func Discover(root Object, pred func(*Node) bool) []*Node {
	if root == nil || root.AsNode() == nil {
		return nil
	}
	var found []*Node
	stack := []*Node{root.AsNode()}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if pred(n) {
			found = append(found, n)
		}
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}
	return found
}

// Walk visits root's subtree in pre-order until fn returns false.
func Walk(root *Node, fn func(*Node) bool) {
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			return
		}
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}
}
