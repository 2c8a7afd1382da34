package renderer

import (
	"sort"

	"github.com/google/uuid"
)

// ObjectState is the per-node GPU resource record of one renderer.
type ObjectState struct {
	NodeID uuid.UUID

	Initialized bool
	// Failed nodes are skipped by every pass until released.
	Failed bool
	Err    error

	VAO            uint32
	VertexBuffer   uint32
	NormalBuffer   uint32
	TexCoordBuffer uint32
	IndexBuffer    uint32

	StoredPrimitiveCount int32
	StoredIndexCount     int32

	Program uint32
	// programKey names the cached program; empty when the program comes
	// from the node's material.
	programKey string

	Textures []uint32

	warned map[string]bool
}

// NewObjectState creates an uninitialized state for a node.
func NewObjectState(id uuid.UUID) *ObjectState {
	return &ObjectState{NodeID: id}
}

// MetadataConsumer keys the state among a node's metadata records.
func (s *ObjectState) MetadataConsumer() string { return RendererName }

// warnOnce reports whether key is seen for the first time.
func (s *ObjectState) warnOnce(key string) bool {
	if s.warned[key] {
		return false
	}
	if s.warned == nil {
		s.warned = make(map[string]bool)
	}
	s.warned[key] = true
	return true
}

type registryKey struct {
	renderer string
	node     uuid.UUID
}

// Registry maps (renderer, node) pairs to resource states. It is owned by
// the render goroutine.
type Registry struct {
	states map[registryKey]*ObjectState
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{states: make(map[registryKey]*ObjectState)}
}

// Get returns the state of node for renderer.
func (r *Registry) Get(renderer string, node uuid.UUID) (*ObjectState, bool) {
	s, ok := r.states[registryKey{renderer, node}]
	return s, ok
}

// Put stores the state of node for renderer.
func (r *Registry) Put(renderer string, node uuid.UUID, s *ObjectState) {
	r.states[registryKey{renderer, node}] = s
}

// Delete removes the state of node for renderer.
func (r *Registry) Delete(renderer string, node uuid.UUID) {
	delete(r.states, registryKey{renderer, node})
}

// Len returns the number of states of renderer.
func (r *Registry) Len(renderer string) int {
	n := 0
	for k := range r.states {
		if k.renderer == renderer {
			n++
		}
	}
	return n
}

// Nodes returns the node IDs holding a state for renderer, sorted.
func (r *Registry) Nodes(renderer string) []uuid.UUID {
	var ids []uuid.UUID
	for k := range r.states {
		if k.renderer == renderer {
			ids = append(ids, k.node)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Each calls fn for every state of renderer in node ID order.
func (r *Registry) Each(renderer string, fn func(*ObjectState)) {
	for _, id := range r.Nodes(renderer) {
		fn(r.states[registryKey{renderer, id}])
	}
}
