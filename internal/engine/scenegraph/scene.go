package scenegraph

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Observer lookup errors.
var (
	ErrNoObserver        = errors.New("no active camera in scene")
	ErrAmbiguousObserver = errors.New("more than one active camera in scene")
)

// DefaultQueueSize is the capacity of the pending mutation queue.
const DefaultQueueSize = 1024

// Scene is the root of a node graph. Besides the tree it keeps an index of
// attached nodes, the nodes waiting for one-time GPU initialization, removal
// hooks and a queue of mutations submitted from other goroutines.
type Scene struct {
	Node

	index       map[uuid.UUID]*Node
	pendingInit []*Node
	onRemove    []func(*Node)

	pending chan func(*Scene)
	mu      sync.Mutex // guards onRemove registration only
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	sc := &Scene{
		index:   make(map[uuid.UUID]*Node),
		pending: make(chan func(*Scene), DefaultQueueSize),
	}
	sc.init("Scene", "Scene")
	sc.outer = sc
	sc.index[sc.ID] = &sc.Node
	return sc
}

// Discover runs Discover over the whole scene.
func (sc *Scene) Discover(pred func(*Node) bool) []*Node {
	return Discover(sc, pred)
}

// Lookup returns the attached node with the given id.
func (sc *Scene) Lookup(id uuid.UUID) (*Node, bool) {
	n, ok := sc.index[id]
	return n, ok
}

// Len returns the number of nodes attached to the scene, the root included.
func (sc *Scene) Len() int { return len(sc.index) }

// FindObserver returns the single active camera. It fails when there is none
// or when several cameras are marked active.
func (sc *Scene) FindObserver() (*Camera, error) {
	var found *Camera
	var err error
	Walk(&sc.Node, func(n *Node) bool {
		cam, ok := n.outer.(*Camera)
		if !ok || !cam.Active {
			return true
		}
		if found != nil {
			err = ErrAmbiguousObserver
			return false
		}
		found = cam
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNoObserver
	}
	return found, nil
}

// SetActiveCamera marks cam as the observer and deactivates every other camera.
func (sc *Scene) SetActiveCamera(cam *Camera) {
	Walk(&sc.Node, func(n *Node) bool {
		if c, ok := n.outer.(*Camera); ok {
			c.Active = c == cam
		}
		return true
	})
}

// OnRemove registers fn to run for every node detached from the scene.
func (sc *Scene) OnRemove(fn func(*Node)) {
	sc.mu.Lock()
	sc.onRemove = append(sc.onRemove, fn)
	sc.mu.Unlock()
}

// TakePendingInit returns the geometry nodes attached since the last call and
// clears the list.
func (sc *Scene) TakePendingInit() []*Node {
	out := sc.pendingInit
	sc.pendingInit = nil
	return out
}

// Enqueue submits a mutation to be applied by the goroutine that owns the
// scene. It is safe for concurrent use and blocks while the queue is full.
func (sc *Scene) Enqueue(fn func(*Scene)) {
	sc.pending <- fn
}

// TryEnqueue is Enqueue without blocking. It reports whether fn was queued.
func (sc *Scene) TryEnqueue(fn func(*Scene)) bool {
	select {
	case sc.pending <- fn:
		return true
	default:
		return false
	}
}

// ApplyPending runs every queued mutation in submission order and returns how
// many ran. Only the owning goroutine may call it.
func (sc *Scene) ApplyPending() int {
	applied := 0
	for {
		select {
		case fn := <-sc.pending:
			fn(sc)
			applied++
		default:
			return applied
		}
	}
}

func (sc *Scene) attach(root *Node) {
	Walk(root, func(n *Node) bool {
		sc.index[n.ID] = n
		if n.Is(HasGeometry) {
			sc.pendingInit = append(sc.pendingInit, n)
		}
		return true
	})
}

func (sc *Scene) detach(root *Node) {
	sc.mu.Lock()
	hooks := append([]func(*Node){}, sc.onRemove...)
	sc.mu.Unlock()

	Walk(root, func(n *Node) bool {
		delete(sc.index, n.ID)
		for i, p := range sc.pendingInit {
			if p == n {
				sc.pendingInit = append(sc.pendingInit[:i], sc.pendingInit[i+1:]...)
				break
			}
		}
		for _, fn := range hooks {
			fn(n)
		}
		return true
	})
}
