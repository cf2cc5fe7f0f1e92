package xform

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Instance is a dense, reusable handle identifying a transform node. It stays
// stable for as long as the owning entity's node exists; destroying the node
// frees the handle for reuse.
type Instance uint32

// NoInstance is the invalid Instance. As a parent it means "root".
const NoInstance Instance = 0

// IsValid reports whether i is not NoInstance. It does not check that the
// node is still alive; use Manager.IsAlive for that.
func (i Instance) IsValid() bool {
	return i != NoInstance
}

var (
	// ErrInvalidInstance is returned when an Instance does not refer to a live node.
	ErrInvalidInstance = errors.New("xform: invalid instance")
	// ErrCycle is returned by SetParent when the new parent is the node itself
	// or one of its descendants.
	ErrCycle = errors.New("xform: parent would create a cycle")
	// ErrDuplicateEntity is returned by Create when the entity already owns a node.
	ErrDuplicateEntity = errors.New("xform: entity already has a transform")
)

// EventType identifies a kind of hierarchy event.
type EventType uint8

const (
	EventCreated   EventType = iota // a node was created
	EventDestroyed                  // a node was destroyed (one event per node in the subtree)
	EventReparented                 // a node was attached to a new parent or made a root
	EventCommitted                  // the outermost local transform transaction was committed
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDestroyed:
		return "destroyed"
	case EventReparented:
		return "reparented"
	case EventCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// Event carries hierarchy change data to an Observer.
type Event[E comparable] struct {
	Type     EventType
	Entity   E
	Instance Instance
	// Parent is the new parent for EventCreated and EventReparented.
	Parent Instance
	// Moved is the number of dense slots that changed during a commit resort.
	Moved int
}

// Observer is the interface for optional ECS integration. When set on a
// Manager, hierarchy changes are forwarded to it after the mutation completes.
type Observer[E comparable] interface {
	HierarchyChanged(event Event[E])
}

// identity matrices handed out for invalid instances.
var (
	identity32 = mgl32.Ident4()
	identity64 = mgl64.Ident4()
)

// widen converts a single-precision matrix to double precision. The
// conversion is exact.
func widen(m mgl32.Mat4) mgl64.Mat4 {
	var out mgl64.Mat4
	for i, v := range m {
		out[i] = float64(v)
	}
	return out
}

// narrow converts a double-precision matrix to the nearest single-precision one.
func narrow(m mgl64.Mat4) mgl32.Mat4 {
	var out mgl32.Mat4
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}
