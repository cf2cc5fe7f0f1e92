package ecs

import (
	"github.com/phanxgames/xform"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// HierarchyEvent is the payload published for every hierarchy change.
type HierarchyEvent = xform.Event[donburi.Entity]

// HierarchyEventType is the Donburi event type for xform hierarchy events.
// Subscribe to this in your ECS systems to learn about created, destroyed
// and reparented nodes.
var HierarchyEventType = events.NewEventType[HierarchyEvent]()

type donburiObserver struct {
	world donburi.World
}

// NewDonburiObserver creates an Observer that publishes events to
// HierarchyEventType on world. Events are queued until ProcessEvents.
func NewDonburiObserver(world donburi.World) xform.Observer[donburi.Entity] {
	return &donburiObserver{world: world}
}

func (o *donburiObserver) HierarchyChanged(event HierarchyEvent) {
	HierarchyEventType.Publish(o.world, event)
}

// Bind installs a Donburi observer on m and destroys an entity's transform
// node whenever the entity is removed from world.
func Bind(world donburi.World, m *xform.Manager[donburi.Entity]) {
	m.SetObserver(NewDonburiObserver(world))
	world.OnRemove(func(_ donburi.World, e donburi.Entity) {
		m.Destroy(e)
	})
}

// Sync destroys the nodes of every entity no longer valid in world, for
// entities removed before Bind was called or through paths that skip the
// removal hook. Returns the number of nodes removed.
func Sync(world donburi.World, m *xform.Manager[donburi.Entity]) int {
	return m.GC(world.Valid)
}
