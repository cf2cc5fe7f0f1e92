// Package ecs binds an xform hierarchy to a [Donburi] world.
//
// [Bind] installs an observer that republishes hierarchy changes as
// [HierarchyEventType] events and destroys an entity's transform node (and
// its subtree) when the entity is removed from the world:
//
//	world := donburi.NewWorld()
//	m := xform.NewManager[donburi.Entity]()
//	ecs.Bind(world, m)
//
// Subscribe to [HierarchyEventType] in your ECS systems and drain it with
// ProcessEvents each frame.
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
