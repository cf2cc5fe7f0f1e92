// Package xform is an entity transform hierarchy manager.
//
// A [Manager] associates opaque, comparable entity handles with nodes in a
// forest of 4x4 transforms, keeps parent/child links, and derives each
// node's world transform by composing its local transform with those of
// its ancestors. Matrices are [mgl32.Mat4] (single precision) and
// [mgl64.Mat4] (double precision) from go-gl/mathgl.
//
// # Quick start
//
//	m := xform.NewManager[string]()
//	root, _ := m.CreateIdentity("root", xform.NoInstance)
//	arm, _ := m.Create("arm", root, mgl32.Translate3D(1, 0, 0))
//	world := m.WorldTransform(arm)
//
// # Storage
//
// Nodes live in one dense array, indexed through stable [Instance] handles.
// The array is kept in topological order (parents before descendants). World
// transforms are cached per node and kept current: outside a transaction
// every mutation recomputes the affected subtree before it returns.
//
// # Transactions
//
// Each [Manager.SetParent] moves the reparented subtree next to its new
// parent in the dense array. When reparenting many nodes, bracket the edits
// with [Manager.OpenLocalTransformTransaction] and
// [Manager.CommitLocalTransformTransaction]: the order is then restored once
// for the whole store at commit. Local transform edits inside a transaction
// are batched the same way; the commit recomputes every stale world
// transform in a single linear pass ([Manager.UpdateWorldTransforms]).
//
// # Precision
//
// With accurate translations enabled ([WithAccurateTranslations] or
// [Manager.SetAccurateTranslationsEnabled]) local transforms also keep an
// exact double-precision copy, and world transforms along such chains are
// composed in double precision. The mode applies to nodes stored after it
// is changed.
//
// # Concurrency
//
// A Manager has a single owner and no internal locks. Queries never write to
// the manager, so any number of goroutines may read it at once as long as no
// mutation runs concurrently. Inside an open transaction a world read
// composes the ancestor chain on the fly without caching it.
//
// # Debug mode
//
// [WithDebug] turns programmer errors (cycles, dangling instances,
// duplicate entities) into panics and logs warnings for unusually deep or
// wide trees through the configured zap logger.
package xform
