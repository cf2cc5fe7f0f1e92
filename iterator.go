package xform

import "iter"

// ChildIterator walks the direct children of a node in attach order. It is
// forward-only and becomes exhausted as soon as the manager is structurally
// modified (create, destroy, reparent or commit).
//
//	it := m.IterChildren(parent)
//	for it.Next() {
//		use(it.Instance(), it.Entity())
//	}
type ChildIterator[E comparable] struct {
	m       *Manager[E]
	version uint64
	next    Instance
	cur     Instance
}

// IterChildren returns an iterator positioned before the first child of
// parent. An invalid parent yields an empty iterator.
//
// Invalidation is manager-wide: any create, destroy or reparent, under any
// parent, ends the iterator, as does a commit that reorders the store.
// Transform edits do not. Collect the children first (ChildInstances into a
// slice, or Children) when the loop body changes the hierarchy.
func (m *Manager[E]) IterChildren(parent Instance) ChildIterator[E] {
	it := ChildIterator[E]{m: m, version: m.version}
	if n := m.at(parent); n != nil {
		it.next = n.firstChild
	}
	return it
}

// Next advances to the next child and reports whether there is one.
func (it *ChildIterator[E]) Next() bool {
	if it.m == nil || it.next == NoInstance || it.version != it.m.version {
		it.cur = NoInstance
		it.next = NoInstance
		return false
	}
	it.cur = it.next
	it.next = it.m.nodes[it.m.slots[it.cur]].nextSibling
	return true
}

// Instance returns the current child, or NoInstance when exhausted.
func (it *ChildIterator[E]) Instance() Instance {
	return it.cur
}

// Entity returns the entity of the current child.
func (it *ChildIterator[E]) Entity() E {
	if it.cur == NoInstance || it.version != it.m.version {
		var zero E
		return zero
	}
	return it.m.Entity(it.cur)
}

// ChildInstances returns the direct children of parent as a sequence. The
// sequence stops early if the manager is modified during iteration.
func (m *Manager[E]) ChildInstances(parent Instance) iter.Seq[Instance] {
	return func(yield func(Instance) bool) {
		it := m.IterChildren(parent)
		for it.Next() {
			if !yield(it.Instance()) {
				return
			}
		}
	}
}
