package xform

import (
	"github.com/pkg/errors"
)

// --- Tree manipulation ---

// SetParent attaches i under newParent, or makes it a root when newParent is
// NoInstance. The subtree under i moves with it. A newParent that is i itself
// or one of its descendants is rejected with ErrCycle before anything changes.
//
// Outside a transaction the subtree is moved in the dense array to follow
// its new parent right away; inside one the reorder is deferred to
// CommitLocalTransformTransaction.
func (m *Manager[E]) SetParent(i, newParent Instance) error {
	n := m.at(i)
	if n == nil {
		err := errors.Wrapf(ErrInvalidInstance, "set parent of %d", i)
		m.debugFail(err)
		return err
	}
	if newParent != NoInstance && !m.IsAlive(newParent) {
		err := errors.Wrapf(ErrInvalidInstance, "set parent of %d: parent %d", i, newParent)
		m.debugFail(err)
		return err
	}
	if n.parent == newParent {
		return nil
	}
	if m.isAncestorOrSelf(i, newParent) {
		err := errors.Wrapf(ErrCycle, "set parent of %d to %d", i, newParent)
		m.debugFail(err)
		return err
	}

	m.unlink(i)
	if newParent != NoInstance {
		m.link(i, newParent)
	}
	m.version++

	if m.txDepth > 0 {
		m.orderStale = true
	} else {
		m.moveAfterParent(i)
	}
	m.changed(i)
	if m.cfg.Debug {
		m.debugCheckShape(i)
	}
	m.emit(Event[E]{Type: EventReparented, Entity: m.Entity(i), Instance: i, Parent: newParent})
	return nil
}

// ParentInstance returns the parent of i, or NoInstance for roots and
// invalid instances.
func (m *Manager[E]) ParentInstance(i Instance) Instance {
	if n := m.at(i); n != nil {
		return n.parent
	}
	return NoInstance
}

// Parent returns the entity owning i's parent, or the zero E for roots and
// invalid instances.
func (m *Manager[E]) Parent(i Instance) E {
	return m.Entity(m.ParentInstance(i))
}

// ChildCount returns the number of direct children of i.
func (m *Manager[E]) ChildCount(i Instance) int {
	if n := m.at(i); n != nil {
		return n.childCount
	}
	return 0
}

// Children copies up to len(buf) direct children of i into buf, in the order
// they were attached, and returns how many were written.
func (m *Manager[E]) Children(i Instance, buf []E) int {
	n := m.at(i)
	if n == nil {
		return 0
	}
	count := 0
	for c := n.firstChild; c != NoInstance && count < len(buf); c = m.nodes[m.slots[c]].nextSibling {
		buf[count] = m.nodes[m.slots[c]].entity
		count++
	}
	return count
}

// Depth returns the number of ancestors of i. Roots and invalid instances
// have depth 0.
func (m *Manager[E]) Depth(i Instance) int {
	n := m.at(i)
	if n == nil {
		return 0
	}
	depth := 0
	for p := n.parent; p != NoInstance; p = m.nodes[m.slots[p]].parent {
		depth++
	}
	return depth
}

// --- Helpers ---

// isAncestorOrSelf reports whether candidate is node or one of its ancestors.
func (m *Manager[E]) isAncestorOrSelf(candidate, node Instance) bool {
	for p := node; p != NoInstance; p = m.nodes[m.slots[p]].parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// link appends child to parent's child list. child must be detached.
func (m *Manager[E]) link(child, parent Instance) {
	c := m.at(child)
	p := m.at(parent)
	c.parent = parent
	c.prevSibling = p.lastChild
	c.nextSibling = NoInstance
	if p.lastChild != NoInstance {
		m.at(p.lastChild).nextSibling = child
	} else {
		p.firstChild = child
	}
	p.lastChild = child
	p.childCount++
}

// unlink removes child from its parent's child list. No-op for roots.
func (m *Manager[E]) unlink(child Instance) {
	c := m.at(child)
	if c.parent == NoInstance {
		return
	}
	p := m.at(c.parent)
	if c.prevSibling != NoInstance {
		m.at(c.prevSibling).nextSibling = c.nextSibling
	} else {
		p.firstChild = c.nextSibling
	}
	if c.nextSibling != NoInstance {
		m.at(c.nextSibling).prevSibling = c.prevSibling
	} else {
		p.lastChild = c.prevSibling
	}
	p.childCount--
	c.parent = NoInstance
	c.prevSibling = NoInstance
	c.nextSibling = NoInstance
}

// moveAfterParent restores topological order after i was attached to a new
// parent. Only the window between i and its parent is touched: subtree
// members inside it are shifted, in their existing relative order, to sit
// right after the parent. Members beyond the parent are already in place.
func (m *Manager[E]) moveAfterParent(i Instance) {
	n := m.at(i)
	if n.parent == NoInstance {
		return
	}
	lo := m.slots[i]
	hi := m.slots[n.parent]
	if hi < lo {
		return
	}

	mark := m.nextEpoch()
	m.markSubtree(i, mark)

	moved := m.scratch[:0]
	w := lo
	for k := lo; k <= hi; k++ {
		if m.nodes[k].mark == mark {
			moved = append(moved, m.nodes[k])
			continue
		}
		if w != k {
			m.nodes[w] = m.nodes[k]
			m.slots[m.nodes[w].inst] = w
		}
		w++
	}
	for k := range moved {
		m.nodes[w] = moved[k]
		m.slots[moved[k].inst] = w
		w++
	}
	clear(moved)
	m.scratch = moved[:0]
}
