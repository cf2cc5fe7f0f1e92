package xform

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// --- Precision mode ---

// SetAccurateTranslationsEnabled sets whether nodes created or updated from
// now on keep an exact double-precision local transform. Nodes already stored
// keep the precision they were stored with.
func (m *Manager[E]) SetAccurateTranslationsEnabled(enable bool) {
	m.cfg.AccurateTranslations = enable
}

// AccurateTranslationsEnabled reports the current precision mode.
func (m *Manager[E]) AccurateTranslationsEnabled() bool {
	return m.cfg.AccurateTranslations
}

// --- Local transform ---

// SetTransform sets the local transform of i and recomputes the world
// transforms of its subtree, or defers that to the commit inside a
// transaction. No-op for invalid instances.
func (m *Manager[E]) SetTransform(i Instance, local mgl32.Mat4) {
	n := m.at(i)
	if n == nil {
		m.debugFail(errors.Wrapf(ErrInvalidInstance, "set transform of %d", i))
		return
	}
	m.storeLocal(n, local)
	m.changed(i)
}

// SetTransformAccurate sets the local transform of i from a double-precision
// matrix. The exact value is kept only when accurate translations are
// enabled; otherwise it is narrowed.
func (m *Manager[E]) SetTransformAccurate(i Instance, local mgl64.Mat4) {
	n := m.at(i)
	if n == nil {
		m.debugFail(errors.Wrapf(ErrInvalidInstance, "set transform of %d", i))
		return
	}
	m.storeLocalAccurate(n, local)
	m.changed(i)
}

// Transform returns the single-precision local transform of i, or identity
// for invalid instances.
func (m *Manager[E]) Transform(i Instance) mgl32.Mat4 {
	if n := m.at(i); n != nil {
		return n.local
	}
	return identity32
}

// TransformAccurate returns the double-precision local transform of i. When
// the node was stored without accurate translations the value is widened
// from single precision.
func (m *Manager[E]) TransformAccurate(i Instance) mgl64.Mat4 {
	if n := m.at(i); n != nil {
		return n.localAccurate()
	}
	return identity64
}

func (m *Manager[E]) storeLocal(n *node[E], local mgl32.Mat4) {
	n.local = local
	n.accurate = m.cfg.AccurateTranslations
	if n.accurate {
		n.localAcc = widen(local)
	}
}

func (m *Manager[E]) storeLocalAccurate(n *node[E], local mgl64.Mat4) {
	n.local = narrow(local)
	n.accurate = m.cfg.AccurateTranslations
	if n.accurate {
		n.localAcc = local
	}
}

// changed brings i's world transform, and its subtree's, up to date after a
// local or structural change. Inside a transaction it only stamps i dirty and
// leaves the work to the next pass.
func (m *Manager[E]) changed(i Instance) {
	if m.txDepth > 0 {
		m.at(i).dirtyEpoch = m.nextEpoch()
		m.pending = true
		return
	}
	m.refresh(i)
}

// refresh recomposes the subtree rooted at i, parents first. The parent of i
// must be current.
func (m *Manager[E]) refresh(i Instance) {
	pass := m.nextEpoch()
	stack := append(m.stack[:0], i)
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &m.nodes[m.slots[c]]
		n.world = compose(n, m.parentWorld(n))
		n.worldEpoch = pass
		for k := n.firstChild; k != NoInstance; k = m.nodes[m.slots[k]].nextSibling {
			stack = append(stack, k)
		}
	}
	m.stack = stack[:0]
}

// parentWorld returns the cached world of n's parent, or nil for roots.
func (m *Manager[E]) parentWorld(n *node[E]) *worldMat {
	if n.parent == NoInstance {
		return nil
	}
	return &m.nodes[m.slots[n.parent]].world
}

// --- World transform ---

// WorldTransform returns the world transform of i, or identity for invalid
// instances. It never modifies the manager.
func (m *Manager[E]) WorldTransform(i Instance) mgl32.Mat4 {
	w, ok := m.worldOf(i)
	if !ok {
		return identity32
	}
	return w.single
}

// WorldTransformAccurate returns the world transform of i in double
// precision. The composition is exact along chains stored with accurate
// translations.
func (m *Manager[E]) WorldTransformAccurate(i Instance) mgl64.Mat4 {
	w, ok := m.worldOf(i)
	if !ok {
		return identity64
	}
	return w.accurate()
}

// worldOf returns i's current world transform. Outside a transaction, or
// after a pass inside one, that is the cached value. Otherwise the ancestor
// chain is composed into a local value and nothing is stored.
func (m *Manager[E]) worldOf(i Instance) (worldMat, bool) {
	idx := m.index(i)
	if idx < 0 {
		return worldMat{}, false
	}
	if !m.pending {
		return m.nodes[idx].world, true
	}
	return m.composeChain(idx), true
}

func (m *Manager[E]) composeChain(idx int) worldMat {
	n := &m.nodes[idx]
	if n.parent == NoInstance {
		return compose(n, nil)
	}
	parent := m.composeChain(m.slots[n.parent])
	return compose(n, &parent)
}

// UpdateWorldTransforms recomputes every stale world transform and returns
// how many nodes were composed. Outside a transaction world transforms are
// always current and it returns 0. Inside one the pass is a single linear walk
// of the dense array, or a depth-first walk from the roots while the order is
// not yet restored. The outermost commit runs it automatically.
func (m *Manager[E]) UpdateWorldTransforms() int {
	if !m.pending {
		return 0
	}
	pass := m.nextEpoch()
	count := 0
	if m.orderStale {
		count = m.updateDepthFirst(pass)
	} else {
		for k := range m.nodes {
			n := &m.nodes[k]
			parent := m.parentNode(n)
			if isStale(n, parent) {
				n.world = compose(n, m.parentWorld(n))
				n.worldEpoch = pass
				count++
			}
		}
	}
	m.pending = false
	return count
}

func (m *Manager[E]) updateDepthFirst(pass uint64) int {
	count := 0
	stack := m.stack[:0]
	for k := range m.nodes {
		if m.nodes[k].parent == NoInstance {
			stack = append(stack, m.nodes[k].inst)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &m.nodes[m.slots[i]]
		if isStale(n, m.parentNode(n)) {
			n.world = compose(n, m.parentWorld(n))
			n.worldEpoch = pass
			count++
		}
		for c := n.firstChild; c != NoInstance; c = m.nodes[m.slots[c]].nextSibling {
			stack = append(stack, c)
		}
	}
	m.stack = stack[:0]
	return count
}

func (m *Manager[E]) parentNode(n *node[E]) *node[E] {
	if n.parent == NoInstance {
		return nil
	}
	return &m.nodes[m.slots[n.parent]]
}

// isStale reports whether n's world transform must be recomputed. parent,
// when not nil, must already be up to date.
func isStale[E comparable](n, parent *node[E]) bool {
	if n.dirtyEpoch > n.worldEpoch {
		return true
	}
	return parent != nil && parent.worldEpoch > n.worldEpoch
}

// worldMat is a composed world transform. double holds the exact value when
// exact is set; otherwise single is authoritative.
type worldMat struct {
	single mgl32.Mat4
	double mgl64.Mat4
	exact  bool
}

func (w *worldMat) accurate() mgl64.Mat4 {
	if w.exact {
		return w.double
	}
	return widen(w.single)
}

// compose returns parent * n.local, or n.local for roots. The double
// precision path is taken when either side carries exact values.
func compose[E comparable](n *node[E], parent *worldMat) worldMat {
	if parent == nil {
		w := worldMat{single: n.local, exact: n.accurate}
		if n.accurate {
			w.double = n.localAcc
		}
		return w
	}
	if n.accurate || parent.exact {
		d := parent.accurate().Mul4(n.localAccurate())
		return worldMat{single: narrow(d), double: d, exact: true}
	}
	return worldMat{single: parent.single.Mul4(n.local)}
}
