package xform

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var spewConfig = &spew.ConfigState{
	Indent:                  "  ",
	DisableCapacities:       true,
	DisablePointerAddresses: true,
	SortKeys:                true,
}

// debugFail panics with err in debug mode. In release mode callers return
// the error (or drop it) and leave state untouched.
func (m *Manager[E]) debugFail(err error) {
	if m.cfg.Debug {
		panic(fmt.Sprintf("xform debug: %v", err))
	}
}

// debugCheckShape logs a warning when i sits deeper than MaxTreeDepth or its
// parent has more than MaxChildCount children.
func (m *Manager[E]) debugCheckShape(i Instance) {
	if depth := m.Depth(i); depth > m.cfg.MaxTreeDepth {
		m.log.Warn("xform tree depth exceeds threshold",
			zap.Int("depth", depth),
			zap.Int("threshold", m.cfg.MaxTreeDepth),
			zap.Uint32("instance", uint32(i)))
	}
	parent := m.ParentInstance(i)
	if count := m.ChildCount(parent); count > m.cfg.MaxChildCount {
		m.log.Warn("xform child count exceeds threshold",
			zap.Int("children", count),
			zap.Int("threshold", m.cfg.MaxChildCount),
			zap.Uint32("instance", uint32(parent)))
	}
}

// Validate checks the internal invariants: slot and lookup maps agree with
// the dense array, child lists match parent links, and (outside a
// transaction) every parent precedes its children. It is meant for tests
// and debugging tools.
func (m *Manager[E]) Validate() error {
	if len(m.lookup) != len(m.nodes) {
		return errors.Errorf("lookup has %d entries for %d nodes", len(m.lookup), len(m.nodes))
	}
	for k := range m.nodes {
		n := &m.nodes[k]
		if m.index(n.inst) != k {
			return errors.Errorf("instance %d maps to slot %d, found at %d", n.inst, m.index(n.inst), k)
		}
		if m.lookup[n.entity] != n.inst {
			return errors.Errorf("entity %v maps to %d, node holds %d", n.entity, m.lookup[n.entity], n.inst)
		}
		if n.parent != NoInstance {
			pidx := m.index(n.parent)
			if pidx < 0 {
				return errors.Errorf("instance %d has dead parent %d", n.inst, n.parent)
			}
			if !m.orderStale && pidx >= k {
				return errors.Errorf("instance %d at %d precedes its parent %d at %d", n.inst, k, n.parent, pidx)
			}
		}
		count := 0
		prev := NoInstance
		for c := n.firstChild; c != NoInstance; c = m.nodes[m.slots[c]].nextSibling {
			cn := &m.nodes[m.slots[c]]
			if cn.parent != n.inst {
				return errors.Errorf("child %d of %d has parent %d", c, n.inst, cn.parent)
			}
			if cn.prevSibling != prev {
				return errors.Errorf("child %d of %d has broken sibling link", c, n.inst)
			}
			prev = c
			count++
		}
		if count != n.childCount || prev != n.lastChild {
			return errors.Errorf("instance %d child list has %d entries, count says %d", n.inst, count, n.childCount)
		}
	}
	return nil
}

// nodeDump is the printable view of one node.
type nodeDump[E comparable] struct {
	Slot     int
	Entity   E
	Instance Instance
	Parent   Instance
	Children int
	Accurate bool
	Local    [16]float32
	World    [16]float32
}

// Dump returns a human readable listing of every node in dense order.
func (m *Manager[E]) Dump() string {
	rows := make([]nodeDump[E], len(m.nodes))
	for k := range m.nodes {
		n := &m.nodes[k]
		rows[k] = nodeDump[E]{
			Slot:     k,
			Entity:   n.entity,
			Instance: n.inst,
			Parent:   n.parent,
			Children: n.childCount,
			Accurate: n.accurate,
			Local:    n.local,
			World:    n.world.single,
		}
	}
	return spewConfig.Sdump(rows)
}
