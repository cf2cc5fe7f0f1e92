package xform

import (
	"time"

	"go.uber.org/zap"
)

// OpenLocalTransformTransaction starts batching edits. While a transaction is
// open SetParent does not reorder the dense array and world transforms are
// not recomputed; both are brought up to date once, for the whole store, by
// the outermost commit.
//
// Transactions nest by count: inner open/commit pairs are folded into the
// outermost one.
func (m *Manager[E]) OpenLocalTransformTransaction() {
	m.txDepth++
}

// CommitLocalTransformTransaction closes the current transaction. Closing the
// outermost one resorts the dense array if any reparent happened and then
// brings every stale world transform up to date. A commit without a matching
// open is a no-op.
func (m *Manager[E]) CommitLocalTransformTransaction() {
	if m.txDepth == 0 {
		return
	}
	m.txDepth--
	if m.txDepth > 0 {
		return
	}
	moved := 0
	if m.orderStale {
		start := time.Now()
		moved = m.resort()
		m.orderStale = false
		m.version++
		m.log.Debug("xform transaction committed",
			zap.Int("nodes", len(m.nodes)),
			zap.Int("moved", moved),
			zap.Duration("resort", time.Since(start)))
	}
	m.UpdateWorldTransforms()
	m.emit(Event[E]{Type: EventCommitted, Moved: moved})
}

// InTransaction reports whether a local transform transaction is open.
func (m *Manager[E]) InTransaction() bool {
	return m.txDepth > 0
}

// resort rebuilds a topological order in a single pass. Nodes keep their
// current relative order except that a node whose ancestors have not been
// placed yet pulls them in first. Each node is placed once and each ancestor
// walk stops at the first placed node, so the cost is O(node count).
// Returns the number of dense slots whose occupant changed.
func (m *Manager[E]) resort() int {
	mark := m.nextEpoch()
	out := m.scratch[:0]
	if cap(out) < len(m.nodes) {
		out = make([]node[E], 0, len(m.nodes))
	}
	for k := range m.nodes {
		if m.nodes[k].mark == mark {
			continue
		}
		chain := m.chain[:0]
		for c := m.nodes[k].inst; c != NoInstance; c = m.nodes[m.slots[c]].parent {
			idx := m.slots[c]
			if m.nodes[idx].mark == mark {
				break
			}
			chain = append(chain, idx)
		}
		for j := len(chain) - 1; j >= 0; j-- {
			m.nodes[chain[j]].mark = mark
			out = append(out, m.nodes[chain[j]])
		}
		m.chain = chain
	}

	moved := 0
	for k := range out {
		if out[k].inst != m.nodes[k].inst {
			moved++
		}
		m.slots[out[k].inst] = k
	}
	old := m.nodes
	m.nodes = out
	clear(old)
	m.scratch = old[:0]
	return moved
}
