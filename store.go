package xform

import (
	"iter"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// node is one record of the dense array. Children form a doubly linked list
// threaded through the sibling fields, in insertion order.
type node[E comparable] struct {
	entity E
	inst   Instance

	// Hierarchy
	parent      Instance
	firstChild  Instance
	lastChild   Instance
	prevSibling Instance
	nextSibling Instance
	childCount  int

	// Transform (local)
	local    mgl32.Mat4
	localAcc mgl64.Mat4
	accurate bool // localAcc holds the exact value

	// Computed. Current outside transactions; inside one it may lag behind
	// until the next pass.
	world worldMat

	// dirtyEpoch is the epoch of the last local or structural change made
	// inside a transaction, and worldEpoch the epoch at which world was last
	// composed. The cache is stale when dirtyEpoch > worldEpoch or the parent
	// was composed after this node.
	dirtyEpoch uint64
	worldEpoch uint64

	// mark tags subtree members during destroy and reorder passes.
	mark uint64
}

func (n *node[E]) localAccurate() mgl64.Mat4 {
	if n.accurate {
		return n.localAcc
	}
	return widen(n.local)
}

// Manager stores a transform node for arbitrary comparable entity handles.
// Nodes live in a dense array kept in topological order (every parent before
// its descendants) so one linear pass recomputes all world transforms.
//
// A Manager has a single owner: mutations must not run concurrently with any
// other call. Queries never write to the manager, so any number of goroutines
// may read it at once while no mutation is running.
type Manager[E comparable] struct {
	nodes  []node[E]      // dense, topological outside transactions
	slots  []int          // Instance -> dense index; -1 when free. slots[0] is unused.
	free   []Instance     // recycled instances
	lookup map[E]Instance // entity -> instance

	cfg      Config
	log      *zap.Logger
	observer Observer[E]

	epoch      uint64 // monotonic counter shared by dirty, world and mark epochs
	pending    bool   // some world transform is stale; only inside a transaction
	version    uint64 // bumped by every structural mutation; invalidates iterators
	txDepth    int
	orderStale bool

	// scratch buffers reused across calls
	scratch   []node[E]
	chain     []int
	stack     []Instance
	destroyed []Event[E]
}

// NewManager creates an empty manager.
func NewManager[E comparable](opts ...Option) *Manager[E] {
	o := options{cfg: DefaultConfig(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	o.cfg.sanitize()
	m := &Manager[E]{
		nodes:  make([]node[E], 0, o.cfg.InitialCapacity),
		slots:  make([]int, 1, o.cfg.InitialCapacity+1),
		lookup: make(map[E]Instance, o.cfg.InitialCapacity),
		cfg:    o.cfg,
		log:    o.log,
	}
	m.slots[0] = -1
	return m
}

// SetObserver installs the hierarchy observer. Pass nil to remove it.
func (m *Manager[E]) SetObserver(o Observer[E]) {
	m.observer = o
}

// Config returns the manager's current configuration.
func (m *Manager[E]) Config() Config {
	return m.cfg
}

// --- Lookup ---

// index returns the dense index of i, or -1 if i is not alive.
func (m *Manager[E]) index(i Instance) int {
	if i == NoInstance || int(i) >= len(m.slots) {
		return -1
	}
	return m.slots[i]
}

// at returns the record for i, or nil. The pointer is valid until the next
// mutation.
func (m *Manager[E]) at(i Instance) *node[E] {
	idx := m.index(i)
	if idx < 0 {
		return nil
	}
	return &m.nodes[idx]
}

// IsAlive reports whether i refers to a live node.
func (m *Manager[E]) IsAlive(i Instance) bool {
	return m.index(i) >= 0
}

// HasComponent reports whether e owns a node.
func (m *Manager[E]) HasComponent(e E) bool {
	_, ok := m.lookup[e]
	return ok
}

// ComponentCount returns the number of nodes.
func (m *Manager[E]) ComponentCount() int {
	return len(m.nodes)
}

// Empty reports whether the manager holds no nodes.
func (m *Manager[E]) Empty() bool {
	return len(m.nodes) == 0
}

// Instance returns the node handle of e, or NoInstance.
func (m *Manager[E]) Instance(e E) Instance {
	return m.lookup[e]
}

// Entity returns the entity owning i, or the zero E when i is not alive.
func (m *Manager[E]) Entity(i Instance) E {
	if n := m.at(i); n != nil {
		return n.entity
	}
	var zero E
	return zero
}

// Entities returns the entities in dense order. Outside a transaction every
// parent precedes its descendants.
func (m *Manager[E]) Entities() []E {
	return m.AppendEntities(make([]E, 0, len(m.nodes)))
}

// AppendEntities appends the entities in dense order to dst.
func (m *Manager[E]) AppendEntities(dst []E) []E {
	for k := range m.nodes {
		dst = append(dst, m.nodes[k].entity)
	}
	return dst
}

// All iterates over every node in dense order. The sequence must not be
// used across mutations.
func (m *Manager[E]) All() iter.Seq2[Instance, E] {
	return func(yield func(Instance, E) bool) {
		for k := range m.nodes {
			if !yield(m.nodes[k].inst, m.nodes[k].entity) {
				return
			}
		}
	}
}

// --- Creation ---

// CreateIdentity creates a node for e with an identity local transform.
func (m *Manager[E]) CreateIdentity(e E, parent Instance) (Instance, error) {
	return m.Create(e, parent, identity32)
}

// Create creates a node for e under parent (NoInstance for a root) with a
// single-precision local transform. Creating a node for an entity that
// already has one fails with ErrDuplicateEntity and changes nothing.
func (m *Manager[E]) Create(e E, parent Instance, local mgl32.Mat4) (Instance, error) {
	inst, err := m.create(e, parent)
	if err != nil {
		return NoInstance, err
	}
	m.storeLocal(m.at(inst), local)
	m.created(inst, parent)
	return inst, nil
}

// CreateAccurate is Create with a double-precision local transform. The
// exact value is kept only when accurate translations are enabled.
func (m *Manager[E]) CreateAccurate(e E, parent Instance, local mgl64.Mat4) (Instance, error) {
	inst, err := m.create(e, parent)
	if err != nil {
		return NoInstance, err
	}
	m.storeLocalAccurate(m.at(inst), local)
	m.created(inst, parent)
	return inst, nil
}

func (m *Manager[E]) create(e E, parent Instance) (Instance, error) {
	if _, ok := m.lookup[e]; ok {
		err := errors.Wrapf(ErrDuplicateEntity, "create %v", e)
		m.debugFail(err)
		return NoInstance, err
	}
	if parent != NoInstance && !m.IsAlive(parent) {
		err := errors.Wrapf(ErrInvalidInstance, "create %v: parent %d", e, parent)
		m.debugFail(err)
		return NoInstance, err
	}

	inst := m.allocInstance()
	m.slots[inst] = len(m.nodes)
	m.nodes = append(m.nodes, node[E]{entity: e, inst: inst})
	m.lookup[e] = inst
	if parent != NoInstance {
		m.link(inst, parent)
	}
	m.version++
	return inst, nil
}

// created finishes a create once the local transform is stored.
func (m *Manager[E]) created(inst, parent Instance) {
	m.changed(inst)
	if m.cfg.Debug && parent != NoInstance {
		m.debugCheckShape(inst)
	}
	m.emit(Event[E]{Type: EventCreated, Entity: m.Entity(inst), Instance: inst, Parent: parent})
}

func (m *Manager[E]) allocInstance() Instance {
	if n := len(m.free); n > 0 {
		inst := m.free[n-1]
		m.free = m.free[:n-1]
		return inst
	}
	m.slots = append(m.slots, -1)
	return Instance(len(m.slots) - 1)
}

// --- Destruction ---

// Destroy removes e's node together with its whole subtree and returns the
// number of nodes removed. Destroying an entity without a node is a no-op.
func (m *Manager[E]) Destroy(e E) int {
	inst, ok := m.lookup[e]
	if !ok {
		return 0
	}
	m.unlink(inst)

	mark := m.nextEpoch()
	lo := m.markSubtree(inst, mark)

	// Compact from the first marked slot; relative order of the survivors,
	// and therefore topological order, is preserved. The event buffer is
	// detached while observers run so a nested Destroy gets its own.
	events := m.destroyed[:0]
	m.destroyed = nil
	w := lo
	for k := lo; k < len(m.nodes); k++ {
		n := &m.nodes[k]
		if n.mark == mark {
			delete(m.lookup, n.entity)
			m.slots[n.inst] = -1
			m.free = append(m.free, n.inst)
			events = append(events, Event[E]{Type: EventDestroyed, Entity: n.entity, Instance: n.inst})
			continue
		}
		if w != k {
			m.nodes[w] = *n
			m.slots[n.inst] = w
		}
		w++
	}
	clear(m.nodes[w:])
	m.nodes = m.nodes[:w]
	m.version++

	removed := len(events)
	for _, ev := range events {
		m.emit(ev)
	}
	clear(events)
	m.destroyed = events[:0]
	return removed
}

// GC destroys every node whose entity alive reports as dead and returns the
// number of nodes removed, descendants included.
func (m *Manager[E]) GC(alive func(E) bool) int {
	var dead []E
	for k := range m.nodes {
		if !alive(m.nodes[k].entity) {
			dead = append(dead, m.nodes[k].entity)
		}
	}
	removed := 0
	for _, e := range dead {
		removed += m.Destroy(e)
	}
	if removed > 0 {
		m.log.Debug("xform gc", zap.Int("dead", len(dead)), zap.Int("removed", removed))
	}
	return removed
}

// markSubtree stamps root and all its descendants with mark and returns the
// lowest dense index among them.
func (m *Manager[E]) markSubtree(root Instance, mark uint64) int {
	lo := len(m.nodes)
	stack := append(m.stack[:0], root)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		idx := m.slots[i]
		n := &m.nodes[idx]
		n.mark = mark
		if idx < lo {
			lo = idx
		}
		for c := n.firstChild; c != NoInstance; c = m.nodes[m.slots[c]].nextSibling {
			stack = append(stack, c)
		}
	}
	m.stack = stack
	return lo
}

func (m *Manager[E]) nextEpoch() uint64 {
	m.epoch++
	return m.epoch
}

func (m *Manager[E]) emit(ev Event[E]) {
	if m.observer != nil {
		m.observer.HierarchyChanged(ev)
	}
}
