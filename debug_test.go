package xform

import (
	"fmt"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func assertPanics(t *testing.T, name, substr string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Errorf("%s: expected panic", name)
			return
		}
		if msg := fmt.Sprint(r); !strings.Contains(msg, substr) {
			t.Errorf("%s: panic %q does not mention %q", name, msg, substr)
		}
	}()
	fn()
}

// --- Debug panics ---

func TestDebugPanicsOnCycle(t *testing.T) {
	m := NewManager[string](WithDebug(true))
	a, _ := m.CreateIdentity("a", NoInstance)
	b, _ := m.CreateIdentity("b", a)
	assertPanics(t, "cycle", "xform debug", func() { m.SetParent(a, b) })
	assertPanics(t, "self", "cycle", func() { m.SetParent(a, a) })
}

func TestDebugPanicsOnDuplicate(t *testing.T) {
	m := NewManager[string](WithDebug(true))
	m.CreateIdentity("a", NoInstance)
	assertPanics(t, "duplicate", "already has a transform", func() { m.CreateIdentity("a", NoInstance) })
}

func TestDebugPanicsOnInvalidInstance(t *testing.T) {
	m := NewManager[string](WithDebug(true))
	assertPanics(t, "create", "xform debug", func() { m.CreateIdentity("a", 12) })
	assertPanics(t, "set parent", "xform debug", func() { m.SetParent(3, NoInstance) })
	assertPanics(t, "set transform", "xform debug", func() { m.SetTransform(3, mgl32.Ident4()) })
}

func TestReleaseModeReturnsErrors(t *testing.T) {
	m := NewManager[string]()
	a, _ := m.CreateIdentity("a", NoInstance)
	b, _ := m.CreateIdentity("b", a)
	if err := m.SetParent(a, b); err == nil {
		t.Error("expected cycle error")
	}
	if _, err := m.CreateIdentity("a", NoInstance); err == nil {
		t.Error("expected duplicate error")
	}
	m.SetTransform(99, mgl32.Ident4())
}

// --- Shape warnings ---

func newObservedManager(cfg Config) (*Manager[string], *observer.ObservedLogs) {
	core, logs := observer.New(zap.WarnLevel)
	return NewManager[string](WithConfig(cfg), WithLogger(zap.New(core))), logs
}

func TestDebugWarnsOnDeepTree(t *testing.T) {
	m, logs := newObservedManager(Config{Debug: true, MaxTreeDepth: 2})
	prev, _ := m.CreateIdentity("n0", NoInstance)
	for k := 1; k <= 3; k++ {
		prev, _ = m.CreateIdentity(fmt.Sprintf("n%d", k), prev)
	}

	warned := logs.FilterMessage("xform tree depth exceeds threshold").All()
	if len(warned) != 1 {
		t.Fatalf("got %d depth warnings, want 1", len(warned))
	}
	if got := warned[0].ContextMap()["depth"]; got != int64(3) {
		t.Errorf("depth field = %v, want 3", got)
	}
}

func TestDebugWarnsOnWideNode(t *testing.T) {
	m, logs := newObservedManager(Config{Debug: true, MaxChildCount: 2})
	p, _ := m.CreateIdentity("p", NoInstance)
	for _, n := range []string{"a", "b", "c", "d"} {
		m.CreateIdentity(n, p)
	}
	if got := logs.FilterMessage("xform child count exceeds threshold").Len(); got != 2 {
		t.Errorf("got %d child count warnings, want 2", got)
	}
}

func TestNoWarningsWithoutDebug(t *testing.T) {
	m, logs := newObservedManager(Config{MaxTreeDepth: 1, MaxChildCount: 1})
	p, _ := m.CreateIdentity("p", NoInstance)
	a, _ := m.CreateIdentity("a", p)
	m.CreateIdentity("b", p)
	m.CreateIdentity("c", a)
	if logs.Len() != 0 {
		t.Errorf("release mode logged %d warnings", logs.Len())
	}
}

// --- Validate / Dump ---

func TestValidateDetectsCorruption(t *testing.T) {
	m := NewManager[string]()
	p, _ := m.CreateIdentity("p", NoInstance)
	m.CreateIdentity("c", p)
	if err := m.Validate(); err != nil {
		t.Fatalf("fresh manager invalid: %v", err)
	}

	m.at(p).childCount++
	if err := m.Validate(); err == nil {
		t.Error("Validate missed a wrong child count")
	}
	m.at(p).childCount--

	m.nodes[0], m.nodes[1] = m.nodes[1], m.nodes[0]
	if err := m.Validate(); err == nil {
		t.Error("Validate missed a slot mismatch")
	}
}

func TestDump(t *testing.T) {
	m := NewManager[string](WithAccurateTranslations(true))
	p, _ := m.Create("planet", NoInstance, mgl32.Translate3D(4, 0, 0))
	m.CreateIdentity("moon", p)

	out := m.Dump()
	for _, want := range []string{`"planet"`, `"moon"`, "Accurate: (bool) true", "Children: (int) 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump missing %q:\n%s", want, out)
		}
	}
	if NewManager[string]().Dump() == "" {
		t.Error("empty Dump should still print something")
	}
}
