package xform

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween/ease"
)

func TestTweenTranslation(t *testing.T) {
	m := NewManager[string]()
	i, _ := m.Create("a", NoInstance, mgl32.Translate3D(0, 10, 0))
	g := TweenTranslation(m, i, mgl32.Vec3{100, 20, -4}, 1.0, ease.Linear)

	g.Update(0.5)
	if g.Done {
		t.Fatal("Done after half the duration")
	}
	assertTranslation(t, "half", m.Transform(i), 50, 15, -2)

	g.Update(0.5)
	if !g.Done {
		t.Fatal("expected Done after full duration")
	}
	assertTranslation(t, "end", m.Transform(i), 100, 20, -4)
	assertTranslation(t, "world", m.WorldTransform(i), 100, 20, -4)
}

func TestTweenTranslationKeepsRotationAndScale(t *testing.T) {
	m := NewManager[string]()
	local := mgl32.Translate3D(1, 1, 1).Mul4(mgl32.Scale3D(2, 3, 4))
	i, _ := m.Create("a", NoInstance, local)
	g := TweenTranslation(m, i, mgl32.Vec3{5, 5, 5}, 0.25, ease.OutCubic)
	for !g.Done {
		g.Update(0.1)
	}
	got := m.Transform(i)
	for _, k := range []int{0, 5, 10} {
		if got[k] != local[k] {
			t.Errorf("diagonal[%d] = %v, want %v", k, got[k], local[k])
		}
	}
	assertTranslation(t, "end", got, 5, 5, 5)
}

func TestTweenUnderParent(t *testing.T) {
	m := NewManager[string]()
	p, _ := m.Create("p", NoInstance, mgl32.Translate3D(10, 0, 0))
	c, _ := m.CreateIdentity("c", p)
	g := TweenTranslation(m, c, mgl32.Vec3{1, 0, 0}, 1, ease.Linear)
	g.Update(1)
	assertTranslation(t, "world", m.WorldTransform(c), 11, 0, 0)
}

func TestTweenStopsWhenDestroyed(t *testing.T) {
	m := NewManager[string]()
	i, _ := m.CreateIdentity("a", NoInstance)
	g := TweenTranslation(m, i, mgl32.Vec3{1, 1, 1}, 1, ease.Linear)
	m.Destroy("a")
	g.Update(0.5)
	if !g.Done {
		t.Error("tween on a destroyed node should finish")
	}

	// The recycled instance must not be touched.
	j, _ := m.CreateIdentity("b", NoInstance)
	g.Update(0.5)
	assertTranslation(t, "b", m.Transform(j), 0, 0, 0)
}
