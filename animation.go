package xform

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Tweener is the part of a Manager a TweenGroup drives. *Manager[E]
// implements it for every E.
type Tweener interface {
	IsAlive(i Instance) bool
	Transform(i Instance) mgl32.Mat4
	SetTransform(i Instance, local mgl32.Mat4)
}

// TweenGroup animates the translation of one node's local transform. Create
// one with TweenTranslation and call Update(dt) each frame; the rest of the
// local matrix (rotation, scale) is left as it is. If the node is destroyed
// the group stops immediately.
//
// There is no global animation manager: users call Update themselves.
type TweenGroup struct {
	tweens [3]*gween.Tween
	target Instance
	m      Tweener
	Done   bool
}

// TweenTranslation creates a TweenGroup that moves the translation of i from
// its current value to `to` over duration seconds using the easing function.
func TweenTranslation(m Tweener, i Instance, to mgl32.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	from := m.Transform(i).Col(3)
	g := &TweenGroup{target: i, m: m}
	for k := range g.tweens {
		g.tweens[k] = gween.New(from[k], to[k], duration, fn)
	}
	return g
}

// Update advances the tweens by dt seconds and writes the interpolated
// translation into the node's local transform.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if !g.m.IsAlive(g.target) {
		g.Done = true
		return
	}

	local := g.m.Transform(g.target)
	allDone := true
	for k := range g.tweens {
		val, finished := g.tweens[k].Update(dt)
		local[12+k] = val
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
	g.m.SetTransform(g.target, local)
}
