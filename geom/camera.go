package geom

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/xform"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Rect is an axis-aligned rectangle in screen or world units.
type Rect struct {
	X, Y, Width, Height float64
}

// Intersects reports whether r and o overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera is a 2D view onto the XY plane of an xform hierarchy. It can follow
// a node's world translation and scroll with easing.
type Camera struct {
	// X and Y are the world position the camera centers on.
	X, Y float64
	// Zoom is the scale factor (1.0 = no zoom, >1 = zoom in).
	Zoom float64
	// Rotation is the camera rotation in radians.
	Rotation float64
	// Viewport is the screen rectangle the camera renders into.
	Viewport Rect

	src          WorldSource
	follow       xform.Instance
	followOffset [2]float64
	followLerp   float64

	// BoundsEnabled clamps the camera so the visible area stays within Bounds.
	BoundsEnabled bool
	Bounds        Rect

	view    ebiten.GeoM
	inverse ebiten.GeoM
	dirty   bool

	scroll *scrollAnim
}

// NewCamera creates a camera at the origin with zoom 1.
func NewCamera(viewport Rect) *Camera {
	return &Camera{Zoom: 1, Viewport: viewport, dirty: true}
}

// Follow makes the camera track the world translation of i in src. A lerp of
// 1 snaps each update; lower values trail behind.
func (c *Camera) Follow(src WorldSource, i xform.Instance, offsetX, offsetY, lerp float64) {
	c.src = src
	c.follow = i
	c.followOffset = [2]float64{offsetX, offsetY}
	c.followLerp = lerp
}

// Unfollow stops tracking.
func (c *Camera) Unfollow() {
	c.src = nil
	c.follow = xform.NoInstance
}

// ScrollTo animates the camera to (x, y) over duration seconds.
func (c *Camera) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	c.scroll = &scrollAnim{
		tweenX: gween.New(float32(c.X), float32(x), duration, easeFn),
		tweenY: gween.New(float32(c.Y), float32(y), duration, easeFn),
	}
}

// Scrolling reports whether a ScrollTo animation is running.
func (c *Camera) Scrolling() bool {
	return c.scroll != nil
}

// Update advances follow, scroll and bounds clamping by dt seconds.
func (c *Camera) Update(dt float32) {
	prevX, prevY := c.X, c.Y
	prevZoom, prevRot := c.Zoom, c.Rotation

	if c.src != nil && c.follow != xform.NoInstance {
		t := c.src.WorldTransform(c.follow).Col(3)
		targetX := float64(t.X()) + c.followOffset[0]
		targetY := float64(t.Y()) + c.followOffset[1]
		c.X += (targetX - c.X) * c.followLerp
		c.Y += (targetY - c.Y) * c.followLerp
	}

	if c.scroll != nil {
		if !c.scroll.doneX {
			val, done := c.scroll.tweenX.Update(dt)
			c.X = float64(val)
			c.scroll.doneX = done
		}
		if !c.scroll.doneY {
			val, done := c.scroll.tweenY.Update(dt)
			c.Y = float64(val)
			c.scroll.doneY = done
		}
		if c.scroll.doneX && c.scroll.doneY {
			c.scroll = nil
		}
	}

	if c.BoundsEnabled {
		c.clampToBounds()
	}

	if c.X != prevX || c.Y != prevY || c.Zoom != prevZoom || c.Rotation != prevRot {
		c.dirty = true
	}
}

// MarkDirty forces the view to be rebuilt after X, Y, Zoom or Rotation were
// changed directly.
func (c *Camera) MarkDirty() {
	c.dirty = true
}

func (c *Camera) clampToBounds() {
	halfW := c.Viewport.Width / (2 * c.Zoom)
	halfH := c.Viewport.Height / (2 * c.Zoom)

	minX := c.Bounds.X + halfW
	maxX := c.Bounds.X + c.Bounds.Width - halfW
	minY := c.Bounds.Y + halfH
	maxY := c.Bounds.Y + c.Bounds.Height - halfH

	// Bounds smaller than the visible area: center.
	if minX > maxX {
		c.X = c.Bounds.X + c.Bounds.Width/2
	} else {
		c.X = math.Max(minX, math.Min(c.X, maxX))
	}
	if minY > maxY {
		c.Y = c.Bounds.Y + c.Bounds.Height/2
	} else {
		c.Y = math.Max(minY, math.Min(c.Y, maxY))
	}
}

// View returns the world-to-screen matrix:
// Translate(viewport center) * Scale(zoom) * Rotate(-rotation) * Translate(-X, -Y).
func (c *Camera) View() ebiten.GeoM {
	if c.dirty {
		c.dirty = false
		var g ebiten.GeoM
		g.Translate(-c.X, -c.Y)
		g.Rotate(-c.Rotation)
		g.Scale(c.Zoom, c.Zoom)
		g.Translate(c.Viewport.X+c.Viewport.Width/2, c.Viewport.Y+c.Viewport.Height/2)
		c.view = g
		c.inverse = g
		if c.inverse.IsInvertible() {
			c.inverse.Invert()
		} else {
			c.inverse.Reset()
		}
	}
	return c.view
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	v := c.View()
	return v.Apply(wx, wy)
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	c.View()
	return c.inverse.Apply(sx, sy)
}

// VisibleBounds returns the world-space bounding box of the viewport.
func (c *Camera) VisibleBounds() Rect {
	c.View()
	vx, vy := c.Viewport.X, c.Viewport.Y
	vr, vb := vx+c.Viewport.Width, vy+c.Viewport.Height
	return bounds(c.inverse, [4][2]float64{{vx, vy}, {vr, vy}, {vr, vb}, {vx, vb}})
}

// NodeGeoM returns the screen matrix of i: its projected world transform
// followed by the camera view.
func (c *Camera) NodeGeoM(src WorldSource, i xform.Instance) ebiten.GeoM {
	g := WorldGeoM(src, i)
	g.Concat(c.View())
	return g
}

// Visible reports whether a w x h quad centered on i's world origin overlaps
// the viewport. Nodes without a size are never culled.
func (c *Camera) Visible(src WorldSource, i xform.Instance, w, h float64) bool {
	if w == 0 && h == 0 {
		return true
	}
	g := c.NodeGeoM(src, i)
	hw, hh := w/2, h/2
	box := bounds(g, [4][2]float64{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}})
	return box.Intersects(c.Viewport)
}

// bounds returns the axis-aligned box of the corners transformed by g.
func bounds(g ebiten.GeoM, corners [4][2]float64) Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range corners {
		x, y := g.Apply(p[0], p[1])
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
