// Package geom projects xform world transforms onto ebiten's 2D affine
// matrix so a hierarchy built in 3D can drive DrawImage calls.
package geom

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/xform"
)

// WorldSource is the part of an xform Manager that GeoM helpers read.
type WorldSource interface {
	WorldTransform(i xform.Instance) mgl32.Mat4
}

// GeoM returns the XY affine part of m. The Z row and column are dropped.
//
//	| a  c  tx |     | m00 m01 m03 |
//	| b  d  ty |  =  | m10 m11 m13 |
func GeoM(m mgl32.Mat4) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, float64(m.At(0, 0)))
	g.SetElement(0, 1, float64(m.At(0, 1)))
	g.SetElement(0, 2, float64(m.At(0, 3)))
	g.SetElement(1, 0, float64(m.At(1, 0)))
	g.SetElement(1, 1, float64(m.At(1, 1)))
	g.SetElement(1, 2, float64(m.At(1, 3)))
	return g
}

// WorldGeoM returns the projected world transform of i.
func WorldGeoM(src WorldSource, i xform.Instance) ebiten.GeoM {
	return GeoM(src.WorldTransform(i))
}

// DrawOptions returns draw options whose GeoM places a w x h image centered
// on i's world origin.
func DrawOptions(src WorldSource, i xform.Instance, w, h float64) *ebiten.DrawImageOptions {
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-w/2, -h/2)
	op.GeoM.Concat(WorldGeoM(src, i))
	return op
}
