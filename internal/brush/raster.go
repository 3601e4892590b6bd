package brush

import (
	"image"
	"math"

	"golang.org/x/image/vector"

	"github.com/example/toonretouch/internal/viewport"
)

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847498

type rasterizer struct {
	z *vector.Rasterizer
}

type vec struct{ x, y float64 }

func (a vec) add(b vec) vec       { return vec{a.x + b.x, a.y + b.y} }
func (a vec) scale(s float64) vec { return vec{a.x * s, a.y * s} }
func (a vec) neg() vec            { return vec{-a.x, -a.y} }
func toVec(p viewport.Point) vec  { return vec{p.X, p.Y} }

func (r *rasterizer) reset(w, h int) {
	if r.z == nil {
		r.z = vector.NewRasterizer(w, h)
		return
	}
	r.z.Reset(w, h)
}

// paintDisc fills a disc of the brush diameter centred at pt.
func (e *Engine) paintDisc(pt viewport.Point) {
	radius := float64(e.size) / 2
	c := toVec(pt)
	e.rasterize(c, c, radius, func(origin vec) {
		e.discPath(c.add(origin.neg()), radius)
	})
}

// paintSegment strokes a round-capped segment from a to b with the brush
// diameter as its width. Round caps make consecutive segments join smoothly.
func (e *Engine) paintSegment(a, b viewport.Point) {
	radius := float64(e.size) / 2
	p0, p1 := toVec(a), toVec(b)
	dx, dy := p1.x-p0.x, p1.y-p0.y
	length := math.Hypot(dx, dy)
	if length < 1e-3 {
		e.paintDisc(b)
		return
	}
	e.rasterize(p0, p1, radius, func(origin vec) {
		d := vec{dx / length, dy / length}
		e.capsulePath(p0.add(origin.neg()), p1.add(origin.neg()), d, radius)
	})
}

// rasterize renders the path produced by build into a scratch buffer covering
// the part of the segment's bounding box that lies on the mask, then
// composites it over the mask. build receives the scratch origin so it can
// emit scratch-relative coordinates; path points off the scratch area are
// clipped by the rasterizer.
func (e *Engine) rasterize(p0, p1 vec, radius float64, build func(origin vec)) {
	if e.mask == nil || radius <= 0 {
		return
	}
	pad := radius + 1
	mb := e.mask.Bounds()
	box := image.Rect(
		clampCoord(math.Floor(math.Min(p0.x, p1.x)-pad), mb.Min.X, mb.Max.X),
		clampCoord(math.Floor(math.Min(p0.y, p1.y)-pad), mb.Min.Y, mb.Max.Y),
		clampCoord(math.Ceil(math.Max(p0.x, p1.x)+pad), mb.Min.X, mb.Max.X),
		clampCoord(math.Ceil(math.Max(p0.y, p1.y)+pad), mb.Min.Y, mb.Max.Y),
	)
	if box.Empty() {
		return
	}
	w, h := box.Dx(), box.Dy()
	if e.scratch == nil || e.scratch.Rect.Dx() != w || e.scratch.Rect.Dy() != h {
		e.scratch = image.NewAlpha(image.Rect(0, 0, w, h))
	} else {
		clear(e.scratch.Pix)
	}
	e.raster.reset(w, h)
	build(vec{float64(box.Min.X), float64(box.Min.Y)})
	e.raster.z.Draw(e.scratch, e.scratch.Bounds(), image.Opaque, image.Point{})

	for y := box.Min.Y; y < box.Max.Y; y++ {
		src := e.scratch.Pix[(y-box.Min.Y)*e.scratch.Stride:]
		dst := e.mask.Pix[(y-mb.Min.Y)*e.mask.Stride:]
		for x := box.Min.X; x < box.Max.X; x++ {
			a := uint32(src[x-box.Min.X])
			if a == 0 {
				continue
			}
			d := uint32(dst[x-mb.Min.X])
			dst[x-mb.Min.X] = uint8(a + d*(0xff-a)/0xff)
		}
	}
}

// clampCoord converts v to an int within [lo, hi]. NaN maps to lo.
func clampCoord(v float64, lo, hi int) int {
	switch {
	case !(v > float64(lo)):
		return lo
	case v > float64(hi):
		return hi
	}
	return int(v)
}

func (e *Engine) discPath(c vec, r float64) {
	z := e.raster.z
	right := vec{1, 0}
	start := c.add(right.scale(r))
	z.MoveTo(float32(start.x), float32(start.y))
	u := right
	for i := 0; i < 4; i++ {
		v := vec{-u.y, u.x}
		e.quarterArc(c, r, u, v)
		u = v
	}
	z.ClosePath()
}

// capsulePath outlines the stroke of segment p0-p1 with direction d.
func (e *Engine) capsulePath(p0, p1, d vec, r float64) {
	z := e.raster.z
	n := vec{-d.y, d.x}
	start := p0.add(n.scale(r))
	z.MoveTo(float32(start.x), float32(start.y))
	side := p1.add(n.scale(r))
	z.LineTo(float32(side.x), float32(side.y))
	e.quarterArc(p1, r, n, d)
	e.quarterArc(p1, r, d, n.neg())
	back := p0.add(n.neg().scale(r))
	z.LineTo(float32(back.x), float32(back.y))
	e.quarterArc(p0, r, n.neg(), d.neg())
	e.quarterArc(p0, r, d.neg(), n)
	z.ClosePath()
}

// quarterArc appends a cubic approximation of the arc around c from the unit
// direction u to the perpendicular unit direction v.
func (e *Engine) quarterArc(c vec, r float64, u, v vec) {
	c1 := c.add(u.add(v.scale(kappa)).scale(r))
	c2 := c.add(v.add(u.scale(kappa)).scale(r))
	end := c.add(v.scale(r))
	e.raster.z.CubeTo(
		float32(c1.x), float32(c1.y),
		float32(c2.x), float32(c2.y),
		float32(end.x), float32(end.y),
	)
}
