// Package viewport converts pointer positions between the on-screen space a
// bitmap is displayed in and the bitmap's own pixel space.
package viewport

import (
	"image"
	"math"
)

// Point is a position in either screen or bitmap space. Coordinates are kept
// fractional so strokes stay smooth when the display is scaled.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Rect is the on-screen bounding rectangle of a displayed bitmap.
type Rect struct {
	Left, Top     float64
	Width, Height float64
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Left+r.Width && p.Y >= r.Top && p.Y < r.Top+r.Height
}

// Bounds returns the integer rectangle covering r.
func (r Rect) Bounds() image.Rectangle {
	x0 := int(math.Floor(r.Left))
	y0 := int(math.Floor(r.Top))
	x1 := int(math.Ceil(r.Left + r.Width))
	y1 := int(math.Ceil(r.Top + r.Height))
	return image.Rect(x0, y0, x1, y1)
}

// FromRectangle converts an integer rectangle.
func FromRectangle(r image.Rectangle) Rect {
	return Rect{Left: float64(r.Min.X), Top: float64(r.Min.Y), Width: float64(r.Dx()), Height: float64(r.Dy())}
}

// ToBitmap maps a client position into bitmap space for a bitmap of size
// pixels displayed inside rect. The display may be scaled independently on each
// axis. When either the rectangle or the bitmap has no area the zero point and
// false are returned.
func ToBitmap(client Point, rect Rect, size image.Point) (Point, bool) {
	if rect.Empty() || size.X <= 0 || size.Y <= 0 {
		return Point{}, false
	}
	scaleX := float64(size.X) / rect.Width
	scaleY := float64(size.Y) / rect.Height
	return Point{
		X: (client.X - rect.Left) * scaleX,
		Y: (client.Y - rect.Top) * scaleY,
	}, true
}

// ToScreen is the inverse of ToBitmap.
func ToScreen(p Point, rect Rect, size image.Point) (Point, bool) {
	if rect.Empty() || size.X <= 0 || size.Y <= 0 {
		return Point{}, false
	}
	return Point{
		X: rect.Left + p.X*rect.Width/float64(size.X),
		Y: rect.Top + p.Y*rect.Height/float64(size.Y),
	}, true
}

// Fit returns the rectangle a bitmap of the given size occupies when it is
// scaled to fit inside area while keeping its aspect ratio. Bitmaps smaller
// than the area are shown at 1:1. The result is centred in area.
func Fit(size image.Point, area image.Rectangle) Rect {
	if size.X <= 0 || size.Y <= 0 || area.Empty() {
		return Rect{}
	}
	zx := float64(area.Dx()) / float64(size.X)
	zy := float64(area.Dy()) / float64(size.Y)
	zoom := math.Min(zx, zy)
	if zoom > 1 {
		zoom = 1
	}
	w := float64(size.X) * zoom
	h := float64(size.Y) * zoom
	return Rect{
		Left:   math.Floor(float64(area.Min.X) + (float64(area.Dx())-w)/2),
		Top:    math.Floor(float64(area.Min.Y) + (float64(area.Dy())-h)/2),
		Width:  w,
		Height: h,
	}
}
