package viewport

import (
	"image"
	"math"
	"testing"
)

func TestToBitmapScaledDisplay(t *testing.T) {
	rect := Rect{Left: 10, Top: 10, Width: 400, Height: 300}
	got, ok := ToBitmap(Pt(210, 160), rect, image.Pt(800, 600))
	if !ok {
		t.Fatal("expected mapping to succeed")
	}
	if got != Pt(400, 300) {
		t.Fatalf("got %+v, want (400,300)", got)
	}
}

func TestToBitmapUnscaled(t *testing.T) {
	rect := Rect{Left: 0, Top: 0, Width: 640, Height: 480}
	got, ok := ToBitmap(Pt(12.5, 7), rect, image.Pt(640, 480))
	if !ok || got != Pt(12.5, 7) {
		t.Fatalf("got %+v ok=%v", got, ok)
	}
}

func TestToBitmapIndependentAxes(t *testing.T) {
	rect := Rect{Width: 100, Height: 400}
	got, _ := ToBitmap(Pt(50, 100), rect, image.Pt(200, 200))
	if got != Pt(100, 50) {
		t.Fatalf("got %+v, want (100,50)", got)
	}
}

func TestToBitmapDegenerate(t *testing.T) {
	if _, ok := ToBitmap(Pt(1, 1), Rect{}, image.Pt(10, 10)); ok {
		t.Fatal("expected false for empty rect")
	}
	if p, ok := ToBitmap(Pt(1, 1), Rect{Width: 10, Height: 10}, image.Point{}); ok || p != (Point{}) {
		t.Fatalf("expected zero point for empty bitmap, got %+v %v", p, ok)
	}
}

func TestToScreenRoundTrip(t *testing.T) {
	rect := Rect{Left: 3, Top: 4, Width: 250, Height: 125}
	size := image.Pt(1000, 500)
	s, _ := ToScreen(Pt(123, 456), rect, size)
	b, _ := ToBitmap(s, rect, size)
	if math.Abs(b.X-123) > 1e-9 || math.Abs(b.Y-456) > 1e-9 {
		t.Fatalf("round trip drifted: %+v", b)
	}
}

func TestFit(t *testing.T) {
	area := image.Rect(0, 24, 800, 624)
	r := Fit(image.Pt(1600, 600), area)
	if r.Width != 800 || r.Height != 300 {
		t.Fatalf("unexpected size %+v", r)
	}
	if r.Left != 0 || r.Top != 174 {
		t.Fatalf("expected centred rect, got %+v", r)
	}

	small := Fit(image.Pt(100, 50), area)
	if small.Width != 100 || small.Height != 50 {
		t.Fatalf("small bitmaps must not be upscaled: %+v", small)
	}
	if !Fit(image.Point{}, area).Empty() {
		t.Fatal("expected empty rect for empty bitmap")
	}
}
