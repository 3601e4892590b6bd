// Package brush owns the mask layer painted over the image before an erase.
//
// The mask is an *image.Alpha holding stroke coverage. Strokes are rasterised
// with golang.org/x/image/vector so a drag reads as one continuous round brush.
// An Engine is not safe for concurrent use.
package brush

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/example/toonretouch/internal/snapshot"
	"github.com/example/toonretouch/internal/viewport"
)

const (
	// DefaultSize is the brush diameter used when none is configured.
	DefaultSize = 30
	// MinSize is the smallest brush diameter accepted by SetSize.
	MinSize = 5
	// MaxSize is the largest brush diameter accepted by SetSize.
	MaxSize = 100
)

var (
	// ErrEmptyMask signals that nothing has been painted, so an erase
	// should not be requested.
	ErrEmptyMask = errors.New("mask is empty")
	// ErrSizeMismatch is returned when an imported mask does not match the
	// current mask dimensions.
	ErrSizeMismatch = errors.New("mask size mismatch")
)

// DefaultTint is the overlay colour painted regions are exported with.
var DefaultTint = color.NRGBA{R: 255, A: 128}

// Engine renders brush strokes onto the mask layer.
type Engine struct {
	mask    *image.Alpha
	size    int
	tint    color.NRGBA
	drawing bool
	last    *viewport.Point

	scratch *image.Alpha
	raster  rasterizer
}

// Option configures an Engine during creation.
type Option func(*Engine)

// WithSize sets the initial brush diameter. Out of range values are clamped.
func WithSize(n int) Option { return func(e *Engine) { e.size = n } }

// WithTint sets the colour used for exported and displayed mask pixels.
func WithTint(c color.NRGBA) Option { return func(e *Engine) { e.tint = c } }

// New creates an Engine without a mask; call Resize once the image size is known.
func New(opts ...Option) *Engine {
	e := &Engine{size: DefaultSize, tint: DefaultTint}
	for _, o := range opts {
		o(e)
	}
	e.size = ClampSize(e.size)
	if e.tint.A == 0 {
		e.tint = DefaultTint
	}
	return e
}

// ClampSize limits n to the accepted brush range.
func ClampSize(n int) int {
	if n < MinSize {
		return MinSize
	}
	if n > MaxSize {
		return MaxSize
	}
	return n
}

// Size returns the current brush diameter.
func (e *Engine) Size() int { return e.size }

// SetSize updates the brush diameter and returns the clamped value in effect.
// The new size applies from the next stroke segment.
func (e *Engine) SetSize(n int) int {
	e.size = ClampSize(n)
	return e.size
}

// Tint returns the overlay colour.
func (e *Engine) Tint() color.NRGBA { return e.tint }

// Bounds returns the mask bounds, or an empty rectangle before Resize.
func (e *Engine) Bounds() image.Rectangle {
	if e.mask == nil {
		return image.Rectangle{}
	}
	return e.mask.Bounds()
}

// Attached reports whether the mask has been sized.
func (e *Engine) Attached() bool { return e.mask != nil }

// Drawing reports whether a stroke is in progress.
func (e *Engine) Drawing() bool { return e.drawing }

// Resize reallocates the mask for a w x h image. Existing paint is discarded.
// Calls with a non-positive dimension or the current size are ignored; the
// return value reports whether the mask changed.
func (e *Engine) Resize(w, h int) bool {
	if w <= 0 || h <= 0 {
		return false
	}
	if e.mask != nil && e.mask.Bounds().Dx() == w && e.mask.Bounds().Dy() == h {
		return false
	}
	e.mask = image.NewAlpha(image.Rect(0, 0, w, h))
	e.drawing = false
	e.last = nil
	return true
}

// PointerDown starts a stroke and paints a disc at pt so a single click
// leaves a mark.
func (e *Engine) PointerDown(pt viewport.Point) {
	e.drawing = true
	e.paintDisc(pt)
	p := pt
	e.last = &p
}

// PointerMove extends the current stroke to pt. It does nothing when no
// stroke is active.
func (e *Engine) PointerMove(pt viewport.Point) {
	if !e.drawing {
		return
	}
	if e.last == nil {
		e.paintDisc(pt)
	} else {
		e.paintSegment(*e.last, pt)
	}
	p := pt
	e.last = &p
}

// PointerUp ends the current stroke. Safe to call without an active stroke.
func (e *Engine) PointerUp() {
	e.drawing = false
	e.last = nil
}

// Clear makes the whole mask transparent.
func (e *Engine) Clear() {
	if e.mask == nil {
		return
	}
	clear(e.mask.Pix)
}

// Empty reports whether no pixel carries coverage.
func (e *Engine) Empty() bool {
	if e.mask == nil {
		return true
	}
	for _, a := range e.mask.Pix {
		if a > 0 {
			return false
		}
	}
	return true
}

// ExportMask encodes the painted mask. It returns ErrEmptyMask when the mask
// is unattached or fully transparent.
func (e *Engine) ExportMask() (snapshot.Snapshot, error) {
	if e.Empty() {
		return "", ErrEmptyMask
	}
	s, err := snapshot.Encode(e.tinted())
	if err != nil {
		return "", fmt.Errorf("export mask: %w", err)
	}
	return s, nil
}

// Overlay returns a tinted copy of the mask for display, or nil when
// unattached.
func (e *Engine) Overlay() *image.NRGBA {
	if e.mask == nil {
		return nil
	}
	return e.tinted()
}

// ImportMask paints every pixel of img with non-zero alpha into the mask.
// img must have the mask's dimensions.
func (e *Engine) ImportMask(img image.Image) error {
	if e.mask == nil {
		return fmt.Errorf("import mask: %w", ErrSizeMismatch)
	}
	b := img.Bounds()
	if b.Dx() != e.mask.Rect.Dx() || b.Dy() != e.mask.Rect.Dy() {
		return fmt.Errorf("import mask %dx%d into %dx%d: %w", b.Dx(), b.Dy(), e.mask.Rect.Dx(), e.mask.Rect.Dy(), ErrSizeMismatch)
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if _, _, _, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA(); a > 0 {
				e.mask.Pix[y*e.mask.Stride+x] = 0xff
			}
		}
	}
	return nil
}

// ImportSnapshot decodes s and paints it into the mask like ImportMask.
func (e *Engine) ImportSnapshot(s snapshot.Snapshot) error {
	img, err := s.Decode()
	if err != nil {
		return fmt.Errorf("import mask: %w", err)
	}
	return e.ImportMask(img)
}

func (e *Engine) tinted() *image.NRGBA {
	b := e.mask.Bounds()
	out := image.NewNRGBA(b)
	for y := 0; y < b.Dy(); y++ {
		row := e.mask.Pix[y*e.mask.Stride : y*e.mask.Stride+b.Dx()]
		for x, a := range row {
			if a == 0 {
				continue
			}
			alpha := uint32(e.tint.A) * uint32(a) / 0xff
			if alpha == 0 {
				alpha = 1
			}
			i := y*out.Stride + x*4
			out.Pix[i+0] = e.tint.R
			out.Pix[i+1] = e.tint.G
			out.Pix[i+2] = e.tint.B
			out.Pix[i+3] = uint8(alpha)
		}
	}
	return out
}
