package appstate

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"
	"strings"
	"time"

	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/example/toonretouch/internal/canvas"
	"github.com/example/toonretouch/internal/retouch"
	"github.com/example/toonretouch/internal/theme"
	"github.com/example/toonretouch/internal/viewport"
)

const (
	bottomHeight = 24
	checkerSize  = 8
)

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

var messageFace font.Face

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		log.Fatalf("parse font: %v", err)
	}
	messageFace, err = opentype.NewFace(f, &opentype.FaceOptions{Size: 28, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Fatalf("font face: %v", err)
	}
}

// imageArea is the part of the window the bitmap may occupy.
func imageArea(winW, winH int) image.Rectangle {
	h := winH - bottomHeight
	if h < 0 {
		h = 0
	}
	return image.Rect(0, 0, winW, h)
}

// imageRect returns the integer rectangle a bitmap of size is displayed in.
// Pointer mapping and rendering both use it so strokes land under the cursor.
func imageRect(size image.Point, winW, winH int) image.Rectangle {
	return viewport.Fit(size, imageArea(winW, winH)).Bounds()
}

// drawCheckerboard fills rect of dst with a checkerboard pattern of the given
// colors. size controls the checker square size.
func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.Color) {
	rect = rect.Intersect(dst.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if ((x/size)+(y/size))%2 == 0 {
				dst.Set(x, y, light)
			} else {
				dst.Set(x, y, dark)
			}
		}
	}
}

type backdrop struct {
	img   *image.RGBA
	theme *theme.Theme
}

// draw fills dst with the window background and a checkerboard behind the
// image rectangle. The pattern is cached until the size or theme changes.
func (b *backdrop) draw(dst *image.RGBA, imgRect image.Rectangle, th *theme.Theme) {
	bounds := dst.Bounds()
	if b.img == nil || b.img.Bounds() != bounds || b.theme != th {
		b.img = image.NewRGBA(bounds)
		drawCheckerboard(b.img, bounds, checkerSize, th.CheckerLight, th.CheckerDark)
		b.theme = th
	}
	draw.Draw(dst, bounds, &image.Uniform{th.Background}, image.Point{}, draw.Src)
	r := imgRect.Intersect(bounds)
	draw.Draw(dst, r, b.img, r.Min, draw.Src)
}

type paintState struct {
	width, height int
	status        retouch.Status
	cursor        image.Point
	cursorIn      bool
	message       string
	messageUntil  time.Time
}

// statusText summarises the session for the status bar.
func statusText(st retouch.Status) string {
	parts := []string{st.State.String(), fmt.Sprintf("brush %d", st.BrushSize)}
	if st.Size.X > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", st.Size.X, st.Size.Y))
	}
	parts = append(parts, fmt.Sprintf("undo %s", onOff(st.CanUndo)), fmt.Sprintf("redo %s", onOff(st.CanRedo)))
	if st.MaskEmpty {
		parts = append(parts, "mask empty")
	}
	return strings.Join(parts, "  ")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// hintText lists the keyboard shortcuts shown at the right of the status bar.
func hintText(st retouch.Status) string {
	if st.State == retouch.StateErasing {
		return "erasing..."
	}
	return "E erase  Z undo  Y redo  C clear  [ ] size  ^S save  ^C copy  Q quit"
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, th *theme.Theme, sess *retouch.Session, bd *backdrop, st paintState) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()
	dst := b.RGBA()

	r := imageRect(st.status.Size, st.width, st.height)
	bd.draw(dst, r, th)
	if ctx.Err() != nil {
		return
	}

	if st.status.ImageError {
		drawMessage(dst, imageArea(st.width, st.height), canvas.ErrImageUnavailable.Error(), th.ErrorText, th.Background)
	} else if !r.Empty() {
		sess.Render(dst, r)
		if ctx.Err() != nil {
			return
		}
		if st.cursorIn && st.status.Size.X > 0 {
			radius := float64(st.status.BrushSize) / 2 * float64(r.Dx()) / float64(st.status.Size.X)
			drawRing(dst, st.cursor, int(math.Round(radius)), th.Cursor)
		}
	}
	if ctx.Err() != nil {
		return
	}

	drawStatusBar(dst, st.width, st.height, st.status, th)

	if st.message != "" && time.Now().Before(st.messageUntil) {
		drawMessage(dst, imageArea(st.width, st.height), st.message, th.Foreground, th.ToolbarBackground)
	}
	if ctx.Err() != nil {
		return
	}

	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

func drawStatusBar(dst *image.RGBA, width, height int, st retouch.Status, th *theme.Theme) {
	bar := image.Rect(0, height-bottomHeight, width, height)
	draw.Draw(dst, bar, &image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	baseline := bar.Min.Y + (bottomHeight+basicfont.Face7x13.Ascent)/2

	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.ToolbarText), Face: basicfont.Face7x13}
	d.Dot = fixed.P(bar.Min.X+6, baseline)
	d.DrawString(statusText(st))
	if st.LastError != "" {
		d.Src = image.NewUniform(th.ErrorText)
		d.DrawString("  " + st.LastError)
	}

	hint := hintText(st)
	hd := &font.Drawer{Dst: dst, Src: image.NewUniform(th.ToolbarText), Face: basicfont.Face7x13}
	if st.State == retouch.StateErasing {
		hd.Src = image.NewUniform(th.BusyText)
	}
	hw := hd.MeasureString(hint).Ceil()
	if x := width - hw - 6; x > d.Dot.X.Ceil()+12 {
		hd.Dot = fixed.P(x, baseline)
		hd.DrawString(hint)
	}
}

// drawMessage draws text centred in area on a boxed background.
func drawMessage(dst *image.RGBA, area image.Rectangle, text string, fg, bg color.RGBA) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(fg), Face: messageFace}
	wmsg := d.MeasureString(text).Ceil()
	ascent := messageFace.Metrics().Ascent.Ceil()
	descent := messageFace.Metrics().Descent.Ceil()
	px := area.Min.X + (area.Dx()-wmsg)/2
	py := area.Min.Y + (area.Dy()-ascent-descent)/2 + ascent
	rect := image.Rect(px-8, py-ascent-8, px+wmsg+8, py+descent+8)
	box := bg
	box.A = 230
	draw.Draw(dst, rect, &image.Uniform{box}, image.Point{}, draw.Over)
	drawRect(dst, rect, fg, 2)
	d.Dot = fixed.P(px, py)
	d.DrawString(text)
}

// drawRing outlines the brush footprint around the pointer.
func drawRing(img *image.RGBA, c image.Point, r int, col color.Color) {
	if r < 1 {
		r = 1
	}
	x, y := r, 0
	e := 1 - r
	for x >= y {
		pts := [][2]int{{x, y}, {y, x}, {-y, x}, {-x, y}, {-x, -y}, {-y, -x}, {y, -x}, {x, -y}}
		for _, p := range pts {
			pt := image.Pt(c.X+p[0], c.Y+p[1])
			if pt.In(img.Bounds()) {
				img.Set(pt.X, pt.Y, col)
			}
		}
		y++
		if e < 0 {
			e += 2*y + 1
		} else {
			x--
			e += 2 * (y - x + 1)
		}
	}
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	for i := 0; i < thick; i++ {
		r := rect.Inset(i)
		if r.Empty() {
			return
		}
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, r.Min.Y, col)
			img.Set(x, r.Max.Y-1, col)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			img.Set(r.Min.X, y, col)
			img.Set(r.Max.X-1, y, col)
		}
	}
}
