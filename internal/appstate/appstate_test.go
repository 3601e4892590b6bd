package appstate

import (
	"context"
	"image"
	"image/color"
	"strings"
	"testing"

	"golang.org/x/mobile/event/key"

	"github.com/example/toonretouch/internal/canvas"
	"github.com/example/toonretouch/internal/retouch"
	"github.com/example/toonretouch/internal/snapshot"
	"github.com/example/toonretouch/internal/theme"
	"github.com/example/toonretouch/internal/viewport"
)

type stubEraser struct {
	result snapshot.Snapshot
	err    error
	calls  int
}

func (s *stubEraser) Erase(context.Context, string, snapshot.Snapshot, snapshot.Snapshot) (snapshot.Snapshot, error) {
	s.calls++
	return s.result, s.err
}

type memSaver struct{ name string }

func (m *memSaver) Save(name string, data []byte) (string, error) {
	m.name = name
	return "/mem/" + name, nil
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func newApp(t *testing.T, er retouch.Eraser, opts ...retouch.Option) *AppState {
	t.Helper()
	src := solid(100, 80, color.RGBA{R: 50, G: 50, B: 50, A: 255})
	c := canvas.New(
		canvas.WithFetcher(canvas.FetcherFunc(func(context.Context, string) (image.Image, error) { return src, nil })),
		canvas.WithSaver(&memSaver{}),
	)
	sess := retouch.New("tr-1", er, append([]retouch.Option{retouch.WithCanvas(c)}, opts...)...)
	if err := sess.Open(context.Background(), "img"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(sess.Close)
	return New(sess)
}

func paintStroke(a *AppState) {
	rect := viewport.Rect{Width: 100, Height: 80}
	a.Session.PointerDown(viewport.Pt(20, 20), rect)
	a.Session.PointerMove(viewport.Pt(50, 30), rect)
	a.Session.PointerUp()
}

func TestActionForKeys(t *testing.T) {
	a := New(retouch.New("x", &stubEraser{}))
	cases := []struct {
		ev   key.Event
		want string
	}{
		{key.Event{Rune: 'e', Code: key.CodeE}, "erase"},
		{key.Event{Rune: 'E', Code: key.CodeE}, "erase"},
		{key.Event{Rune: 'z', Code: key.CodeZ}, "undo"},
		{key.Event{Rune: 'z', Code: key.CodeZ, Modifiers: key.ModControl}, "undo"},
		{key.Event{Rune: 'Z', Code: key.CodeZ, Modifiers: key.ModControl | key.ModShift}, "redo"},
		{key.Event{Rune: 'y', Code: key.CodeY}, "redo"},
		{key.Event{Rune: 'c', Code: key.CodeC}, "clear"},
		{key.Event{Rune: 'c', Code: key.CodeC, Modifiers: key.ModControl}, "copy"},
		{key.Event{Rune: 's', Code: key.CodeS, Modifiers: key.ModControl}, "save"},
		{key.Event{Rune: '[', Code: key.CodeLeftSquareBracket}, "smaller"},
		{key.Event{Rune: ']', Code: key.CodeRightSquareBracket}, "bigger"},
		{key.Event{Rune: 'q', Code: key.CodeQ}, "quit"},
		{key.Event{Rune: -1, Code: key.CodeEscape}, "quit"},
	}
	for _, c := range cases {
		got, ok := a.actionFor(c.ev)
		if !ok || got != c.want {
			t.Fatalf("actionFor(%+v) = %q, %v; want %q", c.ev, got, ok, c.want)
		}
	}
	if _, ok := a.actionFor(key.Event{Rune: 's', Code: key.CodeS}); ok {
		t.Fatal("plain s must not save")
	}
}

func TestEraseActionAppliesResult(t *testing.T) {
	er := &stubEraser{}
	a := newApp(t, er)
	res, err := snapshot.Encode(solid(100, 80, color.RGBA{G: 200, A: 255}))
	if err != nil {
		t.Fatal(err)
	}
	er.result = res
	paintStroke(a)

	a.perform("erase")
	a.Wait()

	st := a.Session.Status()
	if er.calls != 1 || st.HistoryLen != 1 || !st.MaskEmpty {
		t.Fatalf("unexpected status after erase: calls=%d %+v", er.calls, st)
	}
	if msg, _ := a.currentMessage(); msg != "erase applied" {
		t.Fatalf("message %q", msg)
	}
}

func TestEraseActionEmptyMask(t *testing.T) {
	er := &stubEraser{}
	a := newApp(t, er)
	a.perform("erase")
	a.Wait()
	if er.calls != 0 {
		t.Fatal("empty mask must not reach the eraser")
	}
	if msg, _ := a.currentMessage(); !strings.Contains(msg, "paint") {
		t.Fatalf("message %q", msg)
	}
}

func TestBrushSizeActions(t *testing.T) {
	a := newApp(t, &stubEraser{})
	a.perform("bigger")
	if got := a.Session.Status().BrushSize; got != 35 {
		t.Fatalf("bigger: %d", got)
	}
	for i := 0; i < 30; i++ {
		a.perform("smaller")
	}
	if got := a.Session.Status().BrushSize; got != 5 {
		t.Fatalf("smaller clamps: %d", got)
	}
}

func TestUndoWithoutHistoryFlashes(t *testing.T) {
	a := newApp(t, &stubEraser{})
	a.perform("undo")
	if msg, _ := a.currentMessage(); msg != "nothing to undo" {
		t.Fatalf("message %q", msg)
	}
	if !a.dismissMessage() {
		t.Fatal("fresh message should be dismissable")
	}
	if a.dismissMessage() {
		t.Fatal("message dismissed twice")
	}
}

func TestClearAndQuit(t *testing.T) {
	a := newApp(t, &stubEraser{})
	paintStroke(a)
	a.perform("clear")
	if !a.Session.Status().MaskEmpty {
		t.Fatal("clear left paint behind")
	}
	if a.perform("missing") {
		t.Fatal("unknown action reported as performed")
	}
	a.perform("quit")
	if !a.quit {
		t.Fatal("quit not recorded")
	}
}

func TestSaveAndCopyActions(t *testing.T) {
	var copied []byte
	a := newApp(t, &stubEraser{}, retouch.WithClipboard(func(b []byte) error {
		copied = b
		return nil
	}))
	a.perform("save")
	if msg, _ := a.currentMessage(); !strings.HasPrefix(msg, "saved /mem/toonretouch-tr-1-") {
		t.Fatalf("save message %q", msg)
	}
	a.perform("copy")
	if len(copied) == 0 {
		t.Fatal("nothing copied")
	}

	b := newApp(t, &stubEraser{})
	b.perform("copy")
	if msg, _ := b.currentMessage(); msg != "copy failed" {
		t.Fatalf("copy without clipboard: %q", msg)
	}
}

func TestStatusText(t *testing.T) {
	got := statusText(retouch.Status{State: retouch.StateIdle, BrushSize: 30, Size: image.Pt(10, 20), CanUndo: true, MaskEmpty: true})
	want := "idle  brush 30  10x20  undo on  redo off  mask empty"
	if got != want {
		t.Fatalf("statusText = %q, want %q", got, want)
	}
	if !strings.HasPrefix(hintText(retouch.Status{State: retouch.StateErasing}), "erasing") {
		t.Fatal("busy hint missing")
	}
}

func TestImageRectLeavesStatusBar(t *testing.T) {
	r := imageRect(image.Pt(1000, 500), 500, 274)
	if r.Max.Y > 274-bottomHeight {
		t.Fatalf("image overlaps status bar: %v", r)
	}
	if r.Dx() != 500 || r.Dy() != 250 {
		t.Fatalf("unexpected fit %v", r)
	}
	if !imageRect(image.Point{}, 500, 300).Empty() {
		t.Fatal("empty bitmap should have no rectangle")
	}
}

func TestInitialSize(t *testing.T) {
	if w, h := initialSize(image.Point{}); w != 800 || h != 600 {
		t.Fatalf("fallback %dx%d", w, h)
	}
	if w, h := initialSize(image.Pt(4000, 3000)); w != 1400 || h != 900 {
		t.Fatalf("clamped %dx%d", w, h)
	}
	if w, h := initialSize(image.Pt(600, 400)); w != 600 || h != 400+bottomHeight {
		t.Fatalf("natural %dx%d", w, h)
	}
}

func TestStatusBarAndBackdrop(t *testing.T) {
	th := theme.Dark()
	dst := image.NewRGBA(image.Rect(0, 0, 200, 100))
	bd := &backdrop{}
	img := image.Rect(0, 0, 50, 50)
	bd.draw(dst, img, th)
	if dst.RGBAAt(1, 1) != th.CheckerLight || dst.RGBAAt(9, 1) != th.CheckerDark {
		t.Fatalf("checkerboard %v %v", dst.RGBAAt(1, 1), dst.RGBAAt(9, 1))
	}
	if dst.RGBAAt(150, 10) != th.Background {
		t.Fatalf("background %v", dst.RGBAAt(150, 10))
	}
	drawStatusBar(dst, 200, 100, retouch.Status{BrushSize: 30}, th)
	if dst.RGBAAt(199, 99) != th.ToolbarBackground {
		t.Fatalf("status bar %v", dst.RGBAAt(199, 99))
	}
}

func TestNotifyImageChangedNil(t *testing.T) {
	var a *AppState
	a.NotifyImageChanged()
	b := New(retouch.New("x", &stubEraser{}))
	b.NotifyImageChanged()
	b.NotifyImageChanged()
	if len(b.updateCh) != 1 {
		t.Fatalf("update channel holds %d", len(b.updateCh))
	}
}
