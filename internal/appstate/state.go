// Package appstate is the interactive editor window. It draws the session's
// bitmap with the mask overlay, feeds pointer input to the brush and maps
// keyboard shortcuts onto session operations.
package appstate

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/toonretouch/internal/brush"
	"github.com/example/toonretouch/internal/notify"
	"github.com/example/toonretouch/internal/retouch"
	"github.com/example/toonretouch/internal/theme"
	"github.com/example/toonretouch/internal/viewport"
)

// brushStep is how much the bracket keys and the wheel change the brush.
const brushStep = 5

const messageDuration = 2 * time.Second

// AppState holds the editor window configuration and its UI-side state.
type AppState struct {
	Session  *retouch.Session
	Theme    *theme.Theme
	Notifier *notify.Notifier
	Title    string

	ctx      context.Context
	log      *logrus.Entry
	updateCh chan struct{}

	actions        map[string]func()
	keyboardAction map[KeyShortcut]string
	quit           bool

	msgMu        sync.Mutex
	message      string
	messageUntil time.Time

	erasing sync.WaitGroup

	onClose   func()
	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithTheme sets the window colours.
func WithTheme(t *theme.Theme) Option { return func(a *AppState) { a.Theme = t } }

// WithNotifier sets the desktop notifier used after erase, save and copy.
func WithNotifier(n *notify.Notifier) Option { return func(a *AppState) { a.Notifier = n } }

// WithTitle sets the window title.
func WithTitle(title string) Option { return func(a *AppState) { a.Title = title } }

// WithContext sets the context erase requests run under.
func WithContext(ctx context.Context) Option { return func(a *AppState) { a.ctx = ctx } }

// WithLogger sets the log entry.
func WithLogger(l *logrus.Entry) Option { return func(a *AppState) { a.log = l } }

// WithOnClose registers fn to run once when the window goes away.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New creates the window state for sess.
func New(sess *retouch.Session, opts ...Option) *AppState {
	a := &AppState{
		Session:  sess,
		Title:    "toonretouch",
		ctx:      context.Background(),
		updateCh: make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(a)
	}
	if a.Theme == nil {
		a.Theme = theme.Default()
	}
	if a.log == nil {
		a.log = logrus.WithField("component", "editor")
	}
	a.registerActions()
	return a
}

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

// shortcutList is a helper to easily satisfy the KeyboardShortcuts interface.
type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

func (a *AppState) registerActions() {
	a.actions = map[string]func(){}
	a.keyboardAction = map[KeyShortcut]string{}
	register := func(name string, keys KeyboardShortcuts, fn func()) {
		a.actions[name] = fn
		for _, sc := range keys.KeyboardShortcuts() {
			a.keyboardAction[sc] = name
		}
	}

	register("erase", shortcutList{{Rune: 'e'}}, a.startErase)
	register("undo", shortcutList{{Rune: 'z'}, {Rune: 'z', Modifiers: key.ModControl}}, func() {
		if !a.Session.Undo() {
			a.flash("nothing to undo")
		}
	})
	register("redo", shortcutList{
		{Rune: 'y'},
		{Rune: 'y', Modifiers: key.ModControl},
		{Rune: 'z', Modifiers: key.ModControl | key.ModShift},
	}, func() {
		if !a.Session.Redo() {
			a.flash("nothing to redo")
		}
	})
	register("clear", shortcutList{{Rune: 'c'}}, func() { a.Session.ClearMask() })
	register("smaller", shortcutList{{Rune: '['}}, func() { a.resizeBrush(-brushStep) })
	register("bigger", shortcutList{{Rune: ']'}}, func() { a.resizeBrush(brushStep) })
	register("save", shortcutList{{Rune: 's', Modifiers: key.ModControl}}, a.save)
	register("copy", shortcutList{{Rune: 'c', Modifiers: key.ModControl}}, a.copy)
	register("quit", shortcutList{{Rune: 'q'}, {Rune: -1, Code: key.CodeEscape}}, func() { a.quit = true })
}

// actionFor returns the action bound to a key press.
func (a *AppState) actionFor(e key.Event) (string, bool) {
	r := e.Rune
	if r > 0 {
		r = unicode.ToLower(r)
	}
	name, ok := a.keyboardAction[KeyShortcut{Rune: r, Code: e.Code, Modifiers: e.Modifiers}]
	if !ok && r > 0 {
		name, ok = a.keyboardAction[KeyShortcut{Rune: r, Modifiers: e.Modifiers}]
	}
	return name, ok
}

// perform runs the named action. It reports whether the action exists.
func (a *AppState) perform(name string) bool {
	fn, ok := a.actions[name]
	if !ok {
		return false
	}
	fn()
	return true
}

func (a *AppState) resizeBrush(delta int) {
	size := a.Session.Status().BrushSize
	a.Session.SetBrushSize(size + delta)
}

// startErase launches an erase in the background. Requests while one is
// running are ignored.
func (a *AppState) startErase() {
	if a.Session.Status().State == retouch.StateErasing {
		return
	}
	a.erasing.Add(1)
	go func() {
		defer a.erasing.Done()
		a.runErase()
	}()
}

func (a *AppState) runErase() {
	err := a.Session.Erase(a.ctx)
	switch {
	case err == nil:
		a.flash("erase applied")
		if a.Notifier != nil {
			var preview image.Image
			if snap, err := a.Session.Snapshot(); err == nil {
				if img, err := snap.Decode(); err == nil {
					preview = img
				}
			}
			a.Notifier.Erase(a.Session.ID(), preview)
		}
	case errors.Is(err, brush.ErrEmptyMask):
		a.flash("paint over the area to erase first")
	case errors.Is(err, retouch.ErrBusy), errors.Is(err, retouch.ErrClosed):
	default:
		a.log.WithError(err).Debug("erase")
	}
	a.NotifyImageChanged()
}

func (a *AppState) save() {
	path, err := a.Session.Download("")
	if err != nil {
		a.log.WithError(err).Warn("save")
		a.flash("save failed")
		return
	}
	if path == "" {
		a.flash("nothing to save")
		return
	}
	a.flash("saved " + path)
	if a.Notifier != nil {
		a.Notifier.Save(path)
	}
}

func (a *AppState) copy() {
	if err := a.Session.Copy(); err != nil {
		a.log.WithError(err).Warn("copy")
		a.flash("copy failed")
		return
	}
	a.flash("image copied to clipboard")
	if a.Notifier != nil {
		a.Notifier.Copy("image")
	}
}

func (a *AppState) flash(msg string) {
	a.msgMu.Lock()
	a.message = msg
	a.messageUntil = time.Now().Add(messageDuration)
	a.msgMu.Unlock()
	a.log.Debug(msg)
	a.NotifyImageChanged()
}

func (a *AppState) currentMessage() (string, time.Time) {
	a.msgMu.Lock()
	defer a.msgMu.Unlock()
	return a.message, a.messageUntil
}

func (a *AppState) dismissMessage() bool {
	a.msgMu.Lock()
	defer a.msgMu.Unlock()
	if a.message == "" || !time.Now().Before(a.messageUntil) {
		return false
	}
	a.messageUntil = time.Time{}
	return true
}

// NotifyImageChanged requests a repaint of the UI. It is safe to call from
// any goroutine and on a nil AppState.
func (a *AppState) NotifyImageChanged() {
	if a == nil || a.updateCh == nil {
		return
	}
	select {
	case a.updateCh <- struct{}{}:
	default:
	}
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// initialSize picks a window size that shows the image at 1:1 when it fits.
func initialSize(img image.Point) (int, int) {
	const maxW, maxH = 1400, 900
	if img.X <= 0 || img.Y <= 0 {
		return 800, 600
	}
	w, h := img.X, img.Y+bottomHeight
	if w > maxW {
		w = maxW
	}
	if h > maxH {
		h = maxH
	}
	if w < 480 {
		w = 480
	}
	return w, h
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

func (a *AppState) Main(s screen.Screen) {
	width, height := initialSize(a.Session.Status().Size)
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: a.Title})
	if err != nil {
		a.log.WithError(err).Error("new window")
		return
	}
	defer w.Release()
	defer a.notifyClose()

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-a.updateCh:
				w.Send(paint.Event{})
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	bd := &backdrop{}
	paintCh := make(chan paintState, 1)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, a.Theme, a.Session, bd, st)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()
	defer close(paintCh)

	var cursor image.Point
	var cursorIn bool
	var drawing bool

	for {
		e := w.NextEvent()
		switch e := e.(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				paintMu.Lock()
				if paintCancel != nil {
					paintCancel()
				}
				paintMu.Unlock()
				return
			}
		case size.Event:
			width = e.WidthPx
			height = e.HeightPx
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil {
				if dropCount < frameDropThreshold {
					paintCancel()
					dropCount++
				}
			}
			paintMu.Unlock()
			msg, until := a.currentMessage()
			st := paintState{
				width:        width,
				height:       height,
				status:       a.Session.Status(),
				cursor:       cursor,
				cursorIn:     cursorIn,
				message:      msg,
				messageUntil: until,
			}
			select {
			case paintCh <- st:
			default:
				select {
				case <-paintCh:
				default:
				}
				paintCh <- st
			}
		case mouse.Event:
			rect := imageRect(a.Session.Status().Size, width, height)
			vr := viewport.FromRectangle(rect)
			p := image.Pt(int(e.X), int(e.Y))
			client := viewport.Pt(float64(e.X), float64(e.Y))
			cursor = p
			cursorIn = p.In(rect)

			if e.Button.IsWheel() {
				if e.Direction == mouse.DirStep || e.Direction == mouse.DirPress {
					switch e.Button {
					case mouse.ButtonWheelUp:
						a.resizeBrush(brushStep)
					case mouse.ButtonWheelDown:
						a.resizeBrush(-brushStep)
					}
				}
				w.Send(paint.Event{})
				continue
			}

			switch e.Direction {
			case mouse.DirPress:
				if a.dismissMessage() {
					w.Send(paint.Event{})
					continue
				}
				if e.Button == mouse.ButtonLeft && cursorIn {
					drawing = true
					a.Session.PointerDown(client, vr)
				}
			case mouse.DirNone:
				if drawing {
					if cursorIn {
						a.Session.PointerMove(client, vr)
					} else {
						drawing = false
						a.Session.PointerUp()
					}
				}
			case mouse.DirRelease:
				if drawing {
					drawing = false
					a.Session.PointerUp()
				}
			}
			w.Send(paint.Event{})
		case key.Event:
			if e.Direction != key.DirPress {
				continue
			}
			if name, ok := a.actionFor(e); ok {
				a.perform(name)
				if a.quit {
					return
				}
				w.Send(paint.Event{})
			}
		}
	}
}

// Wait blocks until background erases started by the window have finished.
func (a *AppState) Wait() { a.erasing.Wait() }
