// Package retouch coordinates a single editing session: the loaded bitmap, the
// painted mask, the undo trail and the remote erase call.
//
// A Session is either Idle or Erasing. Only one erase may be in flight; a
// second request while Erasing fails with ErrBusy. Undo, redo and clearing the
// mask wait for Idle, while brush input is always accepted since an in-flight
// erase already holds its own copy of the mask.
package retouch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/toonretouch/internal/api"
	"github.com/example/toonretouch/internal/brush"
	"github.com/example/toonretouch/internal/canvas"
	"github.com/example/toonretouch/internal/history"
	"github.com/example/toonretouch/internal/snapshot"
	"github.com/example/toonretouch/internal/viewport"
)

var (
	// ErrBusy is returned when an erase is requested while one is running.
	ErrBusy = errors.New("erase already in progress")
	// ErrClosed is returned once the session has been closed.
	ErrClosed = errors.New("session closed")
	// ErrNoClipboard is returned by Copy when no clipboard writer is set.
	ErrNoClipboard = errors.New("clipboard unavailable")
)

// State is the erase state of a Session.
type State int

const (
	StateIdle State = iota
	StateErasing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateErasing:
		return "erasing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Eraser performs the remote inpaint. *api.Client satisfies it.
type Eraser interface {
	Erase(ctx context.Context, translateID string, mask, source snapshot.Snapshot) (snapshot.Snapshot, error)
}

// Status is a point-in-time view of a Session for display.
type Status struct {
	State      State
	LastError  string
	CanUndo    bool
	CanRedo    bool
	HistoryLen int
	BrushSize  int
	Size       image.Point
	ImageError bool
	MaskEmpty  bool
}

// Session is safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	id      string
	eraser  Eraser
	canvas  *canvas.Surface
	brush   *brush.Engine
	history *history.Buffer

	state   State
	lastErr string
	closed  bool

	seed      bool
	onChange  func()
	clipboard func(png []byte) error
	log       *logrus.Entry
	now       func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithCanvas supplies the surface holding the bitmap.
func WithCanvas(c *canvas.Surface) Option { return func(s *Session) { s.canvas = c } }

// WithBrush supplies the mask engine.
func WithBrush(b *brush.Engine) Option { return func(s *Session) { s.brush = b } }

// WithHistory supplies the undo buffer.
func WithHistory(h *history.Buffer) Option { return func(s *Session) { s.history = h } }

// WithOnChange registers fn to run after every state change. It is called
// without the session lock held.
func WithOnChange(fn func()) Option { return func(s *Session) { s.onChange = fn } }

// WithLogger sets the session log entry.
func WithLogger(l *logrus.Entry) Option { return func(s *Session) { s.log = l } }

// WithSeedHistory makes Open push the loaded image as the first history entry.
func WithSeedHistory(on bool) Option { return func(s *Session) { s.seed = on } }

// WithClipboard sets the writer Copy hands PNG bytes to.
func WithClipboard(fn func(png []byte) error) Option { return func(s *Session) { s.clipboard = fn } }

// New creates an idle session for translateID.
func New(translateID string, eraser Eraser, opts ...Option) *Session {
	s := &Session{id: translateID, eraser: eraser, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = logrus.WithField("component", "retouch")
	}
	s.log = s.log.WithField("translate_id", translateID)
	if s.canvas == nil {
		s.canvas = canvas.New(canvas.WithLogger(s.log), canvas.WithLoadSnapshot(s.seed))
	}
	if s.brush == nil {
		s.brush = brush.New()
	}
	if s.history == nil {
		s.history = history.New()
	}
	return s
}

// ID returns the translate id the session edits.
func (s *Session) ID() string { return s.id }

// Open loads the image at url. The mask is cleared whatever the outcome; on
// success it is sized to the image and the history starts over.
func (s *Session) Open(ctx context.Context, url string) error {
	loaded, err := s.canvas.Load(ctx, url)
	if errors.Is(err, canvas.ErrStaleLoad) {
		return err
	}
	if err != nil {
		s.mu.Lock()
		s.brush.Clear()
		s.mu.Unlock()
		s.changed()
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.brush.Resize(loaded.Size.X, loaded.Size.Y)
	s.brush.Clear()
	s.history.Reset()
	if s.seed {
		seed := loaded.Snapshot
		if seed.IsZero() {
			seed, err = s.canvas.ExportSnapshot()
		}
		if err == nil {
			s.history.Push(seed)
		} else {
			s.log.WithError(err).Warn("seed history")
		}
	}
	s.mu.Unlock()
	s.log.WithField("size", loaded.Size).Info("image opened")
	s.changed()
	return nil
}

// Erase sends the painted mask and the current bitmap to the eraser and
// applies the result. An empty mask returns brush.ErrEmptyMask without a
// request, and a session whose last load failed returns
// canvas.ErrImageUnavailable. On failure the mask, bitmap and history are left as they were and
// the mapped message is kept as the last error.
func (s *Session) Erase(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state == StateErasing {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.canvas.ImageError() {
		s.mu.Unlock()
		return canvas.ErrImageUnavailable
	}
	mask, err := s.brush.ExportMask()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	source, err := s.canvas.ExportSnapshot()
	if err != nil {
		source = ""
	}
	s.state = StateErasing
	s.lastErr = ""
	s.mu.Unlock()
	s.changed()

	log := s.log
	start := time.Now()
	result, err := s.eraser.Erase(ctx, s.id, mask, source)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		log.Debug("discarding erase result after close")
		return ErrClosed
	}
	s.state = StateIdle
	if err == nil {
		err = s.canvas.DrawSnapshot(result)
	}
	if err != nil {
		s.lastErr = api.Message(err)
		s.mu.Unlock()
		log.WithError(err).Warn("erase failed")
		s.changed()
		return fmt.Errorf("erase: %w", err)
	}
	s.history.Push(result)
	s.brush.Clear()
	s.mu.Unlock()
	log.WithField("duration", time.Since(start)).Info("erase applied")
	s.changed()
	return nil
}

// Undo restores the previous history entry. It reports whether anything
// changed.
func (s *Session) Undo() bool {
	return s.step((*history.Buffer).Undo)
}

// Redo reapplies the next history entry. It reports whether anything changed.
func (s *Session) Redo() bool {
	return s.step((*history.Buffer).Redo)
}

func (s *Session) step(move func(*history.Buffer) (snapshot.Snapshot, bool)) bool {
	s.mu.Lock()
	if s.closed || s.state != StateIdle {
		s.mu.Unlock()
		return false
	}
	snap, ok := move(s.history)
	if !ok {
		s.mu.Unlock()
		return false
	}
	if err := s.canvas.DrawSnapshot(snap); err != nil {
		s.log.WithError(err).Warn("restore history entry")
	}
	s.mu.Unlock()
	s.changed()
	return true
}

// ClearMask removes all paint. It reports whether the mask was cleared.
func (s *Session) ClearMask() bool {
	s.mu.Lock()
	if s.closed || s.state != StateIdle {
		s.mu.Unlock()
		return false
	}
	s.brush.Clear()
	s.mu.Unlock()
	s.changed()
	return true
}

// ImportMask paints every non-transparent pixel of img into the mask. img must
// match the bitmap size.
func (s *Session) ImportMask(img image.Image) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	err := s.brush.ImportMask(img)
	s.mu.Unlock()
	if err == nil {
		s.changed()
	}
	return err
}

// SetBrushSize sets the brush diameter and returns the clamped value.
func (s *Session) SetBrushSize(n int) int {
	s.mu.Lock()
	got := s.brush.SetSize(n)
	s.mu.Unlock()
	s.changed()
	return got
}

// PointerDown starts a stroke at the client position over a bitmap displayed
// in rect.
func (s *Session) PointerDown(client viewport.Point, rect viewport.Rect) {
	s.pointer(client, rect, (*brush.Engine).PointerDown)
}

// PointerMove extends the current stroke.
func (s *Session) PointerMove(client viewport.Point, rect viewport.Rect) {
	s.pointer(client, rect, (*brush.Engine).PointerMove)
}

func (s *Session) pointer(client viewport.Point, rect viewport.Rect, fn func(*brush.Engine, viewport.Point)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	pt, ok := viewport.ToBitmap(client, rect, s.canvas.Size())
	if !ok {
		s.mu.Unlock()
		return
	}
	fn(s.brush, pt)
	s.mu.Unlock()
	s.changed()
}

// PointerUp ends the current stroke. It is also used when the pointer leaves
// the image.
func (s *Session) PointerUp() {
	s.mu.Lock()
	s.brush.PointerUp()
	s.mu.Unlock()
}

// Snapshot encodes the current bitmap.
func (s *Session) Snapshot() (snapshot.Snapshot, error) {
	return s.canvas.ExportSnapshot()
}

// Download saves the bitmap. An empty name uses canvas.DownloadName.
func (s *Session) Download(name string) (string, error) {
	if name == "" {
		name = canvas.DownloadName(s.id, s.now())
	}
	return s.canvas.ExportDownload(name)
}

// Copy places the bitmap on the clipboard as PNG.
func (s *Session) Copy() error {
	if s.clipboard == nil {
		return ErrNoClipboard
	}
	data, err := s.canvas.PNG()
	if err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	if err := s.clipboard(data); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return nil
}

// Render draws the bitmap and the mask overlay scaled into r of dst.
func (s *Session) Render(dst *image.RGBA, r image.Rectangle) {
	s.mu.Lock()
	overlay := s.brush.Overlay()
	s.mu.Unlock()
	s.canvas.Render(dst, r)
	if overlay != nil {
		renderOverlay(dst, r, overlay)
	}
}

// Status returns a snapshot of the session for display.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:      s.state,
		LastError:  s.lastErr,
		CanUndo:    s.history.CanUndo(),
		CanRedo:    s.history.CanRedo(),
		HistoryLen: s.history.Len(),
		BrushSize:  s.brush.Size(),
		Size:       s.canvas.Size(),
		ImageError: s.canvas.ImageError(),
		MaskEmpty:  s.brush.Empty(),
	}
}

// Close tears the session down. A pending load or erase completes without
// effect.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.canvas.Close()
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
