// Package canvas owns the bitmap being retouched. Other components only see it
// as encoded snapshots or as a scaled copy rendered into their own buffer.
package canvas

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"

	"github.com/example/toonretouch/internal/snapshot"
)

var (
	// ErrUnattached is returned when an operation needs a bitmap before one
	// has been loaded.
	ErrUnattached = errors.New("canvas has no bitmap")
	// ErrImageUnavailable wraps every image load failure.
	ErrImageUnavailable = errors.New("image cannot be displayed")
	// ErrStaleLoad is returned by a load that was superseded or that finished
	// after Close. Such a load changes nothing.
	ErrStaleLoad = errors.New("load superseded")
)

// Loaded describes a completed load.
type Loaded struct {
	Size image.Point
	// Snapshot holds the freshly loaded bitmap when WithLoadSnapshot is set.
	Snapshot snapshot.Snapshot
}

// Surface holds the bitmap. It is safe for concurrent use.
type Surface struct {
	mu       sync.Mutex
	img      *image.RGBA
	imageErr bool
	closed   bool

	gen    uint64
	cancel context.CancelFunc

	fetcher      Fetcher
	saver        Saver
	log          *logrus.Entry
	loadSnapshot bool
}

// Option configures a Surface.
type Option func(*Surface)

// WithFetcher replaces the default HTTPFetcher.
func WithFetcher(f Fetcher) Option { return func(s *Surface) { s.fetcher = f } }

// WithSaver replaces the default DirSaver writing into the working directory.
func WithSaver(sv Saver) Option { return func(s *Surface) { s.saver = sv } }

// WithLogger sets the log entry used for load and save events.
func WithLogger(l *logrus.Entry) Option { return func(s *Surface) { s.log = l } }

// WithLoadSnapshot makes Load return an encoded copy of the loaded bitmap.
func WithLoadSnapshot(on bool) Option { return func(s *Surface) { s.loadSnapshot = on } }

// New returns an unattached Surface.
func New(opts ...Option) *Surface {
	s := &Surface{}
	for _, o := range opts {
		o(s)
	}
	if s.fetcher == nil {
		s.fetcher = HTTPFetcher{}
	}
	if s.saver == nil {
		s.saver = DirSaver{}
	}
	if s.log == nil {
		s.log = logrus.WithField("component", "canvas")
	}
	return s
}

// Load fetches url and replaces the bitmap with it at its natural size.
// Starting a new load cancels any load still in flight. A failed load sets
// the image-unavailable flag and returns an error wrapping ErrImageUnavailable.
func (s *Surface) Load(ctx context.Context, url string) (Loaded, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Loaded{}, ErrStaleLoad
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.imageErr = false
	s.mu.Unlock()
	defer cancel()

	log := s.log.WithField("url", url)
	start := time.Now()
	img, err := s.fetcher.Fetch(ctx, url)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		log.Debug("discarding stale load")
		return Loaded{}, ErrStaleLoad
	}
	s.cancel = nil
	if err != nil {
		s.imageErr = true
		log.WithError(err).Warn("image load failed")
		return Loaded{}, fmt.Errorf("load image: %w: %w", ErrImageUnavailable, err)
	}

	s.img = snapshot.ToRGBA(img)
	out := Loaded{Size: s.img.Bounds().Size()}
	log.WithFields(logrus.Fields{
		"size":     out.Size,
		"duration": time.Since(start),
	}).Debug("image loaded")
	if s.loadSnapshot {
		snap, err := snapshot.Encode(s.img)
		if err != nil {
			log.WithError(err).Warn("encode loaded image")
		} else {
			out.Snapshot = snap
		}
	}
	return out, nil
}

// DrawSnapshot clears the bitmap and draws the decoded snapshot at the origin.
// The bitmap keeps its dimensions. Nothing happens when unattached.
func (s *Surface) DrawSnapshot(snap snapshot.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return nil
	}
	img, err := snap.Decode()
	if err != nil {
		return fmt.Errorf("draw snapshot: %w", err)
	}
	clear(s.img.Pix)
	draw.Draw(s.img, s.img.Bounds(), img, image.Point{}, draw.Src)
	return nil
}

// ExportSnapshot encodes the current bitmap.
func (s *Surface) ExportSnapshot() (snapshot.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return "", ErrUnattached
	}
	return snapshot.Encode(s.img)
}

// PNG returns the bitmap encoded as PNG bytes.
func (s *Surface) PNG() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return nil, ErrUnattached
	}
	return snapshot.EncodePNG(s.img)
}

// ExportDownload saves the bitmap as a PNG called name and returns the path
// written. It returns "" and no error when unattached.
func (s *Surface) ExportDownload(name string) (string, error) {
	data, err := s.PNG()
	if errors.Is(err, ErrUnattached) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("export download: %w", err)
	}
	path, err := s.saver.Save(name, data)
	if err != nil {
		return "", fmt.Errorf("export download: %w", err)
	}
	s.log.WithField("path", path).Info("image saved")
	return path, nil
}

// Render draws the bitmap scaled into r of dst.
func (s *Surface) Render(dst draw.Image, r image.Rectangle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil || r.Empty() {
		return
	}
	if r.Size() == s.img.Bounds().Size() {
		draw.Draw(dst, r, s.img, image.Point{}, draw.Over)
		return
	}
	xdraw.ApproxBiLinear.Scale(dst, r, s.img, s.img.Bounds(), xdraw.Over, nil)
}

// Size returns the bitmap dimensions, zero when unattached.
func (s *Surface) Size() image.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return image.Point{}
	}
	return s.img.Bounds().Size()
}

// Attached reports whether a bitmap has been loaded.
func (s *Surface) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img != nil
}

// ImageError reports whether the most recent load failed.
func (s *Surface) ImageError() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imageErr
}

// Close cancels any pending load. Later load completions are discarded.
func (s *Surface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
