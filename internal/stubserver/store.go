package stubserver

import (
	"errors"
	"image"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/example/toonretouch/internal/snapshot"
)

// ErrNotFound is returned for unknown translate ids.
var ErrNotFound = errors.New("translation not found")

type record struct {
	img       *image.RGBA
	original  *image.RGBA
	createdAt time.Time
}

// Store keeps the images served by the stub in memory.
type Store struct {
	mu      sync.RWMutex
	records map[string]*record
}

func NewStore() *Store {
	return &Store{records: make(map[string]*record)}
}

// Add registers img as a completed translation and returns its id.
func (s *Store) Add(img image.Image) string {
	id := ulid.Make().String()
	rgba := snapshot.ToRGBA(img)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = &record{img: rgba, original: snapshot.ToRGBA(rgba), createdAt: time.Now().UTC()}
	return id
}

// Image returns the current image for id.
func (s *Store) Image(id string) (*image.RGBA, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.img, nil
}

// Original returns the image id was registered with.
func (s *Store) Original(id string) (*image.RGBA, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.original, nil
}

// Replace stores img as the current image for id.
func (s *Store) Replace(id string, img *image.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	r.img = img
	return nil
}

func (s *Store) createdAt(id string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.records[id]; ok {
		return r.createdAt
	}
	return time.Time{}
}

// IDs lists the registered ids in creation order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	// ULIDs sort by creation time
	slices.Sort(ids)
	return ids
}
