// Package snapshot implements the encoded-image value passed between the
// retouch components: a base64 PNG payload, never a live pixel buffer.
package snapshot

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"
)

// DataURIPrefix is the presentation-only scheme marker some producers put in
// front of the payload.
const DataURIPrefix = "data:image/png;base64,"

// ErrEmpty is returned when decoding a zero Snapshot.
var ErrEmpty = errors.New("snapshot is empty")

// Snapshot is an immutable base64 PNG payload without the data URI prefix.
type Snapshot string

// Parse accepts a payload with or without the data URI prefix and returns the
// bare Snapshot.
func Parse(s string) Snapshot {
	return Snapshot(strings.TrimPrefix(strings.TrimSpace(s), DataURIPrefix))
}

// Encode renders img as PNG and wraps it in a Snapshot.
func Encode(img image.Image) (Snapshot, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return FromPNG(data), nil
}

// EncodePNG renders img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("encode snapshot: nil image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// FromPNG wraps already encoded PNG bytes.
func FromPNG(data []byte) Snapshot {
	return Snapshot(base64.StdEncoding.EncodeToString(data))
}

// IsZero reports whether the snapshot carries no payload.
func (s Snapshot) IsZero() bool { return s == "" }

// String returns the payload as sent over the wire.
func (s Snapshot) String() string { return string(s) }

// DataURI returns the payload with the data URI prefix re-added.
func (s Snapshot) DataURI() string { return DataURIPrefix + string(s) }

// PNG returns the raw PNG bytes.
func (s Snapshot) PNG() ([]byte, error) {
	if s.IsZero() {
		return nil, ErrEmpty
	}
	data, err := base64.StdEncoding.DecodeString(string(Parse(string(s))))
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return data, nil
}

// Decode returns a fresh RGBA copy of the encoded image with a zero origin.
func (s Snapshot) Decode() (*image.RGBA, error) {
	data, err := s.PNG()
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return ToRGBA(img), nil
}

// ToRGBA copies img into a new RGBA image whose bounds start at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
