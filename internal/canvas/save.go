package canvas

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Saver persists an encoded image under name and returns where it went.
type Saver interface {
	Save(name string, data []byte) (string, error)
}

// DirSaver writes files into Dir, creating it when missing.
type DirSaver struct {
	Dir string
}

func (d DirSaver) Save(name string, data []byte) (string, error) {
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// DownloadName returns the file name a corrected image is saved under.
func DownloadName(id string, t time.Time) string {
	if id == "" {
		id = "result"
	}
	return fmt.Sprintf("toonretouch-%s-%d.png", id, t.UnixMilli())
}
