package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/example/toonretouch/internal/api"
	"github.com/example/toonretouch/internal/brush"
	"github.com/example/toonretouch/internal/canvas"
	"github.com/example/toonretouch/internal/clipboard"
	"github.com/example/toonretouch/internal/config"
	"github.com/example/toonretouch/internal/retouch"
)

var (
	errTranslateNotFound   = errors.New("translation not found")
	errTranslateIncomplete = errors.New("translation is not completed")
)

// clipboardWrite publishes PNG bytes; replaced in tests.
var clipboardWrite = clipboard.WritePNG

type translateGetter interface {
	GetTranslate(ctx context.Context, id string) (*api.Translate, error)
}

func newAPIClient(cfg *config.Config) *api.Client {
	return api.NewClient(cfg.APIURL,
		api.WithTimeout(cfg.Erase.Timeout),
		api.WithLogger(logrus.WithField("component", "api")),
	)
}

// resolveTranslate returns the image URL of a completed translation.
func resolveTranslate(ctx context.Context, c translateGetter, id string) (string, error) {
	tr, err := c.GetTranslate(ctx, id)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return "", fmt.Errorf("%w: %s", errTranslateNotFound, id)
		}
		return "", fmt.Errorf("get translate %s: %s: %w", id, api.Message(err), err)
	}
	if !tr.Completed() {
		return "", fmt.Errorf("%w: %s is %s", errTranslateIncomplete, id, tr.Status)
	}
	url := tr.ImageURL()
	if url == "" {
		return "", fmt.Errorf("translate %s has no result: %w", id, canvas.ErrImageUnavailable)
	}
	return url, nil
}

// newSession wires a session from the effective configuration.
func newSession(r *root, id string, eraser retouch.Eraser, extra ...retouch.Option) *retouch.Session {
	cfg := r.config
	log := logrus.WithField("component", "retouch")
	b := brush.New(
		brush.WithSize(cfg.Brush.Size),
		brush.WithTint(color.NRGBA(cfg.Brush.MaskColor)),
	)
	c := canvas.New(
		canvas.WithSaver(canvas.DirSaver{Dir: config.ExpandHome(cfg.SaveDir)}),
		canvas.WithLoadSnapshot(cfg.History.SeedOnLoad),
		canvas.WithLogger(logrus.WithField("component", "canvas")),
	)
	opts := []retouch.Option{
		retouch.WithCanvas(c),
		retouch.WithBrush(b),
		retouch.WithSeedHistory(cfg.History.SeedOnLoad),
		retouch.WithClipboard(clipboardWrite),
		retouch.WithLogger(log),
	}
	return retouch.New(id, eraser, append(opts, extra...)...)
}
