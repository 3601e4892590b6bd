package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/example/toonretouch/internal/api"
	"github.com/example/toonretouch/internal/brush"
	"github.com/example/toonretouch/internal/canvas"
	"github.com/example/toonretouch/internal/clipboard"
	"github.com/example/toonretouch/internal/config"
	"github.com/example/toonretouch/internal/retouch"
)

// clipboardRead fetches the clipboard image; replaced in tests.
var clipboardRead = clipboard.ReadImage

// eraseCmd runs a single erase without a window.
type eraseCmd struct {
	image         string
	mask          string
	output        string
	translateID   string
	fromClipboard bool
	out           io.Writer
	*root
	fs *pflag.FlagSet
}

func (e *eraseCmd) FlagSet() *pflag.FlagSet {
	return e.fs
}

func parseEraseCmd(args []string, r *root) (*eraseCmd, error) {
	fs := pflag.NewFlagSet("erase", pflag.ContinueOnError)
	e := &eraseCmd{root: r.subcommand("erase"), fs: fs, out: os.Stdout}
	fs.Usage = usageFunc(e)
	fs.StringVarP(&e.image, "image", "i", "", "image URL or path to erase from")
	fs.StringVarP(&e.mask, "mask", "m", "", "PNG whose non-transparent pixels mark the area to erase")
	fs.BoolVar(&e.fromClipboard, "mask-from-clipboard", false, "read the mask image from the clipboard")
	fs.StringVarP(&e.output, "output", "o", "", "output file path (default: a generated name in the save directory)")
	fs.StringVar(&e.translateID, "id", "", "translation id sent with the erase request")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, &UsageError{of: e}
		}
		return nil, err
	}
	if e.image == "" || (e.mask == "") == !e.fromClipboard {
		return nil, &UsageError{of: e}
	}
	return e, nil
}

func (e *eraseCmd) loadMask(ctx context.Context) (image.Image, error) {
	if e.fromClipboard {
		img, err := clipboardRead()
		if err != nil {
			return nil, fmt.Errorf("read mask from clipboard: %w", err)
		}
		return img, nil
	}
	img, err := canvas.HTTPFetcher{}.Fetch(ctx, e.mask)
	if err != nil {
		return nil, fmt.Errorf("read mask %s: %w", e.mask, err)
	}
	return img, nil
}

func (e *eraseCmd) Run() error {
	ctx := context.Background()
	mask, err := e.loadMask(ctx)
	if err != nil {
		return err
	}

	sess := newSession(e.root, e.translateID, newAPIClient(e.config))
	defer sess.Close()
	if err := sess.Open(ctx, e.image); err != nil {
		return err
	}
	if err := sess.ImportMask(mask); err != nil {
		return err
	}

	log := logrus.WithFields(logrus.Fields{"translate_id": e.translateID, "image": e.image})
	start := time.Now()
	if err := sess.Erase(ctx); err != nil {
		if errors.Is(err, brush.ErrEmptyMask) {
			return fmt.Errorf("nothing to erase: %w", err)
		}
		return fmt.Errorf("%s: %w", api.Message(err), err)
	}
	log.WithField("duration", time.Since(start)).Info("erase complete")

	path, err := e.write(sess)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, path)

	if snap, err := sess.Snapshot(); err == nil {
		if img, err := snap.Decode(); err == nil {
			e.notifyErase(e.translateID, img)
		}
	}
	e.notifySave(path)
	return nil
}

func (e *eraseCmd) write(sess *retouch.Session) (string, error) {
	if e.output == "" {
		return sess.Download("")
	}
	snap, err := sess.Snapshot()
	if err != nil {
		return "", err
	}
	data, err := snap.PNG()
	if err != nil {
		return "", err
	}
	out := config.ExpandHome(e.output)
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	return out, nil
}
