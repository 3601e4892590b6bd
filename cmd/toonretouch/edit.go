package main

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/example/toonretouch/internal/appstate"
	"github.com/example/toonretouch/internal/canvas"
	"github.com/example/toonretouch/internal/retouch"
)

// runWindow shows the editor and blocks until it closes; replaced in tests.
var runWindow = func(a *appstate.AppState) { a.Run() }

// editCmd opens the editor window.
type editCmd struct {
	translateID string
	image       string
	*root
	fs *pflag.FlagSet
}

func (e *editCmd) FlagSet() *pflag.FlagSet {
	return e.fs
}

func parseEditCmd(args []string, r *root) (*editCmd, error) {
	fs := pflag.NewFlagSet("edit", pflag.ContinueOnError)
	e := &editCmd{root: r.subcommand("edit"), fs: fs}
	fs.Usage = usageFunc(e)
	fs.StringVarP(&e.translateID, "translate", "t", "", "translation id to retouch")
	fs.StringVarP(&e.image, "image", "i", "", "image URL or path to retouch instead of a translation result")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, &UsageError{of: e}
		}
		return nil, err
	}
	if e.translateID == "" && e.image == "" {
		return nil, &UsageError{of: e}
	}
	return e, nil
}

func (e *editCmd) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newAPIClient(e.config)
	url := e.image
	if url == "" {
		var err error
		if url, err = resolveTranslate(ctx, client, e.translateID); err != nil {
			return err
		}
	}

	var app *appstate.AppState
	sess := newSession(e.root, e.translateID, client, retouch.WithOnChange(func() { app.NotifyImageChanged() }))
	log := logrus.WithFields(logrus.Fields{"translate_id": e.translateID, "url": url})
	if err := sess.Open(ctx, url); err != nil {
		if !errors.Is(err, canvas.ErrImageUnavailable) {
			return err
		}
		log.WithError(err).Warn("image cannot be displayed")
	}

	title := "toonretouch"
	if e.translateID != "" {
		title += " - " + e.translateID
	}
	app = appstate.New(sess,
		appstate.WithTheme(e.activeTheme),
		appstate.WithNotifier(e.notifier),
		appstate.WithTitle(title),
		appstate.WithContext(ctx),
	)
	runWindow(app)

	sess.Close()
	cancel()
	app.Wait()
	return nil
}
