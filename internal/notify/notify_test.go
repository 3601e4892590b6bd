package notify

import (
	"errors"
	"image"
	"os"
	"testing"

	"github.com/example/toonretouch/internal/platform"
)

type sent struct {
	title, body string
	opts        platform.Options
	iconExisted bool
}

func capture(t *testing.T) *[]sent {
	t.Helper()
	var got []sent
	original := sendFn
	sendFn = func(title, body string, opts platform.Options) error {
		s := sent{title: title, body: body, opts: opts}
		if opts.IconPath != "" {
			_, err := os.Stat(opts.IconPath)
			s.iconExisted = err == nil
		}
		got = append(got, s)
		return nil
	}
	t.Cleanup(func() { sendFn = original })
	return &got
}

func TestDisabledEventsAreSilent(t *testing.T) {
	got := capture(t)
	n := New(DefaultPreferences())
	n.Erase("abc", nil)
	n.Save("x.png")
	n.Copy("")
	var nilN *Notifier
	nilN.Copy("x")
	if len(*got) != 0 {
		t.Fatalf("unexpected notifications %+v", *got)
	}
}

func TestEnabledEventsFormatTemplates(t *testing.T) {
	got := capture(t)
	n := New(DefaultPreferences())
	n.Enable(EventErase, true)
	n.Enable(EventCopy, true)
	n.Erase("t1", image.NewRGBA(image.Rect(0, 0, 2, 2)))
	n.Copy("")
	if len(*got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(*got))
	}
	if (*got)[0].body != "Erased region in t1" || !(*got)[0].iconExisted {
		t.Fatalf("erase notification %+v", (*got)[0])
	}
	if (*got)[0].opts.Category != "transfer.complete" || (*got)[0].opts.Timeout != previewTimeout {
		t.Fatalf("erase notification %+v", (*got)[0])
	}
	if (*got)[1].body != "Copied image to clipboard" || (*got)[1].opts.AppName != "toonretouch" {
		t.Fatalf("copy notification %+v", (*got)[1])
	}
	if _, err := os.Stat((*got)[0].opts.IconPath); !os.IsNotExist(err) {
		t.Fatal("preview file was not cleaned up")
	}
}

func TestLoadPreferencesFromEnv(t *testing.T) {
	env := map[string]string{
		"TOONRETOUCH_NOTIFY_TITLE":     "Retouch",
		"TOONRETOUCH_NOTIFY_SAVE_TEXT": "Wrote %s",
	}
	prefs := loadPreferences(func(k string) string { return env[k] })
	if prefs.Title != "Retouch" || prefs.Events[EventSave].Template != "Wrote %s" {
		t.Fatalf("unexpected prefs %+v", prefs)
	}
	if prefs.Events[EventCopy].Template != DefaultPreferences().Events[EventCopy].Template {
		t.Fatal("unset events must keep defaults")
	}
}

func TestSendErrorIsLogged(t *testing.T) {
	original := sendFn
	sendFn = func(string, string, platform.Options) error { return errors.New("no bus") }
	t.Cleanup(func() { sendFn = original })
	n := New(DefaultPreferences())
	n.Enable(EventSave, true)
	n.Save("missing.png")
}
