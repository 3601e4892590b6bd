package theme

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseOverridesDefaults(t *testing.T) {
	th, err := Parse(strings.NewReader("Name: mine\nbackground: #010203\nErrorText: #FF000080\nUnknown: #000000\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if th.Name != "mine" || th.Background != (color.RGBA{1, 2, 3, 255}) {
		t.Fatalf("unexpected theme %+v", th)
	}
	if th.ErrorText != (color.RGBA{255, 0, 0, 128}) {
		t.Fatalf("ErrorText %+v", th.ErrorText)
	}
	if th.Foreground != Default().Foreground {
		t.Fatal("missing keys must keep defaults")
	}
	if _, err := Parse(strings.NewReader("Background: #12")); err == nil {
		t.Fatal("expected error for short hex")
	}
}

func TestParseColorNames(t *testing.T) {
	c, err := ParseColor("Red")
	if err != nil || c != (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("ParseColor(Red) = %+v, %v", c, err)
	}
	if _, err := ParseColor("notacolour"); err == nil {
		t.Fatal("expected error")
	}
	if Hex(color.RGBA{255, 0, 0, 128}) != "#FF000080" || Hex(color.RGBA{1, 2, 3, 255}) != "#010203" {
		t.Fatal("Hex formatting")
	}
}

func TestLoaderOrder(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ocean.theme"), []byte("Background: #0000FF\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := &Loader{ConfigDir: dir}
	th, err := l.Load("ocean")
	if err != nil || th.Background.B != 255 {
		t.Fatalf("config dir theme: %+v %v", th, err)
	}
	th, err = l.Load("dark")
	if err != nil || th.Name != "Dark" {
		t.Fatalf("builtin theme: %+v %v", th, err)
	}
	th, err = l.Load(filepath.Join(dir, "ocean.theme"))
	if err != nil || th.Background.B != 255 {
		t.Fatalf("path theme: %v", err)
	}
	if _, err := l.Load("missing"); err == nil {
		t.Fatal("expected error for unknown theme")
	}
	if th, _ := l.Load(""); th.Name != "Default" {
		t.Fatal("empty name should give the default theme")
	}
}

func TestFieldsListsColours(t *testing.T) {
	fields := Fields(Default())
	if len(fields) == 0 || fields[0].Name != "Background" {
		t.Fatalf("fields %+v", fields)
	}
}
