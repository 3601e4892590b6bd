package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/toonretouch/internal/api"
	"github.com/example/toonretouch/internal/appstate"
	"github.com/example/toonretouch/internal/canvas"
	"github.com/example/toonretouch/internal/config"
	"github.com/example/toonretouch/internal/stubserver"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func stripes(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: 200, G: 200, B: 200, A: 255}
			if (x/4)%2 == 0 {
				c = color.RGBA{R: 40, G: 40, B: 40, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// startStub serves img through the stub backend and returns a root pointing at it.
func startStub(t *testing.T, img image.Image) (*root, string) {
	t.Helper()
	store := stubserver.NewStore()
	id := store.Add(img)
	srv := httptest.NewServer(stubserver.NewServer(store, nil).Router())
	t.Cleanup(srv.Close)
	cfg := config.New()
	cfg.APIURL = srv.URL + "/api"
	cfg.SaveDir = t.TempDir()
	return &root{program: "toonretouch", config: cfg}, id
}

type fakeTranslates struct {
	tr  *api.Translate
	err error
}

func (f fakeTranslates) GetTranslate(context.Context, string) (*api.Translate, error) {
	return f.tr, f.err
}

func TestRootRequiresCommand(t *testing.T) {
	err := newRoot().Run(nil)
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
	help := uerr.Error()
	for _, want := range []string{"Usage: toonretouch", "serve-stub", "--api-url"} {
		if !strings.Contains(help, want) {
			t.Fatalf("help missing %q:\n%s", want, help)
		}
	}
}

func TestUnknownCommandIsUsageError(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	err := newRoot().Run([]string{"--config", filepath.Join(t.TempDir(), "none.rc"), "bogus"})
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestParseEraseRequiresOneMaskSource(t *testing.T) {
	r := &root{program: "toonretouch", config: config.New()}
	cases := [][]string{
		{"--mask", "m.png"},
		{"--image", "i.png"},
		{"--image", "i.png", "--mask", "m.png", "--mask-from-clipboard"},
	}
	for _, args := range cases {
		_, err := parseEraseCmd(args, r)
		var uerr *UsageError
		if !errors.As(err, &uerr) {
			t.Fatalf("%v: expected usage error, got %v", args, err)
		}
		if !strings.Contains(uerr.Error(), "--mask-from-clipboard") {
			t.Fatalf("erase help lacks flags:\n%s", uerr.Error())
		}
	}
	if _, err := parseEraseCmd([]string{"-i", "i.png", "-m", "m.png"}, r); err != nil {
		t.Fatalf("valid args rejected: %v", err)
	}
}

func TestResolveTranslate(t *testing.T) {
	url := "http://x/result.png"
	ctx := context.Background()

	got, err := resolveTranslate(ctx, fakeTranslates{tr: &api.Translate{Status: api.StatusCompleted, ResultURL: &url}}, "a")
	if err != nil || got != url {
		t.Fatalf("completed: %q %v", got, err)
	}
	_, err = resolveTranslate(ctx, fakeTranslates{tr: &api.Translate{Status: api.StatusProcessing}}, "a")
	if !errors.Is(err, errTranslateIncomplete) {
		t.Fatalf("processing: %v", err)
	}
	_, err = resolveTranslate(ctx, fakeTranslates{err: &api.Error{Status: 404}}, "a")
	if !errors.Is(err, errTranslateNotFound) {
		t.Fatalf("missing: %v", err)
	}
	_, err = resolveTranslate(ctx, fakeTranslates{tr: &api.Translate{Status: api.StatusCompleted}}, "a")
	if !errors.Is(err, canvas.ErrImageUnavailable) {
		t.Fatalf("no result url: %v", err)
	}
	_, err = resolveTranslate(ctx, fakeTranslates{err: &api.Error{Status: 500, Message: "down"}}, "a")
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("server error: %v", err)
	}
}

func TestEraseCommandAgainstStub(t *testing.T) {
	src := stripes(32, 24)
	r, id := startStub(t, src)
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "page.png")
	writePNG(t, imgPath, src)
	mask := image.NewNRGBA(src.Bounds())
	for y := 8; y < 16; y++ {
		for x := 8; x < 16; x++ {
			mask.SetNRGBA(x, y, color.NRGBA{R: 255, A: 128})
		}
	}
	maskPath := filepath.Join(dir, "mask.png")
	writePNG(t, maskPath, mask)
	outPath := filepath.Join(dir, "out", "fixed.png")

	cmd, err := parseEraseCmd([]string{"--image", imgPath, "--mask", maskPath, "--id", id, "-o", outPath}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var stdout bytes.Buffer
	cmd.out = &stdout
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(stdout.String()) != outPath {
		t.Fatalf("printed %q", stdout.String())
	}
	f, err := os.Open(outPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	out, err := png.Decode(f)
	if err != nil {
		t.Fatalf("output is not PNG: %v", err)
	}
	if out.Bounds().Size() != src.Bounds().Size() {
		t.Fatalf("output size %v", out.Bounds())
	}
	if got := color.RGBAModel.Convert(out.At(1, 1)).(color.RGBA); got != src.RGBAAt(1, 1) {
		t.Fatalf("unmasked pixel changed: %v", got)
	}
}

func TestEraseCommandEmptyMask(t *testing.T) {
	src := stripes(8, 8)
	r, id := startStub(t, src)
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "page.png")
	writePNG(t, imgPath, src)
	maskPath := filepath.Join(dir, "mask.png")
	writePNG(t, maskPath, image.NewNRGBA(src.Bounds()))

	cmd, err := parseEraseCmd([]string{"--image", imgPath, "--mask", maskPath, "--id", id}, r)
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(); err == nil || !strings.Contains(err.Error(), "nothing to erase") {
		t.Fatalf("expected empty mask error, got %v", err)
	}
}

func TestEraseMaskFromClipboard(t *testing.T) {
	original := clipboardRead
	sentinel := errors.New("no clipboard")
	clipboardRead = func() (image.Image, error) { return nil, sentinel }
	t.Cleanup(func() { clipboardRead = original })

	r := &root{program: "toonretouch", config: config.New()}
	cmd, err := parseEraseCmd([]string{"--image", "x.png", "--mask-from-clipboard"}, r)
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(); !errors.Is(err, sentinel) {
		t.Fatalf("expected clipboard error, got %v", err)
	}
}

func TestEditOpensTranslation(t *testing.T) {
	r, id := startStub(t, stripes(40, 30))
	var opened image.Point
	original := runWindow
	runWindow = func(a *appstate.AppState) { opened = a.Session.Status().Size }
	t.Cleanup(func() { runWindow = original })

	cmd, err := parseEditCmd([]string{"--translate", id}, r)
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if opened != image.Pt(40, 30) {
		t.Fatalf("window saw size %v", opened)
	}
}

func TestEditUnknownTranslation(t *testing.T) {
	r, _ := startStub(t, stripes(4, 4))
	original := runWindow
	runWindow = func(*appstate.AppState) { t.Fatal("window opened for a missing translation") }
	t.Cleanup(func() { runWindow = original })

	cmd, err := parseEditCmd([]string{"-t", "missing"}, r)
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(); !errors.Is(err, errTranslateNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEditShowsWindowWhenImageFails(t *testing.T) {
	r := &root{program: "toonretouch", config: config.New()}
	var imageErr bool
	original := runWindow
	runWindow = func(a *appstate.AppState) { imageErr = a.Session.Status().ImageError }
	t.Cleanup(func() { runWindow = original })

	cmd, err := parseEditCmd([]string{"--image", filepath.Join(t.TempDir(), "missing.png")}, r)
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !imageErr {
		t.Fatal("window should show the image error state")
	}
}

func TestServeStubRegistersImages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.png")
	writePNG(t, path, stripes(4, 4))
	r := &root{program: "toonretouch", config: config.New()}
	cmd, err := parseServeStubCmd([]string{"--listen", "127.0.0.1:0", path}, r)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	cmd.out = &out
	store := stubserver.NewStore()
	if err := cmd.register(context.Background(), store); err != nil {
		t.Fatalf("register: %v", err)
	}
	ids := store.IDs()
	if len(ids) != 1 || !strings.HasPrefix(out.String(), ids[0]+"\t") {
		t.Fatalf("ids %v, output %q", ids, out.String())
	}
	if _, err := parseServeStubCmd(nil, r); err == nil {
		t.Fatal("expected usage error without images")
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.rc")
	if err := os.WriteFile(path, []byte("api_url = http://file/api\ntheme = dark\nsave_dir = /from/file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	env := map[string]string{config.EnvAPIURL: "http://env/api", config.EnvSaveDir: "/from/env"}
	getenv := func(k string) string { return env[k] }

	r := &root{configPath: path, apiURL: "http://flag/api"}
	cfg := r.loadConfig(getenv)
	if cfg.APIURL != "http://flag/api" {
		t.Fatalf("flag should win: %q", cfg.APIURL)
	}
	if cfg.SaveDir != "/from/env" {
		t.Fatalf("env should beat file: %q", cfg.SaveDir)
	}
	if cfg.Theme != "dark" {
		t.Fatalf("file value lost: %q", cfg.Theme)
	}
	if th := resolveTheme(cfg); th.Name != "Dark" {
		t.Fatalf("theme %q", th.Name)
	}
}

func TestConfigPrint(t *testing.T) {
	r := &root{program: "toonretouch", config: config.New()}
	cmd, err := parseConfigCmd([]string{"print"}, r)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	cmd.out = &out
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "[brush]") || !strings.Contains(out.String(), "api_url = "+config.DefaultAPIURL) {
		t.Fatalf("unexpected config output:\n%s", out.String())
	}
}
