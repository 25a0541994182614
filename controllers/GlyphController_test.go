package controllers

import (
	"io"
	"net"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
)

func startFontServer(t *testing.T, hits *atomic.Int32) string {
	t.Helper()
	upstream := fiber.New(fiber.Config{DisableStartupMessage: true})
	upstream.Get("/:fontstack/:range", func(c *fiber.Ctx) error {
		hits.Add(1)
		if fontstack, _ := url.PathUnescape(c.Params("fontstack")); fontstack != "Open Sans Regular" {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.Send([]byte("glyphs"))
	})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = upstream.Listener(ln) }()
	t.Cleanup(func() { _ = upstream.Shutdown() })
	return "http://" + ln.Addr().String()
}

func newGlyphApp(h *GlyphController) *fiber.App {
	app := fiber.New()
	app.Get("/fonts/:fontstack/:range", h.Glyphs)
	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()
	res, err := app.Test(httptest.NewRequest("GET", path, nil), 5000)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(body)
}

func TestGlyphsServedFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "Noto Sans"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Noto Sans", "0-255.pbf"), []byte("local"), 0o644); err != nil {
		t.Fatal(err)
	}
	app := newGlyphApp(&GlyphController{Dir: dir, Logger: log.New(io.Discard)})

	code, body := get(t, app, "/fonts/Noto%20Sans/0-255.pbf")
	if code != fiber.StatusOK || body != "local" {
		t.Errorf("GET = %d %q, want local glyphs", code, body)
	}

	if code, _ := get(t, app, "/fonts/Noto%20Sans/256-511.pbf"); code != fiber.StatusNotFound {
		t.Errorf("missing range without upstream = %d, want 404", code)
	}
}

func TestGlyphsRejectsBadPaths(t *testing.T) {
	app := newGlyphApp(&GlyphController{Dir: t.TempDir(), Logger: log.New(io.Discard)})

	for _, path := range []string{
		"/fonts/..%2Fsecrets/0-255.pbf",
		"/fonts/Noto/0-255.json",
		"/fonts/Noto/abc.pbf",
	} {
		if code, _ := get(t, app, path); code != fiber.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", path, code)
		}
	}
}

func TestGlyphsFetchedAndKept(t *testing.T) {
	var hits atomic.Int32
	dir := t.TempDir()
	app := newGlyphApp(&GlyphController{
		Dir:      dir,
		Upstream: startFontServer(t, &hits),
		Timeout:  time.Second,
		Logger:   log.New(io.Discard),
	})

	for i := 0; i < 2; i++ {
		code, body := get(t, app, "/fonts/Open%20Sans%20Regular/0-255.pbf")
		if code != fiber.StatusOK || body != "glyphs" {
			t.Fatalf("GET = %d %q", code, body)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("upstream hits = %d, want 1", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "Open Sans Regular", "0-255.pbf")); err != nil {
		t.Errorf("range not kept: %v", err)
	}

	if code, _ := get(t, app, "/fonts/Unknown/0-255.pbf"); code != fiber.StatusNotFound {
		t.Errorf("unknown upstream font = %d, want 404", code)
	}
}
