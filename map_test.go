package maplayers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"

	"github.com/khankhulgun/maplayers/controllers"
	"github.com/khankhulgun/maplayers/engine"
	"github.com/khankhulgun/maplayers/maplayer"
	"github.com/khankhulgun/maplayers/models"
)

func newApp(t *testing.T) (*fiber.App, *maplayer.Controller) {
	t.Helper()
	logger := log.New(io.Discard)
	layers, err := maplayer.NewController(maplayer.Options{
		BaseStyle: models.Streets,
		Overlays: []models.OverlayLayer{{
			ID:      "routeLayer",
			Title:   "Trees",
			Source:  json.RawMessage(`{"type":"LineString","coordinates":[[-122.48,37.83],[-122.49,37.83]]}`),
			Style:   models.OverlayStyle{Type: "line", Paint: map[string]any{"line-color": "#33bb6a"}},
			Visible: true,
		}},
		Logger: logger,
	})
	if err != nil {
		t.Fatal(err)
	}
	layers.Init(engine.HeadlessFactory(engine.StaticLoader, logger))

	app := fiber.New()
	Set(app, &controllers.LayerController{Layers: layers, Logger: logger, SpriteURL: "/sprite/overlays"}, nil)
	return app, layers
}

func request(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	return res.StatusCode, raw
}

func waitReady(t *testing.T, layers *maplayer.Controller) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for layers.State().Reloading {
		if time.Now().After(deadline) {
			t.Fatal("style never finished loading")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type composed struct {
	Name   string `json:"name"`
	Sprite string `json:"sprite"`
	Layers []struct {
		ID     string            `json:"id"`
		Layout map[string]string `json:"layout"`
	} `json:"layers"`
	Sources map[string]json.RawMessage `json:"sources"`
}

func style(t *testing.T, app *fiber.App) composed {
	t.Helper()
	code, raw := request(t, app, "GET", "/mapserver/api/layers/style", "")
	if code != fiber.StatusOK {
		t.Fatalf("GET /style = %d %s", code, raw)
	}
	var doc composed
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestHiddenOverlaySurvivesStyleSwap(t *testing.T) {
	app, layers := newApp(t)
	waitReady(t, layers)

	if code, raw := request(t, app, "PUT", "/mapserver/api/layers/overlays/routeLayer/visibility", `{"visible":false}`); code != fiber.StatusOK {
		t.Fatalf("hide = %d %s", code, raw)
	}
	if code, raw := request(t, app, "PUT", "/mapserver/api/layers/base-style", `{"style":"dark"}`); code != fiber.StatusAccepted {
		t.Fatalf("select dark = %d %s", code, raw)
	}
	waitReady(t, layers)

	doc := style(t, app)
	if doc.Name != models.Dark.URL() {
		t.Errorf("base style = %q, want %q", doc.Name, models.Dark.URL())
	}
	if doc.Sprite != "/sprite/overlays" {
		t.Errorf("sprite = %q", doc.Sprite)
	}
	if _, ok := doc.Sources["routeLayer"]; !ok {
		t.Error("route source missing after swap")
	}
	if len(doc.Layers) != 1 || doc.Layers[0].ID != "routeLayer" {
		t.Fatalf("layers = %+v, want routeLayer only", doc.Layers)
	}
	if got := doc.Layers[0].Layout[models.VisibilityProperty]; got != models.None {
		t.Errorf("visibility = %q, want none", got)
	}
}

func TestToggleAllThroughAPI(t *testing.T) {
	app, layers := newApp(t)
	waitReady(t, layers)

	for _, want := range []string{models.None, models.Visible} {
		if code, raw := request(t, app, "POST", "/mapserver/api/layers/overlays/toggle", ""); code != fiber.StatusOK {
			t.Fatalf("toggle = %d %s", code, raw)
		}
		if got := style(t, app).Layers[0].Layout[models.VisibilityProperty]; got != want {
			t.Errorf("visibility = %q, want %q", got, want)
		}
	}
}
