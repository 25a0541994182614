package maplayers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/khankhulgun/maplayers/controllers"
)

// Set registers the layer menu API on app. glyphs may be nil.
func Set(app *fiber.App, layers *controllers.LayerController, glyphs *controllers.GlyphController) {
	a := app.Group("/mapserver/api/layers")
	a.Get("/state", layers.GetState)
	a.Get("/base-styles", layers.GetBaseStyles)
	a.Put("/base-style", layers.SelectBaseStyle)
	a.Get("/style", layers.GetStyle)
	a.Post("/overlays", layers.AddOverlay)
	a.Post("/overlays/toggle", layers.ToggleAllOverlays)
	a.Get("/overlays/:id", layers.GetOverlay)
	a.Put("/overlays/:id/visibility", layers.SetOverlayVisibility)

	if glyphs != nil {
		a.Get("/fonts/:fontstack/:range", glyphs.Glyphs)
	}
}
