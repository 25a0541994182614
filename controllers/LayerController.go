package controllers

import (
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/khankhulgun/maplayers/engine"
	"github.com/khankhulgun/maplayers/maplayer"
	"github.com/khankhulgun/maplayers/models"
)

// LayerController exposes the layer controller's commands and state over HTTP.
type LayerController struct {
	Layers *maplayer.Controller
	// Store is optional; when set, visibility changes and new overlays are persisted.
	Store     *maplayer.Store
	SpriteURL string
	// GlyphsURL is used when the base style brings no glyphs of its own.
	GlyphsURL string
	Logger    *log.Logger
}

type styledEngine interface {
	Style() (models.StyleDocument, error)
}

func errorResponse(c *fiber.Ctx, status int, message string, err error) error {
	body := fiber.Map{
		"status":  "error",
		"message": message,
	}
	if err != nil {
		body["error"] = err.Error()
	}
	return c.Status(status).JSON(body)
}

// commandError maps controller errors onto responses. None of them is fatal to
// the session.
func (h *LayerController) commandError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, maplayer.ErrUnknownStyle):
		return errorResponse(c, fiber.StatusBadRequest, "Unknown base style", err)
	case errors.Is(err, maplayer.ErrInvalidOverlay):
		return errorResponse(c, fiber.StatusBadRequest, "Invalid overlay", err)
	case errors.Is(err, maplayer.ErrUnknownOverlay):
		return errorResponse(c, fiber.StatusNotFound, "Layer not found", err)
	case errors.Is(err, maplayer.ErrEngineNotReady):
		c.Set(fiber.HeaderRetryAfter, "1")
		return errorResponse(c, fiber.StatusServiceUnavailable, "Map engine not ready", err)
	case errors.Is(err, maplayer.ErrReconciling):
		c.Set(fiber.HeaderRetryAfter, "1")
		return errorResponse(c, fiber.StatusConflict, "Base style is changing, command dropped", err)
	default:
		h.Logger.Warn("command failed on engine", "path", c.Path(), "err", err)
		return errorResponse(c, fiber.StatusBadGateway, "Map engine rejected the command", err)
	}
}

func (h *LayerController) GetState(c *fiber.Ctx) error {
	return c.JSON(h.Layers.State())
}

func (h *LayerController) GetBaseStyles(c *fiber.Ctx) error {
	return c.JSON(models.BaseStyleOptions())
}

func (h *LayerController) SelectBaseStyle(c *fiber.Ctx) error {
	var input struct {
		Style string `json:"style"`
	}
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid input", err)
	}

	style, err := models.ParseBaseStyle(input.Style)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Unknown base style", err)
	}
	if err := h.Layers.SelectBaseStyle(style); err != nil {
		return h.commandError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(h.Layers.State())
}

func (h *LayerController) SetOverlayVisibility(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return errorResponse(c, fiber.StatusBadRequest, "ID parameter is required", nil)
	}

	var input struct {
		Visible *bool `json:"visible"`
	}
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid input", err)
	}
	if input.Visible == nil {
		return errorResponse(c, fiber.StatusBadRequest, "visible is required", nil)
	}

	ref, err := h.Layers.SetVisibility(id, *input.Visible)
	if err != nil {
		return h.commandError(c, err)
	}
	if ref.Kind == maplayer.Tracked {
		h.persistVisibility(c, id, *input.Visible)
	}
	return c.JSON(h.Layers.State())
}

func (h *LayerController) ToggleAllOverlays(c *fiber.Ctx) error {
	if err := h.Layers.ToggleAllOverlays(); err != nil {
		return h.commandError(c, err)
	}
	for _, o := range h.Layers.Overlays() {
		h.persistVisibility(c, o.ID, o.Visible)
	}
	return c.JSON(h.Layers.State())
}

func (h *LayerController) persistVisibility(c *fiber.Ctx, id string, visible bool) {
	if h.Store == nil {
		return
	}
	err := h.Store.SetVisible(c.UserContext(), id, visible)
	if err != nil && !errors.Is(err, maplayer.ErrOverlayNotFound) {
		h.Logger.Warn("visibility not persisted", "id", id, "err", err)
	}
}

func (h *LayerController) AddOverlay(c *fiber.Ctx) error {
	var o models.OverlayLayer
	if err := c.BodyParser(&o); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid input", err)
	}
	if strings.TrimSpace(o.ID) == "" {
		o.ID = uuid.NewString()
	}

	err := h.Layers.AddOverlay(o)
	if errors.Is(err, maplayer.ErrInvalidOverlay) {
		return h.commandError(c, err)
	}
	if err != nil {
		// kept by the controller, provisioned with the next reconciliation
		h.Logger.Warn("overlay not provisioned yet", "id", o.ID, "err", err)
	}
	if h.Store != nil {
		if err := h.Store.Save(c.UserContext(), o); err != nil {
			h.Logger.Error("overlay not persisted", "id", o.ID, "err", err)
			return errorResponse(c, fiber.StatusInternalServerError, "Error saving overlay", err)
		}
	}
	return c.Status(fiber.StatusCreated).JSON(o)
}

func (h *LayerController) GetOverlay(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if h.Store != nil {
		o, err := h.Store.Overlay(c.UserContext(), id)
		if err == nil {
			return c.JSON(o)
		}
		if !errors.Is(err, maplayer.ErrOverlayNotFound) {
			return errorResponse(c, fiber.StatusInternalServerError, "Error retrieving overlay", err)
		}
	}
	for _, o := range h.Layers.Overlays() {
		if o.ID == id {
			return c.JSON(o)
		}
	}
	return errorResponse(c, fiber.StatusNotFound, "Overlay not found", nil)
}

// GetStyle returns the composed style document when the engine is headless.
func (h *LayerController) GetStyle(c *fiber.Ctx) error {
	e, ok := h.Layers.Engine().(styledEngine)
	if !ok {
		return h.commandError(c, maplayer.ErrEngineNotReady)
	}

	doc, err := e.Style()
	if errors.Is(err, engine.ErrStyleLoading) {
		return h.commandError(c, maplayer.ErrReconciling)
	}
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Error composing style", err)
	}
	if h.SpriteURL != "" {
		doc.Sprite = h.SpriteURL
	}
	if doc.Glyphs == "" {
		doc.Glyphs = h.GlyphsURL
	}
	return c.JSON(doc)
}
