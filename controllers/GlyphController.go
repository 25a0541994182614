package controllers

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
)

var glyphRange = regexp.MustCompile(`^\d+-\d+\.pbf$`)

// GlyphController serves font glyph ranges for overlay labels from Dir,
// fetching and keeping missing ranges from Upstream.
type GlyphController struct {
	Dir      string
	Upstream string
	Timeout  time.Duration
	Logger   *log.Logger
}

func (h *GlyphController) Glyphs(c *fiber.Ctx) error {
	fontstack, err := url.PathUnescape(c.Params("fontstack"))
	rangeParam := c.Params("range")
	if err != nil || fontstack == "" || strings.ContainsAny(fontstack, `/\`) || strings.Contains(fontstack, "..") || !glyphRange.MatchString(rangeParam) {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid glyph range", nil)
	}

	c.Set(fiber.HeaderContentType, "application/x-protobuf")
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")

	fontPath := filepath.Join(h.Dir, fontstack, rangeParam)
	if _, err := os.Stat(fontPath); err == nil {
		return c.SendFile(fontPath)
	}
	if h.Upstream == "" {
		return errorResponse(c, fiber.StatusNotFound, "Font not found", nil)
	}

	agent := fiber.Get(strings.TrimRight(h.Upstream, "/") + "/" + url.PathEscape(fontstack) + "/" + rangeParam)
	agent.Timeout(h.Timeout)
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return errorResponse(c, fiber.StatusBadGateway, "Error fetching font", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return errorResponse(c, code, "Font not found", nil)
	}

	if err := os.MkdirAll(filepath.Dir(fontPath), 0o755); err == nil {
		err = os.WriteFile(fontPath, body, 0o644)
		if err != nil {
			h.Logger.Warn("glyphs not cached", "path", fontPath, "err", err)
		}
	}
	return c.Send(body)
}
