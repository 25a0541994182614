package cli

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"

	"github.com/khankhulgun/maplayers"
	"github.com/khankhulgun/maplayers/config"
	"github.com/khankhulgun/maplayers/controllers"
	"github.com/khankhulgun/maplayers/logging"
)

const shutdownTimeout = 5 * time.Second

func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layer menu API and the composed map style",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			return c.serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides MAPLAYERS_HTTP_ADDR)")
	return cmd
}

const glyphsPath = "/mapserver/api/layers/fonts/{fontstack}/{range}.pbf"

// NewApp builds the fiber app serving the public dir and the layers API.
func NewApp(cfg config.Config, layers *controllers.LayerController) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	if layers.GlyphsURL == "" {
		layers.GlyphsURL = glyphsPath
	}
	maplayers.Set(app, layers, &controllers.GlyphController{
		Dir:      filepath.Join(cfg.PublicDir, "fonts"),
		Upstream: cfg.GlyphsUpstream,
		Timeout:  10 * time.Second,
		Logger:   layers.Logger,
	})
	app.Static("/", cfg.PublicDir)
	return app
}

func (c *CLI) serve(ctx context.Context, cfg config.Config) error {
	logger := logging.FromContext(ctx)
	store, overlays, err := c.loadOverlays(ctx, cfg)
	if err != nil {
		return err
	}

	spriteURL, err := c.buildSprite(ctx, cfg, overlays)
	if err != nil {
		logger.Warn("sprite not built", "err", err)
	}

	layers, err := c.newLayers(ctx, cfg, overlays)
	if err != nil {
		return err
	}

	app := NewApp(cfg, &controllers.LayerController{
		Layers:    layers,
		Store:     store,
		SpriteURL: spriteURL,
		Logger:    logger,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- app.Listen(cfg.HTTPAddr) }()
	logger.Info("listening", "addr", cfg.HTTPAddr, "style", cfg.Style(), "overlays", len(overlays))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}
