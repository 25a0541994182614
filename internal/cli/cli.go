// Package cli implements the maplayers command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/khankhulgun/maplayers/config"
	"github.com/khankhulgun/maplayers/database"
	"github.com/khankhulgun/maplayers/database/migrations"
	"github.com/khankhulgun/maplayers/database/seeds"
	"github.com/khankhulgun/maplayers/engine"
	"github.com/khankhulgun/maplayers/logging"
	"github.com/khankhulgun/maplayers/maplayer"
	"github.com/khankhulgun/maplayers/models"
	"github.com/khankhulgun/maplayers/sprite"
)

// Version is reported by --version. Overridden with -ldflags at build time.
var Version = "dev"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// spriteName is where the overlay sprite sheet is written, relative to the public dir.
const spriteName = "sprite/overlays"

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	// EnvFiles are read before the environment; missing files are skipped.
	EnvFiles []string

	verbose bool
}

func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:   logging.New(w, level),
		EnvFiles: []string{".env"},
	}
}

func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "maplayers",
		Short:        "Base style and overlay visibility service for Mapbox maps",
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(logging.WithLogger(cmd.Context(), c.Logger))
		},
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringSliceVar(&c.EnvFiles, "env", c.EnvFiles, "env files to read before the environment")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.migrateCommand())
	root.AddCommand(c.seedCommand())
	root.AddCommand(c.spriteCommand())
	root.AddCommand(c.menuCommand())

	return root
}

// loadConfig reads the configuration and applies its log level unless
// --verbose already raised it.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.EnvFiles...)
	if err != nil {
		return config.Config{}, err
	}
	if !c.verbose {
		c.SetLogLevel(logging.ParseLevel(cfg.LogLevel))
	}
	return cfg, nil
}

// openDB connects and, as configured, migrates and seeds.
func (c *CLI) openDB(ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.DBDialect, cfg.DBDSN, logging.FromContext(ctx))
	if err != nil {
		return nil, err
	}
	if cfg.Migrate {
		if err := migrations.Migrate(db); err != nil {
			return nil, err
		}
	}
	if cfg.Seed {
		if err := seeds.Seed(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func (c *CLI) loadOverlays(ctx context.Context, cfg config.Config) (*maplayer.Store, []models.OverlayLayer, error) {
	db, err := c.openDB(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := maplayer.NewStore(db, cfg.CacheTTL)
	if err != nil {
		return nil, nil, err
	}
	overlays, err := store.Overlays(ctx)
	if err != nil {
		return nil, nil, err
	}
	logging.FromContext(ctx).Debug("overlays loaded", "count", len(overlays))
	return store, overlays, nil
}

func (c *CLI) loader(ctx context.Context, cfg config.Config) (engine.Loader, error) {
	if cfg.MapboxToken == "" {
		logging.FromContext(ctx).Warn("no mapbox token, serving overlays on empty base styles")
		return engine.StaticLoader, nil
	}
	return engine.NewMapboxLoader(cfg.MapboxToken, cfg.StyleCacheTTL)
}

// newLayers builds the controller and attaches a headless engine to it.
func (c *CLI) newLayers(ctx context.Context, cfg config.Config, overlays []models.OverlayLayer) (*maplayer.Controller, error) {
	logger := logging.FromContext(ctx)
	loader, err := c.loader(ctx, cfg)
	if err != nil {
		return nil, err
	}
	layers, err := maplayer.NewController(maplayer.Options{
		BaseStyle: cfg.Style(),
		Overlays:  overlays,
		Engine:    cfg.EngineOptions(),
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	layers.Init(engine.HeadlessFactory(loader, logger))
	if layers.Engine() == nil {
		return nil, fmt.Errorf("map engine did not start")
	}
	return layers, nil
}

// buildSprite writes the overlay sprite sheet into the public dir and returns
// its URL, or "" when no overlay has an icon.
func (c *CLI) buildSprite(ctx context.Context, cfg config.Config, overlays []models.OverlayLayer) (string, error) {
	n, err := sprite.BuildForOverlays(overlays, cfg.SpriteDir, filepath.Join(cfg.PublicDir, spriteName))
	if err != nil {
		return "", err
	}
	logging.FromContext(ctx).Debug("sprite built", "icons", n)
	if n == 0 {
		return "", nil
	}
	return "/" + spriteName, nil
}
