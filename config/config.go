// Package config reads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/khankhulgun/maplayers/engine"
	"github.com/khankhulgun/maplayers/models"
)

// Prefix is prepended to every variable name. Unprefixed names are read as a
// fallback, so MAPBOX_TOKEN works as well as MAPLAYERS_MAPBOX_TOKEN.
const Prefix = "MAPLAYERS"

type Config struct {
	MapboxToken string    `envconfig:"MAPBOX_TOKEN"`
	Container   string    `envconfig:"CONTAINER" default:"map"`
	BaseStyle   string    `envconfig:"BASE_STYLE" default:"satellite"`
	Center      []float64 `envconfig:"CENTER" default:"0,0"`
	Zoom        float64   `envconfig:"ZOOM" default:"16"`

	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"`
	PublicDir string `envconfig:"PUBLIC_DIR" default:"./public"`
	SpriteDir string `envconfig:"SPRITE_DIR" default:"./public/icons"`
	// GlyphsUpstream serves font ranges missing from PUBLIC_DIR/fonts. Empty disables fetching.
	GlyphsUpstream string `envconfig:"GLYPHS_UPSTREAM" default:"https://fonts.openmaptiles.org"`

	DBDialect string `envconfig:"DB_DIALECT" default:"sqlite"`
	DBDSN     string `envconfig:"DB_DSN" default:"maplayers.db"`
	Migrate   bool   `envconfig:"MIGRATE" default:"true"`
	Seed      bool   `envconfig:"SEED" default:"false"`

	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"`
	StyleCacheTTL time.Duration `envconfig:"STYLE_CACHE_TTL" default:"1h"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"60m"`
}

// Load reads envFiles (missing files are skipped) and then the environment.
// Variables already set in the environment win over the files.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read %s: %w", f, err)
		}
	}

	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if _, err := models.ParseBaseStyle(c.BaseStyle); err != nil {
		return fmt.Errorf("%s_BASE_STYLE: %w", Prefix, err)
	}
	if len(c.Center) != 2 {
		return fmt.Errorf("%s_CENTER: want lon,lat, got %v", Prefix, c.Center)
	}
	if c.Center[0] < -180 || c.Center[0] > 180 || c.Center[1] < -90 || c.Center[1] > 90 {
		return fmt.Errorf("%s_CENTER: %v out of range", Prefix, c.Center)
	}
	if c.Zoom < 0 || c.Zoom > 24 {
		return fmt.Errorf("%s_ZOOM: %v out of range", Prefix, c.Zoom)
	}
	return nil
}

// Style is the initial base style. Load has already validated it.
func (c Config) Style() models.BaseStyle {
	s, err := models.ParseBaseStyle(c.BaseStyle)
	if err != nil {
		return models.DefaultBaseStyle
	}
	return s
}

// EngineOptions are handed through to the map engine once.
func (c Config) EngineOptions() engine.Options {
	return engine.Options{
		AccessToken: c.MapboxToken,
		Container:   c.Container,
		StyleURL:    c.Style().URL(),
		Center:      append([]float64(nil), c.Center...),
		Zoom:        c.Zoom,
	}
}
