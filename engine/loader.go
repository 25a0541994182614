package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/gofiber/fiber/v2"

	"github.com/khankhulgun/maplayers/models"
)

// Loader fetches the base style document behind a style URL.
type Loader interface {
	Load(ctx context.Context, styleURL string) (models.StyleDocument, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, styleURL string) (models.StyleDocument, error)

func (f LoaderFunc) Load(ctx context.Context, styleURL string) (models.StyleDocument, error) {
	return f(ctx, styleURL)
}

// StaticLoader returns an empty base document for every style. Used when no
// access token is configured.
var StaticLoader = LoaderFunc(func(_ context.Context, styleURL string) (models.StyleDocument, error) {
	return emptyStyle(styleURL), nil
})

func emptyStyle(styleURL string) models.StyleDocument {
	return models.StyleDocument{
		Version: 8,
		Name:    styleURL,
		Sources: map[string]json.RawMessage{},
		Layers:  []json.RawMessage{},
	}
}

const mapboxStylesAPI = "https://api.mapbox.com/styles/v1/"

// MapboxLoader reads styles from the Mapbox Styles API and caches them.
type MapboxLoader struct {
	AccessToken string
	BaseURL     string
	Timeout     time.Duration
	TTL         time.Duration

	cache *ristretto.Cache
}

func NewMapboxLoader(accessToken string, ttl time.Duration) (*MapboxLoader, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     64 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("style cache: %w", err)
	}
	return &MapboxLoader{
		AccessToken: accessToken,
		BaseURL:     mapboxStylesAPI,
		Timeout:     10 * time.Second,
		TTL:         ttl,
		cache:       cache,
	}, nil
}

// RequestURL turns mapbox://styles/owner/id into a Styles API request.
func (l *MapboxLoader) RequestURL(styleURL string) (string, error) {
	path, ok := strings.CutPrefix(styleURL, "mapbox://styles/")
	if !ok || strings.Count(path, "/") != 1 {
		return "", fmt.Errorf("not a mapbox style url: %q", styleURL)
	}
	return l.BaseURL + path + "?access_token=" + url.QueryEscape(l.AccessToken), nil
}

func (l *MapboxLoader) Load(ctx context.Context, styleURL string) (models.StyleDocument, error) {
	if cached, found := l.cache.Get(styleURL); found {
		if doc, ok := cached.(models.StyleDocument); ok {
			return doc, nil
		}
	}

	reqURL, err := l.RequestURL(styleURL)
	if err != nil {
		return models.StyleDocument{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.StyleDocument{}, err
	}

	agent := fiber.Get(reqURL)
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(l.Timeout)
	}
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return models.StyleDocument{}, fmt.Errorf("fetch %s: %w", styleURL, errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return models.StyleDocument{}, fmt.Errorf("fetch %s: status %d", styleURL, code)
	}

	var doc models.StyleDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return models.StyleDocument{}, fmt.Errorf("decode %s: %w", styleURL, err)
	}
	if doc.Sources == nil {
		doc.Sources = map[string]json.RawMessage{}
	}

	l.cache.SetWithTTL(styleURL, doc, int64(len(body)), l.TTL)
	l.cache.Wait()

	return doc, nil
}
