package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/khankhulgun/maplayers/models"
)

// Headless keeps the engine state on the server. Clients fetch the composed
// style document through Style.
type Headless struct {
	loader      Loader
	logger      *log.Logger
	opts        Options
	loadTimeout time.Duration

	mu         sync.Mutex
	generation uint64
	loading    bool
	styleURL   string
	base       models.StyleDocument
	baseLayers []map[string]any
	sources    map[string]models.Source
	layers     []models.LayerDefinition
	handlers   []func()
}

func NewHeadless(loader Loader, logger *log.Logger, opts Options) *Headless {
	if loader == nil {
		loader = StaticLoader
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Headless{
		loader:      loader,
		logger:      logger,
		opts:        opts,
		loadTimeout: 15 * time.Second,
		sources:     map[string]models.Source{},
	}
}

// HeadlessFactory builds a Factory creating headless engines. The initial style
// in opts is left for the caller to set once handlers are registered.
func HeadlessFactory(loader Loader, logger *log.Logger) Factory {
	return func(opts Options) (Engine, error) {
		return NewHeadless(loader, logger, opts), nil
	}
}

func (h *Headless) SetStyle(styleURL string) {
	h.mu.Lock()
	h.generation++
	gen := h.generation
	h.loading = true
	h.styleURL = styleURL
	h.base = models.StyleDocument{}
	h.baseLayers = nil
	h.sources = map[string]models.Source{}
	h.layers = nil
	h.mu.Unlock()

	h.logger.Debug("style requested", "url", styleURL, "generation", gen)
	go h.load(gen, styleURL)
}

func (h *Headless) load(gen uint64, styleURL string) {
	ctx, cancel := context.WithTimeout(context.Background(), h.loadTimeout)
	defer cancel()

	doc, err := h.loader.Load(ctx, styleURL)
	if err != nil {
		h.logger.Warn("base style unavailable, continuing without it", "url", styleURL, "err", err)
		doc = emptyStyle(styleURL)
	}

	baseLayers := make([]map[string]any, 0, len(doc.Layers))
	for _, raw := range doc.Layers {
		var layer map[string]any
		if err := json.Unmarshal(raw, &layer); err != nil {
			h.logger.Warn("skipping malformed base layer", "url", styleURL, "err", err)
			continue
		}
		baseLayers = append(baseLayers, layer)
	}

	h.mu.Lock()
	if gen != h.generation {
		h.mu.Unlock()
		h.logger.Debug("discarding superseded style", "url", styleURL, "generation", gen)
		return
	}
	h.loading = false
	h.base = doc
	h.baseLayers = baseLayers
	handlers := append([]func(){}, h.handlers...)
	h.mu.Unlock()

	h.logger.Debug("style loaded", "url", styleURL, "baseLayers", len(baseLayers))
	for _, fn := range handlers {
		fn()
	}
}

func (h *Headless) OnStyleLoad(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers = append(h.handlers, fn)
}

func (h *Headless) AddSource(id string, source models.Source) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loading {
		return fmt.Errorf("add source %s: %w", id, ErrStyleLoading)
	}
	h.sources[id] = source
	return nil
}

func (h *Headless) AddLayer(layer models.LayerDefinition) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loading {
		return fmt.Errorf("add layer %s: %w", layer.ID, ErrStyleLoading)
	}
	if _, ok := h.sources[layer.Source]; !ok {
		if _, ok := h.base.Sources[layer.Source]; !ok {
			return fmt.Errorf("add layer %s: source %s: %w", layer.ID, layer.Source, ErrSourceNotFound)
		}
	}
	if layer.Layout == nil {
		layer.Layout = map[string]any{}
	}
	for i := range h.layers {
		if h.layers[i].ID == layer.ID {
			h.layers[i] = layer
			return nil
		}
	}
	h.layers = append(h.layers, layer)
	return nil
}

func (h *Headless) layout(layerID string) (map[string]any, bool) {
	for i := range h.layers {
		if h.layers[i].ID == layerID {
			return h.layers[i].Layout, true
		}
	}
	for _, layer := range h.baseLayers {
		if layer["id"] != layerID {
			continue
		}
		layout, ok := layer["layout"].(map[string]any)
		if !ok {
			layout = map[string]any{}
			layer["layout"] = layout
		}
		return layout, true
	}
	return nil, false
}

func (h *Headless) GetLayoutProperty(layerID, name string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loading {
		return "", false
	}
	layout, ok := h.layout(layerID)
	if !ok {
		return "", false
	}
	v, ok := layout[name].(string)
	return v, ok
}

func (h *Headless) SetLayoutProperty(layerID, name, value string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loading {
		return fmt.Errorf("set %s on %s: %w", name, layerID, ErrStyleLoading)
	}
	layout, ok := h.layout(layerID)
	if !ok {
		return fmt.Errorf("set %s on %s: %w", name, layerID, ErrLayerNotFound)
	}
	layout[name] = value
	return nil
}

func (h *Headless) HasLayer(layerID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loading {
		return false
	}
	_, ok := h.layout(layerID)
	return ok
}

func (h *Headless) LayerIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, len(h.layers))
	for i, l := range h.layers {
		ids[i] = l.ID
	}
	return ids
}

// Loading reports whether a style swap is in flight.
func (h *Headless) Loading() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loading
}

// Style composes the current base style with every overlay on top of it.
func (h *Headless) Style() (models.StyleDocument, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loading {
		return models.StyleDocument{}, ErrStyleLoading
	}

	doc := h.base
	if doc.Version == 0 {
		doc.Version = 8
	}
	if doc.Name == "" {
		doc.Name = h.styleURL
	}
	if doc.Center == nil {
		doc.Center = h.opts.Center
	}
	if doc.Zoom == 0 {
		doc.Zoom = h.opts.Zoom
	}

	doc.Sources = make(map[string]json.RawMessage, len(h.base.Sources)+len(h.sources))
	for id, raw := range h.base.Sources {
		doc.Sources[id] = raw
	}
	for id, src := range h.sources {
		raw, err := json.Marshal(src)
		if err != nil {
			return models.StyleDocument{}, fmt.Errorf("encode source %s: %w", id, err)
		}
		doc.Sources[id] = raw
	}

	doc.Layers = make([]json.RawMessage, 0, len(h.baseLayers)+len(h.layers))
	for _, layer := range h.baseLayers {
		raw, err := json.Marshal(layer)
		if err != nil {
			return models.StyleDocument{}, fmt.Errorf("encode base layer: %w", err)
		}
		doc.Layers = append(doc.Layers, raw)
	}
	for _, layer := range h.layers {
		raw, err := json.Marshal(layer)
		if err != nil {
			return models.StyleDocument{}, fmt.Errorf("encode layer %s: %w", layer.ID, err)
		}
		doc.Layers = append(doc.Layers, raw)
	}
	return doc, nil
}
