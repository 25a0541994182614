// Package enginetest provides an in-memory engine whose style-load events are
// fired by hand.
package enginetest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/khankhulgun/maplayers/engine"
	"github.com/khankhulgun/maplayers/models"
)

// Fake records every call. SetStyle wipes added sources and layers and leaves
// the engine loading until FireStyleReady is called.
type Fake struct {
	mu       sync.Mutex
	styleURL string
	loading  bool
	sources  map[string]models.Source
	layers   map[string]models.LayerDefinition
	order    []string
	native   map[string]map[string]string
	handlers []func()

	Calls []string
}

var _ engine.Engine = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		sources: map[string]models.Source{},
		layers:  map[string]models.LayerDefinition{},
		native:  map[string]map[string]string{},
	}
}

// Factory returns a factory that hands out f and counts invocations.
func (f *Fake) Factory(calls *int) engine.Factory {
	return func(opts engine.Options) (engine.Engine, error) {
		if calls != nil {
			*calls++
		}
		return f, nil
	}
}

// AddNativeLayer adds a layer that belongs to the base style. Native layers
// survive style swaps.
func (f *Fake) AddNativeLayer(id, visibility string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	layout := map[string]string{}
	if visibility != "" {
		layout[models.VisibilityProperty] = visibility
	}
	f.native[id] = layout
}

func (f *Fake) record(format string, args ...any) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

func (f *Fake) SetStyle(styleURL string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetStyle %s", styleURL)
	f.styleURL = styleURL
	f.loading = true
	f.sources = map[string]models.Source{}
	f.layers = map[string]models.LayerDefinition{}
	f.order = nil
}

// FireStyleReady ends the loading window and runs the style-load handlers.
func (f *Fake) FireStyleReady() {
	f.mu.Lock()
	f.loading = false
	handlers := append([]func(){}, f.handlers...)
	f.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

func (f *Fake) OnStyleLoad(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, fn)
}

func (f *Fake) AddSource(id string, source models.Source) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AddSource %s", id)
	if f.loading {
		return engine.ErrStyleLoading
	}
	f.sources[id] = source
	return nil
}

func (f *Fake) AddLayer(layer models.LayerDefinition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AddLayer %s", layer.ID)
	if f.loading {
		return engine.ErrStyleLoading
	}
	if _, ok := f.sources[layer.Source]; !ok {
		return engine.ErrSourceNotFound
	}
	if layer.Layout == nil {
		layer.Layout = map[string]any{}
	}
	if _, ok := f.layers[layer.ID]; !ok {
		f.order = append(f.order, layer.ID)
	}
	f.layers[layer.ID] = layer
	return nil
}

func (f *Fake) GetLayoutProperty(layerID, name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetLayoutProperty %s %s", layerID, name)
	if f.loading {
		return "", false
	}
	if layer, ok := f.layers[layerID]; ok {
		v, ok := layer.Layout[name].(string)
		return v, ok
	}
	if layout, ok := f.native[layerID]; ok {
		v, ok := layout[name]
		return v, ok
	}
	return "", false
}

func (f *Fake) SetLayoutProperty(layerID, name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetLayoutProperty %s %s %s", layerID, name, value)
	if f.loading {
		return engine.ErrStyleLoading
	}
	if layer, ok := f.layers[layerID]; ok {
		layer.Layout[name] = value
		return nil
	}
	if layout, ok := f.native[layerID]; ok {
		layout[name] = value
		return nil
	}
	return engine.ErrLayerNotFound
}

func (f *Fake) HasLayer(layerID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loading {
		return false
	}
	_, overlay := f.layers[layerID]
	_, native := f.native[layerID]
	return overlay || native
}

// LayerIDs returns the added layers in insertion order.
func (f *Fake) LayerIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

// SortedLayerIDs is LayerIDs sorted, for set comparisons.
func (f *Fake) SortedLayerIDs() []string {
	ids := f.LayerIDs()
	sort.Strings(ids)
	return ids
}

func (f *Fake) StyleURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.styleURL
}

func (f *Fake) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Visibility reads a layer's visibility without recording a call.
func (f *Fake) Visibility(layerID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if layer, ok := f.layers[layerID]; ok {
		v, _ := layer.Layout[models.VisibilityProperty].(string)
		return v
	}
	return f.native[layerID][models.VisibilityProperty]
}

// ResetCalls clears the recorded calls.
func (f *Fake) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = nil
}
