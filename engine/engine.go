// Package engine defines the map rendering engine the layer controller drives,
// and a headless implementation that projects engine state into a Mapbox GL
// style document.
//
// An engine wipes every source and layer added on top of a style whenever
// SetStyle is called, and reports through OnStyleLoad once the new style is
// ready to be mutated again.
package engine

import (
	"errors"

	"github.com/khankhulgun/maplayers/models"
)

var (
	// ErrStyleLoading is returned for reads and writes between SetStyle and the
	// following style-load event.
	ErrStyleLoading = errors.New("style is loading")

	ErrLayerNotFound  = errors.New("layer not found")
	ErrSourceNotFound = errors.New("source not found")
)

// Engine is the rendering engine contract. Implementations overwrite on
// duplicate source or layer ids.
type Engine interface {
	// SetStyle swaps the base style. A style-load event follows asynchronously.
	SetStyle(styleURL string)
	AddSource(id string, source models.Source) error
	AddLayer(layer models.LayerDefinition) error
	// GetLayoutProperty reports false when the layer or the property is missing.
	GetLayoutProperty(layerID, name string) (string, bool)
	SetLayoutProperty(layerID, name, value string) error
	HasLayer(layerID string) bool
	// LayerIDs lists the layers added on top of the current style.
	LayerIDs() []string
	OnStyleLoad(fn func())
}

// Options are handed to a Factory once per map session.
type Options struct {
	AccessToken string
	Container   string
	StyleURL    string
	Center      []float64
	Zoom        float64
}

// Factory creates the engine for a session.
type Factory func(opts Options) (Engine, error)
