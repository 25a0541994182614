package models

import "encoding/json"

const (
	// VisibilityProperty is the only layout property the controller drives.
	VisibilityProperty = "visibility"

	Visible = "visible"
	None    = "none"
)

// VisibilityValue maps a flag onto the layout property value.
func VisibilityValue(visible bool) string {
	if visible {
		return Visible
	}
	return None
}

// StyleDocument is a Mapbox GL style as projected by the headless engine.
type StyleDocument struct {
	Version int                        `json:"version"`
	Name    string                     `json:"name,omitempty"`
	Center  []float64                  `json:"center,omitempty"`
	Zoom    float64                    `json:"zoom,omitempty"`
	Sources map[string]json.RawMessage `json:"sources"`
	Sprite  string                     `json:"sprite,omitempty"`
	Glyphs  string                     `json:"glyphs,omitempty"`
	Layers  []json.RawMessage          `json:"layers"`
}

// Source is a GeoJSON source registration.
type Source struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// LayerDefinition is a single style layer.
type LayerDefinition struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Source      string         `json:"source"`
	SourceLayer string         `json:"source-layer,omitempty"`
	Filter      []interface{}  `json:"filter,omitempty"`
	Layout      map[string]any `json:"layout,omitempty"`
	Paint       map[string]any `json:"paint,omitempty"`
}

// Visibility returns the layout visibility, if set.
func (l LayerDefinition) Visibility() (string, bool) {
	v, ok := l.Layout[VisibilityProperty].(string)
	return v, ok
}

type SpriteMeta struct {
	X          int `json:"x"`
	Y          int `json:"y"`
	Width      int `json:"width"`
	Height     int `json:"height"`
	PixelRatio int `json:"pixelRatio"`
}
