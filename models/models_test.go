package models

import (
	"encoding/json"
	"testing"
)

func TestParseBaseStyle(t *testing.T) {
	tests := []struct {
		in      string
		want    BaseStyle
		wantErr bool
	}{
		{in: "dark", want: Dark},
		{in: "Streets", want: Streets},
		{in: "mapbox/navigation-day-v1", want: Navigation},
		{in: "mapbox://styles/mapbox/satellite-streets-v12", want: Satellite},
		{in: " outdoors ", want: Outdoors},
		{in: "mapbox/streets-v11", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBaseStyle(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBaseStyle(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBaseStyle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBaseStyleURLRoundTrip(t *testing.T) {
	for _, s := range BaseStyles() {
		got, ok := BaseStyleFromURL(s.URL())
		if !ok || got != s {
			t.Errorf("BaseStyleFromURL(%q) = %q, %v", s.URL(), got, ok)
		}
	}
	if BaseStyle("sepia").URL() != "" {
		t.Error("unknown style should have no URL")
	}
}

func TestOverlayLayerDefinitionDropsVisibility(t *testing.T) {
	o := OverlayLayer{
		ID: "route",
		Style: OverlayStyle{
			Type:   "line",
			Layout: map[string]any{"line-join": "round", VisibilityProperty: None},
			Paint:  map[string]any{"line-color": "#33bb6a"},
		},
	}

	def := o.LayerDefinition()
	if def.Source != "route" || def.ID != "route" {
		t.Errorf("definition ids = %q/%q, want route/route", def.ID, def.Source)
	}
	if _, ok := def.Visibility(); ok {
		t.Error("layer definition should not carry a visibility")
	}
	if def.Layout["line-join"] != "round" {
		t.Error("layout properties should be passed through")
	}
}

func TestValidate(t *testing.T) {
	line := json.RawMessage(`{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]}}`)

	tests := []struct {
		name    string
		overlay OverlayLayer
		wantErr bool
	}{
		{
			name:    "feature",
			overlay: OverlayLayer{ID: "route", Source: line, Style: OverlayStyle{Type: "line"}},
		},
		{
			name:    "bare geometry",
			overlay: OverlayLayer{ID: "p", Source: json.RawMessage(`{"type":"Point","coordinates":[1,2]}`), Style: OverlayStyle{Type: "circle"}},
		},
		{
			name:    "collection",
			overlay: OverlayLayer{ID: "c", Source: json.RawMessage(`{"type":"FeatureCollection","features":[]}`), Style: OverlayStyle{Type: "fill"}},
		},
		{
			name:    "missing id",
			overlay: OverlayLayer{Source: line, Style: OverlayStyle{Type: "line"}},
			wantErr: true,
		},
		{
			name:    "unknown layer type",
			overlay: OverlayLayer{ID: "route", Source: line, Style: OverlayStyle{Type: "raster-dem"}},
			wantErr: true,
		},
		{
			name:    "not geojson",
			overlay: OverlayLayer{ID: "route", Source: json.RawMessage(`{"foo":1}`), Style: OverlayStyle{Type: "line"}},
			wantErr: true,
		},
		{
			name:    "empty source",
			overlay: OverlayLayer{ID: "route", Style: OverlayStyle{Type: "line"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.overlay.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
