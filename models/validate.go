package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb/geojson"
)

var layerTypes = map[string]bool{
	"fill":           true,
	"line":           true,
	"symbol":         true,
	"circle":         true,
	"heatmap":        true,
	"fill-extrusion": true,
}

// Validate checks that an overlay can be provisioned. The payloads stay opaque;
// only their outer shape is checked.
func (o OverlayLayer) Validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return errors.New("overlay id is required")
	}
	if !layerTypes[o.Style.Type] {
		return fmt.Errorf("overlay %s: unsupported layer type %q", o.ID, o.Style.Type)
	}
	return ValidateGeoJSON(o.Source)
}

// ValidateGeoJSON accepts a Feature, FeatureCollection or bare Geometry.
func ValidateGeoJSON(data json.RawMessage) error {
	if len(data) == 0 {
		return errors.New("source data is empty")
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("source data is not json: %w", err)
	}

	var err error
	switch head.Type {
	case "Feature":
		_, err = geojson.UnmarshalFeature(data)
	case "FeatureCollection":
		_, err = geojson.UnmarshalFeatureCollection(data)
	case "":
		return errors.New("source data has no geojson type")
	default:
		_, err = geojson.UnmarshalGeometry(data)
	}
	if err != nil {
		return fmt.Errorf("invalid geojson %s: %w", head.Type, err)
	}
	return nil
}
