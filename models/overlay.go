package models

import (
	"encoding/json"
	"time"
)

// OverlayLayer is an application-injected layer drawn on top of the base style.
// ID is used as the engine source id, the engine layer id and the visibility key.
type OverlayLayer struct {
	ID         string          `gorm:"column:id;primaryKey" json:"id"`
	Title      string          `gorm:"column:title" json:"title"`
	Source     json.RawMessage `gorm:"column:source;type:text;serializer:json" json:"source"`
	Style      OverlayStyle    `gorm:"column:style;type:text;serializer:json" json:"style"`
	Icon       *string         `gorm:"column:icon" json:"icon,omitempty"`
	Visible    bool            `gorm:"column:visible" json:"visible"`
	LayerOrder int             `gorm:"column:layer_order" json:"layer_order"`
	IsActive   bool            `gorm:"column:is_active;default:true" json:"-"`
	CreatedAt  time.Time       `gorm:"column:created_at" json:"-"`
	UpdatedAt  time.Time       `gorm:"column:updated_at" json:"-"`
}

func (o *OverlayLayer) TableName() string {
	return "overlay_layers"
}

// OverlayStyle is the paint/layout declaration passed through to the engine.
type OverlayStyle struct {
	Type   string         `json:"type"`
	Layout map[string]any `json:"layout,omitempty"`
	Paint  map[string]any `json:"paint,omitempty"`
}

// SourceDefinition is what the engine registers for the overlay's data.
func (o OverlayLayer) SourceDefinition() Source {
	return Source{Type: "geojson", Data: o.Source}
}

// LayerDefinition is what the engine registers for drawing the overlay.
// The visibility layout property is left to the caller.
func (o OverlayLayer) LayerDefinition() LayerDefinition {
	layout := make(map[string]any, len(o.Style.Layout))
	for k, v := range o.Style.Layout {
		if k == VisibilityProperty {
			continue
		}
		layout[k] = v
	}
	paint := make(map[string]any, len(o.Style.Paint))
	for k, v := range o.Style.Paint {
		paint[k] = v
	}
	return LayerDefinition{
		ID:     o.ID,
		Type:   o.Style.Type,
		Source: o.ID,
		Layout: layout,
		Paint:  paint,
	}
}

// OverlayStatus is the per-overlay part of the observable state.
type OverlayStatus struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Visible bool   `json:"visible"`
}
