package models

import (
	"fmt"
	"strings"
)

// BaseStyle is one of the fixed Mapbox base map styles a user can pick.
type BaseStyle string

const (
	Satellite  BaseStyle = "satellite"
	Streets    BaseStyle = "streets"
	Outdoors   BaseStyle = "outdoors"
	Light      BaseStyle = "light"
	Dark       BaseStyle = "dark"
	Navigation BaseStyle = "navigation"
)

const styleURLPrefix = "mapbox://styles/"

type baseStyleOption struct {
	style BaseStyle
	id    string
	label string
}

// menu order
var baseStyleOptions = []baseStyleOption{
	{Satellite, "mapbox/satellite-streets-v12", "Satellite"},
	{Streets, "mapbox/streets-v12", "Street"},
	{Outdoors, "mapbox/outdoors-v11", "Outdoors"},
	{Light, "mapbox/light-v10", "Light"},
	{Dark, "mapbox/dark-v10", "Dark"},
	{Navigation, "mapbox/navigation-day-v1", "Navigation"},
}

// DefaultBaseStyle is selected when nothing else is configured.
const DefaultBaseStyle = Satellite

// BaseStyles returns every style in menu order.
func BaseStyles() []BaseStyle {
	styles := make([]BaseStyle, len(baseStyleOptions))
	for i, o := range baseStyleOptions {
		styles[i] = o.style
	}
	return styles
}

func (s BaseStyle) option() (baseStyleOption, bool) {
	for _, o := range baseStyleOptions {
		if o.style == s {
			return o, true
		}
	}
	return baseStyleOption{}, false
}

// Valid reports whether s is one of the enumerated styles.
func (s BaseStyle) Valid() bool {
	_, ok := s.option()
	return ok
}

// MapboxID returns the owner/name pair, e.g. "mapbox/dark-v10".
func (s BaseStyle) MapboxID() string {
	o, _ := s.option()
	return o.id
}

func (s BaseStyle) Label() string {
	o, _ := s.option()
	return o.label
}

// URL returns the mapbox:// style URL handed to the engine.
func (s BaseStyle) URL() string {
	if !s.Valid() {
		return ""
	}
	return styleURLPrefix + s.MapboxID()
}

// ParseBaseStyle accepts a short name ("dark"), a Mapbox id ("mapbox/dark-v10")
// or a style URL ("mapbox://styles/mapbox/dark-v10").
func ParseBaseStyle(value string) (BaseStyle, error) {
	v := strings.TrimSpace(value)
	v = strings.TrimPrefix(v, styleURLPrefix)
	for _, o := range baseStyleOptions {
		if strings.EqualFold(v, string(o.style)) || v == o.id {
			return o.style, nil
		}
	}
	return "", fmt.Errorf("unknown base style %q", value)
}

// BaseStyleFromURL is the inverse of BaseStyle.URL.
func BaseStyleFromURL(url string) (BaseStyle, bool) {
	if !strings.HasPrefix(url, styleURLPrefix) {
		return "", false
	}
	s, err := ParseBaseStyle(url)
	return s, err == nil
}

// BaseStyleOption is the menu entry sent to clients.
type BaseStyleOption struct {
	Value BaseStyle `json:"value"`
	ID    string    `json:"id"`
	Label string    `json:"label"`
}

func BaseStyleOptions() []BaseStyleOption {
	out := make([]BaseStyleOption, len(baseStyleOptions))
	for i, o := range baseStyleOptions {
		out[i] = BaseStyleOption{Value: o.style, ID: o.id, Label: o.label}
	}
	return out
}
