// Package overlay re-creates overlay sources and layers on an engine after a
// style swap has wiped them.
package overlay

import (
	"errors"
	"fmt"

	"github.com/khankhulgun/maplayers/engine"
	"github.com/khankhulgun/maplayers/models"
)

// Op identifies an engine command.
type Op int

const (
	AddSource Op = iota
	AddLayer
	SetVisibility
)

func (o Op) String() string {
	switch o {
	case AddSource:
		return "add-source"
	case AddLayer:
		return "add-layer"
	case SetVisibility:
		return "set-visibility"
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Command is one engine call produced by Plan. Only the fields relevant to Op
// are set.
type Command struct {
	Op         Op
	ID         string
	Source     models.Source
	Layer      models.LayerDefinition
	Visibility string
}

func (c Command) String() string {
	if c.Op == SetVisibility {
		return fmt.Sprintf("%s %s %s", c.Op, c.ID, c.Visibility)
	}
	return fmt.Sprintf("%s %s", c.Op, c.ID)
}

// Plan lists the commands that rebuild descriptors on a freshly loaded style:
// source, layer, then visibility, per descriptor in list order. Visibility is
// read from the descriptors as they are now.
func Plan(descriptors []models.OverlayLayer) []Command {
	cmds := make([]Command, 0, len(descriptors)*3)
	for _, d := range descriptors {
		cmds = append(cmds,
			Command{Op: AddSource, ID: d.ID, Source: d.SourceDefinition()},
			Command{Op: AddLayer, ID: d.ID, Layer: d.LayerDefinition()},
			Command{Op: SetVisibility, ID: d.ID, Visibility: models.VisibilityValue(d.Visible)},
		)
	}
	return cmds
}

// Apply runs cmds against e. A failing command skips the rest of that
// overlay's commands; other overlays are still applied.
func Apply(e engine.Engine, cmds []Command) error {
	var errs []error
	failed := map[string]bool{}
	for _, c := range cmds {
		if failed[c.ID] {
			continue
		}
		var err error
		switch c.Op {
		case AddSource:
			err = e.AddSource(c.ID, c.Source)
		case AddLayer:
			err = e.AddLayer(c.Layer)
		case SetVisibility:
			err = e.SetLayoutProperty(c.ID, models.VisibilityProperty, c.Visibility)
		default:
			err = fmt.Errorf("unknown op %s", c.Op)
		}
		if err != nil {
			failed[c.ID] = true
			errs = append(errs, fmt.Errorf("%s: %w", c, err))
		}
	}
	return errors.Join(errs...)
}

// Reconcile mirrors descriptors onto e. Re-running it on the same style
// overwrites what is there, so duplicate style-load events are harmless.
func Reconcile(e engine.Engine, descriptors []models.OverlayLayer) error {
	return Apply(e, Plan(descriptors))
}
