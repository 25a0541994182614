// Package maplayer holds the layer visibility controller: the selected base
// style, the overlay descriptors and their visibility flags. The map engine is
// a projection of this state and is rebuilt from it after every style swap.
package maplayer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/khankhulgun/maplayers/engine"
	"github.com/khankhulgun/maplayers/models"
	"github.com/khankhulgun/maplayers/overlay"
)

// Options configure a Controller.
type Options struct {
	BaseStyle models.BaseStyle
	Overlays  []models.OverlayLayer
	// Engine is passed to the engine factory once, with StyleURL filled in.
	Engine engine.Options
	Logger *log.Logger
}

// Controller serializes commands and style-load handling with a single mutex.
type Controller struct {
	logger     *log.Logger
	engineOpts engine.Options
	initOnce   sync.Once

	mu         sync.Mutex
	engine     engine.Engine
	style      models.BaseStyle
	overlays   []models.OverlayLayer
	allVisible bool
	reloading  bool
}

// State is what menus render.
type State struct {
	BaseStyle   models.BaseStyle       `json:"base_style"`
	AllVisible  bool                   `json:"all_visible"`
	Overlays    []models.OverlayStatus `json:"overlays"`
	EngineReady bool                   `json:"engine_ready"`
	Reloading   bool                   `json:"reloading"`
}

func NewController(opts Options) (*Controller, error) {
	style := opts.BaseStyle
	if style == "" {
		style = models.DefaultBaseStyle
	}
	if !style.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	c := &Controller{
		logger:     logger.With("component", "layers"),
		engineOpts: opts.Engine,
		style:      style,
		allVisible: true,
	}
	for _, o := range opts.Overlays {
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOverlay, err)
		}
		c.put(o)
	}
	c.recomputeAllVisible()
	return c, nil
}

// Init creates the engine on first call and ignores every later call. Commands
// issued before it completes are no-ops.
func (c *Controller) Init(factory engine.Factory) {
	c.initOnce.Do(func() {
		c.mu.Lock()
		opts := c.engineOpts
		opts.StyleURL = c.style.URL()
		c.mu.Unlock()

		e, err := factory(opts)
		if err != nil {
			c.logger.Error("map engine initialization failed", "err", err)
			return
		}
		c.attach(e)
	})
}

func (c *Controller) attach(e engine.Engine) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.engine = e
	c.reloading = true
	e.OnStyleLoad(c.HandleStyleReady)
	e.SetStyle(c.style.URL())
	c.logger.Info("map engine attached", "style", c.style)
}

// Engine returns the attached engine, or nil before Init completes.
func (c *Controller) Engine() engine.Engine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine
}

// SelectBaseStyle swaps the base style. Overlays are restored by the
// reconciliation that follows the engine's style-load event.
func (c *Controller) SelectBaseStyle(style models.BaseStyle) error {
	if !style.Valid() {
		c.logger.Warn("rejected base style", "style", style)
		return fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.engine == nil {
		c.logger.Debug("base style ignored, engine not ready", "style", style)
		return ErrEngineNotReady
	}

	c.style = style
	c.reloading = true
	c.engine.SetStyle(style.URL())
	c.logger.Info("base style selected", "style", style)
	return nil
}

// Resolve tags id as a tracked overlay or an engine-native layer.
func (c *Controller) Resolve(id string) OverlayReference {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolve(id)
}

func (c *Controller) resolve(id string) OverlayReference {
	if c.index(id) >= 0 {
		return OverlayReference{ID: id, Kind: Tracked}
	}
	return OverlayReference{ID: id, Kind: EngineNative}
}

// SetOverlayVisibility shows or hides a tracked overlay. For an id the
// controller does not track, the engine's current visibility is flipped and
// visible is ignored.
func (c *Controller) SetOverlayVisibility(id string, visible bool) error {
	_, err := c.SetVisibility(id, visible)
	return err
}

// SetVisibility is SetOverlayVisibility that also reports how id was resolved.
// The reference is the one the command acted on.
func (c *Controller) SetVisibility(id string, visible bool) (OverlayReference, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ref := c.resolve(id)
	if c.engine == nil {
		c.logger.Debug("visibility ignored, engine not ready", "id", id)
		return ref, ErrEngineNotReady
	}
	if c.reloading {
		c.logger.Debug("visibility dropped during style swap", "id", id)
		return ref, ErrReconciling
	}

	switch ref.Kind {
	case Tracked:
		return ref, c.setTracked(ref.ID, visible)
	default:
		return ref, c.flipNative(ref.ID)
	}
}

func (c *Controller) setTracked(id string, visible bool) error {
	value := models.VisibilityValue(visible)
	if err := c.engine.SetLayoutProperty(id, models.VisibilityProperty, value); err != nil {
		c.logger.Warn("overlay visibility not applied", "id", id, "visibility", value, "err", err)
		return err
	}
	c.overlays[c.index(id)].Visible = visible
	c.recomputeAllVisible()
	c.logger.Debug("overlay visibility set", "id", id, "visibility", value)
	return nil
}

func (c *Controller) flipNative(id string) error {
	if !c.engine.HasLayer(id) {
		c.logger.Warn("visibility for unknown layer", "id", id)
		return fmt.Errorf("%w: %s", ErrUnknownOverlay, id)
	}

	// only an explicit "visible" hides; unset or anything else shows
	current, ok := c.engine.GetLayoutProperty(id, models.VisibilityProperty)
	next := models.Visible
	if ok && current == models.Visible {
		next = models.None
	}
	if err := c.engine.SetLayoutProperty(id, models.VisibilityProperty, next); err != nil {
		c.logger.Warn("layer visibility not applied", "id", id, "err", err)
		return err
	}
	c.logger.Debug("engine layer visibility flipped", "id", id, "from", current, "to", next)
	return nil
}

// ToggleAllOverlays flips the aggregate flag and applies it to every tracked overlay.
func (c *Controller) ToggleAllOverlays() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.engine == nil {
		c.logger.Debug("toggle ignored, engine not ready")
		return ErrEngineNotReady
	}
	if c.reloading {
		c.logger.Debug("toggle dropped during style swap")
		return ErrReconciling
	}

	next := !c.allVisible
	value := models.VisibilityValue(next)
	var errs []error
	for i := range c.overlays {
		c.overlays[i].Visible = next
		if err := c.engine.SetLayoutProperty(c.overlays[i].ID, models.VisibilityProperty, value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.overlays[i].ID, err))
		}
	}
	c.allVisible = next

	err := errors.Join(errs...)
	if err != nil {
		c.logger.Warn("toggle partially applied", "err", err)
	}
	c.logger.Debug("all overlays toggled", "visibility", value, "count", len(c.overlays))
	return err
}

// loadingEngine is implemented by engines that can report a pending style load.
type loadingEngine interface {
	Loading() bool
}

// HandleStyleReady rebuilds every overlay on the engine. It is registered as
// the engine's style-load handler. An event for a style that has since been
// superseded leaves the swap pending.
func (c *Controller) HandleStyleReady() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.engine == nil {
		return
	}
	if l, ok := c.engine.(loadingEngine); ok && l.Loading() {
		c.logger.Debug("stale style-load ignored", "style", c.style)
		return
	}
	if err := overlay.Reconcile(c.engine, c.overlays); err != nil {
		if errors.Is(err, engine.ErrStyleLoading) {
			c.logger.Debug("stale style-load ignored", "style", c.style)
			return
		}
		c.logger.Warn("reconciliation incomplete", "style", c.style, "err", err)
	}
	c.reloading = false
	c.logger.Debug("overlays reconciled", "style", c.style, "count", len(c.overlays))
}

// AddOverlay registers a descriptor, replacing one with the same id. When the
// engine is ready the overlay is provisioned right away, otherwise it appears
// with the next reconciliation.
func (c *Controller) AddOverlay(o models.OverlayLayer) error {
	if err := o.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOverlay, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.put(o)
	c.recomputeAllVisible()

	if c.engine == nil || c.reloading {
		c.logger.Debug("overlay queued for next reconciliation", "id", o.ID)
		return nil
	}
	if err := overlay.Reconcile(c.engine, []models.OverlayLayer{o}); err != nil {
		c.logger.Warn("overlay not provisioned", "id", o.ID, "err", err)
		return err
	}
	c.logger.Info("overlay added", "id", o.ID)
	return nil
}

// Overlays returns a copy of the descriptor list.
func (c *Controller) Overlays() []models.OverlayLayer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.OverlayLayer(nil), c.overlays...)
}

func (c *Controller) BaseStyle() models.BaseStyle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.style
}

// AllVisible is the aggregate visibility flag.
func (c *Controller) AllVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allVisible
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	overlays := make([]models.OverlayStatus, len(c.overlays))
	for i, o := range c.overlays {
		overlays[i] = models.OverlayStatus{ID: o.ID, Title: o.Title, Visible: o.Visible}
	}
	return State{
		BaseStyle:   c.style,
		AllVisible:  c.allVisible,
		Overlays:    overlays,
		EngineReady: c.engine != nil,
		Reloading:   c.reloading,
	}
}

func (c *Controller) index(id string) int {
	for i := range c.overlays {
		if c.overlays[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) put(o models.OverlayLayer) {
	if i := c.index(o.ID); i >= 0 {
		c.overlays[i] = o
		return
	}
	c.overlays = append(c.overlays, o)
}

// recomputeAllVisible keeps the aggregate equal to the AND of the flags. With
// no overlays the stored value is kept.
func (c *Controller) recomputeAllVisible() {
	if len(c.overlays) == 0 {
		return
	}
	all := true
	for _, o := range c.overlays {
		all = all && o.Visible
	}
	c.allVisible = all
}
