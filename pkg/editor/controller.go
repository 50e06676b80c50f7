// Package editor drives editing of a single photo: effect selection, graph
// rebuilds, previews, zoom, and saving.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"k8s.io/klog/v2"

	"github.com/tstromberg/fotoredo/pkg/config"
	"github.com/tstromberg/fotoredo/pkg/effect"
	"github.com/tstromberg/fotoredo/pkg/notify"
	"github.com/tstromberg/fotoredo/pkg/photo"
)

// State is the controller's edit state.
type State int

const (
	// Viewing shows the photo with the live selection applied.
	Viewing State = iota
	// SelectingEffects has the effect picker open on a pending selection.
	SelectingEffects
)

func (s State) String() string {
	if s == SelectingEffects {
		return "selecting-effects"
	}
	return "viewing"
}

// Property names carried by controller change notifications.
const (
	PropState          = "State"
	PropSelection      = "Selection"
	PropPending        = "PendingSelection"
	PropComposite      = "Composite"
	PropPreview        = "Preview"
	PropPickerPreviews = "PickerPreviews"
	PropZoom           = "Zoom"
)

// Controller edits one photo. Methods are safe to call from multiple
// goroutines, but are meant to be driven from a single UI flow.
type Controller struct {
	cfg   *config.Config
	photo *photo.Photo
	token notify.Token

	mu        sync.Mutex
	state     State
	live      effect.Selection
	pending   effect.Selection
	source    image.Image
	composite *effect.Composite
	rebuilds  int
	batching  int
	closed    bool

	// gen identifies the latest requested render; older renders are dropped.
	gen            uint64
	cancelRender   context.CancelFunc
	preview        image.Image
	pickerPreviews map[effect.Kind]*image.RGBA
	zoom           Zoom

	renders sync.WaitGroup
	changed notify.Notifier
}

// New returns a controller for p and subscribes to its parameter changes.
func New(p *photo.Photo, cfg *config.Config) *Controller {
	c := &Controller{
		cfg:   cfg,
		photo: p,
		zoom:  Zoom{Scale: 1},
	}
	c.token = p.Subscribe(c.photoChanged)
	return c
}

// Photo returns the photo being edited.
func (c *Controller) Photo() *photo.Photo { return c.photo }

// Subscribe registers a handler for controller property changes.
func (c *Controller) Subscribe(h notify.Handler) notify.Token {
	return c.changed.Subscribe(h)
}

// Unsubscribe removes a handler registered with Subscribe.
func (c *Controller) Unsubscribe(t notify.Token) {
	c.changed.Unsubscribe(t)
}

// Load decodes the full-resolution source and builds the graph. It may be run
// in its own goroutine; if the controller is closed first, the result is dropped.
func (c *Controller) Load(ctx context.Context) error {
	img, err := c.photo.Open()
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.SetSource(img)
}

// SetSource binds an already decoded source image and rebuilds.
func (c *Controller) SetSource(img image.Image) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		klog.V(1).Infof("dropping source for closed editor of %s", c.photo.Path())
		return ErrClosed
	}
	c.source = img
	c.mu.Unlock()

	return c.rebuild()
}

// Close detaches from the photo and drops the results of in-flight work.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.cancelRender != nil {
		c.cancelRender()
	}
	c.mu.Unlock()

	c.photo.Unsubscribe(c.token)
}

// Wait blocks until background renders have finished.
func (c *Controller) Wait() {
	c.renders.Wait()
}

// State returns the current edit state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Selection returns the live effect selection.
func (c *Controller) Selection() effect.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// Pending returns the staged selection while selecting effects.
func (c *Controller) Pending() effect.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Composite returns the most recently built graph, or nil before the source is loaded.
func (c *Controller) Composite() *effect.Composite {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.composite
}

// Rebuilds returns how many graph rebuilds have been requested.
func (c *Controller) Rebuilds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rebuilds
}

// Preview returns the latest rendered preview.
func (c *Controller) Preview() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preview
}

// PickerPreviews returns per-effect previews rendered when the picker opened.
func (c *Controller) PickerPreviews() map[effect.Kind]*image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pickerPreviews
}

// SetSelection replaces the live selection outside of a picker session.
func (c *Controller) SetSelection(sel effect.Selection) error {
	c.mu.Lock()
	if c.state != Viewing {
		c.mu.Unlock()
		return fmt.Errorf("set selection while %v", c.state)
	}
	c.live = sel
	c.mu.Unlock()

	c.changed.Notify(PropSelection)
	return c.rebuild()
}

// SelectEffects opens the effect picker on a copy of the live selection.
// Opening does not rebuild.
func (c *Controller) SelectEffects() {
	c.mu.Lock()
	if c.state == SelectingEffects {
		c.mu.Unlock()
		return
	}
	c.state = SelectingEffects
	c.pending = c.live
	needPreviews := c.pickerPreviews == nil && c.source != nil
	c.mu.Unlock()

	c.changed.Notify(PropState)
	if needPreviews {
		c.renderPickerPreviews()
	}
}

// Toggle adds or removes k from the pending selection.
func (c *Controller) Toggle(k effect.Kind) error {
	return c.editPending(func(s effect.Selection) effect.Selection { return s.Toggle(k) })
}

// Select adds k to the end of the pending selection.
func (c *Controller) Select(k effect.Kind) error {
	return c.editPending(func(s effect.Selection) effect.Selection { return s.Add(k) })
}

// Deselect removes k from the pending selection.
func (c *Controller) Deselect(k effect.Kind) error {
	return c.editPending(func(s effect.Selection) effect.Selection { return s.Remove(k) })
}

func (c *Controller) editPending(f func(effect.Selection) effect.Selection) error {
	c.mu.Lock()
	if c.state != SelectingEffects {
		c.mu.Unlock()
		return ErrNotSelecting
	}
	c.pending = f(c.pending)
	c.mu.Unlock()

	c.changed.Notify(PropPending)
	return nil
}

// Apply commits the pending selection and rebuilds once.
func (c *Controller) Apply() error {
	c.mu.Lock()
	if c.state != SelectingEffects {
		c.mu.Unlock()
		return ErrNotSelecting
	}
	c.live = c.pending
	c.pending = effect.Selection{}
	c.state = Viewing
	c.mu.Unlock()

	c.changed.Notify(PropState)
	c.changed.Notify(PropSelection)
	return c.rebuild()
}

// Cancel discards the pending selection and rebuilds once, back to the live selection.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	if c.state != SelectingEffects {
		c.mu.Unlock()
		return ErrNotSelecting
	}
	c.pending = effect.Selection{}
	c.state = Viewing
	c.mu.Unlock()

	c.changed.Notify(PropState)
	return c.rebuild()
}

// ResetColorEffects restores tint, temperature, and saturation.
func (c *Controller) ResetColorEffects() error { return c.reset(photo.ColorGroup) }

// ResetLightEffects restores contrast and exposure.
func (c *Controller) ResetLightEffects() error { return c.reset(photo.LightGroup) }

// ResetBlurEffects restores the blur amount.
func (c *Controller) ResetBlurEffects() error { return c.reset(photo.BlurGroup) }

// ResetSepiaEffects restores the sepia intensity.
func (c *Controller) ResetSepiaEffects() error { return c.reset(photo.SepiaGroup) }

// RemoveAllEffects clears the live selection and restores every parameter.
func (c *Controller) RemoveAllEffects() error {
	c.mu.Lock()
	c.live = effect.Selection{}
	if c.state == SelectingEffects {
		c.pending = effect.Selection{}
	}
	c.batching++
	c.mu.Unlock()

	c.photo.Reset(photo.AllGroup)

	c.mu.Lock()
	c.batching--
	c.mu.Unlock()

	c.changed.Notify(PropSelection)
	return c.rebuild()
}

// SetParam sets a photo parameter by name; the change triggers a rebuild.
func (c *Controller) SetParam(name string, v float64) error {
	return c.photo.Set(name, v)
}

// reset restores g in one batch, so the group costs a single rebuild.
func (c *Controller) reset(g photo.Group) error {
	c.mu.Lock()
	c.batching++
	c.mu.Unlock()

	c.photo.Reset(g)

	c.mu.Lock()
	c.batching--
	c.mu.Unlock()

	return c.rebuild()
}

func (c *Controller) photoChanged(property string) {
	if property == photo.PropTitle {
		return
	}
	c.mu.Lock()
	skip := c.batching > 0 || c.closed
	c.mu.Unlock()
	if skip {
		return
	}
	if err := c.rebuild(); err != nil {
		klog.V(1).Infof("rebuild after %s change: %v", property, err)
	}
}

// rebuild builds a fresh graph from the live selection and current
// parameters, then starts a preview render that supersedes any older one.
func (c *Controller) rebuild() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.rebuilds++

	comp, err := effect.BuildGraph(c.source, c.live, c.photo.Params())
	if err != nil {
		c.mu.Unlock()
		if errors.Is(err, effect.ErrSourceUnavailable) {
			klog.V(1).Infof("rebuild deferred for %s: %v", c.photo.Path(), err)
		}
		return err
	}
	c.composite = comp
	klog.V(1).Infof("rebuilt %s: %v", c.photo.Path(), comp)

	c.gen++
	if c.cancelRender != nil {
		c.cancelRender()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelRender = cancel
	c.renders.Add(1)
	go c.renderPreview(ctx, c.gen, comp)
	c.mu.Unlock()

	c.changed.Notify(PropComposite)
	return nil
}

// renderPreview renders comp and publishes it only if no newer rebuild happened meanwhile.
func (c *Controller) renderPreview(ctx context.Context, gen uint64, comp *effect.Composite) {
	defer c.renders.Done()

	img, err := comp.Brush().Preview(ctx, c.cfg.PreviewMaxDim)
	if err != nil {
		klog.V(1).Infof("preview %d abandoned: %v", gen, err)
		return
	}

	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		klog.V(2).Infof("dropping stale preview %d", gen)
		return
	}
	c.preview = img
	c.mu.Unlock()

	c.changed.Notify(PropPreview)
}

func (c *Controller) renderPickerPreviews() {
	c.mu.Lock()
	src := c.source
	c.mu.Unlock()

	c.renders.Add(1)
	go func() {
		defer c.renders.Done()
		ps, err := effect.Previews(context.Background(), src, c.photo.Params(), c.cfg.PickerPreviewDim)
		if err != nil {
			klog.Warningf("picker previews: %v", err)
			return
		}
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.pickerPreviews = ps
		c.mu.Unlock()
		c.changed.Notify(PropPickerPreviews)
	}()
}
