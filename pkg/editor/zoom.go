package editor

import (
	"image"
	"math"
)

// Zoom is the display scale of the photo.
type Zoom struct {
	Scale float64
	// Fit is set while the scale tracks the viewport.
	Fit bool
}

// FitScale returns the scale at which an img-sized image fits entirely inside
// viewport, preserving aspect ratio.
func FitScale(img, viewport image.Point) float64 {
	if img.X <= 0 || img.Y <= 0 || viewport.X <= 0 || viewport.Y <= 0 {
		return 1
	}
	return math.Min(float64(viewport.X)/float64(img.X), float64(viewport.Y)/float64(img.Y))
}

// Zoom returns the current zoom.
func (c *Controller) Zoom() Zoom {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

// FitToScreen scales the photo so it fits viewport.
func (c *Controller) FitToScreen(viewport image.Point) float64 {
	s := FitScale(c.imageSize(), viewport)
	c.setZoom(Zoom{Scale: s, Fit: true})
	return s
}

// ShowActualSize shows the photo at 1:1.
func (c *Controller) ShowActualSize() {
	c.setZoom(Zoom{Scale: 1})
}

// ToggleZoom switches between fit-to-screen and actual size, as a tap on the image does.
func (c *Controller) ToggleZoom(viewport image.Point) float64 {
	if c.Zoom().Fit {
		c.ShowActualSize()
		return 1
	}
	return c.FitToScreen(viewport)
}

// SetZoom sets a manual scale, clamped to the configured bounds.
func (c *Controller) SetZoom(scale float64) float64 {
	s := math.Max(c.cfg.ZoomMin, math.Min(c.cfg.ZoomMax, scale))
	c.setZoom(Zoom{Scale: s})
	return s
}

func (c *Controller) setZoom(z Zoom) {
	c.mu.Lock()
	if c.zoom == z {
		c.mu.Unlock()
		return
	}
	c.zoom = z
	c.mu.Unlock()

	c.changed.Notify(PropZoom)
}

// imageSize is the photo's natural size, or the decoded source size if the
// metadata did not carry one.
func (c *Controller) imageSize() image.Point {
	w, h := c.photo.Size()
	if w > 0 && h > 0 {
		return image.Pt(w, h)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.source != nil {
		return c.source.Bounds().Size()
	}
	return image.Point{}
}
