package coloring

import (
	"fmt"
	"sync"

	"gioui.org/f32"
	"github.com/chewxy/math32"
)

// ViewConfig bounds the zoom of a View.
type ViewConfig struct {
	MinZoom     float32
	MaxZoom     float32
	ZoomStep    float32
	DefaultZoom float32
}

// DefaultViewConfig returns the zoom range the canvas opens with.
func DefaultViewConfig() ViewConfig {
	return ViewConfig{
		MinZoom:     1,
		MaxZoom:     2,
		ZoomStep:    0.1,
		DefaultZoom: 1,
	}
}

func (c ViewConfig) normalize() ViewConfig {
	def := DefaultViewConfig()
	if !(c.MinZoom > 0) {
		c.MinZoom = def.MinZoom
	}
	if !(c.MaxZoom > 0) {
		c.MaxZoom = def.MaxZoom
	}
	if c.MaxZoom < c.MinZoom {
		c.MaxZoom = c.MinZoom
	}
	if !(c.ZoomStep > 0) {
		c.ZoomStep = def.ZoomStep
	}
	if !(c.DefaultZoom > 0) {
		c.DefaultZoom = def.DefaultZoom
	}
	c.DefaultZoom = math32.Min(math32.Max(c.DefaultZoom, c.MinZoom), c.MaxZoom)
	return c
}

// View is the pan and zoom state of the canvas container. It never touches
// the rasters: its only effect is the transform handed to the renderer.
type View struct {
	cfg ViewConfig

	mu       sync.Mutex
	zoom     float32
	pan      f32.Point
	onChange func(f32.Affine2D)
}

// NewView returns a view at the default zoom with no pan offset.
func NewView(cfg ViewConfig) *View {
	cfg = cfg.normalize()
	return &View{cfg: cfg, zoom: cfg.DefaultZoom}
}

// Config returns the normalized zoom bounds.
func (v *View) Config() ViewConfig { return v.cfg }

// PanThreshold is the zoom level at or below which panning is disabled.
func (v *View) PanThreshold() float32 { return v.cfg.DefaultZoom / 2 }

// OnChange registers fn to be called with the new transform after every
// change of zoom or pan.
func (v *View) OnChange(fn func(f32.Affine2D)) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

// Zoom returns the current zoom factor.
func (v *View) Zoom() float32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.zoom
}

// SetZoom sets the zoom factor, clamped to the configured range and rounded to hundredths.
func (v *View) SetZoom(z float32) {
	if math32.IsNaN(z) {
		return
	}
	z = math32.Min(math32.Max(z, v.cfg.MinZoom), v.cfg.MaxZoom)
	z = math32.Round(z*100) / 100
	v.update(func() bool {
		if z == v.zoom {
			return false
		}
		v.zoom = z
		return true
	})
}

// ZoomIn increases the zoom by one step.
func (v *View) ZoomIn() { v.SetZoom(v.Zoom() + v.cfg.ZoomStep) }

// ZoomOut decreases the zoom by one step.
func (v *View) ZoomOut() { v.SetZoom(v.Zoom() - v.cfg.ZoomStep) }

// ZoomPercent formats the zoom for display, e.g. "120%".
func (v *View) ZoomPercent() string {
	return fmt.Sprintf("%d%%", int(math32.Round(v.Zoom()*100)))
}

// Pan returns the current pan offset.
func (v *View) Pan() f32.Point {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pan
}

// SetPan moves the canvas to the given offset.
func (v *View) SetPan(p f32.Point) {
	v.update(func() bool {
		if p == v.pan {
			return false
		}
		v.pan = p
		return true
	})
}

// CanPan reports whether the zoom level allows panning.
func (v *View) CanPan() bool {
	return v.Zoom() > v.PanThreshold()
}

// PanBy shifts the pan offset by a client-space delta. It reports false and
// leaves the offset untouched when panning is disabled.
func (v *View) PanBy(dx, dy float32) bool {
	if !v.CanPan() {
		return false
	}
	v.update(func() bool {
		if dx == 0 && dy == 0 {
			return false
		}
		v.pan = v.pan.Add(f32.Pt(dx, dy))
		return true
	})
	return true
}

// Reset restores the default zoom and the origin pan offset.
func (v *View) Reset() {
	v.update(func() bool {
		if v.zoom == v.cfg.DefaultZoom && v.pan == (f32.Point{}) {
			return false
		}
		v.zoom = v.cfg.DefaultZoom
		v.pan = f32.Point{}
		return true
	})
}

// Affine returns the combined transform: translate by the pan offset, then
// scale by the zoom about the top-left corner.
func (v *View) Affine() f32.Affine2D {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.affine()
}

func (v *View) affine() f32.Affine2D {
	return f32.Affine2D{}.
		Scale(f32.Point{}, f32.Pt(v.zoom, v.zoom)).
		Offset(v.pan)
}

// ScreenRect returns the on-screen bounds of a canvas laid out at
// displayW x displayH before the view transform is applied.
func (v *View) ScreenRect(displayW, displayH float32) Rect {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Rect{
		Left:   float64(v.pan.X),
		Top:    float64(v.pan.Y),
		Width:  float64(displayW * v.zoom),
		Height: float64(displayH * v.zoom),
	}
}

func (v *View) update(apply func() bool) {
	v.mu.Lock()
	if !apply() {
		v.mu.Unlock()
		return
	}
	fn, a := v.onChange, v.affine()
	v.mu.Unlock()

	if fn != nil {
		fn(a)
	}
}
