package compositor

import (
	"image"

	"github.com/gogpu/osr"
	"github.com/gogpu/osr/geom"
)

// ResizeState reports whether resizes are currently deferred.
type ResizeState uint8

// Resize states. Holding lasts for one composite; Pending means a resize
// arrived while holding and will be applied after it.
const (
	ResizeIdle ResizeState = iota
	ResizeHolding
	ResizePending
)

// String returns the state name.
func (s ResizeState) String() string {
	switch s {
	case ResizeIdle:
		return "idle"
	case ResizeHolding:
		return "holding"
	case ResizePending:
		return "pending"
	default:
		return "unknown"
	}
}

// ResizeState returns the current resize state.
func (v *View) ResizeState() ResizeState {
	switch {
	case v.resizePending:
		return ResizePending
	case v.holdDepth > 0:
		return ResizeHolding
	default:
		return ResizeIdle
	}
}

func (v *View) holdResize() {
	v.holdDepth++
}

// releaseResize ends a hold. The outermost release posts a pending resize;
// it is never applied inline.
func (v *View) releaseResize() {
	if v.holdDepth == 0 {
		return
	}
	v.holdDepth--
	if v.holdDepth > 0 || !v.resizePending {
		return
	}
	v.resizePending = false
	v.host.runner.PostFor(v.alive, v.SynchronizeVisualProperties)
}

// SetSize requests a new logical size.
func (v *View) SetSize(size image.Point) {
	v.size = size
	v.SynchronizeVisualProperties()
}

// SetBounds requests a new logical size; the origin is ignored.
func (v *View) SetBounds(r image.Rectangle) {
	v.SetSize(r.Size())
}

// Size returns the requested logical size, which may not be applied yet.
func (v *View) Size() image.Point { return v.size }

// ScaleFactor returns the manual scale factor, or the display scale factor
// when the view tracks the display.
func (v *View) ScaleFactor() float64 {
	if v.manualScale != osr.AutoScaleFactor {
		return v.manualScale
	}
	return v.displayScale
}

// UsingAutoScaleFactor reports whether the view follows the display.
func (v *View) UsingAutoScaleFactor() bool {
	return v.manualScale == osr.AutoScaleFactor
}

// SetManualScaleFactor forces a scale factor. AutoScaleFactor returns to
// display tracking.
func (v *View) SetManualScaleFactor(scale float64) {
	v.manualScale = scale
	v.SynchronizeVisualProperties()
}

// SetDisplayScaleFactor reports the scale factor of the display the view is
// on. It takes effect when the view uses the auto scale factor.
func (v *View) SetDisplayScaleFactor(scale float64) {
	if scale <= 0 || scale == v.displayScale {
		return
	}
	v.displayScale = scale
	if v.UsingAutoScaleFactor() {
		v.SynchronizeVisualProperties()
	}
}

// SynchronizeVisualProperties applies the requested size and scale, or
// marks them pending while a composite holds resizes.
func (v *View) SynchronizeVisualProperties() {
	if v.destroyed {
		return
	}
	if v.holdDepth > 0 {
		if !v.resizePending {
			osr.Logger().Debug("compositor: resize deferred", "view", v.id, "size", v.size)
		}
		v.resizePending = true
		return
	}
	v.applyResize(false)
}

// applyResize makes the requested size and scale current and informs the
// frame source and GPU surface. Unless force is set, it does nothing when
// both already match the applied values.
func (v *View) applyResize(force bool) {
	size := v.size
	if v.kind == KindPopup {
		size = v.popupRect.Size()
	}
	scale := v.ScaleFactor()
	if !force && size == v.appliedSize && scale == v.appliedScale {
		return
	}
	v.appliedSize = size
	v.appliedScale = scale

	px := geom.ToPixelSize(scale, size)
	if v.source != nil {
		v.source.SetScaleAndSize(scale, px)
	}
	if v.surface != nil {
		if err := v.surface.Reshape(px, scale); err != nil {
			osr.Logger().Debug("compositor: reshape surface", "view", v.id, "err", err)
		}
	}
	if c, ok := v.host.View(v.child); ok {
		c.size = size
		c.manualScale = v.manualScale
		c.displayScale = v.displayScale
		c.SynchronizeVisualProperties()
	}
}
