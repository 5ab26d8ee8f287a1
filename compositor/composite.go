package compositor

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/osr"
	"github.com/gogpu/osr/geom"
	"github.com/gogpu/osr/overlay"
)

// OnPaint stores a new primary frame. bitmap may alias shared memory and is
// copied. A pop-up forwards the frame to its parent instead of compositing;
// a pop-up without a parent drops it.
func (v *View) OnPaint(damage image.Rectangle, bitmap *image.RGBA) {
	if v.destroyed {
		return
	}
	v.backing = cloneRGBA(bitmap)

	if v.kind != KindPopup {
		v.CompositeFrame(damage)
		return
	}
	if parent, ok := v.host.View(v.parent); ok && parent.popup == v.id {
		parent.OnPopupPaint(v.popupRect)
		return
	}
	v.backing = nil
}

// OnPopupPaint recomposites after the pop-up repainted rect (logical
// coordinates).
func (v *View) OnPopupPaint(rect image.Rectangle) {
	v.CompositeFrame(geom.ToPixelRect(v.appliedScale, rect))
}

// OnProxyViewPaint recomposites after a proxy repainted rect (logical
// coordinates).
func (v *View) OnProxyViewPaint(rect image.Rectangle) {
	v.CompositeFrame(geom.ToPixelRect(v.appliedScale, rect))
}

// CompositeFrame merges the backing frame with the pop-up and proxy overlays
// and delivers the result. damage is in device pixels. Resizes requested
// during the call are deferred until it returns.
func (v *View) CompositeFrame(damage image.Rectangle) {
	if v.destroyed {
		return
	}
	v.holdResize()
	defer v.releaseResize()

	size := v.PixelSize()
	bounds := geom.Bounds(size)
	popup, hasPopup := v.host.View(v.popup)

	var frame *image.RGBA
	if v.proxies.Len() == 0 && !hasPopup {
		frame = v.backing
	} else {
		frame = v.newOutput(bounds)
		if v.backing != nil {
			blit(frame, image.Point{}, v.backing, v.backing.Bounds().Size())
		}
		if hasPopup && !isEmpty(popup.backing) {
			r := geom.ToPixelRect(v.appliedScale, popup.popupRect)
			damage = damage.Union(r)
			blit(frame, r.Min, popup.backing, r.Size())
		}
		v.proxies.Each(func(_ overlay.ID, o overlay.Overlay) bool {
			r := geom.ToPixelRect(v.appliedScale, o.Bounds())
			damage = damage.Union(r)
			if b := o.Bitmap(); !isEmpty(b) {
				blit(frame, r.Min, b, r.Size())
			}
			return true
		})
	}

	damage = damage.Intersect(bounds)
	if frame == nil {
		osr.Logger().Debug("compositor: nothing to deliver", "view", v.id)
		return
	}
	v.sink.OnFrame(damage, frame)
}

// newOutput allocates an output frame filled with the view background.
func (v *View) newOutput(bounds image.Rectangle) *image.RGBA {
	out := image.NewRGBA(bounds)
	if !v.transparent {
		xdraw.Draw(out, bounds, image.NewUniform(v.background), image.Point{}, xdraw.Src)
	}
	return out
}

// blit copies at most size pixels of src to dst at dp, replacing what was
// there.
func blit(dst *image.RGBA, dp image.Point, src *image.RGBA, size image.Point) {
	sb := src.Bounds()
	sr := image.Rectangle{Min: sb.Min, Max: sb.Min.Add(size)}.Intersect(sb)
	xdraw.Copy(dst, dp, src, sr, xdraw.Src, nil)
}

func isEmpty(img *image.RGBA) bool {
	return img == nil || img.Bounds().Empty()
}

// cloneRGBA returns a copy of img placed at the origin.
func cloneRGBA(img *image.RGBA) *image.RGBA {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rectangle{Max: b.Size()})
	if b.Dx() == 0 || b.Dy() == 0 {
		return out
	}
	if img.Stride == out.Stride && b.Min == (image.Point{}) {
		copy(out.Pix, img.Pix[:len(out.Pix)])
		return out
	}
	xdraw.Copy(out, image.Point{}, img, b, xdraw.Src, nil)
	return out
}
