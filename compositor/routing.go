package compositor

import (
	"github.com/gogpu/osr/input"
)

// SendMouseEvent routes a mouse event in view coordinates. The topmost proxy
// overlay under the pointer gets it first, then the pop-up, then the view's
// own target. Overlays and pop-ups see the event in their own coordinates.
func (v *View) SendMouseEvent(e input.MouseEvent) {
	if v.destroyed {
		return
	}
	if _, o, ok := v.proxies.Hit(e.Position()); ok {
		o.OnEvent(e.TranslatedMouse(o.Bounds().Min))
		return
	}
	if p, ok := v.host.View(v.popup); ok && e.Position().In(p.popupRect) {
		if p.target != nil {
			p.target.ProcessMouseEvent(e.TranslatedMouse(p.popupRect.Min))
		}
		return
	}
	if v.target != nil {
		v.target.ProcessMouseEvent(e)
	}
}

// SendMouseWheelEvent routes a wheel event. A wheel event outside an open
// pop-up dismisses it on the next task and still reaches the view.
func (v *View) SendMouseWheelEvent(e input.WheelEvent) {
	if v.destroyed {
		return
	}
	if _, o, ok := v.proxies.Hit(e.Position()); ok {
		o.OnEvent(e.TranslatedWheel(o.Bounds().Min))
		return
	}
	if p, ok := v.host.View(v.popup); ok {
		if e.Position().In(p.popupRect) {
			p.SendMouseWheelEvent(e.TranslatedWheel(p.popupRect.Min))
			return
		}
		v.host.runner.PostFor(p.alive, p.CancelWidget)
	}
	if v.target != nil {
		v.target.ProcessMouseWheelEvent(e)
	}
}
