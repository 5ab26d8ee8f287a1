package overlay

import (
	"image"

	"github.com/gogpu/osr/input"
)

// Proxy is an embedded view composited over its host: it carries its own
// bitmap and forwards routed events to a handler.
//
// Proxy is not safe for concurrent use; it lives on the compositor's
// goroutine.
type Proxy struct {
	bounds  image.Rectangle
	bitmap  *image.RGBA
	handler func(input.Event)

	id        ID
	obs       Observer
	destroyed bool
}

// NewProxy creates a proxy covering bounds. handler may be nil.
func NewProxy(bounds image.Rectangle, handler func(input.Event)) *Proxy {
	return &Proxy{bounds: bounds, handler: handler}
}

// Bounds implements Paintable.
func (p *Proxy) Bounds() image.Rectangle { return p.bounds }

// Bitmap implements Paintable.
func (p *Proxy) Bitmap() *image.RGBA { return p.bitmap }

// OnEvent implements EventTarget.
func (p *Proxy) OnEvent(e input.Event) {
	if p.handler != nil && !p.destroyed {
		p.handler(e)
	}
}

// SetBounds implements Resizable. The old and new areas are repainted.
func (p *Proxy) SetBounds(r image.Rectangle) {
	old := p.bounds
	p.bounds = r
	p.notifyPaint(old.Union(r))
}

// SetBitmap replaces the contents and asks the host to recomposite.
func (p *Proxy) SetBitmap(b *image.RGBA) {
	if p.destroyed {
		return
	}
	p.bitmap = b
	p.notifyPaint(p.bounds)
}

// Attach implements Observable.
func (p *Proxy) Attach(id ID, obs Observer) {
	p.id = id
	p.obs = obs
}

// Detach implements Observable.
func (p *Proxy) Detach() {
	p.obs = nil
}

// Destroy tells the host to drop the proxy. Destroy is idempotent.
func (p *Proxy) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	p.bitmap = nil
	if obs := p.obs; obs != nil {
		p.obs = nil
		obs.OverlayDestroyed(p.id)
	}
}

func (p *Proxy) notifyPaint(r image.Rectangle) {
	if p.obs != nil && !p.destroyed {
		p.obs.OverlayPainted(p.id, r)
	}
}
