package compositor

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/osr"
	"github.com/gogpu/osr/delivery"
	"github.com/gogpu/osr/geom"
	"github.com/gogpu/osr/gpu"
	"github.com/gogpu/osr/overlay"
)

// Kind is the role of a view.
type Kind uint8

// View kinds.
const (
	KindPrimary Kind = iota
	KindPopup
	KindChild
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPrimary:
		return "primary"
	case KindPopup:
		return "popup"
	case KindChild:
		return "child"
	default:
		return "unknown"
	}
}

// View is one off-screen render surface: a primary view, its pop-up or its
// child. It owns the backing frame, resize state and frame pacing of the
// surface and delivers composited frames to its Sink.
//
// View is not safe for concurrent use; it lives on the Host's goroutine.
type View struct {
	host *Host
	id   ViewID
	kind Kind

	// Weak links into the host arena. Zero means none.
	parent ViewID
	popup  ViewID
	child  ViewID

	target  Target
	source  FrameSource
	sink    Sink
	display *delivery.DisplayClient
	proxies *overlay.Registry

	backing *image.RGBA

	// size is the requested logical size; popupRect places a pop-up in its
	// parent's logical coordinates.
	size      image.Point
	popupRect image.Rectangle

	// appliedSize and appliedScale are the values composites use. They
	// change only when a resize is applied.
	appliedSize  image.Point
	appliedScale float64

	manualScale  float64
	displayScale float64

	transparent bool
	background  color.RGBA

	frameRate int
	pacer     Pacer
	ticker    *Ticker

	holdDepth     int
	resizePending bool

	painting  bool
	showing   bool
	cancelled bool
	destroyed bool

	gpuCtx  *gpu.Context
	surface *gpu.Surface
}

// NewView creates a primary view. target receives unrouted input, source
// renders the contents and sink receives the delivered frames.
func (h *Host) NewView(target Target, source FrameSource, sink Sink) (*View, error) {
	if h.closed {
		return nil, ErrHostClosed
	}
	if sink == nil {
		return nil, ErrNilSink
	}
	v := h.newView(KindPrimary, target, source, sink)
	v.size = h.cfg.Size
	v.manualScale = h.cfg.ScaleFactor
	v.frameRate = h.cfg.FrameRate
	v.painting = true
	v.showing = true
	v.display.SetActive(true)
	v.applyResize(true)
	return v, nil
}

// NewPopup creates a pop-up of v placed at rect (logical coordinates of v).
// An existing pop-up of v is cancelled first. The pop-up inherits the
// painting state, frame rate and scale of v.
func (v *View) NewPopup(target Target, source FrameSource, rect image.Rectangle) (*View, error) {
	if v.destroyed {
		return nil, ErrViewDestroyed
	}
	if old, ok := v.host.View(v.popup); ok {
		old.CancelWidget()
	}
	p := v.host.newView(KindPopup, target, source, v.sink)
	p.parent = v.id
	p.popupRect = rect.Canon()
	p.size = p.popupRect.Size()
	v.popup = p.id
	p.inheritFrom(v)
	p.applyResize(true)
	p.Show()
	osr.Logger().Debug("compositor: popup created", "view", v.id, "popup", p.id, "rect", p.popupRect)
	return p, nil
}

// NewChild creates a child view that replaces v on screen. An existing child
// is cancelled first and v is hidden until the child goes away.
func (v *View) NewChild(target Target, source FrameSource) (*View, error) {
	if v.destroyed {
		return nil, ErrViewDestroyed
	}
	if old, ok := v.host.View(v.child); ok {
		old.CancelWidget()
	}
	c := v.host.newView(KindChild, target, source, v.sink)
	c.parent = v.id
	c.size = v.size
	v.child = c.id
	v.Hide()
	c.inheritFrom(v)
	c.showing = true
	c.applyResize(true)
	return c, nil
}

func (h *Host) newView(kind Kind, target Target, source FrameSource, sink Sink) *View {
	v := &View{
		host:         h,
		kind:         kind,
		target:       target,
		source:       source,
		sink:         sink,
		transparent:  h.cfg.Transparent,
		background:   h.cfg.Background,
		manualScale:  osr.AutoScaleFactor,
		displayScale: osr.DefaultScaleFactor,
		appliedScale: osr.DefaultScaleFactor,
		frameRate:    osr.DefaultFrameRate,
	}
	h.register(v)
	v.proxies = overlay.NewRegistry(v)
	v.display = delivery.NewDisplayClient(v.OnPaint, v.OnTexturePaint, h.cfg.MaxRegionBytes)
	if h.gpu != nil {
		v.attachGPU(h.gpu)
	}
	return v
}

func (v *View) inheritFrom(parent *View) {
	v.manualScale = parent.manualScale
	v.displayScale = parent.displayScale
	v.frameRate = parent.frameRate
	v.SetPainting(parent.painting)
}

func (v *View) attachGPU(svc *gpu.Service) {
	ctx := svc.NewContext()
	s, err := gpu.NewSurface(ctx, v.host.cfg.BufferSlots)
	if err != nil {
		osr.Logger().Warn("compositor: gpu surface unavailable", "view", v.id, "err", err)
		ctx.Destroy()
		return
	}
	v.gpuCtx = ctx
	v.surface = s
}

// ID returns the view id.
func (v *View) ID() ViewID { return v.id }

// Kind returns the view role.
func (v *View) Kind() Kind { return v.kind }

// IsPopup reports whether v is a pop-up.
func (v *View) IsPopup() bool { return v.kind == KindPopup }

// Host returns the owning host.
func (v *View) Host() *Host { return v.host }

// Parent returns the live parent view.
func (v *View) Parent() (*View, bool) { return v.host.View(v.parent) }

// Popup returns the live pop-up.
func (v *View) Popup() (*View, bool) { return v.host.View(v.popup) }

// Child returns the live child view.
func (v *View) Child() (*View, bool) { return v.host.View(v.child) }

// DisplayClient returns the delivery endpoint the frame source writes to.
func (v *View) DisplayClient() *delivery.DisplayClient { return v.display }

// Proxies returns the proxy overlay registry.
func (v *View) Proxies() *overlay.Registry { return v.proxies }

// Surface returns the GPU swap surface, or nil on the CPU path.
func (v *View) Surface() *gpu.Surface { return v.surface }

// Backing returns the latest primary frame, or nil.
func (v *View) Backing() *image.RGBA { return v.backing }

// PopupRect returns the pop-up bounds in the parent's logical coordinates.
func (v *View) PopupRect() image.Rectangle { return v.popupRect }

// Bounds returns the logical view bounds: the pop-up rect for pop-ups, the
// applied size at the origin otherwise.
func (v *View) Bounds() image.Rectangle {
	if v.kind == KindPopup {
		return v.popupRect
	}
	return geom.Bounds(v.appliedSize)
}

// PixelSize returns the applied output size in device pixels.
func (v *View) PixelSize() image.Point {
	return geom.ToPixelSize(v.appliedScale, v.appliedSize)
}

// Showing reports whether the view is shown.
func (v *View) Showing() bool { return v.showing }

// Destroyed reports whether Destroy has run.
func (v *View) Destroyed() bool { return v.destroyed }

// String returns a short description for logs.
func (v *View) String() string {
	return fmt.Sprintf("%s view %d", v.kind, v.id)
}

// Show marks the view visible.
func (v *View) Show() {
	if !v.destroyed {
		v.showing = true
	}
}

// Hide marks the view hidden. Hidden views request no frames.
func (v *View) Hide() {
	v.showing = false
}

func (v *View) alive() bool { return !v.destroyed }

// AddViewProxy registers a proxy overlay. Later proxies are drawn on top.
func (v *View) AddViewProxy(o overlay.Overlay) overlay.ID {
	return v.proxies.Add(o)
}

// RemoveViewProxy unregisters a proxy overlay. Removing twice is a no-op.
func (v *View) RemoveViewProxy(o overlay.Overlay) bool {
	return v.proxies.RemoveOverlay(o)
}

// OverlayPainted implements overlay.Observer.
func (v *View) OverlayPainted(_ overlay.ID, rect image.Rectangle) {
	v.OnProxyViewPaint(rect)
}

// OverlayDestroyed implements overlay.Observer.
func (v *View) OverlayDestroyed(id overlay.ID) {
	v.ProxyViewDestroyed(id)
}

// ProxyViewDestroyed drops a proxy that went away and recomposites the
// whole view without it.
func (v *View) ProxyViewDestroyed(id overlay.ID) {
	if v.destroyed {
		return
	}
	v.proxies.Remove(id)
	v.CompositeFrame(geom.Bounds(v.PixelSize()))
}

// CancelWidget detaches v from its parent and destroys it. A cancelled
// pop-up notifies the parent's texture path with an empty frame and the
// parent recomposites without it; a cancelled child shows its parent again.
// CancelWidget is idempotent.
func (v *View) CancelWidget() {
	if v.cancelled {
		return
	}
	v.cancelled = true
	v.Hide()

	if parent, ok := v.host.View(v.parent); ok {
		switch {
		case parent.popup == v.id:
			parent.popup = 0
			parent.OnPopupTexturePaint(gpu.Mailbox{}, gpu.SyncToken{}, image.Rectangle{}, gpu.NewRelease(nil))
			if !parent.destroyed && parent.backing != nil {
				parent.CompositeFrame(geom.Bounds(parent.PixelSize()))
			}
		case parent.child == v.id:
			parent.child = 0
			parent.Show()
		}
	}
	v.parent = 0
	v.Destroy()
}

// Destroy tears the view down. Local state is detached at once; the GPU
// surface and context are shut down by a posted task. Destroy is
// idempotent.
func (v *View) Destroy() {
	if v.destroyed {
		return
	}
	v.destroyed = true

	if v.parent != 0 {
		v.CancelWidget()
	}
	if p, ok := v.host.View(v.popup); ok {
		p.CancelWidget()
	}
	if c, ok := v.host.View(v.child); ok {
		c.CancelWidget()
	}
	v.proxies.Clear()
	v.Hide()
	v.popup = 0
	v.child = 0

	v.StopTicking()
	v.display.Close()
	v.backing = nil
	v.host.unregister(v)

	if surface, ctx := v.surface, v.gpuCtx; surface != nil {
		v.surface, v.gpuCtx = nil, nil
		v.host.runner.Post(func() {
			surface.Destroy()
			ctx.Destroy()
		})
	}
	osr.Logger().Debug("compositor: view destroyed", "view", v.id, "kind", v.kind)
}
