package compositor

import (
	"errors"
	"image"

	"github.com/gogpu/osr"
	"github.com/gogpu/osr/geom"
	"github.com/gogpu/osr/gpu"
)

// OnTexturePaint forwards a presented texture. Primary and child views hand
// it to the sink; a pop-up re-positions it into its parent's pixel space and
// forwards it as the parent's pop-up texture. A pop-up without a parent
// releases the texture unused.
func (v *View) OnTexturePaint(mailbox gpu.Mailbox, token gpu.SyncToken, rect image.Rectangle, release *gpu.Release) {
	if v.destroyed {
		release.Drop()
		return
	}
	if v.kind != KindPopup {
		v.sink.OnTextureFrame(TextureFrame{
			Mailbox:   mailbox,
			SyncToken: token,
			Rect:      rect,
			Release:   release,
		})
		return
	}

	parent, ok := v.host.View(v.parent)
	if !ok || parent.popup != v.id {
		release.Drop()
		return
	}
	origin := geom.ToPixelRect(v.appliedScale, v.popupRect).Min
	placed := image.Rectangle{Min: origin, Max: origin.Add(rect.Size())}
	parent.OnPopupTexturePaint(mailbox, token, placed, release)
}

// OnPopupTexturePaint delivers the pop-up's texture to the sink. An empty
// mailbox tells the sink the pop-up is gone.
func (v *View) OnPopupTexturePaint(mailbox gpu.Mailbox, token gpu.SyncToken, rect image.Rectangle, release *gpu.Release) {
	v.sink.OnTextureFrame(TextureFrame{
		Mailbox:   mailbox,
		SyncToken: token,
		Rect:      rect,
		IsPopup:   true,
		Release:   release,
	})
}

// pumpGPU presents the view's surface and routes the texture through the
// display client. The buffer returns to the queue when the consumer releases
// it.
func (v *View) pumpGPU() {
	if v.surface == nil {
		return
	}
	frame, err := v.surface.SwapBuffers()
	if errors.Is(err, gpu.ErrNoFreeBuffer) {
		osr.Logger().Warn("compositor: swap stalled, all buffers in flight", "view", v.id)
		return
	}
	if err != nil {
		osr.Logger().Debug("compositor: swap failed", "view", v.id, "err", err)
		return
	}
	v.display.BackingTextureCreated(frame.Mailbox)

	surface := v.surface
	runner := v.host.runner
	v.display.OnSwapBuffers(frame.Rect.Size(), frame.SyncToken, func(gpu.SyncToken, bool) {
		runner.PostFor(v.alive, surface.SwapBuffersComplete)
	})
}
