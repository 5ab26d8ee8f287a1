package gpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/osr"
)

// ErrSurfaceDestroyed is returned by operations on a destroyed Surface.
var ErrSurfaceDestroyed = errors.New("gpu: surface destroyed")

// Frame is one presented surface texture.
type Frame struct {
	Slot      int
	Mailbox   Mailbox
	SyncToken SyncToken
	Rect      image.Rectangle
	Scale     float64
}

// Surface is the off-screen presentation target of one view. It draws into
// the bound slot of its BufferQueue and presents by drawing that slot as a
// quad into its plane, the surface-sized output texture, through its
// Context.
//
// The queue is created on the first successful connection, so a Surface can
// be reshaped before the GPU is reachable. A failed connection is retried by
// the next SwapBuffers.
//
// Surface is not safe for concurrent use.
type Surface struct {
	ctx       *Context
	slots     int
	queue     *BufferQueue
	plane     hal.Texture
	planeView hal.TextureView
	planeSize image.Point
	size      image.Point
	scale     float64
	destroyed bool
}

// NewSurface creates a surface presenting through ctx with the given number
// of buffer slots.
func NewSurface(ctx *Context, slots int) (*Surface, error) {
	if slots < 2 {
		return nil, ErrInvalidSlotCount
	}
	return &Surface{ctx: ctx, slots: slots, scale: 1}, nil
}

// Context returns the surface's GPU context.
func (s *Surface) Context() *Context { return s.ctx }

// Size returns the size and scale of the last Reshape.
func (s *Surface) Size() (image.Point, float64) { return s.size, s.scale }

// Queue returns the buffer queue, or nil before the first connection.
func (s *Surface) Queue() *BufferQueue { return s.queue }

// Reshape resizes the surface buffers and rebinds the framebuffer.
func (s *Surface) Reshape(size image.Point, scale float64) error {
	if s.destroyed {
		return ErrSurfaceDestroyed
	}
	s.size = size
	s.scale = scale
	s.ctx.Resize(size, scale)
	if s.queue == nil {
		return nil
	}
	s.queue.Reshape(size)
	s.bindFramebuffer()
	return nil
}

// SwapBuffers presents the bound buffer. The presented slot stays
// PendingPresent until SwapBuffersComplete.
func (s *Surface) SwapBuffers() (Frame, error) {
	if s.destroyed {
		return Frame{}, ErrSurfaceDestroyed
	}
	if err := s.ensureQueue(); err != nil {
		return Frame{}, err
	}

	i, err := s.queue.CurrentBuffer()
	if err != nil {
		return Frame{}, err
	}
	sl := &s.queue.slots[i]
	if err := s.ensurePlane(); err != nil {
		return Frame{}, err
	}
	if err := s.ctx.Present(s.planeView, surfaceQuad(sl.view, sl.mailbox, s.size)); err != nil {
		return Frame{}, err
	}

	if _, err := s.queue.SwapBuffers(); err != nil {
		return Frame{}, err
	}
	frame := Frame{
		Slot:      i,
		Mailbox:   sl.mailbox,
		SyncToken: s.ctx.NextSyncToken(),
		Rect:      image.Rectangle{Max: s.size},
		Scale:     s.scale,
	}
	s.bindFramebuffer()
	return frame, nil
}

// SwapBuffersComplete returns the oldest presented buffer to the queue and
// retires its presentation.
func (s *Surface) SwapBuffersComplete() {
	if s.destroyed || s.queue == nil {
		return
	}
	if _, ok := s.queue.PageFlipComplete(); !ok {
		return
	}
	s.ctx.Retire()
	if s.queue.Current() < 0 {
		s.bindFramebuffer()
	}
}

// Destroy releases every buffer. Destroy is idempotent.
func (s *Surface) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	if s.queue != nil {
		s.ctx.RetireAll()
		s.queue.Destroy()
	}
	s.destroyPlane()
}

func (s *Surface) ensureQueue() error {
	if s.queue != nil {
		return nil
	}
	if err := s.ctx.ConnectToService(); err != nil {
		osr.Logger().Warn("gpu: surface not connected", "context", s.ctx.ID(), "err", err)
		return err
	}
	q, err := NewBufferQueue(s.ctx.Device(), s.ctx.service.Format(), s.ctx.ID(), s.slots)
	if err != nil {
		return err
	}
	q.Reshape(s.size)
	s.queue = q
	s.bindFramebuffer()
	return nil
}

// bindFramebuffer acquires the next buffer so drawing always has a target.
// Failure leaves the surface unbound until a slot frees up.
func (s *Surface) bindFramebuffer() {
	if _, err := s.queue.CurrentBuffer(); err != nil {
		osr.Logger().Debug("gpu: framebuffer not bound", "err", err)
	}
}

// ensurePlane (re)creates the plane texture at the surface size.
func (s *Surface) ensurePlane() error {
	if s.plane != nil && s.planeSize == s.size {
		return nil
	}
	s.destroyPlane()
	device := s.queue.device
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label: fmt.Sprintf("osr_plane_%d", s.ctx.ID()),
		Size: hal.Extent3D{
			Width:              uint32(s.size.X), //nolint:gosec // G115: CurrentBuffer rejects empty sizes
			Height:             uint32(s.size.Y), //nolint:gosec // G115: CurrentBuffer rejects empty sizes
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        s.ctx.service.Format(),
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("gpu: create plane texture: %w", err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: fmt.Sprintf("osr_plane_%d_view", s.ctx.ID()),
	})
	if err != nil {
		device.DestroyTexture(tex)
		return fmt.Errorf("gpu: create plane texture view: %w", err)
	}
	s.plane = tex
	s.planeView = view
	s.planeSize = s.size
	return nil
}

func (s *Surface) destroyPlane() {
	if s.plane == nil {
		return
	}
	s.queue.device.DestroyTextureView(s.planeView)
	s.queue.device.DestroyTexture(s.plane)
	s.plane = nil
	s.planeView = nil
	s.planeSize = image.Point{}
}
