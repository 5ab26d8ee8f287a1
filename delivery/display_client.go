package delivery

import (
	"image"

	"github.com/gogpu/osr/geom"
	"github.com/gogpu/osr/gpu"
)

// TexturePaintFunc receives a presented GPU texture. The consumer must wait
// on token before sampling and must run release exactly once when done.
type TexturePaintFunc func(mailbox gpu.Mailbox, token gpu.SyncToken, rect image.Rectangle, release *gpu.Release)

// DisplayClient is the host-side endpoint of an off-screen display. It owns
// the CPU Updater and bridges GPU swaps to a TexturePaintFunc.
//
// DisplayClient is not safe for concurrent use.
type DisplayClient struct {
	paint        PaintFunc
	texturePaint TexturePaintFunc
	limit        int64

	updater *Updater
	active  bool
	mailbox gpu.Mailbox
	rect    image.Rectangle
}

// NewDisplayClient creates a client delivering CPU frames to paint and GPU
// frames to texturePaint. Either may be nil.
func NewDisplayClient(paint PaintFunc, texturePaint TexturePaintFunc, limit int64) *DisplayClient {
	return &DisplayClient{paint: paint, texturePaint: texturePaint, limit: limit}
}

// CreateUpdater replaces the CPU updater with a fresh one that inherits the
// client's active state.
func (c *DisplayClient) CreateUpdater() *Updater {
	if c.updater != nil {
		c.updater.Close()
	}
	c.updater = NewUpdater(c.paint, c.limit)
	c.updater.SetActive(c.active)
	return c.updater
}

// Updater returns the current updater, or nil before CreateUpdater.
func (c *DisplayClient) Updater() *Updater { return c.updater }

// SetActive gates delivery on both paths.
func (c *DisplayClient) SetActive(active bool) {
	c.active = active
	if c.updater != nil {
		c.updater.SetActive(active)
	}
}

// Active reports whether delivery is enabled.
func (c *DisplayClient) Active() bool { return c.active }

// IsOffscreen reports that this display never reaches a window.
func (c *DisplayClient) IsOffscreen() bool { return true }

// BackingTextureCreated records the mailbox of the next swapped texture.
func (c *DisplayClient) BackingTextureCreated(mailbox gpu.Mailbox) {
	c.mailbox = mailbox
}

// TextureRect returns the output rect of the last swap.
func (c *DisplayClient) TextureRect() image.Rectangle { return c.rect }

// OnSwapBuffers hands the backing texture to the consumer. The mailbox is
// consumed by the swap. Without a consumer the release runs at once with a
// zero sync token.
func (c *DisplayClient) OnSwapBuffers(size image.Point, token gpu.SyncToken, release gpu.ReleaseFunc) {
	c.rect = geom.Bounds(size)
	r := gpu.NewRelease(release)

	mailbox := c.mailbox
	c.mailbox = gpu.Mailbox{}

	if c.texturePaint == nil {
		r.Drop()
		return
	}
	c.texturePaint(mailbox, token, c.rect, r)
}

// Close releases the updater's region.
func (c *DisplayClient) Close() {
	if c.updater != nil {
		c.updater.Close()
		c.updater = nil
	}
}
