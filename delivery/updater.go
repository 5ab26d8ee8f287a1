package delivery

import (
	"image"
	"sync"

	"github.com/gogpu/osr"
)

// PaintFunc receives a delivered frame. bitmap is a view over the shared
// region and is only valid for the duration of the call.
type PaintFunc func(damage image.Rectangle, bitmap *image.RGBA)

// Updater receives CPU frames from the frame source through a shared region
// and forwards them to a PaintFunc.
//
// Allocation failures are never reported to the frame source. The updater
// logs them and refuses to deliver until an allocation succeeds.
//
// Updater is not safe for concurrent use.
type Updater struct {
	paint PaintFunc
	limit int64

	region      *Region
	deliverable bool
	active      bool
}

// NewUpdater creates an inactive updater with no region. limit caps the
// byte length of a region; 0 means osr.DefaultMaxRegionBytes.
func NewUpdater(paint PaintFunc, limit int64) *Updater {
	if limit <= 0 {
		limit = osr.DefaultMaxRegionBytes
	}
	return &Updater{paint: paint, limit: limit}
}

// AllocateRegion maps a new region for frames of the given size and releases
// the previous one. An invalid size or a failed mapping leaves the previous
// mapping in place but stops delivery until a later allocation succeeds.
func (u *Updater) AllocateRegion(size image.Point) {
	r, err := MapRegion(size, u.limit)
	if err != nil {
		u.deliverable = false
		osr.Logger().Debug("delivery: region allocation dropped", "size", size, "err", err)
		return
	}
	if u.region != nil {
		if err := u.region.Release(); err != nil {
			osr.Logger().Debug("delivery: release region", "err", err)
		}
	}
	u.region = r
	u.deliverable = true
}

// Region returns the current mapping, or nil.
func (u *Updater) Region() *Region { return u.region }

// Deliverable reports whether the last allocation succeeded.
func (u *Updater) Deliverable() bool { return u.deliverable && u.region != nil }

// SetActive gates delivery.
func (u *Updater) SetActive(active bool) { u.active = active }

// Active reports whether delivery is enabled.
func (u *Updater) Active() bool { return u.active }

// Draw forwards the region to the paint function when active and
// deliverable. ack runs exactly once before Draw returns, on every path,
// including a panicking paint function.
func (u *Updater) Draw(damage image.Rectangle, ack func()) {
	done := onceFunc(ack)
	defer done()

	if !u.active || !u.Deliverable() || u.paint == nil {
		return
	}
	u.paint(damage, u.region.View())
}

// Close releases the region. The updater delivers nothing afterwards.
func (u *Updater) Close() {
	if u.region != nil {
		if err := u.region.Release(); err != nil {
			osr.Logger().Debug("delivery: release region", "err", err)
		}
		u.region = nil
	}
	u.deliverable = false
}

// onceFunc returns a function calling fn at most once. A nil fn yields a
// no-op.
func onceFunc(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	return sync.OnceFunc(fn)
}
