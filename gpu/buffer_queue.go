package gpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Buffer queue errors.
var (
	// ErrNoFreeBuffer is returned when every slot is in use or awaiting
	// presentation.
	ErrNoFreeBuffer = errors.New("gpu: no free buffer")

	// ErrEmptySurface is returned when a buffer is requested before the
	// surface has a non-empty size.
	ErrEmptySurface = errors.New("gpu: surface has no size")

	// ErrInvalidSlotCount is returned for queues of fewer than two slots.
	ErrInvalidSlotCount = errors.New("gpu: buffer queue needs at least two slots")
)

// SlotState is the lifecycle state of one buffer in a BufferQueue.
type SlotState uint8

// Slot states. A slot is Free, then InUse while bound as the framebuffer,
// then PendingPresent from SwapBuffers until the consumer completes the swap.
const (
	SlotFree SlotState = iota
	SlotInUse
	SlotPendingPresent
)

// String returns the state name.
func (s SlotState) String() string {
	switch s {
	case SlotFree:
		return "free"
	case SlotInUse:
		return "in-use"
	case SlotPendingPresent:
		return "pending-present"
	default:
		return "unknown"
	}
}

type slot struct {
	state   SlotState
	texture hal.Texture
	view    hal.TextureView
	mailbox Mailbox
	size    image.Point

	// stale marks a slot reshaped while in flight. Its texture is destroyed
	// when the swap completes.
	stale bool
}

// BufferQueue rotates a fixed set of textures between drawing and
// presentation. Slots are acquired round robin; presented slots return to
// the free list in presentation order.
//
// BufferQueue is not safe for concurrent use; the owning Surface
// serializes access.
type BufferQueue struct {
	device  Device
	format  gputypes.TextureFormat
	context uint64

	slots      []slot
	next       int
	current    int
	inFlight   []int
	size       image.Point
	generation uint32
}

// NewBufferQueue creates a queue of n slots. Textures are allocated lazily
// once the queue has a size.
func NewBufferQueue(device Device, format gputypes.TextureFormat, context uint64, n int) (*BufferQueue, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSlotCount, n)
	}
	return &BufferQueue{
		device:  device,
		format:  format,
		context: context,
		slots:   make([]slot, n),
		current: -1,
	}, nil
}

// Len returns the number of slots.
func (q *BufferQueue) Len() int { return len(q.slots) }

// Size returns the current texture size.
func (q *BufferQueue) Size() image.Point { return q.size }

// State returns the state of slot i.
func (q *BufferQueue) State(i int) SlotState { return q.slots[i].state }

// Mailbox returns the mailbox of slot i. It is zero until the slot has a
// texture.
func (q *BufferQueue) Mailbox(i int) Mailbox { return q.slots[i].mailbox }

// InFlight returns the number of slots awaiting swap completion.
func (q *BufferQueue) InFlight() int { return len(q.inFlight) }

// Current returns the index of the bound slot, or -1.
func (q *BufferQueue) Current() int { return q.current }

// Reshape changes the texture size. Idle textures are destroyed at once and
// recreated on their next acquisition. Slots in flight keep their texture
// until their swap completes. The bound slot is released back to the free
// list. Reshape to the current size is a no-op.
func (q *BufferQueue) Reshape(size image.Point) {
	if size == q.size {
		return
	}
	q.size = size
	for i := range q.slots {
		s := &q.slots[i]
		if s.state == SlotPendingPresent {
			s.stale = true
			continue
		}
		q.destroySlot(s)
		s.state = SlotFree
	}
	q.current = -1
}

// CurrentBuffer returns the bound slot, acquiring the next free one round
// robin if none is bound.
func (q *BufferQueue) CurrentBuffer() (int, error) {
	if q.current >= 0 {
		return q.current, nil
	}
	if q.size.X <= 0 || q.size.Y <= 0 {
		return -1, ErrEmptySurface
	}

	n := len(q.slots)
	for k := 0; k < n; k++ {
		i := (q.next + k) % n
		s := &q.slots[i]
		if s.state != SlotFree {
			continue
		}
		if s.texture == nil || s.size != q.size {
			q.destroySlot(s)
			if err := q.allocate(i); err != nil {
				return -1, err
			}
		}
		s.state = SlotInUse
		q.current = i
		q.next = (i + 1) % n
		return i, nil
	}
	return -1, ErrNoFreeBuffer
}

// SwapBuffers moves the bound slot to PendingPresent and returns it.
func (q *BufferQueue) SwapBuffers() (int, error) {
	i, err := q.CurrentBuffer()
	if err != nil {
		return -1, err
	}
	q.slots[i].state = SlotPendingPresent
	q.inFlight = append(q.inFlight, i)
	q.current = -1
	return i, nil
}

// PageFlipComplete returns the oldest in-flight slot to the free list.
// It reports the slot index and false if nothing was in flight.
func (q *BufferQueue) PageFlipComplete() (int, bool) {
	if len(q.inFlight) == 0 {
		return -1, false
	}
	i := q.inFlight[0]
	q.inFlight = q.inFlight[1:]
	s := &q.slots[i]
	s.state = SlotFree
	if s.stale {
		q.destroySlot(s)
	}
	return i, true
}

// Destroy destroys every texture regardless of state.
func (q *BufferQueue) Destroy() {
	for i := range q.slots {
		q.destroySlot(&q.slots[i])
		q.slots[i].state = SlotFree
	}
	q.inFlight = nil
	q.current = -1
}

func (q *BufferQueue) allocate(i int) error {
	s := &q.slots[i]
	tex, err := q.device.CreateTexture(&hal.TextureDescriptor{
		Label: fmt.Sprintf("osr_buffer_%d", i),
		Size: hal.Extent3D{
			Width:              uint32(q.size.X), //nolint:gosec // G115: size validated positive
			Height:             uint32(q.size.Y), //nolint:gosec // G115: size validated positive
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        q.format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("gpu: create buffer texture: %w", err)
	}
	view, err := q.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: fmt.Sprintf("osr_buffer_%d_view", i),
	})
	if err != nil {
		q.device.DestroyTexture(tex)
		return fmt.Errorf("gpu: create buffer texture view: %w", err)
	}

	q.generation++
	s.texture = tex
	s.view = view
	s.size = q.size
	s.mailbox = newMailbox(q.context, i, q.generation)
	return nil
}

func (q *BufferQueue) destroySlot(s *slot) {
	if s.view != nil {
		q.device.DestroyTextureView(s.view)
		s.view = nil
	}
	if s.texture != nil {
		q.device.DestroyTexture(s.texture)
		s.texture = nil
	}
	s.mailbox = Mailbox{}
	s.size = image.Point{}
	s.stale = false
}
