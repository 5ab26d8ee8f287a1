package compositor

import (
	"image"
	"time"

	"github.com/gogpu/osr/gpu"
	"github.com/gogpu/osr/input"
)

// BeginFrameArgs describes one frame request.
type BeginFrameArgs struct {
	Sequence  uint64
	FrameTime time.Time
	Interval  time.Duration
}

// FrameSource renders the view contents. It is implemented by the host's
// renderer.
type FrameSource interface {
	// BeginFrame requests one frame. ack must be called once the frame was
	// produced or dropped; it may be called from any goroutine.
	BeginFrame(args BeginFrameArgs, ack func())

	// ScheduleFullRedraw invalidates the whole view.
	ScheduleFullRedraw()

	// SetScaleAndSize reports a new device scale factor and pixel size.
	SetScaleAndSize(scale float64, pixelSize image.Point)
}

// TextureFrame is a GPU frame handed to the host. The host must wait on
// SyncToken before sampling Mailbox and must run Release exactly once.
type TextureFrame struct {
	Mailbox   gpu.Mailbox
	SyncToken gpu.SyncToken
	Rect      image.Rectangle
	IsPopup   bool
	Release   *gpu.Release
}

// Empty reports whether the frame carries no texture. Empty pop-up frames
// announce that the pop-up went away.
func (f TextureFrame) Empty() bool { return f.Mailbox.IsZero() }

// Sink is the host consumer of composited frames.
type Sink interface {
	// OnFrame delivers a CPU frame. frame is only valid during the call.
	OnFrame(damage image.Rectangle, frame *image.RGBA)

	// OnTextureFrame delivers a GPU frame.
	OnTextureFrame(f TextureFrame)
}

// Target is the render widget receiving the events not consumed by
// overlays.
type Target interface {
	ProcessMouseEvent(e input.MouseEvent)
	ProcessMouseWheelEvent(e input.WheelEvent)
}

// SinkFuncs adapts plain functions to Sink. A nil OnTexture drops texture
// frames and runs their release.
type SinkFuncs struct {
	Frame   func(damage image.Rectangle, frame *image.RGBA)
	Texture func(f TextureFrame)
}

// OnFrame implements Sink.
func (s SinkFuncs) OnFrame(damage image.Rectangle, frame *image.RGBA) {
	if s.Frame != nil {
		s.Frame(damage, frame)
	}
}

// OnTextureFrame implements Sink.
func (s SinkFuncs) OnTextureFrame(f TextureFrame) {
	if s.Texture != nil {
		s.Texture(f)
		return
	}
	f.Release.Drop()
}
