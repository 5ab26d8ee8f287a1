package compositor

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/osr"
	"github.com/gogpu/osr/input"
)

// fakeSource records frame requests and size changes.
type fakeSource struct {
	begins  []BeginFrameArgs
	acks    []func()
	redraws int
	scale   float64
	size    image.Point
	resizes int
}

func (s *fakeSource) BeginFrame(args BeginFrameArgs, ack func()) {
	s.begins = append(s.begins, args)
	s.acks = append(s.acks, ack)
}

func (s *fakeSource) ScheduleFullRedraw() { s.redraws++ }

func (s *fakeSource) SetScaleAndSize(scale float64, px image.Point) {
	s.scale = scale
	s.size = px
	s.resizes++
}

// ackLast acknowledges the latest frame request.
func (s *fakeSource) ackLast() {
	s.acks[len(s.acks)-1]()
}

type delivered struct {
	damage image.Rectangle
	frame  *image.RGBA
}

// recordingSink keeps a copy of every delivered frame.
type recordingSink struct {
	frames   []delivered
	textures []TextureFrame
	onFrame  func()
}

func (s *recordingSink) OnFrame(damage image.Rectangle, frame *image.RGBA) {
	s.frames = append(s.frames, delivered{damage: damage, frame: cloneRGBA(frame)})
	if s.onFrame != nil {
		s.onFrame()
	}
}

func (s *recordingSink) OnTextureFrame(f TextureFrame) {
	s.textures = append(s.textures, f)
}

func (s *recordingSink) last(t *testing.T) delivered {
	t.Helper()
	if len(s.frames) == 0 {
		t.Fatal("no frame delivered")
	}
	return s.frames[len(s.frames)-1]
}

type recordingTarget struct {
	mouse []input.MouseEvent
	wheel []input.WheelEvent
}

func (r *recordingTarget) ProcessMouseEvent(e input.MouseEvent)      { r.mouse = append(r.mouse, e) }
func (r *recordingTarget) ProcessMouseWheelEvent(e input.WheelEvent) { r.wheel = append(r.wheel, e) }

var (
	red   = color.RGBA{R: 0xff, A: 0xff}
	green = color.RGBA{G: 0xff, A: 0xff}
	blue  = color.RGBA{B: 0xff, A: 0xff}
	white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func newTestHost(t *testing.T, opts ...osr.Option) *Host {
	t.Helper()
	opts = append([]osr.Option{osr.WithInitialSize(100, 50)}, opts...)
	h, err := NewHost(osr.NewConfig(opts...))
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	return h
}

func newTestView(t *testing.T, h *Host) (*View, *fakeSource, *recordingSink, *recordingTarget) {
	t.Helper()
	src := &fakeSource{}
	sink := &recordingSink{}
	target := &recordingTarget{}
	v, err := h.NewView(target, src, sink)
	if err != nil {
		t.Fatalf("NewView: %v", err)
	}
	return v, src, sink, target
}

func pixel(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}
