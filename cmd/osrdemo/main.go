// Command osrdemo renders a synthetic off-screen view with a pop-up and a
// proxy overlay, runs a few paced frames and saves the composited result.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/osr"
	"github.com/gogpu/osr/compositor"
	"github.com/gogpu/osr/delivery"
	"github.com/gogpu/osr/geom"
	"github.com/gogpu/osr/overlay"
)

func main() {
	var (
		width   = flag.Int("width", 640, "view width in DIP")
		height  = flag.Int("height", 360, "view height in DIP")
		scale   = flag.Float64("scale", 1, "device scale factor (0 tracks the display)")
		rate    = flag.Int("fps", 60, "frame rate")
		frames  = flag.Int("frames", 3, "frames to render")
		output  = flag.String("output", "osr.png", "output file")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		osr.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg := osr.NewConfig(
		osr.WithInitialSize(*width, *height),
		osr.WithScaleFactor(*scale),
		osr.WithFrameRate(*rate),
	)
	host, err := compositor.NewHost(cfg)
	if err != nil {
		log.Fatalf("Failed to create host: %v", err)
	}
	defer host.Close()

	var last *image.RGBA
	sink := compositor.SinkFuncs{
		Frame: func(_ image.Rectangle, frame *image.RGBA) {
			last = copyFrame(frame)
		},
	}

	page := &gradientSource{from: color.RGBA{R: 0x20, G: 0x40, B: 0x80, A: 0xff}, to: color.RGBA{R: 0x80, G: 0xc0, B: 0xff, A: 0xff}}
	view, err := host.NewView(nil, page, sink)
	if err != nil {
		log.Fatalf("Failed to create view: %v", err)
	}
	page.attach(view)

	popupSrc := &gradientSource{from: color.RGBA{R: 0xff, G: 0xe0, A: 0xff}, to: color.RGBA{R: 0xff, G: 0x80, A: 0xff}}
	popup, err := view.NewPopup(nil, popupSrc, image.Rect(*width/8, *height/8, *width/2, *height/2))
	if err != nil {
		log.Fatalf("Failed to create popup: %v", err)
	}
	popupSrc.attach(popup)

	badge := overlay.NewProxy(image.Rect(*width-80, 16, *width-16, 48), nil)
	view.AddViewProxy(badge)
	px := geom.ToPixelSize(view.ScaleFactor(), badge.Bounds().Size())
	badge.SetBitmap(fill(px.X, px.Y, color.RGBA{R: 0xe0, G: 0x30, B: 0x30, A: 0xff}))

	for i := 0; i < *frames; i++ {
		view.OnTick()
		popup.OnTick()
		host.RunPending()
	}

	if last == nil {
		log.Fatal("No frame was delivered")
	}
	if err := savePNG(*output, last); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Frame saved to %s (%dx%d)\n", *output, last.Bounds().Dx(), last.Bounds().Dy())
}

// gradientSource stands in for a renderer: every frame request paints a
// vertical gradient into the view's shared region.
type gradientSource struct {
	from, to color.RGBA
	updater  *delivery.Updater
	size     image.Point
}

func (s *gradientSource) attach(v *compositor.View) {
	s.updater = v.DisplayClient().CreateUpdater()
	s.size = v.PixelSize()
	s.updater.AllocateRegion(s.size)
}

func (s *gradientSource) BeginFrame(_ compositor.BeginFrameArgs, ack func()) {
	if s.updater == nil || s.updater.Region() == nil {
		ack()
		return
	}
	img := s.updater.Region().View()
	h := s.size.Y
	for y := 0; y < h; y++ {
		c := lerp(s.from, s.to, y, h)
		for x := 0; x < s.size.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	s.updater.Draw(image.Rectangle{Max: s.size}, ack)
}

func (s *gradientSource) ScheduleFullRedraw() {}

func (s *gradientSource) SetScaleAndSize(_ float64, px image.Point) {
	s.size = px
	if s.updater != nil {
		s.updater.AllocateRegion(px)
	}
}

func lerp(a, b color.RGBA, i, n int) color.RGBA {
	if n <= 1 {
		return a
	}
	mix := func(x, y uint8) uint8 {
		return uint8((int(x)*(n-1-i) + int(y)*i) / (n - 1))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

func fill(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func copyFrame(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	xdraw.Copy(dst, dst.Bounds().Min, src, src.Bounds(), xdraw.Src, nil)
	return dst
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
