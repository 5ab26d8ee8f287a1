package compositor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/osr"
	"github.com/gogpu/osr/internal/task"
)

// Pacer is the one-slot frame pacing token. At most one frame request is
// outstanding; the token frees only when that request is acknowledged.
type Pacer struct {
	inFlight bool
	sequence uint64
}

// TryAcquire takes the token and returns the new request sequence number.
// It reports false while a request is outstanding.
func (p *Pacer) TryAcquire() (uint64, bool) {
	if p.inFlight {
		return 0, false
	}
	p.inFlight = true
	p.sequence++
	return p.sequence, true
}

// Ack frees the token if seq is the outstanding request.
func (p *Pacer) Ack(seq uint64) bool {
	if !p.inFlight || seq != p.sequence {
		return false
	}
	p.inFlight = false
	return true
}

// InFlight reports whether a request is outstanding.
func (p *Pacer) InFlight() bool { return p.inFlight }

// Sequence returns the number of requests issued.
func (p *Pacer) Sequence() uint64 { return p.sequence }

// Interval returns the frame interval for hz.
func Interval(hz int) time.Duration {
	return time.Second / time.Duration(osr.ClampFrameRate(hz))
}

// OnTick requests one frame from the frame source if the pacing token is
// free. With a GPU surface attached and painting enabled, the tick also
// presents the surface.
func (v *View) OnTick() {
	if v.destroyed || !v.showing {
		return
	}
	seq, ok := v.pacer.TryAcquire()
	if !ok {
		return
	}

	if v.source != nil {
		args := BeginFrameArgs{
			Sequence:  seq,
			FrameTime: time.Now(),
			Interval:  Interval(v.frameRate),
		}
		ack := sync.OnceFunc(func() {
			v.host.runner.PostFor(v.alive, func() { v.pacer.Ack(seq) })
		})
		v.source.BeginFrame(args, ack)
	} else {
		v.pacer.Ack(seq)
	}

	if v.painting {
		v.pumpGPU()
	}
}

// FrameInFlight reports whether a frame request awaits acknowledgment.
func (v *View) FrameInFlight() bool { return v.pacer.InFlight() }

// FrameRate returns the pacing rate in Hz.
func (v *View) FrameRate() int { return v.frameRate }

// SetFrameRate sets the pacing rate, clamped to [1,240]. Pop-ups and child
// views ignore hz and follow their parent.
func (v *View) SetFrameRate(hz int) {
	if parent, ok := v.host.View(v.parent); ok {
		if parent.frameRate == v.frameRate {
			return
		}
		v.frameRate = parent.frameRate
	} else {
		v.frameRate = osr.ClampFrameRate(hz)
	}

	if v.ticker != nil {
		v.ticker.Reset(v.frameRate)
	}
	if c, ok := v.host.View(v.child); ok {
		c.SetFrameRate(v.frameRate)
	}
	if p, ok := v.host.View(v.popup); ok {
		p.SetFrameRate(v.frameRate)
	}
}

// Painting reports whether frames are delivered.
func (v *View) Painting() bool { return v.painting }

// SetPainting toggles delivery and the GPU frame pump. Resuming requests a
// full redraw.
func (v *View) SetPainting(painting bool) {
	v.painting = painting
	if p, ok := v.host.View(v.popup); ok {
		p.SetPainting(painting)
	}
	v.display.SetActive(painting)
	if painting && v.source != nil {
		v.source.ScheduleFullRedraw()
	}
}

// StartTicking starts a Ticker driving OnTick at the view's frame rate.
func (v *View) StartTicking() {
	if v.destroyed || v.ticker != nil {
		return
	}
	v.ticker = StartTicker(v.host.runner, v.frameRate, func() {
		if v.alive() {
			v.OnTick()
		}
	})
}

// StopTicking stops the view's Ticker.
func (v *View) StopTicking() {
	if v.ticker != nil {
		v.ticker.Stop()
		v.ticker = nil
	}
}

// Ticker is an external tick source. It runs on its own goroutine and posts
// ticks to a runner; a tick is not posted while the previous one is still
// queued.
type Ticker struct {
	runner *task.Runner
	fn     func()

	queued atomic.Bool
	reset  chan time.Duration
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// StartTicker starts posting fn to r at hz.
func StartTicker(r *task.Runner, hz int, fn func()) *Ticker {
	t := &Ticker{
		runner: r,
		fn:     fn,
		reset:  make(chan time.Duration, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go t.loop(Interval(hz))
	return t
}

func (t *Ticker) loop(interval time.Duration) {
	defer close(t.done)
	tk := time.NewTicker(interval)
	defer tk.Stop()
	for {
		select {
		case <-t.stop:
			return
		case d := <-t.reset:
			tk.Reset(d)
		case <-tk.C:
			if t.queued.CompareAndSwap(false, true) {
				t.runner.Post(func() {
					t.queued.Store(false)
					t.fn()
				})
			}
		}
	}
}

// Reset changes the tick rate.
func (t *Ticker) Reset(hz int) {
	d := Interval(hz)
	select {
	case t.reset <- d:
	default:
		// Replace a reset not yet picked up.
		select {
		case <-t.reset:
		default:
		}
		t.reset <- d
	}
}

// Stop ends the goroutine and waits for it. Stop is idempotent.
func (t *Ticker) Stop() {
	t.once.Do(func() {
		close(t.stop)
		<-t.done
	})
}
