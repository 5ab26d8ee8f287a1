package compositor

import (
	"errors"
	"fmt"

	"github.com/gogpu/osr"
	"github.com/gogpu/osr/gpu"
	"github.com/gogpu/osr/internal/task"
)

// Host errors.
var (
	// ErrNilSink is returned when a primary view is created without a sink.
	ErrNilSink = errors.New("compositor: nil sink")

	// ErrHostClosed is returned when views are created on a closed host.
	ErrHostClosed = errors.New("compositor: host closed")

	// ErrViewDestroyed is returned when a destroyed view is used as a parent.
	ErrViewDestroyed = errors.New("compositor: view destroyed")
)

// ViewID identifies a view in its Host. The zero ViewID is never assigned.
type ViewID uint64

// Host owns the views of one owning goroutine.
//
// Host is not safe for concurrent use. Other goroutines interact with it
// only through Post.
type Host struct {
	cfg    osr.Config
	runner *task.Runner
	gpu    *gpu.Service

	views  map[ViewID]*View
	next   ViewID
	closed bool
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithGPU enables the GPU path: every view gets its own context and swap
// surface on svc.
func WithGPU(svc *gpu.Service) HostOption {
	return func(h *Host) {
		h.gpu = svc
	}
}

// NewHost creates a host for views configured by cfg.
func NewHost(cfg osr.Config, opts ...HostOption) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("compositor: %w", err)
	}
	cfg.FrameRate = osr.ClampFrameRate(cfg.FrameRate)
	h := &Host{
		cfg:    cfg,
		runner: task.NewRunner(),
		views:  make(map[ViewID]*View),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Config returns the view configuration.
func (h *Host) Config() osr.Config { return h.cfg }

// Post queues fn for the owning goroutine. Post is safe for concurrent use.
func (h *Host) Post(fn func()) { h.runner.Post(fn) }

// RunPending runs the tasks queued so far and returns how many ran.
func (h *Host) RunPending() int { return h.runner.RunPending() }

// Runner returns the owning goroutine's task runner.
func (h *Host) Runner() *task.Runner { return h.runner }

// View returns the live view with the given id.
func (h *Host) View(id ViewID) (*View, bool) {
	if id == 0 {
		return nil, false
	}
	v, ok := h.views[id]
	return v, ok
}

// Len returns the number of live views.
func (h *Host) Len() int { return len(h.views) }

// Close destroys every view and rejects new ones. Queued tasks, including
// GPU shutdowns, still run on the next RunPending. Close is idempotent.
func (h *Host) Close() {
	if h.closed {
		return
	}
	h.closed = true
	for _, v := range h.views {
		if v.kind == KindPrimary {
			v.Destroy()
		}
	}
	for _, v := range h.views {
		v.Destroy()
	}
}

func (h *Host) register(v *View) {
	h.next++
	v.id = h.next
	h.views[v.id] = v
}

func (h *Host) unregister(v *View) {
	delete(h.views, v.id)
}
