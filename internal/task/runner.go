// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package task implements the posted-callback queue of the owning goroutine.
//
// Every compositor decision runs on a single owner. Other goroutines (tick
// sources, GPU completions) never touch compositor state directly; they Post
// closures that the owner drains in FIFO order with RunPending or Run.
package task

import (
	"context"
	"sync"
)

// Runner is a FIFO queue of closures executed by one owner goroutine.
//
// Post and PostFor are safe for concurrent use. RunPending and Run must only
// be called from the owner.
type Runner struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped bool
}

// NewRunner creates an empty runner.
func NewRunner() *Runner {
	return &Runner{wake: make(chan struct{}, 1)}
}

// Post appends fn to the queue. Posting to a stopped runner drops fn.
func (r *Runner) Post(fn func()) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.queue = append(r.queue, fn)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// PostFor posts fn guarded by alive. When the task runs, fn is skipped if
// alive reports false, so continuations bound to a destroyed owner become
// no-ops instead of touching freed state.
func (r *Runner) PostFor(alive func() bool, fn func()) {
	r.Post(func() {
		if alive != nil && !alive() {
			return
		}
		fn()
	})
}

// Pending returns the number of queued tasks.
func (r *Runner) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// RunPending runs the tasks queued at the time of the call and returns how
// many ran. Tasks posted while draining run on the next call, which keeps a
// task that re-posts itself from starving the owner.
func (r *Runner) RunPending() int {
	r.mu.Lock()
	batch := r.queue
	r.queue = nil
	r.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Run drains the queue until ctx is done or Stop is called.
func (r *Runner) Run(ctx context.Context) error {
	for {
		r.RunPending()

		r.mu.Lock()
		stopped := r.stopped
		r.mu.Unlock()
		if stopped {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.wake:
		}
	}
}

// Stop drops queued tasks, rejects further posts and ends Run.
// Stop is idempotent.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.queue = nil
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}
