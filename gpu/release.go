// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import "sync"

// ReleaseFunc returns a texture to its producer. token orders the release
// after the consumer's reads; lost reports that the texture contents were
// lost and must not be reused.
type ReleaseFunc func(token SyncToken, lost bool)

// Release wraps a ReleaseFunc so it runs exactly once.
//
// A Release travels with every mailbox handed to a consumer. The consumer
// calls Run when it is done with the texture; code paths that drop a frame
// (no consumer, cancelled view, early return) call Run with a zero token.
// Any call after the first is a no-op, so a Release may be run defensively
// on every exit path.
//
// Release is safe for concurrent use: the consumer may complete on another
// goroutine.
type Release struct {
	once sync.Once
	fn   ReleaseFunc
	mu   sync.Mutex
	done bool
}

// NewRelease wraps fn. A nil fn yields a Release whose Run only records
// completion.
func NewRelease(fn ReleaseFunc) *Release {
	return &Release{fn: fn}
}

// Run invokes the wrapped function if it has not run yet and reports whether
// this call was the one that ran it. A nil Release is ignored.
func (r *Release) Run(token SyncToken, lost bool) bool {
	if r == nil {
		return false
	}
	ran := false
	r.once.Do(func() {
		ran = true
		r.mu.Lock()
		r.done = true
		r.mu.Unlock()
		if r.fn != nil {
			r.fn(token, lost)
		}
	})
	return ran
}

// Drop runs the release with a zero sync token.
func (r *Release) Drop() bool {
	return r.Run(SyncToken{}, false)
}

// Done reports whether the release has run.
func (r *Release) Done() bool {
	if r == nil {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}
