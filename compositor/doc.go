// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package compositor merges the surfaces of an off-screen view into the
// frames delivered to the host.
//
// A Host owns an arena of views indexed by ViewID and the task runner of the
// owning goroutine. A primary View may host one pop-up and one child view;
// views refer to each other by id, so a destroyed view simply disappears
// from the arena and every later lookup misses.
//
// # Compositing
//
// CompositeFrame produces one output frame:
//
//	backing frame at the origin
//	pop-up backing at its bounds in device pixels
//	proxy overlays in registration order (later on top)
//
// Without overlays the backing frame is delivered as is. The damage rect is
// always clipped to the output bounds.
//
// # Resizing
//
// Resizes never happen during a composite. A resize requested while a
// composite is running is recorded as pending and applied by a task posted
// to the runner once the composite finishes.
//
// # Frame Pacing
//
// Every tick requests at most one frame from the FrameSource. The next
// request waits until the previous one is acknowledged.
package compositor
