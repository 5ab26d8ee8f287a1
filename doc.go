// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package osr is an off-screen frame compositing and pixel delivery pipeline.
//
// A host application uses osr to receive rendered page content as raw pixel
// buffers or GPU texture handles instead of drawing to a visible window.
// Rendering itself happens elsewhere; osr receives finished frames from an
// external frame source, merges them with overlay surfaces, paces frame
// production and hands the result to the host.
//
// # Packages
//
//   - delivery: shared-memory pixel regions and GPU swap notifications from
//     the frame source (the Pixel Delivery Channel)
//   - compositor: views, merging, resize hold, frame pacing, event routing and
//     teardown (the Compositor Core)
//   - overlay: proxy views and the registry that orders them
//   - gpu: mailboxes, sync tokens, once-only releases and the double-buffered
//     GPU swap surface
//   - geom, input: coordinate conversion and input event values
//
// # Data Flow
//
//	Frame Source ──► delivery.Updater ──► compositor.View ◄── overlay.Registry
//	                 delivery.DisplayClient      │
//	                                             ├──► gpu.Surface (GPU path)
//	                                             ▼
//	                                        compositor.Sink (host)
//
// # Thread Safety
//
// All compositing, overlay mutation and delivery decisions run on one owning
// goroutine. Work from other goroutines (tick sources, GPU completions) is
// posted to the compositor.Host task runner and executed in FIFO order by the
// owner. Only SetLogger/Logger, gpu.Service and Host.Post are safe for
// concurrent use.
//
// # Logging
//
// osr is silent by default. Use SetLogger to route diagnostics to a
// [log/slog] logger.
package osr
