// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package overlay tracks the secondary surfaces composited over a view.
//
// An overlay is anything that can be painted and receive events. Overlays
// are described by small capability interfaces rather than a type
// hierarchy: Paintable, EventTarget and, optionally, Resizable.
//
// Registry holds overlays in registration order. Later registrations are
// painted on top. Removing an overlay while the registry is being iterated
// is safe; the iteration skips it.
package overlay

import (
	"image"

	"github.com/gogpu/osr/input"
)

// Paintable is a surface with bounds and a bitmap.
type Paintable interface {
	// Bounds returns the overlay rectangle in device-independent pixels,
	// relative to the view it overlays.
	Bounds() image.Rectangle

	// Bitmap returns the latest contents, or nil if nothing was painted.
	// The bitmap is owned by the overlay.
	Bitmap() *image.RGBA
}

// EventTarget receives routed input in overlay-local coordinates.
type EventTarget interface {
	OnEvent(e input.Event)
}

// Resizable overlays accept new bounds from their host.
type Resizable interface {
	SetBounds(r image.Rectangle)
}

// Overlay is the capability set required for registration.
type Overlay interface {
	Paintable
	EventTarget
}

// ID identifies a registration. IDs are never reused by a Registry.
type ID uint64

// Observer is notified by overlays that repaint or go away on their own.
type Observer interface {
	// OverlayPainted reports that the overlay's bitmap changed inside rect
	// (device-independent pixels, view coordinates).
	OverlayPainted(id ID, rect image.Rectangle)

	// OverlayDestroyed reports that the overlay must no longer be used.
	OverlayDestroyed(id ID)
}

// Observable overlays accept an observer when registered.
type Observable interface {
	Attach(id ID, obs Observer)
	Detach()
}
