// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package input defines the mouse and wheel events routed through a view.
//
// Events carry positions in view-local DIP coordinates. Routing to an overlay
// or pop-up translates the position into the target's local space with
// Translated; the original event is never modified.
package input

import "image"

// MouseEventType identifies a mouse action.
type MouseEventType uint8

const (
	// MouseUnknown is an unrecognized mouse action.
	MouseUnknown MouseEventType = iota

	// MousePressed is a button press.
	MousePressed

	// MouseReleased is a button release.
	MouseReleased

	// MouseMoved is pointer motion.
	MouseMoved

	// MouseEntered is the pointer entering the view.
	MouseEntered

	// MouseExited is the pointer leaving the view.
	MouseExited

	// MouseWheel is a wheel or trackpad scroll.
	MouseWheel
)

// String returns the event type name.
func (t MouseEventType) String() string {
	switch t {
	case MousePressed:
		return "pressed"
	case MouseReleased:
		return "released"
	case MouseMoved:
		return "moved"
	case MouseEntered:
		return "entered"
	case MouseExited:
		return "exited"
	case MouseWheel:
		return "wheel"
	default:
		return "unknown"
	}
}

// Button is a bit set of mouse buttons.
type Button uint8

// Mouse buttons.
const (
	ButtonLeft Button = 1 << iota
	ButtonMiddle
	ButtonRight
	ButtonBack
	ButtonForward
)

// Event is any positioned input event.
type Event interface {
	// Position returns the event location in the receiver's local DIP space.
	Position() image.Point

	// Translated returns a copy of the event moved by -origin, i.e. expressed
	// relative to a target whose top-left corner is origin.
	Translated(origin image.Point) Event
}

// MouseEvent is a pointer button or motion event.
type MouseEvent struct {
	Type       MouseEventType
	Pos        image.Point
	Buttons    Button
	ClickCount int
}

// Position returns the event location.
func (e MouseEvent) Position() image.Point { return e.Pos }

// Translated returns the event relative to origin.
func (e MouseEvent) Translated(origin image.Point) Event {
	return e.TranslatedMouse(origin)
}

// TranslatedMouse is Translated with a concrete result type.
func (e MouseEvent) TranslatedMouse(origin image.Point) MouseEvent {
	e.Pos = e.Pos.Sub(origin)
	return e
}

// WheelEvent is a scroll event.
type WheelEvent struct {
	MouseEvent
	DeltaX int
	DeltaY int
}

// NewWheelEvent returns a wheel event at pos with the given deltas.
func NewWheelEvent(pos image.Point, dx, dy int) WheelEvent {
	return WheelEvent{
		MouseEvent: MouseEvent{Type: MouseWheel, Pos: pos},
		DeltaX:     dx,
		DeltaY:     dy,
	}
}

// Translated returns the event relative to origin.
func (e WheelEvent) Translated(origin image.Point) Event {
	return e.TranslatedWheel(origin)
}

// TranslatedWheel is Translated with a concrete result type.
func (e WheelEvent) TranslatedWheel(origin image.Point) WheelEvent {
	e.Pos = e.Pos.Sub(origin)
	return e
}

// Compile-time interface checks.
var (
	_ Event = MouseEvent{}
	_ Event = WheelEvent{}
)
