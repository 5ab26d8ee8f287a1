// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package geom converts between device-independent (DIP) and device-pixel
// coordinates.
//
// Logical view sizes, pop-up positions and proxy bounds are expressed in DIP.
// Bitmaps and damage rectangles are expressed in device pixels. The scale
// factor maps one to the other.
package geom

import (
	"image"
	"math"
)

// ToPixelRect scales a DIP rectangle and returns the smallest integer
// rectangle enclosing the result.
func ToPixelRect(scale float64, r image.Rectangle) image.Rectangle {
	if scale == 1 {
		return r
	}
	return image.Rect(
		int(math.Floor(float64(r.Min.X)*scale)),
		int(math.Floor(float64(r.Min.Y)*scale)),
		int(math.Ceil(float64(r.Max.X)*scale)),
		int(math.Ceil(float64(r.Max.Y)*scale)),
	)
}

// ToPixelSize scales a DIP size, rounding each dimension up.
func ToPixelSize(scale float64, size image.Point) image.Point {
	if scale == 1 {
		return size
	}
	return image.Pt(
		int(math.Ceil(float64(size.X)*scale)),
		int(math.Ceil(float64(size.Y)*scale)),
	)
}

// ToPixelPoint scales a DIP point, rounding toward negative infinity.
func ToPixelPoint(scale float64, p image.Point) image.Point {
	if scale == 1 {
		return p
	}
	return image.Pt(
		int(math.Floor(float64(p.X)*scale)),
		int(math.Floor(float64(p.Y)*scale)),
	)
}

// Bounds returns the rectangle of the given size anchored at the origin.
func Bounds(size image.Point) image.Rectangle {
	return image.Rectangle{Max: size}
}
