// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package osr

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
)

// Frame rate limits accepted by the pacing loop.
const (
	MinFrameRate     = 1
	MaxFrameRate     = 240
	DefaultFrameRate = 60
)

// AutoScaleFactor selects the display-tracked device scale factor.
const AutoScaleFactor = 0.0

// DefaultScaleFactor is used until a display reports its own factor.
const DefaultScaleFactor = 1.0

// DefaultBufferSlots is the number of GPU swap buffers per surface.
const DefaultBufferSlots = 3

// MinBufferSlots keeps at least one buffer presentable while one is drawn.
const MinBufferSlots = 2

// DefaultMaxRegionBytes bounds a single shared pixel region (16384x16384 RGBA).
const DefaultMaxRegionBytes int64 = 16384 * 16384 * 4

// Configuration errors.
var (
	// ErrInvalidSize is returned when the initial size is negative.
	ErrInvalidSize = errors.New("osr: invalid initial size")

	// ErrInvalidScaleFactor is returned for negative or non-finite scale factors.
	ErrInvalidScaleFactor = errors.New("osr: invalid scale factor")

	// ErrInvalidBufferSlots is returned when fewer than MinBufferSlots are requested.
	ErrInvalidBufferSlots = errors.New("osr: invalid buffer slot count")
)

// Config describes one off-screen view. It is normally loaded by the host
// and handed to compositor.NewHost.
type Config struct {
	// Transparent makes the composited background fully transparent.
	Transparent bool

	// Size is the initial logical (device-independent) view size.
	Size image.Point

	// FrameRate is the pacing rate in Hz. Values outside [1,240] are clamped.
	FrameRate int

	// ScaleFactor is the manual device scale factor.
	// AutoScaleFactor (0) tracks the display instead.
	ScaleFactor float64

	// Background fills pixels not covered by any surface when the view is
	// not transparent.
	Background color.RGBA

	// BufferSlots is the swap buffer count of the GPU surface.
	BufferSlots int

	// MaxRegionBytes bounds shared pixel region allocations.
	MaxRegionBytes int64
}

// Option configures a Config.
//
// Example:
//
//	cfg := osr.NewConfig(osr.WithInitialSize(800, 600), osr.WithFrameRate(30))
type Option func(*Config)

// DefaultConfig returns the default configuration: opaque white background,
// 60 Hz, auto scale factor, triple-buffered GPU surface.
func DefaultConfig() Config {
	return Config{
		FrameRate:      DefaultFrameRate,
		ScaleFactor:    AutoScaleFactor,
		Background:     color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		BufferSlots:    DefaultBufferSlots,
		MaxRegionBytes: DefaultMaxRegionBytes,
	}
}

// NewConfig applies opts on top of DefaultConfig.
// The frame rate is clamped; other fields are taken as given.
func NewConfig(opts ...Option) Config {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	c.FrameRate = ClampFrameRate(c.FrameRate)
	return c
}

// WithTransparent sets the transparent background flag.
func WithTransparent(transparent bool) Option {
	return func(c *Config) {
		c.Transparent = transparent
	}
}

// WithInitialSize sets the initial logical view size.
func WithInitialSize(width, height int) Option {
	return func(c *Config) {
		c.Size = image.Pt(width, height)
	}
}

// WithFrameRate sets the pacing rate in Hz.
func WithFrameRate(hz int) Option {
	return func(c *Config) {
		c.FrameRate = hz
	}
}

// WithScaleFactor sets a manual device scale factor.
// Pass AutoScaleFactor to follow the display.
func WithScaleFactor(scale float64) Option {
	return func(c *Config) {
		c.ScaleFactor = scale
	}
}

// WithBackground sets the opaque background color.
func WithBackground(bg color.RGBA) Option {
	return func(c *Config) {
		c.Background = bg
	}
}

// WithBufferSlots sets the GPU swap buffer count.
func WithBufferSlots(n int) Option {
	return func(c *Config) {
		c.BufferSlots = n
	}
}

// WithMaxRegionBytes sets the shared region size limit.
func WithMaxRegionBytes(n int64) Option {
	return func(c *Config) {
		c.MaxRegionBytes = n
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Size.X < 0 || c.Size.Y < 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, c.Size.X, c.Size.Y)
	}
	if c.ScaleFactor < 0 || math.IsNaN(c.ScaleFactor) || math.IsInf(c.ScaleFactor, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidScaleFactor, c.ScaleFactor)
	}
	if c.BufferSlots < MinBufferSlots {
		return fmt.Errorf("%w: %d (minimum %d)", ErrInvalidBufferSlots, c.BufferSlots, MinBufferSlots)
	}
	return nil
}

// ClampFrameRate limits hz to [MinFrameRate, MaxFrameRate].
func ClampFrameRate(hz int) int {
	if hz < MinFrameRate {
		return MinFrameRate
	}
	if hz > MaxFrameRate {
		return MaxFrameRate
	}
	return hz
}
