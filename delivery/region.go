package delivery

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// Region allocation errors. They are logged by Updater.AllocateRegion and
// never returned to the frame source.
var (
	// ErrInvalidRegionSize is returned for a non-positive width or height.
	ErrInvalidRegionSize = errors.New("delivery: invalid region size")

	// ErrRegionTooLarge is returned when width*height*4 overflows or exceeds
	// the configured limit.
	ErrRegionTooLarge = errors.New("delivery: region too large")

	// ErrRegionMapFailed is returned when the operating system refuses the
	// mapping.
	ErrRegionMapFailed = errors.New("delivery: map shared region")
)

// BytesPerPixel is the fixed pixel stride of a shared region (RGBA).
const BytesPerPixel = 4

// regionBytes validates size and returns the exact byte length of a region
// holding it.
func regionBytes(size image.Point, limit int64) (int, error) {
	if size.X <= 0 || size.Y <= 0 {
		return 0, fmt.Errorf("%w: %dx%d", ErrInvalidRegionSize, size.X, size.Y)
	}
	w, h := int64(size.X), int64(size.Y)
	if w > math.MaxInt64/BytesPerPixel/h {
		return 0, fmt.Errorf("%w: %dx%d overflows", ErrRegionTooLarge, size.X, size.Y)
	}
	n := w * h * BytesPerPixel
	if limit > 0 && n > limit {
		return 0, fmt.Errorf("%w: %d bytes exceeds limit %d", ErrRegionTooLarge, n, limit)
	}
	if n > math.MaxInt {
		return 0, fmt.Errorf("%w: %d bytes exceeds address space", ErrRegionTooLarge, n)
	}
	return int(n), nil
}

// Region is a mapped block of shared memory holding one RGBA frame with
// premultiplied alpha, exactly width*height*4 bytes long.
type Region struct {
	data  []byte
	size  image.Point
	unmap func([]byte) error
}

// MapRegion maps a region for a frame of the given size.
func MapRegion(size image.Point, limit int64) (*Region, error) {
	n, err := regionBytes(size, limit)
	if err != nil {
		return nil, err
	}
	data, unmap, err := mapShared(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegionMapFailed, err)
	}
	return &Region{data: data, size: size, unmap: unmap}, nil
}

// Size returns the frame size in pixels.
func (r *Region) Size() image.Point { return r.size }

// Len returns the mapping length in bytes, or 0 after Release.
func (r *Region) Len() int { return len(r.data) }

// Bytes returns the mapped memory. The frame source writes into it.
func (r *Region) Bytes() []byte { return r.data }

// Mapped reports whether the region still holds memory.
func (r *Region) Mapped() bool { return r.data != nil }

// View returns an image over the mapped memory without copying. The view is
// invalid after Release.
func (r *Region) View() *image.RGBA {
	if r.data == nil {
		return nil
	}
	return &image.RGBA{
		Pix:    r.data,
		Stride: r.size.X * BytesPerPixel,
		Rect:   image.Rectangle{Max: r.size},
	}
}

// Release unmaps the region. Release is idempotent.
func (r *Region) Release() error {
	if r.data == nil {
		return nil
	}
	data := r.data
	r.data = nil
	if r.unmap == nil {
		return nil
	}
	return r.unmap(data)
}
