// Package frame holds grayscale intensity frames used for odometry.
//
// A Frame is a rows×cols matrix of raw intensities together with the
// maximum representable intensity, so callers can get a [0,1] normalized
// copy without knowing how the frame was sourced.
package frame

import (
	"errors"
	"fmt"
	"image"

	"gonum.org/v1/gonum/mat"
)

// DefaultMaxValue is the intensity scale of 8-bit imagery.
const DefaultMaxValue = 255.0

var (
	// ErrEmpty is returned when a frame has no pixels.
	ErrEmpty = errors.New("frame: empty")

	// ErrOutOfBounds is returned when a crop leaves the frame.
	ErrOutOfBounds = errors.New("frame: region out of bounds")

	// ErrInvalidScale is returned for a non-positive max value.
	ErrInvalidScale = errors.New("frame: max value must be positive")
)

// Frame is a read-only grid of intensity samples.
// Rows map to image Y and columns to image X.
type Frame struct {
	data     *mat.Dense
	maxValue float64
}

// New creates a frame from row-major data. len(data) must equal rows*cols.
func New(rows, cols int, data []float64, maxValue float64) (*Frame, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmpty, cols, rows)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("frame: data length %d does not match %dx%d", len(data), cols, rows)
	}
	return FromDense(mat.NewDense(rows, cols, data), maxValue)
}

// FromDense wraps an existing matrix. The matrix is not copied and must not
// be modified while the frame is in use.
func FromDense(m *mat.Dense, maxValue float64) (*Frame, error) {
	if m == nil || m.IsEmpty() {
		return nil, ErrEmpty
	}
	if maxValue <= 0 {
		return nil, ErrInvalidScale
	}
	return &Frame{data: m, maxValue: maxValue}, nil
}

// Dims returns the number of rows and columns.
func (f *Frame) Dims() (rows, cols int) {
	return f.data.Dims()
}

// Bounds returns the frame extent in image coordinates (X = column, Y = row).
func (f *Frame) Bounds() image.Rectangle {
	rows, cols := f.data.Dims()
	return image.Rect(0, 0, cols, rows)
}

// MaxValue returns the maximum representable intensity.
func (f *Frame) MaxValue() float64 {
	return f.maxValue
}

// At returns the raw intensity at (row, col).
func (f *Frame) At(row, col int) float64 {
	return f.data.At(row, col)
}

// Matrix exposes the raw intensities as a read-only matrix.
func (f *Frame) Matrix() mat.Matrix {
	return f.data
}

// Normalized returns a fresh copy of the frame scaled into [0,1].
func (f *Frame) Normalized() *mat.Dense {
	var n mat.Dense
	n.Scale(1/f.maxValue, f.data)
	return &n
}

// Crop returns a view of the region r (X = column, Y = row). The view shares
// storage with f.
func (f *Frame) Crop(r image.Rectangle) (*Frame, error) {
	if r.Empty() {
		return nil, fmt.Errorf("%w: %v", ErrEmpty, r)
	}
	if !r.In(f.Bounds()) {
		return nil, fmt.Errorf("%w: %v not in %v", ErrOutOfBounds, r, f.Bounds())
	}
	view := f.data.Slice(r.Min.Y, r.Max.Y, r.Min.X, r.Max.X).(*mat.Dense)
	return &Frame{data: view, maxValue: f.maxValue}, nil
}

// SameSize reports whether two frames have identical dimensions.
func SameSize(a, b *Frame) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	return ar == br && ac == bc
}
