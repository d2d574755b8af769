package odometry

import (
	"fmt"
	"image"
	"math/rand/v2"
	"sync"

	"github.com/teslashibe/go-odometry/pkg/frame"
)

// sampleMargin keeps the patch origin at least this far from the far edge,
// so every frame larger than sampleMargin in both dimensions can be sampled.
const sampleMargin = 5

// Source is the random source used to place patches.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// NewSource returns a PCG source. A zero seed picks a random one.
func NewSource(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sampler draws random patches. It is safe for concurrent use.
type Sampler struct {
	rng Source
	mu  sync.Mutex
}

// NewSampler creates a sampler drawing from rng.
func NewSampler(rng Source) *Sampler {
	return &Sampler{rng: rng}
}

// Sample cuts a random patch out of f and normalizes it to [0,1].
//
// The origin column is drawn from [0, cols-5) and the exclusive end column
// from (origin, cols); rows likewise. Patches are therefore at least 1×1 and
// never touch the last row or column.
func (s *Sampler) Sample(f *frame.Frame) (Patch, error) {
	rows, cols := f.Dims()
	if rows <= sampleMargin || cols <= sampleMargin {
		return Patch{}, fmt.Errorf("%w: %dx%d, need more than %d in both dimensions",
			ErrFrameTooSmall, cols, rows, sampleMargin)
	}

	s.mu.Lock()
	col1 := s.rng.IntN(cols - sampleMargin)
	col2 := col1 + 1 + s.rng.IntN(cols-col1-1)
	row1 := s.rng.IntN(rows - sampleMargin)
	row2 := row1 + 1 + s.rng.IntN(rows-row1-1)
	s.mu.Unlock()

	region, err := f.Crop(image.Rect(col1, row1, col2, row2))
	if err != nil {
		return Patch{}, fmt.Errorf("crop patch: %w", err)
	}

	return Patch{
		Data:   region.Normalized(),
		Origin: image.Pt(col1, row1),
	}, nil
}
