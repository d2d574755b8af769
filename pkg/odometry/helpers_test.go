package odometry

import (
	"image"
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/teslashibe/go-odometry/pkg/frame"
)

func noiseFrame(t *testing.T, rows, cols int, seed uint64) *frame.Frame {
	t.Helper()
	f, err := frame.Noise(rows, cols, rand.New(rand.NewPCG(seed, seed+1)))
	require.NoError(t, err)
	return f
}

// shiftedPair returns size×size frames where the second is the first moved
// by offset.
func shiftedPair(t *testing.T, size int, offset image.Point, seed uint64) (*frame.Frame, *frame.Frame) {
	t.Helper()
	margin := 16
	src := noiseFrame(t, size+2*margin, size+2*margin, seed)
	a, b, err := frame.TranslatedPair(src, image.Pt(margin, margin), image.Pt(size, size), offset)
	require.NoError(t, err)
	return a, b
}

// constSource always returns the same draw, clamped to the valid range.
type constSource int

func (c constSource) IntN(n int) int {
	return min(int(c), n-1)
}

// scriptedSource replays a fixed sequence of draws.
type scriptedSource struct {
	values []int
	next   int
}

func (s *scriptedSource) IntN(n int) int {
	v := s.values[s.next%len(s.values)] % n
	s.next++
	return v
}

// stubMatcher answers every match with locate(call index).
type stubMatcher struct {
	locate func(call int64) image.Point
}

func (m *stubMatcher) Name() string { return "stub" }

func (m *stubMatcher) Prepare(*mat.Dense) (Searcher, error) {
	return &stubSearcher{locate: m.locate}, nil
}

type stubSearcher struct {
	locate func(call int64) image.Point
	calls  atomic.Int64
}

func (s *stubSearcher) Match(*mat.Dense) (Match, error) {
	call := s.calls.Add(1) - 1
	return Match{Loc: s.locate(call), Score: 1}, nil
}

func (s *stubSearcher) Close() error { return nil }
