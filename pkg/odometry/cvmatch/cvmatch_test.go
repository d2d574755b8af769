package cvmatch

import (
	"context"
	"image"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"

	"github.com/teslashibe/go-odometry/pkg/frame"
	"github.com/teslashibe/go-odometry/pkg/odometry"
)

func noise(t *testing.T, rows, cols int, seed uint64) *frame.Frame {
	t.Helper()
	f, err := frame.Noise(rows, cols, rand.New(rand.NewPCG(seed, seed)))
	require.NoError(t, err)
	return f
}

func TestRegistered(t *testing.T) {
	assert.True(t, odometry.HasMatcher(Name))

	m, err := odometry.NewMatcher(Name)
	require.NoError(t, err)
	assert.Equal(t, Name, m.Name())
}

func TestMatch_ExactLocation(t *testing.T) {
	f := noise(t, 30, 40, 3).Normalized()
	s, err := Matcher{}.Prepare(f)
	require.NoError(t, err)
	defer s.Close()

	regions := []image.Rectangle{
		image.Rect(7, 11, 16, 17),
		image.Rect(0, 0, 5, 5),
		image.Rect(31, 20, 40, 30),
	}
	for _, r := range regions {
		var patch mat.Dense
		patch.CloneFrom(f.Slice(r.Min.Y, r.Max.Y, r.Min.X, r.Max.X))

		got, err := s.Match(&patch)
		require.NoError(t, err)
		assert.Equal(t, r.Min, got.Loc, "region %v", r)
		assert.InDelta(t, 1.0, got.Score, 1e-4)
	}
}

func TestToMat_CopiesStridedView(t *testing.T) {
	data := make([]float64, 4*5)
	for i := range data {
		data[i] = float64(i) / 20
	}
	view := mat.NewDense(4, 5, data).Slice(1, 3, 1, 4).(*mat.Dense)

	m, err := toMat(view)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, gocv.MatTypeCV32F, m.Type())
	require.Equal(t, 2, m.Rows())
	require.Equal(t, 3, m.Cols())
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			assert.InDelta(t, view.At(r, c), float64(m.GetFloatAt(r, c)), 1e-6, "(%d,%d)", r, c)
		}
	}

	_, err = toMat(&mat.Dense{})
	assert.ErrorIs(t, err, frame.ErrEmpty)
}

func TestMatch_PatchTooLarge(t *testing.T) {
	s, err := Matcher{}.Prepare(noise(t, 8, 8, 1).Normalized())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Match(mat.NewDense(4, 9, nil))
	assert.ErrorIs(t, err, odometry.ErrPatchTooLarge)
}

func TestEstimator_UsesOpenCV(t *testing.T) {
	src := noise(t, 80, 80, 12)
	prev, next, err := frame.TranslatedPair(src, image.Pt(16, 16), image.Pt(48, 48), image.Pt(-2, 3))
	require.NoError(t, err)

	cfg := odometry.DefaultConfig()
	cfg.Matcher = Name
	cfg.Seed = 5
	est, err := odometry.New(cfg, nil)
	require.NoError(t, err)

	got, err := est.Estimate(context.Background(), prev, next)
	require.NoError(t, err)
	assert.Equal(t, odometry.Vector{DX: -2, DY: 3}, got.Vector)
}

func TestFrameFromMat(t *testing.T) {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 4, 6, gocv.MatTypeCV8UC3)
	defer m.Close()
	m.SetUCharAt(1, 2*3, 200)
	m.SetUCharAt(1, 2*3+1, 200)
	m.SetUCharAt(1, 2*3+2, 200)

	f, err := FrameFromMat(m)
	require.NoError(t, err)

	rows, cols := f.Dims()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 6, cols)
	assert.InDelta(t, 200, f.At(1, 2), 1)

	empty := gocv.NewMat()
	defer empty.Close()
	_, err = FrameFromMat(empty)
	assert.ErrorIs(t, err, frame.ErrEmpty)
}
