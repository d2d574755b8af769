package bench

import (
	"context"
	"image"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-odometry/pkg/frame"
	"github.com/teslashibe/go-odometry/pkg/odometry"
)

func source(t *testing.T, size int) *frame.Frame {
	t.Helper()
	f, err := frame.Noise(size, size, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	return f
}

func TestMakePair(t *testing.T) {
	src := source(t, 70)
	rng := rand.New(rand.NewPCG(3, 4))

	for i := 0; i < 200; i++ {
		prev, next, off, err := MakePair(src, 50, 10, rng)
		require.NoError(t, err)

		assert.LessOrEqual(t, max(off.X, -off.X), 10)
		assert.LessOrEqual(t, max(off.Y, -off.Y), 10)

		rows, cols := next.Dims()
		assert.Equal(t, 50, rows)
		assert.Equal(t, 50, cols)

		// Content of next at (x, y) is content of prev at (x, y)+offset.
		p := image.Pt(20, 20)
		q := p.Add(off)
		assert.Equal(t, prev.At(q.Y, q.X), next.At(p.Y, p.X))
	}
}

func TestMakePair_SourceTooSmall(t *testing.T) {
	_, _, _, err := MakePair(source(t, 40), 35, 10, rand.New(rand.NewPCG(1, 1)))
	assert.ErrorIs(t, err, ErrSourceTooSmall)
}

func TestRun(t *testing.T) {
	cfg := odometry.DefaultConfig()
	cfg.Seed = 17
	est, err := odometry.New(cfg, nil)
	require.NoError(t, err)

	report, err := Run(context.Background(), est, source(t, 96), Config{
		Pairs:     8,
		Size:      56,
		MaxOffset: 4,
		Seed:      21,
	}, nil)
	require.NoError(t, err)

	assert.Len(t, report.Cases, 8)
	assert.GreaterOrEqual(t, report.ExactRate, 0.75)
	assert.GreaterOrEqual(t, report.MeanConfidence, 0.0)
	assert.LessOrEqual(t, report.MeanConfidence, 1.0)
	assert.GreaterOrEqual(t, report.MeanTrials, 4.0)
	for _, c := range report.Cases {
		if c.Exact() {
			assert.Equal(t, 0.0, c.Error)
		}
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	est, err := odometry.New(odometry.DefaultConfig(), nil)
	require.NoError(t, err)

	_, err = Run(context.Background(), est, source(t, 64), Config{Pairs: 0, Size: 10}, nil)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	cases := []Case{
		{Offset: odometry.Vector{DX: 1, DY: 1}, Result: odometry.Vector{DX: 1, DY: 1}, Confidence: 0.5, Trials: 4},
		{Offset: odometry.Vector{DX: 2, DY: 0}, Result: odometry.Vector{DX: 2, DY: 0}, Confidence: 1, Trials: 4},
		{Offset: odometry.Vector{DX: 0, DY: 0}, Result: odometry.Vector{DX: 4, DY: 2}, Error: 3, Confidence: 0.1, Trials: 48},
		{Offset: odometry.Vector{DX: 5, DY: 5}, Result: odometry.Vector{DX: 5, DY: 5}, Confidence: 0.6, Trials: 8},
	}

	r := Summarize(cases)
	assert.InDelta(t, 0.75, r.MeanError, 1e-12)
	assert.InDelta(t, 1.5, r.StdError, 1e-12)
	assert.Equal(t, 0.0, r.MedianError)
	assert.Equal(t, 3.0, r.P95Error)
	assert.InDelta(t, 0.75, r.ExactRate, 1e-12)
	assert.InDelta(t, 0.55, r.MeanConfidence, 1e-12)
	assert.InDelta(t, 16, r.MeanTrials, 1e-12)

	assert.Equal(t, Report{}, Summarize(nil))
}

func TestComponentError(t *testing.T) {
	assert.Equal(t, 0.0, componentError(odometry.Vector{DX: 3, DY: -2}, image.Pt(3, -2)))
	assert.Equal(t, 2.5, componentError(odometry.Vector{DX: 0, DY: 0}, image.Pt(3, -2)))
}
