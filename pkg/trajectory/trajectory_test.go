package trajectory

import (
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-odometry/pkg/odometry"
)

func estimate(dx, dy int, conf float64, trials int) odometry.Estimate {
	return odometry.Estimate{
		Vector:     odometry.Vector{DX: dx, DY: dy},
		Confidence: conf,
		Trials:     trials,
		Rounds:     1,
	}
}

func TestTrajectory_Accumulates(t *testing.T) {
	tr := New(0.4)

	s := tr.Add(estimate(3, -2, 0.75, 4))
	assert.Equal(t, 0, s.Index)
	assert.Equal(t, image.Pt(3, -2), s.Position)
	assert.True(t, s.Accepted)

	s = tr.Add(estimate(0, 4, 0.5, 8))
	assert.Equal(t, image.Pt(3, 2), s.Position)

	s = tr.Add(estimate(-3, 0, 0.25, 48))
	assert.False(t, s.Accepted)

	assert.Equal(t, image.Pt(0, 2), tr.Position())
	assert.Equal(t, 3, tr.Len())

	sum := tr.Summary()
	assert.Equal(t, 3, sum.Steps)
	assert.InDelta(t, 0.25, sum.MinConfidence, 1e-12)
	assert.InDelta(t, 5.0+4+3, sum.PathLength, 1e-12)
	assert.Equal(t, 1, sum.Rejected)
	assert.Equal(t, 60, sum.TotalTrials)
}

func TestTrajectory_ThresholdIsStrict(t *testing.T) {
	tr := New(0.4)
	assert.False(t, tr.Add(estimate(1, 1, 0.4, 50)).Accepted)
}

func TestTrajectory_SetThreshold(t *testing.T) {
	tr := New(0.4)
	assert.False(t, tr.Add(estimate(1, 0, 0.25, 48)).Accepted)

	tr.SetThreshold(0.2)
	assert.Equal(t, 0.2, tr.Threshold())
	assert.True(t, tr.Add(estimate(1, 0, 0.25, 48)).Accepted)

	// Earlier verdicts stand.
	steps := tr.Steps()
	require.Len(t, steps, 2)
	assert.False(t, steps[0].Accepted)
	assert.Equal(t, 1, tr.Summary().Rejected)
}

func TestTrajectory_EmptyAndReset(t *testing.T) {
	tr := New(0.4)
	assert.Equal(t, Summary{}, tr.Summary())

	tr.Add(estimate(1, 1, 0.9, 4))
	tr.Reset()
	assert.Equal(t, Summary{}, tr.Summary())
	assert.Empty(t, tr.Steps())
}

func TestTrajectory_StepsIsCopy(t *testing.T) {
	tr := New(0.4)
	tr.Add(estimate(1, 0, 1, 4))

	steps := tr.Steps()
	require.Len(t, steps, 1)
	steps[0].Position = image.Pt(99, 99)
	assert.Equal(t, image.Pt(1, 0), tr.Steps()[0].Position)
}

func TestTrajectory_Concurrent(t *testing.T) {
	tr := New(0.4)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Add(estimate(1, -1, 0.6, 4))
		}()
	}
	wg.Wait()

	assert.Equal(t, image.Pt(50, -50), tr.Position())
	assert.Equal(t, 50, tr.Len())
}
