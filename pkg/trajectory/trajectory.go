// Package trajectory chains per-pair estimates into a camera path.
//
// An estimate from frame N to frame N+1 reports where the content of frame
// N+1 sits inside frame N. Adding those vectors gives the position of every
// frame in the pixel coordinates of the first one.
package trajectory

import (
	"image"
	"math"
	"sync"
	"time"

	"github.com/teslashibe/go-odometry/pkg/odometry"
)

// Step is one accumulated estimate.
type Step struct {
	Index      int             `json:"index"`
	Vector     odometry.Vector `json:"vector"`
	Confidence float64         `json:"confidence"`
	Trials     int             `json:"trials"`
	Accepted   bool            `json:"accepted"`
	Position   image.Point     `json:"position"`
	Elapsed    time.Duration   `json:"elapsed"`
}

// Summary describes a whole trajectory.
type Summary struct {
	Steps         int         `json:"steps"`
	Position      image.Point `json:"position"`
	PathLength    float64     `json:"path_length"`
	MinConfidence float64     `json:"min_confidence"`
	Rejected      int         `json:"rejected"`
	TotalTrials   int         `json:"total_trials"`
}

// Trajectory is safe for concurrent use.
type Trajectory struct {
	mu        sync.RWMutex
	threshold float64
	steps     []Step
	pos       image.Point
	length    float64
	minConf   float64
	rejected  int
	trials    int
}

// New creates an empty trajectory. Steps whose confidence does not exceed
// threshold are still applied but counted as rejected.
func New(threshold float64) *Trajectory {
	return &Trajectory{threshold: threshold, minConf: 1}
}

// Add applies an estimate and returns the resulting step.
func (t *Trajectory) Add(e odometry.Estimate) Step {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pos = t.pos.Add(e.Vector.Point())
	t.length += math.Hypot(float64(e.Vector.DX), float64(e.Vector.DY))
	t.minConf = min(t.minConf, e.Confidence)
	t.trials += e.Trials

	accepted := e.Accepted(t.threshold)
	if !accepted {
		t.rejected++
	}

	step := Step{
		Index:      len(t.steps),
		Vector:     e.Vector,
		Confidence: e.Confidence,
		Trials:     e.Trials,
		Accepted:   accepted,
		Position:   t.pos,
		Elapsed:    e.Elapsed,
	}
	t.steps = append(t.steps, step)
	return step
}

// SetThreshold changes the acceptance threshold for later steps. Steps
// already added keep their verdict.
func (t *Trajectory) SetThreshold(threshold float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.threshold = threshold
}

// Threshold returns the current acceptance threshold.
func (t *Trajectory) Threshold() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.threshold
}

// Position returns the accumulated displacement.
func (t *Trajectory) Position() image.Point {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pos
}

// Steps returns a copy of every step so far.
func (t *Trajectory) Steps() []Step {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Step(nil), t.steps...)
}

// Len returns the number of steps.
func (t *Trajectory) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.steps)
}

// Summary reports totals. MinConfidence is 0 for an empty trajectory.
func (t *Trajectory) Summary() Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Summary{
		Steps:       len(t.steps),
		Position:    t.pos,
		PathLength:  t.length,
		Rejected:    t.rejected,
		TotalTrials: t.trials,
	}
	if len(t.steps) > 0 {
		s.MinConfidence = t.minConf
	}
	return s
}

// Reset clears the trajectory.
func (t *Trajectory) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = nil
	t.pos = image.Point{}
	t.length = 0
	t.minConf = 1
	t.rejected = 0
	t.trials = 0
}
