// Package odometry estimates the translation between two rectified grayscale
// frames by recursive Monte-Carlo patch matching.
//
// Each round draws random patches from the later frame, locates every patch
// in the earlier frame by normalized cross-correlation, and votes on the
// implied displacement. The most common displacement wins, and the share of
// trials that agree with it is the round's confidence. Rounds escalate the
// trial count until the confidence clears a threshold or a trial ceiling is
// reached.
//
// # Usage
//
//	est, err := odometry.New(odometry.DefaultConfig(), slog.Default())
//	if err != nil {
//	    return err
//	}
//	result, err := est.Estimate(ctx, prev, next)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("moved %v (confidence %.2f, %d trials)\n",
//	    result.Vector, result.Confidence, result.Trials)
//
// Coordinates follow image conventions throughout: X is the column and Y is
// the row.
package odometry

import (
	"fmt"
	"image"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Vector is an integer displacement in pixels.
type Vector struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// Less orders vectors by DX, then DY.
func (v Vector) Less(o Vector) bool {
	if v.DX != o.DX {
		return v.DX < o.DX
	}
	return v.DY < o.DY
}

// Point converts the vector to an image.Point.
func (v Vector) Point() image.Point {
	return image.Pt(v.DX, v.DY)
}

func (v Vector) String() string {
	return fmt.Sprintf("(%d, %d)", v.DX, v.DY)
}

// Patch is a normalized sub-region of a frame.
type Patch struct {
	Data   *mat.Dense  // Normalized intensities
	Origin image.Point // Top-left corner in the source frame
}

// Size returns the patch extent (X = width, Y = height).
func (p Patch) Size() image.Point {
	rows, cols := p.Data.Dims()
	return image.Pt(cols, rows)
}

// Match is the best-aligned position of a patch inside a frame.
type Match struct {
	Loc   image.Point // Top-left corner of the best window
	Score float64     // Correlation coefficient in [-1, 1]
}

// Displacement returns the translation implied by matching p at m.
func (p Patch) Displacement(m Match) Vector {
	return Vector{DX: m.Loc.X - p.Origin.X, DY: m.Loc.Y - p.Origin.Y}
}

// Round is the outcome of one consensus pass at a fixed trial count.
type Round struct {
	Vector     Vector      `json:"vector"`
	Confidence float64     `json:"confidence"`
	Trials     int         `json:"trials"`
	Votes      []VoteCount `json:"votes,omitempty"`
}

// Estimate is the final result of an escalating estimation.
type Estimate struct {
	Vector     Vector        `json:"vector"`
	Confidence float64       `json:"confidence"`
	Trials     int           `json:"trials"`
	Rounds     int           `json:"rounds"`
	History    []Round       `json:"history,omitempty"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Accepted reports whether the estimate cleared threshold rather than
// stopping at the trial ceiling.
func (e Estimate) Accepted(threshold float64) bool {
	return e.Confidence > threshold
}
