// Package bench measures estimator accuracy on synthetic frame pairs.
//
// Each case cuts two equally sized windows out of one source image, the
// second moved by a random offset, and checks how far the estimate lands
// from that offset.
package bench

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/teslashibe/go-odometry/pkg/frame"
	"github.com/teslashibe/go-odometry/pkg/odometry"
)

// ErrSourceTooSmall is returned when the source image cannot hold a pair.
var ErrSourceTooSmall = errors.New("bench: source image too small")

// Config controls a benchmark run.
type Config struct {
	Pairs     int     `yaml:"pairs" json:"pairs"`           // Number of cases
	Size      int     `yaml:"size" json:"size"`             // Side of each square window
	MaxOffset int     `yaml:"max_offset" json:"max_offset"` // Offsets are drawn from [-MaxOffset, MaxOffset]
	Binary    float32 `yaml:"binary" json:"binary"`         // >0 thresholds the source at this percent first
	Seed      uint64  `yaml:"seed" json:"seed"`             // 0 picks a random seed
}

// DefaultConfig returns 100 pairs of 200px windows with offsets up to 50px.
func DefaultConfig() Config {
	return Config{
		Pairs:     100,
		Size:      200,
		MaxOffset: 50,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Pairs < 1 {
		return fmt.Errorf("pairs must be positive, got %d", c.Pairs)
	}
	if c.Size <= 5 {
		return fmt.Errorf("size must be greater than 5, got %d", c.Size)
	}
	if c.MaxOffset < 0 {
		return fmt.Errorf("max_offset must be non-negative, got %d", c.MaxOffset)
	}
	if c.Binary < 0 || c.Binary > 100 {
		return fmt.Errorf("binary must be a percentage, got %v", c.Binary)
	}
	return nil
}

// Case is the outcome of one synthetic pair.
type Case struct {
	Offset     odometry.Vector `json:"offset"`
	Result     odometry.Vector `json:"result"`
	Confidence float64         `json:"confidence"`
	Trials     int             `json:"trials"`
	Rounds     int             `json:"rounds"`
	Error      float64         `json:"error"` // Mean absolute component error in pixels
	Elapsed    time.Duration   `json:"elapsed"`
}

// Exact reports whether the estimate matched the offset.
func (c Case) Exact() bool {
	return c.Result == c.Offset
}

// Report aggregates a run.
type Report struct {
	Cases          []Case        `json:"cases"`
	MeanError      float64       `json:"mean_error"`
	StdError       float64       `json:"std_error"`
	MedianError    float64       `json:"median_error"`
	P95Error       float64       `json:"p95_error"`
	ExactRate      float64       `json:"exact_rate"`
	MeanConfidence float64       `json:"mean_confidence"`
	MeanTrials     float64       `json:"mean_trials"`
	Elapsed        time.Duration `json:"elapsed"`
}

// MakePair cuts a size×size window and a second one moved by a random offset
// out of src. Both windows lie fully inside src.
func MakePair(src *frame.Frame, size, maxOffset int, rng *rand.Rand) (prev, next *frame.Frame, offset image.Point, err error) {
	rows, cols := src.Dims()
	span := size + maxOffset
	if span > cols || span > rows {
		return nil, nil, image.Point{}, fmt.Errorf("%w: %dx%d cannot hold %dpx windows %dpx apart",
			ErrSourceTooSmall, cols, rows, size, maxOffset)
	}

	offset = image.Pt(
		rng.IntN(2*maxOffset+1)-maxOffset,
		rng.IntN(2*maxOffset+1)-maxOffset,
	)
	origin := image.Pt(
		randomOrigin(rng, cols, size, offset.X),
		randomOrigin(rng, rows, size, offset.Y),
	)

	prev, next, err = frame.TranslatedPair(src, origin, image.Pt(size, size), offset)
	if err != nil {
		return nil, nil, image.Point{}, err
	}
	return prev, next, offset, nil
}

// randomOrigin picks a start so that [o, o+size) and [o+off, o+off+size)
// both fit in [0, extent).
func randomOrigin(rng *rand.Rand, extent, size, off int) int {
	lo := max(0, -off)
	hi := extent - size - max(0, off)
	return lo + rng.IntN(hi-lo+1)
}

// Run estimates cfg.Pairs synthetic pairs cut from src.
func Run(ctx context.Context, est *odometry.Estimator, src *frame.Frame, cfg Config, logger *slog.Logger) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Binary > 0 {
		bw, err := src.Threshold(cfg.Binary)
		if err != nil {
			return Report{}, fmt.Errorf("threshold source: %w", err)
		}
		src = bw
	}

	rng := odometry.NewSource(cfg.Seed)
	start := time.Now()
	cases := make([]Case, 0, cfg.Pairs)

	for i := 0; i < cfg.Pairs; i++ {
		prev, next, offset, err := MakePair(src, cfg.Size, cfg.MaxOffset, rng)
		if err != nil {
			return Report{}, err
		}

		e, err := est.Estimate(ctx, prev, next)
		if err != nil {
			return Report{}, fmt.Errorf("pair %d: %w", i, err)
		}

		c := Case{
			Offset:     odometry.Vector{DX: offset.X, DY: offset.Y},
			Result:     e.Vector,
			Confidence: e.Confidence,
			Trials:     e.Trials,
			Rounds:     e.Rounds,
			Error:      componentError(e.Vector, offset),
			Elapsed:    e.Elapsed,
		}
		cases = append(cases, c)

		logger.Debug("bench case",
			"pair", i,
			"offset", c.Offset.String(),
			"result", c.Result.String(),
			"confidence", c.Confidence,
			"trials", c.Trials,
			"error", c.Error,
		)
	}

	r := Summarize(cases)
	r.Elapsed = time.Since(start)
	return r, nil
}

func componentError(v odometry.Vector, offset image.Point) float64 {
	dx := math.Abs(float64(v.DX - offset.X))
	dy := math.Abs(float64(v.DY - offset.Y))
	return (dx + dy) / 2
}

// Summarize computes error and confidence statistics over cases.
func Summarize(cases []Case) Report {
	r := Report{Cases: cases}
	if len(cases) == 0 {
		return r
	}

	errs := make([]float64, len(cases))
	confs := make([]float64, len(cases))
	trials := make([]float64, len(cases))
	exact := 0
	for i, c := range cases {
		errs[i] = c.Error
		confs[i] = c.Confidence
		trials[i] = float64(c.Trials)
		if c.Exact() {
			exact++
		}
	}

	r.MeanError = stat.Mean(errs, nil)
	if len(errs) > 1 {
		r.StdError = stat.StdDev(errs, nil)
	}
	slices.Sort(errs)
	r.MedianError = stat.Quantile(0.5, stat.Empirical, errs, nil)
	r.P95Error = stat.Quantile(0.95, stat.Empirical, errs, nil)
	r.ExactRate = float64(exact) / float64(len(cases))
	r.MeanConfidence = stat.Mean(confs, nil)
	r.MeanTrials = stat.Mean(trials, nil)
	return r
}

// LogValue lets a report be passed straight to slog.
func (r Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("pairs", len(r.Cases)),
		slog.Float64("mean_error", r.MeanError),
		slog.Float64("std_error", r.StdError),
		slog.Float64("median_error", r.MedianError),
		slog.Float64("p95_error", r.P95Error),
		slog.Float64("exact_rate", r.ExactRate),
		slog.Float64("mean_confidence", r.MeanConfidence),
		slog.Float64("mean_trials", r.MeanTrials),
		slog.Duration("elapsed", r.Elapsed),
	)
}
