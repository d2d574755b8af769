package odometry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-odometry/pkg/frame"
)

// topVotes is how many vote groups each round keeps for diagnostics.
const topVotes = 5

// Estimator runs escalating consensus rounds between frame pairs.
// It is safe for concurrent use.
type Estimator struct {
	cfg     Config
	matcher Matcher
	sampler *Sampler
	logger  *slog.Logger
}

// Option customizes an Estimator.
type Option func(*Estimator)

// WithSource replaces the random source used to place patches.
func WithSource(src Source) Option {
	return func(e *Estimator) {
		e.sampler = NewSampler(src)
	}
}

// WithMatcher replaces the matcher selected by Config.Matcher.
func WithMatcher(m Matcher) Option {
	return func(e *Estimator) {
		e.matcher = m
	}
}

// New creates an estimator. A nil logger uses slog.Default().
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Estimator{
		cfg:    cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.matcher == nil {
		m, err := NewMatcher(cfg.matcherName())
		if err != nil {
			return nil, err
		}
		e.matcher = m
	}
	if e.sampler == nil {
		e.sampler = NewSampler(NewSource(cfg.Seed))
	}

	return e, nil
}

// Config returns the estimator configuration.
func (e *Estimator) Config() Config {
	return e.cfg
}

// Estimate measures the translation from prev to next.
//
// It starts with InitialTrials and adds TrialIncrement per round until a
// round's confidence exceeds ConfidenceThreshold or the next round would
// exceed MaxTrials. The terminal round is returned even when its confidence
// stayed below the threshold.
func (e *Estimator) Estimate(ctx context.Context, prev, next *frame.Frame) (Estimate, error) {
	start := time.Now()

	searcher, err := e.prepare(prev, next)
	if err != nil {
		return Estimate{}, err
	}
	defer searcher.Close()

	var history []Round
	trials := e.cfg.InitialTrials
	for {
		round, err := e.runRound(ctx, searcher, next, trials)
		if err != nil {
			return Estimate{}, err
		}
		history = append(history, round)

		e.logger.Debug("odometry round",
			"round", len(history),
			"trials", trials,
			"vector", round.Vector.String(),
			"confidence", round.Confidence,
		)

		if round.Confidence > e.cfg.ConfidenceThreshold || trials+e.cfg.TrialIncrement > e.cfg.MaxTrials {
			return Estimate{
				Vector:     round.Vector,
				Confidence: round.Confidence,
				Trials:     trials,
				Rounds:     len(history),
				History:    history,
				Elapsed:    time.Since(start),
			}, nil
		}
		trials += e.cfg.TrialIncrement
	}
}

// EstimateRound runs a single consensus round with a fixed trial count.
func (e *Estimator) EstimateRound(ctx context.Context, prev, next *frame.Frame, trials int) (Round, error) {
	if trials < 1 {
		return Round{}, fmt.Errorf("%w: %d", ErrInvalidTrials, trials)
	}

	searcher, err := e.prepare(prev, next)
	if err != nil {
		return Round{}, err
	}
	defer searcher.Close()

	return e.runRound(ctx, searcher, next, trials)
}

func (e *Estimator) prepare(prev, next *frame.Frame) (Searcher, error) {
	if prev == nil || next == nil {
		return nil, fmt.Errorf("odometry: %w", frame.ErrEmpty)
	}
	if !frame.SameSize(prev, next) {
		pr, pc := prev.Dims()
		nr, nc := next.Dims()
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrFrameMismatch, pc, pr, nc, nr)
	}
	if rows, cols := prev.Dims(); rows <= sampleMargin || cols <= sampleMargin {
		return nil, fmt.Errorf("%w: %dx%d, need more than %d in both dimensions",
			ErrFrameTooSmall, cols, rows, sampleMargin)
	}

	searcher, err := e.matcher.Prepare(prev.Normalized())
	if err != nil {
		return nil, fmt.Errorf("prepare %s matcher: %w", e.matcher.Name(), err)
	}
	return searcher, nil
}

// runRound samples every patch up front, so a seeded source yields the same
// patches regardless of worker scheduling, then matches them in parallel.
func (e *Estimator) runRound(ctx context.Context, searcher Searcher, next *frame.Frame, trials int) (Round, error) {
	patches := make([]Patch, trials)
	for i := range patches {
		p, err := e.sampler.Sample(next)
		if err != nil {
			return Round{}, err
		}
		patches[i] = p
	}

	votes := make([]Vector, trials)
	errs := make([]error, trials)

	workers := min(e.cfg.workers(), trials)
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				m, err := searcher.Match(patches[i].Data)
				if err != nil {
					errs[i] = fmt.Errorf("trial %d: %w", i, err)
					continue
				}
				votes[i] = patches[i].Displacement(m)
			}
		}()
	}

feed:
	for i := 0; i < trials; i++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Round{}, fmt.Errorf("odometry: %w", err)
	}
	if err := errors.Join(errs...); err != nil {
		return Round{}, err
	}

	return TallyOf(votes).Round(topVotes), nil
}
