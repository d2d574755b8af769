package odometry

import (
	"errors"
	"fmt"
	"math"
	"runtime"
)

// Config holds the tunable parameters of the estimator.
type Config struct {
	// Escalation
	ConfidenceThreshold float64 `yaml:"confidence_threshold" json:"confidence_threshold"` // Accept a round when confidence exceeds this
	InitialTrials       int     `yaml:"initial_trials" json:"initial_trials"`             // Trials in the first round
	TrialIncrement      int     `yaml:"trial_increment" json:"trial_increment"`           // Trials added per escalation
	MaxTrials           int     `yaml:"max_trials" json:"max_trials"`                     // Ceiling on trials per round

	// Execution
	Workers int    `yaml:"workers" json:"workers"` // Parallel matchers per round (0 = NumCPU)
	Seed    uint64 `yaml:"seed" json:"seed"`       // Random seed (0 = nondeterministic)
	Matcher string `yaml:"matcher" json:"matcher"` // Template matching backend
}

// DefaultConfig returns the reference parameters: 4 trials escalating by 4
// up to 50, accepting above 40% agreement.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.4,
		InitialTrials:       4,
		TrialIncrement:      4,
		MaxTrials:           50,
		Workers:             0,
		Seed:                0,
		Matcher:             MatcherSpatial,
	}
}

// FastConfig trades accuracy for latency.
func FastConfig() Config {
	cfg := DefaultConfig()
	cfg.ConfidenceThreshold = 0.34
	cfg.MaxTrials = 24
	cfg.Matcher = MatcherFFT
	return cfg
}

// AccurateConfig spends more trials before accepting an estimate.
func AccurateConfig() Config {
	cfg := DefaultConfig()
	cfg.ConfidenceThreshold = 0.5
	cfg.InitialTrials = 8
	cfg.TrialIncrement = 8
	cfg.MaxTrials = 96
	return cfg
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if math.IsNaN(c.ConfidenceThreshold) || c.ConfidenceThreshold < 0 || c.ConfidenceThreshold >= 1 {
		errs = append(errs, fmt.Errorf("confidence_threshold must be in [0, 1), got %v", c.ConfidenceThreshold))
	}
	if c.InitialTrials < 1 {
		errs = append(errs, fmt.Errorf("initial_trials must be positive, got %d", c.InitialTrials))
	}
	if c.TrialIncrement < 1 {
		errs = append(errs, fmt.Errorf("trial_increment must be positive, got %d", c.TrialIncrement))
	}
	if c.MaxTrials < c.InitialTrials {
		errs = append(errs, fmt.Errorf("max_trials (%d) must be >= initial_trials (%d)", c.MaxTrials, c.InitialTrials))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.Matcher != "" && !HasMatcher(c.Matcher) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownMatcher, c.Matcher))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// MaxRounds returns the upper bound on rounds one estimate can take.
func (c *Config) MaxRounds() int {
	if c.TrialIncrement < 1 || c.MaxTrials <= c.InitialTrials {
		return 1
	}
	return (c.MaxTrials-c.InitialTrials)/c.TrialIncrement + 1
}

func (c *Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

func (c *Config) matcherName() string {
	if c.Matcher == "" {
		return MatcherSpatial
	}
	return c.Matcher
}
