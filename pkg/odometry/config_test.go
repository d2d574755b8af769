package odometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.4, cfg.ConfidenceThreshold)
	assert.Equal(t, 4, cfg.InitialTrials)
	assert.Equal(t, 4, cfg.TrialIncrement)
	assert.Equal(t, 50, cfg.MaxTrials)
	assert.Equal(t, MatcherSpatial, cfg.Matcher)
	require.NoError(t, cfg.Validate())

	// 4, 8, ..., 48
	assert.Equal(t, 12, cfg.MaxRounds())
}

func TestPresets_Valid(t *testing.T) {
	for _, name := range PresetNames() {
		cfg := GetPreset(name)
		require.NotNil(t, cfg, name)
		assert.NoError(t, cfg.Validate(), name)
	}
	assert.Nil(t, GetPreset("warp-speed"))
	assert.Len(t, Presets(), len(PresetNames()))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   []string
	}{
		{
			name:   "threshold at one",
			mutate: func(c *Config) { c.ConfidenceThreshold = 1 },
			want:   []string{"confidence_threshold"},
		},
		{
			name:   "negative threshold",
			mutate: func(c *Config) { c.ConfidenceThreshold = -0.1 },
			want:   []string{"confidence_threshold"},
		},
		{
			name:   "NaN threshold",
			mutate: func(c *Config) { c.ConfidenceThreshold = math.NaN() },
			want:   []string{"confidence_threshold"},
		},
		{
			name:   "zero trials",
			mutate: func(c *Config) { c.InitialTrials = 0 },
			want:   []string{"initial_trials"},
		},
		{
			name:   "zero increment",
			mutate: func(c *Config) { c.TrialIncrement = 0 },
			want:   []string{"trial_increment"},
		},
		{
			name:   "ceiling below start",
			mutate: func(c *Config) { c.MaxTrials = 2 },
			want:   []string{"max_trials"},
		},
		{
			name:   "unknown matcher",
			mutate: func(c *Config) { c.Matcher = "sift" },
			want:   []string{"unknown matcher"},
		},
		{
			name: "every problem reported",
			mutate: func(c *Config) {
				c.ConfidenceThreshold = 2
				c.TrialIncrement = -1
				c.Workers = -3
			},
			want: []string{"confidence_threshold", "trial_increment", "workers"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			for _, w := range tc.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestConfig_MaxRounds(t *testing.T) {
	tests := []struct {
		initial, inc, max int
		want              int
	}{
		{4, 4, 50, 12},
		{4, 4, 4, 1},
		{1, 1, 10, 10},
		{8, 8, 96, 12},
		{5, 10, 20, 2},
	}
	for _, tc := range tests {
		cfg := Config{InitialTrials: tc.initial, TrialIncrement: tc.inc, MaxTrials: tc.max}
		assert.Equal(t, tc.want, cfg.MaxRounds(), "%+v", tc)
	}
}
