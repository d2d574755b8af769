package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-odometry/pkg/odometry"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, odometry.PresetDefault, cfg.Preset)
	assert.Equal(t, odometry.DefaultConfig(), cfg.Odometry)
	assert.Equal(t, 100, cfg.Bench.Pairs)
}

func TestParse_PresetThenOverrides(t *testing.T) {
	doc := []byte(`
preset: accurate
port: 9000
odometry:
  max_trials: 120
  seed: 42
bench:
  pairs: 10
`)
	cfg, err := Parse(doc)
	require.NoError(t, err)

	accurate := *odometry.GetPreset(odometry.PresetAccurate)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, accurate.InitialTrials, cfg.Odometry.InitialTrials)
	assert.Equal(t, accurate.ConfidenceThreshold, cfg.Odometry.ConfidenceThreshold)
	assert.Equal(t, 120, cfg.Odometry.MaxTrials)
	assert.Equal(t, uint64(42), cfg.Odometry.Seed)
	assert.Equal(t, 10, cfg.Bench.Pairs)
	assert.Equal(t, 200, cfg.Bench.Size)
}

func TestParse_UnknownPreset(t *testing.T) {
	_, err := Parse([]byte("preset: ludicrous\n"))
	assert.ErrorContains(t, err, "unknown preset")
}

func TestParse_BadYAML(t *testing.T) {
	_, err := Parse([]byte("port: [1, 2"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "7001")
	t.Setenv(EnvPreset, odometry.PresetFast)
	t.Setenv(EnvSeed, "99")
	t.Setenv(EnvMatcher, odometry.MatcherSpatial)
	t.Setenv(EnvLogLevel, "debug")

	path := filepath.Join(t.TempDir(), "odometry.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\npreset: accurate\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	fast := *odometry.GetPreset(odometry.PresetFast)
	assert.Equal(t, 7001, cfg.Port)
	assert.Equal(t, odometry.PresetFast, cfg.Preset)
	assert.Equal(t, fast.MaxTrials, cfg.Odometry.MaxTrials)
	assert.Equal(t, uint64(99), cfg.Odometry.Seed)
	assert.Equal(t, odometry.MatcherSpatial, cfg.Odometry.Matcher)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv(EnvSeed, "-1")
	_, err := Load("")
	assert.ErrorContains(t, err, EnvSeed)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Port = 0
	cfg.HistorySize = 0
	cfg.Odometry.MaxTrials = 1
	cfg.Bench.Pairs = 0

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"port", "history_size", "max_trials", "bench"} {
		assert.Contains(t, err.Error(), want)
	}
	assert.ErrorIs(t, err, odometry.ErrInvalidConfig)
}

func TestParse_OdometrySectionWithoutPreset(t *testing.T) {
	doc := []byte(`
odometry:
  confidence_threshold: 0.7
  initial_trials: 2
  trial_increment: 3
  max_trials: 20
  matcher: fft
  seed: 7
`)
	cfg, err := Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, odometry.PresetDefault, cfg.Preset)
	assert.Equal(t, 0.7, cfg.Odometry.ConfidenceThreshold)
	assert.Equal(t, 2, cfg.Odometry.InitialTrials)
	assert.Equal(t, 3, cfg.Odometry.TrialIncrement)
	assert.Equal(t, 20, cfg.Odometry.MaxTrials)
	assert.Equal(t, odometry.MatcherFFT, cfg.Odometry.Matcher)
	assert.Equal(t, uint64(7), cfg.Odometry.Seed)
}

func TestLoad_NaNThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odometry.yaml")
	require.NoError(t, os.WriteFile(path, []byte("odometry:\n  confidence_threshold: .nan\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "confidence_threshold")
}

func TestLoadWithPreset_OverridesFileAndEnv(t *testing.T) {
	t.Setenv(EnvPreset, odometry.PresetFast)

	path := filepath.Join(t.TempDir(), "odometry.yaml")
	require.NoError(t, os.WriteFile(path, []byte("preset: default\nodometry:\n  seed: 5\n"), 0o644))

	cfg, err := LoadWithPreset(path, odometry.PresetAccurate)
	require.NoError(t, err)
	assert.Equal(t, odometry.PresetAccurate, cfg.Preset)
	assert.Equal(t, 96, cfg.Odometry.MaxTrials)
	assert.Equal(t, uint64(5), cfg.Odometry.Seed)
	assert.Equal(t, odometry.PresetFast, os.Getenv(EnvPreset))
}

func TestLoadWithPreset_Unknown(t *testing.T) {
	_, err := LoadWithPreset("", "ludicrous")
	assert.ErrorContains(t, err, "unknown preset")
}
