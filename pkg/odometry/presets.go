package odometry

// Preset names for common configurations
const (
	PresetDefault  = "default"
	PresetFast     = "fast"
	PresetAccurate = "accurate"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault:  DefaultConfig(),
		PresetFast:     FastConfig(),
		PresetAccurate: AccurateConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetFast,
		PresetAccurate,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}
