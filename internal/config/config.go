// Package config loads the daemon's layered configuration: gesture
// bindings, a merge-window value, the device grab flag, the input
// socket/pipe path, and the debug-logging switch. It generalizes the
// teacher's flat JSON Config struct into a viper-backed schema that also
// accepts YAML or TOML and environment-variable overrides.
package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/8ff/gesturesd/internal/binding"
	"github.com/8ff/gesturesd/internal/direction"
	"github.com/8ff/gesturesd/internal/gesture"
)

// BindingEntry is the on-disk shape of one binding: a detail pattern named
// by direction string, numeric ranges, and the shell command to run when
// it matches — generalizing the teacher's flat `gestureActions` map.
type BindingEntry struct {
	Detail         []string `mapstructure:"detail"`
	Reflection     string   `mapstructure:"reflection"`
	Fingers        [2]int64 `mapstructure:"fingers"`
	Count          [2]int64 `mapstructure:"count"`
	Duration       [2]int64 `mapstructure:"duration"`
	TotalSqDist    [2]int64 `mapstructure:"totalSqDistance"`
	AvgSqDist      [2]int64 `mapstructure:"avgSqDistance"`
	RegionID       uint32   `mapstructure:"regionId"`
	DeviceID       uint32   `mapstructure:"deviceId"`
	Command        string   `mapstructure:"command"`
}

// Config is the full daemon configuration.
type Config struct {
	Debug       bool           `mapstructure:"debug"`
	Grab        bool           `mapstructure:"grab"`
	Input       string         `mapstructure:"input"`
	// MergeDelay is decoded but not applied: the queue's merge window is
	// the fixed queue.MergeDelay whatever this value is.
	MergeDelay  int64          `mapstructure:"mergeDelayMs"`
	Bindings    []BindingEntry `mapstructure:"bindings"`
}

// Default mirrors the teacher's hardcoded defaults (a handful of 3-finger
// swipe actions, debug on) translated onto the new schema; the teacher's
// threshold setting has no counterpart in Config.
func Default() Config {
	return Config{
		Debug:      true,
		Grab:       false,
		Input:      "-",
		MergeDelay: 200,
		Bindings: []BindingEntry{
			{Detail: []string{"WEST"}, Fingers: [2]int64{3, 0}, Command: "echo '3-finger swipe left action executed'"},
			{Detail: []string{"EAST"}, Fingers: [2]int64{3, 0}, Command: "echo '3-finger swipe right action executed'"},
			{Detail: []string{"NORTH"}, Fingers: [2]int64{3, 0}, Command: "echo '3-finger swipe up action executed'"},
			{Detail: []string{"SOUTH"}, Fingers: [2]int64{3, 0}, Command: "echo '3-finger swipe down action executed'"},
		},
	}
}

// Load reads path (JSON/YAML/TOML, inferred by extension) via viper,
// falling back to Default when path is empty. It returns the decoded
// Config; watching for live edits is left to the caller via Watch.
func Load(path string) (*Config, *viper.Viper, error) {
	v := viper.New()
	cfg := Default()

	v.SetDefault("debug", cfg.Debug)
	v.SetDefault("grab", cfg.Grab)
	v.SetDefault("input", cfg.Input)
	v.SetDefault("mergeDelayMs", cfg.MergeDelay)
	v.SetDefault("bindings", cfg.Bindings)

	v.SetEnvPrefix("GESTURESD")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("config: decoding: %w", err)
	}

	return &cfg, v, nil
}

// Watch installs a viper.WatchConfig callback that re-decodes into a fresh
// Config and hands it to onChange, mirroring the teacher's
// "reload improves operability" spirit without requiring a daemon restart.
func Watch(v *viper.Viper, log zerolog.Logger, onChange func(*Config)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg := Default()
		if err := v.Unmarshal(&cfg); err != nil {
			log.Error().Err(err).Str("file", e.Name).Msg("config: reload failed, keeping previous config")
			return
		}
		log.Info().Str("file", e.Name).Msg("config: reloaded")
		onChange(&cfg)
	})
	v.WatchConfig()
}

// directionByName resolves the textual names used in BindingEntry.Detail
// to direction.Type values.
func directionByName(name string) (direction.Type, bool) {
	for d := direction.East; d <= direction.SouthEast; d++ {
		if d.String() == name {
			return d, true
		}
	}
	switch name {
	case "TAP":
		return direction.Tap, true
	case "PINCH":
		return direction.Pinch, true
	case "PINCH_OUT":
		return direction.PinchOut, true
	case "UNKNOWN":
		return direction.Unknown, true
	}
	return direction.None, false
}

func reflectionByName(name string) direction.TransformMask {
	switch name {
	case "MirroredX":
		return direction.MirroredX
	case "MirroredY":
		return direction.MirroredY
	case "Mirrored":
		return direction.Mirrored
	case "Rotate90":
		return direction.Rotate90
	case "Rotate270":
		return direction.Rotate270
	default:
		return direction.TransformNone
	}
}

// ToBinding converts one on-disk BindingEntry into the binding.GestureBinding
// the matcher operates on.
func (e BindingEntry) ToBinding() binding.GestureBinding {
	detail := make(gesture.Detail, 0, len(e.Detail))
	for _, name := range e.Detail {
		if d, ok := directionByName(name); ok {
			detail = append(detail, d)
		}
	}

	return binding.GestureBinding{
		Detail:          detail,
		ReflectionMask:  reflectionByName(e.Reflection),
		Fingers:         binding.Range{Min: e.Fingers[0], Max: e.Fingers[1]},
		Count:           binding.Range{Min: e.Count[0], Max: e.Count[1]},
		Duration:        binding.Range{Min: e.Duration[0], Max: e.Duration[1]},
		TotalSqDistance: binding.Range{Min: e.TotalSqDist[0], Max: e.TotalSqDist[1]},
		AvgSqDistance:   binding.Range{Min: e.AvgSqDist[0], Max: e.AvgSqDist[1]},
		RegionID:        e.RegionID,
		DeviceID:        e.DeviceID,
	}
}
