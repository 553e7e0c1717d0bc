package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/8ff/gesturesd/internal/direction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenNoPathGiven(t *testing.T) {
	cfg, _, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, int64(200), cfg.MergeDelay)
	assert.Len(t, cfg.Bindings, 4)
}

func TestLoadOverridesFromJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"debug": false,
		"mergeDelayMs": 150,
		"bindings": [
			{"detail": ["EAST"], "fingers": [2, 0], "command": "echo two-finger-east"}
		]
	}`), 0o644))

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Debug)
	assert.Equal(t, int64(150), cfg.MergeDelay)
	require.Len(t, cfg.Bindings, 1)
	assert.Equal(t, "echo two-finger-east", cfg.Bindings[0].Command)
}

func TestLoadRejectsUnreadablePath(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestBindingEntryToBindingResolvesDirectionsAndRanges(t *testing.T) {
	entry := BindingEntry{
		Detail:     []string{"EAST", "SOUTH"},
		Reflection: "MirroredX",
		Fingers:    [2]int64{2, 0},
		Count:      [2]int64{2, 0},
	}

	b := entry.ToBinding()
	require.Len(t, b.Detail, 2)
	assert.Equal(t, direction.East, b.Detail[0])
	assert.Equal(t, direction.South, b.Detail[1])
	assert.Equal(t, direction.MirroredX, b.ReflectionMask)
	assert.Equal(t, int64(2), b.Fingers.Min)
	assert.Equal(t, int64(2), b.Count.Min)
}

func TestBindingEntryToBindingSkipsUnknownDirectionNames(t *testing.T) {
	entry := BindingEntry{Detail: []string{"EAST", "NOT_A_DIRECTION"}}
	b := entry.ToBinding()
	assert.Len(t, b.Detail, 1)
}
