package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load([]string{"--plan", "hyrox.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "hyrox.yaml", c.Plan)
	assert.Equal(t, time.Second, c.TickInterval)
	assert.Equal(t, "workout-runner.log", c.Log.File)
	assert.Equal(t, 10, c.Log.MaxSizeMB)
	assert.Equal(t, 3, c.Log.MaxBackups)
	assert.Equal(t, 28, c.Log.MaxAgeDays)
	assert.False(t, c.Companion.Enabled)
	assert.Equal(t, 30*time.Second, c.Companion.ScanTimeout)
	assert.InDelta(t, 3.0, c.Tracker.SimulatedSpeedMPS, 0.001)
	assert.Empty(t, c.Record.Out)
	assert.NoError(t, c.Validate())
}

func TestLoad_PositionalPlan(t *testing.T) {
	c, err := Load([]string{"emom.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "emom.yaml", c.Plan)
}

func TestLoad_ConfigFileEnvAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runner.yaml")
	yaml := `
plan: from-file.yaml
tick_interval: 250ms
log:
  file: /tmp/runner.log
  compress: true
companion:
  enabled: true
record:
  out: file-record.json
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	t.Setenv("WORKOUT_RECORD_OUT", "env-record.json")
	t.Setenv("WORKOUT_TRACKER_SIMULATED_SPEED_MPS", "4.5")

	c, err := Load([]string{"--config", path, "--tick-interval", "2s"})
	require.NoError(t, err)
	assert.Equal(t, "from-file.yaml", c.Plan)
	assert.Equal(t, 2*time.Second, c.TickInterval, "flags win")
	assert.Equal(t, "/tmp/runner.log", c.Log.File)
	assert.True(t, c.Log.Compress)
	assert.True(t, c.Companion.Enabled)
	assert.Equal(t, "env-record.json", c.Record.Out, "env beats the file")
	assert.InDelta(t, 4.5, c.Tracker.SimulatedSpeedMPS, 0.001)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestLoad_BadFlag(t *testing.T) {
	_, err := Load([]string{"--tick-interval", "soon"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"ok", func(c *Config) {}, nil},
		{"missing plan", func(c *Config) { c.Plan = "" }, ErrMissingPlan},
		{"zero tick", func(c *Config) { c.TickInterval = 0 }, ErrBadTickInterval},
		{"negative tick", func(c *Config) { c.TickInterval = -time.Second }, ErrBadTickInterval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Plan: "p.yaml", TickInterval: time.Second}
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	c := &Config{Plan: "p.yaml", TickInterval: time.Second, Tracker: TrackerConfig{SimulatedSpeedMPS: -1}}
	assert.Error(t, c.Validate())
}
