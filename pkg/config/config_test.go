package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockTime(t *testing.T) {
	testcases := []struct {
		name        string
		input       string
		want        ClockTime
		wantErr     bool
		errContains string
	}{
		{
			name:  "quiet-hours-start",
			input: "22:00",
			want:  ClockTime{Hour: 22, Minute: 0},
		},
		{
			name:  "quiet-hours-end",
			input: "06:00",
			want:  ClockTime{Hour: 6, Minute: 0},
		},
		{
			name:  "whitespace-tolerated",
			input: " 09:30 ",
			want:  ClockTime{Hour: 9, Minute: 30},
		},
		{
			name:        "missing-colon",
			input:       "2200",
			wantErr:     true,
			errContains: "want HH:MM",
		},
		{
			name:        "hour-out-of-range",
			input:       "24:00",
			wantErr:     true,
			errContains: "invalid hour",
		},
		{
			name:        "minute-out-of-range",
			input:       "10:75",
			wantErr:     true,
			errContains: "invalid minute",
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseClockTime(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				assert.ErrorContains(t, err, tc.errContains)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	testcases := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errContains string
	}{
		{
			name:   "defaults-are-valid",
			mutate: func(c *Config) {},
		},
		{
			name:        "zero-memory-depth",
			mutate:      func(c *Config) { c.Companion.MemoryDepth = 0 },
			wantErr:     true,
			errContains: "memory_depth",
		},
		{
			name:        "negative-cooldown",
			mutate:      func(c *Config) { c.Habits.CooldownDays = -1 },
			wantErr:     true,
			errContains: "cooldown_days",
		},
		{
			name:        "broken-quiet-start",
			mutate:      func(c *Config) { c.Orchestrator.QuietHoursStart = "late" },
			wantErr:     true,
			errContains: "quiet_hours_start",
		},
		{
			name:        "broken-quiet-end",
			mutate:      func(c *Config) { c.Orchestrator.QuietHoursEnd = "99:99" },
			wantErr:     true,
			errContains: "quiet_hours_end",
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
				assert.ErrorContains(t, err, tc.errContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := DefaultConfig()
	cfg.Companion.Model = "claude-haiku-4-5"
	cfg.Orchestrator.QuietHoursStart = "23:00"
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku-4-5", loaded.Companion.Model)
	assert.Equal(t, "23:00", loaded.Orchestrator.QuietHoursStart)
	assert.Equal(t, 18420, loaded.Gateway.Port)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Companion.Model, cfg.Companion.Model)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, SaveConfig(path, DefaultConfig()))

	os.Setenv("RITMO_ORCHESTRATOR_QUIET_HOURS_END", "07:30")
	defer os.Unsetenv("RITMO_ORCHESTRATOR_QUIET_HOURS_END")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "07:30", cfg.Orchestrator.QuietHoursEnd)
}
