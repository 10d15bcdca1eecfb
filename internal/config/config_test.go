package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyKeepsDefaults(t *testing.T) {
	cfg, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesOnlyNamedFields(t *testing.T) {
	in := `
flight:
  target_altitude: 250
trainer:
  iterations: 10
  seed: 99
server:
  enabled: true
  addr: "0.0.0.0:9100"
logging:
  level: debug
`
	cfg, err := Load(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, 250.0, cfg.Flight.TargetAltitude)
	assert.Equal(t, Default().Flight.Mass, cfg.Flight.Mass, "unnamed fields keep defaults")
	assert.Equal(t, 10, cfg.Trainer.Iterations)
	assert.Equal(t, int64(99), cfg.Trainer.Seed)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, "0.0.0.0:9100", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"non-positive mass", "flight:\n  mass: 0\n"},
		{"positive gravity", "flight:\n  gravity: 9.81\n"},
		{"negative batch size", "trainer:\n  batch_size: -1\n"},
		{"empty addr", "server:\n  addr: \"\"\n"},
		{"malformed yaml", "flight: [not, a, map]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile("does/not/exist.yaml")
	assert.Error(t, err)
}
