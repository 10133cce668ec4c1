package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "devices: []\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"./configs/profiles"}, cfg.Profiles.SearchPaths)
	assert.Equal(t, "analytic", cfg.Waveform.Strategy)
	assert.False(t, cfg.Streaming.Enabled)
	assert.Equal(t, time.Second, cfg.Streaming.Interval)
	assert.Empty(t, cfg.Devices)
}

func TestLoad_Devices(t *testing.T) {
	path := writeConfig(t, `
server:
  http_port: 9090
waveform:
  strategy: reference
  reference_table: ./configs/reference/silicon.csv
  noise_amplitude: 50
  prefix: 300
streaming:
  enabled: true
  interval: 250ms
devices:
  - name: silicon
    profile: wasatch-silicon
  - name: xs
    profile: wasatch-silicon
    overrides:
      product_id: 0x4000
      model: Test XS
      has_battery: true
      has_laser: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, "reference", cfg.Waveform.Strategy)
	require.NotNil(t, cfg.Waveform.NoiseAmplitude)
	assert.Equal(t, 50.0, *cfg.Waveform.NoiseAmplitude)
	require.NotNil(t, cfg.Waveform.Prefix)
	assert.Equal(t, 300, *cfg.Waveform.Prefix)
	assert.Equal(t, 250*time.Millisecond, cfg.Streaming.Interval)

	require.Len(t, cfg.Devices, 2)
	assert.Equal(t, "silicon", cfg.Devices[0].Name)
	assert.Nil(t, cfg.Devices[0].Overrides.ProductID)

	xs := cfg.Devices[1]
	require.NotNil(t, xs.Overrides.ProductID)
	assert.Equal(t, uint16(0x4000), *xs.Overrides.ProductID)
	require.NotNil(t, xs.Overrides.Model)
	assert.Equal(t, "Test XS", *xs.Overrides.Model)
	require.NotNil(t, xs.Overrides.HasBattery)
	assert.True(t, *xs.Overrides.HasBattery)
	assert.Nil(t, xs.Overrides.HasCooling)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "server:\n  http_port: 9090\n")
	t.Setenv("VSPEC_SERVER_HTTP_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.HTTPPort)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad port", "server:\n  http_port: 70000\n"},
		{"missing profile", "devices:\n  - name: a\n"},
		{"duplicate name", "devices:\n  - name: a\n    profile: p\n  - name: a\n    profile: p\n"},
		{"zero interval", "streaming:\n  enabled: true\n  interval: 0s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	assert.Equal(t, DefaultPath, Path())

	t.Setenv(EnvConfigPath, "/etc/vspec.yaml")
	assert.Equal(t, "/etc/vspec.yaml", Path())
}
