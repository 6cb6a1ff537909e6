package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "ignitor.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "start/app", cfg.App.File)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	p := writeConfig(t, `
app:
  root: /srv/shop
server:
  shutdown_timeout: 30s
logging:
  format: console
loader:
  script_timeout: 250ms
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "/srv/shop", cfg.App.Root)
	assert.Equal(t, "start/app", cfg.App.File, "untouched keys keep defaults")
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.True(t, cfg.Server.Metrics)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 250*time.Millisecond, cfg.Loader.ScriptTimeout.Duration())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	p := writeConfig(t, "app:\n  root: /srv/file\n")
	t.Setenv("IGNITOR_APP_ROOT", "/srv/env")
	t.Setenv("IGNITOR_SERVER_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("IGNITOR_TELEMETRY_SAMPLE_RATE", "0.25")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "/srv/env", cfg.App.Root)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.InDelta(t, 0.25, cfg.Telemetry.SampleRate, 1e-9)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "app: [\n"},
		{"bad format", "logging:\n  format: xml\n"},
		{"bad protocol", "telemetry:\n  enabled: true\n  protocol: carrier-pigeon\n"},
		{"bad duration", "server:\n  shutdown_timeout: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_DirectoryRejected(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "server.shutdown_timeout", envKey("IGNITOR_SERVER_SHUTDOWN_TIMEOUT"))
	assert.Equal(t, "app.root", envKey("IGNITOR_APP_ROOT"))
	assert.Equal(t, "debug", envKey("IGNITOR_DEBUG"))
}

func TestConfig_Validate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.App.Root = ""
	cfg.Server.ShutdownTimeout = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app.root")
	assert.Contains(t, err.Error(), "shutdown_timeout")
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration())
	require.NoError(t, d.UnmarshalText([]byte(" 45 ")))
	assert.Equal(t, 45*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-1s")))
	assert.Error(t, d.UnmarshalText([]byte("later")))

	text, err := Duration(2 * time.Second).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2s", string(text))
}
