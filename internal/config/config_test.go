package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.Update.AutoCheck)
	assert.Equal(t, DefaultReleaseURL, cfg.Update.ReleaseURL)
	assert.Equal(t, 5, cfg.Update.TimeoutSeconds)
	assert.Equal(t, 10*time.Second, cfg.Daemon.StopTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Contains(t, cfg.Daemon.PIDFile, "magpied.pid")
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultReleaseURL, cfg.Update.ReleaseURL)
}

func TestLoadParsesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "magpied.toml")
	content := `
[update]
auto_check = false
release_url = "https://mirror.example.com/releases"
timeout_seconds = 2

[logging]
level = "debug"
output = "stdout"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Update.AutoCheck)
	assert.Equal(t, "https://mirror.example.com/releases", cfg.Update.ReleaseURL)
	assert.Equal(t, 2*time.Second, cfg.UpdateTimeout())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadExpandsPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MAGPIE_RUN", filepath.Join(home, "run"))

	path := filepath.Join(t.TempDir(), "magpied.toml")
	content := `
[daemon]
pid_file = "$MAGPIE_RUN/magpied.pid"
log_file = "~/logs/magpied.log"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "run", "magpied.pid"), cfg.Daemon.PIDFile)
	assert.Equal(t, filepath.Join(home, "logs", "magpied.log"), cfg.Daemon.LogFile)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "magpied.toml")
	content := `
[logging]
level = "loud"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDataDirOverride(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("MAGPIED_DATA_DIR", dataDir)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dataDir, "magpied.pid"), cfg.Daemon.PIDFile)
}

func TestDataDirOverrideIgnoresRelativePath(t *testing.T) {
	t.Setenv("MAGPIED_DATA_DIR", "relative/path")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.NotEqual(t, "relative/path", cfg.DataDir)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "magpied.toml")

	cfg := DefaultConfig()
	cfg.Update.AutoCheck = false
	cfg.Logging.Level = "warn"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.False(t, loaded.Update.AutoCheck)
	assert.Equal(t, "warn", loaded.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"empty pid file", func(c *Config) { c.Daemon.PIDFile = "" }, true},
		{"negative stop timeout", func(c *Config) { c.Daemon.StopTimeout = -time.Second }, true},
		{"empty release url", func(c *Config) { c.Update.ReleaseURL = "" }, true},
		{"zero check timeout", func(c *Config) { c.Update.TimeoutSeconds = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, true},
		{"sample rate out of range", func(c *Config) { c.Sentry.SampleRate = 1.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
