package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/magpie-dev/magpied/internal/pathutil"
)

// Default remote endpoint queried for published releases
const DefaultReleaseURL = "https://api.magpie.dev/v1/releases/magpied"

// Config represents the complete configuration for the magpied daemon
type Config struct {
	// Daemon lifecycle configuration
	Daemon DaemonConfig `toml:"daemon"`

	// Update checking configuration
	Update UpdateConfig `toml:"update"`

	// Logging configuration
	Logging LoggingConfig `toml:"logging"`

	// Sentry configuration
	Sentry SentryConfig `toml:"sentry"`

	// Output configuration
	Output OutputConfig `toml:"output"`

	// Directory paths (computed, not stored in TOML)
	DataDir   string `toml:"-"`
	ConfigDir string `toml:"-"`
}

// DaemonConfig contains daemon lifecycle settings
type DaemonConfig struct {
	// Path to the PID file written by the running daemon
	PIDFile string `toml:"pid_file"`

	// Path to the daemon log file
	LogFile string `toml:"log_file"`

	// Timeout for graceful shutdown when stopping the daemon
	StopTimeout time.Duration `toml:"stop_timeout"`
}

// UpdateConfig contains update-check settings
type UpdateConfig struct {
	// Enable background update checks on status display
	AutoCheck bool `toml:"auto_check"`

	// Release endpoint URL (override for testing/mirrors)
	ReleaseURL string `toml:"release_url"`

	// Timeout for version-check requests in seconds
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// LoggingConfig contains logger settings
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `toml:"level"`

	// Output destination (stdout, stderr, or file path)
	Output string `toml:"output"`

	// Enable colored output for terminal destinations
	Color bool `toml:"color"`
}

// SentryConfig contains error monitoring settings
type SentryConfig struct {
	Enabled     bool    `toml:"enabled"`
	DSN         string  `toml:"dsn"`
	Environment string  `toml:"environment"`
	SampleRate  float64 `toml:"sample_rate"`
	Debug       bool    `toml:"debug"`
}

// OutputConfig contains CLI output settings
type OutputConfig struct {
	// Enable colored CLI output
	ColorsEnabled bool `toml:"colors_enabled"`

	// Only color output when attached to a terminal
	AutoDetectTTY bool `toml:"auto_detect_tty"`

	// Verbosity level (minimal, verbose)
	Verbosity string `toml:"verbosity"`
}

// DefaultConfig returns default daemon configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	configDir := filepath.Join(homeDir, ".config", "magpie")
	dataDir := filepath.Join(homeDir, ".local", "share", "magpie")

	return &Config{
		Daemon: DaemonConfig{
			PIDFile:     filepath.Join(dataDir, "magpied.pid"),
			LogFile:     filepath.Join(dataDir, "magpied.log"),
			StopTimeout: 10 * time.Second,
		},
		Update: UpdateConfig{
			AutoCheck:      true,
			ReleaseURL:     DefaultReleaseURL,
			TimeoutSeconds: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Color:  true,
		},
		Sentry: SentryConfig{
			Enabled:     false,
			DSN:         "",
			Environment: "production",
			SampleRate:  1.0,
			Debug:       false,
		},
		Output: OutputConfig{
			ColorsEnabled: true,
			AutoDetectTTY: true,
			Verbosity:     "minimal",
		},
		DataDir:   dataDir,
		ConfigDir: configDir,
	}
}

// Load loads configuration from the specified file path
func Load(configPath string) (*Config, error) {
	config := DefaultConfig()

	// If no config path specified, try default location
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return config, nil // Return defaults if can't determine home dir
		}
		configPath = filepath.Join(homeDir, ".config", "magpie", "magpied.toml")
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config.applyDataDirOverride()
		return config, nil
	}

	// Load and parse the TOML file
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	config.expandPaths()
	config.applyDataDirOverride()

	// Validate the configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// expandPaths resolves ~ and environment variables in user-supplied file
// paths. Stream names like "stdout" pass through unchanged.
func (c *Config) expandPaths() {
	c.Daemon.PIDFile = pathutil.Expand(c.Daemon.PIDFile)
	c.Daemon.LogFile = pathutil.Expand(c.Daemon.LogFile)
	if c.Logging.Output != "stdout" && c.Logging.Output != "stderr" {
		c.Logging.Output = pathutil.Expand(c.Logging.Output)
	}
}

// applyDataDirOverride redirects all computed paths when MAGPIED_DATA_DIR is
// set. Used by containers, CI pipelines and tests that need isolation.
func (c *Config) applyDataDirOverride() {
	dataDir := os.Getenv("MAGPIED_DATA_DIR")
	if dataDir == "" || !filepath.IsAbs(dataDir) {
		return
	}

	c.DataDir = dataDir
	c.ConfigDir = dataDir
	c.Daemon.PIDFile = filepath.Join(dataDir, "magpied.pid")
	c.Daemon.LogFile = filepath.Join(dataDir, "magpied.log")
}

// Save saves the configuration to the specified file path
func (c *Config) Save(configPath string) error {
	// Ensure the config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config as TOML: %w", err)
	}

	return nil
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("daemon.pid_file must not be empty")
	}
	if c.Daemon.StopTimeout < 0 {
		return fmt.Errorf("daemon.stop_timeout must be non-negative")
	}
	if c.Update.ReleaseURL == "" {
		return fmt.Errorf("update.release_url must not be empty")
	}
	if c.Update.TimeoutSeconds <= 0 {
		return fmt.Errorf("update.timeout_seconds must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	if c.Sentry.SampleRate < 0 || c.Sentry.SampleRate > 1 {
		return fmt.Errorf("sentry.sample_rate must be between 0.0 and 1.0")
	}
	return nil
}

// EnsureDirectories creates the data and config directories if missing
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.ConfigDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// UpdateTimeout returns the configured version-check timeout as a duration
func (c *Config) UpdateTimeout() time.Duration {
	return time.Duration(c.Update.TimeoutSeconds) * time.Second
}
