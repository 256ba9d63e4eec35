// Package config handles configuration loading, validation, and management for dragwatchd.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete daemon configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Tracker configuration for pointer sampling.
	Tracker TrackerConfig `toml:"tracker" json:"tracker" yaml:"tracker"`

	// Shake configuration for the drag-trigger gesture.
	Shake ShakeConfig `toml:"shake" json:"shake" yaml:"shake"`

	// Drag configuration for the intent detector.
	Drag DragConfig `toml:"drag" json:"drag" yaml:"drag"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// IPC configuration for the control socket.
	IPC IPCConfig `toml:"ipc" json:"ipc" yaml:"ipc"`

	// Metrics configuration.
	Metrics MetricsConfig `toml:"metrics" json:"metrics" yaml:"metrics"`
}

// TrackerConfig holds pointer sampling configuration.
type TrackerConfig struct {
	// Backend selects the sample source: "auto" picks the platform
	// hook, "simulated" runs without one.
	Backend string `toml:"backend" json:"backend" yaml:"backend"`

	// AccountingIntervalMs is the performance accounting cadence in
	// milliseconds.
	AccountingIntervalMs int `toml:"accounting_interval_ms" json:"accounting_interval_ms" yaml:"accounting_interval_ms"`
}

// ShakeConfig holds shake gesture tuning.
type ShakeConfig struct {
	// Enabled determines whether shake detection drives drag
	// activation.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// MinReversals is the number of direction reversals that count as
	// a shake.
	MinReversals int `toml:"min_reversals" json:"min_reversals" yaml:"min_reversals"`

	// WindowMs is the rolling window for counting reversals.
	WindowMs int `toml:"window_ms" json:"window_ms" yaml:"window_ms"`

	// MinSpeedPxSec is the minimum horizontal speed for a reversal to
	// count.
	MinSpeedPxSec float64 `toml:"min_speed_px_sec" json:"min_speed_px_sec" yaml:"min_speed_px_sec"`
}

// DragConfig holds drag-intent detector configuration.
type DragConfig struct {
	// PollIntervalMs is the clipboard poll cadence while a session is
	// active.
	PollIntervalMs int `toml:"poll_interval_ms" json:"poll_interval_ms" yaml:"poll_interval_ms"`

	// SessionTimeoutMs bounds an optimistic session.
	SessionTimeoutMs int `toml:"session_timeout_ms" json:"session_timeout_ms" yaml:"session_timeout_ms"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is the log output: "stdout", "stderr", "file", or "both".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the path to the log file (when Output includes a file).
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the maximum log file size before rotation.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of rotated log files to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
}

// IPCConfig holds control socket configuration.
type IPCConfig struct {
	// Enabled determines whether the IPC server runs.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// SocketPath is the Unix socket path (or named pipe on Windows).
	SocketPath string `toml:"socket_path" json:"socket_path" yaml:"socket_path"`

	// MaxConnections is the maximum concurrent connections.
	MaxConnections int `toml:"max_connections" json:"max_connections" yaml:"max_connections"`

	// TimeoutSec is the per-connection read/write timeout.
	TimeoutSec int `toml:"timeout_sec" json:"timeout_sec" yaml:"timeout_sec"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled determines whether counters are registered and served
	// over IPC.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		Tracker: TrackerConfig{
			Backend:              "auto",
			AccountingIntervalMs: 1000,
		},
		Shake: ShakeConfig{
			Enabled:       true,
			MinReversals:  3,
			WindowMs:      500,
			MinSpeedPxSec: 400,
		},
		Drag: DragConfig{
			PollIntervalMs:   100,
			SessionTimeoutMs: 3000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "file",
			FilePath:   filepath.Join(PlatformLogDir(), "dragwatchd.log"),
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
		IPC: IPCConfig{
			Enabled:        true,
			SocketPath:     DefaultSocketPath(),
			MaxConnections: 10,
			TimeoutSec:     30,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Load reads configuration from the specified path. A missing file
// yields the defaults. Supports TOML, JSON, and YAML by extension.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration against the embedded schema and
// the semantic rules the schema cannot express.
func (c *Config) Validate() error {
	if err := validateSchema(c); err != nil {
		return err
	}

	if c.Tracker.AccountingIntervalMs <= 0 {
		return fmt.Errorf("tracker.accounting_interval_ms must be positive, got %d", c.Tracker.AccountingIntervalMs)
	}
	switch c.Tracker.Backend {
	case "auto", "simulated":
	default:
		return fmt.Errorf("tracker.backend must be \"auto\" or \"simulated\", got %q", c.Tracker.Backend)
	}

	if c.Shake.Enabled {
		if c.Shake.MinReversals <= 0 {
			return fmt.Errorf("shake.min_reversals must be positive, got %d", c.Shake.MinReversals)
		}
		if c.Shake.WindowMs <= 0 {
			return fmt.Errorf("shake.window_ms must be positive, got %d", c.Shake.WindowMs)
		}
		if c.Shake.MinSpeedPxSec <= 0 {
			return fmt.Errorf("shake.min_speed_px_sec must be positive, got %g", c.Shake.MinSpeedPxSec)
		}
	}

	if c.Drag.PollIntervalMs <= 0 {
		return fmt.Errorf("drag.poll_interval_ms must be positive, got %d", c.Drag.PollIntervalMs)
	}
	if c.Drag.SessionTimeoutMs <= 0 {
		return fmt.Errorf("drag.session_timeout_ms must be positive, got %d", c.Drag.SessionTimeoutMs)
	}
	if c.Drag.SessionTimeoutMs < c.Drag.PollIntervalMs {
		return fmt.Errorf("drag.session_timeout_ms (%d) must not be shorter than drag.poll_interval_ms (%d)",
			c.Drag.SessionTimeoutMs, c.Drag.PollIntervalMs)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}

	if c.IPC.Enabled {
		if c.IPC.SocketPath == "" {
			return fmt.Errorf("ipc.socket_path must be set when ipc is enabled")
		}
		if c.IPC.MaxConnections <= 0 {
			return fmt.Errorf("ipc.max_connections must be positive, got %d", c.IPC.MaxConnections)
		}
		if c.IPC.TimeoutSec <= 0 {
			return fmt.Errorf("ipc.timeout_sec must be positive, got %d", c.IPC.TimeoutSec)
		}
	}

	return nil
}

// ApplyEnvOverrides applies environment variable overrides.
// Variables are prefixed with DRAGWATCH_.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DRAGWATCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DRAGWATCH_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
	if v := os.Getenv("DRAGWATCH_SOCKET_PATH"); v != "" {
		c.IPC.SocketPath = v
	}
	if v := os.Getenv("DRAGWATCH_TRACKER_BACKEND"); v != "" {
		c.Tracker.Backend = v
	}
	if v := os.Getenv("DRAGWATCH_POLL_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Drag.PollIntervalMs = ms
		}
	}
	if v := os.Getenv("DRAGWATCH_SESSION_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Drag.SessionTimeoutMs = ms
		}
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// EnsureDirectories creates the directories the daemon writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Logging.FilePath),
	}
	if runtime.GOOS != "windows" && c.IPC.SocketPath != "" {
		dirs = append(dirs, filepath.Dir(c.IPC.SocketPath))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SaveConfig writes the configuration to path as TOML.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
